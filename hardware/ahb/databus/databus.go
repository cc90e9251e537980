// This file is part of AHBFabric.
//
// AHBFabric is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AHBFabric is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AHBFabric.  If not, see <https://www.gnu.org/licenses/>.

package databus

import (
	"encoding/binary"
	"fmt"

	"github.com/jetsetilly/ahbfabric/curated"
)

// Sentinel patterns for conversion errors.
const (
	// the value is wider than the destination
	Overflow = "databus: overflow: %v does not fit %d bits"

	// the value is narrower than the destination. it isn't known whether the
	// value should be zero-extended or sign-extended
	Underflow = "databus: underflow: %v is narrower than %d bits"

	// a byte slice of unsupported length
	BadSlice = "databus: invalid slice length (%d)"

	// a transfer size that isn't a power of two or is too wide
	BadSize = "databus: invalid transfer size (%d bytes)"
)

// Value is the data carried by a data phase. The width of the value is always
// one of the supported transfer sizes, or it is absent (HighZ).
//
// The zero value is HighZ.
type Value struct {
	width Size
	raw   uint64
}

// HighZ is the value of a bus that isn't carrying a transfer.
var HighZ = Value{}

// FromByte creates a byte wide value.
func FromByte(v uint8) Value {
	return Value{width: Byte, raw: uint64(v)}
}

// FromShort creates a halfword wide value.
func FromShort(v uint16) Value {
	return Value{width: Halfword, raw: uint64(v)}
}

// FromWord creates a word wide value.
func FromWord(v uint32) Value {
	return Value{width: Word, raw: uint64(v)}
}

// FromQuad creates a doubleword wide value.
func FromQuad(v uint64) Value {
	return Value{width: Doubleword, raw: v}
}

// FromSlice creates a value from little-endian bytes. Slices of length 0, 1,
// 2, 4 and 8 are supported. A zero length slice is HighZ.
func FromSlice(p []byte) (Value, error) {
	switch len(p) {
	case 0:
		return HighZ, nil
	case 1:
		return FromByte(p[0]), nil
	case 2:
		return FromShort(binary.LittleEndian.Uint16(p)), nil
	case 4:
		return FromWord(binary.LittleEndian.Uint32(p)), nil
	case 8:
		return FromQuad(binary.LittleEndian.Uint64(p)), nil
	}
	return HighZ, curated.Errorf(BadSlice, len(p))
}

// ClipWord truncates a word to the size, which must not be wider than Word.
func ClipWord(w uint32, size Size) Value {
	switch size {
	case Byte:
		return FromByte(uint8(w))
	case Halfword:
		return FromShort(uint16(w))
	case Word:
		return FromWord(w)
	}
	panic(fmt.Sprintf("databus: cannot clip word to %v", size))
}

// IsPresent returns false if the value is HighZ.
func (v Value) IsPresent() bool {
	return v.width != 0
}

// Size returns the width of the value. It is a programming error to ask for
// the size of HighZ.
func (v Value) Size() Size {
	if v.width == 0 {
		panic("databus: size of non-transfer")
	}
	return v.width
}

// Raw returns the value as an unsigned 32bit number. Panics if the value is
// HighZ or wider than a word.
func (v Value) Raw() uint32 {
	if v.width == 0 || v.width > Word {
		panic(fmt.Sprintf("databus: %v too wide to cast into word", v))
	}
	return uint32(v.raw)
}

func (v Value) convert(width Size) (uint64, error) {
	if v.width == width {
		return v.raw, nil
	}
	if width > v.width {
		return 0, curated.Errorf(Underflow, v, width.Bits())
	}
	return 0, curated.Errorf(Overflow, v, width.Bits())
}

// Word returns the value as a word. The value must be word wide.
func (v Value) Word() (uint32, error) {
	r, err := v.convert(Word)
	return uint32(r), err
}

// Short returns the value as a halfword. The value must be halfword wide.
func (v Value) Short() (uint16, error) {
	r, err := v.convert(Halfword)
	return uint16(r), err
}

// Byte returns the value as a byte. The value must be byte wide.
func (v Value) Byte() (uint8, error) {
	r, err := v.convert(Byte)
	return uint8(r), err
}

// Quad returns the value as a doubleword. The value must be doubleword wide.
func (v Value) Quad() (uint64, error) {
	return v.convert(Doubleword)
}

// Bytes returns the little-endian byte representation of the value. HighZ
// returns an empty slice.
func (v Value) Bytes() []byte {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint64(p, v.raw)
	return p[:v.width]
}

// WriteInto copies the value into p, which must be exactly as long as the
// value is wide.
func (v Value) WriteInto(p []byte) {
	if len(p) != int(v.Size()) {
		panic(fmt.Sprintf("databus: writing %v into %d bytes", v, len(p)))
	}
	copy(p, v.Bytes())
}

// ExtractFromAligned returns the part of an aligned value for a transfer of
// size at addr. The value must be at least as wide as the extracted part.
func (v Value) ExtractFromAligned(addr uint32, size Size) Value {
	this := v.Size()
	offset := this.OffsetFromAligned(addr)
	if offset+int(size) > int(this) {
		panic(fmt.Sprintf("databus: cannot extract past provided data: %d+%d > %v", offset, size, v))
	}

	p := v.Bytes()
	r, err := FromSlice(p[offset : offset+int(size)])
	if err != nil {
		panic(err)
	}
	return r
}

// EmplaceInAligned returns a copy of the aligned value with the data placed
// at the offset of addr.
func (v Value) EmplaceInAligned(addr uint32, data Value) Value {
	this := v.Size()
	size := data.Size()
	offset := this.OffsetFromAligned(addr)
	if offset+int(size) > int(this) {
		panic(fmt.Sprintf("databus: cannot emplace past provided data: %d+%d > %v", offset, size, v))
	}

	p := v.Bytes()
	data.WriteInto(p[offset : offset+int(size)])
	r, err := FromSlice(p)
	if err != nil {
		panic(err)
	}
	return r
}

// ExtractFromWord is ExtractFromAligned for a word of memory.
func ExtractFromWord(w uint32, addr uint32, size Size) Value {
	return FromWord(w).ExtractFromAligned(addr, size)
}

// EmplaceInWord is EmplaceInAligned for a word of memory.
func EmplaceInWord(w uint32, addr uint32, data Value) uint32 {
	return FromWord(w).EmplaceInAligned(addr, data).Raw()
}

// WordMask returns a mask of the bits in a word that a transfer of size at
// addr touches.
func WordMask(addr uint32, size Size) uint32 {
	return EmplaceInWord(0, addr, ClipWord(0xffffffff, size))
}

// ZeroExtend converts a value no wider than a word into a word.
func (v Value) ZeroExtend() uint32 {
	if v.width == 0 || v.width > Word {
		panic(fmt.Sprintf("databus: cannot extend %v", v))
	}
	return uint32(v.raw)
}

// SignExtend converts a value no wider than a word into a word, copying the
// sign bit into the upper bits.
func (v Value) SignExtend() uint32 {
	switch v.width {
	case Byte:
		return uint32(int32(int8(v.raw)))
	case Halfword:
		return uint32(int32(int16(v.raw)))
	case Word:
		return uint32(v.raw)
	}
	panic(fmt.Sprintf("databus: cannot extend %v", v))
}

func (v Value) String() string {
	switch v.width {
	case 0:
		return "Z"
	case Byte:
		return fmt.Sprintf("%02x", v.raw)
	case Halfword:
		return fmt.Sprintf("%04x", v.raw)
	case Word:
		return fmt.Sprintf("%08x", v.raw)
	}
	return fmt.Sprintf("%016x", v.raw)
}
