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
	"fmt"

	"github.com/jetsetilly/ahbfabric/curated"
)

// Size is the width of a transfer in bytes. Only powers of two are valid.
type Size uint8

// List of valid transfer sizes. Only sizes up to and including Doubleword can
// be carried by a Value.
const (
	Byte       Size = 1
	Halfword   Size = 2
	Word       Size = 4
	Doubleword Size = 8
	FourWord   Size = 16
	EightWord  Size = 32
	Line512    Size = 64
	Line1024   Size = 128
)

// ParseSize converts a number of bytes into a Size.
func ParseSize(bytes int) (Size, error) {
	switch bytes {
	case 1, 2, 4, 8, 16, 32, 64, 128:
		return Size(bytes), nil
	}
	return 0, curated.Errorf(BadSize, bytes)
}

// Bytes returns the size as a number of bytes.
func (s Size) Bytes() int {
	return int(s)
}

// Bits returns the size as a number of bits.
func (s Size) Bits() int {
	return int(s) * 8
}

// Align the address down to the size.
func (s Size) Align(addr uint32) uint32 {
	return addr &^ (uint32(s) - 1)
}

// OffsetFromAligned returns the offset of the address from the address
// aligned to the size.
func (s Size) OffsetFromAligned(addr uint32) int {
	return int(addr & (uint32(s) - 1))
}

// IsAligned returns true if the address is aligned to the size.
func (s Size) IsAligned(addr uint32) bool {
	return s.OffsetFromAligned(addr) == 0
}

func (s Size) String() string {
	switch s {
	case Byte:
		return "byte"
	case Halfword:
		return "halfword"
	case Word:
		return "word"
	case Doubleword:
		return "doubleword"
	}
	return fmt.Sprintf("%d bytes", int(s))
}
