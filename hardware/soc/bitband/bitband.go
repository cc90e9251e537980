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


// Package bitband implements the bit-band alias regions of the Cortex-M3.
//
// Every word in an alias region maps to one bit of a byte in the bit-band
// region below it. Reading an alias word returns the bit in the least
// significant bit of the data. Writing an alias word sets or clears the bit
// according to the least significant bit of the written data.
//
// The Bitband type is a slavedriver.Handler for the alias regions. It
// reaches the bit-band regions through its own bus master, so that a write
// to an alias word becomes a read-modify-write of the target byte.
package bitband

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/masterdriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/slavedriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// The two bit-band regions and the size of each.
const (
	SRAMRegion   uint32 = 0x20000000
	PeriphRegion uint32 = 0x40000000
	RegionSize   uint32 = 0x00100000
)

// offset of an alias region from its bit-band region
const aliasOffset uint32 = 0x02000000

// AliasSize is the size of each alias region.
const AliasSize = RegionSize * 32

// AliasRegions returns the first and last address of each alias region.
func AliasRegions() [][2]uint32 {
	var r [][2]uint32
	for _, b := range []uint32{SRAMRegion, PeriphRegion} {
		r = append(r, [2]uint32{b + aliasOffset, b + aliasOffset + AliasSize - 1})
	}
	return r
}

// Alias returns the alias address of a bit in the byte at addr.
func Alias(addr uint32, bit int) (uint32, bool) {
	if bit < 0 || bit > 7 {
		return 0, false
	}
	for _, b := range []uint32{SRAMRegion, PeriphRegion} {
		if addr >= b && addr-b < RegionSize {
			return b + aliasOffset + (addr-b)*32 + uint32(bit)*4, true
		}
	}
	return 0, false
}

// Target returns the address of the byte and the bit number for an alias
// address. The alias address must be word aligned.
func Target(alias uint32) (uint32, int, bool) {
	if alias&0x03 != 0 {
		return 0, 0, false
	}
	for _, b := range []uint32{SRAMRegion, PeriphRegion} {
		a := b + aliasOffset
		if alias >= a && alias-a < AliasSize {
			off := alias - a
			return b + off>>5, int(off>>2) & 0x07, true
		}
	}
	return 0, 0, false
}

// Bitband serves the alias regions. The Master() must be attached to the bus
// as a master with access to the bit-band regions.
type Bitband struct {
	name   string
	master *masterdriver.Master

	// read of the target byte for the current access
	read *masterdriver.Transfer

	// number of completed alias accesses
	Reads  int
	Writes int
}

// NewBitband is the preferred method of initialisation for the Bitband type.
func NewBitband(name string) *Bitband {
	return &Bitband{
		name:   name,
		master: masterdriver.NewMaster(name, signals.DataProtection()),
	}
}

func (b *Bitband) String() string {
	return b.name
}

// Master returns the bus master used to reach the bit-band regions.
func (b *Bitband) Master() *masterdriver.Master {
	return b.master
}

// fetch reads the target byte. returns true once the read has finished
func (b *Bitband) fetch(addr uint32) (bool, slavedriver.Result) {
	if b.read == nil {
		b.read = b.master.Read(addr, databus.Byte)
		return false, slavedriver.Pending
	}
	if !b.read.IsFinished() {
		return false, slavedriver.Pending
	}
	if b.read.Response != signals.Success {
		b.read = nil
		return false, slavedriver.Error
	}
	return true, slavedriver.Success
}

// an alias word is accessed with a transfer no wider than a word
func (b *Bitband) badAccess(meta signals.TransferMeta) bool {
	if _, _, ok := Target(meta.Addr); !ok {
		logger.Logf(trace.Bus, b.name, "bad alias address %#08x", meta.Addr)
		return true
	}
	if meta.Size > databus.Word {
		logger.Logf(trace.Bus, b.name, "bad alias access size %v at %#08x", meta.Size, meta.Addr)
		return true
	}
	return false
}

// ReadData implements the slavedriver.Handler interface.
func (b *Bitband) ReadData(meta signals.TransferMeta) (databus.Value, slavedriver.Result) {
	if b.badAccess(meta) {
		return databus.HighZ, slavedriver.Error
	}
	addr, bit, _ := Target(meta.Addr)

	done, r := b.fetch(addr)
	if !done {
		return databus.HighZ, r
	}

	v := b.read.Result.Raw()
	b.read = nil
	b.Reads++
	return databus.ClipWord((v>>bit)&0x01, meta.Size), slavedriver.Success
}

// PreWrite implements the slavedriver.Handler interface. The write is never
// acknowledged before the data has arrived.
func (b *Bitband) PreWrite(meta signals.TransferMeta) slavedriver.Result {
	if b.badAccess(meta) {
		return slavedriver.Error
	}
	return slavedriver.Pending
}

// WriteData implements the slavedriver.Handler interface.
func (b *Bitband) WriteData(meta signals.TransferMeta, data databus.Value, postSuccess bool) slavedriver.Result {
	if postSuccess {
		return slavedriver.Success
	}

	addr, bit, _ := Target(meta.Addr)
	done, r := b.fetch(addr)
	if !done {
		return r
	}

	v := uint8(b.read.Result.Raw())
	b.read = nil
	v = v&^(1<<bit) | uint8(data.Raw()&0x01)<<bit

	// the write back is posted. the transfers of the master are issued in
	// order so a following read of the same byte sees the new value
	if _, err := b.master.Write(addr, databus.FromByte(v)); err != nil {
		logger.Logf(trace.Bus, b.name, "%v", err)
		return slavedriver.Error
	}
	b.Writes++
	return slavedriver.Success
}

// Describe returns a summary of the bit-band state.
func (b *Bitband) Describe() string {
	return fmt.Sprintf("%s: reads %d writes %d\n%s", b.name, b.Reads, b.Writes, b.master.Describe())
}
