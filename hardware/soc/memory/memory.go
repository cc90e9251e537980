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


// Package memory implements the RAM and ROM slaves of the SoC.
//
// A Memory is a slavedriver.Handler. Storage is a little-endian byte slice
// starting at the origin of the memory. Accesses of any width up to a
// doubleword are supported, but must be naturally aligned.
//
// Wait-states are counted per access. A read with two wait-states is answered
// with Pending twice before the data is returned. Writes wait before the
// write is acknowledged.
package memory

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/slavedriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Sentinel patterns for errors returned by the debugging functions.
const (
	OutOfRange = "memory: %s: %#08x (%d bytes) out of range"
	Unaligned  = "memory: %s: unaligned access to %#08x (%v)"
)

// Memory is a block of RAM or ROM.
type Memory struct {
	name     string
	origin   uint32
	data     []byte
	readOnly bool

	readWaits  int
	writeWaits int

	// wait-states used so far by the current access
	count int

	// number of completed bus accesses
	Reads  int
	Writes int
}

// NewRAM is the preferred method of initialisation for a read/write Memory.
func NewRAM(name string, origin uint32, size int) *Memory {
	return &Memory{
		name:   name,
		origin: origin,
		data:   make([]byte, size),
	}
}

// NewROM is the preferred method of initialisation for a read-only Memory.
// Contents can be set with Load().
func NewROM(name string, origin uint32, size int) *Memory {
	m := NewRAM(name, origin, size)
	m.readOnly = true
	return m
}

func (m *Memory) String() string {
	kind := "ram"
	if m.readOnly {
		kind = "rom"
	}
	return fmt.Sprintf("%s %s %#08x-%#08x", m.name, kind, m.origin, m.origin+uint32(len(m.data))-1)
}

// SetWaitstates changes the number of wait-states for reads and writes.
func (m *Memory) SetWaitstates(read int, write int) {
	m.readWaits = max(read, 0)
	m.writeWaits = max(write, 0)
}

// Waitstates returns the number of read and write waitstates.
func (m *Memory) Waitstates() (int, int) {
	return m.readWaits, m.writeWaits
}

// Origin returns the address of the first byte of the memory.
func (m *Memory) Origin() uint32 {
	return m.origin
}

// Size returns the number of bytes in the memory.
func (m *Memory) Size() int {
	return len(m.data)
}

// IsReadOnly returns true for ROM.
func (m *Memory) IsReadOnly() bool {
	return m.readOnly
}

func (m *Memory) offset(addr uint32, n int) (int, bool) {
	if addr < m.origin {
		return 0, false
	}
	off := int(addr - m.origin)
	if off+n > len(m.data) {
		return 0, false
	}
	return off, true
}

// Load copies the bytes into the memory at addr. Read-only memory can be
// loaded.
func (m *Memory) Load(addr uint32, p []byte) error {
	off, ok := m.offset(addr, len(p))
	if !ok {
		return curated.Errorf(OutOfRange, m.name, addr, len(p))
	}
	copy(m.data[off:], p)
	return nil
}

// Peek returns the value at addr without a bus access.
func (m *Memory) Peek(addr uint32, size databus.Size) (databus.Value, error) {
	if !size.IsAligned(addr) {
		return databus.HighZ, curated.Errorf(Unaligned, m.name, addr, size)
	}
	off, ok := m.offset(addr, size.Bytes())
	if !ok {
		return databus.HighZ, curated.Errorf(OutOfRange, m.name, addr, size.Bytes())
	}
	return databus.FromSlice(m.data[off : off+size.Bytes()])
}

// Poke changes the value at addr without a bus access. Read-only memory can
// be poked.
func (m *Memory) Poke(addr uint32, v databus.Value) error {
	size := v.Size()
	if !size.IsAligned(addr) {
		return curated.Errorf(Unaligned, m.name, addr, size)
	}
	off, ok := m.offset(addr, size.Bytes())
	if !ok {
		return curated.Errorf(OutOfRange, m.name, addr, size.Bytes())
	}
	v.WriteInto(m.data[off : off+size.Bytes()])
	return nil
}

// true if the access should wait for another cycle
func (m *Memory) wait(waits int) bool {
	if m.count < waits {
		m.count++
		return true
	}
	m.count = 0
	return false
}

// ReadData implements the slavedriver.Handler interface.
func (m *Memory) ReadData(meta signals.TransferMeta) (databus.Value, slavedriver.Result) {
	v, err := m.Peek(meta.Addr, meta.Size)
	if err != nil {
		logger.Logf(trace.Bus, m.name, "%v", err)
		return databus.HighZ, slavedriver.Error
	}
	if m.wait(m.readWaits) {
		return databus.HighZ, slavedriver.Pending
	}
	m.Reads++
	return v, slavedriver.Success
}

// PreWrite implements the slavedriver.Handler interface.
func (m *Memory) PreWrite(meta signals.TransferMeta) slavedriver.Result {
	if m.readOnly {
		logger.Logf(trace.Bus, m.name, "write to rom at %#08x", meta.Addr)
		return slavedriver.Error
	}
	if _, ok := m.offset(meta.Addr, meta.Size.Bytes()); !ok || !meta.IsAligned() {
		logger.Logf(trace.Bus, m.name, "bad write to %#08x (%v)", meta.Addr, meta.Size)
		return slavedriver.Error
	}
	if m.wait(m.writeWaits) {
		return slavedriver.Pending
	}
	return slavedriver.Success
}

// WriteData implements the slavedriver.Handler interface.
func (m *Memory) WriteData(meta signals.TransferMeta, data databus.Value, postSuccess bool) slavedriver.Result {
	if !postSuccess && m.wait(m.writeWaits) {
		return slavedriver.Pending
	}
	m.count = 0
	if err := m.Poke(meta.Addr, data); err != nil {
		logger.Logf(trace.Bus, m.name, "%v", err)
		return slavedriver.Error
	}
	m.Writes++
	return slavedriver.Success
}
