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


package bitband_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/masterdriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/slavedriver"
	"github.com/jetsetilly/ahbfabric/hardware/soc/bitband"
	"github.com/jetsetilly/ahbfabric/hardware/soc/memory"
	"github.com/jetsetilly/ahbfabric/test"
)

func TestAddresses(t *testing.T) {
	a, ok := bitband.Alias(0x20000000, 0)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, a, uint32(0x22000000))

	a, ok = bitband.Alias(0x200fffff, 7)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, a, uint32(0x23fffffc))

	a, ok = bitband.Alias(0x40000004, 3)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, a, uint32(0x4200008c))

	_, ok = bitband.Alias(0x20100000, 0)
	test.ExpectFailure(t, ok)
	_, ok = bitband.Alias(0x20000000, 8)
	test.ExpectFailure(t, ok)

	addr, bit, ok := bitband.Target(0x23fffffc)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, addr, uint32(0x200fffff))
	test.ExpectEquality(t, bit, 7)

	addr, bit, ok = bitband.Target(0x43000000)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, addr, uint32(0x40080000))
	test.ExpectEquality(t, bit, 0)

	_, _, ok = bitband.Target(0x22000002)
	test.ExpectFailure(t, ok)
	_, _, ok = bitband.Target(0x24000000)
	test.ExpectFailure(t, ok)

	r := bitband.AliasRegions()
	test.DemandEquality(t, len(r), 2)
	test.ExpectEquality(t, r[0], [2]uint32{0x22000000, 0x23ffffff})
	test.ExpectEquality(t, r[1], [2]uint32{0x42000000, 0x43ffffff})
}

// cpu -> bitband slave, bitband master -> sram
type rig struct {
	cpu     *masterdriver.Master
	bb      *bitband.Bitband
	bbSlave *slavedriver.SyncSlave
	sram    *memory.Memory
	memory  *slavedriver.SyncSlave
}

func newRig() *rig {
	r := &rig{
		cpu:  masterdriver.NewMaster("cpu", signals.DataProtection()),
		bb:   bitband.NewBitband("bitband"),
		sram: memory.NewRAM("sram", 0x20000000, 16),
	}
	r.bbSlave = slavedriver.NewSyncSlave("alias", r.bb, slavedriver.Combinatorial)
	r.memory = slavedriver.NewSyncSlave("sram", r.sram, slavedriver.Combinatorial)

	r.cpu.AttachDownstream(r.bbSlave)
	r.bbSlave.AttachUpstream(r.cpu)
	r.bb.Master().AttachDownstream(r.memory)
	r.memory.AttachUpstream(r.bb.Master())
	return r
}

func (r *rig) cycle() {
	r.memory.Tick()
	r.bbSlave.Tick()
	r.cpu.Tick()
	r.bb.Master().Tick()
	r.memory.Tock()
	r.bbSlave.Tock()
	r.cpu.Tock()
	r.bb.Master().Tock()
}

func TestRead(t *testing.T) {
	r := newRig()
	test.DemandSuccess(t, r.sram.Load(0x20000001, []byte{0x08}))

	alias, _ := bitband.Alias(0x20000001, 3)
	set := r.cpu.Read(alias, databus.Word)
	alias, _ = bitband.Alias(0x20000001, 2)
	clear := r.cpu.Read(alias, databus.Byte)

	for range 8 {
		r.cycle()
	}

	test.ExpectEquality(t, set.Result, databus.FromWord(1))
	test.ExpectEquality(t, set.Completed, uint64(4))
	test.ExpectEquality(t, clear.Result, databus.FromByte(0))
	test.ExpectEquality(t, r.bb.Reads, 2)
}

func TestWrite(t *testing.T) {
	r := newRig()
	test.DemandSuccess(t, r.sram.Load(0x20000000, []byte{0xf0}))

	alias, _ := bitband.Alias(0x20000000, 0)
	w, err := r.cpu.Write(alias, databus.FromWord(0xffffffff))
	test.DemandSuccess(t, err)

	for range 6 {
		r.cycle()
	}

	test.ExpectEquality(t, w.Response, signals.Success)
	test.ExpectEquality(t, w.Completed, uint64(4))
	test.ExpectEquality(t, r.bb.Writes, 1)

	v, err := r.sram.Peek(0x20000000, databus.Byte)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, databus.FromByte(0xf1))

	// clearing a bit that is set
	alias, _ = bitband.Alias(0x20000000, 7)
	_, err = r.cpu.Write(alias, databus.FromWord(0))
	test.DemandSuccess(t, err)
	rd := r.cpu.Read(alias, databus.Word)

	for range 10 {
		r.cycle()
	}

	v, err = r.sram.Peek(0x20000000, databus.Byte)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, databus.FromByte(0x71))
	test.ExpectEquality(t, rd.Result, databus.FromWord(0))
	test.ExpectSuccess(t, r.cpu.IsIdle())
	test.ExpectSuccess(t, r.bb.Master().IsIdle())
}

func TestBadTarget(t *testing.T) {
	r := newRig()

	// the alias of a byte outside of the memory
	alias, _ := bitband.Alias(0x20000100, 0)
	rd := r.cpu.Read(alias, databus.Word)

	for range 6 {
		r.cycle()
	}

	test.ExpectEquality(t, rd.Response, signals.Error1)
}

func TestWideAccess(t *testing.T) {
	r := newRig()
	test.DemandSuccess(t, r.sram.Load(0x20000000, []byte{0x01}))

	alias, _ := bitband.Alias(0x20000000, 0)
	rd := r.cpu.Read(alias, databus.Doubleword)

	for range 6 {
		r.cycle()
	}

	test.ExpectEquality(t, rd.Response, signals.Error1)
	test.ExpectEquality(t, r.bb.Reads, 0)

	// the target byte is never read
	test.ExpectSuccess(t, r.bb.Master().IsIdle())
	test.ExpectEquality(t, len(r.bb.Master().Completed()), 0)
}
