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


package masterdriver_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/masterdriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/slavedriver"
	"github.com/jetsetilly/ahbfabric/test"
)

type memory struct {
	words     map[uint32]uint32
	readWaits int
	count     int
	failWrite bool
}

func (m *memory) ReadData(meta signals.TransferMeta) (databus.Value, slavedriver.Result) {
	if m.count < m.readWaits {
		m.count++
		return databus.Value{}, slavedriver.Pending
	}
	m.count = 0
	return databus.ExtractFromWord(m.words[databus.Word.Align(meta.Addr)], meta.Addr, meta.Size), slavedriver.Success
}

func (m *memory) PreWrite(meta signals.TransferMeta) slavedriver.Result {
	if meta.Addr == 0xbad0 {
		return slavedriver.Error
	}
	if m.failWrite {
		return slavedriver.Pending
	}
	return slavedriver.Success
}

func (m *memory) WriteData(meta signals.TransferMeta, data databus.Value, postSuccess bool) slavedriver.Result {
	if m.failWrite && !postSuccess {
		return slavedriver.Error
	}
	a := databus.Word.Align(meta.Addr)
	m.words[a] = databus.EmplaceInWord(m.words[a], meta.Addr, data)
	return slavedriver.Success
}

type rig struct {
	master *masterdriver.Master
	slave  *slavedriver.SyncSlave
	mem    *memory
}

func newRig() *rig {
	r := &rig{
		master: masterdriver.NewMaster("cpu", signals.DataProtection()),
		mem:    &memory{words: map[uint32]uint32{0x100: 0x11223344}},
	}
	r.slave = slavedriver.NewSyncSlave("mem", r.mem, slavedriver.Combinatorial)
	r.master.AttachDownstream(r.slave)
	r.slave.AttachUpstream(r.master)
	return r
}

func (r *rig) cycle() {
	r.slave.Tick()
	r.master.Tick()
	r.slave.Tock()
	r.master.Tock()
}

func TestPipelined(t *testing.T) {
	r := newRig()
	r1 := r.master.Read(0x100, databus.Word)
	w, err := r.master.Write(0x104, databus.FromWord(0xcafe0000))
	test.DemandSuccess(t, err)
	r2 := r.master.Read(0x106, databus.Halfword)

	for range 5 {
		r.cycle()
	}
	test.ExpectSuccess(t, r.master.IsIdle())

	done := r.master.Completed()
	test.DemandEquality(t, len(done), 3)
	test.ExpectEquality(t, done[0], r1)
	test.ExpectEquality(t, done[1], w)
	test.ExpectEquality(t, done[2], r2)

	test.ExpectEquality(t, r1.Result, databus.FromWord(0x11223344))
	test.ExpectEquality(t, r1.Issued, uint64(1))
	test.ExpectEquality(t, r1.Completed, uint64(2))
	test.ExpectEquality(t, w.Completed, uint64(3))
	test.ExpectEquality(t, r2.Result, databus.FromShort(0xcafe))
	test.ExpectEquality(t, r2.Completed, uint64(4))

	for _, d := range done {
		test.ExpectEquality(t, d.Status, masterdriver.DataPhaseDone)
		test.ExpectEquality(t, d.Response, signals.Success)
	}
}

func TestWaitstates(t *testing.T) {
	r := newRig()
	r.mem.readWaits = 2
	r1 := r.master.Read(0x100, databus.Word)
	r2 := r.master.Read(0x100, databus.Byte)

	r.cycle()
	test.ExpectEquality(t, r1.Status, masterdriver.AddrPhaseNew)
	r.cycle()
	test.ExpectEquality(t, r1.Status, masterdriver.DataPhaseWaiting)
	r.cycle()
	test.ExpectEquality(t, r2.Status, masterdriver.AddrPhaseStalled)

	for range 5 {
		r.cycle()
	}

	test.ExpectEquality(t, r1.Completed, uint64(4))
	test.ExpectEquality(t, r2.Issued, uint64(2))
	test.ExpectEquality(t, r2.Completed, uint64(7))
	test.ExpectEquality(t, r2.Result, databus.FromByte(0x44))
}

func TestErrorResponse(t *testing.T) {
	r := newRig()
	w, err := r.master.Write(0xbad0, databus.FromWord(1))
	test.DemandSuccess(t, err)
	r1 := r.master.Read(0x100, databus.Word)

	for range 5 {
		r.cycle()
	}

	test.ExpectEquality(t, w.Status, masterdriver.DataPhaseDone)
	test.ExpectEquality(t, w.Response, signals.Error1)
	test.ExpectEquality(t, r1.Issued, uint64(3))
	test.ExpectEquality(t, r1.Response, signals.Success)
	test.ExpectEquality(t, r1.Completed, uint64(4))
}

func TestAbortedAddressPhase(t *testing.T) {
	r := newRig()
	r.mem.failWrite = true
	w, err := r.master.Write(0x100, databus.FromWord(1))
	test.DemandSuccess(t, err)
	r1 := r.master.Read(0x100, databus.Word)

	for range 5 {
		r.cycle()
	}

	test.ExpectEquality(t, w.Response, signals.Error1)
	test.ExpectEquality(t, r1.Status, masterdriver.Aborted)
	test.ExpectSuccess(t, r1.IsFinished())
	test.ExpectSuccess(t, r.master.IsIdle())
}

func TestBadData(t *testing.T) {
	m := masterdriver.NewMaster("cpu", signals.DataProtection())
	err := m.Enqueue(&masterdriver.Transfer{
		Meta: signals.TransferMeta{Addr: 0x100, Size: databus.Word, Dir: signals.Read},
		Data: databus.FromWord(1),
	})
	test.ExpectSuccess(t, curated.Is(err, masterdriver.BadData))

	err = m.Enqueue(&masterdriver.Transfer{
		Meta: signals.TransferMeta{Addr: 0x100, Size: databus.Word, Dir: signals.Write},
		Data: databus.FromByte(1),
	})
	test.ExpectSuccess(t, curated.Is(err, masterdriver.BadData))
}
