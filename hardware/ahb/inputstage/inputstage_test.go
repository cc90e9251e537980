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


package inputstage_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/inputstage"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/test"
)

type master struct {
	replies []signals.SlaveToMaster
}

func (m *master) Reply(msg signals.SlaveToMaster) {
	m.replies = append(m.replies, msg)
}

type decoder struct {
	got []signals.MasterToSlave
}

func (d *decoder) Request(msg signals.MasterToSlave) {
	d.got = append(d.got, msg)
}

func (d *decoder) last() signals.AddrPhase {
	return d.got[len(d.got)-1].Addr
}

func read(addr uint32) signals.AddrPhase {
	return signals.NewSingle(addr, databus.Word, signals.Read, signals.DataProtection(), "test")
}

func setup() (*inputstage.InputStage, *master, *decoder) {
	s := inputstage.NewInputStage("input")
	m := &master{}
	d := &decoder{}
	s.AttachUpstream(m)
	s.AttachDownstream(d)
	return s, m, d
}

func TestTransparent(t *testing.T) {
	s, m, d := setup()

	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Idle)
	s.Request(signals.MasterToSlave{Addr: read(0x100)})
	s.Grant(true)
	s.Tock()
	test.ExpectEquality(t, d.last().Meta.Addr, uint32(0x100))

	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Transparent)
	s.Reply(signals.SlaveToMaster{Status: signals.Success, Data: databus.FromWord(7)})
	s.Request(signals.MasterToSlave{Addr: signals.Empty("test")})
	s.Tock()

	test.DemandEquality(t, len(m.replies), 1)
	test.ExpectEquality(t, m.replies[0].Data, databus.FromWord(7))
}

func TestBufferAfterDeny(t *testing.T) {
	s, m, d := setup()

	s.Tick()
	s.Request(signals.MasterToSlave{Addr: read(0x100)})
	s.Grant(false)
	s.Tock()
	test.ExpectEquality(t, len(m.replies), 0)

	// the master thinks the read advanced and presents the next one. the
	// stored address phase goes to the decoder instead and the master is
	// held
	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Buffer)
	s.Tock()
	test.DemandEquality(t, len(m.replies), 1)
	test.ExpectEquality(t, m.replies[0].Status, signals.Pending)
	s.Request(signals.MasterToSlave{Addr: read(0x104).WithReady(false)})
	test.ExpectEquality(t, d.last().Meta.Addr, uint32(0x100))
	test.ExpectEquality(t, d.last().Ready, true)
	s.Grant(false)

	// still denied
	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Buffer)
	s.Tock()
	s.Request(signals.MasterToSlave{Addr: read(0x104).WithReady(false)})
	test.ExpectEquality(t, d.last().Meta.Addr, uint32(0x100))
	s.Grant(true)

	// the buffered read is in its data phase
	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Transparent)
	s.Reply(signals.SlaveToMaster{Status: signals.Success, Data: databus.FromWord(0xab)})
	s.Request(signals.MasterToSlave{Addr: read(0x104)})
	test.ExpectEquality(t, d.last().Meta.Addr, uint32(0x104))
	s.Grant(true)
	s.Tock()

	test.DemandEquality(t, len(m.replies), 3)
	test.ExpectEquality(t, m.replies[2].Data, databus.FromWord(0xab))

	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Transparent)
}

func TestTerminator(t *testing.T) {
	s, m, _ := setup()

	s.Tick()
	s.Request(signals.MasterToSlave{Addr: signals.Empty("test")})
	s.Tock()
	test.ExpectEquality(t, len(m.replies), 0)

	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Terminator)

	// a reply from the decoder is swallowed
	s.Reply(signals.EmptyReply())
	s.Request(signals.MasterToSlave{Addr: signals.Empty("test")})
	s.Tock()
	test.DemandEquality(t, len(m.replies), 1)
	test.ExpectEquality(t, m.replies[0].Status, signals.Success)

	// no request means nothing to answer
	s.Tick()
	s.Tock()
	s.Tick()
	test.ExpectEquality(t, s.State(), inputstage.Idle)
}

func TestUnsupportedTransfers(t *testing.T) {
	expectUnimplemented := func(addr signals.AddrPhase) {
		t.Helper()
		s, _, _ := setup()
		s.Tick()
		r := test.ExpectPanic(t, func() {
			s.Request(signals.MasterToSlave{Addr: addr})
		})
		err, ok := r.(error)
		test.DemandSuccess(t, ok)
		test.ExpectSuccess(t, curated.Is(err, checked.NotImplemented))
	}

	locked := read(0x100)
	locked.Lock = true
	expectUnimplemented(locked)

	burst := read(0x100)
	burst.Meta.Burst = signals.Incr
	expectUnimplemented(burst)

	expectUnimplemented(read(0x3fe))

	// past the end of the address space
	expectUnimplemented(read(0xfffffffe))
}

func TestTopOfAddressSpace(t *testing.T) {
	s, _, d := setup()

	s.Tick()
	s.Request(signals.MasterToSlave{Addr: read(0xfffffffc)})
	s.Grant(true)
	s.Tock()
	test.DemandEquality(t, len(d.got), 1)
	test.ExpectEquality(t, d.last().Meta.Addr, uint32(0xfffffffc))
}
