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


package interconnect_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/arbiter"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/decoder"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/interconnect"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/masterdriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/outputstage"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/slavedriver"
	"github.com/jetsetilly/ahbfabric/test"
)

type memory struct {
	base  uint32
	words map[uint32]uint32
}

func (m *memory) ReadData(meta signals.TransferMeta) (databus.Value, slavedriver.Result) {
	return databus.ExtractFromWord(m.words[databus.Word.Align(meta.Addr)], meta.Addr, meta.Size), slavedriver.Success
}

func (m *memory) PreWrite(_ signals.TransferMeta) slavedriver.Result {
	return slavedriver.Success
}

func (m *memory) WriteData(meta signals.TransferMeta, data databus.Value, _ bool) slavedriver.Result {
	a := databus.Word.Align(meta.Addr)
	m.words[a] = databus.EmplaceInWord(m.words[a], meta.Addr, data)
	return slavedriver.Success
}

// records the transfers that start at the slave
type spy struct {
	next    ports.Slave
	started []uint32
}

func (s *spy) Request(msg signals.MasterToSlave) {
	if msg.Addr.AdvancesToValid() {
		s.started = append(s.started, msg.Addr.Meta.Addr)
	}
	s.next.Request(msg)
}

type system struct {
	w       *interconnect.Wrapper
	masters []*masterdriver.Master
	slaves  []*slavedriver.SyncSlave
	mems    []*memory
	spies   []*spy

	// masters are tocked before the slaves
	reversed bool
}

func newSystem(t *testing.T, cfg interconnect.Config) *system {
	t.Helper()
	ic, err := interconnect.New(cfg)
	test.DemandSuccess(t, err)

	s := &system{w: interconnect.NewWrapper(ic)}
	for i, n := range cfg.Masters {
		m := masterdriver.NewMaster(n, signals.DataProtection())
		m.AttachDownstream(ports.BindSlave(s.w, ports.Tag(i)))
		s.w.AttachMaster(ports.Tag(i), m)
		s.masters = append(s.masters, m)
	}
	for i, c := range cfg.Slaves {
		mem := &memory{base: c.Regions[0].Start, words: make(map[uint32]uint32)}
		sl := slavedriver.NewSyncSlave(c.Name, mem, slavedriver.Combinatorial)
		sl.AttachUpstream(ports.BindMaster(s.w, ports.Tag(i)))
		sp := &spy{next: sl}
		s.w.AttachSlave(ports.Tag(i), sp)
		s.slaves = append(s.slaves, sl)
		s.mems = append(s.mems, mem)
		s.spies = append(s.spies, sp)
	}
	return s
}

func (s *system) cycle() {
	for _, sl := range s.slaves {
		sl.Tick()
	}
	s.w.Tick()
	for _, m := range s.masters {
		m.Tick()
	}

	if s.reversed {
		for _, m := range s.masters {
			m.Tock()
		}
		for _, sl := range s.slaves {
			sl.Tock()
		}
		s.w.Tock()
		return
	}

	for _, sl := range s.slaves {
		sl.Tock()
	}
	s.w.Tock()
	for _, m := range s.masters {
		m.Tock()
	}
}

func (s *system) run(n int) {
	for range n {
		s.cycle()
	}
}

const sram = 0x20000000

func sramOnly(kind arbiter.Kind, masters ...string) interconnect.Config {
	return interconnect.Config{
		Masters: masters,
		Slaves: []interconnect.SlaveConfig{
			{Name: "sram", Regions: []interconnect.Region{{Start: sram, End: sram + 0xffff}}, Arbiter: kind},
		},
	}
}

func TestSingleMaster(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.Sole, "cpu"))
	s.mems[0].words[sram] = 0x11223344

	cpu := s.masters[0]
	r1 := cpu.Read(sram, databus.Word)
	w, err := cpu.Write(sram+4, databus.FromShort(0xbeef))
	test.DemandSuccess(t, err)
	r2 := cpu.Read(sram+4, databus.Word)

	s.run(6)
	test.ExpectSuccess(t, cpu.IsIdle())

	test.ExpectEquality(t, r1.Result, databus.FromWord(0x11223344))
	test.ExpectEquality(t, r1.Completed, uint64(2))
	test.ExpectEquality(t, w.Response, signals.Success)
	test.ExpectEquality(t, w.Completed, uint64(3))
	test.ExpectEquality(t, r2.Result, databus.FromWord(0x0000beef))
	test.ExpectEquality(t, r2.Completed, uint64(4))
}

func TestReversedOrder(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.Sole, "cpu"))
	s.reversed = true
	s.mems[0].words[sram+8] = 0x55

	cpu := s.masters[0]
	r1 := cpu.Read(sram+8, databus.Byte)
	r2 := cpu.Read(sram+8, databus.Word)

	s.run(5)

	// the requests arriving early are held by the wrapper
	test.ExpectEquality(t, r1.Completed, uint64(2))
	test.ExpectEquality(t, r2.Completed, uint64(3))
	test.ExpectEquality(t, r1.Result, databus.FromByte(0x55))
	test.ExpectEquality(t, r2.Result, databus.FromWord(0x55))
}

func TestRoundRobin(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.RoundRobin, "a", "b"))
	a, b := s.masters[0], s.masters[1]

	a1 := a.Read(sram, databus.Word)
	a2 := a.Read(sram+4, databus.Word)
	b1 := b.Read(sram+0x10, databus.Word)
	b2 := b.Read(sram+0x14, databus.Word)

	s.run(8)

	test.ExpectSuccess(t, a.IsIdle())
	test.ExpectSuccess(t, b.IsIdle())

	// the slave serves the masters in turn
	test.DemandEquality(t, len(s.spies[0].started), 4)
	expected := []uint32{sram, sram + 0x10, sram + 4, sram + 0x14}
	for i, e := range expected {
		test.ExpectEquality(t, s.spies[0].started[i], e, i)
	}

	test.ExpectEquality(t, a1.Completed, uint64(3))
	test.ExpectEquality(t, b1.Completed, uint64(4))
	test.ExpectEquality(t, a2.Completed, uint64(5))
	test.ExpectEquality(t, b2.Completed, uint64(6))
}

func TestCombinatorialArbitration(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.CombinatorialFixed, "a", "b"))
	_, ok := s.w.Interconnect().OutputStage(0).(*outputstage.CombinatorialOutputStage)
	test.DemandSuccess(t, ok)

	a, b := s.masters[0], s.masters[1]
	a1 := a.Read(sram, databus.Word)
	b1 := b.Read(sram+0x10, databus.Word)

	s.run(6)

	test.ExpectSuccess(t, a.IsIdle())
	test.ExpectSuccess(t, b.IsIdle())

	// the winner is granted in the cycle it asked, one cycle earlier than
	// with a registered arbiter
	test.DemandEquality(t, len(s.spies[0].started), 2)
	test.ExpectEquality(t, s.spies[0].started[0], uint32(sram))
	test.ExpectEquality(t, s.spies[0].started[1], uint32(sram+0x10))
	test.ExpectEquality(t, a1.Completed, uint64(2))
	test.ExpectEquality(t, b1.Completed, uint64(3))
}

func TestReversedCombinatorialArbitration(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.ReversedCombinatorialFixed, "a", "b"))
	a, b := s.masters[0], s.masters[1]
	a1 := a.Read(sram, databus.Word)
	b1 := b.Read(sram+0x10, databus.Word)

	s.run(6)

	test.DemandEquality(t, len(s.spies[0].started), 2)
	test.ExpectEquality(t, s.spies[0].started[0], uint32(sram+0x10))
	test.ExpectEquality(t, b1.Completed, uint64(2))
	test.ExpectEquality(t, a1.Completed, uint64(3))
}

func TestInactiveWrapper(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.RoundRobin, "a", "b"))
	s.w.SetActive(false)
	test.ExpectFailure(t, s.w.IsActive())

	a, b := s.masters[0], s.masters[1]
	a1 := a.Read(sram, databus.Word)
	b1 := b.Read(sram+0x10, databus.Word)

	s.run(6)

	test.ExpectEquality(t, a1.Completed, uint64(3))
	test.ExpectEquality(t, b1.Completed, uint64(4))
}

func TestParallelSlaves(t *testing.T) {
	cfg := interconnect.Config{
		Masters: []string{"a", "b"},
		Slaves: []interconnect.SlaveConfig{
			{Name: "x", Regions: []interconnect.Region{{Start: 0x1000, End: 0x1fff}}, Arbiter: arbiter.RoundRobin},
			{Name: "y", Regions: []interconnect.Region{{Start: 0x2000, End: 0x2fff}}, Arbiter: arbiter.RoundRobin},
		},
	}
	s := newSystem(t, cfg)
	s.mems[0].words[0x1000] = 0xaaaa
	s.mems[1].words[0x2000] = 0xbbbb

	ra := s.masters[0].Read(0x1000, databus.Word)
	rb := s.masters[1].Read(0x2000, databus.Word)

	s.run(5)

	test.ExpectEquality(t, ra.Result, databus.FromWord(0xaaaa))
	test.ExpectEquality(t, rb.Result, databus.FromWord(0xbbbb))
	test.ExpectEquality(t, ra.Completed, rb.Completed)
	test.ExpectEquality(t, len(s.spies[0].started), 1)
	test.ExpectEquality(t, len(s.spies[1].started), 1)
}

func TestUnmapped(t *testing.T) {
	s := newSystem(t, sramOnly(arbiter.Sole, "cpu"))
	cpu := s.masters[0]

	u := cpu.Read(0x40000000, databus.Word)
	r := cpu.Read(sram, databus.Word)

	s.run(6)

	test.ExpectEquality(t, u.Response, signals.Error1)
	test.ExpectEquality(t, u.Completed, uint64(2))
	test.ExpectEquality(t, r.Response, signals.Success)
	test.ExpectEquality(t, r.Issued, uint64(3))
	test.ExpectEquality(t, r.Completed, uint64(4))
	test.ExpectEquality(t, len(s.spies[0].started), 1)
}

func TestMissingSlaveReply(t *testing.T) {
	if !checked.Enabled {
		t.Skip("assertions not compiled in")
	}

	ic, err := interconnect.New(sramOnly(arbiter.Sole, "cpu"))
	test.DemandSuccess(t, err)
	w := interconnect.NewWrapper(ic)

	cpu := masterdriver.NewMaster("cpu", signals.DataProtection())
	cpu.AttachDownstream(ports.BindSlave(w, 0))
	w.AttachMaster(0, cpu)
	cpu.Read(sram, databus.Word)

	// the slave never replies
	cycle := func() {
		w.Tick()
		cpu.Tick()
		w.Tock()
		cpu.Tock()
	}

	cycle()
	cycle()
	p := test.ExpectPanic(t, cycle)
	e, ok := p.(error)
	test.DemandSuccess(t, ok)
	test.ExpectSuccess(t, curated.Is(e, checked.Violation))
}

func TestSingleGoroutine(t *testing.T) {
	if !checked.Enabled {
		t.Skip("assertions not compiled in")
	}

	s := newSystem(t, sramOnly(arbiter.Sole, "cpu"))
	s.cycle()

	done := make(chan any)
	go func() {
		defer func() {
			done <- recover()
		}()
		s.cycle()
	}()

	p := <-done
	e, ok := p.(error)
	test.DemandSuccess(t, ok)
	test.ExpectSuccess(t, curated.Is(e, checked.Violation))
}

func TestConfigErrors(t *testing.T) {
	_, err := interconnect.New(interconnect.Config{})
	test.ExpectSuccess(t, curated.Is(err, interconnect.NoMasters))

	_, err = interconnect.New(interconnect.Config{Masters: []string{"a", "a"}})
	test.ExpectSuccess(t, curated.Is(err, interconnect.DuplicateName))

	cfg := interconnect.Config{
		Masters: []string{"a"},
		Slaves: []interconnect.SlaveConfig{
			{Name: "x", Regions: []interconnect.Region{{Start: 0x1000, End: 0x1fff}}},
			{Name: "y", Regions: []interconnect.Region{{Start: 0x1800, End: 0x2fff}}},
		},
	}
	_, err = interconnect.New(cfg)
	test.ExpectSuccess(t, curated.Is(err, interconnect.BadAddressMap))
	test.ExpectSuccess(t, curated.Has(err, decoder.Overlap))

	_, err = interconnect.New(sramOnly(arbiter.Sole, "a", "b"))
	test.ExpectSuccess(t, curated.Is(err, interconnect.BadArbitration))
	test.ExpectSuccess(t, curated.Has(err, arbiter.BadMasters))

	ic, err := interconnect.New(sramOnly(arbiter.Fixed, "a", "b"))
	test.DemandSuccess(t, err)
	tag, err := ic.MasterTag("b")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, tag, ports.Tag(1))
	_, err = ic.MasterTag("c")
	test.ExpectSuccess(t, curated.Is(err, interconnect.UnknownMaster))
	tag, err = ic.SlaveTag("sram")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, tag, ports.Tag(0))
	_, err = ic.SlaveTag("flash")
	test.ExpectSuccess(t, curated.Is(err, interconnect.UnknownSlave))
}
