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


package decoder_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/decoder"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/test"
)

type recorder struct {
	got []signals.MasterToSlave
}

func (r *recorder) Request(msg signals.MasterToSlave) {
	r.got = append(r.got, msg)
}

func (r *recorder) last() signals.MasterToSlave {
	return r.got[len(r.got)-1]
}

type upstream struct {
	replies []signals.SlaveToMaster
	grants  []bool
}

func (u *upstream) Reply(msg signals.SlaveToMaster) {
	u.replies = append(u.replies, msg)
}

func (u *upstream) Grant(granted bool) {
	u.grants = append(u.grants, granted)
}

func newMap(t *testing.T) *decoder.AddressMap {
	t.Helper()
	m, err := decoder.NewAddressMap(
		decoder.Range{Name: "sram", Start: 0x1000, End: 0x1fff, Slave: 1},
		decoder.Range{Name: "flash", Start: 0x0000, End: 0x0fff, Slave: 0},
	)
	test.DemandSuccess(t, err)
	return m
}

func newDecoder(t *testing.T) (*decoder.Decoder, []*recorder, *upstream) {
	t.Helper()
	d := decoder.NewDecoder("decoder", newMap(t), 2)
	slaves := []*recorder{{}, {}}
	for i, s := range slaves {
		d.AttachSlave(ports.Tag(i), s)
	}
	up := &upstream{}
	d.AttachUpstream(up, up)
	return d, slaves, up
}

func read(addr uint32) signals.AddrPhase {
	return signals.NewSingle(addr, databus.Word, signals.Read, signals.DataProtection(), "M")
}

func TestAddressMap(t *testing.T) {
	m := newMap(t)
	test.ExpectEquality(t, m.Lookup(0x0000), ports.Tag(0))
	test.ExpectEquality(t, m.Lookup(0x0fff), ports.Tag(0))
	test.ExpectEquality(t, m.Lookup(0x1000), ports.Tag(1))
	test.ExpectEquality(t, m.Lookup(0x1ffc), ports.Tag(1))
	test.ExpectEquality(t, m.Lookup(0x2000), ports.NoTag)
	test.ExpectEquality(t, len(m.Ranges()), 2)
	test.ExpectEquality(t, m.Ranges()[0].Name, "flash")

	_, err := decoder.NewAddressMap(
		decoder.Range{Start: 0x0000, End: 0x0fff, Slave: 0},
		decoder.Range{Start: 0x0800, End: 0x1fff, Slave: 1},
	)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, decoder.Overlap))

	_, err = decoder.NewAddressMap(decoder.Range{Start: 0x2000, End: 0x1000, Slave: 0})
	test.ExpectSuccess(t, curated.Is(err, decoder.BadRange))

	_, err = decoder.NewAddressMap(decoder.Range{Start: 0x2000, End: 0x3000, Slave: ports.NoTag})
	test.ExpectSuccess(t, curated.Is(err, decoder.BadRange))

	empty, err := decoder.NewAddressMap()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, empty.Lookup(0x1000), ports.NoTag)
}

func TestRouting(t *testing.T) {
	d, slaves, up := newDecoder(t)

	d.Tick()
	d.Request(signals.MasterToSlave{Addr: read(0x1004)})
	test.ExpectEquality(t, len(slaves[0].got), 1)
	test.ExpectEquality(t, len(slaves[1].got), 1)
	test.ExpectEquality(t, slaves[0].last().Addr.Kind, signals.NoSel)
	test.ExpectEquality(t, slaves[1].last().Addr.Kind, signals.NonSeq)
	d.Tock()
	test.ExpectEquality(t, len(up.replies), 0)

	// the read is in its data phase at slave 1. the next transfer goes to
	// slave 0 while the data phase stays with slave 1
	d.Tick()
	addr, data := d.Targets()
	test.ExpectEquality(t, addr, ports.Tag(1))
	test.ExpectEquality(t, data, ports.Tag(1))
	d.Request(signals.MasterToSlave{Addr: read(0x0010)})
	test.ExpectEquality(t, slaves[0].last().Addr.Kind, signals.NonSeq)
	test.ExpectEquality(t, slaves[1].last().Addr.Kind, signals.NoSel)

	// replies from anything but the data target are dropped
	d.TaggedReply(0, signals.EmptyReply())
	test.ExpectEquality(t, len(up.replies), 0)
	d.TaggedReply(1, signals.SlaveToMaster{Status: signals.Success, Data: databus.FromWord(0xcafe)})
	test.ExpectEquality(t, len(up.replies), 1)
	test.ExpectEquality(t, up.replies[0].Data, databus.FromWord(0xcafe))
	d.Tock()

	d.Tick()
	addr, data = d.Targets()
	test.ExpectEquality(t, addr, ports.Tag(0))
	test.ExpectEquality(t, data, ports.Tag(0))

	// idle keeps the previous address target but no slave is selected
	d.Request(signals.MasterToSlave{Addr: signals.Empty("M")})
	test.ExpectEquality(t, slaves[0].last().Addr.Kind, signals.NoSel)
	test.ExpectEquality(t, slaves[1].last().Addr.Kind, signals.NoSel)
	d.TaggedReply(0, signals.SlaveToMaster{Status: signals.Success, Data: databus.FromWord(1)})
	d.Tock()

	d.Tick()
	addr, _ = d.Targets()
	test.ExpectEquality(t, addr, ports.Tag(0))
}

func TestWriteDataFollowsDataTarget(t *testing.T) {
	d, slaves, _ := newDecoder(t)

	d.Tick()
	w := signals.NewSingle(0x0100, databus.Word, signals.Write, signals.DataProtection(), "M")
	d.Request(signals.MasterToSlave{Addr: w})
	d.Tock()

	d.Tick()
	d.Request(signals.MasterToSlave{
		Addr: read(0x1000),
		Data: signals.DataPhase{Data: databus.FromWord(0xdeadbeef)},
	})
	test.ExpectEquality(t, slaves[0].last().Data.Data, databus.FromWord(0xdeadbeef))
	test.ExpectEquality(t, slaves[0].last().Addr.Kind, signals.NoSel)
	test.ExpectEquality(t, slaves[1].last().Data.Data.IsPresent(), false)
	test.ExpectEquality(t, slaves[1].last().Addr.Kind, signals.NonSeq)
}

func TestDefaultSlave(t *testing.T) {
	d, _, up := newDecoder(t)

	d.Tick()
	d.Request(signals.MasterToSlave{Addr: read(0x8000)})
	d.Tock()
	test.ExpectEquality(t, len(up.replies), 0)

	d.Tick()
	addr, data := d.Targets()
	test.ExpectEquality(t, addr, ports.NoTag)
	test.ExpectEquality(t, data, ports.NoTag)

	// the master sees the first cycle of the error and holds its next
	// address phase
	d.Request(signals.MasterToSlave{Addr: signals.Empty("M").WithReady(false)})
	d.Tock()
	test.DemandEquality(t, len(up.replies), 1)
	test.ExpectEquality(t, up.replies[0].Status, signals.Error1)

	d.Tick()
	d.Request(signals.MasterToSlave{Addr: signals.Empty("M")})
	d.Tock()
	test.DemandEquality(t, len(up.replies), 2)
	test.ExpectEquality(t, up.replies[1].Status, signals.Error2)

	// the idle data phase is answered with success
	d.Tick()
	d.Request(signals.MasterToSlave{Addr: signals.Empty("M")})
	d.Tock()
	test.DemandEquality(t, len(up.replies), 3)
	test.ExpectEquality(t, up.replies[2].Status, signals.Success)
}

func TestMock(t *testing.T) {
	d, _, up := newDecoder(t)
	d.SetMock(func(meta signals.TransferMeta) (databus.Value, bool) {
		return databus.FromWord(meta.Addr), meta.Addr == 0x9000
	})

	d.Tick()
	d.Request(signals.MasterToSlave{Addr: read(0x9000)})
	d.Tock()

	d.Tick()
	d.Request(signals.MasterToSlave{Addr: read(0xa000)})
	d.Tock()
	test.DemandEquality(t, len(up.replies), 1)
	test.ExpectEquality(t, up.replies[0].Status, signals.Success)
	test.ExpectEquality(t, up.replies[0].Data, databus.FromWord(0x9000))

	// not answered by the mock
	d.Tick()
	d.Request(signals.MasterToSlave{Addr: signals.Empty("M").WithReady(false)})
	d.Tock()
	test.DemandEquality(t, len(up.replies), 2)
	test.ExpectEquality(t, up.replies[1].Status, signals.Error1)
}

func TestGrantForwarded(t *testing.T) {
	d, _, up := newDecoder(t)

	d.Tick()
	d.Request(signals.MasterToSlave{Addr: read(0x0000)})
	d.Grant(false)
	d.Tock()
	test.DemandEquality(t, len(up.grants), 1)
	test.ExpectEquality(t, up.grants[0], false)

	// a denied transfer does not reach its data phase
	d.Tick()
	_, data := d.Targets()
	test.ExpectEquality(t, data, ports.NoTag)
}
