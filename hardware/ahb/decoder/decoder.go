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


// Package decoder routes the transfers of one master to the output stages of
// the slaves in an interconnect.
//
// Each cycle the decoder sends exactly one message to every slave it knows
// about. The slave targeted by the address phase gets the address phase, the
// slave serving the data phase gets the data phase, and every other slave gets
// a NoSel address phase carrying the ready flag. An output stage can therefore
// rely on every master contributing to every cycle.
//
// Addresses that are not in the AddressMap are served by the DefaultSlave,
// which is part of the decoder. It answers idle data phases with Success and
// valid transfers with the two cycle error response.
package decoder

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/statetrack"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Mock can answer transfers to unmapped addresses instead of the
// DefaultSlave. The data of a read is returned with true. Returning false lets
// the DefaultSlave answer with an error.
type Mock func(meta signals.TransferMeta) (databus.Value, bool)

// Decoder is the address decoder of a single master.
type Decoder struct {
	name string
	amap *AddressMap

	slaves   []ports.Slave
	upstream ports.Master
	granted  ports.Granted

	track statetrack.Track

	// slave of the most recent valid address phase. idle transfers keep the
	// previous target. ports.NoTag is the DefaultSlave
	addrTarget ports.Tag

	// slave serving the data phase
	dataTarget ports.Tag

	// an idle transfer advanced this cycle
	idleAdvanced bool

	// response of the DefaultSlave in the previous and current cycle
	prevDefault    signals.Response
	prevDefaultSet bool
	thisDefault    signals.Response
	thisDefaultSet bool

	mock Mock
}

// NewDecoder is the preferred method of initialisation for the Decoder type.
// The number of slaves is the number of output stages the decoder is
// connected to.
func NewDecoder(name string, amap *AddressMap, slaves int) *Decoder {
	d := &Decoder{
		name:       name,
		amap:       amap,
		slaves:     make([]ports.Slave, slaves),
		upstream:   ports.Null{},
		granted:    ports.Null{},
		addrTarget: ports.NoTag,
		dataTarget: ports.NoTag,
	}
	for i := range d.slaves {
		d.slaves[i] = ports.Null{}
	}
	return d
}

func (d *Decoder) String() string {
	return d.name
}

// AttachSlave connects the output stage for the slave tag.
func (d *Decoder) AttachSlave(tag ports.Tag, s ports.Slave) {
	d.slaves[tag] = s
}

// AttachUpstream connects the component that receives replies and GRANT
// wires, normally an input stage.
func (d *Decoder) AttachUpstream(m ports.Master, g ports.Granted) {
	d.upstream = m
	d.granted = g
}

// SetMock sets the function that answers transfers to unmapped addresses. A
// nil value removes the mock.
func (d *Decoder) SetMock(m Mock) {
	d.mock = m
}

// Targets returns the slaves of the address phase and the data phase.
// ports.NoTag is the DefaultSlave.
func (d *Decoder) Targets() (addr ports.Tag, data ports.Tag) {
	return d.addrTarget, d.dataTarget
}

// Tick implements the ports.Component interface.
func (d *Decoder) Tick() {
	if dataAddr, ok := d.track.DataAddress(); ok && d.dataTarget.IsSet() {
		checked.Assert(d.track.IsLastReplySet(), "%s: no reply from %v for %v", d.name, d.dataTarget, dataAddr)
	}

	hadRequest := d.track.IsLastAddrSet()
	tr := d.track.Update()
	if tr.Advanced {
		d.dataTarget = d.addrTarget
	} else if tr.Finished {
		d.dataTarget = ports.NoTag
	}
	d.idleAdvanced = hadRequest && tr.Advanced && !tr.HasDataPhase

	d.prevDefault, d.prevDefaultSet = d.thisDefault, d.thisDefaultSet
	d.thisDefaultSet = false

	logger.Logf(trace.Bus, d.name, "addr target %v data target %v %v", d.addrTarget, d.dataTarget, &d.track)
}

// Tock implements the ports.Component interface. The DefaultSlave answers
// during the Tock.
func (d *Decoder) Tock() {
	if d.dataTarget.IsSet() {
		return
	}

	dataAddr, hasData := d.track.DataAddress()

	var msg signals.SlaveToMaster
	switch {
	case d.prevDefaultSet && d.prevDefault == signals.Error1:
		msg = dataAddr.MakeReply(signals.Error2, databus.Value{})
	case hasData:
		if v, ok := d.mocked(dataAddr); ok {
			msg = dataAddr.MakeReply(signals.Success, v)
		} else {
			logger.Logf(trace.Bus, d.name, "unmapped transfer %v", dataAddr)
			msg = dataAddr.MakeReply(signals.Error1, databus.Value{})
		}
	case d.idleAdvanced:
		msg = signals.EmptyReply()
	default:
		return
	}

	d.thisDefault = msg.Status
	d.thisDefaultSet = true
	d.reply(msg)
}

func (d *Decoder) mocked(addr signals.AddrPhase) (databus.Value, bool) {
	if d.mock == nil {
		return databus.Value{}, false
	}
	v, ok := d.mock(addr.Meta)
	if !ok {
		return databus.Value{}, false
	}
	if addr.Meta.IsWriting() {
		return databus.Value{}, true
	}
	return v, true
}

// Request implements the ports.Slave interface.
func (d *Decoder) Request(msg signals.MasterToSlave) {
	d.track.SetLastAddr(msg.Addr)

	if a, ok := msg.Addr.Address(); ok {
		d.addrTarget = d.amap.Lookup(a)
	}

	logger.Logf(trace.Bus, d.name, "%v to %v", msg, d.addrTarget)

	for i, s := range d.slaves {
		t := ports.Tag(i)
		out := signals.MasterToSlave{Addr: msg.Addr.AsNotSelected()}
		if t == d.addrTarget && msg.Addr.IsAddressValid() {
			out.Addr = msg.Addr
		}
		if t == d.dataTarget {
			out.Data = msg.Data
		}
		s.Request(out)
	}
}

// TaggedReply implements the ports.TaggedMaster interface. The tag is the
// slave that sent the reply.
func (d *Decoder) TaggedReply(tag ports.Tag, msg signals.SlaveToMaster) {
	if tag != d.dataTarget {
		checked.Assert(msg.Status.IsDone(), "%s: reply from %v while data target is %v: %v", d.name, tag, d.dataTarget, msg)
		return
	}
	d.reply(msg)
}

// Grant implements the ports.Granted interface.
func (d *Decoder) Grant(granted bool) {
	d.track.SetLastDeny(!granted)
	d.granted.Grant(granted)
}

func (d *Decoder) reply(msg signals.SlaveToMaster) {
	d.track.SetLastReply(msg.Status)
	d.upstream.Reply(msg)
}

// Describe returns a summary of the decoder state.
func (d *Decoder) Describe() string {
	return fmt.Sprintf("%s: addr %v data %v %v", d.name, d.addrTarget, d.dataTarget, &d.track)
}
