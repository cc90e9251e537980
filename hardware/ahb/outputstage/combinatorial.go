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

package outputstage

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/arbiter"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/flop"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// CombinatorialOutputStage connects N tagged master inputs to one slave and
// decides the address route in the same cycle as the requests arrive.
//
// Nothing is forwarded until every master has sent its message for the
// cycle. The arbiter is then given the requests of the cycle and the address
// phase forwarded in the previous cycle, with its ready flag lowered if the
// slave inserted a waitstate.
//
// The GRANT of a new owner depends on the reply of the slave when the data
// route belongs to another master. If the reply hasn't arrived yet the GRANT
// or DENY is sent when it does.
type CombinatorialOutputStage struct {
	name string
	arb  arbiter.Arbiter

	downstream ports.Slave
	masters    []ports.Master
	grants     []ports.Granted

	requests   []signals.AddrPhase
	requestSet []bool
	received   int
	reqs       []bool

	dataBuffer    signals.DataPhase
	dataBufferSet bool

	dataRoute flop.Flop[ports.Tag]
	reply     flop.Pending[bool]

	// owner of the address route for this cycle and the address phase
	// forwarded on its behalf
	owner   ports.Tag
	thisOut signals.AddrPhase
	sent    bool

	// address phase forwarded in the previous cycle
	lastOut signals.AddrPhase

	// owner waiting for the slave's reply before it is granted or denied
	deferred ports.Tag
}

// NewCombinatorialOutputStage is the preferred method of initialisation for
// the CombinatorialOutputStage type.
func NewCombinatorialOutputStage(name string, arb arbiter.Arbiter, masters int) *CombinatorialOutputStage {
	o := &CombinatorialOutputStage{
		name:       name,
		arb:        arb,
		downstream: ports.Null{},
		masters:    make([]ports.Master, masters),
		grants:     make([]ports.Granted, masters),
		requests:   make([]signals.AddrPhase, masters),
		requestSet: make([]bool, masters),
		reqs:       make([]bool, masters),
		dataRoute:  flop.NewFrom(ports.NoTag),
		owner:      ports.NoTag,
		lastOut:    signals.Empty(name),
		deferred:   ports.NoTag,
	}
	for i := range masters {
		o.masters[i] = ports.Null{}
		o.grants[i] = ports.Null{}
	}
	return o
}

func (o *CombinatorialOutputStage) String() string {
	return o.name
}

// AttachDownstream connects the slave.
func (o *CombinatorialOutputStage) AttachDownstream(s ports.Slave) {
	o.downstream = s
}

// AttachMaster connects the reply and GRANT outputs for the master tag.
func (o *CombinatorialOutputStage) AttachMaster(tag ports.Tag, m ports.Master, g ports.Granted) {
	o.masters[tag] = m
	o.grants[tag] = g
}

// Routes returns the owners of the address route and the data route. The
// address route is only known once every master has sent its message.
func (o *CombinatorialOutputStage) Routes() (addr ports.Tag, data ports.Tag) {
	return o.owner, o.dataRoute.Or(ports.NoTag)
}

// Arbiter returns the arbiter used by the output stage.
func (o *CombinatorialOutputStage) Arbiter() arbiter.Arbiter {
	return o.arb
}

// Tick implements the ports.Component interface.
func (o *CombinatorialOutputStage) Tick() {
	dataRoute := o.dataRoute.Or(ports.NoTag)
	checked.Assert(o.reply.IsReady(), "%s: no reply from the slave for %v", o.name, dataRoute)
	checked.Assert(o.received == 0 || o.sent, "%s: stuck collecting with %d of %d masters", o.name, o.received, len(o.masters))
	checked.Assert(o.sent || !dataRoute.IsSet(), "%s: data phase of %v was not forwarded", o.name, dataRoute)
	checked.Assert(!o.dataBufferSet, "%s: data phase was not forwarded", o.name)
	checked.Assert(!o.deferred.IsSet(), "%s: %v was neither granted nor denied", o.name, o.deferred)

	o.lastOut = signals.Empty(o.name)
	if o.sent {
		o.lastOut = o.thisOut
		if hready, ok := o.reply.Get(); ok && !hready {
			o.lastOut.Ready = false
		}
	}

	o.dataRoute.Tick()
	o.reply.Expect(o.dataRoute.Or(ports.NoTag).IsSet())
	o.dataRoute.SetNext(ports.NoTag)

	clear(o.requests)
	clear(o.requestSet)
	o.received = 0
	o.sent = false
	o.owner = ports.NoTag
	o.thisOut = signals.AddrPhase{}

	logger.Logf(trace.Bus, o.name, "data route %v", o.dataRoute.Or(ports.NoTag))
}

// Tock implements the ports.Component interface. Nothing is sent during the
// Tock.
func (o *CombinatorialOutputStage) Tock() {
}

// TaggedRequest implements the ports.TaggedSlave interface. The tag is the
// master that sent the message.
func (o *CombinatorialOutputStage) TaggedRequest(tag ports.Tag, msg signals.MasterToSlave) {
	checked.Assert(!o.requestSet[tag], "%s: second request from %v in one cycle", o.name, tag)
	checked.Assert(!o.sent, "%s: request from %v after delivery", o.name, tag)

	o.requests[tag] = msg.Addr
	o.requestSet[tag] = true
	o.received++

	if o.dataRoute.Or(ports.NoTag) == tag {
		o.dataBuffer = msg.Data
		o.dataBufferSet = true
	}

	if o.received == len(o.masters) {
		o.send()
	}
}

func (o *CombinatorialOutputStage) send() {
	o.sent = true

	for t, a := range o.requests {
		o.reqs[t] = a.AdvancesToValid()
	}

	owner := o.arb.Arbitrate(o.reqs, o.lastOut)

	// the arbiter may keep an owner that has nothing to send
	if owner.IsSet() && !o.requests[owner].IsAddressValid() {
		owner = ports.NoTag
	}
	o.owner = owner

	dataRoute := o.dataRoute.Or(ports.NoTag)

	for t, r := range o.reqs {
		tag := ports.Tag(t)
		if !r {
			continue
		}
		if tag != owner {
			logger.Logf(trace.Bus, o.name, "deny %v", tag)
			o.grants[tag].Grant(false)
			continue
		}

		switch hready, ok := o.reply.Get(); {
		case !dataRoute.IsSet() || dataRoute == owner:
			o.grants[tag].Grant(true)
		case ok:
			if !hready {
				logger.Logf(trace.Bus, o.name, "deny %v by response", tag)
			}
			o.grants[tag].Grant(hready)
		default:
			o.deferred = tag
		}
	}

	if !owner.IsSet() && !dataRoute.IsSet() {
		return
	}

	addr := signals.Empty(o.name)
	if owner.IsSet() {
		addr = o.requests[owner]
		if addr.AdvancesToValid() {
			o.dataRoute.SetNextIfNotLatching(owner)
		}
	}
	o.thisOut = addr

	var data signals.DataPhase
	if dataRoute.IsSet() {
		checked.Assert(o.dataBufferSet, "%s: no data phase from %v", o.name, dataRoute)
		data = o.dataBuffer
		o.dataBuffer = signals.DataPhase{}
		o.dataBufferSet = false
	}

	msg := signals.MasterToSlave{Addr: addr, Data: data}
	logger.Logf(trace.Bus, o.name, "forwarding %v for address route %v data route %v", msg, owner, dataRoute)
	o.downstream.Request(msg)
}

// Reply implements the ports.Master interface.
func (o *CombinatorialOutputStage) Reply(msg signals.SlaveToMaster) {
	dataRoute := o.dataRoute.Or(ports.NoTag)
	if !dataRoute.IsSet() {
		checked.Assert(msg.Status.IsDone(), "%s: reply without a data route: %v", o.name, msg)
		return
	}

	hready := msg.Status.HReadyOut()
	if !hready {
		o.dataRoute.KeepCurrentAsNext()
	}
	o.reply.Supply(hready)

	if o.deferred.IsSet() {
		if !hready {
			logger.Logf(trace.Bus, o.name, "deny %v by response", o.deferred)
		}
		o.grants[o.deferred].Grant(hready)
		o.deferred = ports.NoTag
	}

	logger.Logf(trace.Bus, o.name, "reply to %v: %v", dataRoute, msg)
	o.masters[dataRoute].Reply(msg)
}

// Describe returns a summary of the output stage state.
func (o *CombinatorialOutputStage) Describe() string {
	return fmt.Sprintf("%s: addr %v data %v (%d of %d masters)", o.name, o.owner, o.dataRoute.Or(ports.NoTag), o.received, len(o.masters))
}
