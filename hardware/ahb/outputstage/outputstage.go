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


// Package outputstage funnels the transfers of many masters onto a single
// slave.
//
// Every master contributes to every cycle, even if only with a NoSel address
// phase. The output stage collects the address phase of the master that owns
// the address route and the data phase of the master that owns the data
// route, and forwards them to the slave as one message once both have
// arrived. The address route is decided by an arbiter on the clock edge. The
// data route follows the address route of the previous cycle and is held
// while the slave inserts waitstates.
//
// Each master asserting a valid, ready address phase receives a GRANT or a
// DENY in the same cycle.
//
// CombinatorialOutputStage is the variant for the combinatorial arbiters. It
// waits for the messages of every master and arbitrates on the requests of
// the current cycle, so an uncontested transfer is granted without delay.
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

// progress of the rendezvous during a cycle
type progress int

const (
	ticked progress = iota
	collecting
	delivered
	gotReply
)

func (p progress) String() string {
	switch p {
	case ticked:
		return "tick"
	case collecting:
		return "collecting"
	case delivered:
		return "delivered"
	case gotReply:
		return "reply"
	}
	return "unknown"
}

// Stage is the interface shared by the two kinds of output stage.
type Stage interface {
	ports.Component
	ports.TaggedSlave
	ports.Master
	AttachDownstream(s ports.Slave)
	AttachMaster(tag ports.Tag, m ports.Master, g ports.Granted)
	Routes() (addr ports.Tag, data ports.Tag)
	Arbiter() arbiter.Arbiter
	Describe() string
}

// New returns the kind of output stage that suits the arbiter kind.
func New(name string, kind arbiter.Kind, arb arbiter.Arbiter, masters int) Stage {
	switch kind {
	case arbiter.CombinatorialFixed, arbiter.ReversedCombinatorialFixed:
		return NewCombinatorialOutputStage(name, arb, masters)
	}
	return NewOutputStage(name, arb, masters)
}

// OutputStage connects N tagged master inputs to one slave.
type OutputStage struct {
	name string
	arb  arbiter.Arbiter

	downstream ports.Slave
	masters    []ports.Master
	grants     []ports.Granted

	// requests from masters collected this cycle
	requests []bool
	seen     []bool

	// address phase of the address route owner. it is kept after being
	// forwarded because the arbiter decides on it at the next clock edge
	outAddr    signals.AddrPhase
	outAddrSet bool

	// data phase of the data route owner
	dataBuffer    signals.DataPhase
	dataBufferSet bool

	dataRoute flop.Flop[ports.Tag]
	reply     flop.Pending[bool]

	stm  progress
	sent bool
}

// NewOutputStage is the preferred method of initialisation for the
// OutputStage type.
func NewOutputStage(name string, arb arbiter.Arbiter, masters int) *OutputStage {
	o := &OutputStage{
		name:       name,
		arb:        arb,
		downstream: ports.Null{},
		masters:    make([]ports.Master, masters),
		grants:     make([]ports.Granted, masters),
		requests:   make([]bool, masters),
		seen:       make([]bool, masters),
		dataRoute:  flop.NewFrom(ports.NoTag),
	}
	for i := range masters {
		o.masters[i] = ports.Null{}
		o.grants[i] = ports.Null{}
	}
	return o
}

func (o *OutputStage) String() string {
	return o.name
}

// AttachDownstream connects the slave.
func (o *OutputStage) AttachDownstream(s ports.Slave) {
	o.downstream = s
}

// AttachMaster connects the reply and GRANT outputs for the master tag.
func (o *OutputStage) AttachMaster(tag ports.Tag, m ports.Master, g ports.Granted) {
	o.masters[tag] = m
	o.grants[tag] = g
}

// Routes returns the owners of the address route and the data route.
func (o *OutputStage) Routes() (addr ports.Tag, data ports.Tag) {
	return o.arb.AddrInPort(), o.dataRoute.Or(ports.NoTag)
}

// Tick implements the ports.Component interface.
func (o *OutputStage) Tick() {
	addrRoute := o.arb.AddrInPort()
	checked.Assert(o.reply.IsReady(), "%s: no reply from the slave for %v", o.name, o.dataRoute.Or(ports.NoTag))
	checked.Assert(!addrRoute.IsSet() || o.outAddrSet || o.stm == ticked || (o.stm == gotReply && o.reply.Or(false)),
		"%s: address route %v did not send its address phase", o.name, addrRoute)
	checked.Assert(o.stm != collecting, "%s: stuck collecting for address route %v and data route %v", o.name, addrRoute, o.dataRoute.Or(ports.NoTag))
	checked.Assert(!o.dataBufferSet, "%s: data phase was not forwarded", o.name)

	o.stm = ticked
	o.sent = false
	clear(o.seen)
	o.dataRoute.Tick()
	o.reply.Expect(o.dataRoute.Or(ports.NoTag).IsSet())

	last := signals.Empty(o.name)
	if o.outAddrSet {
		last = o.outAddr
	}
	o.outAddr = signals.AddrPhase{}
	o.outAddrSet = false

	granted := o.arb.Arbitrate(o.requests, last)
	clear(o.requests)

	o.dataRoute.SetNext(ports.NoTag)

	logger.Logf(trace.Bus, o.name, "address route %v data route %v", granted, o.dataRoute.Or(ports.NoTag))
}

// Tock implements the ports.Component interface. Nothing is sent during the
// Tock, the output stage only reacts to its inputs.
func (o *OutputStage) Tock() {
}

// TaggedRequest implements the ports.TaggedSlave interface. The tag is the
// master that sent the message.
func (o *OutputStage) TaggedRequest(tag ports.Tag, msg signals.MasterToSlave) {
	checked.Assert(!o.seen[tag], "%s: second request from %v in one cycle", o.name, tag)
	o.seen[tag] = true

	wants := msg.Addr.AdvancesToValid()
	o.requests[tag] = wants

	addrRoute := o.arb.AddrInPort()
	dataRoute := o.dataRoute.Or(ports.NoTag)

	if addrRoute == tag {
		o.outAddr = msg.Addr
		o.outAddrSet = true
		o.trySend(tag)
	}

	if (wants && addrRoute != tag) || (msg.Addr.IsSelected() && !o.reply.Or(true)) {
		logger.Logf(trace.Bus, o.name, "deny %v", tag)
		o.grants[tag].Grant(false)
	} else if wants {
		o.grants[tag].Grant(true)
	}

	if dataRoute == tag {
		o.dataBuffer = msg.Data
		o.dataBufferSet = true
		o.trySend(tag)
	}
}

func (o *OutputStage) trySend(tag ports.Tag) {
	checked.Assert(!o.sent, "%s: message from %v after delivery", o.name, tag)
	o.stm = collecting

	addrRoute := o.arb.AddrInPort()
	dataRoute := o.dataRoute.Or(ports.NoTag)

	if dataRoute.IsSet() != o.dataBufferSet || addrRoute.IsSet() != o.outAddrSet {
		return
	}
	o.stm = delivered
	o.sent = true

	if !addrRoute.IsSet() && !dataRoute.IsSet() {
		return
	}

	addr := signals.Empty(o.name)
	if o.outAddrSet {
		addr = o.outAddr
	}

	if addr.IsAddressValid() {
		o.dataRoute.SetNextIfNotLatching(addrRoute)
	} else if !addr.IsSelected() && !dataRoute.IsSet() {
		return
	}

	var data signals.DataPhase
	if dataRoute.IsSet() {
		data = o.dataBuffer
		o.dataBuffer = signals.DataPhase{}
		o.dataBufferSet = false
	}

	msg := signals.MasterToSlave{Addr: addr, Data: data}
	logger.Logf(trace.Bus, o.name, "forwarding %v", msg)
	o.downstream.Request(msg)
}

// Reply implements the ports.Master interface.
func (o *OutputStage) Reply(msg signals.SlaveToMaster) {
	dataRoute := o.dataRoute.Or(ports.NoTag)
	if !dataRoute.IsSet() {
		checked.Assert(msg.Status.IsDone(), "%s: reply without a data route: %v", o.name, msg)
		return
	}

	o.stm = gotReply
	hready := msg.Status.HReadyOut()
	if !hready {
		o.dataRoute.KeepCurrentAsNext()
	}
	o.reply.Supply(hready)

	logger.Logf(trace.Bus, o.name, "reply to %v: %v", dataRoute, msg)
	o.masters[dataRoute].Reply(msg)
}

// Describe returns a summary of the output stage state.
func (o *OutputStage) Describe() string {
	addr, data := o.Routes()
	return fmt.Sprintf("%s: addr %v data %v (%v)", o.name, addr, data, o.stm)
}

// Arbiter returns the arbiter used by the output stage.
func (o *OutputStage) Arbiter() arbiter.Arbiter {
	return o.arb
}
