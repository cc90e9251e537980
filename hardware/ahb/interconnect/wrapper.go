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


package interconnect

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/assert"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/flop"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Wrapper orders the messages entering and leaving an Interconnect.
//
// Within a cycle the replies of the slaves must travel through the crossbar
// and reach the masters before any request of a master enters the crossbar.
// This is because the ready flag of a request depends on the reply the
// master was given. Requests that arrive too early are buffered and replayed
// once every expected reply has been seen.
//
// The Wrapper implements ports.TaggedSlave for the masters and
// ports.TaggedMaster for the slaves, in the same way as the Interconnect.
type Wrapper struct {
	ic     *Interconnect
	active bool

	masters []ports.Master
	slaves  []ports.Slave

	// requests held until the crossbar can accept them
	inputBuffer    []signals.MasterToSlave
	inputBufferSet []bool

	// HREADYOUT sent to each master this cycle
	inputReply    []bool
	inputReplySet []bool

	// masters that selected the crossbar in the previous cycle and so expect a
	// reply in this cycle
	inputExpect flop.Flop[[]bool]

	// slaves that were sent something that requires a reply
	outputExpect flop.Flop[[]bool]

	// number of expected slave replies that haven't arrived yet
	missingSlaves int

	// the crossbar has been tocked this cycle
	tocked bool

	dedupInput  []bool
	dedupOutput []bool

	goroutine assert.SingleGoroutine
}

// NewWrapper is the preferred method of initialisation for the Wrapper type.
// The wrapper attaches itself to the edges of the Interconnect.
func NewWrapper(ic *Interconnect) *Wrapper {
	m := ic.NumMasters()
	s := ic.NumSlaves()

	w := &Wrapper{
		ic:             ic,
		active:         true,
		masters:        make([]ports.Master, m),
		slaves:         make([]ports.Slave, s),
		inputBuffer:    make([]signals.MasterToSlave, m),
		inputBufferSet: make([]bool, m),
		inputReply:     make([]bool, m),
		inputReplySet:  make([]bool, m),
		dedupInput:     make([]bool, m),
		dedupOutput:    make([]bool, s),
	}

	// nothing selected the crossbar before the first cycle. setting the
	// expectations means the first cycle is checked like any other
	w.inputExpect.SetNext(make([]bool, m))
	w.outputExpect.SetNext(make([]bool, s))

	for i := range m {
		w.masters[i] = ports.Null{}
		ic.AttachMaster(ports.Tag(i), ports.BindMaster((*wrapperInputs)(w), ports.Tag(i)))
	}
	for i := range s {
		w.slaves[i] = ports.Null{}
		ic.AttachSlave(ports.Tag(i), ports.BindSlave((*wrapperOutputs)(w), ports.Tag(i)))
	}

	return w
}

func (w *Wrapper) String() string {
	return fmt.Sprintf("wrapper of %v", w.ic)
}

// Interconnect returns the wrapped crossbar.
func (w *Wrapper) Interconnect() *Interconnect {
	return w.ic
}

// AttachMaster connects the component that receives the replies for the
// master tag.
func (w *Wrapper) AttachMaster(tag ports.Tag, m ports.Master) {
	w.masters[tag] = m
}

// AttachSlave connects the slave for the slave tag.
func (w *Wrapper) AttachSlave(tag ports.Tag, s ports.Slave) {
	w.slaves[tag] = s
}

// SetActive switches the ordering on or off. An inactive wrapper passes every
// message straight through.
func (w *Wrapper) SetActive(active bool) {
	w.active = active
}

// IsActive returns true if the wrapper is ordering messages.
func (w *Wrapper) IsActive() bool {
	return w.active
}

func (w *Wrapper) assertions() {
	if !checked.Enabled {
		return
	}

	checked.Assert(w.goroutine.Check(), "%v: driven from more than one goroutine", w)

	if !w.active || !w.inputExpect.IsSet() {
		return
	}

	out, _ := w.outputExpect.Get()
	for t, exp := range out {
		checked.Assert(!exp || w.dedupOutput[t], "%v: expected a reply from slave %v", w, ports.Tag(t))
	}
	in, _ := w.inputExpect.Get()
	for t, exp := range in {
		checked.Assert(!exp || w.dedupInput[t], "%v: expected a reply to master %v", w, ports.Tag(t))
	}
	for t, set := range w.inputBufferSet {
		checked.Assert(!set, "%v: request from master %v was not dispatched", w, ports.Tag(t))
	}
}

// Tick implements the ports.Component interface.
func (w *Wrapper) Tick() {
	w.assertions()

	w.ic.Tick()
	w.inputExpect.Tick()
	w.outputExpect.Tick()

	w.missingSlaves = 0
	out, _ := w.outputExpect.Get()
	for _, exp := range out {
		if exp {
			w.missingSlaves++
		}
	}

	w.tocked = false
	clear(w.inputBuffer)
	clear(w.inputBufferSet)
	clear(w.inputReplySet)
	clear(w.dedupInput)
	clear(w.dedupOutput)

	if w.active {
		w.inputExpect.SetNext(make([]bool, len(w.masters)))
	}
	w.outputExpect.SetNext(make([]bool, len(w.slaves)))

	logger.Logf(trace.Bus, "wrapper", "missing slaves %d", w.missingSlaves)
}

// Tock implements the ports.Component interface. The crossbar is tocked once
// per cycle, either here or as soon as the first message of the cycle arrives.
func (w *Wrapper) Tock() {
	if w.tocked {
		return
	}
	w.tocked = true
	w.ic.Tock()

	if w.active {
		w.tryDispatch()
	}
}

func (w *Wrapper) tryDispatch() {
	checked.Assert(w.active, "%v: dispatch while transparent", w)
	w.Tock()

	if w.missingSlaves > 0 {
		return
	}

	for t := range w.inputBuffer {
		tag := ports.Tag(t)
		if !w.inputBufferSet[t] || w.needsBuffering(tag) {
			continue
		}
		msg := w.inputBuffer[t]
		w.inputBuffer[t] = signals.MasterToSlave{}
		w.inputBufferSet[t] = false

		msg.Addr.Ready = msg.Addr.Ready && w.replied(tag)
		logger.Logf(trace.Bus, "wrapper", "dispatching buffered %v: %v", tag, msg)
		w.ic.TaggedRequest(tag, msg)
	}
}

// HREADYOUT sent to the master this cycle. true if nothing was sent
func (w *Wrapper) replied(tag ports.Tag) bool {
	return !w.inputReplySet[tag] || w.inputReply[tag]
}

func (w *Wrapper) needsBuffering(tag ports.Tag) bool {
	if !w.active {
		return false
	}
	in, _ := w.inputExpect.Get()
	expecting := int(tag) < len(in) && in[tag]
	return (expecting && !w.inputReplySet[tag]) || w.missingSlaves > 0
}

// TaggedRequest implements the ports.TaggedSlave interface. The tag is the
// master sending the request.
func (w *Wrapper) TaggedRequest(tag ports.Tag, msg signals.MasterToSlave) {
	if w.active {
		if next, ok := w.inputExpect.PeekNext(); ok {
			next[tag] = msg.Addr.IsSelected()
		}
		w.Tock()
		msg.Addr.Ready = msg.Addr.Ready && w.replied(tag)
	}

	if w.needsBuffering(tag) {
		logger.Logf(trace.Bus, "wrapper", "buffering %v: %v", tag, msg)
		w.inputBuffer[tag] = msg
		w.inputBufferSet[tag] = true
		return
	}
	w.ic.TaggedRequest(tag, msg)
}

// TaggedReply implements the ports.TaggedMaster interface. The tag is the
// slave sending the reply.
func (w *Wrapper) TaggedReply(tag ports.Tag, msg signals.SlaveToMaster) {
	if !w.active {
		w.ic.TaggedReply(tag, msg)
		return
	}

	checked.Assert(!w.dedupOutput[tag], "%v: duplicate reply from slave %v: %v", w, tag, msg)
	w.dedupOutput[tag] = true

	out, _ := w.outputExpect.Get()
	if int(tag) < len(out) && out[tag] {
		w.missingSlaves--
		w.ic.TaggedReply(tag, msg)
		w.tryDispatch()
		return
	}

	checked.Assert(msg.Status.IsDone(), "%v: unexpected reply from slave %v: %v", w, tag, msg)
}

// Describe returns a summary of the wrapper and of the crossbar.
func (w *Wrapper) Describe() string {
	state := "on"
	if !w.active {
		state = "off"
	}
	return fmt.Sprintf("wrapper %s missing slaves %d\n%s", state, w.missingSlaves, w.ic.Describe())
}

// replies from the input stages of the crossbar
type wrapperInputs Wrapper

func (wi *wrapperInputs) TaggedReply(tag ports.Tag, msg signals.SlaveToMaster) {
	w := (*Wrapper)(wi)
	w.inputReply[tag] = msg.Status.HReadyOut()
	w.inputReplySet[tag] = true

	checked.Assert(!w.dedupInput[tag], "%v: duplicate reply to master %v: %v", w, tag, msg)
	w.dedupInput[tag] = true

	w.masters[tag].Reply(msg)
}

// requests from the output stages of the crossbar
type wrapperOutputs Wrapper

func (wo *wrapperOutputs) TaggedRequest(tag ports.Tag, msg signals.MasterToSlave) {
	w := (*Wrapper)(wo)
	if !msg.Addr.Ready || msg.Addr.IsSelected() {
		if next, ok := w.outputExpect.PeekNext(); ok {
			next[tag] = true
		}
	}
	w.slaves[tag].Request(msg)
}
