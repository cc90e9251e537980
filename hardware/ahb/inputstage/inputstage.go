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


// Package inputstage adapts a master to the decoder of an interconnect.
//
// When a transfer advances to its data phase but the output stage denies the
// address phase, the input stage remembers the address phase and replays it
// towards the decoder. Meanwhile the master is held with waitstates. Idle
// transfers are answered by the input stage itself.
package inputstage

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

// State of the input stage for the current cycle.
type State int

// List of valid State values.
const (
	Idle State = iota
	Transparent
	Buffer
	Terminator
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Transparent:
		return "transparent"
	case Buffer:
		return "buffer"
	case Terminator:
		return "terminator"
	}
	return "unknown"
}

// the boundary that a single transfer must not cross
const boundary = 0x400

// InputStage sits between a master and its decoder.
type InputStage struct {
	name  string
	state State
	track statetrack.Track

	rejected    bool
	rejectedSet bool

	downstream ports.Slave
	upstream   ports.Master
}

// NewInputStage is the preferred method of initialisation for the InputStage
// type.
func NewInputStage(name string) *InputStage {
	return &InputStage{
		name:       name,
		downstream: ports.Null{},
		upstream:   ports.Null{},
	}
}

func (s *InputStage) String() string {
	return s.name
}

// AttachDownstream connects the decoder.
func (s *InputStage) AttachDownstream(d ports.Slave) {
	s.downstream = d
}

// AttachUpstream connects the master.
func (s *InputStage) AttachUpstream(m ports.Master) {
	s.upstream = m
}

// State returns the state for the current cycle.
func (s *InputStage) State() State {
	return s.state
}

// Tick implements the ports.Component interface.
func (s *InputStage) Tick() {
	checked.Assert(s.state != Buffer || s.track.IsLastAddrSet(),
		"%s: buffering but the master did not send an address phase", s.name)
	if _, ok := s.track.DataAddress(); ok {
		checked.Assert(s.track.IsLastAddrSet(), "%s: master did not send while in a data phase", s.name)
	}

	hadRequest := s.track.IsLastAddrSet()
	tr := s.track.Update()
	denied := s.rejectedSet && s.rejected

	switch {
	case tr.HasDataPhase && denied && (tr.Advanced || s.state == Buffer):
		s.state = Buffer
	case tr.HasDataPhase:
		s.state = Transparent
	case tr.Advanced && !denied && hadRequest:
		s.state = Terminator
	case !s.rejectedSet:
		s.state = Idle
	default:
		checked.Failf("%s: impossible state (advanced %v, denied %v, was %v) %v", s.name, tr.Advanced, denied, s.state, &s.track)
	}

	s.rejectedSet = false

	logger.Logf(trace.Bus, s.name, "%v %v", s.state, &s.track)
}

// Tock implements the ports.Component interface. The input stage answers the
// master itself when terminating an idle transfer or when buffering.
func (s *InputStage) Tock() {
	switch s.state {
	case Terminator:
		s.send(signals.EmptyReply())
	case Buffer:
		addr, _ := s.track.DataAddress()
		s.send(addr.MakeReply(signals.Pending, databus.Value{}))
	}
}

// Request implements the ports.Slave interface.
func (s *InputStage) Request(msg signals.MasterToSlave) {
	s.track.SetLastAddr(msg.Addr)

	checked.Assert(msg.Addr.Kind != signals.Busy, "%s: unsupported transfer type %v", s.name, msg.Addr.Kind)
	if meta, ok := msg.Addr.GetMeta(); ok {
		if msg.Addr.Lock {
			checked.Unimplemented("%s: locked transfer %v", s.name, msg.Addr)
		}
		if meta.Burst != signals.Single {
			checked.Unimplemented("%s: burst transfer %v", s.name, msg.Addr)
		}
		if first := uint64(meta.Addr); first/boundary != (first+uint64(meta.Size.Bytes())-1)/boundary {
			checked.Unimplemented("%s: transfer crossing a 1KB boundary %v", s.name, msg.Addr)
		}
	}

	out := msg
	if s.state == Buffer {
		out.Addr, _ = s.track.DataAddress()
	}

	logger.Logf(trace.Bus, s.name, "%v", out)
	s.downstream.Request(out)
}

// Reply implements the ports.Master interface.
func (s *InputStage) Reply(msg signals.SlaveToMaster) {
	if s.state == Buffer || s.state == Terminator {
		checked.Assert(msg.Status.IsDone(), "%s: already answered in %v but got %v", s.name, s.state, msg)
		return
	}
	s.send(msg)
}

// Grant implements the ports.Granted interface.
func (s *InputStage) Grant(granted bool) {
	s.rejected = !granted
	s.rejectedSet = true
	if !granted {
		logger.Logf(trace.Bus, s.name, "denied")
	}
}

func (s *InputStage) send(msg signals.SlaveToMaster) {
	s.track.SetLastReply(msg.Status)
	s.upstream.Reply(msg)
}

// Describe returns a summary of the input stage state.
func (s *InputStage) Describe() string {
	return fmt.Sprintf("%s: %v %v", s.name, s.state, &s.track)
}
