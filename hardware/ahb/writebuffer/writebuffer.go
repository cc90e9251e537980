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


// Package writebuffer hides the waitstates of bufferable writes from the
// master.
//
// The write buffer sits between one upstream port and one downstream slave.
// When a bufferable write reaches its data phase the data is captured and the
// master is told that the write succeeded, even if the slave inserts
// waitstates. The write is then completed asynchronously by replaying the
// buffered data until the slave accepts it. The next transfer of the master
// is held with waitstates until that happens.
//
// An error response in the first cycle of a buffered write is passed to the
// master. An error response after the first cycle can not be delivered and
// is not supported.
package writebuffer

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

// State of the write buffer.
type State int

// List of valid State values.
const (
	// data phases pass through
	Transparent State = iota

	// the address phase of the next transfer is held by the buffer and no
	// data phase is in progress
	IdleInjectionDone

	// first cycle of the data phase of a buffered write
	BufferedWriteFirst

	// the buffered write is being completed without the master
	BufferedWriteAsync
)

func (s State) String() string {
	switch s {
	case Transparent:
		return "transparent"
	case IdleInjectionDone:
		return "idle injection"
	case BufferedWriteFirst:
		return "buffered first"
	case BufferedWriteAsync:
		return "buffered async"
	}
	return "unknown"
}

// Config for the write buffer.
type Config struct {
	// a transfer following a buffered write can be presented to the slave
	// without waiting. if false an idle cycle is injected before a
	// transfer that is not a bufferable write
	FastBufferToLoad bool
}

// DefaultConfig is the configuration of the write buffer on the system bus.
func DefaultConfig() Config {
	return Config{FastBufferToLoad: true}
}

// WriteBuffer is a single input, single output write buffer.
type WriteBuffer struct {
	name string
	cfg  Config

	upstreamTrack   statetrack.Track
	downstreamTrack statetrack.Track

	lastReply    signals.Response
	lastReplySet bool
	lastAddr     signals.AddrPhase
	lastAddrSet  bool

	dataBuffer    signals.DataPhase
	dataBufferSet bool

	state State

	// the buffered message has been sent this cycle
	bufferedSent bool

	upstream   ports.Master
	downstream ports.Slave
}

// NewWriteBuffer is the preferred method of initialisation for the WriteBuffer
// type.
func NewWriteBuffer(name string, cfg Config) *WriteBuffer {
	return &WriteBuffer{
		name:       name,
		cfg:        cfg,
		upstream:   ports.Null{},
		downstream: ports.Null{},
	}
}

func (wb *WriteBuffer) String() string {
	return wb.name
}

// AttachUpstream connects the component that receives replies.
func (wb *WriteBuffer) AttachUpstream(m ports.Master) {
	wb.upstream = m
}

// AttachDownstream connects the slave.
func (wb *WriteBuffer) AttachDownstream(s ports.Slave) {
	wb.downstream = s
}

// State returns the state for the current cycle.
func (wb *WriteBuffer) State() State {
	return wb.state
}

// Tick implements the ports.Component interface.
func (wb *WriteBuffer) Tick() {
	checked.Assert(!wb.dataBufferSet || wb.state != Transparent, "%s: data buffered while transparent", wb.name)

	down := wb.downstreamTrack.Update()
	up := wb.upstreamTrack.Update()

	upData, _ := wb.upstreamTrack.DataAddress()
	nextBufferable := upData.IsBufferable()

	idleInjection := (wb.state == BufferedWriteFirst || wb.state == BufferedWriteAsync) &&
		!wb.cfg.FastBufferToLoad && up.Advanced && up.HasDataPhase && !nextBufferable

	switch {
	case down.Advanced:
		wb.dataBuffer = signals.DataPhase{}
		wb.dataBufferSet = false
		if nextBufferable {
			wb.state = BufferedWriteFirst
		} else if idleInjection {
			wb.state = IdleInjectionDone
		} else {
			wb.state = Transparent
		}
	case wb.state == BufferedWriteFirst:
		if wb.lastReplySet && wb.lastReply == signals.Error1 {
			// the error is passed on
			wb.dataBuffer = signals.DataPhase{}
			wb.dataBufferSet = false
			wb.state = Transparent
		} else {
			checked.Assert(wb.dataBufferSet, "%s: no data in the first cycle of a buffered write", wb.name)
			wb.state = BufferedWriteAsync
		}
	}

	wb.bufferedSent = false
	wb.lastReplySet = false
	wb.lastAddrSet = false

	logger.Logf(trace.Bus, wb.name, "%v up %v down %v", wb.state, &wb.upstreamTrack, &wb.downstreamTrack)
}

// Tock implements the ports.Component interface. The buffered write is
// replayed during the Tock, which must happen after the address phase from
// upstream has arrived.
func (wb *WriteBuffer) Tock() {
	switch wb.state {
	case BufferedWriteAsync:
		addr, ok := wb.upstreamTrack.DataAddress()
		if !ok && wb.lastAddrSet && (wb.cfg.FastBufferToLoad || wb.lastAddr.IsBufferable()) {
			addr, ok = wb.lastAddr, true
		}
		if !ok {
			addr = signals.Empty(wb.name)
		}
		checked.Assert(wb.dataBufferSet, "%s: buffered write without data", wb.name)
		wb.bufferedSent = true
		wb.send(signals.MasterToSlave{Addr: addr, Data: wb.dataBuffer}, false)

	case IdleInjectionDone:
		addr, ok := wb.upstreamTrack.DataAddress()
		checked.Assert(ok, "%s: idle injection without a held transfer", wb.name)
		wb.send(signals.MasterToSlave{Addr: addr}, false)
	}
}

// Request implements the ports.Slave interface.
func (wb *WriteBuffer) Request(msg signals.MasterToSlave) {
	wb.lastAddr = msg.Addr
	wb.lastAddrSet = true
	wb.upstreamTrack.SetLastAddr(msg.Addr)

	switch wb.state {
	case Transparent:
	case BufferedWriteFirst:
		wb.dataBuffer = msg.Data
		wb.dataBufferSet = true
		if !wb.cfg.FastBufferToLoad && !msg.Addr.IsBufferable() {
			msg = signals.MasterToSlave{Addr: signals.Empty(wb.name), Data: msg.Data}
		}
	default:
		_, ok := wb.upstreamTrack.DataAddress()
		checked.Assert(ok || !wb.bufferedSent, "%s: address phase arrived after the buffered write was sent", wb.name)
		return
	}

	wb.send(msg, true)
}

func (wb *WriteBuffer) send(msg signals.MasterToSlave, tracked bool) {
	if tracked {
		wb.downstreamTrack.SetLastAddr(msg.Addr)
	}
	logger.Logf(trace.Bus, wb.name, "%v", msg)
	wb.downstream.Request(msg)
}

// Reply implements the ports.Master interface.
func (wb *WriteBuffer) Reply(msg signals.SlaveToMaster) {
	wb.lastReply = msg.Status
	wb.lastReplySet = true
	wb.downstreamTrack.SetLastReply(msg.Status)

	switch wb.state {
	case Transparent:
	case IdleInjectionDone:
		if !msg.Status.IsWaitstate() {
			addr, _ := wb.upstreamTrack.DataAddress()
			msg = addr.MakeReply(signals.Pending, databus.Value{})
		}
	case BufferedWriteFirst:
		if msg.Status == signals.Pending {
			msg.Status = signals.Success
		}
	case BufferedWriteAsync:
		if msg.Status == signals.Error1 {
			checked.Unimplemented("%s: handling errors on waited writes", wb.name)
		}
		if addr, ok := wb.upstreamTrack.DataAddress(); ok {
			msg = addr.MakeReply(signals.Pending, databus.Value{})
		} else {
			msg = signals.EmptyReply()
		}
	}

	wb.upstreamTrack.SetLastReply(msg.Status)
	wb.upstream.Reply(msg)
}

// Describe returns a summary of the write buffer state.
func (wb *WriteBuffer) Describe() string {
	return fmt.Sprintf("%s: %v buffered %v", wb.name, wb.state, wb.dataBufferSet)
}
