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


// Package slavedriver implements the AHB-Lite slave protocol for simple
// slaves.
//
// A SyncSlave registers the address phase and calls its Handler at the start
// of the data phase. The Handler answers with a Result. A Pending result holds
// the address phase for another cycle and an Error result is turned into the
// two cycle error response.
//
// Write data arrives during the data phase, one cycle after the Handler was
// asked about the write with PreWrite(). How the data is delivered depends on
// the WriteMode.
package slavedriver

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/flop"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Result of a Handler function.
type Result int

// List of valid Result values.
const (
	Success Result = iota
	Pending
	Error
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Pending:
		return "pending"
	case Error:
		return "error"
	}
	return "unknown"
}

// the first cycle of the bus response for the result
func (r Result) response() signals.Response {
	switch r {
	case Pending:
		return signals.Pending
	case Error:
		return signals.Error1
	}
	return signals.Success
}

// Handler is implemented by the slave behind a SyncSlave.
type Handler interface {
	// ReadData is called at the start of every data phase cycle of a read.
	// The data is only used with a Success result.
	ReadData(meta signals.TransferMeta) (databus.Value, Result)

	// PreWrite is called at the start of the first data phase cycle of a
	// write, before the data is known.
	PreWrite(meta signals.TransferMeta) Result

	// WriteData delivers the data of a write. If postSuccess is true the
	// master has already been told that the write succeeded and the result
	// must be Success. Otherwise the result is the response for the current
	// cycle of the data phase.
	WriteData(meta signals.TransferMeta, data databus.Value, postSuccess bool) Result
}

// WriteMode selects when WriteData() is called.
type WriteMode int

// List of valid WriteMode values.
const (
	// the data is registered and delivered at the start of the next cycle
	Registered WriteMode = iota

	// the data is delivered as soon as it arrives
	Combinatorial
)

// write data waiting to be delivered to the handler on the next cycle
type pendingWrite struct {
	meta        signals.TransferMeta
	data        databus.Value
	postSuccess bool

	// the handler has already seen the data and the result is in the
	// registered response
	delivered bool
}

// SyncSlave drives a Handler from the bus.
type SyncSlave struct {
	name    string
	handler Handler
	mode    WriteMode

	// response of this cycle and of the previous cycle
	response     signals.Response
	prevResponse signals.Response

	addrReg            flop.Flop[signals.AddrPhase]
	writeData          flop.Flop[pendingWrite]
	registeredResponse flop.Flop[Result]

	reply    signals.SlaveToMaster
	replySet bool

	// the write in the data phase was completed by the handler at the start
	// of the cycle
	written bool

	upstream ports.Master
}

// NewSyncSlave is the preferred method of initialisation for the SyncSlave
// type.
func NewSyncSlave(name string, handler Handler, mode WriteMode) *SyncSlave {
	return &SyncSlave{
		name:     name,
		handler:  handler,
		mode:     mode,
		upstream: ports.Null{},
	}
}

func (s *SyncSlave) String() string {
	return s.name
}

// AttachUpstream connects the component that receives replies.
func (s *SyncSlave) AttachUpstream(m ports.Master) {
	s.upstream = m
}

// Tick implements the ports.Component interface. The handler is called during
// the Tick and the reply is prepared.
func (s *SyncSlave) Tick() {
	checked.Assert(!s.replySet, "%s: reply was not sent", s.name)

	s.addrReg.Tick()
	s.writeData.Tick()
	s.registeredResponse.Tick()
	s.prevResponse = s.response

	var data databus.Value
	var response signals.Response
	decided := false
	s.written = false

	if s.prevResponse == signals.Error1 {
		response = signals.Error2
		decided = true
	}

	if w, ok := s.writeData.Take(); ok {
		var r Result
		if w.delivered {
			r, _ = s.registeredResponse.Take()
		} else {
			r = s.handler.WriteData(w.meta, w.data, w.postSuccess)
		}
		if w.postSuccess {
			checked.Assert(r == Success, "%s: write already acknowledged but handler returned %v", s.name, r)
		} else if !decided {
			response = r.response()
			decided = true
			s.written = r == Success
		}
	}

	addr, addrSet := s.addrReg.Get()
	if !decided {
		response = signals.Success
		if meta, ok := addr.GetMeta(); addrSet && ok {
			if meta.IsWriting() {
				response = s.handler.PreWrite(meta).response()
			} else {
				d, r := s.handler.ReadData(meta)
				response = r.response()
				if r == Success {
					data = d
				}
			}
		}
	}

	s.response = response
	if !addrSet {
		addr = signals.Empty(s.name)
	}
	s.reply = addr.MakeReply(response, data)
	s.replySet = true

	if response.IsWaitstate() {
		s.addrReg.DefaultKeepCurrentAsNext()
	}

	logger.Logf(trace.Bus, s.name, "%v for %v", s.reply, addr)
}

// Tock implements the ports.Component interface.
func (s *SyncSlave) Tock() {
	if !s.replySet {
		return
	}
	s.replySet = false
	s.upstream.Reply(s.reply)
}

// Request implements the ports.Slave interface.
func (s *SyncSlave) Request(msg signals.MasterToSlave) {
	if !msg.Addr.Ready || s.response.IsWaitstate() || !msg.Addr.IsSelected() {
		if s.addrReg.IsSet() && s.response.IsWaitstate() {
			s.addrReg.KeepCurrentAsNext()
		}
	} else {
		s.addrReg.SetNext(msg.Addr)
	}

	req, ok := s.addrReg.Get()
	if !ok || s.response == signals.Error2 || !req.IsWriting() {
		return
	}

	if s.response == signals.Error1 || s.written {
		return
	}

	meta := req.Meta
	postSuccess := s.response.HReadyOut()

	switch s.mode {
	case Registered:
		s.writeData.SetNext(pendingWrite{meta: meta, data: msg.Data.Data, postSuccess: postSuccess})
	case Combinatorial:
		r := s.handler.WriteData(meta, msg.Data.Data, postSuccess)
		if postSuccess {
			checked.Assert(r == Success, "%s: write already acknowledged but handler returned %v", s.name, r)
		} else {
			s.writeData.SetNext(pendingWrite{meta: meta, delivered: true})
			s.registeredResponse.SetNext(r)
		}
	}
}

// Describe returns a summary of the slave state.
func (s *SyncSlave) Describe() string {
	return fmt.Sprintf("%s: %v (was %v) addr %v", s.name, s.response, s.prevResponse, &s.addrReg)
}
