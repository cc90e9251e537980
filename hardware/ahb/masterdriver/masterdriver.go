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


// Package masterdriver implements the AHB-Lite master protocol for simple bus
// masters.
//
// A Master issues a queue of single transfers in order. The address phase of
// a transfer overlaps the data phase of the previous one. The address phase is
// held while the bus inserts waitstates and the write data is driven for
// every cycle of the data phase.
//
// An error response ends the transfer in its data phase with an error. The
// transfer in its address phase at the same time is aborted. Both are
// reported as completed.
package masterdriver

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Status of a transfer.
type Status int

// List of valid Status values.
const (
	Queued Status = iota
	AddrPhaseNew
	AddrPhaseStalled
	DataPhaseWaiting
	DataPhaseDone
	Aborted
)

func (s Status) String() string {
	switch s {
	case Queued:
		return "queued"
	case AddrPhaseNew:
		return "address phase"
	case AddrPhaseStalled:
		return "address phase stalled"
	case DataPhaseWaiting:
		return "data phase"
	case DataPhaseDone:
		return "done"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Transfer is a single transfer issued by a Master. The fields below the
// marker are filled in by the Master.
type Transfer struct {
	Meta signals.TransferMeta

	// write data. the width must match the size of the transfer
	Data databus.Value

	// ----

	Status Status

	// the response that ended the data phase. either Success or Error1
	Response signals.Response

	// read data
	Result databus.Value

	// cycle in which the address phase was first presented and the cycle in
	// which the data phase ended
	Issued    uint64
	Completed uint64
}

func (t *Transfer) String() string {
	s := fmt.Sprintf("%v %v", t.Meta, t.Status)
	if t.Meta.IsWriting() {
		s = fmt.Sprintf("%s data=%v", s, t.Data)
	}
	if t.Status == DataPhaseDone {
		s = fmt.Sprintf("%s %v", s, t.Response)
		if t.Meta.IsReading() && t.Response.IsDone() {
			s = fmt.Sprintf("%s result=%v", s, t.Result)
		}
	}
	return s
}

// IsFinished returns true if the transfer is done or aborted.
func (t *Transfer) IsFinished() bool {
	return t.Status == DataPhaseDone || t.Status == Aborted
}

// BadData is the pattern for errors returned when the write data does not
// suit the transfer.
const BadData = "masterdriver: write data %v for %v"

// Master drives a queue of transfers onto the bus.
type Master struct {
	name string
	prot signals.Protection

	queue []*Transfer

	// transfer in its address phase and transfer in its data phase
	addrPhase *Transfer
	dataPhase *Transfer
	writeData databus.Value

	// response received this cycle
	reply    signals.Response
	replySet bool

	// an error aborted the address phase. the master is idle until the error
	// response has finished
	aborted bool

	cycle     uint64
	completed []*Transfer

	downstream ports.Slave
}

// NewMaster is the preferred method of initialisation for the Master type.
// The protection is used for transfers created by Read() and Write().
func NewMaster(name string, prot signals.Protection) *Master {
	return &Master{
		name:       name,
		prot:       prot,
		downstream: ports.Null{},
	}
}

func (m *Master) String() string {
	return m.name
}

// AttachDownstream connects the slave side of the bus.
func (m *Master) AttachDownstream(s ports.Slave) {
	m.downstream = s
}

// Enqueue adds a transfer to the end of the queue.
func (m *Master) Enqueue(t *Transfer) error {
	if t.Meta.IsWriting() != t.Data.IsPresent() || (t.Data.IsPresent() && t.Data.Size() != t.Meta.Size) {
		return curated.Errorf(BadData, t.Data, t.Meta)
	}
	t.Status = Queued
	m.queue = append(m.queue, t)
	return nil
}

// Read queues a read with the protection of the master.
func (m *Master) Read(addr uint32, size databus.Size) *Transfer {
	t := &Transfer{Meta: signals.TransferMeta{Addr: addr, Size: size, Burst: signals.Single, Dir: signals.Read, Prot: m.prot}}
	_ = m.Enqueue(t)
	return t
}

// Write queues a write with the protection of the master. The size of the
// transfer is the width of the data.
func (m *Master) Write(addr uint32, data databus.Value) (*Transfer, error) {
	t := &Transfer{
		Meta: signals.TransferMeta{Addr: addr, Size: data.Size(), Burst: signals.Single, Dir: signals.Write, Prot: m.prot},
		Data: data,
	}
	if err := m.Enqueue(t); err != nil {
		return nil, err
	}
	return t, nil
}

// IsIdle returns true if there is nothing queued or in progress.
func (m *Master) IsIdle() bool {
	return len(m.queue) == 0 && m.addrPhase == nil && m.dataPhase == nil
}

// Cycle returns the number of clock edges seen by the master.
func (m *Master) Cycle() uint64 {
	return m.cycle
}

// Completed returns the transfers that finished since the last call.
func (m *Master) Completed() []*Transfer {
	c := m.completed
	m.completed = nil
	return c
}

// Tick implements the ports.Component interface.
func (m *Master) Tick() {
	m.cycle++

	hready := !m.replySet || m.reply.HReadyOut()
	m.replySet = false

	if hready {
		checked.Assert(m.dataPhase == nil, "%s: data phase ended without a response: %v", m.name, m.dataPhase)
		m.dataPhase = m.addrPhase
		m.addrPhase = nil
		if m.dataPhase != nil {
			m.dataPhase.Status = DataPhaseWaiting
		}
	} else if m.addrPhase != nil {
		m.addrPhase.Status = AddrPhaseStalled
	}

	// write data is driven for the whole of the cycle, even if the response
	// arrives before the data is sent
	m.writeData = databus.Value{}
	if m.dataPhase != nil && m.dataPhase.Meta.IsWriting() {
		m.writeData = m.dataPhase.Data
	}
}

// Tock implements the ports.Component interface. The master sends a message
// in every cycle, an idle one if there is nothing to do.
func (m *Master) Tock() {
	if m.addrPhase == nil && !m.aborted && len(m.queue) > 0 {
		m.addrPhase = m.queue[0]
		m.queue = m.queue[1:]
		m.addrPhase.Status = AddrPhaseNew
		m.addrPhase.Issued = m.cycle
	}

	msg := signals.MasterToSlave{Addr: signals.Empty(m.name)}
	if m.addrPhase != nil {
		t := m.addrPhase.Meta
		msg.Addr = signals.AddrPhase{Kind: signals.NonSeq, Meta: t, Ready: true, Tag: m.name}
	}
	msg.Addr.Ready = !m.replySet || m.reply.HReadyOut()

	msg.Data.Data = m.writeData

	logger.Logf(trace.Bus, m.name, "%v", msg)
	m.downstream.Request(msg)
}

// Reply implements the ports.Master interface.
func (m *Master) Reply(msg signals.SlaveToMaster) {
	checked.Assert(!m.replySet, "%s: second reply in one cycle: %v", m.name, msg)
	checked.Assert(msg.Status != signals.Error2 || m.aborted, "%s: unexpected %v", m.name, msg.Status)
	m.reply = msg.Status
	m.replySet = true

	switch msg.Status {
	case signals.Success:
		if m.dataPhase == nil {
			return
		}
		if m.dataPhase.Meta.IsReading() {
			checked.Assert(msg.Data.Size() == m.dataPhase.Meta.Size, "%s: reply of width %v for %v", m.name, msg.Data.Size(), m.dataPhase.Meta)
			m.dataPhase.Result = msg.Data
		}
		m.finish(m.dataPhase, DataPhaseDone, signals.Success)
		m.dataPhase = nil

	case signals.Error1:
		checked.Assert(m.dataPhase != nil, "%s: error response without a data phase", m.name)
		if m.dataPhase != nil {
			m.finish(m.dataPhase, DataPhaseDone, signals.Error1)
			m.dataPhase = nil
		}
		if m.addrPhase != nil {
			m.finish(m.addrPhase, Aborted, signals.Error1)
			m.addrPhase = nil
		}
		m.aborted = true

	case signals.Error2:
		m.aborted = false
	}
}

func (m *Master) finish(t *Transfer, status Status, response signals.Response) {
	t.Status = status
	t.Response = response
	t.Completed = m.cycle
	m.completed = append(m.completed, t)
	logger.Logf(trace.Bus, m.name, "finished %v", t)
}

// Describe returns a summary of the master state.
func (m *Master) Describe() string {
	return fmt.Sprintf("%s: addr %v data %v queued %d", m.name, m.addrPhase, m.dataPhase, len(m.queue))
}
