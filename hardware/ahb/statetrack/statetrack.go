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

// Package statetrack follows the transition of address phases into data
// phases for a component that sits in the path of a transfer.
//
// An address phase may advance to a data phase, stay in the address phase
// because HREADY is low, or be denied by an arbiter in which case the current
// data phase still finishes. The Track type records the wires seen during a
// cycle and works out what happened when Update() is called on the clock
// edge.
package statetrack

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
)

// Transition is the result of a clock edge.
type Transition struct {
	// the address phase advanced to a data phase
	Advanced bool

	// the data phase that was in progress finished. this differs from
	// Advanced when the address phase was denied
	Finished bool

	// a data phase with a valid address is now in progress
	HasDataPhase bool
}

// Track records the address phase, response and GRANT wire of a cycle. The
// zero value is ready to use.
type Track struct {
	lastAddr    signals.AddrPhase
	lastAddrSet bool
	lastReply   signals.Response
	lastReplSet bool
	lastDeny    bool
	lastDenySet bool

	dataAddr    signals.AddrPhase
	dataAddrSet bool
}

// SetLastAddr records the address phase seen this cycle.
func (t *Track) SetLastAddr(addr signals.AddrPhase) {
	checked.Assert(!t.lastAddrSet, "address phase tracked twice in one cycle: %v", addr)
	t.lastAddr = addr
	t.lastAddrSet = true
}

// IsLastAddrSet returns true if an address phase has been seen this cycle.
func (t *Track) IsLastAddrSet() bool {
	return t.lastAddrSet
}

// LastAddr returns the address phase seen this cycle.
func (t *Track) LastAddr() (signals.AddrPhase, bool) {
	return t.lastAddr, t.lastAddrSet
}

// SetLastReply records the response seen this cycle.
func (t *Track) SetLastReply(reply signals.Response) {
	checked.Assert(!t.lastReplSet, "response tracked twice in one cycle: %v", reply)
	t.lastReply = reply
	t.lastReplSet = true
}

// IsLastReplySet returns true if a response has been seen this cycle.
func (t *Track) IsLastReplySet() bool {
	return t.lastReplSet
}

// SetLastDeny records the inverse of the GRANT wire seen this cycle.
func (t *Track) SetLastDeny(deny bool) {
	checked.Assert(!t.lastDenySet, "grant tracked twice in one cycle")
	t.lastDeny = deny
	t.lastDenySet = true
}

// IsLastDenySet returns true if the GRANT wire has been seen this cycle.
func (t *Track) IsLastDenySet() bool {
	return t.lastDenySet
}

// DataAddress returns the address phase of the data phase in progress. The
// address phase is only available if it is address valid.
func (t *Track) DataAddress() (signals.AddrPhase, bool) {
	return t.dataAddr, t.dataAddrSet
}

// Update consumes the wires seen during the cycle and returns what happened
// on the clock edge.
func (t *Track) Update() Transition {
	valid := t.lastAddrSet && t.lastAddr.IsAddressValid()

	// no response is the same as success
	hreadyOut := !t.lastReplSet || t.lastReply.HReadyOut()
	hreadyIn := hreadyOut && (!t.lastAddrSet || t.lastAddr.Ready)

	// no grant wire is the same as being granted
	advanced := hreadyIn && !(t.lastDenySet && t.lastDeny)
	finished := hreadyIn

	if advanced && valid {
		t.dataAddr = t.lastAddr
		t.dataAddrSet = true
	} else if finished {
		t.dataAddr = signals.AddrPhase{}
		t.dataAddrSet = false
	}

	t.lastAddr = signals.AddrPhase{}
	t.lastAddrSet = false
	t.lastReplSet = false
	t.lastDenySet = false

	return Transition{
		Advanced:     advanced,
		Finished:     finished,
		HasDataPhase: t.dataAddrSet,
	}
}

// AssertHReadyReflected checks that a low HREADYOUT in the response was seen
// as a low HREADY on the address phase.
func (t *Track) AssertHReadyReflected() {
	hreadyOut := !t.lastReplSet || t.lastReply.HReadyOut()
	hreadyIn := !t.lastAddrSet || t.lastAddr.Ready
	checked.Assert(hreadyOut || !hreadyIn, "HREADYOUT not reflected as HREADY: %v got %v", t.lastReply, t.lastAddr)
}

// SeemsActive returns true if a transfer is in its address or data phase.
func (t *Track) SeemsActive() bool {
	return (t.lastAddrSet && t.lastAddr.IsAddressValid()) || t.dataAddrSet
}

func (t *Track) String() string {
	s := "idle"
	if t.dataAddrSet {
		s = fmt.Sprintf("data=[%v]", t.dataAddr)
	}
	if t.lastAddrSet {
		s = fmt.Sprintf("%s addr=[%v]", s, t.lastAddr)
	}
	return s
}
