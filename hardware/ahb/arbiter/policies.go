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

package arbiter

import (
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// SoleArbiter is used when an output stage only has one master connected. It
// always returns that master.
type SoleArbiter struct {
	sole ports.Tag
}

// NewSole is the preferred method of initialisation for the SoleArbiter type.
func NewSole(sole ports.Tag) *SoleArbiter {
	return &SoleArbiter{sole: sole}
}

func (a *SoleArbiter) Arbitrate(requests []bool, _ signals.AddrPhase) ports.Tag {
	if checked.Enabled {
		for t, r := range requests {
			checked.Assert(!r || ports.Tag(t) == a.sole, "sole arbiter for %v got request from %v", a.sole, ports.Tag(t))
		}
	}
	return a.sole
}

func (a *SoleArbiter) AddrInPort() ports.Tag {
	return a.sole
}

// NullArbiter is used when no master is connected to an output stage. It never
// chooses a master.
type NullArbiter struct{}

// NewNull is the preferred method of initialisation for the NullArbiter type.
func NewNull() *NullArbiter {
	return &NullArbiter{}
}

func (a *NullArbiter) Arbitrate(requests []bool, _ signals.AddrPhase) ports.Tag {
	if checked.Enabled {
		for t, r := range requests {
			checked.Assert(!r, "null arbiter got request from %v", ports.Tag(t))
		}
	}
	return ports.NoTag
}

func (a *NullArbiter) AddrInPort() ports.Tag {
	return ports.NoTag
}

// RoundRobinArbiter grants the address route to the next requesting master
// after the one that was granted last.
type RoundRobinArbiter struct {
	current ports.Tag
}

// NewRoundRobin is the preferred method of initialisation for the
// RoundRobinArbiter type.
func NewRoundRobin() *RoundRobinArbiter {
	return &RoundRobinArbiter{current: ports.NoTag}
}

func (a *RoundRobinArbiter) Arbitrate(requests []bool, last signals.AddrPhase) ports.Tag {
	// the transfer on the bus is stalled. the route must not change
	if !last.Ready {
		return a.current
	}

	checked.Assert(!last.IsAddressValid() || last.Meta.Burst == signals.Single,
		"round-robin arbitration of burst transfers: %v", last)

	if last.Lock {
		return a.current
	}

	n := ports.Tag(len(requests))

	start := a.current
	if !start.IsSet() {
		start = n - 1
	}

	next := ports.NoTag
	for t := start + 1; t < n; t++ {
		if requests[t] {
			next = t
			break
		}
	}
	if !next.IsSet() {
		for t := ports.Tag(0); t <= start && t < n; t++ {
			if requests[t] {
				next = t
				break
			}
		}
	}
	if !next.IsSet() && last.IsIdle() {
		next = a.current
	}

	logger.Logf(trace.Bus, "arbiter", "round-robin of %v while [%v]: %v", requests, last, next)
	a.current = next
	return a.current
}

func (a *RoundRobinArbiter) AddrInPort() ports.Tag {
	return a.current
}

// FixedArbiter grants the address route to the requesting master with the
// lowest tag. The master with the route keeps it while its transfers are
// active.
type FixedArbiter struct {
	current ports.Tag
	forced  ports.Tag
}

// NewFixed is the preferred method of initialisation for the FixedArbiter
// type. The first master owns the address route after reset.
func NewFixed() *FixedArbiter {
	return &FixedArbiter{current: 0, forced: ports.NoTag}
}

// ForceRequest adds a request from the master to the next arbitration only.
func (a *FixedArbiter) ForceRequest(tag ports.Tag) {
	a.forced = tag
}

func (a *FixedArbiter) Arbitrate(requests []bool, last signals.AddrPhase) ports.Tag {
	if a.forced.IsSet() && int(a.forced) < len(requests) {
		r := make([]bool, len(requests))
		copy(r, requests)
		r[a.forced] = true
		requests = r
	}
	a.forced = ports.NoTag

	if !last.Ready || last.Lock {
		return a.current
	}

	keep := ports.NoTag
	if last.IsIdle() {
		keep = a.current
	}

	next := keep
	for t, r := range requests {
		if r || (ports.Tag(t) == a.current && !last.IsIdle()) {
			next = ports.Tag(t)
			break
		}
	}

	logger.Logf(trace.Bus, "arbiter", "fixed of %v while [%v]: %v", requests, last, next)
	a.current = next
	return a.current
}

func (a *FixedArbiter) AddrInPort() ports.Tag {
	return a.current
}

// CombinatorialFixedArbiter grants the address route to the requesting
// master with the lowest tag (or the highest tag if reversed). It is meant to
// be given requests of the current cycle.
type CombinatorialFixedArbiter struct {
	current  ports.Tag
	reversed bool
}

// NewCombinatorialFixed is the preferred method of initialisation for the
// CombinatorialFixedArbiter type.
func NewCombinatorialFixed() *CombinatorialFixedArbiter {
	return &CombinatorialFixedArbiter{current: ports.NoTag}
}

// NewReversedCombinatorialFixed returns a CombinatorialFixedArbiter that
// prefers the master with the highest tag.
func NewReversedCombinatorialFixed() *CombinatorialFixedArbiter {
	return &CombinatorialFixedArbiter{current: ports.NoTag, reversed: true}
}

func (a *CombinatorialFixedArbiter) Arbitrate(requests []bool, last signals.AddrPhase) ports.Tag {
	if !(last.Ready || !last.IsAddressValid()) || last.Lock {
		return a.current
	}

	next := ports.NoTag
	if last.IsIdle() {
		next = a.current
	}

	if a.reversed {
		for t := len(requests) - 1; t >= 0; t-- {
			if requests[t] {
				next = ports.Tag(t)
				break
			}
		}
	} else {
		for t, r := range requests {
			if r {
				next = ports.Tag(t)
				break
			}
		}
	}

	logger.Logf(trace.Bus, "arbiter", "combinatorial fixed of %v while [%v]: %v", requests, last, next)
	a.current = next
	return a.current
}

func (a *CombinatorialFixedArbiter) AddrInPort() ports.Tag {
	return a.current
}
