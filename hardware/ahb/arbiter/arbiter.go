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

// Package arbiter decides which master owns the address route of an output
// stage.
//
// Arbitrate() is called once per cycle with the requests of the masters and
// the address phase last forwarded to the slave. The returned tag (or
// ports.NoTag) is the owner of the address route for the cycle.
//
// The registered arbiters (RoundRobin and Fixed) are given the requests of the
// previous cycle. The combinatorial arbiters decide on requests that are
// already complete for the current cycle. Which requests are given to the
// arbiter is up to the caller, the arbiters themselves only differ in their
// policy.
package arbiter

import (
	"strings"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
)

// Arbiter is the interface implemented by all arbitration policies.
type Arbiter interface {
	// Arbitrate decides the owner of the address route. The length of the
	// requests slice is the number of masters.
	Arbitrate(requests []bool, last signals.AddrPhase) ports.Tag

	// AddrInPort returns the decision of the most recent call to Arbitrate().
	AddrInPort() ports.Tag
}

// Kind selects an arbitration policy.
type Kind int

// List of valid Kind values.
const (
	RoundRobin Kind = iota
	Fixed
	CombinatorialFixed
	ReversedCombinatorialFixed
	Sole
	Null
)

var kindNames = []string{"roundrobin", "fixed", "combfixed", "revcombfixed", "sole", "null"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// UnknownKind is the pattern for errors returned by ParseKind() and New().
const UnknownKind = "arbiter: unknown kind (%s)"

// BadMasters is the pattern for errors returned by New() when the number of
// masters does not suit the arbiter.
const BadMasters = "arbiter: %s arbiter with %d masters"

// ParseKind converts the name of an arbiter kind into a Kind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(s, n) {
			return Kind(i), nil
		}
	}
	return 0, curated.Errorf(UnknownKind, s)
}

// New creates an arbiter of the specified kind. The Sole arbiter requires
// exactly one master.
func New(kind Kind, masters int) (Arbiter, error) {
	if masters < 1 && kind != Null {
		return nil, curated.Errorf(BadMasters, kind, masters)
	}

	switch kind {
	case RoundRobin:
		return NewRoundRobin(), nil
	case Fixed:
		return NewFixed(), nil
	case CombinatorialFixed:
		return NewCombinatorialFixed(), nil
	case ReversedCombinatorialFixed:
		return NewReversedCombinatorialFixed(), nil
	case Sole:
		if masters != 1 {
			return nil, curated.Errorf(BadMasters, kind, masters)
		}
		return NewSole(0), nil
	case Null:
		return NewNull(), nil
	}

	return nil, curated.Errorf(UnknownKind, kind)
}
