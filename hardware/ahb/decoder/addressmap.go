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


package decoder

import (
	"fmt"
	"slices"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
)

// Sentinel patterns for errors returned by NewAddressMap().
const (
	BadRange = "decoder: bad range (%s)"
	Overlap  = "decoder: ranges overlap (%s and %s)"
)

// Range maps an inclusive span of addresses to a slave.
type Range struct {
	Name  string
	Start uint32
	End   uint32
	Slave ports.Tag
}

func (r Range) String() string {
	return fmt.Sprintf("%s %08x-%08x %v", r.Name, r.Start, r.End, r.Slave)
}

// AddressMap is a static table of non-overlapping ranges.
type AddressMap struct {
	ranges []Range
}

// NewAddressMap is the preferred method of initialisation for the AddressMap
// type. The order of the ranges is not important.
func NewAddressMap(ranges ...Range) (*AddressMap, error) {
	m := &AddressMap{ranges: slices.Clone(ranges)}

	for _, r := range m.ranges {
		if r.End < r.Start || !r.Slave.IsSet() {
			return nil, curated.Errorf(BadRange, r)
		}
	}

	slices.SortFunc(m.ranges, func(a, b Range) int {
		if a.Start < b.Start {
			return -1
		}
		if a.Start > b.Start {
			return 1
		}
		return 0
	})

	for i := 1; i < len(m.ranges); i++ {
		if m.ranges[i].Start <= m.ranges[i-1].End {
			return nil, curated.Errorf(Overlap, m.ranges[i-1], m.ranges[i])
		}
	}

	return m, nil
}

// Lookup returns the slave for the address. Unmapped addresses return
// ports.NoTag, which means the DefaultSlave.
func (m *AddressMap) Lookup(addr uint32) ports.Tag {
	i, found := slices.BinarySearchFunc(m.ranges, addr, func(r Range, a uint32) int {
		if r.Start < a {
			return -1
		}
		if r.Start > a {
			return 1
		}
		return 0
	})
	if found {
		return m.ranges[i].Slave
	}
	if i == 0 {
		return ports.NoTag
	}
	if r := m.ranges[i-1]; addr <= r.End {
		return r.Slave
	}
	return ports.NoTag
}

// Ranges returns a copy of the ranges in address order.
func (m *AddressMap) Ranges() []Range {
	return slices.Clone(m.ranges)
}
