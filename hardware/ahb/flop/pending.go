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

package flop

import (
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
)

// Pending is the expectation that a value arrives during the current cycle.
// It is used to check that a reply that must come does come, and to read the
// value when it is needed before it is known whether it will arrive.
type Pending[T any] struct {
	expecting bool
	supplied  bool
	value     T
}

// Expect clears any supplied value and sets whether a value is expected this
// cycle.
func (p *Pending[T]) Expect(expecting bool) {
	var z T
	p.expecting = expecting
	p.supplied = false
	p.value = z
}

// Supply the expected value. Supplying a value that isn't expected, or
// supplying it twice in one cycle, is a protocol violation.
func (p *Pending[T]) Supply(v T) {
	checked.Assert(p.expecting && !p.supplied, "pending: supplied while not waiting (expecting %v, supplied %v)", p.expecting, p.supplied)
	p.value = v
	p.supplied = true
}

// IsExpecting returns true if a value is expected this cycle.
func (p *Pending[T]) IsExpecting() bool {
	return p.expecting
}

// IsReady returns true if no value is expected or if it has been supplied.
func (p *Pending[T]) IsReady() bool {
	return !p.expecting || p.supplied
}

// Get returns the supplied value and whether it has been supplied.
func (p *Pending[T]) Get() (T, bool) {
	return p.value, p.supplied
}

// Or returns the supplied value or def.
func (p *Pending[T]) Or(def T) T {
	if p.supplied {
		return p.value
	}
	return def
}
