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

// Package flop contains the storage primitives used to model registered and
// combinatorial state in the fabric.
//
// Flop is a value with a current and a next slot. The next slot becomes
// current on Tick(). Register is a value that keeps its current value unless
// a new one is set. Pending is the one-shot expectation of a value that must
// arrive later in the same cycle.
package flop

import (
	"fmt"
)

// Flop is a (possibly unset) value that changes on the clock edge. If no next
// value is set, the flop becomes unset on Tick().
//
// The zero value is an unset flop.
type Flop[T any] struct {
	cur     T
	curSet  bool
	next    T
	nextSet bool

	// the current value is carried over on Tick()
	keep bool
}

// NewFrom returns a flop with the current value already set.
func NewFrom[T any](v T) Flop[T] {
	return Flop[T]{cur: v, curSet: true}
}

// Get returns the current value and whether it is set.
func (f *Flop[T]) Get() (T, bool) {
	return f.cur, f.curSet
}

// Or returns the current value or def if the flop is unset.
func (f *Flop[T]) Or(def T) T {
	if f.curSet {
		return f.cur
	}
	return def
}

// IsSet returns true if there is a current value.
func (f *Flop[T]) IsSet() bool {
	return f.curSet
}

// IsSetAnd returns true if there is a current value and it satisfies the
// predicate.
func (f *Flop[T]) IsSetAnd(pred func(T) bool) bool {
	return f.curSet && pred(f.cur)
}

// Take returns the current value and leaves the flop unset.
func (f *Flop[T]) Take() (T, bool) {
	v, ok := f.cur, f.curSet
	var z T
	f.cur = z
	f.curSet = false
	return v, ok
}

// SetNext sets the value that becomes current on the next Tick(). Any
// previous request to keep the current value is cancelled.
func (f *Flop[T]) SetNext(v T) {
	f.next = v
	f.nextSet = true
	f.keep = false
}

// SetNextIfNotLatching is like SetNext() but does nothing if
// KeepCurrentAsNext() has been called this cycle.
func (f *Flop[T]) SetNextIfNotLatching(v T) {
	if f.keep {
		return
	}
	f.next = v
	f.nextSet = true
}

// SetDefaultNext sets the next value only if it hasn't been set this cycle.
func (f *Flop[T]) SetDefaultNext(v T) {
	if !f.IsNextSet() {
		f.SetNext(v)
	}
}

// KeepCurrentAsNext carries the current value over the next Tick(). The flop
// must be set.
func (f *Flop[T]) KeepCurrentAsNext() {
	if !f.curSet {
		panic(fmt.Sprintf("flop: keeping current value of unset flop of type %T", f.cur))
	}
	var z T
	f.next = z
	f.nextSet = false
	f.keep = true
}

// DefaultKeepCurrentAsNext keeps the current value if there is one and if no
// next value has been set this cycle.
func (f *Flop[T]) DefaultKeepCurrentAsNext() {
	if !f.IsNextSet() && f.curSet {
		f.SetDefaultNext(f.cur)
	}
}

// UnsetNext returns the next slot to the state it is in just after Tick().
func (f *Flop[T]) UnsetNext() {
	var z T
	f.next = z
	f.nextSet = false
	f.keep = false
}

// IsNextSet returns true if the flop will be set after the next Tick().
func (f *Flop[T]) IsNextSet() bool {
	return f.keep || f.nextSet
}

// PeekNext returns the value that will be current after the next Tick().
func (f *Flop[T]) PeekNext() (T, bool) {
	if f.keep {
		return f.cur, true
	}
	return f.next, f.nextSet
}

// Tick is the clock edge.
func (f *Flop[T]) Tick() {
	var z T
	if f.keep {
		f.keep = false
	} else {
		f.cur = f.next
		f.curSet = f.nextSet
	}
	f.next = z
	f.nextSet = false
}

func (f *Flop[T]) String() string {
	if !f.curSet {
		return "unset"
	}
	return fmt.Sprintf("%v", f.cur)
}

// Register is a value that keeps its state over the clock edge unless a new
// value is set.
type Register[T any] struct {
	data    T
	next    T
	nextSet bool
}

// NewRegister returns a register with an initial value.
func NewRegister[T any](v T) Register[T] {
	return Register[T]{data: v}
}

// Get returns the current value.
func (r *Register[T]) Get() T {
	return r.data
}

// SetNext sets the value that becomes current on the next Tick(). Setting
// the next value twice in one cycle is a programming error.
func (r *Register[T]) SetNext(v T) {
	if r.nextSet {
		panic(fmt.Sprintf("flop: register of type %T set twice in one cycle", r.data))
	}
	r.next = v
	r.nextSet = true
}

// IsEmpty returns true if no next value has been set this cycle.
func (r *Register[T]) IsEmpty() bool {
	return !r.nextSet
}

// Tick is the clock edge.
func (r *Register[T]) Tick() {
	if r.nextSet {
		r.data = r.next
		var z T
		r.next = z
		r.nextSet = false
	}
}
