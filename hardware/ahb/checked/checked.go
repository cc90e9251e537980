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

// Package checked controls the protocol assertions of the bus fabric.
//
// Assertions are enabled by default. Building with the unchecked tag removes
// them:
//
//	go build -tags unchecked
//
// A failed assertion panics with a curated error carrying the Violation
// pattern. Features that are deliberately not supported always panic with the
// NotImplemented pattern, whether or not assertions are enabled.
//
// The assertions double as the oracle for the fabric's tests: a test that
// drives the fabric through a scenario without a panic has shown that no
// protocol invariant was broken.
package checked

import (
	"github.com/jetsetilly/ahbfabric/curated"
)

// Sentinel patterns for the panics raised by this package.
const (
	Violation      = "protocol violation: %v"
	NotImplemented = "not implemented: %v"
)

// Assert panics if cond is false. The pattern and values describe the
// invariant that was broken.
func Assert(cond bool, pattern string, values ...any) {
	if Enabled && !cond {
		panic(curated.Errorf(Violation, curated.Errorf(pattern, values...)))
	}
}

// Failf panics unconditionally with the Violation pattern. Used for state
// combinations that can never be handled, checked or not.
func Failf(pattern string, values ...any) {
	panic(curated.Errorf(Violation, curated.Errorf(pattern, values...)))
}

// Unimplemented panics unconditionally with the NotImplemented pattern.
func Unimplemented(pattern string, values ...any) {
	panic(curated.Errorf(NotImplemented, curated.Errorf(pattern, values...)))
}
