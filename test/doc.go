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

// Package test contains helper functions to remove common boilerplate to make
// testing easier.
//
// The ExpectEquality() and ExpectSuccess() family of functions report a
// failure with t.Errorf() and allow the test to continue. The Demand family
// of functions report the failure with t.Fatalf() and stop the test
// immediately.
//
// ExpectPanic() is for the fail-fast paths of the bus fabric, where an
// invariant violation or an unsupported feature results in a panic.
//
// CompareWriter is an io.Writer that stores everything written to it and which
// can be compared against an expected string.
package test
