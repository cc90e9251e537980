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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. The formatting
// pattern is stored with the error and is used by the Is() and Has()
// functions to differentiate errors. For example:
//
//	e := curated.Errorf("databus: overflow: %d bytes", 8)
//
//	if curated.Is(e, "databus: overflow: %d bytes") {
//		fmt.Println("true")
//	}
//
// Has() is similar but checks if the pattern occurs somewhere in the error
// chain. Wrapped errors are placed in the values of the outer Errorf() call.
//
// The Error() implementation normalises the error chain, so that wrapping an
// error with a prefix it already has does not repeat the prefix.
//
// Curated errors also implement Unwrap() so the standard library errors
// package can be used to search the chain for non-curated errors.
package curated
