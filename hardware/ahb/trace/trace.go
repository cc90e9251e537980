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

// Package trace controls the cycle-by-cycle logging of the bus fabric.
//
// Components log through the central logger with the Bus permission. Logging
// is off by default.
package trace

import "sync/atomic"

// Switch is a logger.Permission that can be turned on and off.
type Switch struct {
	on atomic.Bool
}

// AllowLogging implements the logger.Permission interface.
func (s *Switch) AllowLogging() bool {
	return s.on.Load()
}

// Set turns logging on or off.
func (s *Switch) Set(on bool) {
	s.on.Store(on)
}

// Bus is the permission used by every component of the fabric.
var Bus = &Switch{}
