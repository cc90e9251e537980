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


// Package govern defines the states of a running simulation. A run loop asks
// a continue check function for the next state after every cycle.
package govern

// State indicates the simulation's state.
type State int

// List of possible simulation states.
//
// Paused is a valid state for a run loop but the loop will not advance the
// simulation while in that state. Ending causes the run loop to return.
const (
	Running State = iota
	Paused
	Ending
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Ending:
		return "Ending"
	}
	return ""
}
