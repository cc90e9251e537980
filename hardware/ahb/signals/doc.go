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

// Package signals defines the wires of the bus. Wires are grouped into the
// messages exchanged between neighbouring components of the fabric.
//
// MasterToSlave carries an address phase together with the data phase of the
// previous address phase. SlaveToMaster carries the response to the data
// phase. The GRANT wire is a plain bool and isn't defined here.
//
// Response control combines the HREADYOUT and HRESP wires into one of four
// states. An error takes two cycles: Error1 is always followed by Error2.
package signals
