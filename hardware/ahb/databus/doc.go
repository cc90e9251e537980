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

// Package databus implements the value carried on the data lines of the bus.
//
// A Value is one of Byte, Halfword, Word or Doubleword wide, or it is HighZ
// which means that no transfer is taking place. The byte order is
// little-endian.
//
// Memory slaves usually store words and use ExtractFromWord() and
// EmplaceInWord() to service narrower transfers. The line buffer uses
// ExtractFromAligned() to pull a requested transfer out of a wide line.
package databus
