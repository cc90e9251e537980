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


// Package macro drives the masters of a SoC from a Lua script.
//
// The script queues transfers on the masters and steps the SoC. The
// following functions are available to the script. Sizes are in bytes (1, 2
// or 4) and default to 4.
//
//	read(master, addr [, size])          queue a read. returns a transfer id
//	write(master, addr, value [, size])  queue a write. returns a transfer id
//	step([n])                            step the SoC by n cycles (default 1)
//	run([limit])                         step until idle. returns the number of cycles
//	result(id)                           returns value, response, issued, completed
//	cycle()                              the current cycle
//	peek(addr [, size])                  read memory without a bus access
//	poke(addr, value [, size])           write memory without a bus access
//	expect(cond, msg)                    record a failure if cond is false
//	trace(on)                            turn the bus trace on or off
//	print(...)                           write to the output of the macro
//
// The value returned by result() is nil if the transfer has not finished or
// was aborted by a bus error. The response is one of "SUCCESS" or "ERROR1" for
// a finished transfer and the name of the transfer status otherwise.
//
// An error in the script stops execution. Failed expectations do not stop
// execution but the macro ends with an error.
package macro
