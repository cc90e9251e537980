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

// Package assert contains runtime checks about the execution environment
// rather than about the bus protocol.
package assert

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoroutineID returns the ID of the current goroutine. It should only be used
// in checked builds because it is slow.
func GoroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

// SingleGoroutine records the first goroutine to call Check() and reports
// whether subsequent calls come from the same goroutine.
type SingleGoroutine struct {
	id uint64
}

// Check returns false if the calling goroutine is not the goroutine that first
// called Check().
func (s *SingleGoroutine) Check() bool {
	id := GoroutineID()
	if s.id == 0 {
		s.id = id
		return true
	}
	return s.id == id
}
