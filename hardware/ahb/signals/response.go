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

package signals

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
)

// Response is the combination of the HREADYOUT and HRESP wires.
type Response uint8

// List of valid Response values.
const (
	Success Response = iota
	Pending

	// first cycle of an error response
	Error1

	// second cycle of an error response
	Error2
)

// HReadyOut returns the state of the HREADYOUT wire.
func (r Response) HReadyOut() bool {
	return r == Success || r == Error2
}

// IsError returns the state of the HRESP wire.
func (r Response) IsError() bool {
	return r == Error1 || r == Error2
}

// IsDone returns true if the transfer finished successfully.
func (r Response) IsDone() bool {
	return r == Success
}

// IsWaitstate returns true if the transfer requires another cycle.
func (r Response) IsWaitstate() bool {
	return r == Pending || r == Error1
}

// ValidAfter returns false if the response can not follow the previous
// response of the same slave. Error1 must be followed by Error2 and Error2
// can only follow Error1.
func (r Response) ValidAfter(prev Response) bool {
	if prev == Error1 {
		return r == Error2
	}
	return r != Error2
}

func (r Response) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case Pending:
		return "PENDING"
	case Error1:
		return "ERROR1"
	case Error2:
		return "ERROR2"
	}
	return "unknown"
}

// SlaveToMaster is the message sent upstream in response to a data phase.
type SlaveToMaster struct {
	Status Response
	Data   databus.Value

	// tag of the address phase being responded to. for diagnostics only
	Sender string
}

// EmptyReply is a successful response with no data.
func EmptyReply() SlaveToMaster {
	return SlaveToMaster{Status: Success}
}

// IsInert returns true if the response is a success with no data.
func (s SlaveToMaster) IsInert() bool {
	return s.Status.IsDone() && !s.Data.IsPresent()
}

func (s SlaveToMaster) String() string {
	if s.Data.IsPresent() {
		return fmt.Sprintf("%v data=%v", s.Status, s.Data)
	}
	return s.Status.String()
}
