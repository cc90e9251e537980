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

package flop_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/flop"
	"github.com/jetsetilly/ahbfabric/test"
)

func TestFlop(t *testing.T) {
	var f flop.Flop[int]
	test.ExpectFailure(t, f.IsSet())

	f.SetNext(1)
	test.ExpectFailure(t, f.IsSet())
	f.Tick()
	v, ok := f.Get()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, 1)

	// without a next value the flop becomes unset
	f.Tick()
	test.ExpectFailure(t, f.IsSet())
	test.ExpectEquality(t, f.Or(-1), -1)
}

func TestFlopKeep(t *testing.T) {
	f := flop.NewFrom(5)

	// latching wins against a later conditional set
	f.KeepCurrentAsNext()
	f.SetNextIfNotLatching(6)
	f.Tick()
	test.ExpectEquality(t, f.Or(0), 5)

	// but not against an unconditional set
	f.KeepCurrentAsNext()
	f.SetNext(7)
	f.Tick()
	test.ExpectEquality(t, f.Or(0), 7)

	// default keep only applies when nothing else is set
	f.SetNext(8)
	f.DefaultKeepCurrentAsNext()
	f.Tick()
	test.ExpectEquality(t, f.Or(0), 8)
	f.DefaultKeepCurrentAsNext()
	f.Tick()
	test.ExpectEquality(t, f.Or(0), 8)

	var u flop.Flop[int]
	test.ExpectPanic(t, func() { u.KeepCurrentAsNext() })
}

func TestRegister(t *testing.T) {
	r := flop.NewRegister(uint32(0xffffffff))
	test.ExpectSuccess(t, r.IsEmpty())
	r.SetNext(0x2000)
	test.ExpectEquality(t, r.Get(), uint32(0xffffffff))
	r.Tick()
	test.ExpectEquality(t, r.Get(), uint32(0x2000))
	r.Tick()
	test.ExpectEquality(t, r.Get(), uint32(0x2000))

	r.SetNext(1)
	test.ExpectPanic(t, func() { r.SetNext(2) })
}

func TestPending(t *testing.T) {
	var p flop.Pending[bool]
	test.ExpectSuccess(t, p.IsReady())

	p.Expect(true)
	test.ExpectFailure(t, p.IsReady())
	test.ExpectSuccess(t, p.Or(true))

	p.Supply(false)
	test.ExpectSuccess(t, p.IsReady())
	test.ExpectFailure(t, p.Or(true))

	p.Expect(false)
	_, ok := p.Get()
	test.ExpectFailure(t, ok)
}

func TestPendingSupplyWhileNotWaiting(t *testing.T) {
	if !checked.Enabled {
		t.Skip("assertions are disabled")
	}

	var p flop.Pending[int]
	r := test.ExpectPanic(t, func() { p.Supply(1) })
	err, ok := r.(error)
	test.DemandSuccess(t, ok)
	test.ExpectSuccess(t, curated.Is(err, checked.Violation))

	p.Expect(true)
	p.Supply(2)
	r = test.ExpectPanic(t, func() { p.Supply(3) })
	err, ok = r.(error)
	test.DemandSuccess(t, ok)
	test.ExpectSuccess(t, curated.Is(err, checked.Violation))

	// a new cycle clears the supplied value
	p.Expect(true)
	p.Supply(4)
	test.ExpectEquality(t, p.Or(0), 4)
}
