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

package interconnect

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/arbiter"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/test"
)

func newWrapper(t *testing.T) *Wrapper {
	t.Helper()
	ic, err := New(Config{
		Masters: []string{"cpu"},
		Slaves: []SlaveConfig{
			{Name: "sram", Regions: []Region{{Start: 0x20000000, End: 0x2000ffff}}, Arbiter: arbiter.Sole},
		},
	})
	test.DemandSuccess(t, err)
	return NewWrapper(ic)
}

func TestFirstCycleExpectations(t *testing.T) {
	w := newWrapper(t)
	test.ExpectFailure(t, w.inputExpect.IsSet())

	w.Tick()
	test.ExpectSuccess(t, w.inputExpect.IsSet())
	test.ExpectSuccess(t, w.outputExpect.IsSet())
	in, _ := w.inputExpect.Get()
	test.DemandEquality(t, len(in), 1)
	test.ExpectFailure(t, in[0])
	test.ExpectFailure(t, w.needsBuffering(0))
}

func TestFirstCycleIsChecked(t *testing.T) {
	if !checked.Enabled {
		t.Skip("assertions not compiled in")
	}

	w := newWrapper(t)
	w.Tick()
	w.Tock()

	// a request left in the buffer at the end of the first cycle
	w.inputBufferSet[0] = true

	r := test.ExpectPanic(t, w.Tick)
	err, ok := r.(error)
	test.DemandSuccess(t, ok)
	test.ExpectSuccess(t, curated.Is(err, checked.Violation))
}
