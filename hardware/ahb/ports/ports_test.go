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

package ports_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/test"
)

type recorder struct {
	requests []ports.Tag
	replies  []ports.Tag
	grants   map[ports.Tag]bool
}

func (r *recorder) TaggedRequest(tag ports.Tag, _ signals.MasterToSlave) {
	r.requests = append(r.requests, tag)
}

func (r *recorder) TaggedReply(tag ports.Tag, _ signals.SlaveToMaster) {
	r.replies = append(r.replies, tag)
}

func (r *recorder) TaggedGrant(tag ports.Tag, granted bool) {
	r.grants[tag] = granted
}

func TestBind(t *testing.T) {
	r := &recorder{grants: make(map[ports.Tag]bool)}

	ports.BindSlave(r, 2).Request(signals.MasterToSlave{})
	ports.BindSlave(r, 0).Request(signals.MasterToSlave{})
	ports.BindMaster(r, 1).Reply(signals.EmptyReply())
	ports.BindGranted(r, 3).Grant(true)

	test.DemandEquality(t, len(r.requests), 2)
	test.ExpectEquality(t, r.requests[0], ports.Tag(2))
	test.ExpectEquality(t, r.requests[1], ports.Tag(0))
	test.ExpectEquality(t, r.replies[0], ports.Tag(1))
	test.ExpectSuccess(t, r.grants[3])

	test.ExpectFailure(t, ports.NoTag.IsSet())
	test.ExpectEquality(t, ports.Tag(4).String(), "#4")
}
