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


package limiter_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/performance/limiter"
	"github.com/jetsetilly/ahbfabric/test"
)

func TestLimiter(t *testing.T) {
	_, err := limiter.NewLimiter(0)
	test.ExpectSuccess(t, curated.Is(err, limiter.BadRate))

	lim, err := limiter.NewLimiter(1000)
	test.DemandSuccess(t, err)
	defer lim.End()

	for range 10 {
		lim.Wait()
	}

	// the trigger eventually happens without blocking
	deadline := time.Now().Add(time.Second)
	for !lim.HasWaited() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	test.ExpectSuccess(t, time.Now().Before(deadline))

	test.ExpectSuccess(t, curated.Is(lim.SetLimit(-1), limiter.BadRate))
	test.ExpectSuccess(t, lim.SetLimit(10000))
}
