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


package performance

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/govern"
	"github.com/jetsetilly/ahbfabric/hardware/soc"
)

// Failed is the pattern for errors returned by Check().
const Failed = "performance: %v"

// sentinel error returned by the Run() loop
var timedOut = errors.New("performance timed out")

// the rate is only measured after the lead time has passed
const leadTime = 2 * time.Second

// checking the timer channel every cycle is relatively expensive
const brakeCycles = 1000

// Check the performance of the SoC. The SoC will run for the specified
// duration and will create a cpu profile, a memory profile, a trace (or a
// combination of those) as defined by the Profile argument.
func Check(output io.Writer, profile Profile, s *soc.SoC, duration string) error {
	dur, err := time.ParseDuration(duration)
	if err != nil {
		return curated.Errorf(Failed, err)
	}

	wl := NewWorkload(s)
	startCycle := s.Cycle()

	runner := func() error {
		// false on the channel when the lead time has elapsed. true when the
		// measurement period has finished
		timerChan := make(chan bool)

		lead := min(leadTime, dur)
		go func() {
			time.AfterFunc(lead, func() {
				timerChan <- false
				time.AfterFunc(dur, func() {
					timerChan <- true
				})
			})
		}()

		brake := 0

		return s.Run(func() (govern.State, error) {
			if err := wl.Refill(); err != nil {
				return govern.Ending, err
			}

			brake++
			if brake < brakeCycles {
				return govern.Running, nil
			}
			brake = 0

			select {
			case v := <-timerChan:
				if v {
					return govern.Ending, timedOut
				}
				startCycle = s.Cycle()
				wl.Reset()
			default:
			}
			return govern.Running, nil
		})
	}

	err = RunProfiler(profile, "performance", runner)
	if err != nil && !errors.Is(err, timedOut) {
		return curated.Errorf(Failed, err)
	}

	cycles := s.Cycle() - startCycle
	fmt.Fprintf(output, "%.2f cycles/sec (%d cycles in %.2f seconds) %d transfers\n",
		CalcRate(cycles, dur.Seconds()), cycles, dur.Seconds(), wl.Transfers())

	return nil
}

// CalcRate takes the number of cycles and the duration (in seconds) and
// returns the cycles-per-second.
func CalcRate(cycles uint64, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return float64(cycles) / duration
}
