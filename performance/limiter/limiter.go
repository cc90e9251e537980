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


// Package limiter provides a rough and ready way of limiting events to a fixed
// rate.
//
// A new Limiter can be created with (error handling removed for clarity):
//
//	lim, _ := limiter.NewLimiter(1000)
//	defer lim.End()
//
// Operations can then be stalled with the Wait() function. For example:
//
//	for {
//		lim.Wait()
//		soc.Step()
//	}
package limiter

import (
	"sync/atomic"
	"time"

	"github.com/jetsetilly/ahbfabric/curated"
)

// BadRate is the pattern for errors returned by NewLimiter() and SetLimit().
const BadRate = "limiter: rate must be positive (%d)"

// Limiter will trigger a fixed number of times per second. Probably only any
// good if the base performance of the machine is well above the required
// rate.
type Limiter struct {
	period atomic.Int64

	tick chan bool
	quit chan bool
}

// NewLimiter is the preferred method of initialisation for the Limiter type.
func NewLimiter(perSecond int) (*Limiter, error) {
	lim := &Limiter{
		tick: make(chan bool),
		quit: make(chan bool),
	}
	if err := lim.SetLimit(perSecond); err != nil {
		return nil, err
	}

	go func() {
		t := time.Now()
		adjusted := time.Duration(lim.period.Load())
		for {
			select {
			case lim.tick <- true:
			case <-lim.quit:
				return
			}
			time.Sleep(adjusted)
			nt := time.Now()
			period := time.Duration(lim.period.Load())
			adjusted -= nt.Sub(t) - period
			adjusted = max(0, min(adjusted, period))
			t = nt
		}
	}()

	return lim, nil
}

// SetLimit changes the rate of the Limiter.
func (lim *Limiter) SetLimit(perSecond int) error {
	if perSecond <= 0 {
		return curated.Errorf(BadRate, perSecond)
	}
	lim.period.Store(int64(time.Second) / int64(perSecond))
	return nil
}

// Wait will block until the next trigger.
func (lim *Limiter) Wait() {
	<-lim.tick
}

// HasWaited will return true if the trigger has already happened and false if
// it is still yet to happen.
func (lim *Limiter) HasWaited() bool {
	select {
	case <-lim.tick:
		return true
	default:
		return false
	}
}

// End stops the Limiter. It must not be used afterwards.
func (lim *Limiter) End() {
	close(lim.quit)
}
