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

package logger_test

import (
	"testing"

	"github.com/jetsetilly/ahbfabric/logger"
	"github.com/jetsetilly/ahbfabric/test"
)

func TestLogger(t *testing.T) {
	logger.Clear()
	tw := &test.CompareWriter{}

	logger.Write(tw)
	test.ExpectEquality(t, tw.String(), "")

	logger.Log(logger.Allow, "test", "this is a test")
	logger.Write(tw)
	test.ExpectEquality(t, tw.String(), "test: this is a test\n")

	// clear the test.Writer buffer before continuing, makes comparisons easier
	// to manage
	tw.Clear()

	logger.Log(logger.Allow, "test2", "this is another test")
	logger.Write(tw)
	test.ExpectEquality(t, tw.String(), "test: this is a test\ntest2: this is another test\n")

	// asking for too many entries in a Tail() should be okay
	tw.Clear()
	logger.Tail(tw, 100)
	test.ExpectEquality(t, tw.String(), "test: this is a test\ntest2: this is another test\n")

	// asking for exactly the correct number of entries is okay
	tw.Clear()
	logger.Tail(tw, 2)
	test.ExpectEquality(t, tw.String(), "test: this is a test\ntest2: this is another test\n")

	// asking for fewer entries is okay too
	tw.Clear()
	logger.Tail(tw, 1)
	test.ExpectEquality(t, tw.String(), "test2: this is another test\n")

	// and no entries
	tw.Clear()
	logger.Tail(tw, 0)
	test.ExpectEquality(t, tw.String(), "")
}

func TestRepeatedAndDenied(t *testing.T) {
	logger.Clear()
	tw := &test.CompareWriter{}

	logger.Logf(logger.Allow, "bus", "cycle %d", 1)
	logger.Logf(logger.Allow, "bus", "cycle %d", 1)
	logger.Log(logger.Deny, "bus", "never seen")
	logger.Write(tw)
	test.ExpectEquality(t, tw.String(), "bus: cycle 1 (repeat x2)\n")
}

func TestEcho(t *testing.T) {
	logger.Clear()
	tw := &test.CompareWriter{}
	logger.SetEcho(tw)
	defer logger.SetEcho(nil)

	logger.Log(logger.Allow, "echo", "hello")
	test.ExpectEquality(t, tw.String(), "echo: hello\n")

	// a writer that isn't a terminal is not colourised
	tw.Clear()
	c := logger.NewColorizer(tw)
	_, err := c.Write([]byte("a: b\n"))
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, tw.String(), "a: b\n")
}
