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

// Package ports defines the interfaces through which neighbouring components
// of the fabric exchange messages.
//
// A component that receives requests from an upstream master implements
// Slave. A component that receives replies from a downstream slave implements
// Master. Components that receive the GRANT wire from an output stage
// implement Granted. Components keep references to their neighbours only
// through these interfaces.
//
// Components that have several inputs of the same kind (an output stage has
// one per master) identify them with a Tag. The Tagged* types bind a tag to
// such an input so that it can be handed to a neighbour as a plain port.
package ports

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
)

// Tag identifies a master or a slave in a crossbar.
type Tag int

// NoTag indicates that no master or slave is chosen.
const NoTag Tag = -1

// IsSet returns false for NoTag.
func (t Tag) IsSet() bool {
	return t != NoTag
}

func (t Tag) String() string {
	if t == NoTag {
		return "none"
	}
	return fmt.Sprintf("#%d", int(t))
}

// Slave is implemented by components that receive requests.
type Slave interface {
	Request(msg signals.MasterToSlave)
}

// Master is implemented by components that receive replies.
type Master interface {
	Reply(msg signals.SlaveToMaster)
}

// Granted is implemented by components that receive the GRANT wire. A value
// of false is a DENY.
type Granted interface {
	Grant(granted bool)
}

// Component is implemented by everything in the fabric that is clocked.
type Component interface {
	// Tick is the clock edge. Registered state is committed and per-cycle
	// state is reset. No messages are sent during Tick.
	Tick()

	// Tock is the second half of the cycle. Messages that are not a direct
	// response to another message are sent here.
	Tock()
}

// TaggedSlave is the interface for components with many tagged request inputs.
type TaggedSlave interface {
	TaggedRequest(tag Tag, msg signals.MasterToSlave)
}

// TaggedMaster is the interface for components with many tagged reply inputs.
type TaggedMaster interface {
	TaggedReply(tag Tag, msg signals.SlaveToMaster)
}

// TaggedGranted is the interface for components with many tagged GRANT inputs.
type TaggedGranted interface {
	TaggedGrant(tag Tag, granted bool)
}

// BindSlave returns a Slave that forwards requests to the tagged input.
func BindSlave(s TaggedSlave, tag Tag) Slave {
	return boundSlave{s: s, tag: tag}
}

type boundSlave struct {
	s   TaggedSlave
	tag Tag
}

func (b boundSlave) Request(msg signals.MasterToSlave) {
	b.s.TaggedRequest(b.tag, msg)
}

// BindMaster returns a Master that forwards replies to the tagged input.
func BindMaster(m TaggedMaster, tag Tag) Master {
	return boundMaster{m: m, tag: tag}
}

type boundMaster struct {
	m   TaggedMaster
	tag Tag
}

func (b boundMaster) Reply(msg signals.SlaveToMaster) {
	b.m.TaggedReply(b.tag, msg)
}

// BindGranted returns a Granted that forwards the GRANT wire to the tagged input.
func BindGranted(g TaggedGranted, tag Tag) Granted {
	return boundGranted{g: g, tag: tag}
}

type boundGranted struct {
	g   TaggedGranted
	tag Tag
}

func (b boundGranted) Grant(granted bool) {
	b.g.TaggedGrant(b.tag, granted)
}

// Null discards everything sent to it. It can be used for ports that are
// left unconnected.
type Null struct{}

func (Null) Request(_ signals.MasterToSlave) {}
func (Null) Reply(_ signals.SlaveToMaster)   {}
func (Null) Grant(_ bool)                    {}
