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
	"strings"

	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
)

// Kind is the transfer type of an address phase (the HTRANS wires) with the
// addition of NoSel, which models a low HSELx.
type Kind uint8

// List of valid Kind values.
const (
	Idle Kind = iota
	Busy
	NonSeq
	Seq

	// the address phase wires are not valid for the receiving slave. used
	// when only the data phase needs to be sent or when the ready flag needs
	// to be passed on
	NoSel
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "Idle"
	case Busy:
		return "Busy"
	case NonSeq:
		return "NonSeq"
	case Seq:
		return "Seq"
	case NoSel:
		return "NoSel"
	}
	return "unknown"
}

// Direction of a transfer (the HWRITE wire).
type Direction uint8

// List of valid Direction values.
const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "W"
	}
	return "R"
}

// Burst mode of a transfer (the HBURST wires). Only single transfers are
// supported by the fabric.
type Burst uint8

// List of valid Burst values.
const (
	Single Burst = iota
	Incr
)

// Protection is the set of HPROT wires.
type Protection struct {
	Data       bool
	Privileged bool
	Bufferable bool
	Cacheable  bool
}

// DataProtection is a privileged, bufferable and cacheable data transfer. This
// is the default protection of a transfer.
func DataProtection() Protection {
	return Protection{Data: true, Privileged: true, Bufferable: true, Cacheable: true}
}

// InstructionProtection is a privileged, bufferable and cacheable opcode fetch.
func InstructionProtection() Protection {
	return Protection{Data: false, Privileged: true, Bufferable: true, Cacheable: true}
}

func (p Protection) String() string {
	b := []byte("ipbc")
	if p.Data {
		b[0] = 'D'
	}
	if p.Privileged {
		b[1] = 'P'
	}
	if p.Bufferable {
		b[2] = 'B'
	}
	if p.Cacheable {
		b[3] = 'C'
	}
	return string(b)
}

// TransferMeta is the collection of address phase wires that are valid only
// for NonSeq and Seq transfers.
type TransferMeta struct {
	Addr  uint32
	Size  databus.Size
	Burst Burst
	Dir   Direction
	Prot  Protection
}

// IsWriting returns true for write transfers.
func (m TransferMeta) IsWriting() bool {
	return m.Dir == Write
}

// IsReading returns true for read transfers.
func (m TransferMeta) IsReading() bool {
	return m.Dir == Read
}

// IsAligned returns true if the address is aligned to the transfer size.
func (m TransferMeta) IsAligned() bool {
	return m.Size.IsAligned(m.Addr)
}

func (m TransferMeta) String() string {
	return fmt.Sprintf("%s %08x %v %v", m.Dir, m.Addr, m.Size, m.Prot)
}

// AddrPhase is the bundle of address phase wires sent from a master towards a
// slave.
type AddrPhase struct {
	Kind Kind

	// only meaningful if Kind is NonSeq or Seq. use the Meta() function to
	// access the wires safely
	Meta TransferMeta

	// the HMASTLOCK wire
	Lock bool

	// the HREADY wire as seen by the slave: whether the previous transfer
	// (the current data phase) can be considered complete
	Ready bool

	// human readable origin of the transfer for diagnostics
	Tag string
}

// Empty returns an Idle address phase that is ready.
func Empty(tag string) AddrPhase {
	return AddrPhase{Kind: Idle, Ready: true, Tag: tag}
}

// NotSelected returns a NoSel address phase that is ready.
func NotSelected(tag string) AddrPhase {
	return AddrPhase{Kind: NoSel, Ready: true, Tag: tag}
}

// NewSingle returns a ready NonSeq single transfer.
func NewSingle(addr uint32, size databus.Size, dir Direction, prot Protection, tag string) AddrPhase {
	return AddrPhase{
		Kind: NonSeq,
		Meta: TransferMeta{
			Addr:  addr,
			Size:  size,
			Burst: Single,
			Dir:   dir,
			Prot:  prot,
		},
		Ready: true,
		Tag:   tag,
	}
}

// WithReady returns a copy of the address phase with the Ready flag set.
func (a AddrPhase) WithReady(ready bool) AddrPhase {
	a.Ready = ready
	return a
}

// AsIdle returns a copy of the address phase with the transfer type changed to
// Idle. All other wires are unchanged.
func (a AddrPhase) AsIdle() AddrPhase {
	a.Kind = Idle
	a.Meta = TransferMeta{}
	return a
}

// AsNotSelected is like AsIdle except the transfer type is changed to NoSel.
func (a AddrPhase) AsNotSelected() AddrPhase {
	a.Kind = NoSel
	a.Meta = TransferMeta{}
	return a
}

// GetMeta returns the transfer wires and true if they are valid.
func (a AddrPhase) GetMeta() (TransferMeta, bool) {
	if a.IsAddressValid() {
		return a.Meta, true
	}
	return TransferMeta{}, false
}

// IsAddressValid returns false for Idle, Busy and NoSel.
func (a AddrPhase) IsAddressValid() bool {
	return a.Kind == NonSeq || a.Kind == Seq
}

// IsIdle returns true if the slave should consider the transfer to be idle.
// NoSel is implicitly idle.
func (a AddrPhase) IsIdle() bool {
	return a.Kind == Idle || a.Kind == NoSel
}

// IsSelected interprets the transfer type as the HSELx wire.
func (a AddrPhase) IsSelected() bool {
	return a.Kind != NoSel
}

// AdvancesToValid returns true if, barring a slave response, the transfer
// would advance to a data phase with a valid address.
func (a AddrPhase) AdvancesToValid() bool {
	return a.Ready && a.IsAddressValid()
}

// Address returns the address of the transfer if it is valid.
func (a AddrPhase) Address() (uint32, bool) {
	return a.Meta.Addr, a.IsAddressValid()
}

// IsWriting returns true for a valid write transfer.
func (a AddrPhase) IsWriting() bool {
	return a.IsAddressValid() && a.Meta.IsWriting()
}

// IsCacheable returns true for a valid cacheable read.
func (a AddrPhase) IsCacheable() bool {
	return a.IsAddressValid() && a.Meta.IsReading() && a.Meta.Prot.Cacheable
}

// IsBufferable returns true for a valid bufferable write.
func (a AddrPhase) IsBufferable() bool {
	return a.IsAddressValid() && a.Meta.IsWriting() && a.Meta.Prot.Bufferable
}

// MakeReply creates a response to this address phase.
func (a AddrPhase) MakeReply(status Response, data databus.Value) SlaveToMaster {
	return SlaveToMaster{Status: status, Data: data, Sender: a.Tag}
}

func (a AddrPhase) String() string {
	var s strings.Builder
	s.WriteString(a.Kind.String())
	if a.IsAddressValid() {
		s.WriteString(" ")
		s.WriteString(a.Meta.String())
	}
	if a.Lock {
		s.WriteString(" LOCK")
	}
	if !a.Ready {
		s.WriteString(" !RDY")
	}
	if a.Tag != "" {
		s.WriteString(fmt.Sprintf(" <%s>", a.Tag))
	}
	return s.String()
}

// DataPhase is the data phase wires sent from a master towards a slave (the
// HWDATA wires).
type DataPhase struct {
	Data databus.Value
}

// MasterToSlave is the message sent downstream each cycle. It combines the
// address phase of a transfer with the data phase of the previous transfer.
type MasterToSlave struct {
	Addr AddrPhase
	Data DataPhase
}

// IsInert returns true if the message is idle with no data.
func (m MasterToSlave) IsInert() bool {
	return m.Addr.IsIdle() && !m.Data.Data.IsPresent()
}

func (m MasterToSlave) String() string {
	return fmt.Sprintf("[%v] data=%v", m.Addr, m.Data.Data)
}
