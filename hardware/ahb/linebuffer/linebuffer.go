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


// Package linebuffer implements a one line read cache in front of a slave.
//
// Cacheable reads are upsized to a read of the whole line. The line is kept
// and further reads that hit it are answered by the line buffer without a
// downstream transfer. Reads that are not cacheable pass through untouched.
// Writing through a line buffer is not supported.
package linebuffer

import (
	"fmt"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/checked"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/flop"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/statetrack"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Mode of the line buffer for the transfer in its data phase.
type Mode int

// List of valid Mode values.
const (
	Idle Mode = iota
	Transparent
	Fetching
	Local
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Transparent:
		return "transparent"
	case Fetching:
		return "fetching"
	case Local:
		return "local"
	}
	return "unknown"
}

// Extractor returns the part of the line requested by a transfer. The line is
// the data of an aligned read of the full line size.
type Extractor func(meta signals.TransferMeta, line databus.Value) databus.Value

// ExtractAligned is the default Extractor.
func ExtractAligned(meta signals.TransferMeta, line databus.Value) databus.Value {
	return line.ExtractFromAligned(meta.Addr, meta.Size)
}

// Config for the line buffer.
type Config struct {
	// the size of the downstream transfer
	LineSize databus.Size

	EnabledByDefault bool

	// clear the cacheable bit of the downstream transfer, so that another
	// line buffer further down does not cache the same line
	MasksCacheable bool

	Extract Extractor
}

// DefaultConfig returns a configuration for a line of the given size.
func DefaultConfig(lineSize databus.Size) Config {
	return Config{
		LineSize:         lineSize,
		EnabledByDefault: true,
		MasksCacheable:   true,
		Extract:          ExtractAligned,
	}
}

// BadLineSize is the pattern for errors returned by NewLineBuffer(). A line
// is a Halfword, a Word or a Doubleword.
const BadLineSize = "linebuffer: unsupported line size (%v)"

// LineBuffer is a single input, single output line buffer.
type LineBuffer struct {
	name string
	cfg  Config

	upstreamTrack   statetrack.Track
	downstreamTrack statetrack.Track

	lineData  flop.Register[databus.Value]
	lineAddr  flop.Register[uint32]
	lineValid flop.Register[bool]

	mode flop.Flop[Mode]

	// the mode for the data phase is Local
	handlesReply bool

	enabled     bool
	enabledNext bool

	// a change to enabled is waiting for the transfers to quiesce
	changing bool

	upstream   ports.Master
	downstream ports.Slave
}

// NewLineBuffer is the preferred method of initialisation for the LineBuffer
// type.
func NewLineBuffer(name string, cfg Config) (*LineBuffer, error) {
	switch cfg.LineSize {
	case databus.Halfword, databus.Word, databus.Doubleword:
	default:
		return nil, curated.Errorf(BadLineSize, cfg.LineSize)
	}
	if cfg.Extract == nil {
		cfg.Extract = ExtractAligned
	}
	return &LineBuffer{
		name:       name,
		cfg:        cfg,
		enabled:    cfg.EnabledByDefault,
		upstream:   ports.Null{},
		downstream: ports.Null{},
	}, nil
}

func (lb *LineBuffer) String() string {
	return lb.name
}

// AttachUpstream connects the component that receives replies.
func (lb *LineBuffer) AttachUpstream(m ports.Master) {
	lb.upstream = m
}

// AttachDownstream connects the slave.
func (lb *LineBuffer) AttachDownstream(s ports.Slave) {
	lb.downstream = s
}

// Mode returns the mode of the data phase in progress.
func (lb *LineBuffer) Mode() Mode {
	return lb.mode.Or(Idle)
}

// CachedLine returns the address of the cached line. The boolean is false if
// nothing is cached.
func (lb *LineBuffer) CachedLine() (uint32, bool) {
	return lb.lineAddr.Get(), lb.lineValid.Get()
}

// CacheEnabled returns the current state and the requested state of the
// cache.
func (lb *LineBuffer) CacheEnabled() (bool, bool) {
	if lb.changing {
		return lb.enabled, lb.enabledNext
	}
	return lb.enabled, lb.enabled
}

// SetCacheEnabled asks for the cache to be enabled or disabled. The change
// happens once no transfer is being served from the line.
func (lb *LineBuffer) SetCacheEnabled(enabled bool) {
	if lb.enabled != enabled || (lb.changing && lb.enabledNext != enabled) {
		lb.enabledNext = enabled
		lb.changing = true
	}
}

// the state of the cache that applies to new transfers
func (lb *LineBuffer) wantsEnabled() bool {
	if lb.changing {
		return lb.enabledNext
	}
	return lb.enabled
}

func (lb *LineBuffer) clear() {
	lb.lineData = flop.Register[databus.Value]{}
	lb.lineAddr = flop.Register[uint32]{}
	lb.lineValid = flop.Register[bool]{}
}

// Tick implements the ports.Component interface.
func (lb *LineBuffer) Tick() {
	lb.lineData.Tick()
	lb.lineAddr.Tick()
	lb.lineValid.Tick()
	lb.mode.Tick()

	up := lb.upstreamTrack.Update()
	lb.downstreamTrack.Update()
	lb.handlesReply = lb.mode.Or(Idle) == Local

	if lb.changing && up.Advanced && !lb.handlesReply && lb.mode.Or(Fetching) == Fetching {
		lb.enabled = lb.enabledNext
		lb.changing = false
		if !lb.enabled {
			lb.clear()
		}
		logger.Logf(trace.Bus, lb.name, "cache enabled: %v", lb.enabled)
	}

	logger.Logf(trace.Bus, lb.name, "%v line %08x up %v down %v", lb.Mode(), lb.lineAddr.Get(), &lb.upstreamTrack, &lb.downstreamTrack)
}

// Tock implements the ports.Component interface. A hit on the line is
// answered during the Tock.
func (lb *LineBuffer) Tock() {
	if !lb.handlesReply {
		return
	}
	addr, ok := lb.upstreamTrack.DataAddress()
	if !ok {
		return
	}
	checked.Assert(lb.lineValid.Get() && lb.cfg.LineSize.Align(addr.Meta.Addr) == lb.lineAddr.Get(),
		"%s: local reply for %v but line is %08x (valid %v)", lb.name, addr, lb.lineAddr.Get(), lb.lineValid.Get())

	msg := addr.MakeReply(signals.Success, lb.cfg.Extract(addr.Meta, lb.lineData.Get()))
	lb.upstreamTrack.SetLastReply(msg.Status)
	lb.upstream.Reply(msg)
}

// Request implements the ports.Slave interface.
func (lb *LineBuffer) Request(msg signals.MasterToSlave) {
	lb.upstreamTrack.SetLastAddr(msg.Addr)

	addr := msg.Addr
	switch {
	case !addr.IsAddressValid() || !lb.wantsEnabled():
	case !addr.Ready:
		// HREADY is reflected by an idle downstream
		addr = addr.AsIdle()
	case addr.IsWriting():
		checked.Unimplemented("%s: writing through a line buffer: %v", lb.name, addr)
	case !addr.IsCacheable():
		lb.mode.SetNextIfNotLatching(Transparent)
	default:
		line := lb.cfg.LineSize.Align(addr.Meta.Addr)

		resident, valid := lb.lineAddr.Get(), lb.lineValid.Get()
		if lb.mode.Or(Idle) == Fetching {
			fetch, ok := lb.downstreamTrack.DataAddress()
			checked.Assert(ok, "%s: fetching without a downstream transfer", lb.name)
			resident, valid = fetch.Meta.Addr, ok
		}

		if valid && line == resident {
			lb.mode.SetNextIfNotLatching(Local)
			if _, ok := lb.downstreamTrack.DataAddress(); !ok {
				return
			}
			addr = addr.AsIdle()
		} else {
			logger.Logf(trace.Bus, lb.name, "fetching line %08x", line)
			prot := addr.Meta.Prot
			if lb.cfg.MasksCacheable {
				prot.Cacheable = false
			}
			addr = signals.AddrPhase{
				Kind: signals.NonSeq,
				Meta: signals.TransferMeta{
					Addr:  line,
					Size:  lb.cfg.LineSize,
					Burst: signals.Single,
					Dir:   signals.Read,
					Prot:  prot,
				},
				Lock:  addr.Lock,
				Ready: addr.Ready,
				Tag:   addr.Tag,
			}
			lb.mode.SetNextIfNotLatching(Fetching)
		}
	}

	lb.downstreamTrack.SetLastAddr(addr)
	lb.downstream.Request(signals.MasterToSlave{Addr: addr, Data: msg.Data})
}

// Reply implements the ports.Master interface.
func (lb *LineBuffer) Reply(msg signals.SlaveToMaster) {
	lb.downstreamTrack.SetLastReply(msg.Status)

	if lb.mode.Or(Idle) == Fetching {
		if msg.Status.IsDone() {
			req, ok := lb.upstreamTrack.DataAddress()
			if !ok {
				checked.Failf("%s: line fetched without a transfer to serve", lb.name)
			}
			if lb.enabled {
				lb.lineData.SetNext(msg.Data)
				lb.lineAddr.SetNext(lb.cfg.LineSize.Align(req.Meta.Addr))
				lb.lineValid.SetNext(true)
			}
			msg.Data = lb.cfg.Extract(req.Meta, msg.Data)
		} else if msg.Status.IsWaitstate() {
			lb.mode.KeepCurrentAsNext()
		}
	}

	if lb.handlesReply {
		return
	}
	lb.upstreamTrack.SetLastReply(msg.Status)
	lb.upstream.Reply(msg)
}

// Describe returns a summary of the line buffer state.
func (lb *LineBuffer) Describe() string {
	s := fmt.Sprintf("%s: %v", lb.name, lb.Mode())
	if lb.changing {
		return fmt.Sprintf("%s (enabled %v -> %v)", s, lb.enabled, lb.enabledNext)
	}
	if !lb.enabled {
		return fmt.Sprintf("%s (disabled)", s)
	}
	if a, ok := lb.CachedLine(); ok {
		return fmt.Sprintf("%s line %08x=%v", s, a, lb.lineData.Get())
	}
	return s
}
