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


// Package soc assembles a Cortex-M3 class system around the bus fabric.
//
// The masters are the instruction and data sides of the processor (ICode and
// DCode), a DMA controller and the master side of the bit-band adapter. The
// slaves are the flash (behind a line buffer), the SRAM, the peripherals
// (behind a write buffer) and the bit-band alias regions. Every master can
// reach every slave through the crossbar.
//
// The masters are plain masterdriver.Master instances. Transfers are queued
// on them by the caller, for example by a script.
package soc

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/govern"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/interconnect"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/linebuffer"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/masterdriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/slavedriver"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/writebuffer"
	"github.com/jetsetilly/ahbfabric/hardware/soc/bitband"
	"github.com/jetsetilly/ahbfabric/hardware/soc/memory"
	"github.com/jetsetilly/ahbfabric/logger"
)

// Names of the masters and slaves.
const (
	ICodeName   = "icode"
	DCodeName   = "dcode"
	DMAName     = "dma"
	FlashName   = "flash"
	SRAMName    = "sram"
	PeriphName  = "periph"
	BitbandName = "bitband"
)

// the order of the names is the order of the tags
var (
	masterNames = []string{ICodeName, DCodeName, DMAName, BitbandName}
	slaveNames  = []string{FlashName, SRAMName, PeriphName, BitbandName}
)

// The memory map.
const (
	FlashOrigin  uint32 = 0x00000000
	FlashSize           = 0x00040000
	SRAMOrigin          = bitband.SRAMRegion
	SRAMSize            = 0x00010000
	PeriphOrigin        = bitband.PeriphRegion
	PeriphSize          = 0x00010000
)

// Sentinel patterns for errors returned by this package.
const (
	BadConfig     = "soc: %v"
	UnknownMaster = "soc: unknown master (%s)"
	Unmapped      = "soc: no memory at %#08x"
	Timeout       = "soc: not idle after %d cycles"
)

// SoC is the system on chip.
type SoC struct {
	Prefs  *Preferences
	Fabric *interconnect.Wrapper

	ICode *masterdriver.Master
	DCode *masterdriver.Master
	DMA   *masterdriver.Master

	Flash  *memory.Memory
	SRAM   *memory.Memory
	Periph *memory.Memory

	LineBuffer  *linebuffer.LineBuffer
	WriteBuffer *writebuffer.WriteBuffer
	Bitband     *bitband.Bitband

	// in the order of their tags
	masters []*masterdriver.Master
	slaves  []*slavedriver.SyncSlave

	cfg interconnect.Config

	cycle uint64
}

// NewSoC is the preferred method of initialisation for the SoC type.
func NewSoC(p *Preferences) (*SoC, error) {
	s := &SoC{
		Prefs:   p,
		ICode:   masterdriver.NewMaster(ICodeName, signals.InstructionProtection()),
		DCode:   masterdriver.NewMaster(DCodeName, signals.DataProtection()),
		DMA:     masterdriver.NewMaster(DMAName, signals.DataProtection()),
		Flash:   memory.NewROM(FlashName, FlashOrigin, FlashSize),
		SRAM:    memory.NewRAM(SRAMName, SRAMOrigin, SRAMSize),
		Periph:  memory.NewRAM(PeriphName, PeriphOrigin, PeriphSize),
		Bitband: bitband.NewBitband(BitbandName),
	}

	s.Flash.SetWaitstates(p.FlashWaitstates.Get().(int), 0)
	s.SRAM.SetWaitstates(p.SRAMWaitstates.Get().(int), p.SRAMWaitstates.Get().(int))
	s.Periph.SetWaitstates(p.PeriphWaitstates.Get().(int), p.PeriphWaitstates.Get().(int))

	regions := map[string][]interconnect.Region{
		FlashName:  {{Start: FlashOrigin, End: FlashOrigin + FlashSize - 1}},
		SRAMName:   {{Start: SRAMOrigin, End: SRAMOrigin + SRAMSize - 1}},
		PeriphName: {{Start: PeriphOrigin, End: PeriphOrigin + PeriphSize - 1}},
	}
	for _, r := range bitband.AliasRegions() {
		regions[BitbandName] = append(regions[BitbandName], interconnect.Region{Start: r[0], End: r[1]})
	}

	cfg := interconnect.Config{Masters: masterNames}
	for _, n := range slaveNames {
		cfg.Slaves = append(cfg.Slaves, interconnect.SlaveConfig{
			Name:    n,
			Regions: regions[n],
			Arbiter: *p.Arbiters[n],
		})
	}

	s.cfg = cfg

	ic, err := interconnect.New(cfg)
	if err != nil {
		return nil, curated.Errorf(BadConfig, err)
	}
	s.Fabric = interconnect.NewWrapper(ic)
	s.Fabric.SetActive(p.Wrapper.Get().(bool))

	// masters
	s.masters = []*masterdriver.Master{s.ICode, s.DCode, s.DMA, s.Bitband.Master()}
	for i, m := range s.masters {
		tag := ports.Tag(i)
		m.AttachDownstream(ports.BindSlave(s.Fabric, tag))
		s.Fabric.AttachMaster(tag, m)
	}

	// flash behind the line buffer
	lineSize, err := databus.ParseSize(p.LineBufferSize.Get().(int))
	if err != nil {
		return nil, curated.Errorf(BadConfig, err)
	}
	lbCfg := linebuffer.DefaultConfig(lineSize)
	lbCfg.EnabledByDefault = p.LineBuffer.Get().(bool)
	s.LineBuffer, err = linebuffer.NewLineBuffer("linebuffer", lbCfg)
	if err != nil {
		return nil, curated.Errorf(BadConfig, err)
	}

	flash := slavedriver.NewSyncSlave(FlashName, s.Flash, slavedriver.Combinatorial)
	tag, _ := ic.SlaveTag(FlashName)
	s.Fabric.AttachSlave(tag, s.LineBuffer)
	s.LineBuffer.AttachUpstream(ports.BindMaster(s.Fabric, tag))
	s.LineBuffer.AttachDownstream(flash)
	flash.AttachUpstream(s.LineBuffer)

	sram := slavedriver.NewSyncSlave(SRAMName, s.SRAM, slavedriver.Combinatorial)
	tag, _ = ic.SlaveTag(SRAMName)
	s.Fabric.AttachSlave(tag, sram)
	sram.AttachUpstream(ports.BindMaster(s.Fabric, tag))

	// peripherals behind the write buffer
	s.WriteBuffer = writebuffer.NewWriteBuffer("writebuffer", writebuffer.Config{
		FastBufferToLoad: p.FastWriteBuffer.Get().(bool),
	})
	periph := slavedriver.NewSyncSlave(PeriphName, s.Periph, slavedriver.Combinatorial)
	tag, _ = ic.SlaveTag(PeriphName)
	s.Fabric.AttachSlave(tag, s.WriteBuffer)
	s.WriteBuffer.AttachUpstream(ports.BindMaster(s.Fabric, tag))
	s.WriteBuffer.AttachDownstream(periph)
	periph.AttachUpstream(s.WriteBuffer)

	alias := slavedriver.NewSyncSlave(BitbandName, s.Bitband, slavedriver.Combinatorial)
	tag, _ = ic.SlaveTag(BitbandName)
	s.Fabric.AttachSlave(tag, alias)
	alias.AttachUpstream(ports.BindMaster(s.Fabric, tag))

	s.slaves = []*slavedriver.SyncSlave{flash, sram, periph, alias}

	return s, nil
}

func (s *SoC) String() string {
	return fmt.Sprintf("soc: cycle %d", s.cycle)
}

// Cycle returns the number of cycles stepped so far.
func (s *SoC) Cycle() uint64 {
	return s.cycle
}

// Master returns the named master. The master side of the bit-band adapter
// is not available.
func (s *SoC) Master(name string) (*masterdriver.Master, error) {
	switch strings.ToLower(name) {
	case ICodeName:
		return s.ICode, nil
	case DCodeName:
		return s.DCode, nil
	case DMAName:
		return s.DMA, nil
	}
	return nil, curated.Errorf(UnknownMaster, name)
}

// MasterNames returns the names of the masters that can be returned by
// Master().
func (s *SoC) MasterNames() []string {
	return []string{ICodeName, DCodeName, DMAName}
}

// Memory returns the memory that contains addr.
func (s *SoC) Memory(addr uint32) (*memory.Memory, error) {
	for _, m := range []*memory.Memory{s.Flash, s.SRAM, s.Periph} {
		if addr >= m.Origin() && addr-m.Origin() < uint32(m.Size()) {
			return m, nil
		}
	}
	return nil, curated.Errorf(Unmapped, addr)
}

// Step the SoC by one cycle.
//
// The ordering of the Tock phase matters. Replies are sent by the slaves
// before the masters issue new transfers. The write buffer replays a buffered
// write during its Tock, after the crossbar has sent it the address phase for
// the cycle.
func (s *SoC) Step() {
	s.cycle++

	for _, sl := range s.slaves {
		sl.Tick()
	}
	s.LineBuffer.Tick()
	s.WriteBuffer.Tick()
	s.Fabric.Tick()
	for _, m := range s.masters {
		m.Tick()
	}

	for _, sl := range s.slaves {
		sl.Tock()
	}
	s.LineBuffer.Tock()
	s.Fabric.Tock()
	for _, m := range s.masters {
		m.Tock()
	}
	s.WriteBuffer.Tock()

	// the write backs of the bit-band adapter are posted. a failed write back
	// is not seen by the master that wrote the alias word
	for _, t := range s.Bitband.Master().Completed() {
		if t.Meta.IsWriting() && t.Response != signals.Success {
			logger.Logf(logger.Allow, BitbandName, "write back failed: %v", t)
			continue
		}
		logger.Logf(trace.Bus, BitbandName, "completed %v", t)
	}
}

// IsIdle returns true if no master has a transfer outstanding and the write
// buffer has no buffered write.
func (s *SoC) IsIdle() bool {
	for _, m := range s.masters {
		if !m.IsIdle() {
			return false
		}
	}
	return s.WriteBuffer.State() == writebuffer.Transparent
}

// Run steps the SoC until the continueCheck function returns govern.Ending
// or an error. A nil function runs the SoC until it is idle.
func (s *SoC) Run(continueCheck func() (govern.State, error)) error {
	if continueCheck == nil {
		continueCheck = func() (govern.State, error) {
			if s.IsIdle() {
				return govern.Ending, nil
			}
			return govern.Running, nil
		}
	}

	state := govern.Running
	for state != govern.Ending {
		if state == govern.Running {
			s.Step()
		}

		var err error
		state, err = continueCheck()
		if err != nil {
			return err
		}
	}

	return nil
}

// RunUntilIdle steps the SoC until it is idle. At least one cycle is always
// stepped. Returns the number of cycles stepped.
func (s *SoC) RunUntilIdle(limit int) (int, error) {
	n := 0
	err := s.Run(func() (govern.State, error) {
		n++
		if s.IsIdle() {
			return govern.Ending, nil
		}
		if n >= limit {
			return govern.Ending, curated.Errorf(Timeout, n)
		}
		return govern.Running, nil
	})
	return n, err
}

// Describe returns a summary of the state of every component.
func (s *SoC) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v\n", s)
	for _, m := range s.masters {
		b.WriteString(m.Describe())
		b.WriteString("\n")
	}
	b.WriteString(s.Fabric.Describe())
	b.WriteString("\n")
	b.WriteString(s.LineBuffer.Describe())
	b.WriteString("\n")
	b.WriteString(s.WriteBuffer.Describe())
	b.WriteString("\n")
	for _, sl := range s.slaves {
		b.WriteString(sl.Describe())
		b.WriteString("\n")
	}
	return b.String()
}
