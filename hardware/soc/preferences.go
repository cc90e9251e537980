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


package soc

import (
	"github.com/jetsetilly/ahbfabric/hardware/ahb/arbiter"
	"github.com/jetsetilly/ahbfabric/paths"
	"github.com/jetsetilly/ahbfabric/prefs"
)

// Preferences defines and collates the configuration of the SoC.
type Preferences struct {
	dsk *prefs.Disk

	// wait-states of the memories
	FlashWaitstates  prefs.Int
	SRAMWaitstates   prefs.Int
	PeriphWaitstates prefs.Int

	// the line buffer in front of the flash
	LineBuffer     prefs.Bool
	LineBufferSize prefs.Int

	// the write buffer in front of the peripherals. a slow write buffer
	// injects an idle cycle before a load that follows a buffered write
	FastWriteBuffer prefs.Bool

	// message ordering at the edges of the crossbar. the SoC steps components
	// in an order that doesn't need it so it is only useful as a check
	Wrapper prefs.Bool

	// arbitration policy of each slave
	Arbiters map[string]*arbiter.Kind
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the preferences file at pth. An
// empty path means the default preferences file.
func NewPreferences(pth string) (*Preferences, error) {
	p := &Preferences{
		Arbiters: make(map[string]*arbiter.Kind),
	}
	for _, n := range slaveNames {
		p.Arbiters[n] = new(arbiter.Kind)
	}
	p.SetDefaults()

	var err error
	if pth == "" {
		pth, err = paths.ResourcePath("", prefs.DefaultPrefsFile)
		if err != nil {
			return nil, err
		}
	}

	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}

	entries := []struct {
		key string
		p   interface {
			Set(prefs.Value) error
			Get() prefs.Value
			Reset() error
			String() string
		}
	}{
		{"soc.flash.waitstates", &p.FlashWaitstates},
		{"soc.sram.waitstates", &p.SRAMWaitstates},
		{"soc.periph.waitstates", &p.PeriphWaitstates},
		{"soc.linebuffer", &p.LineBuffer},
		{"soc.linebuffer.size", &p.LineBufferSize},
		{"soc.writebuffer.fast", &p.FastWriteBuffer},
		{"soc.wrapper", &p.Wrapper},
	}
	for _, e := range entries {
		if err := p.dsk.Add(e.key, e.p); err != nil {
			return nil, err
		}
	}

	for _, n := range slaveNames {
		k := p.Arbiters[n]
		g := prefs.NewGeneric(func(s string) error {
			if s == "" {
				*k = defaultArbiter(n)
				return nil
			}
			v, err := arbiter.ParseKind(s)
			if err != nil {
				return err
			}
			*k = v
			return nil
		}, func() string {
			return k.String()
		})
		if err := p.dsk.Add("soc.arbiter."+n, g); err != nil {
			return nil, err
		}
	}

	if err := p.dsk.Load(); err != nil {
		return nil, err
	}

	return p, nil
}

func defaultArbiter(slave string) arbiter.Kind {
	// the instruction fetch has priority over the data side
	if slave == FlashName {
		return arbiter.Fixed
	}
	return arbiter.RoundRobin
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() {
	p.FlashWaitstates.Set(1)
	p.SRAMWaitstates.Set(0)
	p.PeriphWaitstates.Set(1)
	p.LineBuffer.Set(true)
	p.LineBufferSize.Set(8)
	p.FastWriteBuffer.Set(true)
	p.Wrapper.Set(true)
	for n, k := range p.Arbiters {
		*k = defaultArbiter(n)
	}
}

// Load preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save current preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}
