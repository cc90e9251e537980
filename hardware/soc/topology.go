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
	"io"

	"github.com/bradleyjkemp/memviz"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/arbiter"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/interconnect"
)

// Topology describes how the SoC is assembled.
type Topology struct {
	Masters []string
	Slaves  []TopologySlave
}

// TopologySlave is one slave port of the crossbar.
type TopologySlave struct {
	Name    string
	Regions []interconnect.Region
	Arbiter arbiter.Kind

	// the component between the crossbar and the slave. empty if the slave
	// is connected directly
	Buffer string

	// the memory behind the slave port. nil for the bit-band alias regions
	Memory *TopologyMemory
}

// TopologyMemory describes the storage behind a slave port.
type TopologyMemory struct {
	Origin          uint32
	Size            int
	ReadOnly        bool
	ReadWaitstates  int
	WriteWaitstates int
}

// Topology returns the description of the SoC.
func (s *SoC) Topology() Topology {
	t := Topology{
		Masters: append([]string(nil), s.cfg.Masters...),
	}

	for _, sc := range s.cfg.Slaves {
		ts := TopologySlave{
			Name:    sc.Name,
			Regions: append([]interconnect.Region(nil), sc.Regions...),
			Arbiter: sc.Arbiter,
		}

		switch sc.Name {
		case FlashName:
			ts.Buffer = s.LineBuffer.String()
		case PeriphName:
			ts.Buffer = s.WriteBuffer.String()
		}

		if m, err := s.Memory(sc.Regions[0].Start); err == nil {
			r, w := m.Waitstates()
			ts.Memory = &TopologyMemory{
				Origin:          m.Origin(),
				Size:            m.Size(),
				ReadOnly:        m.IsReadOnly(),
				ReadWaitstates:  r,
				WriteWaitstates: w,
			}
		}

		t.Slaves = append(t.Slaves, ts)
	}

	return t
}

// Dump writes the topology of the SoC as a graphviz graph.
func (s *SoC) Dump(w io.Writer) {
	t := s.Topology()
	memviz.Map(w, &t)
}
