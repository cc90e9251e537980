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


// Package interconnect composes input stages, decoders and output stages into
// a crossbar that connects every master to every slave.
//
// The crossbar is described by a Config, which names the masters and the
// slaves, the address regions of each slave and the arbitration policy used
// in front of each slave. Masters and slaves are identified by the tags given
// to them in the order they appear in the Config.
//
// The crossbar on its own relies on the order in which messages arrive. The
// Wrapper type imposes that order.
package interconnect

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/arbiter"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/decoder"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/inputstage"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/outputstage"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/ports"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/signals"
)

// Sentinel patterns for errors returned by this package.
const (
	NoMasters      = "interconnect: no masters"
	DuplicateName  = "interconnect: duplicate name (%s)"
	UnknownMaster  = "interconnect: unknown master (%s)"
	UnknownSlave   = "interconnect: unknown slave (%s)"
	BadAddressMap  = "interconnect: %v"
	BadArbitration = "interconnect: slave %s: %v"
)

// Region is an inclusive span of addresses.
type Region struct {
	Start uint32
	End   uint32
}

// SlaveConfig describes one slave of the crossbar.
type SlaveConfig struct {
	Name    string
	Regions []Region
	Arbiter arbiter.Kind
}

// Config describes a crossbar.
type Config struct {
	Masters []string
	Slaves  []SlaveConfig
}

// Interconnect is the crossbar. It implements ports.TaggedSlave for the
// requests of the masters and ports.TaggedMaster for the replies of the
// slaves.
type Interconnect struct {
	cfg Config

	masterTags map[string]ports.Tag
	slaveTags  map[string]ports.Tag

	inputs   []*inputstage.InputStage
	decoders []*decoder.Decoder
	outputs  []outputstage.Stage

	amap *decoder.AddressMap
}

// New is the preferred method of initialisation for the Interconnect type.
func New(cfg Config) (*Interconnect, error) {
	if len(cfg.Masters) == 0 {
		return nil, curated.Errorf(NoMasters)
	}

	ic := &Interconnect{
		cfg:        cfg,
		masterTags: make(map[string]ports.Tag),
		slaveTags:  make(map[string]ports.Tag),
	}

	for i, n := range cfg.Masters {
		if _, ok := ic.masterTags[n]; ok {
			return nil, curated.Errorf(DuplicateName, n)
		}
		ic.masterTags[n] = ports.Tag(i)
	}

	var ranges []decoder.Range
	for i, s := range cfg.Slaves {
		if _, ok := ic.slaveTags[s.Name]; ok {
			return nil, curated.Errorf(DuplicateName, s.Name)
		}
		ic.slaveTags[s.Name] = ports.Tag(i)
		for _, r := range s.Regions {
			ranges = append(ranges, decoder.Range{Name: s.Name, Start: r.Start, End: r.End, Slave: ports.Tag(i)})
		}
	}

	var err error
	ic.amap, err = decoder.NewAddressMap(ranges...)
	if err != nil {
		return nil, curated.Errorf(BadAddressMap, err)
	}

	masters := len(cfg.Masters)
	slaves := len(cfg.Slaves)

	for _, s := range cfg.Slaves {
		arb, err := arbiter.New(s.Arbiter, masters)
		if err != nil {
			return nil, curated.Errorf(BadArbitration, s.Name, err)
		}
		ic.outputs = append(ic.outputs, outputstage.New(fmt.Sprintf("out(%s)", s.Name), s.Arbiter, arb, masters))
	}

	for _, n := range cfg.Masters {
		in := inputstage.NewInputStage(fmt.Sprintf("in(%s)", n))
		dec := decoder.NewDecoder(fmt.Sprintf("dec(%s)", n), ic.amap, slaves)
		in.AttachDownstream(dec)
		dec.AttachUpstream(in, in)
		ic.inputs = append(ic.inputs, in)
		ic.decoders = append(ic.decoders, dec)
	}

	for m, dec := range ic.decoders {
		for s, out := range ic.outputs {
			dec.AttachSlave(ports.Tag(s), ports.BindSlave(out, ports.Tag(m)))
			out.AttachMaster(ports.Tag(m), ports.BindMaster(dec, ports.Tag(s)), dec)
		}
	}

	return ic, nil
}

func (ic *Interconnect) String() string {
	return fmt.Sprintf("interconnect %d x %d", len(ic.inputs), len(ic.outputs))
}

// MasterTag returns the tag of the named master.
func (ic *Interconnect) MasterTag(name string) (ports.Tag, error) {
	if t, ok := ic.masterTags[name]; ok {
		return t, nil
	}
	return ports.NoTag, curated.Errorf(UnknownMaster, name)
}

// SlaveTag returns the tag of the named slave.
func (ic *Interconnect) SlaveTag(name string) (ports.Tag, error) {
	if t, ok := ic.slaveTags[name]; ok {
		return t, nil
	}
	return ports.NoTag, curated.Errorf(UnknownSlave, name)
}

// NumMasters returns the number of masters.
func (ic *Interconnect) NumMasters() int {
	return len(ic.inputs)
}

// NumSlaves returns the number of slaves.
func (ic *Interconnect) NumSlaves() int {
	return len(ic.outputs)
}

// AddressMap returns the address map shared by the decoders.
func (ic *Interconnect) AddressMap() *decoder.AddressMap {
	return ic.amap
}

// AttachMaster connects the component that receives the replies for the
// master tag.
func (ic *Interconnect) AttachMaster(tag ports.Tag, m ports.Master) {
	ic.inputs[tag].AttachUpstream(m)
}

// AttachSlave connects the slave for the slave tag.
func (ic *Interconnect) AttachSlave(tag ports.Tag, s ports.Slave) {
	ic.outputs[tag].AttachDownstream(s)
}

// InputStage returns the input stage of the master.
func (ic *Interconnect) InputStage(tag ports.Tag) *inputstage.InputStage {
	return ic.inputs[tag]
}

// Decoder returns the decoder of the master.
func (ic *Interconnect) Decoder(tag ports.Tag) *decoder.Decoder {
	return ic.decoders[tag]
}

// OutputStage returns the output stage of the slave. Slaves with a
// combinatorial arbiter have a CombinatorialOutputStage.
func (ic *Interconnect) OutputStage(tag ports.Tag) outputstage.Stage {
	return ic.outputs[tag]
}

// Tick implements the ports.Component interface.
func (ic *Interconnect) Tick() {
	for _, in := range ic.inputs {
		in.Tick()
	}
	for _, dec := range ic.decoders {
		dec.Tick()
	}
	for _, out := range ic.outputs {
		out.Tick()
	}
}

// Tock implements the ports.Component interface. The input stages and the
// DefaultSlaves send their replies.
func (ic *Interconnect) Tock() {
	for _, in := range ic.inputs {
		in.Tock()
	}
	for _, dec := range ic.decoders {
		dec.Tock()
	}
	for _, out := range ic.outputs {
		out.Tock()
	}
}

// TaggedRequest implements the ports.TaggedSlave interface. The tag is the
// master sending the request.
func (ic *Interconnect) TaggedRequest(tag ports.Tag, msg signals.MasterToSlave) {
	ic.inputs[tag].Request(msg)
}

// TaggedReply implements the ports.TaggedMaster interface. The tag is the
// slave sending the reply.
func (ic *Interconnect) TaggedReply(tag ports.Tag, msg signals.SlaveToMaster) {
	ic.outputs[tag].Reply(msg)
}

// Describe returns a multiline summary of every stage in the crossbar.
func (ic *Interconnect) Describe() string {
	var s strings.Builder
	for i := range ic.inputs {
		s.WriteString(ic.inputs[i].Describe())
		s.WriteString("\n")
		s.WriteString(ic.decoders[i].Describe())
		s.WriteString("\n")
	}
	for _, out := range ic.outputs {
		s.WriteString(out.Describe())
		s.WriteString("\n")
	}
	return s.String()
}
