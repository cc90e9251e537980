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
	"github.com/jetsetilly/ahbfabric/hardware/ahb/databus"
	"github.com/jetsetilly/ahbfabric/hardware/soc"
)

// Workload keeps every master of a SoC busy. The ICode master fetches words
// from the flash in sequence. The DCode master writes words to the SRAM and
// reads them back. The DMA master copies words from the SRAM to the
// peripherals.
type Workload struct {
	s *soc.SoC

	fetch uint32
	data  uint32
	dma   uint32

	transfers int
}

// NewWorkload is the preferred method of initialisation for the Workload
// type.
func NewWorkload(s *soc.SoC) *Workload {
	return &Workload{s: s}
}

// Refill queues new transfers on the masters that are idle. It should be
// called once per cycle.
func (wl *Workload) Refill() error {
	s := wl.s

	wl.transfers += len(s.ICode.Completed())
	wl.transfers += len(s.DCode.Completed())
	wl.transfers += len(s.DMA.Completed())

	if s.ICode.IsIdle() {
		s.ICode.Read(soc.FlashOrigin+wl.fetch, databus.Word)
		wl.fetch = (wl.fetch + 4) % soc.FlashSize
	}

	if s.DCode.IsIdle() {
		addr := soc.SRAMOrigin + wl.data
		if _, err := s.DCode.Write(addr, databus.FromWord(wl.data)); err != nil {
			return err
		}
		s.DCode.Read(addr, databus.Word)
		wl.data = (wl.data + 4) % (soc.SRAMSize / 2)
	}

	if s.DMA.IsIdle() {
		s.DMA.Read(soc.SRAMOrigin+soc.SRAMSize/2+wl.dma, databus.Word)
		if _, err := s.DMA.Write(soc.PeriphOrigin+wl.dma, databus.FromWord(wl.dma)); err != nil {
			return err
		}
		wl.dma = (wl.dma + 4) % soc.PeriphSize
	}

	return nil
}

// Transfers returns the number of transfers completed since the last Reset().
func (wl *Workload) Transfers() int {
	return wl.transfers
}

// Reset the count of completed transfers.
func (wl *Workload) Reset() {
	wl.transfers = 0
}
