package mem

import (
	"log"

	"github.com/sarchlab/dmsim/sim"
)

// AddressToPortMapper helps a requester find the target that serves a
// certain address.
type AddressToPortMapper interface {
	Find(address uint64) sim.Port
}

// SinglePortMapper is used when a requester is connected with only one
// target.
type SinglePortMapper struct {
	Port sim.Port
}

// Find simply returns the solo target that it connects to.
func (f *SinglePortMapper) Find(_ uint64) sim.Port {
	return f.Port
}

// AddressRange is a half-open address window [Low, High) served by a port.
type AddressRange struct {
	Low, High uint64
	Port      sim.Port
}

// Contains tells if the address falls in the range.
func (r AddressRange) Contains(address uint64) bool {
	return address >= r.Low && address < r.High
}

// RangeAddressPortMapper maps non-overlapping address windows to ports.
// Addresses outside every window go to the default port, which can be nil.
type RangeAddressPortMapper struct {
	Ranges  []AddressRange
	Default sim.Port
}

// AddRange registers a window. Overlapping windows are not allowed.
func (f *RangeAddressPortMapper) AddRange(low, high uint64, port sim.Port) {
	if low >= high {
		log.Panicf("invalid address range [0x%x, 0x%x)", low, high)
	}

	for _, r := range f.Ranges {
		if low < r.High && r.Low < high {
			log.Panicf("address range [0x%x, 0x%x) overlaps [0x%x, 0x%x)",
				low, high, r.Low, r.High)
		}
	}

	f.Ranges = append(f.Ranges, AddressRange{Low: low, High: high, Port: port})
}

// Find returns the port that serves the address.
func (f *RangeAddressPortMapper) Find(address uint64) sim.Port {
	for _, r := range f.Ranges {
		if r.Contains(address) {
			return r.Port
		}
	}

	return f.Default
}
