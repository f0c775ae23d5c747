// Package debug assembles a complete debug module out of its persistent
// domain, the domain crossing, the protocol adapter, and the resettable
// domain.
package debug

import (
	"errors"
	"fmt"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/debug/inner"
)

// Config is the configuration contract of the debug module.
type Config struct {
	AddrWidth       int `yaml:"addr_width"`
	NumHarts        int `yaml:"harts"`
	NumDataWords    int `yaml:"data_words"`
	NumProgBufWords int `yaml:"progbuf_words"`
	NumSerialPorts  int `yaml:"serial_ports"`

	// Features that this debug module does not implement. They must stay
	// disabled.
	BusMaster   bool `yaml:"bus_master"`
	WideAccess  bool `yaml:"wide_access"`
	HartArray   bool `yaml:"hart_array"`
	QuickAccess bool `yaml:"quick_access"`

	HandoffDepth int `yaml:"handoff_depth"`
	SyncStages   int `yaml:"sync_stages"`
}

// DefaultConfig returns the smallest configuration that supports abstract
// commands and a program buffer.
func DefaultConfig() Config {
	return Config{
		AddrWidth:       7,
		NumHarts:        1,
		NumDataWords:    2,
		NumProgBufWords: 8,
		HandoffDepth:    1,
		SyncStages:      2,
	}
}

// Validate returns an error describing the first violated constraint. At most
// dmi.MaxDataWords abstract data words are accepted, since data12 and above
// would share their addresses with dmcontrol and the registers after it.
func (c Config) Validate() error {
	switch {
	case c.AddrWidth < 7 || c.AddrWidth > 32:
		return fmt.Errorf("address width %d is not in [7, 32]", c.AddrWidth)
	case c.NumHarts < 1 || c.NumHarts > inner.MaxHarts:
		return fmt.Errorf("%d harts is not in [1, %d]", c.NumHarts, inner.MaxHarts)
	case c.NumDataWords < 1 || c.NumDataWords > dmi.MaxDataWords:
		return fmt.Errorf("%d data words is not in [1, %d]",
			c.NumDataWords, dmi.MaxDataWords)
	case c.NumProgBufWords < 0 || c.NumProgBufWords > dmi.MaxProgBufWords:
		return fmt.Errorf("%d program buffer words is not in [0, %d]",
			c.NumProgBufWords, dmi.MaxProgBufWords)
	case c.NumSerialPorts < 0 || c.NumSerialPorts > 8:
		return fmt.Errorf("%d serial ports is not in [0, 8]", c.NumSerialPorts)
	case c.BusMaster:
		return errors.New("the system bus master is not supported")
	case c.WideAccess:
		return errors.New("access widths above 32 bits are not supported")
	case c.HartArray:
		return errors.New("the hart array mask is not supported")
	case c.QuickAccess:
		return errors.New("quick access commands are not supported")
	case c.HandoffDepth < 1:
		return fmt.Errorf("handoff depth %d must be positive", c.HandoffDepth)
	case c.SyncStages < 0:
		return fmt.Errorf("%d synchronizer stages is negative", c.SyncStages)
	}

	return nil
}
