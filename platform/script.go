package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/dmsim/debug/dmi"
	"gopkg.in/yaml.v3"
)

// Step kinds of a script.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpProbe  = "probe"
	OpHalt   = "halt"
	OpResume = "resume"
	OpWait   = "wait"
	OpReset  = "reset"
)

// Script is a list of steps that a debugger performs.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one action of a script. Expect, if set, is compared with the data
// of the response under Mask.
type Step struct {
	Op     string  `yaml:"op"`
	Addr   RegAddr `yaml:"addr"`
	Data   uint32  `yaml:"data"`
	Hart   uint32  `yaml:"hart"`
	Cycles int     `yaml:"cycles"`
	Expect *uint32 `yaml:"expect"`
	Mask   *uint32 `yaml:"mask"`
}

func (s Step) String() string {
	switch s.Op {
	case OpRead, OpProbe:
		return fmt.Sprintf("%s %s", s.Op, s.Addr)
	case OpWrite:
		return fmt.Sprintf("%s %s 0x%08x", s.Op, s.Addr, s.Data)
	case OpHalt, OpResume:
		return fmt.Sprintf("%s hart %d", s.Op, s.Hart)
	case OpWait:
		return fmt.Sprintf("%s %d cycles", s.Op, s.Cycles)
	default:
		return s.Op
	}
}

// RegAddr is a control-bus register address. In a script it can be written
// as a number or as a register name such as "dmstatus" or "data1".
type RegAddr uint32

var regNames = map[string]uint32{
	"dmcontrol":    dmi.AddrDMControl,
	"dmstatus":     dmi.AddrDMStatus,
	"hartinfo":     dmi.AddrHartInfo,
	"haltsum":      dmi.AddrHaltSum,
	"abstractcs":   dmi.AddrAbstractCS,
	"command":      dmi.AddrCommand,
	"abstractauto": dmi.AddrAbstractAuto,
	"sbcs":         dmi.AddrSBCS,
	"haltregs":     dmi.AddrHaltRegs,
}

// ParseRegAddr converts a register name or a number into an address.
func ParseRegAddr(s string) (RegAddr, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if addr, ok := regNames[s]; ok {
		return RegAddr(addr), nil
	}

	for prefix, addrOf := range map[string]func(int) uint32{
		"data":    dmi.DataAddr,
		"progbuf": dmi.ProgBufAddr,
	} {
		if !strings.HasPrefix(s, prefix) {
			continue
		}

		i, err := strconv.Atoi(strings.TrimPrefix(s, prefix))
		if err == nil && i >= 0 {
			return RegAddr(addrOf(i)), nil
		}
	}

	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown register %q", s)
	}

	return RegAddr(v), nil
}

// UnmarshalYAML accepts both register names and numbers.
func (a *RegAddr) UnmarshalYAML(node *yaml.Node) error {
	addr, err := ParseRegAddr(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*a = addr

	return nil
}

func (a RegAddr) String() string {
	for name, addr := range regNames {
		if RegAddr(addr) == a {
			return name
		}
	}

	if i, ok := dmi.IsData(uint32(a)); ok {
		return fmt.Sprintf("data%d", i)
	}

	if i, ok := dmi.IsProgBuf(uint32(a)); ok {
		return fmt.Sprintf("progbuf%d", i)
	}

	return fmt.Sprintf("0x%02x", uint32(a))
}

// ParseScript decodes a YAML script and checks its steps.
func ParseScript(data []byte) (Script, error) {
	var s Script

	err := yaml.Unmarshal(data, &s)
	if err != nil {
		return s, fmt.Errorf("parsing script: %w", err)
	}

	for i, step := range s.Steps {
		err := step.validate()
		if err != nil {
			return s, fmt.Errorf("step %d: %w", i, err)
		}
	}

	return s, nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpRead, OpWrite, OpProbe, OpHalt, OpResume, OpReset:
	case OpWait:
		if s.Cycles <= 0 {
			return fmt.Errorf("wait needs a positive number of cycles")
		}
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}

	if s.Expect != nil && s.Op != OpRead {
		return fmt.Errorf("only reads can expect a value")
	}

	if s.Mask != nil && s.Expect == nil {
		return fmt.Errorf("a mask needs an expected value")
	}

	return nil
}
