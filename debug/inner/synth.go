package inner

import (
	"fmt"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/debug/rv"
)

// Byte addresses of the debug module in the address space of the harts.
const (
	AddrHalted    uint64 = 0x100
	AddrGoing     uint64 = 0x104
	AddrResuming  uint64 = 0x108
	AddrException uint64 = 0x10C
	AddrWhereTo   uint64 = 0x300
	AddrAbstract  uint64 = 0x338
	AddrProgBuf   uint64 = 0x340
	AddrData      uint64 = 0x380
	AddrFlags     uint64 = 0x400
	AddrROM       uint64 = 0x800

	// ResumeEntry is where a hart leaves the park loop.
	ResumeEntry = AddrROM + 4
)

// Bits of the per-hart flag byte.
const (
	FlagGo     uint8 = 1 << 0
	FlagResume uint8 = 1 << 1
)

// GoTarget selects where WHERETO sends a hart.
type GoTarget int

// The three go variants.
const (
	GoAbstract GoTarget = iota
	GoProgBuf
	GoResume
)

func (t GoTarget) String() string {
	switch t {
	case GoAbstract:
		return "abstract"
	case GoProgBuf:
		return "progbuf"
	case GoResume:
		return "resume"
	default:
		return fmt.Sprintf("GoTarget(%d)", int(t))
	}
}

// Entry returns the address that the go variant jumps to.
func (t GoTarget) Entry() uint64 {
	switch t {
	case GoAbstract:
		return AddrAbstract
	case GoProgBuf:
		return AddrProgBuf
	case GoResume:
		return ResumeEntry
	default:
		panic(fmt.Sprintf("unknown go target %d", int(t)))
	}
}

// WhereTo returns the jump placed at AddrWhereTo for a go variant.
func WhereTo(t GoTarget) uint32 {
	return rv.JAL(0, int32(t.Entry())-int32(AddrWhereTo))
}

// AbstractProgram returns the two instructions placed at AddrAbstract for an
// access-register command. The first moves the register through the first
// abstract data word. The second halts the hart again, or falls through into
// the program buffer when the command asks for post-execution.
//
// The command must have passed validation, so that the size and the register
// number are in range.
func AbstractProgram(cmd dmi.Command) [2]uint32 {
	reg := cmd.RegNo - dmi.RegNoGPR0

	var access uint32
	if cmd.Write {
		access = rv.Load(cmd.Size, reg, 0, int32(AddrData))
	} else {
		access = rv.Store(cmd.Size, 0, reg, int32(AddrData))
	}

	tail := rv.EBREAK
	if cmd.PostExec {
		tail = rv.NOP
	}

	return [2]uint32{access, tail}
}
