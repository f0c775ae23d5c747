package dmi

import "fmt"

// Register addresses, in words.
const (
	AddrData0        uint32 = 0x04
	AddrDMControl    uint32 = 0x10
	AddrDMStatus     uint32 = 0x11
	AddrHartInfo     uint32 = 0x12
	AddrHaltSum      uint32 = 0x13
	AddrAbstractCS   uint32 = 0x16
	AddrCommand      uint32 = 0x17
	AddrAbstractAuto uint32 = 0x18
	AddrProgBuf0     uint32 = 0x20
	AddrSBCS         uint32 = 0x38
	AddrHaltRegs     uint32 = 0x40
)

// Limits of the scratch memories, in words. The data words end at 0x0f,
// below dmcontrol.
const (
	MaxDataWords    = 12
	MaxProgBufWords = 16
)

// DataAddr returns the address of the i-th abstract data word.
func DataAddr(i int) uint32 {
	return AddrData0 + uint32(i)
}

// ProgBufAddr returns the address of the i-th program buffer word.
func ProgBufAddr(i int) uint32 {
	return AddrProgBuf0 + uint32(i)
}

// IsData tells if the address is an abstract data word and returns its index.
func IsData(addr uint32) (int, bool) {
	if addr >= AddrData0 && addr < AddrData0+MaxDataWords {
		return int(addr - AddrData0), true
	}

	return 0, false
}

// IsProgBuf tells if the address is a program buffer word and returns its
// index.
func IsProgBuf(addr uint32) (int, bool) {
	if addr >= AddrProgBuf0 && addr < AddrProgBuf0+MaxProgBufWords {
		return int(addr - AddrProgBuf0), true
	}

	return 0, false
}

func bit(v uint32, pos uint) bool {
	return v&(1<<pos) != 0
}

func setBit(b bool, pos uint) uint32 {
	if b {
		return 1 << pos
	}

	return 0
}

func field(v uint32, hi, lo uint) uint32 {
	return (v >> lo) & (1<<(hi-lo+1) - 1)
}

func setField(v uint32, hi, lo uint) uint32 {
	return (v & (1<<(hi-lo+1) - 1)) << lo
}

// DMControl is the control word of the debug module.
type DMControl struct {
	HaltReq   bool
	ResumeReq bool
	HartSel   uint32
	NDMReset  bool
	DMActive  bool
}

// HartSelBits is the width of the hart selection field.
const HartSelBits = 10

// DecodeDMControl unpacks a dmcontrol value.
func DecodeDMControl(v uint32) DMControl {
	return DMControl{
		HaltReq:   bit(v, 31),
		ResumeReq: bit(v, 30),
		HartSel:   field(v, 25, 16),
		NDMReset:  bit(v, 1),
		DMActive:  bit(v, 0),
	}
}

// Encode packs the control word.
func (c DMControl) Encode() uint32 {
	return setBit(c.HaltReq, 31) |
		setBit(c.ResumeReq, 30) |
		setField(c.HartSel, 25, 16) |
		setBit(c.NDMReset, 1) |
		setBit(c.DMActive, 0)
}

// DMStatus reports the state of the selected harts.
type DMStatus struct {
	AllResumeAck   bool
	AnyResumeAck   bool
	AllNonExistent bool
	AnyNonExistent bool
	AllUnavail     bool
	AnyUnavail     bool
	AllRunning     bool
	AnyRunning     bool
	AllHalted      bool
	AnyHalted      bool
	Authenticated  bool
	Version        uint32
}

// DMStatusVersion is the version of the debug architecture that dmstatus
// reports.
const DMStatusVersion = 2

// DecodeDMStatus unpacks a dmstatus value.
func DecodeDMStatus(v uint32) DMStatus {
	return DMStatus{
		AllResumeAck:   bit(v, 17),
		AnyResumeAck:   bit(v, 16),
		AllNonExistent: bit(v, 15),
		AnyNonExistent: bit(v, 14),
		AllUnavail:     bit(v, 13),
		AnyUnavail:     bit(v, 12),
		AllRunning:     bit(v, 11),
		AnyRunning:     bit(v, 10),
		AllHalted:      bit(v, 9),
		AnyHalted:      bit(v, 8),
		Authenticated:  bit(v, 7),
		Version:        field(v, 3, 0),
	}
}

// Encode packs the status word.
func (s DMStatus) Encode() uint32 {
	return setBit(s.AllResumeAck, 17) |
		setBit(s.AnyResumeAck, 16) |
		setBit(s.AllNonExistent, 15) |
		setBit(s.AnyNonExistent, 14) |
		setBit(s.AllUnavail, 13) |
		setBit(s.AnyUnavail, 12) |
		setBit(s.AllRunning, 11) |
		setBit(s.AnyRunning, 10) |
		setBit(s.AllHalted, 9) |
		setBit(s.AnyHalted, 8) |
		setBit(s.Authenticated, 7) |
		setField(s.Version, 3, 0)
}

// HartInfo describes where the abstract data words live in the hart's
// address space.
type HartInfo struct {
	NScratch   uint32
	DataAccess bool
	DataSize   uint32
	DataAddr   uint32
}

// DecodeHartInfo unpacks a hartinfo value.
func DecodeHartInfo(v uint32) HartInfo {
	return HartInfo{
		NScratch:   field(v, 23, 20),
		DataAccess: bit(v, 16),
		DataSize:   field(v, 15, 12),
		DataAddr:   field(v, 11, 0),
	}
}

// Encode packs the hart info word.
func (h HartInfo) Encode() uint32 {
	return setField(h.NScratch, 23, 20) |
		setBit(h.DataAccess, 16) |
		setField(h.DataSize, 15, 12) |
		setField(h.DataAddr, 11, 0)
}

// CmdErr is the error reported by the last abstract command.
type CmdErr uint8

// Abstract command errors.
const (
	CmdErrNone         CmdErr = 0
	CmdErrBusy         CmdErr = 1
	CmdErrNotSupported CmdErr = 2
	CmdErrException    CmdErr = 3
	CmdErrHaltResume   CmdErr = 4
)

func (e CmdErr) String() string {
	switch e {
	case CmdErrNone:
		return "none"
	case CmdErrBusy:
		return "busy"
	case CmdErrNotSupported:
		return "not supported"
	case CmdErrException:
		return "exception"
	case CmdErrHaltResume:
		return "halt/resume"
	default:
		return fmt.Sprintf("cmderr(%d)", uint8(e))
	}
}

// Priority orders the errors when more than one cause applies. A higher
// value wins.
func (e CmdErr) Priority() int {
	switch e {
	case CmdErrBusy:
		return 4
	case CmdErrException:
		return 3
	case CmdErrNotSupported:
		return 2
	case CmdErrHaltResume:
		return 1
	default:
		return 0
	}
}

// AbstractCS is the abstract command control and status register.
type AbstractCS struct {
	ProgBufSize uint32
	Busy        bool
	CmdErr      CmdErr
	DataCount   uint32
}

// DecodeAbstractCS unpacks an abstractcs value.
func DecodeAbstractCS(v uint32) AbstractCS {
	return AbstractCS{
		ProgBufSize: field(v, 28, 24),
		Busy:        bit(v, 12),
		CmdErr:      CmdErr(field(v, 10, 8)),
		DataCount:   field(v, 3, 0),
	}
}

// Encode packs the register.
func (a AbstractCS) Encode() uint32 {
	return setField(a.ProgBufSize, 28, 24) |
		setBit(a.Busy, 12) |
		setField(uint32(a.CmdErr), 10, 8) |
		setField(a.DataCount, 3, 0)
}

// CmdType is the category of an abstract command.
type CmdType uint8

// Abstract command categories. Only CmdAccessRegister is executed.
const (
	CmdAccessRegister CmdType = 0
	CmdQuickAccess    CmdType = 1
)

// Command is an abstract command.
type Command struct {
	CmdType  CmdType
	Size     uint32
	PreExec  bool
	PostExec bool
	Transfer bool
	Write    bool
	RegNo    uint32
}

// Register numbers of the general purpose registers.
const (
	RegNoGPR0   uint32 = 0x1000
	RegNoGPRMax uint32 = 0x101F
)

// Transfer sizes.
const (
	Size8  uint32 = 0
	Size16 uint32 = 1
	Size32 uint32 = 2
)

// DecodeCommand unpacks a command value.
func DecodeCommand(v uint32) Command {
	return Command{
		CmdType:  CmdType(field(v, 31, 24)),
		Size:     field(v, 22, 20),
		PreExec:  bit(v, 19),
		PostExec: bit(v, 18),
		Transfer: bit(v, 17),
		Write:    bit(v, 16),
		RegNo:    field(v, 15, 0),
	}
}

// Encode packs the command.
func (c Command) Encode() uint32 {
	return setField(uint32(c.CmdType), 31, 24) |
		setField(c.Size, 22, 20) |
		setBit(c.PreExec, 19) |
		setBit(c.PostExec, 18) |
		setBit(c.Transfer, 17) |
		setBit(c.Write, 16) |
		setField(c.RegNo, 15, 0)
}

func (c Command) String() string {
	dir := "read"
	if c.Write {
		dir = "write"
	}

	return fmt.Sprintf("%s reg 0x%04x size %d", dir, c.RegNo, 8<<c.Size)
}

// AbstractAuto selects the scratch words whose accesses re-run the command.
type AbstractAuto struct {
	AutoExecData    uint32
	AutoExecProgBuf uint32
}

// DecodeAbstractAuto unpacks an abstractauto value.
func DecodeAbstractAuto(v uint32) AbstractAuto {
	return AbstractAuto{
		AutoExecData:    field(v, 11, 0),
		AutoExecProgBuf: field(v, 31, 16),
	}
}

// Encode packs the register.
func (a AbstractAuto) Encode() uint32 {
	return setField(a.AutoExecData, 11, 0) |
		setField(a.AutoExecProgBuf, 31, 16)
}
