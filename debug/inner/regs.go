package inner

import (
	"github.com/sarchlab/dmsim/debug/dmi"
)

// ReadReg is a control-bus read of a register. Unmapped addresses read as
// zero.
func (c *Core) ReadReg(addr uint32) uint32 {
	if i, ok := dmi.IsData(addr); ok {
		if i >= c.data.Words() {
			return 0
		}

		return c.data.ReadWord(i)
	}

	if i, ok := dmi.IsProgBuf(addr); ok {
		if i >= c.progBuf.Words() {
			return 0
		}

		return c.progBuf.ReadWord(i)
	}

	switch addr {
	case dmi.AddrDMStatus:
		return c.status().Encode()
	case dmi.AddrHartInfo:
		return c.hartInfo().Encode()
	case dmi.AddrHaltSum:
		return c.haltSum()
	case dmi.AddrAbstractCS:
		return c.abstractCS().Encode()
	case dmi.AddrCommand:
		return c.command
	case dmi.AddrAbstractAuto:
		return dmi.AbstractAuto{
			AutoExecData:    c.autoData,
			AutoExecProgBuf: c.autoProgBuf,
		}.Encode()
	case dmi.AddrHaltRegs:
		return c.haltRegs(0)
	default:
		return 0
	}
}

// WriteReg is a control-bus write of a register. Writes are dropped while
// the core is inactive, and writes to read-only or unmapped addresses are
// dropped.
func (c *Core) WriteReg(addr, v uint32) {
	if !c.active {
		return
	}

	if i, ok := dmi.IsData(addr); ok {
		if i < c.data.Words() {
			c.data.WriteWord(i, v)
		}

		return
	}

	if i, ok := dmi.IsProgBuf(addr); ok {
		if i < c.progBuf.Words() {
			c.progBuf.WriteWord(i, v)
		}

		return
	}

	switch addr {
	case dmi.AddrAbstractCS:
		c.writeAbstractCS(v)
	case dmi.AddrCommand:
		c.writeCommand(v)
	case dmi.AddrAbstractAuto:
		c.writeAbstractAuto(v)
	}
}

func (c *Core) writeAbstractCS(v uint32) {
	if c.Busy() {
		c.raise(dmi.CmdErrBusy)
		return
	}

	c.cmdErr &^= dmi.DecodeAbstractCS(v).CmdErr
}

func (c *Core) writeCommand(v uint32) {
	if c.Busy() {
		c.raise(dmi.CmdErrBusy)
		return
	}

	if c.cmdErr != dmi.CmdErrNone {
		return
	}

	c.command = v
	c.startCommand()
}

func (c *Core) writeAbstractAuto(v uint32) {
	if c.Busy() {
		c.raise(dmi.CmdErrBusy)
		return
	}

	a := dmi.DecodeAbstractAuto(v)
	c.autoData = a.AutoExecData & lowBits(c.data.Words())
	c.autoProgBuf = a.AutoExecProgBuf & lowBits(c.progBuf.Words())
}

func lowBits(n int) uint32 {
	return uint32(1)<<uint(n) - 1
}

// status derives dmstatus from the selected hart, in priority order
// nonexistent, unavailable, halted, running.
func (c *Core) status() dmi.DMStatus {
	s := dmi.DMStatus{
		Authenticated: true,
		Version:       dmi.DMStatusVersion,
		AllResumeAck:  c.resumeAck,
		AnyResumeAck:  c.resumeAck,
	}

	sel := int(c.selected)

	switch {
	case sel >= c.nHarts:
		s.AllNonExistent = true
		s.AnyNonExistent = true
	case c.unavail[sel]:
		s.AllUnavail = true
		s.AnyUnavail = true
	case c.halted[sel]:
		s.AllHalted = true
		s.AnyHalted = true
	default:
		s.AllRunning = true
		s.AnyRunning = true
	}

	return s
}

func (c *Core) hartInfo() dmi.HartInfo {
	return dmi.HartInfo{
		NScratch:   1,
		DataAccess: true,
		DataSize:   uint32(c.data.Words()),
		DataAddr:   uint32(AddrData),
	}
}

func (c *Core) abstractCS() dmi.AbstractCS {
	return dmi.AbstractCS{
		ProgBufSize: uint32(c.progBuf.Words()),
		Busy:        c.Busy(),
		CmdErr:      c.cmdErr,
		DataCount:   uint32(c.data.Words()),
	}
}

// haltSum has one bit per group of 32 harts, set if any hart of the group
// is halted.
func (c *Core) haltSum() uint32 {
	var v uint32

	for group := 0; group < 32; group++ {
		if c.haltRegs(group) != 0 {
			v |= 1 << uint(group)
		}
	}

	return v
}

// haltRegs has one bit per hart of a group of 32 harts.
func (c *Core) haltRegs(group int) uint32 {
	var v uint32

	for i := 0; i < 32; i++ {
		if c.Halted(group*32 + i) {
			v |= 1 << uint(i)
		}
	}

	return v
}
