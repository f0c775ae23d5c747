package inner

import (
	"encoding/binary"
	"log"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/debug/rv"
	"github.com/sarchlab/dmsim/mem"
)

// MaxHarts is the number of harts that the flag array can address.
const MaxHarts = 1 << dmi.HartSelBits

type region struct {
	base, size uint64
	load       func(offset, n uint64) []byte
	store      func(offset uint64, req *mem.WriteReq)
}

func (r region) contains(addr, n uint64) bool {
	return addr >= r.base && addr+n <= r.base+r.size
}

func (c *Core) regions() []region {
	return []region{
		{base: AddrHalted, size: 4, store: c.notification(c.hartHalted)},
		{base: AddrGoing, size: 4, store: c.notification(c.hartGoing)},
		{base: AddrResuming, size: 4, store: c.notification(c.hartResuming)},
		{base: AddrException, size: 4, store: c.notification(c.hartException)},
		{base: AddrWhereTo, size: 4, load: c.loadWhereTo},
		{base: AddrAbstract, size: 8, load: c.loadAbstract},
		{base: AddrProgBuf, size: c.progBufImageBytes(), load: c.loadProgBuf},
		{base: AddrProgBuf, size: c.progBuf.Bytes(), store: c.progBuf.Store},
		{
			base:  AddrData,
			size:  c.data.Bytes(),
			load:  c.data.Load,
			store: c.data.Store,
		},
		{base: AddrFlags, size: MaxHarts, load: c.loadFlags},
		{base: AddrROM, size: uint64(len(c.rom)), load: c.loadROM},
	}
}

func (c *Core) find(addr, n uint64, write bool) (region, bool) {
	for _, r := range c.regions() {
		if write && r.store == nil || !write && r.load == nil {
			continue
		}

		if r.contains(addr, n) {
			return r, true
		}
	}

	return region{}, false
}

// HartLoad serves a read from a hart. It returns false if nothing readable
// lives at the address.
func (c *Core) HartLoad(addr, n uint64) ([]byte, bool) {
	r, ok := c.find(addr, n, false)
	if !ok {
		return nil, false
	}

	return r.load(addr-r.base, n), true
}

// HartStore serves a write from a hart. It returns false if nothing writable
// lives at the address.
func (c *Core) HartStore(addr uint64, req *mem.WriteReq) bool {
	r, ok := c.find(addr, uint64(len(req.Data)), true)
	if !ok {
		return false
	}

	r.store(addr-r.base, req)

	return true
}

func wordBytes(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}

	return buf
}

func (c *Core) loadWhereTo(offset, n uint64) []byte {
	return wordBytes(c.whereTo)[offset : offset+n]
}

func (c *Core) loadAbstract(offset, n uint64) []byte {
	return wordBytes(c.abstract[0], c.abstract[1])[offset : offset+n]
}

// impEbreak tells if an ebreak follows the program buffer. A full program
// buffer has to end with its own ebreak.
func (c *Core) impEbreak() bool {
	return c.progBuf.Words() < dmi.MaxProgBufWords
}

func (c *Core) progBufImageBytes() uint64 {
	if c.impEbreak() {
		return c.progBuf.Bytes() + 4
	}

	return c.progBuf.Bytes()
}

func (c *Core) loadProgBuf(offset, n uint64) []byte {
	image := c.progBuf.Load(0, c.progBuf.Bytes())
	if c.impEbreak() {
		image = append(image, wordBytes(rv.EBREAK)...)
	}

	return image[offset : offset+n]
}

func (c *Core) loadFlags(offset, n uint64) []byte {
	buf := make([]byte, n)

	for i := range buf {
		if offset+uint64(i) != uint64(c.target) {
			continue
		}

		if c.goReq {
			buf[i] |= FlagGo
		}

		if c.resumeReq {
			buf[i] |= FlagResume
		}
	}

	return buf
}

func (c *Core) loadROM(offset, n uint64) []byte {
	buf := make([]byte, n)
	copy(buf, c.rom[offset:offset+n])

	return buf
}

func (c *Core) notification(
	handle func(hart int),
) func(offset uint64, req *mem.WriteReq) {
	return func(_ uint64, req *mem.WriteReq) {
		if !c.active {
			return
		}

		buf := make([]byte, 4)
		for i := range req.Data {
			if req.IsByteDirty(i) {
				buf[i] = req.Data[i]
			}
		}

		hart := int(binary.LittleEndian.Uint32(buf))
		if hart >= c.nHarts {
			log.Panicf("%s: notification from unknown hart %d",
				c.domain.Name(), hart)
		}

		handle(hart)
	}
}

func (c *Core) mustBeTarget(hart int, what string) {
	if uint32(hart) != c.target {
		log.Panicf("%s: %s from hart %d while hart %d has the go flag",
			c.domain.Name(), what, hart, c.target)
	}
}

// hartHalted handles the HALTED write of the park loop. The hart keeps
// writing it while it waits, so it only counts for the state machine once
// the hart has taken the last go pulse.
func (c *Core) hartHalted(hart int) {
	c.halted[hart] = true

	if uint32(hart) != c.target || c.goReq {
		return
	}

	if !c.fsm.State().WaitsForHart() {
		return
	}

	from := c.fsm.State()
	c.fire(EventHalted)

	if from == StatePreExec {
		c.pulse(GoAbstract)
	}
}

func (c *Core) hartGoing(hart int) {
	c.mustBeTarget(hart, "going")
	c.goReq = false

	if c.fsm.State() != StateAbstract {
		return
	}

	if dmi.DecodeCommand(c.command).PostExec {
		c.fire(EventFallThrough)
	}
}

func (c *Core) hartResuming(hart int) {
	c.halted[hart] = false

	if uint32(hart) != c.target {
		return
	}

	c.resumeReq = false
	c.resumeAck = true
}

func (c *Core) hartException(hart int) {
	c.mustBeTarget(hart, "exception")
	c.goReq = false

	if !c.fsm.State().WaitsForHart() {
		return
	}

	c.raise(dmi.CmdErrException)
	c.fire(EventException)
}
