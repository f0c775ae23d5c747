// Package hart provides a behavioural RV32 target that obeys the park-loop
// protocol of the debug module.
package hart

import (
	"encoding/binary"
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/dmsim/debug/inner"
	"github.com/sarchlab/dmsim/debug/rv"
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"
)

// DebugLines are the signals that the persistent domain drives into a hart.
type DebugLines interface {
	HaltRequested(hart int) bool
	NDMReset() bool
}

// Stage tells what the hart is doing.
type Stage int

// The stages of a hart.
const (
	StageRunning Stage = iota
	StageParkHalted
	StageParkFlags
	StageGoing
	StageResuming
	StageFetch
	StageLoad
	StageStore
	StageException
)

func (s Stage) String() string {
	names := [...]string{
		"Running", "ParkHalted", "ParkFlags", "Going", "Resuming",
		"Fetch", "Load", "Store", "Exception",
	}

	if int(s) < len(names) {
		return names[s]
	}

	return fmt.Sprintf("Stage(%d)", int(s))
}

// Comp is a hart. While running it spins and watches its debug interrupt.
// In debug mode it runs the park loop in the debug module: it writes
// HALTED, reads its flag byte, and either jumps to WHERETO or resumes.
type Comp struct {
	*sim.TickingComponent

	port   sim.Port
	mapper mem.AddressToPortMapper
	lines  DebugLines

	id           uint32
	pollInterval int

	stage     Stage
	countdown int
	regs      [32]uint32
	pc        uint32
	inst      uint32

	inflight mem.AccessReq
	then     func(rsp mem.AccessRsp)
}

// ID returns the hart index.
func (c *Comp) ID() uint32 {
	return c.id
}

// Port returns the port that the hart accesses memory with.
func (c *Comp) Port() sim.Port {
	return c.port
}

// SetAddressToPortMapper sets how the hart finds the target of an address.
func (c *Comp) SetAddressToPortMapper(m mem.AddressToPortMapper) {
	c.mapper = m
}

// SetDebugLines connects the hart to the persistent domain.
func (c *Comp) SetDebugLines(l DebugLines) {
	c.lines = l
}

// Stage returns what the hart is doing.
func (c *Comp) Stage() Stage {
	return c.stage
}

// InDebugMode tells if the hart is halted or running injected code.
func (c *Comp) InDebugMode() bool {
	return c.stage != StageRunning
}

// Reg returns the value of a general purpose register.
func (c *Comp) Reg(i int) uint32 {
	return c.regs[i]
}

// SetReg sets a general purpose register. Writes to x0 are dropped.
func (c *Comp) SetReg(i int, v uint32) {
	if i != 0 {
		c.regs[i] = v
	}
}

// Reset clears the registers and lets the hart run.
func (c *Comp) Reset() {
	c.regs = [32]uint32{}
	c.pc = 0
	c.stage = StageRunning
	c.countdown = 0
}

// Tick advances the hart by one cycle.
func (c *Comp) Tick() bool {
	if c.inflight != nil {
		return c.collect()
	}

	if c.countdown > 0 {
		c.countdown--
		return true
	}

	switch c.stage {
	case StageRunning:
		return c.run()
	case StageParkHalted:
		return c.notify(inner.AddrHalted, StageParkFlags)
	case StageParkFlags:
		return c.readFlags()
	case StageGoing:
		return c.going()
	case StageResuming:
		return c.resuming()
	case StageFetch:
		return c.fetch()
	case StageLoad:
		return c.load()
	case StageStore:
		return c.store()
	case StageException:
		return c.notify(inner.AddrException, StageParkHalted)
	default:
		log.Panicf("%s: unknown stage %s", c.Name(), c.stage)
	}

	return false
}

func (c *Comp) run() bool {
	c.countdown = c.pollInterval

	if c.lines == nil {
		return true
	}

	if c.lines.NDMReset() {
		c.Reset()
		return true
	}

	if c.lines.HaltRequested(int(c.id)) {
		c.stage = StageParkHalted
	}

	return true
}

func (c *Comp) send(req mem.AccessReq, then func(rsp mem.AccessRsp)) bool {
	err := c.port.Send(req)
	if err != nil {
		return false
	}

	c.inflight = req
	c.then = then

	return true
}

func (c *Comp) collect() bool {
	msg := c.port.PeekIncoming()
	if msg == nil {
		return false
	}

	rsp, ok := msg.(mem.AccessRsp)
	if !ok {
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	if rsp.GetRspTo() != c.inflight.Meta().ID {
		log.Panicf("%s received a response to unknown request %s",
			c.Name(), rsp.GetRspTo())
	}

	c.port.RetrieveIncoming()

	then := c.then
	c.inflight = nil
	c.then = nil
	then(rsp)

	return true
}

func (c *Comp) readReq(addr uint64, n uint64) *mem.ReadReq {
	return mem.ReadReqBuilder{}.
		WithSrc(c.port).
		WithDst(c.mapper.Find(addr)).
		WithAddress(addr).
		WithByteSize(n).
		Build()
}

func (c *Comp) writeReq(addr uint64, data []byte) *mem.WriteReq {
	return mem.WriteReqBuilder{}.
		WithSrc(c.port).
		WithDst(c.mapper.Find(addr)).
		WithAddress(addr).
		WithData(data).
		Build()
}

func (c *Comp) notify(addr uint64, next Stage) bool {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, c.id)

	return c.send(c.writeReq(addr, data), func(rsp mem.AccessRsp) {
		if rsp.IsDenied() {
			log.Panicf("%s: notification to 0x%x denied", c.Name(), addr)
		}

		c.stage = next
	})
}

func (c *Comp) readFlags() bool {
	addr := inner.AddrFlags + uint64(c.id)

	return c.send(c.readReq(addr, 1), func(rsp mem.AccessRsp) {
		flags := rsp.(*mem.DataReadyRsp).Data[0]

		switch {
		case flags&inner.FlagGo != 0:
			c.stage = StageGoing
		case flags&inner.FlagResume != 0:
			c.stage = StageResuming
		default:
			c.stage = StageParkHalted
			c.countdown = c.pollInterval
		}
	})
}

func (c *Comp) going() bool {
	c.pc = uint32(inner.AddrWhereTo)
	return c.notify(inner.AddrGoing, StageFetch)
}

func (c *Comp) resuming() bool {
	return c.notify(inner.AddrResuming, StageRunning)
}

func (c *Comp) fetch() bool {
	return c.send(c.readReq(uint64(c.pc), 4), func(rsp mem.AccessRsp) {
		if rsp.IsDenied() {
			c.stage = StageException
			return
		}

		c.inst = binary.LittleEndian.Uint32(rsp.(*mem.DataReadyRsp).Data)
		c.execute()
	})
}

// execute runs an instruction that needs no memory access, or prepares the
// access of a load or a store.
func (c *Comp) execute() {
	inst := c.inst

	switch {
	case inst == rv.EBREAK:
		c.stage = StageParkHalted
	case rv.Opcode(inst) == rv.OpcodeJAL:
		c.SetReg(int(rv.Rd(inst)), c.pc+4)
		c.pc = uint32(int32(c.pc) + rv.ImmJ(inst))
	case rv.Opcode(inst) == rv.OpcodeOpImm && rv.Funct3(inst) == rv.Funct3ADDI:
		v := int32(c.regs[rv.Rs1(inst)]) + rv.ImmI(inst)
		c.SetReg(int(rv.Rd(inst)), uint32(v))
		c.pc += 4
	case rv.Opcode(inst) == rv.OpcodeLoad && loadWidth(inst) > 0:
		c.stage = StageLoad
	case rv.Opcode(inst) == rv.OpcodeStore && storeWidth(inst) > 0:
		c.stage = StageStore
	default:
		c.stage = StageException
	}
}

func loadWidth(inst uint32) uint64 {
	switch rv.Funct3(inst) {
	case rv.Funct3Byte, rv.Funct3ByteUnsigned:
		return 1
	case rv.Funct3Half, rv.Funct3HalfUnsigned:
		return 2
	case rv.Funct3Word:
		return 4
	default:
		return 0
	}
}

func storeWidth(inst uint32) uint64 {
	switch rv.Funct3(inst) {
	case rv.Funct3Byte:
		return 1
	case rv.Funct3Half:
		return 2
	case rv.Funct3Word:
		return 4
	default:
		return 0
	}
}

func (c *Comp) load() bool {
	inst := c.inst
	addr := uint64(uint32(int32(c.regs[rv.Rs1(inst)]) + rv.ImmI(inst)))

	return c.send(c.readReq(addr, loadWidth(inst)), func(rsp mem.AccessRsp) {
		if rsp.IsDenied() {
			c.stage = StageException
			return
		}

		buf := make([]byte, 4)
		copy(buf, rsp.(*mem.DataReadyRsp).Data)
		v := binary.LittleEndian.Uint32(buf)

		switch rv.Funct3(inst) {
		case rv.Funct3Byte:
			v = uint32(int32(int8(v)))
		case rv.Funct3Half:
			v = uint32(int32(int16(v)))
		}

		c.SetReg(int(rv.Rd(inst)), v)
		c.pc += 4
		c.stage = StageFetch
	})
}

func (c *Comp) store() bool {
	inst := c.inst
	addr := uint64(uint32(int32(c.regs[rv.Rs1(inst)]) + rv.ImmS(inst)))

	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, c.regs[rv.Rs2(inst)])
	data = data[:storeWidth(inst)]

	return c.send(c.writeReq(addr, data), func(rsp mem.AccessRsp) {
		if rsp.IsDenied() {
			c.stage = StageException
			return
		}

		c.pc += 4
		c.stage = StageFetch
	})
}
