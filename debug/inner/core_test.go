package inner

import (
	"encoding/binary"

	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/debug/rv"
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type testDomain struct {
	sim.HookableBase
}

func (d *testDomain) Name() string {
	return "DM"
}

func (d *testDomain) CurrentTime() sim.VTimeInSec {
	return 0
}

type transitionRecorder struct {
	transitions []Transition
	errs        []dmi.CmdErr
	gos         []GoTarget
}

func (r *transitionRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosStateChange:
		r.transitions = append(r.transitions, ctx.Item.(Transition))
	case HookPosCmdErr:
		r.errs = append(r.errs, ctx.Item.(dmi.CmdErr))
	case HookPosGo:
		r.gos = append(r.gos, ctx.Item.(GoTarget))
	}
}

func word(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)

	return buf
}

var _ = Describe("Core", func() {
	var (
		domain   *testDomain
		recorder *transitionRecorder
		c        *Core
	)

	store := func(addr uint64, data []byte) bool {
		return c.HartStore(addr, mem.WriteReqBuilder{}.
			WithAddress(addr).
			WithData(data).
			Build())
	}

	notify := func(addr uint64, hart int) {
		Expect(store(addr, word(uint32(hart)))).To(BeTrue())
	}

	flags := func(hart int) uint8 {
		data, ok := c.HartLoad(AddrFlags+uint64(hart), 1)
		Expect(ok).To(BeTrue())

		return data[0]
	}

	loadWord := func(addr uint64) uint32 {
		data, ok := c.HartLoad(addr, 4)
		Expect(ok).To(BeTrue())

		return binary.LittleEndian.Uint32(data)
	}

	activate := func(sel uint32) {
		c.Apply(crossing.ControlEvent{Active: true, HartSel: sel})
	}

	cmdErr := func() dmi.CmdErr {
		return dmi.DecodeAbstractCS(c.ReadReg(dmi.AddrAbstractCS)).CmdErr
	}

	status := func() dmi.DMStatus {
		return dmi.DecodeDMStatus(c.ReadReg(dmi.AddrDMStatus))
	}

	readGPR := func(reg uint32) uint32 {
		return dmi.Command{
			Size:     dmi.Size32,
			Transfer: true,
			RegNo:    dmi.RegNoGPR0 + reg,
		}.Encode()
	}

	BeforeEach(func() {
		domain = &testDomain{}
		recorder = &transitionRecorder{}
		domain.AcceptHook(recorder)
		c = NewCore(domain, 4, 2, 4, []byte{0x13, 0, 0, 0, 0x73, 0, 0x10, 0})
	})

	Context("when inactive", func() {
		It("should drop register writes", func() {
			c.WriteReg(dmi.DataAddr(0), 7)
			c.WriteReg(dmi.AddrCommand, readGPR(8))

			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(0)))
			Expect(c.State()).To(Equal(StateWaiting))
		})

		It("should ignore hart notifications", func() {
			notify(AddrHalted, 0)

			Expect(c.Halted(0)).To(BeFalse())
		})
	})

	Context("when active and idle", func() {
		BeforeEach(func() {
			activate(0)
		})

		It("should round trip every abstract data word", func() {
			for i := 0; i < 2; i++ {
				c.WriteReg(dmi.DataAddr(i), uint32(0x1000+i))
			}

			for i := 0; i < 2; i++ {
				Expect(c.ReadReg(dmi.DataAddr(i))).To(Equal(uint32(0x1000 + i)))
			}
		})

		It("should read missing scratch words as zero", func() {
			c.WriteReg(dmi.DataAddr(5), 9)
			c.WriteReg(dmi.ProgBufAddr(10), 9)

			Expect(c.ReadReg(dmi.DataAddr(5))).To(Equal(uint32(0)))
			Expect(c.ReadReg(dmi.ProgBufAddr(10))).To(Equal(uint32(0)))
		})

		It("should describe the configuration", func() {
			cs := dmi.DecodeAbstractCS(c.ReadReg(dmi.AddrAbstractCS))
			Expect(cs.DataCount).To(Equal(uint32(2)))
			Expect(cs.ProgBufSize).To(Equal(uint32(4)))
			Expect(cs.Busy).To(BeFalse())

			info := dmi.DecodeHartInfo(c.ReadReg(dmi.AddrHartInfo))
			Expect(info.DataAddr).To(Equal(uint32(AddrData)))
			Expect(info.DataSize).To(Equal(uint32(2)))

			Expect(c.ReadReg(dmi.AddrSBCS)).To(Equal(uint32(0)))
		})

		It("should report a running hart", func() {
			s := status()

			Expect(s.AllRunning).To(BeTrue())
			Expect(s.AnyRunning).To(BeTrue())
			Expect(s.Authenticated).To(BeTrue())
			Expect(s.Version).To(Equal(uint32(dmi.DMStatusVersion)))
		})

		It("should report a halted hart", func() {
			notify(AddrHalted, 0)

			Expect(status().AllHalted).To(BeTrue())
			Expect(status().AnyRunning).To(BeFalse())
		})

		It("should report unavailable before halted", func() {
			notify(AddrHalted, 0)
			c.SetUnavailable(0, true)

			Expect(status().AllUnavail).To(BeTrue())
			Expect(status().AnyHalted).To(BeFalse())
		})

		It("should ignore availability of a hart that does not exist", func() {
			Expect(func() { c.SetUnavailable(9, true) }).NotTo(Panic())
			Expect(func() { c.SetUnavailable(-1, true) }).NotTo(Panic())
			Expect(status().AnyUnavail).To(BeFalse())
		})

		It("should report a nonexistent hart", func() {
			activate(7)

			s := status()
			Expect(s.AllNonExistent).To(BeTrue())
			Expect(s.AnyNonExistent).To(BeTrue())
			Expect(s.AnyRunning).To(BeFalse())
		})

		It("should summarize halted harts", func() {
			notify(AddrHalted, 1)
			notify(AddrHalted, 3)

			Expect(c.ReadReg(dmi.AddrHaltRegs)).To(Equal(uint32(0b1010)))
			Expect(c.ReadReg(dmi.AddrHaltSum)).To(Equal(uint32(1)))
		})

		It("should refuse a command on a running hart", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			Expect(c.State()).To(Equal(StateCheckGenerate))

			c.Step()

			Expect(c.State()).To(Equal(StateWaiting))
			Expect(cmdErr()).To(Equal(dmi.CmdErrHaltResume))
			Expect(flags(0)).To(Equal(uint8(0)))
			Expect(recorder.gos).To(BeEmpty())
		})

		DescribeTable("unsupported commands",
			func(cmd dmi.Command) {
				notify(AddrHalted, 0)
				c.WriteReg(dmi.AddrCommand, cmd.Encode())
				c.Step()

				Expect(c.State()).To(Equal(StateWaiting))
				Expect(cmdErr()).To(Equal(dmi.CmdErrNotSupported))
			},
			Entry("quick access", dmi.Command{CmdType: dmi.CmdQuickAccess}),
			Entry("64-bit access",
				dmi.Command{Size: 3, RegNo: dmi.RegNoGPR0}),
			Entry("CSR", dmi.Command{Size: dmi.Size32, RegNo: 0x0300}),
			Entry("FPR", dmi.Command{Size: dmi.Size32, RegNo: 0x1020}),
		)

		It("should prefer unsupported over halt/resume", func() {
			c.WriteReg(dmi.AddrCommand,
				dmi.Command{Size: dmi.Size32, RegNo: 0x1020}.Encode())
			c.Step()

			Expect(cmdErr()).To(Equal(dmi.CmdErrNotSupported))
		})

		It("should keep errors sticky until cleared", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			Expect(cmdErr()).To(Equal(dmi.CmdErrHaltResume))

			notify(AddrHalted, 0)
			c.WriteReg(dmi.AddrCommand, readGPR(9))
			Expect(c.State()).To(Equal(StateWaiting))
			Expect(c.ReadReg(dmi.AddrCommand)).To(Equal(readGPR(8)))

			c.WriteReg(dmi.AddrAbstractCS,
				dmi.AbstractCS{CmdErr: 7}.Encode())
			Expect(cmdErr()).To(Equal(dmi.CmdErrNone))

			c.WriteReg(dmi.AddrCommand, readGPR(9))
			Expect(c.State()).To(Equal(StateCheckGenerate))
		})

		It("should not change anything when abstractcs is read", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()

			before := c.ReadReg(dmi.AddrAbstractCS)
			for i := 0; i < 3; i++ {
				Expect(c.ReadReg(dmi.AddrAbstractCS)).To(Equal(before))
			}

			Expect(cmdErr()).To(Equal(dmi.CmdErrHaltResume))
		})

		It("should mask auto-repeat bits to existing words", func() {
			c.WriteReg(dmi.AddrAbstractAuto, 0xffffffff)

			a := dmi.DecodeAbstractAuto(c.ReadReg(dmi.AddrAbstractAuto))
			Expect(a.AutoExecData).To(Equal(uint32(0b11)))
			Expect(a.AutoExecProgBuf).To(Equal(uint32(0b1111)))
		})

		It("should serve the implicit ebreak after the program buffer", func() {
			Expect(loadWord(AddrProgBuf + 16)).To(Equal(rv.EBREAK))
			Expect(store(AddrProgBuf+16, word(0))).To(BeFalse())
		})

		It("should let the hart access the program buffer and data", func() {
			Expect(store(AddrProgBuf+4, word(0x11))).To(BeTrue())
			Expect(store(AddrData, word(0x22))).To(BeTrue())

			Expect(c.ReadReg(dmi.ProgBufAddr(1))).To(Equal(uint32(0x11)))
			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(0x22)))
		})

		It("should serve the rom", func() {
			Expect(loadWord(AddrROM + 4)).To(Equal(rv.EBREAK))
		})

		It("should deny accesses outside the map", func() {
			_, ok := c.HartLoad(0x0, 4)
			Expect(ok).To(BeFalse())

			_, ok = c.HartLoad(AddrData+8, 4)
			Expect(ok).To(BeFalse())

			Expect(store(AddrWhereTo, word(0))).To(BeFalse())
			Expect(store(AddrFlags, []byte{1})).To(BeFalse())
			Expect(store(AddrROM, word(0))).To(BeFalse())
		})

		It("should panic on a notification from an unknown hart", func() {
			Expect(func() { notify(AddrHalted, 9) }).To(Panic())
		})
	})

	Context("when executing a command", func() {
		BeforeEach(func() {
			activate(0)
			notify(AddrHalted, 0)
		})

		It("should read a register end to end", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			Expect(c.State()).To(Equal(StateCheckGenerate))
			Expect(c.Busy()).To(BeTrue())

			Expect(c.Step()).To(BeTrue())
			Expect(c.State()).To(Equal(StateAbstract))
			Expect(flags(0)).To(Equal(FlagGo))
			Expect(flags(1)).To(Equal(uint8(0)))
			Expect(loadWord(AddrWhereTo)).To(Equal(WhereTo(GoAbstract)))
			Expect(loadWord(AddrAbstract)).To(Equal(uint32(0x38802023)))
			Expect(loadWord(AddrAbstract + 4)).To(Equal(rv.EBREAK))

			notify(AddrHalted, 0)
			Expect(c.State()).To(Equal(StateAbstract))

			notify(AddrGoing, 0)
			Expect(flags(0)).To(Equal(uint8(0)))

			Expect(store(AddrData, word(0xdeadbeef))).To(BeTrue())
			notify(AddrHalted, 0)

			Expect(c.State()).To(Equal(StateWaiting))
			Expect(cmdErr()).To(Equal(dmi.CmdErrNone))
			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(0xdeadbeef)))
		})

		It("should run the program buffer before and after", func() {
			c.WriteReg(dmi.AddrCommand, dmi.Command{
				Size:     dmi.Size32,
				PreExec:  true,
				PostExec: true,
				RegNo:    0x1001,
			}.Encode())
			c.Step()

			Expect(c.State()).To(Equal(StatePreExec))
			Expect(loadWord(AddrWhereTo)).To(Equal(WhereTo(GoProgBuf)))

			notify(AddrGoing, 0)
			notify(AddrHalted, 0)

			Expect(c.State()).To(Equal(StateAbstract))
			Expect(flags(0)).To(Equal(FlagGo))
			Expect(loadWord(AddrWhereTo)).To(Equal(WhereTo(GoAbstract)))
			Expect(loadWord(AddrAbstract + 4)).To(Equal(rv.NOP))

			notify(AddrGoing, 0)
			Expect(c.State()).To(Equal(StatePostExec))

			notify(AddrHalted, 0)
			Expect(c.State()).To(Equal(StateWaiting))
			Expect(cmdErr()).To(Equal(dmi.CmdErrNone))

			var visited []State
			for _, t := range recorder.transitions {
				visited = append(visited, t.To)
			}

			Expect(visited).To(Equal([]State{
				StateCheckGenerate,
				StatePreExec,
				StateAbstract,
				StatePostExec,
				StateWaiting,
			}))
		})

		It("should report an exception", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			notify(AddrGoing, 0)
			notify(AddrException, 0)

			Expect(c.State()).To(Equal(StateWaiting))
			Expect(cmdErr()).To(Equal(dmi.CmdErrException))
		})

		It("should refuse accesses while busy", func() {
			c.WriteReg(dmi.DataAddr(0), 5)
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()

			c.WriteReg(dmi.AddrCommand, readGPR(9))
			c.WriteReg(dmi.DataAddr(0), 6)
			c.WriteReg(dmi.AddrAbstractAuto, 1)

			Expect(cmdErr()).To(Equal(dmi.CmdErrBusy))
			Expect(c.ReadReg(dmi.AddrCommand)).To(Equal(readGPR(8)))
			Expect(c.ReadReg(dmi.AddrAbstractAuto)).To(Equal(uint32(0)))
			Expect(c.State()).To(Equal(StateAbstract))

			notify(AddrGoing, 0)
			notify(AddrHalted, 0)
			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(5)))
		})

		It("should not clear errors while busy", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			c.WriteReg(dmi.AddrCommand, readGPR(8))

			c.WriteReg(dmi.AddrAbstractCS, dmi.AbstractCS{CmdErr: 7}.Encode())

			Expect(cmdErr()).To(Equal(dmi.CmdErrBusy))
		})

		It("should keep busy above exception", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			c.WriteReg(dmi.DataAddr(1), 1)
			notify(AddrGoing, 0)
			notify(AddrException, 0)

			Expect(cmdErr()).To(Equal(dmi.CmdErrBusy))
			Expect(recorder.errs).To(Equal([]dmi.CmdErr{dmi.CmdErrBusy}))
		})

		It("should re-arm the command on an auto-repeat access", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			notify(AddrGoing, 0)
			notify(AddrHalted, 0)

			c.WriteReg(dmi.AddrAbstractAuto,
				dmi.AbstractAuto{AutoExecData: 1}.Encode())

			for i := 0; i < 3; i++ {
				c.ReadReg(dmi.DataAddr(0))
				Expect(c.State()).To(Equal(StateCheckGenerate))

				c.Step()
				notify(AddrGoing, 0)
				notify(AddrHalted, 0)
				Expect(c.State()).To(Equal(StateWaiting))
			}

			c.ReadReg(dmi.DataAddr(1))
			Expect(c.State()).To(Equal(StateWaiting))

			Expect(recorder.gos).To(HaveLen(4))
		})

		It("should panic on a go acknowledgement from another hart", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()

			Expect(func() { notify(AddrGoing, 1) }).To(Panic())
		})

		It("should finish a command on its hart when the selection moves", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			Expect(c.State()).To(Equal(StateAbstract))

			activate(1)

			Expect(c.Selected()).To(Equal(uint32(1)))
			Expect(c.Target()).To(Equal(uint32(0)))
			Expect(flags(0)).To(Equal(FlagGo))
			Expect(flags(1)).To(Equal(uint8(0)))

			Expect(func() { notify(AddrGoing, 0) }).NotTo(Panic())
			Expect(store(AddrData, word(0x1234))).To(BeTrue())
			notify(AddrHalted, 0)

			Expect(c.State()).To(Equal(StateWaiting))
			Expect(c.Busy()).To(BeFalse())
			Expect(cmdErr()).To(Equal(dmi.CmdErrNone))
			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(0x1234)))
		})

		It("should take an exception from the running hart after a new selection", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			activate(2)

			notify(AddrGoing, 0)
			notify(AddrException, 0)

			Expect(c.State()).To(Equal(StateWaiting))
			Expect(cmdErr()).To(Equal(dmi.CmdErrException))
		})

		It("should track halts of other harts without moving", func() {
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			notify(AddrGoing, 0)
			notify(AddrHalted, 2)

			Expect(c.State()).To(Equal(StateAbstract))
			Expect(c.Halted(2)).To(BeTrue())
		})

		It("should return to quiescent on deactivation", func() {
			c.WriteReg(dmi.DataAddr(0), 5)
			c.WriteReg(dmi.ProgBufAddr(0), 5)
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()

			c.Apply(crossing.ControlEvent{})

			Expect(c.State()).To(Equal(StateWaiting))
			Expect(c.Busy()).To(BeFalse())
			Expect(c.Active()).To(BeFalse())
			Expect(flags(0)).To(Equal(uint8(0)))
			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(0)))
			Expect(c.ReadReg(dmi.ProgBufAddr(0))).To(Equal(uint32(0)))
			Expect(c.Halted(0)).To(BeFalse())
		})

		It("should reset without losing the selection", func() {
			activate(1)
			c.WriteReg(dmi.DataAddr(0), 5)
			c.Reset()

			Expect(c.Active()).To(BeTrue())
			Expect(c.Selected()).To(Equal(uint32(1)))
			Expect(c.ReadReg(dmi.DataAddr(0))).To(Equal(uint32(0)))
		})
	})

	Context("when resuming", func() {
		BeforeEach(func() {
			activate(0)
		})

		It("should ask a halted hart to resume", func() {
			notify(AddrHalted, 0)
			c.Apply(crossing.ControlEvent{Active: true, ResumeReq: true})

			Expect(flags(0)).To(Equal(FlagResume))
			Expect(loadWord(AddrWhereTo)).To(Equal(WhereTo(GoResume)))
			Expect(status().AnyResumeAck).To(BeFalse())

			notify(AddrResuming, 0)

			Expect(flags(0)).To(Equal(uint8(0)))
			Expect(status().AllResumeAck).To(BeTrue())
			Expect(status().AllRunning).To(BeTrue())
		})

		It("should ignore a resume request for a running hart", func() {
			c.Apply(crossing.ControlEvent{Active: true, ResumeReq: true})

			Expect(flags(0)).To(Equal(uint8(0)))
		})

		It("should ignore a resume request while busy", func() {
			notify(AddrHalted, 0)
			c.WriteReg(dmi.AddrCommand, readGPR(8))
			c.Step()
			c.Apply(crossing.ControlEvent{Active: true, ResumeReq: true})

			Expect(flags(0)).To(Equal(FlagGo))
		})
	})
})
