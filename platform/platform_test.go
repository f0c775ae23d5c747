package platform

import (
	"bytes"
	"encoding/binary"
	"log"

	"github.com/sarchlab/dmsim/debug"
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/debug/hart"
	"github.com/sarchlab/dmsim/simulation"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// The program buffer holds "sw s0, 0(s1)" and a nop. Reading s0 with
// postexec set stores it to the address held in s1.
const storeScript = `
name: store
steps:
  - op: reset
  - op: halt
    hart: 1
  - op: write
    addr: data0
    data: 0x80000100
  - op: write
    addr: command
    data: 0x00231009
  - op: wait
    cycles: 100
  - op: write
    addr: data0
    data: 0xdeadbeef
  - op: write
    addr: command
    data: 0x00231008
  - op: wait
    cycles: 100
  - op: write
    addr: progbuf0
    data: 0x0084a023
  - op: write
    addr: progbuf1
    data: 0x00000013
  - op: write
    addr: command
    data: 0x00261008
  - op: wait
    cycles: 200
  - op: read
    addr: abstractcs
    expect: 0x0
    mask: 0x1700
  - op: read
    addr: data0
    expect: 0xdeadbeef
`

var _ = Describe("Platform", func() {
	var (
		s *simulation.Simulation
		p *Platform
	)

	BeforeEach(func() {
		config := debug.DefaultConfig()
		config.NumHarts = 2
		config.NumProgBufWords = 2

		s = simulation.MakeBuilder().WithMonitoring(0).Build()
		p = MakeBuilder().
			WithSimulation(s).
			WithConfig(config).
			Build("Platform")
	})

	It("should register every component", func() {
		Expect(p.Harts).To(HaveLen(2))
		Expect(s.GetComponentByName("Platform.Host")).To(BeIdenticalTo(p.Host))
		Expect(s.GetComponentByName("Platform.Hart[1]")).
			To(BeIdenticalTo(p.Harts[1]))
		Expect(s.GetComponentByName("Platform.RAM")).To(BeIdenticalTo(p.RAM))
		Expect(s.GetPortByName("Platform.Hart[0].Port")).
			To(BeIdenticalTo(p.Harts[0].Port()))
		Expect(s.Components()).To(HaveLen(4 + len(p.DM.Components())))
	})

	It("should halt and resume a hart", func() {
		session := NewSession(p)

		r := session.Do(Step{Op: OpReset})
		Expect(r.Err).NotTo(HaveOccurred())

		r = session.Do(Step{Op: OpHalt, Hart: 0})
		Expect(r.Err).NotTo(HaveOccurred())
		Expect(p.Harts[0].InDebugMode()).To(BeTrue())
		Expect(p.Harts[1].InDebugMode()).To(BeFalse())

		r = session.Do(Step{Op: OpResume, Hart: 0})
		Expect(r.Err).NotTo(HaveOccurred())
		Expect(dmi.DecodeDMStatus(r.Rsp.Data).AllRunning).To(BeTrue())
		Expect(p.Harts[0].Stage()).To(Equal(hart.StageRunning))
	})

	It("should report a hart that does not exist", func() {
		session := NewSession(p)
		session.Do(Step{Op: OpReset})

		r := session.Do(Step{Op: OpHalt, Hart: 5})

		Expect(r.Err).To(MatchError(ContainSubstring("does not exist")))
	})

	It("should store a register to memory with the program buffer", func() {
		script, err := ParseScript([]byte(storeScript))
		Expect(err).NotTo(HaveOccurred())

		results, err := NewSession(p).Run(script)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(script.Steps)))
		Expect(p.Harts[1].Reg(8)).To(Equal(uint32(0xdeadbeef)))

		data, err := p.RAM.Storage.Read(0x100, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(binary.LittleEndian.Uint32(data)).To(Equal(uint32(0xdeadbeef)))
		Expect(s.GetMonitor()).NotTo(BeNil())
	})

	It("should stop at the first mismatch", func() {
		expect := uint32(0x1234)
		script := Script{Steps: []Step{
			{Op: OpReset},
			{Op: OpWrite, Addr: RegAddr(dmi.DataAddr(0)), Data: 0x55},
			{Op: OpRead, Addr: RegAddr(dmi.DataAddr(0)), Expect: &expect},
			{Op: OpReset},
		}}

		results, err := NewSession(p).Run(script)

		Expect(err).To(MatchError(ContainSubstring("expected 0x00001234")))
		Expect(results).To(HaveLen(3))
		Expect(results[2].Rsp.Data).To(Equal(uint32(0x55)))
	})

	It("should collect statistics and logs", func() {
		buf := new(bytes.Buffer)
		p.AttachLoggers(log.New(buf, "", 0), LogOptions{FSM: true, Msgs: true})
		stats := p.CollectStats()
		session := NewSession(p)

		results, err := session.Run(Script{Steps: []Step{
			{Op: OpReset},
			{Op: OpHalt, Hart: 0},
			{Op: OpWrite, Addr: RegAddr(dmi.AddrCommand), Data: dmi.Command{
				Size:     dmi.Size32,
				Transfer: true,
				RegNo:    dmi.RegNoGPR0 + 8,
			}.Encode()},
			{Op: OpWait, Cycles: 100},
		}})

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		Expect(stats.Commands()).To(Equal(uint64(1)))
		Expect(stats.Requests()).To(BeNumerically(">=", 4))
		Expect(buf.String()).To(ContainSubstring("Platform.Host.Port"))

		report := new(bytes.Buffer)
		stats.Report(report)
		Expect(report.String()).To(ContainSubstring("commands: 1,"))
	})
})
