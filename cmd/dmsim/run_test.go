package main

import (
	"github.com/sarchlab/dmsim/platform"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Run", func() {
	It("should run the sample script", func() {
		script, err := readScript("scripts/read_gpr.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(script.Name).To(Equal("read_gpr"))

		o := optionsFromEnv(func(string) string { return "" })
		o.Stats = true
		p, stats, err := buildPlatform(o)
		Expect(err).NotTo(HaveOccurred())

		results, err := platform.NewSession(p).Run(script)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(script.Steps)))
		Expect(stats.Commands()).To(Equal(uint64(2)))
	})

	It("should refuse two trace databases", func() {
		o := optionsFromEnv(func(string) string { return "" })
		o.Output = "trace"
		o.TraceDB = "clickhouse://localhost:9000/traces"

		_, _, err := buildPlatform(o)

		Expect(err).To(MatchError(ContainSubstring("exclusive")))
	})

	It("should report a missing script", func() {
		_, err := readScript("scripts/missing.yaml")

		Expect(err).To(HaveOccurred())
	})
})
