package main

import (
	"github.com/sarchlab/dmsim/debug"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Options", func() {
	env := func(m map[string]string) func(string) string {
		return func(key string) string { return m[key] }
	}

	It("should fall back to the default configuration", func() {
		o := optionsFromEnv(env(nil))
		config := debug.DefaultConfig()

		Expect(o.Harts).To(Equal(config.NumHarts))
		Expect(o.DataWords).To(Equal(config.NumDataWords))
		Expect(o.ProgBufWords).To(Equal(config.NumProgBufWords))
		Expect(o.Trace).To(BeFalse())
		Expect(o.Monitor).To(BeFalse())
	})

	It("should read the environment", func() {
		o := optionsFromEnv(env(map[string]string{
			envHarts:        "4",
			envDataWords:    "3",
			envProgBufWords: "0",
			envTrace:        "true",
			envMonitorPort:  "8080",
			envTraceDB:      "clickhouse://localhost:9000/traces",
		}))

		Expect(o.Harts).To(Equal(4))
		Expect(o.DataWords).To(Equal(3))
		Expect(o.ProgBufWords).To(Equal(0))
		Expect(o.Trace).To(BeTrue())
		Expect(o.Monitor).To(BeTrue())
		Expect(o.MonitorPort).To(Equal(8080))
		Expect(o.TraceDB).To(Equal("clickhouse://localhost:9000/traces"))
	})

	It("should ignore malformed numbers", func() {
		o := optionsFromEnv(env(map[string]string{envHarts: "many"}))

		Expect(o.Harts).To(Equal(debug.DefaultConfig().NumHarts))
	})

	It("should reject an invalid configuration", func() {
		o := optionsFromEnv(env(nil))
		o.Harts = 0

		_, err := o.debugConfig()

		Expect(err).To(MatchError(ContainSubstring("invalid configuration")))
	})
})
