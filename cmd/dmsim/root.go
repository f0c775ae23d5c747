package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/pkg/browser"
	"github.com/sarchlab/dmsim/datarecording"
	"github.com/sarchlab/dmsim/platform"
	"github.com/sarchlab/dmsim/simulation"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var opts = loadOptions()

var rootCmd = &cobra.Command{
	Use:   "dmsim",
	Short: "dmsim simulates a debug module and the harts that it controls.",
	Long: `dmsim simulates a debug module, the harts that it controls, and ` +
		`a main memory. A debugger drives the debug module through its ` +
		`control bus, either from a script (run) or interactively (console).`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&opts.Harts, "harts", opts.Harts, "number of harts")
	flags.IntVar(&opts.DataWords, "data-words", opts.DataWords,
		"number of abstract data words")
	flags.IntVar(&opts.ProgBufWords, "progbuf-words", opts.ProgBufWords,
		"number of program buffer words")
	flags.BoolVar(&opts.Trace, "trace", opts.Trace,
		"record a trace database")
	flags.StringVar(&opts.Output, "output", opts.Output,
		"name of the trace database, without suffix")
	flags.StringVar(&opts.TraceDB, "trace-db", opts.TraceDB,
		"trace into a SQLite path or a clickhouse:// DSN")
	flags.BoolVar(&opts.Monitor, "monitor", opts.Monitor,
		"serve the monitor while simulating")
	flags.IntVar(&opts.MonitorPort, "monitor-port", opts.MonitorPort,
		"port of the monitor, 0 for a random one")
	flags.BoolVar(&opts.OpenMonitor, "open-monitor", false,
		"open the monitor in a browser")
	flags.BoolVar(&opts.Stats, "stats", false,
		"report request and command statistics at the end")
	flags.BoolVar(&opts.Logs.Events, "log-events", false,
		"log every event handled by the engine")
	flags.BoolVar(&opts.Logs.Msgs, "log-msgs", false,
		"log every message that crosses a port")
	flags.BoolVar(&opts.Logs.FSM, "log-fsm", false,
		"log the transitions of the abstract command state machine")

	rootCmd.AddCommand(runCmd, consoleCmd)
}

// Execute runs the command line and exits through atexit, so that the trace
// database is flushed.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// buildPlatform builds the platform that the options describe. The returned
// stats are nil unless they are requested.
func buildPlatform(o options) (*platform.Platform, *platform.Stats, error) {
	config, err := o.debugConfig()
	if err != nil {
		return nil, nil, err
	}

	b := simulation.MakeBuilder()

	switch {
	case o.TraceDB != "" && o.Output != "":
		return nil, nil, errors.New("--output and --trace-db are exclusive")
	case o.TraceDB != "":
		recorder, err := datarecording.NewFromDSN(o.TraceDB)
		if err != nil {
			return nil, nil, err
		}

		b = b.WithDataRecorder(recorder)
	case o.Trace:
		b = b.WithTracing().WithOutputFileName(o.Output)
	}

	if o.Monitor || o.OpenMonitor {
		b = b.WithMonitoring(o.MonitorPort)
	}

	s := b.Build()
	atexit.Register(s.Terminate)

	s.AddProperty("harts", fmt.Sprint(config.NumHarts))
	s.AddProperty("data_words", fmt.Sprint(config.NumDataWords))
	s.AddProperty("progbuf_words", fmt.Sprint(config.NumProgBufWords))

	p := platform.MakeBuilder().
		WithSimulation(s).
		WithConfig(config).
		Build("Platform")
	p.AttachLoggers(log.New(os.Stderr, "", 0), o.Logs)

	port := s.StartMonitor()
	if port != 0 {
		url := fmt.Sprintf("http://localhost:%d", port)
		fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

		if o.OpenMonitor {
			err = browser.OpenURL(url)
			if err != nil {
				fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
			}
		}
	}

	var stats *platform.Stats
	if o.Stats {
		stats = p.CollectStats()
		atexit.Register(func() { stats.Report(os.Stdout) })
	}

	return p, stats, nil
}
