package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/dmsim/debug"
	"github.com/sarchlab/dmsim/platform"
)

// Environment variables that set the default value of the flags. They can
// also be placed in a .env file in the working directory.
const (
	envHarts        = "DMSIM_HARTS"
	envDataWords    = "DMSIM_DATA_WORDS"
	envProgBufWords = "DMSIM_PROGBUF_WORDS"
	envTrace        = "DMSIM_TRACE"
	envTraceDB      = "DMSIM_TRACE_DB"
	envMonitorPort  = "DMSIM_MONITOR_PORT"
)

type options struct {
	Harts        int
	DataWords    int
	ProgBufWords int

	Trace   bool
	Output  string
	TraceDB string

	Monitor     bool
	MonitorPort int
	OpenMonitor bool

	Stats bool
	Logs  platform.LogOptions
}

func loadOptions() options {
	_ = godotenv.Load()

	return optionsFromEnv(os.Getenv)
}

func optionsFromEnv(getenv func(string) string) options {
	config := debug.DefaultConfig()

	o := options{
		Harts:        envInt(getenv, envHarts, config.NumHarts),
		DataWords:    envInt(getenv, envDataWords, config.NumDataWords),
		ProgBufWords: envInt(getenv, envProgBufWords, config.NumProgBufWords),
		MonitorPort:  envInt(getenv, envMonitorPort, 0),
	}

	o.Monitor = getenv(envMonitorPort) != ""
	o.TraceDB = getenv(envTraceDB)

	trace, err := strconv.ParseBool(getenv(envTrace))
	o.Trace = err == nil && trace

	return o
}

func envInt(getenv func(string) string, key string, fallback int) int {
	v := getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", key, v, err)
		return fallback
	}

	return n
}

func (o options) debugConfig() (debug.Config, error) {
	config := debug.DefaultConfig()
	config.NumHarts = o.Harts
	config.NumDataWords = o.DataWords
	config.NumProgBufWords = o.ProgBufWords

	err := config.Validate()
	if err != nil {
		return config, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
