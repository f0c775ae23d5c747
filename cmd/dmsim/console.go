package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/platform"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Drive the debug module interactively.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		p, _, err := buildPlatform(opts)
		if err != nil {
			return err
		}

		runConsole(platform.NewSession(p))

		return nil
	},
}

var consoleWords = []string{
	"read", "write", "probe", "halt", "resume", "wait", "reset",
	"status", "run", "help", "quit",
}

const consoleHelp = `read <reg>           read a register, by name or address
write <reg> <value>  write a register
probe <reg>          send a request without data
halt [hart]          halt a hart and wait for it
resume [hart]        resume a hart and wait for it
wait <cycles>        let the simulation run
reset                deactivate and activate the debug module
status               decode dmstatus and abstractcs
run <script.yaml>    run a script
quit                 leave the console`

// A consoleCmdLine is a parsed line of the console. Exactly one of its
// actions is set.
type consoleCmdLine struct {
	step   *platform.Step
	script string
	status bool
	help   bool
	quit   bool
}

func parseConsoleLine(line string) (consoleCmdLine, error) {
	var c consoleCmdLine

	words := strings.Fields(line)
	if len(words) == 0 {
		return c, nil
	}

	op, args := strings.ToLower(words[0]), words[1:]

	switch op {
	case "quit", "exit":
		c.quit = true
	case "help", "?":
		c.help = true
	case "status":
		c.status = true
	case "run":
		if len(args) != 1 {
			return c, errors.New("usage: run <script.yaml>")
		}

		c.script = args[0]
	default:
		step, err := parseConsoleStep(op, args)
		if err != nil {
			return c, err
		}

		c.step = &step
	}

	return c, nil
}

func parseConsoleStep(op string, args []string) (platform.Step, error) {
	step := platform.Step{Op: op}

	var err error

	switch op {
	case platform.OpRead, platform.OpProbe:
		if len(args) != 1 {
			return step, fmt.Errorf("usage: %s <reg>", op)
		}

		step.Addr, err = platform.ParseRegAddr(args[0])
	case platform.OpWrite:
		if len(args) != 2 {
			return step, errors.New("usage: write <reg> <value>")
		}

		step.Addr, err = platform.ParseRegAddr(args[0])
		if err == nil {
			step.Data, err = parseUint32(args[1])
		}
	case platform.OpHalt, platform.OpResume:
		if len(args) > 1 {
			return step, fmt.Errorf("usage: %s [hart]", op)
		}

		if len(args) == 1 {
			step.Hart, err = parseUint32(args[0])
		}
	case platform.OpWait:
		if len(args) != 1 {
			return step, errors.New("usage: wait <cycles>")
		}

		step.Cycles, err = strconv.Atoi(args[0])
		if err == nil && step.Cycles <= 0 {
			err = errors.New("cycles must be positive")
		}
	case platform.OpReset:
	default:
		return step, fmt.Errorf("unknown command %q, try help", op)
	}

	return step, err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}

	return uint32(v), nil
}

func runConsole(session *platform.Session) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeConsoleLine)

	for {
		text, err := line.Prompt("dmsim> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return
			}

			slog.Error("error reading line: " + err.Error())

			return
		}

		line.AppendHistory(text)

		quit := execConsoleLine(session, text)
		if quit {
			return
		}
	}
}

func execConsoleLine(session *platform.Session, text string) (quit bool) {
	c, err := parseConsoleLine(text)
	if err != nil {
		fmt.Println("Error: " + err.Error())
		return false
	}

	switch {
	case c.quit:
		return true
	case c.help:
		fmt.Println(consoleHelp)
	case c.status:
		printStatus(session)
	case c.script != "":
		script, err := readScript(c.script)
		if err != nil {
			fmt.Println("Error: " + err.Error())
			return false
		}

		results, err := session.Run(script)
		for _, r := range results {
			fmt.Println(r)
		}

		if err != nil {
			fmt.Println("Error: " + err.Error())
		}
	case c.step != nil:
		fmt.Println(session.Do(*c.step))
	}

	return false
}

func printStatus(session *platform.Session) {
	st := session.Do(platform.Step{
		Op:   platform.OpRead,
		Addr: platform.RegAddr(dmi.AddrDMStatus),
	})
	cs := session.Do(platform.Step{
		Op:   platform.OpRead,
		Addr: platform.RegAddr(dmi.AddrAbstractCS),
	})

	if st.Err != nil || cs.Err != nil {
		fmt.Println("Error: cannot read status")
		return
	}

	fmt.Printf("dmstatus:   %+v\n", dmi.DecodeDMStatus(st.Rsp.Data))
	fmt.Printf("abstractcs: %+v\n", dmi.DecodeAbstractCS(cs.Rsp.Data))
}

func completeConsoleLine(line string) []string {
	var candidates []string

	prefix := strings.ToLower(line)
	for _, w := range consoleWords {
		if strings.HasPrefix(w, prefix) {
			candidates = append(candidates, w)
		}
	}

	return candidates
}
