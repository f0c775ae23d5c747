package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/dmsim/platform"
	"github.com/spf13/cobra"
)

var quiet bool

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Run a debugger script against a fresh platform.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		script, err := readScript(args[0])
		if err != nil {
			return err
		}

		p, _, err := buildPlatform(opts)
		if err != nil {
			return err
		}

		results, err := platform.NewSession(p).Run(script)

		if !quiet {
			for _, r := range results {
				fmt.Println(r)
			}
		}

		return err
	},
}

func init() {
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"only report the step that fails")
}

func readScript(path string) (platform.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return platform.Script{}, err
	}

	script, err := platform.ParseScript(data)
	if err != nil {
		return script, fmt.Errorf("%s: %w", path, err)
	}

	if script.Name == "" {
		script.Name = path
	}

	return script, nil
}
