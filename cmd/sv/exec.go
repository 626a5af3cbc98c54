package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/surveyor/internal/console"
)

var execTopic int

func init() {
	execCmd.Flags().IntVarP(&execTopic, "topic", "t", 0, "Select this topic before running the command")
	rootCmd.AddCommand(execCmd)
}

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run one console command and exit",
	Long: `Run a single console command without entering the interactive loop.

Examples:
  sv exec show Smith2020
  sv exec list topics
  sv exec --topic 2 show idea 1
  sv exec search protein folding`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(false)
	defer a.Close()

	if execTopic != 0 {
		if err := a.sess.Select(execTopic); err != nil {
			a.fatal(err)
		}
	}

	err := a.console.Execute(strings.Join(args, " "))
	switch {
	case err == nil, errors.Is(err, console.ErrQuit):
		return nil
	case console.IsFatal(err):
		a.fatal(err)
	default:
		a.Close()
		exitWithError(ExitError, "%v", err)
	}
	return nil
}
