// Package main provides the sv CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Global flags
var (
	jsonOutput  bool
	verbose     bool
	flagBib     string
	flagTopics  string
	flagPDFRoot string
	flagStyle   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sv",
	Short: "Research notes and bibliography console",
	Long: `sv loads a BibTeX database and a folder of topic-<slug>.md notes and
opens an interactive console to browse topics, ideas and citations.

Inside topic notes, cite papers with [@citation_key] and start an idea
with a level-3 heading (### Idea title). Type 'help' in the console for
the command list.

Configuration lives in ~/.config/surveyor/config.yml and can be
overridden with SURVEYOR_* environment variables (a .env file in the
working directory is honoured) or the flags below.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConsole,
}

func init() {
	// Load .env file if present (for SURVEYOR_* overrides)
	_ = godotenv.Load()

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Use JSON output for non-interactive commands")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	flags.StringVar(&flagBib, "bib", "", "BibTeX database (overrides bib_path)")
	flags.StringVar(&flagTopics, "topics", "", "Topics directory (overrides topics_path)")
	flags.StringVar(&flagPDFRoot, "pdf-root", "", "PDF folder (overrides pdf_root)")
	flags.StringVar(&flagStyle, "style", "", "Citation marker style: numbered or keyed")
	rootCmd.Version = Version
}

func runConsole(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(true)
	defer a.Close()

	if err := a.console.Run(cmd.InOrStdin()); err != nil {
		a.fatal(err)
	}
	return nil
}
