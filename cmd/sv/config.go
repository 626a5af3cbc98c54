package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/surveyor/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set values in ~/.config/surveyor/config.yml.

Usage:
  sv config                          # Show all config
  sv config bib-path                 # Get specific value
  sv config bib-path ~/library.bib   # Set value
  sv config pdf-reader zathura       # Set PDF reader

Keys:
  bib-path     BibTeX database exported by your reference manager
  topics-path  Directory holding topic-<slug>.md notes
  pdf-root     Folder of "<title> - <year>.pdf" files
  pdf-reader   PDF reader preference (system, skim, preview, zathura, evince, okular)
  style        Citation markers: numbered or keyed
  log-file     Log file path (default ~/.config/surveyor/surveyor.log)
  index-path   SQLite search index (default: in memory)
  watch        Reload automatically when sources change (true/false)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := config.Path()
	cfg, err := config.LoadFile(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		if jsonOutput {
			outputJSON(cfg)
			return nil
		}
		outputHuman("# %s\n", path)
		for _, key := range config.Keys() {
			value, _ := cfg.Get(key)
			outputHuman("%-12s %s\n", key+":", value)
		}
		return nil
	}

	// One arg: get specific value
	key := args[0]
	if len(args) == 1 {
		value, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{config.NormalizeKey(key): value})
		} else {
			fmt.Println(value)
		}
		return nil
	}

	// Two args: set value
	if err := cfg.Set(key, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(path); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	value, _ := cfg.Get(key)
	if jsonOutput {
		outputJSON(UpdateResponse{Status: "updated", Key: config.NormalizeKey(key), Value: value})
	} else {
		outputHuman("Set %s = %s\n", config.NormalizeKey(key), value)
	}
	return nil
}
