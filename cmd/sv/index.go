package main

import (
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/matsen/surveyor/internal/storage"
)

// Column widths for search listings.
const (
	DefaultSearchLimit = 50
	SearchTitleMaxLen  = 70
)

var (
	searchLimit  int
	searchAuthor bool
	searchTitle  bool
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexSearchCmd)

	indexSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Maximum number of results")
	indexSearchCmd.Flags().BoolVar(&searchAuthor, "author", false, "Match author names only (prefix match)")
	indexSearchCmd.Flags().BoolVar(&searchTitle, "title", false, "Match titles only")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the full-text search index",
	Long: `Commands for the SQLite full-text index of the bibliography.

The index is rebuilt from the BibTeX file every time sv starts. Set
index_path to keep a copy on disk for other tools.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the search index from the bibliography",
	Args:  cobra.NoArgs,
	RunE:  runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(false)
	defer a.Close()

	if a.index == nil {
		a.Close()
		exitWithError(ExitDataError, "search index could not be built (see log)")
	}
	count, err := a.index.Count()
	if err != nil {
		a.Close()
		exitWithError(ExitDataError, "counting index: %v", err)
	}

	path := a.cfg.IndexPath
	if path == "" {
		path = storage.MemoryPath
	}
	if jsonOutput {
		outputJSON(IndexResponse{Status: "built", Path: path, References: count})
	} else {
		outputHuman("Indexed %d references (%s)\n", count, path)
	}
	return nil
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, authors, venues and years",
	Long: `Search the bibliography.

Examples:
  sv index search protein folding
  sv index search --author Tim
  sv index search --title "phylogenetic trees" -n 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if searchAuthor && searchTitle {
		exitWithError(ExitError, "--author and --title are mutually exclusive")
	}

	a := mustOpenApp(false)
	defer a.Close()

	if a.index == nil {
		a.Close()
		exitWithError(ExitDataError, "search index could not be built (see log)")
	}

	query := strings.Join(args, " ")
	var hits []storage.Hit
	var err error
	switch {
	case searchAuthor:
		hits, err = a.index.SearchField("author", query, searchLimit)
	case searchTitle:
		hits, err = a.index.SearchField("title", query, searchLimit)
	default:
		hits, err = a.index.Search(query, searchLimit)
	}
	if err != nil {
		a.Close()
		exitWithError(ExitError, "searching: %v", err)
	}

	if jsonOutput {
		results := make([]HitResponse, 0, len(hits))
		for _, h := range hits {
			results = append(results, HitResponse{Key: h.Key, Title: h.Title, Authors: h.Authors, Journal: h.Journal, Year: h.Year})
		}
		outputJSON(results)
		return nil
	}

	if len(hits) == 0 {
		outputHuman("No matches\n")
		return nil
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, h := range hits {
		tbl.AddRow(h.Key, h.Year, truncateString(h.Title, SearchTitleMaxLen))
	}
	outputHuman("%s\n", tbl)
	return nil
}
