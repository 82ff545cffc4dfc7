// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [queries...]",
	Short: "Search the web and print candidate pages",
	Long: `Search runs each query against the configured web search backend
(DuckDuckGo or Google Programmable Search). Results are merged in query
order with duplicate URLs removed. Use --save to write a query file that
the fetch subcommand can read.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "results per query, 1..15 (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the results to a YAML query file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	gw, err := e.gateway()
	if err != nil {
		return err
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults == 0 {
		maxResults = e.cfg.Search.MaxResults
	}

	results, errs := gw.SearchAll(cmd.Context(), args, maxResults, e.cfg.Search.Workers)
	for _, err := range errs {
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if len(results) == 0 {
		if err := errors.Join(errs...); err != nil {
			return err
		}
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		qf := search.QueryFile{
			Query:      args[0],
			Backend:    string(e.cfg.Search.Backend),
			MaxResults: search.ClampResults(maxResults),
			Results:    results,
		}
		if err := search.WriteQueryFile(path, qf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d results to %s\n", len(results), path)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(results, os.Stdout)
	}
	search.FormatTable(results, os.Stdout)
	return nil
}
