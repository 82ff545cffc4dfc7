// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/search"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Fetch pages and print their visible text",
	Long: `Fetch downloads each URL and reduces it to whitespace-normalized visible
text, cut at the configured character limit. URLs may be given as arguments
or read from a query file written by search --save. Pages that cannot be
fetched are reported and produce no text.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("from", "", "read URLs from a YAML query file")
	fetchCmd.Flags().Int("max-chars", 0, "character limit per page (default from config)")
	fetchCmd.Flags().Bool("json", false, "output documents as JSON")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	urls := args
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return err
		}
		urls = append(urls, qf.URLs()...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("provide one or more URLs or a query file with --from")
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	f, err := e.fetcher(cmd.Context())
	if err != nil {
		return err
	}

	maxChars, _ := cmd.Flags().GetInt("max-chars")
	if maxChars == 0 {
		maxChars = e.cfg.Fetch.MaxChars
	}

	docs := f.FetchAll(cmd.Context(), urls, e.cfg.Fetch.Timeout, maxChars, e.cfg.Fetch.Workers)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}
	return printDocuments(docs)
}

func printDocuments(docs []types.FetchedDocument) error {
	failed := 0
	for _, d := range docs {
		if d.Text == "" {
			failed++
			fmt.Fprintf(os.Stderr, "  [failed] %s\n", d.URL)
			continue
		}
		suffix := ""
		if d.Truncated {
			suffix = " (truncated)"
		}
		fmt.Printf("== %s%s\n%s\n\n", d.URL, suffix, d.Text)
	}
	fmt.Fprintf(os.Stderr, "Fetched %d of %d page(s)\n", len(docs)-failed, len(docs))
	if failed == len(docs) {
		return fmt.Errorf("no page could be fetched")
	}
	return nil
}
