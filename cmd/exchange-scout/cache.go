// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/pagecache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired pages from the cache",
	RunE:  runCachePrune,
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Fetch.CachePath == "" {
		return fmt.Errorf("fetch.cache_path is not set; the page cache is disabled")
	}
	store, err := pagecache.Open(e.cfg.Fetch.CachePath, e.cfg.Fetch.CacheTTL)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Prune(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d expired page(s) from %s\n", n, e.cfg.Fetch.CachePath)
	return nil
}
