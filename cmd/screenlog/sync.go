package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSyncCommand implements `sync` (spec.md §6): re-index every Activity
// Store entry into the Search Index without touching the JSON source of
// truth, recovering from an index that drifted behind the store.
func newSyncCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync JSON entries into the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := c.core.Entries.Load()
			for _, e := range entries {
				if err := c.core.Index.IndexEntry(e); err != nil {
					return fmt.Errorf("indexing %s: %w", e.Filename, err)
				}
			}
			fmt.Printf("synced %d entries\n", len(entries))
			return nil
		},
	}
}

// newRebuildCommand implements `rebuild` (spec.md §6): clear the index,
// re-insert every entry from scratch, then rebuild the FTS5 tables.
func newRebuildCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search index from scratch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.core.Index.Clear(); err != nil {
				return fmt.Errorf("clearing index: %w", err)
			}
			entries := c.core.Entries.Load()
			for _, e := range entries {
				if err := c.core.Index.IndexEntry(e); err != nil {
					return fmt.Errorf("indexing %s: %w", e.Filename, err)
				}
			}
			if err := c.core.Index.RebuildIndex(); err != nil {
				return fmt.Errorf("rebuilding fts: %w", err)
			}
			fmt.Printf("rebuilt index with %d entries\n", len(entries))
			return nil
		},
	}
}
