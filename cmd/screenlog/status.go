package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCommand implements `status` (spec.md §6): print counts, cursor,
// and index stats.
func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print counts, cursor, index stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			indexed, err := c.core.Index.Count()
			if err != nil {
				return fmt.Errorf("counting index: %w", err)
			}

			cursor := "none"
			if cur := c.core.Entries.Cursor(); cur != nil {
				cursor = fmt.Sprintf("%d", *cur)
			}

			fmt.Printf("entries:      %d\n", c.core.Entries.Len())
			fmt.Printf("indexed:      %d\n", indexed)
			fmt.Printf("cursor:       %s\n", cursor)
			fmt.Printf("phash store:  %d\n", c.core.Dedup.Len())
			fmt.Printf("rule changes: %d\n", len(c.core.Rules.History()))
			fmt.Printf("indexing:     %t\n", c.core.IsIndexing())

			if lu := c.core.Profile.LastUpdate(); !lu.IsZero() {
				fmt.Printf("profile updated: %s\n", lu.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("profile updated: never")
			}
			return nil
		},
	}
}
