package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newProcessCommand implements `process [N]` (spec.md §6): ingest up to N
// new frames through the Indexing Pipeline, honoring the Core's
// indexing "may-run" guard (spec.md §5).
func newProcessCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "process [N]",
		Short: "Ingest up to N new frames",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := 0
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid limit %q: %w", args[0], err)
				}
				limit = n
			}

			if !c.core.TryBeginIndexing() {
				return fmt.Errorf("an indexing run is already in progress")
			}
			defer c.core.FinishIndexing()

			ctx, cancel := signalContext()
			defer cancel()

			res, err := c.core.Pipeline.ProcessNew(ctx, limit)
			if err != nil {
				return fmt.Errorf("processing frames: %w", err)
			}
			fmt.Printf("processed=%d skipped=%d failed=%d\n", res.Processed, res.Skipped, res.Failed)
			return nil
		},
	}
}
