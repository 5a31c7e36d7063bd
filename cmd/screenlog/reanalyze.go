package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"screenlog/internal/reanalyzer"
)

// newReanalyzeCommand implements `reanalyze` (spec.md §6): re-extract a
// targeted set of already-stored entries through the current Rules Store
// state. `--all` confirms with the user first (manifoldco/promptui),
// since it touches every stored entry.
func newReanalyzeCommand(c *cli) *cobra.Command {
	var date, from, to string
	var files []string
	var all bool

	cmd := &cobra.Command{
		Use:   "reanalyze",
		Short: "Re-extract targeted entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && date == "" && from == "" && to == "" && len(files) == 0 {
				return fmt.Errorf("reanalyze requires one of --date, --from/--to, --files, or --all")
			}

			filter := reanalyzer.Filter{
				All:       all,
				Date:      date,
				DateStart: from,
				DateEnd:   to,
				Filenames: files,
			}

			if all {
				ok, err := confirm("Reanalyze every stored entry?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("aborted")
					return nil
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			res, err := c.core.Reanalyzer.Reanalyze(ctx, filter, func(filename, status string) {
				fmt.Printf("%s: %s\n", filename, status)
			})
			if err != nil {
				return fmt.Errorf("reanalyzing: %w", err)
			}
			fmt.Printf("total=%d reanalyzed=%d skipped=%d failed=%d\n", res.Total, res.Reanalyzed, res.Skipped, res.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Reanalyze entries for one date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "Start of a date range")
	cmd.Flags().StringVar(&to, "to", "", "End of a date range")
	cmd.Flags().StringSliceVar(&files, "files", nil, "Reanalyze specific filenames")
	cmd.Flags().BoolVar(&all, "all", false, "Reanalyze every stored entry")
	return cmd
}

// confirm prompts the user for a yes/no answer, defaulting to no.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	if err != nil {
		// promptui returns ErrAbort on "n"; treat any non-yes answer as "no".
		return false, nil
	}
	return true, nil
}
