package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newDateCommand implements `date <YYYY-MM-DD>` (spec.md §6).
func newDateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "date <YYYY-MM-DD>",
		Short: "All entries for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printEntries(c.core.Entries.GetByDate(args[0]))
			return nil
		},
	}
}

// newAppsCommand implements `apps` (spec.md §6).
func newAppsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "Enumerate distinct app names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := c.core.Index.ListApps()
			if err != nil {
				return fmt.Errorf("listing apps: %w", err)
			}
			if len(apps) == 0 {
				fmt.Println("no apps indexed")
				return nil
			}
			fmt.Println(strings.Join(apps, "\n"))
			return nil
		},
	}
}

// newListDatesCommand implements `list-dates` (spec.md §6).
func newListDatesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list-dates",
		Short: "Enumerate distinct dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dates := c.core.Entries.ListDates()
			if len(dates) == 0 {
				fmt.Println("no dates indexed")
				return nil
			}
			fmt.Println(strings.Join(dates, "\n"))
			return nil
		},
	}
}
