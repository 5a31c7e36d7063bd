package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"screenlog/internal/domain"
)

// newSearchCommand implements `search <query> [--debug]` (spec.md §6):
// agentic search through the Chat Facade's tools rather than a direct FTS
// query, so rule-aware tool selection (search_combined, search_by_app,
// ...) drives the result the way a chat user would get it.
func newSearchCommand(c *cli) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Agentic search using tools",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			res, err := c.core.Chat.Chat(ctx, strings.Join(args, " "), nil)
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}
			if debug {
				for _, t := range res.Trace {
					fmt.Printf("[tool] %s(%s) -> %s\n", t.Tool, t.Args, t.Result)
				}
			}
			fmt.Println(res.Answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Print the tool-call trace")
	return cmd
}

// newFTSCommand implements `fts <query>` (spec.md §6): a direct weighted
// full-text query against the Search Index, bypassing the agent.
func newFTSCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fts <query>",
		Short: "Weighted entry FTS (no agent)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.core.Index.SearchWeighted(strings.Join(args, " "), 20)
			if err != nil {
				return fmt.Errorf("searching index: %w", err)
			}
			printEntries(entries)
			return nil
		},
	}
}

// newFindCommand implements `find <keyword>` (spec.md §6): a substring
// scan over the in-memory Activity Store, independent of the FTS index.
func newFindCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "find <keyword>",
		Short: "Substring search over in-memory entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.ToLower(strings.Join(args, " "))
			var matches []domain.ActivityEntry
			for _, e := range c.core.Entries.Load() {
				if entryContains(e, keyword) {
					matches = append(matches, e)
				}
			}
			printEntries(matches)
			return nil
		},
	}
}

func entryContains(e domain.ActivityEntry, needle string) bool {
	haystacks := []string{e.App, e.Activity, e.Summary, e.Browser, e.IDE, e.Terminal, e.Communication, e.Document}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func printEntries(entries []domain.ActivityEntry) {
	if len(entries) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s %s %-12s %s — %s\n", e.Date, e.Time, e.App, e.Activity, e.Summary)
	}
}
