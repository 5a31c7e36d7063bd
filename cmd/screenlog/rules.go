package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"screenlog/internal/rules"
)

// newFeedbackCommand implements `feedback <text>` (spec.md §6): runs the
// text through the rules interpreter and applies the resulting decision.
func newFeedbackCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <text>",
		Short: "Submit a rule change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feedback := strings.Join(args, " ")
			ctx, cancel := signalContext()
			defer cancel()

			decision, err := c.core.Interpreter.Interpret(ctx, c.core.Rules.Load(), feedback)
			if err != nil {
				return fmt.Errorf("interpreting feedback: %w", err)
			}
			msg, err := rules.Apply(c.core.Rules, decision, feedback)
			if err != nil {
				return fmt.Errorf("applying rule change: %w", err)
			}
			fmt.Println(msg)
			return nil
		},
	}
}

// newRulesCommand implements `rules` (spec.md §6): print the three rule
// categories.
func newRulesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print current learned rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := c.core.Rules.Load()
			printRuleList("indexing", r.Indexing)
			printRuleList("exclude", r.Exclude)
			printRuleList("search", r.Search)
			return nil
		},
	}
}

func printRuleList(category string, items []string) {
	fmt.Printf("%s:\n", category)
	if len(items) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}
}

// newHistoryCommand implements `history` (spec.md §6): print the rule
// change log, newest last.
func newHistoryCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print rule change history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := c.core.Rules.History()
			if len(changes) == 0 {
				fmt.Println("no rule changes recorded")
				return nil
			}
			for _, ch := range changes {
				fmt.Printf("%s [%s/%s] %s — %q\n", ch.Timestamp.Format("2006-01-02 15:04:05"), ch.Category, ch.Action, ch.Rule, ch.Feedback)
			}
			return nil
		},
	}
}

// newUndoCommand implements `undo` (spec.md §6): revert the most recent
// rule change.
func newUndoCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent rule change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.core.Rules.UndoLast()
			if err != nil {
				return fmt.Errorf("undoing rule change: %w", err)
			}
			fmt.Println(res.Message)
			if !res.Success {
				return fmt.Errorf("nothing to undo")
			}
			return nil
		},
	}
}
