package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"screenlog/internal/profile"
)

// renderMarkdown renders markdown for the terminal, following
// cklxx-elephant.ai/cmd/markdown.go's terminal-width-aware
// glamour.NewTermRenderer setup.
func renderMarkdown(content string) (string, error) {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w - 4
		if width > 120 {
			width = 120
		}
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("building markdown renderer: %w", err)
	}
	return r.Render(content)
}

// newProfileCommand implements `profile` (spec.md §6): render the current
// profile document.
func newProfileCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Print the current profile document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rendered, err := renderMarkdown(c.core.Profile.GetProfile())
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

// newProfileUpdateCommand implements `profile-update`: summarize the most
// recent window of activity into the profile, regardless of cadence.
func newProfileUpdateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile-update",
		Short: "Update the profile from recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recent := c.core.Entries.Tail(c.core.Config.ProfileUpdateEvery)
			ctx, cancel := signalContext()
			defer cancel()
			res, err := c.core.Profile.UpdateForRange(ctx, recent)
			if err != nil {
				return fmt.Errorf("updating profile: %w", err)
			}
			printProfileResult(res)
			return nil
		},
	}
}

// newProfileRebuildCommand implements `profile-rebuild`: re-summarize the
// profile from every stored entry, regardless of cadence.
func newProfileRebuildCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile-rebuild",
		Short: "Rebuild the profile from all stored activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			res, err := c.core.Profile.UpdateForRange(ctx, c.core.Entries.Load())
			if err != nil {
				return fmt.Errorf("rebuilding profile: %w", err)
			}
			printProfileResult(res)
			return nil
		},
	}
}

func printProfileResult(res profile.UpdateResult) {
	if !res.Success {
		fmt.Println("profile update failed to parse the model's response; profile left unchanged")
		return
	}
	if !res.Changed {
		fmt.Println("no change:", res.Summary)
		return
	}
	fmt.Println("updated:", res.Summary)
}

// newProfileHistoryCommand implements `profile-history`: list prior edits,
// newest first, by index (profile-restore <i> addresses this index).
func newProfileHistoryCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile-history",
		Short: "List profile edit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			edits := c.core.Profile.History()
			if len(edits) == 0 {
				fmt.Println("no profile edits recorded")
				return nil
			}
			for i, e := range edits {
				fmt.Printf("%d. %s — %s\n", i, e.Timestamp.Format("2006-01-02 15:04:05"), e.Summary)
			}
			return nil
		},
	}
}

// newProfileRestoreCommand implements `profile-restore <i>`: preview the
// diff between the current profile and the content restoring history entry
// i writes, i.e. that edit's previous content (sergi/go-diff/diffmatchpatch),
// confirm, then restore it.
func newProfileRestoreCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile-restore <i>",
		Short: "Restore the profile to a prior edit by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid history index %q: %w", args[0], err)
			}
			edits := c.core.Profile.History()
			if idx < 0 || idx >= len(edits) {
				return fmt.Errorf("history index %d out of range (0..%d)", idx, len(edits)-1)
			}

			dmp := diffmatchpatch.New()
			diffs := dmp.DiffMain(c.core.Profile.GetProfile(), edits[idx].PreviousContent, false)
			fmt.Println(dmp.DiffPrettyText(diffs))

			ok, err := confirm(fmt.Sprintf("Restore profile to edit %d?", idx))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("aborted")
				return nil
			}

			if err := c.core.Profile.RestoreFromHistory(idx); err != nil {
				return fmt.Errorf("restoring profile: %w", err)
			}
			fmt.Println("restored")
			return nil
		},
	}
}
