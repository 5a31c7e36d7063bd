package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"screenlog/internal/config"
	"screenlog/internal/core"
)

// cli is the shared state every subcommand closure captures, mirroring
// the teacher's CLI struct (cklxx-elephant.ai/cmd/cobra_cli.go) but
// holding a *core.Core instead of an agent session.
type cli struct {
	dataDir string
	apiKey  string

	core *core.Core
}

// open resolves config and constructs the Core once PersistentPreRunE
// fires, so every subcommand RunE can assume c.core is non-nil.
func (c *cli) open() error {
	cfg, err := config.Load(c.dataDir, c.apiKey)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	opened, err := core.Open(cfg, isTTY())
	if err != nil {
		return fmt.Errorf("opening data directory %q: %w", cfg.DataDir, err)
	}
	c.core = opened
	return nil
}

func NewRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "screenlog",
		Short:         "Screenshot activity indexing core",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version and help never need a Core.
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return c.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.core == nil {
				return nil
			}
			return c.core.Close()
		},
	}

	root.PersistentFlags().StringVar(&c.dataDir, "data", "", "Data directory (defaults to ~/.screenlog)")
	root.PersistentFlags().StringVar(&c.apiKey, "api-key", "", "Model provider API key (defaults to an env var)")

	root.AddCommand(
		newProcessCommand(c),
		newStatusCommand(c),
		newSearchCommand(c),
		newFTSCommand(c),
		newFindCommand(c),
		newDateCommand(c),
		newAppsCommand(c),
		newListDatesCommand(c),
		newFeedbackCommand(c),
		newRulesCommand(c),
		newHistoryCommand(c),
		newUndoCommand(c),
		newReanalyzeCommand(c),
		newSyncCommand(c),
		newRebuildCommand(c),
		newChatCommand(c),
		newProfileCommand(c),
		newProfileUpdateCommand(c),
		newProfileRebuildCommand(c),
		newProfileHistoryCommand(c),
		newProfileRestoreCommand(c),
		newVersionCommand(),
	)

	return root
}
