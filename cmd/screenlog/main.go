// Command screenlog is the CLI dispatcher over the indexing core: process
// new frames, inspect and search the activity index, teach it rules, and
// chat with it (spec.md §6). The Cobra command tree here follows the
// shape of cklxx-elephant.ai's cmd/cobra_cli.go NewRootCommand — a root
// command with persistent flags plus one constructor per subcommand
// family — without that teacher's colorized/emoji TUI surface, since this
// core's output is meant to be piped and logged as much as read.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "screenlog:", err)
		os.Exit(1)
	}
}
