package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"screenlog/internal/chat"
	"screenlog/internal/llmtransport"
)

// wireTurn is the --history JSON shape: [{"role":"user","text":"..."}].
type wireTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func parseHistory(raw string) ([]chat.Turn, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var wire []wireTurn
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("parsing --history: %w", err)
	}
	turns := make([]chat.Turn, len(wire))
	for i, w := range wire {
		role := llmtransport.RoleUser
		if w.Role == "assistant" {
			role = llmtransport.RoleAssistant
		}
		turns[i] = chat.Turn{Role: role, Text: w.Text}
	}
	return turns, nil
}

// newChatCommand implements `chat <msg> [--history <json>]` (spec.md §6):
// one-shot when a message is given, otherwise an interactive REPL over
// chzyer/readline (grounded on cklxx-elephant.ai/cmd/alex/interactive.go's
// RunInteractive, minus its session-store persistence since the Chat
// Facade is stateless across calls).
func newChatCommand(c *cli) *cobra.Command {
	var historyJSON string
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "One-shot chat, or an interactive session with no message",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runChatREPL(c)
			}
			history, err := parseHistory(historyJSON)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			res, err := c.core.Chat.Chat(ctx, strings.Join(args, " "), history)
			if err != nil {
				return fmt.Errorf("chatting: %w", err)
			}
			fmt.Println(res.Answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&historyJSON, "history", "", `Prior turns as JSON: [{"role":"user","text":"..."}]`)
	return cmd
}

func runChatREPL(c *cli) error {
	fmt.Println("screenlog chat. Type 'exit' or 'quit' to leave.")

	homeDir, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(homeDir, ".screenlog_chat_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           readline.NewCancelableStdin(os.Stdin),
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var history []chat.Turn
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		res, err := c.core.Chat.Chat(ctx, line, history)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(res.Answer)
		history = append(history, chat.Turn{Role: llmtransport.RoleUser, Text: line})
		history = append(history, chat.Turn{Role: llmtransport.RoleAssistant, Text: res.Answer})
	}
	return nil
}
