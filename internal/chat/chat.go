// Package chat is the Chat Facade: a stateless tool-calling agent over the
// Search Index, Rules Store, and Reanalyzer (spec.md §4.10). Its
// parse-tool-call → execute → feed-result-back loop is grounded on
// cklxx-elephant.ai's internal/agent/tool_executor.go, including its use
// of jsonrepair to tolerate slightly malformed tool-argument JSON from the
// model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"screenlog/internal/activitystore"
	"screenlog/internal/atomicfile"
	"screenlog/internal/domain"
	"screenlog/internal/frameregistry"
	"screenlog/internal/llmtransport"
	"screenlog/internal/reanalyzer"
	"screenlog/internal/rules"
	"screenlog/internal/searchindex"
)

const defaultSoul = `You are the screenlog assistant: a terse, helpful guide to a user's own indexed screen activity. Answer from the index, never invent activity you haven't looked up. When a question needs data, call a tool before answering. Prefer concrete dates, apps, and summaries over vague generalizations.`

const maxToolIterations = 6
const maxHistoryTurns = 10
const historyTokenBudget = 4000

// Turn is one prior exchange the caller threads back into Chat; the agent
// itself is stateless across calls (spec.md §4.10).
type Turn struct {
	Role llmtransport.Role // RoleUser or RoleAssistant
	Text string
}

// ToolTrace records one tool invocation for --debug output (spec.md §6).
type ToolTrace struct {
	Tool   string
	Args   string
	Result string
}

// Result is the outcome of one Chat call.
type Result struct {
	Answer string
	Trace  []ToolTrace
}

// ProfileSource supplies the current profile text for the system prompt
// (internal/profile.Manager satisfies this).
type ProfileSource interface {
	GetProfile() string
}

// Facade wires the model transport to the stores and tools it can call.
type Facade struct {
	Client  llmtransport.Client
	Model   string
	DataDir string

	Entries     *activitystore.Store
	Index       *searchindex.DB
	Rules       *rules.Store
	Interpreter *rules.Interpreter
	Reanalyzer  *reanalyzer.Reanalyzer
	Profile     ProfileSource

	Log zerolog.Logger

	searchCache *lru.Cache[string, []domain.ActivityEntry]
	encoder     *tiktoken.Tiktoken
}

// New constructs a Facade with its search-result cache and token encoder
// initialized.
func New(client llmtransport.Client, model, dataDir string) *Facade {
	cache, _ := lru.New[string, []domain.ActivityEntry](64)
	enc, _ := tiktoken.GetEncoding("cl100k_base")
	return &Facade{Client: client, Model: model, DataDir: dataDir, searchCache: cache, encoder: enc}
}

// Chat implements chat(message, history[]) → answer (spec.md §4.10).
func (f *Facade) Chat(ctx context.Context, message string, history []Turn) (Result, error) {
	messages := []llmtransport.Message{llmtransport.Text(llmtransport.RoleSystem, f.systemPrompt())}
	messages = append(messages, f.trimmedHistory(history)...)
	messages = append(messages, llmtransport.Text(llmtransport.RoleUser, message))

	tools := f.toolDefinitions()
	var trace []ToolTrace

	for i := 0; i < maxToolIterations; i++ {
		resp, err := f.Client.Complete(ctx, llmtransport.CompletionRequest{
			Model:       f.Model,
			Messages:    messages,
			Tools:       tools,
			MaxTokens:   1200,
			Temperature: 0.3,
		})
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", domain.ErrExtractionTransport, err)
		}

		if len(resp.ToolCalls) == 0 {
			return Result{Answer: resp.Text, Trace: trace}, nil
		}

		messages = append(messages, llmtransport.Message{
			Role:      llmtransport.RoleAssistant,
			Content:   []llmtransport.ContentBlock{{Type: "text", Text: resp.Text}},
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := f.dispatch(ctx, call)
			trace = append(trace, ToolTrace{Tool: call.Name, Args: call.Arguments, Result: result})
			messages = append(messages, llmtransport.Message{
				Role:       llmtransport.RoleTool,
				ToolCallID: call.ID,
				Content:    []llmtransport.ContentBlock{{Type: "text", Text: result}},
			})
		}
	}

	return Result{Answer: "I wasn't able to settle on an answer after several tool calls — try narrowing the question.", Trace: trace}, nil
}

// systemPrompt combines the SOUL voice (an optional SOUL.md override takes
// precedence over defaultSoul per SPEC_FULL.md's Open Question decision),
// the current date, and the Profile Manager's current profile text.
func (f *Facade) systemPrompt() string {
	soul := defaultSoul
	if raw, err := atomicfile.Read(filepath.Join(f.DataDir, "SOUL.md")); err == nil {
		soul = string(raw)
	} else if !errors.Is(err, os.ErrNotExist) {
		f.Log.Warn().Err(err).Msg("reading SOUL.md override failed, using default voice")
	}

	prompt := fmt.Sprintf("%s\n\nToday's date: %s.", soul, time.Now().Format("2006-01-02"))
	if f.Profile != nil {
		prompt += "\n\nCURRENT USER PROFILE:\n" + f.Profile.GetProfile()
	}
	if f.Rules != nil {
		if preamble := f.Rules.FormatSearchPreamble(); preamble != "" {
			prompt += "\n\n" + preamble
		}
	}
	return prompt
}

// trimmedHistory bounds history to the last maxHistoryTurns entries, then
// drops the oldest further if the remainder still exceeds
// historyTokenBudget tokens (spec.md §4.10's "bounded history", sized with
// tiktoken the way a budget-aware prompt builder would).
func (f *Facade) trimmedHistory(history []Turn) []llmtransport.Message {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	for f.encoder != nil && len(history) > 1 && f.historyTokenCount(history) > historyTokenBudget {
		history = history[1:]
	}

	out := make([]llmtransport.Message, len(history))
	for i, t := range history {
		out[i] = llmtransport.Text(t.Role, t.Text)
	}
	return out
}

func (f *Facade) historyTokenCount(history []Turn) int {
	total := 0
	for _, t := range history {
		total += len(f.encoder.Encode(t.Text, nil, nil))
	}
	return total
}

// absoluteFramePath resolves a stored filename to its on-disk path the
// same way internal/reanalyzer does.
func (f *Facade) absoluteFramePath(filename string) string {
	return filepath.Join(frameregistry.EffectiveDir(f.DataDir), filename)
}
