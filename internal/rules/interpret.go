package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
)

const interpretPrompt = `You turn a user's natural-language feedback about screenshot indexing into exactly one structured change to a rules list. There are three categories: "indexing" (what to extract during analysis), "exclude" (what to skip analyzing entirely), "search" (how to rank or interpret queries). Given the current rules and the feedback, respond with a single JSON object {"category": "indexing"|"exclude"|"search", "action": "add"|"remove"|"modify", "rule": "the new or added rule text", "previousRule": "the exact existing rule text being removed or replaced, omit for add"} and nothing else.`

// Decision is the rules interpreter's normalized output.
type Decision struct {
	Category     domain.RuleCategory
	Action       domain.RuleAction
	Rule         string
	PreviousRule string
}

// Interpreter turns natural-language feedback into a Decision by
// submitting the current rule state and the feedback text through the
// same Oracle transport the Extraction Oracle and Profile Manager use,
// following the jsonrepair-then-unmarshal pattern in
// internal/oracle.ParseResponse.
type Interpreter struct {
	Client llmtransport.Client
	Model  string
}

// NewInterpreter constructs an Interpreter.
func NewInterpreter(client llmtransport.Client, model string) *Interpreter {
	return &Interpreter{Client: client, Model: model}
}

// Interpret resolves feedback against current into a Decision.
func (in *Interpreter) Interpret(ctx context.Context, current domain.LearnedRules, feedback string) (Decision, error) {
	userText := fmt.Sprintf(
		"CURRENT RULES\nindexing: %s\nexclude: %s\nsearch: %s\n\nFEEDBACK: %s",
		strings.Join(current.Indexing, " | "),
		strings.Join(current.Exclude, " | "),
		strings.Join(current.Search, " | "),
		feedback,
	)

	resp, err := in.Client.Complete(ctx, llmtransport.CompletionRequest{
		Model: in.Model,
		Messages: []llmtransport.Message{
			llmtransport.Text(llmtransport.RoleSystem, interpretPrompt),
			llmtransport.Text(llmtransport.RoleUser, userText),
		},
		MaxTokens:   500,
		Temperature: 0.1,
	})
	if err != nil {
		return Decision{}, err
	}

	return parseDecision(resp.Text)
}

type wireDecision struct {
	Category     string `json:"category"`
	Action       string `json:"action"`
	Rule         string `json:"rule"`
	PreviousRule string `json:"previousRule"`
}

func parseDecision(raw string) (Decision, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return Decision{}, fmt.Errorf("%w: empty response", domain.ErrRuleParse)
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", domain.ErrRuleParse, err)
	}

	var w wireDecision
	if err := json.Unmarshal([]byte(repaired), &w); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", domain.ErrRuleParse, err)
	}

	d := Decision{
		Category:     domain.RuleCategory(w.Category),
		Action:       domain.RuleAction(w.Action),
		Rule:         strings.TrimSpace(w.Rule),
		PreviousRule: strings.TrimSpace(w.PreviousRule),
	}
	switch d.Category {
	case domain.RuleCategoryIndexing, domain.RuleCategoryExclude, domain.RuleCategorySearch:
	default:
		return Decision{}, fmt.Errorf("%w: unknown category %q", domain.ErrRuleParse, w.Category)
	}
	switch d.Action {
	case domain.RuleActionAdd, domain.RuleActionRemove, domain.RuleActionModify:
	default:
		return Decision{}, fmt.Errorf("%w: unknown action %q", domain.ErrRuleParse, w.Action)
	}
	if d.Action != domain.RuleActionAdd && d.PreviousRule == "" {
		return Decision{}, fmt.Errorf("%w: %s requires previousRule", domain.ErrRuleParse, d.Action)
	}
	if d.Action != domain.RuleActionRemove && d.Rule == "" {
		return Decision{}, fmt.Errorf("%w: empty rule text", domain.ErrRuleParse)
	}
	return d, nil
}

// Apply executes a Decision against store, routing modify actions through
// ApplyModify and add/remove through Apply.
func Apply(store *Store, d Decision, feedback string) (string, error) {
	if d.Action == domain.RuleActionModify {
		return store.ApplyModify(d.Category, d.PreviousRule, d.Rule, feedback)
	}
	ruleText := d.Rule
	if d.Action == domain.RuleActionRemove {
		ruleText = d.PreviousRule
	}
	return store.Apply(d.Category, d.Action, ruleText, feedback)
}
