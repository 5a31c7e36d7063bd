// Package rules is the Rules Store: a typed collection of indexing,
// exclude, and search rules with an append-only change history and
// single-step undo. Persistence follows the atomic write-then-rename
// pattern shared across the data stores (see internal/atomicfile), grounded
// on cklxx-elephant.ai's internal/app/agent/kernel/state_file.go.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"screenlog/internal/atomicfile"
	"screenlog/internal/domain"
)

// Store owns the two JSON files backing the rules domain: the current
// rule lists and their append-only change history.
type Store struct {
	mu sync.Mutex

	rulesPath   string
	historyPath string

	rules   domain.LearnedRules
	history []domain.RuleChange
}

// Open loads rules and history from dataDir, defaulting to empty state if
// the files don't exist yet.
func Open(dataDir string) (*Store, error) {
	s := &Store{
		rulesPath:   filepath.Join(dataDir, "learned-rules.json"),
		historyPath: filepath.Join(dataDir, "rules-history.json"),
	}

	if err := atomicfile.ReadJSON(s.rulesPath, &s.rules); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
		}
		s.rules = domain.LearnedRules{}
	}

	var hist struct {
		Changes []domain.RuleChange `json:"changes"`
	}
	if err := atomicfile.ReadJSON(s.historyPath, &hist); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
		}
	}
	s.history = hist.Changes

	return s, nil
}

// Load returns a copy of the current rule lists.
func (s *Store) Load() domain.LearnedRules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// Save persists rules as the current state without touching history;
// callers that mutate categories directly (bypassing Apply) are
// responsible for also appending a history record to uphold I4.
func (s *Store) Save(r domain.LearnedRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = r
	return s.persistRulesLocked()
}

// Append records change in the history log, assigning it an ID and
// timestamp if unset, and persists the history file. It does not touch the
// rule lists themselves — callers use Apply for the combined operation
// that upholds I4 (every mutation appends exactly one history record
// before persisting the new state).
func (s *Store) Append(change domain.RuleChange) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(change)
}

func (s *Store) appendLocked(change domain.RuleChange) (string, error) {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now()
	}
	s.history = append(s.history, change)
	if err := s.persistHistoryLocked(); err != nil {
		return "", err
	}
	return change.ID, nil
}

// Apply mutates the named category per action/rule, appends the
// corresponding history record, and persists both files — the combined
// operation upholding I4.
func (s *Store) Apply(category domain.RuleCategory, action domain.RuleAction, ruleText string, feedback string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.categoryLocked(category)
	change := domain.RuleChange{
		Feedback: feedback,
		Action:   action,
		Category: category,
		Rule:     ruleText,
	}

	switch action {
	case domain.RuleActionAdd:
		*list = append(*list, ruleText)
	case domain.RuleActionRemove:
		idx := indexOf(*list, ruleText)
		if idx < 0 {
			return "", fmt.Errorf("rules: rule %q not found in %s", ruleText, category)
		}
		change.RuleIndex = &idx
		*list = append((*list)[:idx], (*list)[idx+1:]...)
	case domain.RuleActionModify:
		return "", fmt.Errorf("rules: use ApplyModify for modify actions")
	default:
		return "", fmt.Errorf("rules: unknown action %q", action)
	}

	s.rules.LastUpdated = time.Now()
	id, err := s.appendLocked(change)
	if err != nil {
		return "", err
	}
	if err := s.persistRulesLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// ApplyModify replaces previousRule with newRule within category, appending
// the history record needed to restore previousRule on undo.
func (s *Store) ApplyModify(category domain.RuleCategory, previousRule, newRule, feedback string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.categoryLocked(category)
	idx := indexOf(*list, previousRule)
	if idx < 0 {
		return "", fmt.Errorf("rules: previous rule %q not found in %s", previousRule, category)
	}
	(*list)[idx] = newRule

	change := domain.RuleChange{
		Feedback:     feedback,
		Action:       domain.RuleActionModify,
		Category:     category,
		Rule:         newRule,
		PreviousRule: previousRule,
		RuleIndex:    &idx,
	}

	s.rules.LastUpdated = time.Now()
	id, err := s.appendLocked(change)
	if err != nil {
		return "", err
	}
	if err := s.persistRulesLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// UndoResult reports the outcome of UndoLast.
type UndoResult struct {
	Success      bool
	Message      string
	UndoneChange *domain.RuleChange
}

// UndoLast inverts and removes the most recent history entry (spec.md
// §4.3 "Semantics of undo"):
//   - add    → remove the identical rule text; no-op if already absent.
//   - remove → re-insert at ruleIndex if still in range, else append.
//   - modify → write previousRule back at ruleIndex.
func (s *Store) UndoLast() (UndoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return UndoResult{Success: false, Message: "no changes to undo"}, nil
	}
	last := s.history[len(s.history)-1]
	list := s.categoryLocked(last.Category)

	switch last.Action {
	case domain.RuleActionAdd:
		if idx := indexOf(*list, last.Rule); idx >= 0 {
			*list = append((*list)[:idx], (*list)[idx+1:]...)
		}
	case domain.RuleActionRemove:
		idx := len(*list)
		if last.RuleIndex != nil && *last.RuleIndex >= 0 && *last.RuleIndex <= len(*list) {
			idx = *last.RuleIndex
		}
		*list = insertAt(*list, idx, last.Rule)
	case domain.RuleActionModify:
		idx := 0
		if last.RuleIndex != nil {
			idx = *last.RuleIndex
		}
		if idx >= 0 && idx < len(*list) {
			(*list)[idx] = last.PreviousRule
		}
	}

	s.history = s.history[:len(s.history)-1]
	s.rules.LastUpdated = time.Now()

	if err := s.persistHistoryLocked(); err != nil {
		return UndoResult{}, err
	}
	if err := s.persistRulesLocked(); err != nil {
		return UndoResult{}, err
	}

	return UndoResult{
		Success:      true,
		Message:      fmt.Sprintf("undid %s of %q in %s", last.Action, last.Rule, last.Category),
		UndoneChange: &last,
	}, nil
}

// History returns the append-only change log, most recent last.
func (s *Store) History() []domain.RuleChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RuleChange, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) categoryLocked(category domain.RuleCategory) *[]string {
	switch category {
	case domain.RuleCategoryIndexing:
		return &s.rules.Indexing
	case domain.RuleCategoryExclude:
		return &s.rules.Exclude
	case domain.RuleCategorySearch:
		return &s.rules.Search
	default:
		var empty []string
		return &empty
	}
}

func (s *Store) persistRulesLocked() error {
	if err := atomicfile.WriteJSON(s.rulesPath, s.rules); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
	}
	return nil
}

func (s *Store) persistHistoryLocked() error {
	payload := struct {
		Changes []domain.RuleChange `json:"changes"`
	}{Changes: s.history}
	if err := atomicfile.WriteJSON(s.historyPath, payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
	}
	return nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func insertAt(list []string, idx int, v string) []string {
	if idx >= len(list) {
		return append(list, v)
	}
	if idx < 0 {
		idx = 0
	}
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = v
	return list
}
