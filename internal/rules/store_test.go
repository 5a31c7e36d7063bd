package rules

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/domain"
)

func TestApplyAddThenUndo(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Apply(domain.RuleCategoryIndexing, domain.RuleActionAdd, "index slack threads", "user asked")
	require.NoError(t, err)
	assert.Equal(t, []string{"index slack threads"}, s.Load().Indexing)
	assert.Len(t, s.History(), 1)

	res, err := s.UndoLast()
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, s.Load().Indexing)
	assert.Empty(t, s.History())
}

func TestApplyRemoveThenUndoReinsertsAtIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(domain.LearnedRules{Exclude: []string{"a", "b", "c"}}))
	_, err = s.Apply(domain.RuleCategoryExclude, domain.RuleActionRemove, "b", "no longer relevant")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, s.Load().Exclude)

	res, err := s.UndoLast()
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"a", "b", "c"}, s.Load().Exclude)
}

func TestApplyModifyThenUndoRestoresPrevious(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(domain.LearnedRules{Search: []string{"old rule"}}))

	_, err = s.ApplyModify(domain.RuleCategorySearch, "old rule", "new rule", "refined phrasing")
	require.NoError(t, err)
	assert.Equal(t, []string{"new rule"}, s.Load().Search)

	res, err := s.UndoLast()
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"old rule"}, s.Load().Search)
}

func TestApplyRejectsModifyAction(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Apply(domain.RuleCategorySearch, domain.RuleActionModify, "new rule", "feedback")
	require.Error(t, err)
}

func TestUndoLastOnEmptyHistoryIsNoop(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	res, err := s.UndoLast()
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestReopenReloadsPersistedState(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir)
	require.NoError(t, err)
	_, err = s1.Apply(domain.RuleCategoryIndexing, domain.RuleActionAdd, "rule one", "feedback")
	require.NoError(t, err)

	s2, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"rule one"}, s2.Load().Indexing)
	assert.Len(t, s2.History(), 1)
}

func TestFormatIndexingPreambleEmptyWhenNoRules(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	assert.Empty(t, s.FormatIndexingPreamble())
	assert.Empty(t, s.FormatSearchPreamble())
}

func TestFormatIndexingPreambleNumbersRules(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(domain.LearnedRules{
		Indexing: []string{"index zoom calls"},
		Exclude:  []string{"skip password prompts"},
	}))

	preamble := s.FormatIndexingPreamble()
	assert.Contains(t, preamble, "ADDITIONAL INDEXING RULES:")
	assert.Contains(t, preamble, "1. index zoom calls")
	assert.Contains(t, preamble, "DO NOT INDEX / EXCLUDE:")
	assert.Contains(t, preamble, "1. skip password prompts")
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "learned-rules.json"), s.rulesPath)
	assert.Equal(t, filepath.Join(dir, "rules-history.json"), s.historyPath)
}
