package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
)

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) Complete(ctx context.Context, req llmtransport.CompletionRequest) (llmtransport.CompletionResponse, error) {
	if s.err != nil {
		return llmtransport.CompletionResponse{}, s.err
	}
	return llmtransport.CompletionResponse{Text: s.text}, nil
}

func sampleEntries() []domain.ActivityEntry {
	e := domain.ActivityEntry{Date: "2026-01-01", Time: "10:00:00", App: "vscode", Activity: "coding", Summary: "writing the profile manager", Tags: []string{"work"}}
	return []domain.ActivityEntry{e}
}

func TestOpenStartsWithDefaultProfile(t *testing.T) {
	m, err := Open(t.TempDir(), &stubClient{}, "gpt-4o-mini")
	require.NoError(t, err)
	assert.Contains(t, m.GetProfile(), "No activity summarized yet")
	assert.True(t, m.LastUpdate().IsZero())
	assert.True(t, m.IsDue(24))
}

func TestUpdateAppliesChangeAndRecordsHistory(t *testing.T) {
	dataDir := t.TempDir()
	client := &stubClient{text: `{"summary":"learned the user codes in Go","changed":true,"updatedProfile":"# User Profile\n\nWorks primarily in Go.\n"}`}
	m, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)

	var events []string
	res, err := m.Update(context.Background(), sampleEntries(), func(s string) { events = append(events, s) })
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Changed)
	assert.Equal(t, "learned the user codes in Go", res.Summary)
	assert.Contains(t, m.GetProfile(), "Works primarily in Go")
	assert.False(t, m.LastUpdate().IsZero())
	assert.Contains(t, events, "updated")

	history := m.History()
	require.Len(t, history, 1)
	assert.Contains(t, history[0].PreviousContent, "No activity summarized yet")
	assert.Contains(t, history[0].NewContent, "Works primarily in Go")
}

func TestUpdateNoChangeLeavesProfileUntouched(t *testing.T) {
	dataDir := t.TempDir()
	client := &stubClient{text: `{"summary":"nothing new","changed":false,"updatedProfile":""}`}
	m, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)

	before := m.GetProfile()
	res, err := m.Update(context.Background(), sampleEntries(), nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Changed)
	assert.Equal(t, before, m.GetProfile())
	assert.Empty(t, m.History())
}

func TestUpdateParseFailureLeavesStateUntouched(t *testing.T) {
	dataDir := t.TempDir()
	client := &stubClient{text: "not json {{{"}
	m, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)

	before := m.GetProfile()
	res, err := m.Update(context.Background(), sampleEntries(), nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, before, m.GetProfile())
}

func TestRestoreFromHistoryIsReversible(t *testing.T) {
	dataDir := t.TempDir()
	client := &stubClient{text: `{"summary":"first change","changed":true,"updatedProfile":"# User Profile\n\nFirst version.\n"}`}
	m, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)

	_, err = m.Update(context.Background(), sampleEntries(), nil)
	require.NoError(t, err)

	client.text = `{"summary":"second change","changed":true,"updatedProfile":"# User Profile\n\nSecond version.\n"}`
	_, err = m.Update(context.Background(), sampleEntries(), nil)
	require.NoError(t, err)
	require.Contains(t, m.GetProfile(), "Second version")

	require.NoError(t, m.RestoreFromHistory(0))
	assert.Contains(t, m.GetProfile(), "First version")

	history := m.History()
	require.Len(t, history, 3)
	assert.Contains(t, history[0].NewContent, "First version")
	assert.Contains(t, history[0].PreviousContent, "Second version")
}

func TestReopenReloadsPersistedProfileAndHistory(t *testing.T) {
	dataDir := t.TempDir()
	client := &stubClient{text: `{"summary":"change","changed":true,"updatedProfile":"# User Profile\n\nPersisted.\n"}`}
	m1, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)
	_, err = m1.Update(context.Background(), sampleEntries(), nil)
	require.NoError(t, err)

	m2, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)
	assert.Contains(t, m2.GetProfile(), "Persisted")
	assert.Len(t, m2.History(), 1)
	assert.False(t, m2.LastUpdate().IsZero())
}

func TestUpdateEntriesAdaptsToBoolErrorShape(t *testing.T) {
	dataDir := t.TempDir()
	client := &stubClient{text: `{"summary":"change","changed":true,"updatedProfile":"# User Profile\n\nAdapted.\n"}`}
	m, err := Open(dataDir, client, "gpt-4o-mini")
	require.NoError(t, err)

	changed, err := m.UpdateEntries(context.Background(), sampleEntries())
	require.NoError(t, err)
	assert.True(t, changed)
}
