package activitystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/domain"
)

func sampleEntry(filename string, ts int64, date string, app string) domain.ActivityEntry {
	return domain.ActivityEntry{
		Filename:  filename,
		Timestamp: ts,
		Date:      date,
		Time:      "12:00:00",
		Activities: []domain.Activity{
			{Layer: domain.LayerPrimary, App: domain.App{Name: app, Category: domain.CategoryIDE}, Activity: "coding", Summary: "writing go"},
		},
	}
}

func TestAppendValidatesAndSyncsFlatFields(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleEntry("a.jpg", 1, "2026-01-01", "vscode")))
	entries := s.Load()
	require.Len(t, entries, 1)
	assert.Equal(t, "vscode", entries[0].App)
	assert.Equal(t, "coding", entries[0].Activity)
}

func TestAppendRejectsInvalidEntry(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	bad := domain.ActivityEntry{Filename: "bad.jpg"}
	err = s.Append(bad)
	assert.Error(t, err)
}

func TestCursorNeverMovesBackward(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleEntry("a.jpg", 100, "2026-01-01", "vscode")))
	require.NoError(t, s.Append(sampleEntry("b.jpg", 50, "2026-01-01", "vscode")))

	cursor := s.Cursor()
	require.NotNil(t, cursor)
	assert.Equal(t, int64(100), *cursor)
}

func TestReplacePreservesPosition(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleEntry("a.jpg", 1, "2026-01-01", "vscode")))
	require.NoError(t, s.Append(sampleEntry("b.jpg", 2, "2026-01-01", "chrome")))

	updated := sampleEntry("a.jpg", 1, "2026-01-01", "iterm2")
	require.NoError(t, s.Replace("a.jpg", updated))

	entries := s.Load()
	require.Len(t, entries, 2)
	assert.Equal(t, "iterm2", entries[0].App)
	assert.Equal(t, "b.jpg", entries[1].Filename)
}

func TestReplaceMissingFilenameErrors(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	err = s.Replace("missing.jpg", sampleEntry("missing.jpg", 1, "2026-01-01", "x"))
	assert.Error(t, err)
}

func TestGetByDateAndRangeAndApp(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleEntry("a.jpg", 1, "2026-01-01", "vscode")))
	require.NoError(t, s.Append(sampleEntry("b.jpg", 2, "2026-01-02", "chrome")))
	require.NoError(t, s.Append(sampleEntry("c.jpg", 3, "2026-01-03", "vscode")))

	assert.Len(t, s.GetByDate("2026-01-02"), 1)
	assert.Len(t, s.GetByDateRange("2026-01-01", "2026-01-02"), 2)
	assert.Len(t, s.GetByApp("vscode"), 2)
}

func TestTailReturnsMostRecentN(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.Append(sampleEntry("f.jpg", i, "2026-01-01", "vscode")))
	}
	tail := s.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, int64(4), tail[0].Timestamp)
	assert.Equal(t, int64(5), tail[1].Timestamp)
}

func TestListDatesSortedAndDeduped(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleEntry("a.jpg", 1, "2026-01-02", "vscode")))
	require.NoError(t, s.Append(sampleEntry("b.jpg", 2, "2026-01-01", "vscode")))
	require.NoError(t, s.Append(sampleEntry("c.jpg", 3, "2026-01-02", "vscode")))

	assert.Equal(t, []string{"2026-01-01", "2026-01-02"}, s.ListDates())
}

func TestReopenReloadsState(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Append(sampleEntry("a.jpg", 1, "2026-01-01", "vscode")))
	require.NoError(t, s1.SetRecentSummary("wrote some go code"))

	s2, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Len())
	assert.Equal(t, "wrote some go code", s2.RecentSummary())
}
