package reanalyzer

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/activitystore"
	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
	"screenlog/internal/oracle"
	"screenlog/internal/searchindex"
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

func writeFrame(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: 10})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func sampleEntry(filename, date string, ts int64) domain.ActivityEntry {
	e := domain.ActivityEntry{
		Filename:  filename,
		Timestamp: ts,
		Date:      date,
		Time:      "10:00:00",
		Activities: []domain.Activity{
			{Layer: domain.LayerPrimary, App: domain.App{Name: "vscode", Category: domain.CategoryIDE}, Activity: "coding", Summary: "old summary"},
		},
	}
	e.SyncFlatFields()
	return e
}

const reanalyzedResponse = `{"activities":[{"layer":"primary","app":{"name":"vscode","category":"ide"},"activity":"coding","summary":"updated summary"}]}`

func newTestReanalyzer(t *testing.T, client llmtransport.Client) (*Reanalyzer, string) {
	t.Helper()
	dataDir := t.TempDir()

	entries, err := activitystore.Open(dataDir)
	require.NoError(t, err)

	idx, err := searchindex.Open(filepath.Join(dataDir, "activity-index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	o := oracle.New(client, "gpt-4o-mini", nil, nil)

	return &Reanalyzer{DataDir: dataDir, Entries: entries, Index: idx, Oracle: o, Log: zerolog.Nop()}, dataDir
}

func TestReanalyzeAllReplacesEntryAndIndex(t *testing.T) {
	client := &stubClient{text: reanalyzedResponse}
	r, dataDir := newTestReanalyzer(t, client)

	writeFrame(t, dataDir, "a.jpg")
	require.NoError(t, r.Entries.Append(sampleEntry("a.jpg", "2026-01-01", 1)))
	require.NoError(t, r.Index.IndexEntry(sampleEntry("a.jpg", "2026-01-01", 1)))

	res, err := r.Reanalyze(context.Background(), Filter{All: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Reanalyzed)

	got := r.Entries.GetByDate("2026-01-01")
	require.Len(t, got, 1)
	assert.Equal(t, "updated summary", got[0].Summary)

	indexed, err := r.Index.GetByDate("2026-01-01")
	require.NoError(t, err)
	require.Len(t, indexed, 1)
	assert.Equal(t, "updated summary", indexed[0].Summary)
}

func TestReanalyzeSkipsMissingFrame(t *testing.T) {
	client := &stubClient{text: reanalyzedResponse}
	r, _ := newTestReanalyzer(t, client)

	require.NoError(t, r.Entries.Append(sampleEntry("missing.jpg", "2026-01-01", 1)))

	res, err := r.Reanalyze(context.Background(), Filter{All: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Reanalyzed)
}

func TestReanalyzeFailsOnExtractionErrorWithoutAborting(t *testing.T) {
	client := &stubClient{text: "not json {{{"}
	r, dataDir := newTestReanalyzer(t, client)

	writeFrame(t, dataDir, "a.jpg")
	writeFrame(t, dataDir, "b.jpg")
	require.NoError(t, r.Entries.Append(sampleEntry("a.jpg", "2026-01-01", 1)))
	require.NoError(t, r.Entries.Append(sampleEntry("b.jpg", "2026-01-01", 2)))

	res, err := r.Reanalyze(context.Background(), Filter{All: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Failed)
}

func TestReanalyzeByDateFilter(t *testing.T) {
	client := &stubClient{text: reanalyzedResponse}
	r, dataDir := newTestReanalyzer(t, client)

	writeFrame(t, dataDir, "a.jpg")
	writeFrame(t, dataDir, "b.jpg")
	require.NoError(t, r.Entries.Append(sampleEntry("a.jpg", "2026-01-01", 1)))
	require.NoError(t, r.Entries.Append(sampleEntry("b.jpg", "2026-01-02", 2)))

	res, err := r.Reanalyze(context.Background(), Filter{Date: "2026-01-01"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestReanalyzeByFilenamesFilter(t *testing.T) {
	client := &stubClient{text: reanalyzedResponse}
	r, dataDir := newTestReanalyzer(t, client)

	writeFrame(t, dataDir, "a.jpg")
	writeFrame(t, dataDir, "b.jpg")
	require.NoError(t, r.Entries.Append(sampleEntry("a.jpg", "2026-01-01", 1)))
	require.NoError(t, r.Entries.Append(sampleEntry("b.jpg", "2026-01-02", 2)))

	res, err := r.Reanalyze(context.Background(), Filter{Filenames: []string{"b.jpg"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Reanalyzed)
}

func TestReanalyzeCallsOnProgress(t *testing.T) {
	client := &stubClient{text: reanalyzedResponse}
	r, dataDir := newTestReanalyzer(t, client)

	writeFrame(t, dataDir, "a.jpg")
	require.NoError(t, r.Entries.Append(sampleEntry("a.jpg", "2026-01-01", 1)))

	var seen []string
	_, err := r.Reanalyze(context.Background(), Filter{All: true}, func(filename, status string) {
		seen = append(seen, filename+":"+status)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg:reanalyzed"}, seen)
}
