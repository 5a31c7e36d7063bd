// Package reanalyzer re-runs the Extraction Oracle against already-stored
// activity entries, used when rule changes should retroactively reshape
// past extractions. It mirrors the per-item catch-and-continue loop shape
// of the Indexing Pipeline's processOne, but targets an existing filter of
// entries rather than new frames.
package reanalyzer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"screenlog/internal/activitystore"
	"screenlog/internal/domain"
	"screenlog/internal/frameregistry"
	"screenlog/internal/metrics"
	"screenlog/internal/oracle"
	"screenlog/internal/searchindex"
	"screenlog/internal/tracing"
)

// Filter selects the set of entries to reanalyze (spec.md §4.8).
type Filter struct {
	All       bool
	Date      string
	DateStart string
	DateEnd   string
	Filenames []string
}

// Reanalyzer re-extracts existing Activity Store entries through the
// current Extraction Oracle (and therefore current Rules Store state),
// replacing both the JSON record and its Search Index rows.
type Reanalyzer struct {
	DataDir string
	Entries *activitystore.Store
	Index   *searchindex.DB
	Oracle  *oracle.Oracle
	Log     zerolog.Logger
}

// Result is the outcome of a reanalyze run.
type Result struct {
	Total      int
	Reanalyzed int
	Skipped    int
	Failed     int
}

// OnProgress is called after each entry is resolved, before moving to the
// next one.
type OnProgress func(filename string, status string)

// Reanalyze implements reanalyze(filter, onProgress?) → {total, reanalyzed,
// skipped, failed} (spec.md §4.8).
func (r *Reanalyzer) Reanalyze(ctx context.Context, filter Filter, onProgress OnProgress) (Result, error) {
	targets := r.resolveTargets(filter)
	res := Result{Total: len(targets)}

	for _, entry := range targets {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		st := r.reanalyzeOne(ctx, entry)
		switch st {
		case statusReanalyzed:
			res.Reanalyzed++
			metrics.ReanalyzedTotal.WithLabelValues("reanalyzed").Inc()
		case statusSkipped:
			res.Skipped++
			metrics.ReanalyzedTotal.WithLabelValues("skipped").Inc()
		case statusFailed:
			res.Failed++
			metrics.ReanalyzedTotal.WithLabelValues("failed").Inc()
		}
		if onProgress != nil {
			onProgress(entry.Filename, st.String())
		}
	}
	return res, nil
}

func (r *Reanalyzer) resolveTargets(filter Filter) []domain.ActivityEntry {
	all := r.Entries.Load()
	switch {
	case filter.All:
		return all
	case len(filter.Filenames) > 0:
		want := make(map[string]bool, len(filter.Filenames))
		for _, f := range filter.Filenames {
			want[f] = true
		}
		out := make([]domain.ActivityEntry, 0, len(filter.Filenames))
		for _, e := range all {
			if want[e.Filename] {
				out = append(out, e)
			}
		}
		return out
	case filter.Date != "":
		return r.Entries.GetByDate(filter.Date)
	case filter.DateStart != "" || filter.DateEnd != "":
		return r.Entries.GetByDateRange(filter.DateStart, filter.DateEnd)
	default:
		return nil
	}
}

type status int

const (
	statusFailed status = iota
	statusReanalyzed
	statusSkipped
)

func (s status) String() string {
	switch s {
	case statusReanalyzed:
		return "reanalyzed"
	case statusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// reanalyzeOne implements spec.md §4.8's per-entry algorithm.
func (r *Reanalyzer) reanalyzeOne(ctx context.Context, entry domain.ActivityEntry) status {
	ctx, span := tracing.Tracer().Start(ctx, "reanalyzer.reanalyzeOne")
	defer span.End()

	path := r.absolutePathOf(entry)
	if _, err := os.Stat(path); err != nil {
		r.Log.Debug().Str("filename", entry.Filename).Msg("source frame missing, skipping reanalysis")
		return statusSkipped
	}

	frame := domain.Frame{
		Filename:     entry.Filename,
		Timestamp:    entry.Timestamp,
		Date:         entry.Date,
		Time:         entry.Time,
		AbsolutePath: path,
	}

	result, err := r.Oracle.Extract(ctx, frame, nil)
	if err != nil {
		r.Log.Error().Err(err).Str("filename", entry.Filename).Msg("reanalysis extraction failed")
		return statusFailed
	}

	updated := entry
	updated.Activities = result.Activities
	updated.IsContinuation = result.IsContinuation
	updated.SyncFlatFields()

	if err := r.Entries.Replace(entry.Filename, updated); err != nil {
		r.Log.Error().Err(err).Str("filename", entry.Filename).Msg("replacing activity store entry failed")
		return statusFailed
	}

	if err := r.Index.DeleteEntry(entry.Filename); err != nil {
		r.Log.Error().Err(err).Str("filename", entry.Filename).Msg("deleting stale index rows failed")
		return statusFailed
	}
	if err := r.Index.IndexEntry(updated); err != nil {
		r.Log.Error().Err(err).Str("filename", entry.Filename).Msg("re-indexing entry failed")
		return statusFailed
	}

	return statusReanalyzed
}

// absolutePathOf reconstructs a frame's on-disk path the same way
// frameregistry.ListAll resolves frame directories, so reanalysis targets
// the same file a fresh listing would.
func (r *Reanalyzer) absolutePathOf(entry domain.ActivityEntry) string {
	return filepath.Join(frameregistry.EffectiveDir(r.DataDir), entry.Filename)
}
