// Package pipeline is the Indexing Pipeline: it walks new frames from the
// Frame Registry through the Perceptual Deduper and Extraction Oracle, then
// persists the result to the Activity Store and Search Index, following
// the staged orchestration shape of tokenman's daemon.Run
// (allaspectsdev-tokenman/internal/daemon/daemon.go) adapted from a
// long-running server loop to a per-frame processing loop.
package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"screenlog/internal/activitystore"
	"screenlog/internal/domain"
	"screenlog/internal/frameregistry"
	"screenlog/internal/metrics"
	"screenlog/internal/oracle"
	"screenlog/internal/phash"
	"screenlog/internal/searchindex"
	"screenlog/internal/tracing"
)

// ProfileUpdater is the Profile Manager's narrow surface the pipeline
// needs (internal/profile.Manager satisfies this via UpdateEntries); kept
// as an interface so pipeline does not import profile directly.
type ProfileUpdater interface {
	UpdateEntries(ctx context.Context, entries []domain.ActivityEntry) (changed bool, err error)
}

// Pipeline wires the Frame Registry, Perceptual Deduper, Extraction
// Oracle, Activity Store, Search Index, and (optionally) Profile Manager
// into the processNew contract (spec.md §4.7).
type Pipeline struct {
	DataDir  string
	Dedup    *phash.Store
	Oracle   *oracle.Oracle
	Entries  *activitystore.Store
	Index    *searchindex.DB
	Profile  ProfileUpdater
	Log      zerolog.Logger

	RecentContextN      int
	RunningSummaryEvery int
	ProfileUpdateEvery  int
}

// Result is the outcome of a processNew run.
type Result struct {
	Processed int
	Skipped   int
	Failed    int
}

// ProcessNew implements processNew(limit?) → {processed, skipped} (spec.md
// §4.7). limit <= 0 means no cap.
func (p *Pipeline) ProcessNew(ctx context.Context, limit int) (Result, error) {
	cursor := p.Entries.Cursor()
	frames, err := frameregistry.ListAfter(p.DataDir, cursor)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, frame := range frames {
		if limit > 0 && res.Processed+res.Skipped >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		status := p.processOne(ctx, frame)
		switch status {
		case outcomeProcessed:
			res.Processed++
			metrics.FramesProcessedTotal.WithLabelValues("processed").Inc()
		case outcomeSkipped:
			res.Skipped++
			metrics.FramesProcessedTotal.WithLabelValues("skipped").Inc()
		case outcomeFailed:
			res.Failed++
			metrics.FramesProcessedTotal.WithLabelValues("failed").Inc()
		}
	}
	return res, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeProcessed
	outcomeSkipped
)

// processOne runs steps 1–8 of spec.md §4.7 for a single frame. A hard
// failure returns outcomeFailed without advancing the cursor to this frame;
// a dedupe hit or a malformed/empty extraction advances the cursor and
// returns outcomeSkipped.
func (p *Pipeline) processOne(ctx context.Context, frame domain.Frame) outcome {
	ctx, span := tracing.Tracer().Start(ctx, "pipeline.processOne")
	defer span.End()

	dedup := p.Dedup.CheckAndAdd(frame.AbsolutePath, frame.Filename, frame.Timestamp)
	if dedup.IsDuplicate {
		metrics.DuplicateFramesTotal.Inc()
		if err := p.Entries.AdvanceCursor(frame.Timestamp); err != nil {
			p.Log.Error().Err(err).Str("frame", frame.Filename).Msg("advancing cursor past duplicate frame")
			return outcomeFailed
		}
		p.Log.Debug().Str("frame", frame.Filename).Str("similar_to", dedup.SimilarTo).Msg("frame deduped")
		return outcomeSkipped
	}

	recent := p.recentContext()
	extractCtx, extractSpan := tracing.Tracer().Start(ctx, "pipeline.extract")
	result, err := p.Oracle.Extract(extractCtx, frame, recent)
	extractSpan.End()
	if errors.Is(err, domain.ErrExtractionMalformed) || errors.Is(err, domain.ErrExtractionEmpty) {
		p.Log.Warn().Err(err).Str("frame", frame.Filename).Msg("extraction unusable, skipping frame")
		if err := p.Entries.AdvanceCursor(frame.Timestamp); err != nil {
			p.Log.Error().Err(err).Str("frame", frame.Filename).Msg("advancing cursor past skipped frame")
			return outcomeFailed
		}
		return outcomeSkipped
	}
	if err != nil {
		p.Log.Error().Err(err).Str("frame", frame.Filename).Msg("extraction failed")
		return outcomeFailed
	}

	entry := domain.ActivityEntry{
		Filename:       frame.Filename,
		Timestamp:      frame.Timestamp,
		Date:           frame.Date,
		Time:           frame.Time,
		Activities:     result.Activities,
		IsContinuation: result.IsContinuation,
	}
	entry.SyncFlatFields()

	if err := p.Entries.Append(entry); err != nil {
		p.Log.Error().Err(err).Str("frame", frame.Filename).Msg("appending to activity store failed")
		return outcomeFailed
	}

	_, indexSpan := tracing.Tracer().Start(ctx, "pipeline.index")
	err = p.Index.IndexEntry(entry)
	indexSpan.End()
	if err != nil {
		p.Log.Error().Err(err).Str("frame", frame.Filename).Msg("indexing entry failed")
		return outcomeFailed
	}

	count := p.Entries.Len()
	if p.RunningSummaryEvery > 0 && count%p.RunningSummaryEvery == 0 {
		p.refreshRunningSummary()
	}
	if p.Profile != nil && p.ProfileUpdateEvery > 0 && count%p.ProfileUpdateEvery == 0 {
		p.triggerProfileUpdate(ctx)
	}

	return outcomeProcessed
}

// recentContext builds the Extraction Oracle's recent-entry window from
// the Activity Store's tail.
func (p *Pipeline) recentContext() []oracle.RecentEntry {
	n := p.RecentContextN
	if n <= 0 {
		n = 10
	}
	tail := p.Entries.Tail(n)
	out := make([]oracle.RecentEntry, len(tail))
	for i, e := range tail {
		out[i] = oracle.RecentEntry{Date: e.Date, Time: e.Time, Summary: e.Summary}
	}
	return out
}

// refreshRunningSummary stores the most recent entry's summary as the
// Activity Store's running summary. It makes no model call, and extraction
// prompts do not read the stored value (they use recentContext). Failures
// here are logged, not fatal.
func (p *Pipeline) refreshRunningSummary() {
	tail := p.Entries.Tail(10)
	if len(tail) == 0 {
		return
	}
	summary := tail[len(tail)-1].Summary
	if err := p.Entries.SetRecentSummary(summary); err != nil {
		p.Log.Warn().Err(err).Msg("refreshing running summary failed")
	}
}

// triggerProfileUpdate invokes the Profile Manager over the last 100
// entries per spec.md §4.7 step 7; failures here do not fail the frame.
func (p *Pipeline) triggerProfileUpdate(ctx context.Context) {
	tail := p.Entries.Tail(100)
	if _, err := p.Profile.UpdateEntries(ctx, tail); err != nil {
		p.Log.Warn().Err(err).Msg("profile update failed")
	}
}
