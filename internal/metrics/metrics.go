// Package metrics exposes Prometheus counters for the Indexing Pipeline
// and Reanalyzer, following tomtom215-cartographus's internal/authz/metrics.go
// promauto registration pattern (package-level vars registered once at
// import time, incremented from call sites with no Core plumbing needed).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FramesProcessedTotal counts processNew outcomes by status
// (processed/skipped/failed).
var FramesProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "screenlog_frames_processed_total",
		Help: "Total frames handled by the indexing pipeline, by outcome",
	},
	[]string{"outcome"},
)

// ReanalyzedTotal counts reanalyze outcomes by status
// (reanalyzed/skipped/failed).
var ReanalyzedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "screenlog_reanalyzed_total",
		Help: "Total entries handled by the reanalyzer, by outcome",
	},
	[]string{"outcome"},
)

// DuplicateFramesTotal counts frames the Perceptual Deduper marked as
// duplicates, tracked separately from FramesProcessedTotal's "skipped"
// bucket since a skip can also originate from a malformed extraction.
var DuplicateFramesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "screenlog_duplicate_frames_total",
		Help: "Total frames identified as perceptual-hash duplicates",
	},
)
