// Package core owns the single constructed object every CLI command and
// Chat Facade tool operates through: the Core, parameterized by one
// data_dir, replacing the ambient singletons the distilled spec warns
// against (spec.md §9 "Global state → scoped").
package core

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"

	"screenlog/internal/activitystore"
	"screenlog/internal/audio"
	"screenlog/internal/chat"
	"screenlog/internal/config"
	"screenlog/internal/llmtransport"
	"screenlog/internal/logging"
	"screenlog/internal/oracle"
	"screenlog/internal/phash"
	"screenlog/internal/pipeline"
	"screenlog/internal/profile"
	"screenlog/internal/reanalyzer"
	"screenlog/internal/rules"
	"screenlog/internal/searchindex"
	"screenlog/internal/tracing"
)

// Core owns every on-disk store for one data directory plus the
// components built on top of them, constructed once per CLI invocation.
type Core struct {
	Config config.Config
	Log    zerolog.Logger

	Rules       *rules.Store
	Interpreter *rules.Interpreter
	Entries     *activitystore.Store
	Index       *searchindex.DB
	Dedup       *phash.Store
	Profile     *profile.Manager

	Oracle     *oracle.Oracle
	Pipeline   *pipeline.Pipeline
	Reanalyzer *reanalyzer.Reanalyzer
	Chat       *chat.Facade

	closeLog     func() error
	closeTracing func(context.Context) error

	// isIndexing guards processNew runs: only one invocation may be in
	// flight at a time (spec.md §5's "may-run" guard).
	isIndexing atomic.Bool
}

// Open constructs a Core for cfg.DataDir, loading every store and wiring
// the pipeline/reanalyzer/chat components on top of them. interactive
// controls whether logs are also pretty-printed to stderr.
func Open(cfg config.Config, interactive bool) (*Core, error) {
	logger, closeLog, err := logging.New(cfg.DataDir, cfg.LogLevel, interactive)
	if err != nil {
		return nil, err
	}

	closeTracing, err := tracing.Init(context.Background())
	if err != nil {
		closeLog()
		return nil, err
	}

	rulesStore, err := rules.Open(cfg.DataDir)
	if err != nil {
		closeTracing(context.Background())
		closeLog()
		return nil, err
	}

	entries, err := activitystore.Open(cfg.DataDir)
	if err != nil {
		closeTracing(context.Background())
		closeLog()
		return nil, err
	}

	index, err := searchindex.Open(filepath.Join(cfg.DataDir, "activity-index.db"))
	if err != nil {
		closeTracing(context.Background())
		closeLog()
		return nil, err
	}

	dedup, err := phash.Open(phash.DefaultPath(cfg.DataDir), phash.Options{
		Cap:       cfg.PHashCap,
		Window:    cfg.PHashWindow,
		Threshold: cfg.PHashThreshold,
	})
	if err != nil {
		index.Close()
		closeTracing(context.Background())
		closeLog()
		return nil, err
	}

	client := llmtransport.NewOpenAIClient(cfg.BaseURL, cfg.APIKey)

	profileManager, err := profile.Open(cfg.DataDir, client, cfg.LLMModel)
	if err != nil {
		index.Close()
		closeTracing(context.Background())
		closeLog()
		return nil, err
	}

	ora := oracle.New(client, cfg.LLMModel, rulesStore, audio.NoOp{})

	c := &Core{
		Config:      cfg,
		Log:         logger,
		Rules:       rulesStore,
		Interpreter: rules.NewInterpreter(client, cfg.LLMModel),
		Entries:     entries,
		Index:       index,
		Dedup:       dedup,
		Profile:     profileManager,
		Oracle:       ora,
		closeLog:     closeLog,
		closeTracing: closeTracing,
	}

	c.Pipeline = &pipeline.Pipeline{
		DataDir:             cfg.DataDir,
		Dedup:               dedup,
		Oracle:              ora,
		Entries:             entries,
		Index:               index,
		Profile:             profileManager,
		Log:                 logger,
		RecentContextN:      cfg.RecentContextN,
		RunningSummaryEvery: cfg.RunningSummaryEvery,
		ProfileUpdateEvery:  cfg.ProfileUpdateEvery,
	}

	c.Reanalyzer = &reanalyzer.Reanalyzer{
		DataDir: cfg.DataDir,
		Entries: entries,
		Index:   index,
		Oracle:  ora,
		Log:     logger,
	}

	chatFacade := chat.New(client, cfg.LLMModel, cfg.DataDir)
	chatFacade.Entries = entries
	chatFacade.Index = index
	chatFacade.Rules = rulesStore
	chatFacade.Interpreter = c.Interpreter
	chatFacade.Reanalyzer = c.Reanalyzer
	chatFacade.Profile = profileManager
	chatFacade.Log = logger
	c.Chat = chatFacade

	return c, nil
}

// TryBeginIndexing reports whether this call acquired the indexing guard;
// the caller must call FinishIndexing when done. A false return means an
// indexing run is already in flight.
func (c *Core) TryBeginIndexing() bool {
	return c.isIndexing.CompareAndSwap(false, true)
}

// FinishIndexing releases the indexing guard.
func (c *Core) FinishIndexing() {
	c.isIndexing.Store(false)
}

// IsIndexing reports whether a processNew run is currently in flight.
func (c *Core) IsIndexing() bool {
	return c.isIndexing.Load()
}

// Close releases the SQLite handle, tracer provider, and log file. Safe
// to call once.
func (c *Core) Close() error {
	err := c.Index.Close()
	if c.closeTracing != nil {
		if terr := c.closeTracing(context.Background()); err == nil {
			err = terr
		}
	}
	if c.closeLog != nil {
		if lerr := c.closeLog(); err == nil {
			err = lerr
		}
	}
	return err
}
