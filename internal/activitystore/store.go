// Package activitystore is the JSON source of truth for processed activity
// entries: an ordered list, a running natural-language summary, and the
// "last processed" cursor. Every mutation rewrites the whole file
// atomically (internal/atomicfile), upholding I7 — either an entry and all
// its layer rows land, or none do.
package activitystore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"screenlog/internal/atomicfile"
	"screenlog/internal/domain"
)

// document is the on-disk shape of activity-context.json.
type document struct {
	Entries       []domain.ActivityEntry `json:"entries"`
	Sessions      []string                `json:"sessions,omitempty"`
	LastProcessed *int64                  `json:"lastProcessed,omitempty"`
	RecentSummary string                  `json:"recentSummary,omitempty"`
}

// Store is the Activity Store.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// Open loads activity-context.json from dataDir, starting empty if it does
// not exist yet.
func Open(dataDir string) (*Store, error) {
	s := &Store{path: filepath.Join(dataDir, "activity-context.json")}
	if err := atomicfile.ReadJSON(s.path, &s.doc); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
		}
	}
	return s, nil
}

// Load returns a copy of every stored entry, in append order.
func (s *Store) Load() []domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ActivityEntry, len(s.doc.Entries))
	copy(out, s.doc.Entries)
	return out
}

// Append adds entry to the end of the store and advances the cursor
// (I6: the cursor never moves backwards — it only moves when the entry's
// timestamp is later than the current cursor).
func (s *Store) Append(entry domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.SyncFlatFields()
	if err := entry.Validate(); err != nil {
		return err
	}

	s.doc.Entries = append(s.doc.Entries, entry)
	ts := entry.Timestamp
	if s.doc.LastProcessed == nil || ts > *s.doc.LastProcessed {
		s.doc.LastProcessed = &ts
	}
	return s.persistLocked()
}

// Replace overwrites the entry matching filename in place, leaving its
// position and the cursor untouched. Used by the Reanalyzer.
func (s *Store) Replace(filename string, entry domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.SyncFlatFields()
	if err := entry.Validate(); err != nil {
		return err
	}

	for i := range s.doc.Entries {
		if s.doc.Entries[i].Filename == filename {
			s.doc.Entries[i] = entry
			return s.persistLocked()
		}
	}
	return fmt.Errorf("activitystore: entry %q not found", filename)
}

// AdvanceCursor moves the "last processed" cursor forward to ts without
// appending an entry, for frames the pipeline skips (deduped) rather than
// stores (I6: never moves it backward).
func (s *Store) AdvanceCursor(ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.LastProcessed != nil && ts <= *s.doc.LastProcessed {
		return nil
	}
	s.doc.LastProcessed = &ts
	return s.persistLocked()
}

// Cursor returns the "last processed" timestamp, or nil if nothing has
// been processed yet.
func (s *Store) Cursor() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.LastProcessed == nil {
		return nil
	}
	v := *s.doc.LastProcessed
	return &v
}

// RecentSummary returns the currently stored running summary.
func (s *Store) RecentSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.RecentSummary
}

// SetRecentSummary overwrites the running summary and persists it.
func (s *Store) SetRecentSummary(summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.RecentSummary = summary
	return s.persistLocked()
}

// GetByDate returns every entry whose Date equals date, in append order.
func (s *Store) GetByDate(date string) []domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActivityEntry
	for _, e := range s.doc.Entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// GetByDateRange returns every entry whose Date falls within [start, end]
// inclusive (lexical comparison, valid for "YYYY-MM-DD" strings).
func (s *Store) GetByDateRange(start, end string) []domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActivityEntry
	for _, e := range s.doc.Entries {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	return out
}

// GetByApp returns every entry whose flattened App field equals name.
func (s *Store) GetByApp(name string) []domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActivityEntry
	for _, e := range s.doc.Entries {
		if e.App == name {
			out = append(out, e)
		}
	}
	return out
}

// Tail returns the last n entries (fewer if the store holds less), in
// append order.
func (s *Store) Tail(n int) []domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.doc.Entries) == 0 {
		return nil
	}
	start := len(s.doc.Entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.ActivityEntry, len(s.doc.Entries)-start)
	copy(out, s.doc.Entries[start:])
	return out
}

// ListDates returns every distinct date with at least one entry, sorted
// ascending.
func (s *Store) ListDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	for _, e := range s.doc.Entries {
		seen[e.Date] = true
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Entries)
}

func (s *Store) persistLocked() error {
	if err := atomicfile.WriteJSON(s.path, s.doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
	}
	return nil
}
