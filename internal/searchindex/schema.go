// Package searchindex is the SQLite-backed Search Index: one row per entry,
// one row per layer, and two external-content FTS5 mirrors kept in sync by
// triggers. Grounded on allaspectsdev-tokenman's internal/store package for
// the pragma/DSN shape (WAL, busy_timeout, foreign_keys) and on
// beeper-ai-bridge's pkg/connector/memory_index.go + pkg/memory/hybrid.go
// for the FTS5-virtual-table-plus-BM25 query pattern.
//
// Build with `-tags sqlite_fts5` (mattn/go-sqlite3 compiles FTS5 support
// only when that tag is set).
package searchindex

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// layerMetadataColumns lists every per-layer metadata column, in the exact
// order layerValues.args() emits them. entries and activities share this
// column set; entries carries only the primary layer's values.
var layerMetadataColumns = []string{
	"app_name", "app_category", "window_title", "bundle_or_path",
	"url", "domain", "page_title", "page_type",
	"video_platform", "video_title", "video_channel", "video_duration", "video_position", "video_state",
	"ide_name", "current_file", "file_path", "language", "project_name", "git_branch",
	"terminal_cwd", "last_command", "terminal_shell", "ssh_host",
	"communication_app", "communication_channel", "communication_recipient", "communication_type",
	"document_app", "document_title", "document_type",
	"activity", "summary", "tags",
}

// entryColumns is entries' full column list: identity columns, the shared
// layer metadata columns (primary layer only), then entry-only columns.
var entryColumns = append(append([]string{"filename", "timestamp", "date", "time"}, layerMetadataColumns...),
	"audio_recording_id", "audio_transcription", "is_continuation", "raw_json")

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entries (
	filename TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	app_name TEXT, app_category TEXT, window_title TEXT, bundle_or_path TEXT,
	url TEXT, domain TEXT, page_title TEXT, page_type TEXT,
	video_platform TEXT, video_title TEXT, video_channel TEXT, video_duration TEXT, video_position TEXT, video_state TEXT,
	ide_name TEXT, current_file TEXT, file_path TEXT, language TEXT, project_name TEXT, git_branch TEXT,
	terminal_cwd TEXT, last_command TEXT, terminal_shell TEXT, ssh_host TEXT,
	communication_app TEXT, communication_channel TEXT, communication_recipient TEXT, communication_type TEXT,
	document_app TEXT, document_title TEXT, document_type TEXT,
	activity TEXT, summary TEXT, tags TEXT,
	audio_recording_id TEXT, audio_transcription TEXT,
	is_continuation INTEGER NOT NULL DEFAULT 0,
	raw_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);
CREATE INDEX IF NOT EXISTS idx_entries_app_name ON entries(app_name);

CREATE TABLE IF NOT EXISTS activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL REFERENCES entries(filename) ON DELETE CASCADE,
	layer TEXT NOT NULL,
	app_name TEXT, app_category TEXT, window_title TEXT, bundle_or_path TEXT,
	url TEXT, domain TEXT, page_title TEXT, page_type TEXT,
	video_platform TEXT, video_title TEXT, video_channel TEXT, video_duration TEXT, video_position TEXT, video_state TEXT,
	ide_name TEXT, current_file TEXT, file_path TEXT, language TEXT, project_name TEXT, git_branch TEXT,
	terminal_cwd TEXT, last_command TEXT, terminal_shell TEXT, ssh_host TEXT,
	communication_app TEXT, communication_channel TEXT, communication_recipient TEXT, communication_type TEXT,
	document_app TEXT, document_title TEXT, document_type TEXT,
	activity TEXT, summary TEXT, tags TEXT
);
CREATE INDEX IF NOT EXISTS idx_activities_filename ON activities(filename);
`

const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
	activity, summary, page_title, tags, audio_transcription, window_title, document_title,
	content='entries', content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
	INSERT INTO entries_fts(rowid, activity, summary, page_title, tags, audio_transcription, window_title, document_title)
	VALUES (new.rowid, new.activity, new.summary, new.page_title, new.tags, new.audio_transcription, new.window_title, new.document_title);
END;
CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
	INSERT INTO entries_fts(entries_fts, rowid, activity, summary, page_title, tags, audio_transcription, window_title, document_title)
	VALUES ('delete', old.rowid, old.activity, old.summary, old.page_title, old.tags, old.audio_transcription, old.window_title, old.document_title);
END;
CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
	INSERT INTO entries_fts(entries_fts, rowid, activity, summary, page_title, tags, audio_transcription, window_title, document_title)
	VALUES ('delete', old.rowid, old.activity, old.summary, old.page_title, old.tags, old.audio_transcription, old.window_title, old.document_title);
	INSERT INTO entries_fts(rowid, activity, summary, page_title, tags, audio_transcription, window_title, document_title)
	VALUES (new.rowid, new.activity, new.summary, new.page_title, new.tags, new.audio_transcription, new.window_title, new.document_title);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS activities_fts USING fts5(
	activity, summary, page_title, tags,
	content='activities', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS activities_ai AFTER INSERT ON activities BEGIN
	INSERT INTO activities_fts(rowid, activity, summary, page_title, tags)
	VALUES (new.id, new.activity, new.summary, new.page_title, new.tags);
END;
CREATE TRIGGER IF NOT EXISTS activities_ad AFTER DELETE ON activities BEGIN
	INSERT INTO activities_fts(activities_fts, rowid, activity, summary, page_title, tags)
	VALUES ('delete', old.id, old.activity, old.summary, old.page_title, old.tags);
END;
CREATE TRIGGER IF NOT EXISTS activities_au AFTER UPDATE ON activities BEGIN
	INSERT INTO activities_fts(activities_fts, rowid, activity, summary, page_title, tags)
	VALUES ('delete', old.id, old.activity, old.summary, old.page_title, old.tags);
	INSERT INTO activities_fts(rowid, activity, summary, page_title, tags)
	VALUES (new.id, new.activity, new.summary, new.page_title, new.tags);
END;
`

// entryFTSWeights biases activity/summary/page_title/tags/audio_transcription
// above the remaining FTS columns (spec.md §4.6 searchWeighted). Column
// order must match entries_fts's declaration order above.
var entryFTSWeights = []float64{5.0, 4.0, 3.0, 3.0, 2.0, 1.0, 1.0}

// activityFTSWeights mirrors entryFTSWeights for the activities_fts table's
// narrower column set.
var activityFTSWeights = []float64{5.0, 4.0, 3.0, 3.0}

// Open opens (creating if necessary) the SQLite database at path, applies
// pragmas, and ensures the schema (including FTS5 migration) is current.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("searchindex: opening %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1) // single writer; go-sqlite3 serializes anyway under WAL

	db := &DB{sql: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// DB wraps the Search Index's *sql.DB with the higher-level operations in
// index.go and search.go.
type DB struct {
	sql *sql.DB
}

// Close releases the underlying database handle.
func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	if _, err := d.sql.Exec(schemaDDL); err != nil {
		return fmt.Errorf("searchindex: creating schema: %w", err)
	}
	if err := d.ensureFTS(); err != nil {
		return err
	}
	return nil
}

// ensureFTS verifies the FTS5 tables carry every column the current schema
// requires, recreating (and rebuilding) them if an older database predates
// a column addition such as audio_transcription.
func (d *DB) ensureFTS() error {
	needsRebuild, err := d.ftsMissingColumn("entries_fts", "audio_transcription")
	if err != nil {
		return err
	}
	if needsRebuild {
		if _, err := d.sql.Exec(`
			DROP TRIGGER IF EXISTS entries_ai; DROP TRIGGER IF EXISTS entries_ad; DROP TRIGGER IF EXISTS entries_au;
			DROP TRIGGER IF EXISTS activities_ai; DROP TRIGGER IF EXISTS activities_ad; DROP TRIGGER IF EXISTS activities_au;
			DROP TABLE IF EXISTS entries_fts;
			DROP TABLE IF EXISTS activities_fts;
		`); err != nil {
			return fmt.Errorf("searchindex: dropping stale fts tables: %w", err)
		}
	}
	if _, err := d.sql.Exec(ftsDDL); err != nil {
		return fmt.Errorf("searchindex: creating fts schema: %w", err)
	}
	if needsRebuild {
		return d.RebuildIndex()
	}
	return nil
}

func (d *DB) ftsMissingColumn(table, column string) (bool, error) {
	rows, err := d.sql.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, nil // table doesn't exist yet; fresh create below, nothing to rebuild.
	}
	defer rows.Close()

	found := false
	any := false
	for rows.Next() {
		any = true
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			found = true
		}
	}
	if !any {
		return false, nil
	}
	return !found, nil
}

// RebuildIndex runs the FTS5 'rebuild' special command on both virtual
// tables (spec.md §4.6 rebuildIndex).
func (d *DB) RebuildIndex() error {
	if _, err := d.sql.Exec(`INSERT INTO entries_fts(entries_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("searchindex: rebuilding entries_fts: %w", err)
	}
	if _, err := d.sql.Exec(`INSERT INTO activities_fts(activities_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("searchindex: rebuilding activities_fts: %w", err)
	}
	return nil
}

// Clear deletes every row from both real tables (FTS mirrors follow via
// triggers).
func (d *DB) Clear() error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM activities`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return err
	}
	return tx.Commit()
}
