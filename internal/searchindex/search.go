package searchindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"screenlog/internal/domain"
)

// ftsTokenRE isolates word characters for FTS5 term construction, the same
// tokenization shape as beeper-ai-bridge's pkg/memory.BuildFtsQuery.
var ftsTokenRE = regexp.MustCompile(`[A-Za-z0-9_]+`)

// buildMatchQuery tokenizes raw by whitespace/punctuation, strips quotes,
// and wraps each token as a prefix match ("tok"*), joined with OR — a
// looser recall-favoring shape than hybrid.go's AND-join, appropriate for
// free-text activity search where any matching term is a useful hit.
func buildMatchQuery(raw string) string {
	tokens := ftsTokenRE.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		clean := strings.ReplaceAll(tok, `"`, "")
		if clean == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`"%s"*`, clean))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " OR ")
}

func bm25Args(weights []float64) []any {
	args := make([]any, len(weights))
	for i, w := range weights {
		args[i] = w
	}
	return args
}

// SearchWeighted runs a BM25-ranked full-text query against entries_fts,
// returning up to limit deserialized entries ordered by relevance (spec.md
// §4.6 searchWeighted).
func (d *DB) SearchWeighted(query string, limit int) ([]domain.ActivityEntry, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := fmt.Sprintf(`
		SELECT e.raw_json
		FROM entries_fts f
		JOIN entries e ON e.rowid = f.rowid
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts, %s) ASC
		LIMIT ?`, placeholderList(len(entryFTSWeights)))

	args := append([]any{match}, bm25Args(entryFTSWeights)...)
	args = append(args, limit)

	rows, err := d.sql.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searchindex: searching entries_fts: %w", err)
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var entry domain.ActivityEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("searchindex: unmarshaling raw_json: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ActivityHit is one ranked row from SearchActivitiesWeighted.
type ActivityHit struct {
	Entry    domain.ActivityEntry
	Layer    string
	Activity string
	Summary  string
	Tags     []string
	AppName  string
}

// SearchActivitiesWeighted runs the same BM25 shape against activities_fts,
// joined back through activities to entries, returning per-layer hits.
func (d *DB) SearchActivitiesWeighted(query string, limit int) ([]ActivityHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := fmt.Sprintf(`
		SELECT e.raw_json, a.layer, a.activity, a.summary, a.tags, a.app_name
		FROM activities_fts f
		JOIN activities a ON a.id = f.rowid
		JOIN entries e ON e.filename = a.filename
		WHERE activities_fts MATCH ?
		ORDER BY bm25(activities_fts, %s) ASC
		LIMIT ?`, placeholderList(len(activityFTSWeights)))

	args := append([]any{match}, bm25Args(activityFTSWeights)...)
	args = append(args, limit)

	rows, err := d.sql.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searchindex: searching activities_fts: %w", err)
	}
	defer rows.Close()

	var out []ActivityHit
	for rows.Next() {
		var raw, layer, activity, summary, tagsCSV, appName string
		if err := rows.Scan(&raw, &layer, &activity, &summary, &tagsCSV, &appName); err != nil {
			return nil, err
		}
		var entry domain.ActivityEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("searchindex: unmarshaling raw_json: %w", err)
		}
		hit := ActivityHit{Entry: entry, Layer: layer, Activity: activity, Summary: summary, AppName: appName}
		if tagsCSV != "" {
			hit.Tags = strings.Split(tagsCSV, ",")
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

func placeholderList(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ",")
}

// GetByDate returns every entry on the given date, ordered by timestamp.
func (d *DB) GetByDate(date string) ([]domain.ActivityEntry, error) {
	return d.queryEntries(`SELECT raw_json FROM entries WHERE date = ? ORDER BY timestamp ASC`, date)
}

// GetByDateRange returns every entry with date in [start, end] inclusive.
func (d *DB) GetByDateRange(start, end string) ([]domain.ActivityEntry, error) {
	return d.queryEntries(`SELECT raw_json FROM entries WHERE date >= ? AND date <= ? ORDER BY timestamp ASC`, start, end)
}

// GetByApp returns every entry whose primary app_name matches name.
func (d *DB) GetByApp(name string) ([]domain.ActivityEntry, error) {
	return d.queryEntries(`SELECT raw_json FROM entries WHERE app_name = ? ORDER BY timestamp ASC`, name)
}

func (d *DB) queryEntries(query string, args ...any) ([]domain.ActivityEntry, error) {
	rows, err := d.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searchindex: query: %w", err)
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var entry domain.ActivityEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("searchindex: unmarshaling raw_json: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Count returns the number of indexed entries, for status reporting.
func (d *DB) Count() (int, error) {
	var n int
	err := d.sql.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return n, nil
}

// ListApps returns the distinct primary app names seen across all
// entries, for the Chat Facade's list_apps tool and the apps command.
func (d *DB) ListApps() ([]string, error) {
	rows, err := d.sql.Query(`SELECT DISTINCT app_name FROM entries WHERE app_name != '' ORDER BY app_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("searchindex: listing apps: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
