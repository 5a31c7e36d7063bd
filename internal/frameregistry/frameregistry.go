// Package frameregistry lists raw screenshot frames from a data directory,
// parsing the strict YYYYMMDD_HHMMSSmmm.jpg filename convention into
// timestamps. It deliberately does not cache: every call re-reads the
// directory, the same uncached-by-design shape as the teacher's directory
// listings elsewhere in the pack (e.g. cklxx-elephant.ai's materials
// ingestion walks a directory fresh on every call rather than keeping a
// live index).
package frameregistry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"screenlog/internal/domain"
)

// filenamePattern matches YYYYMMDD_HHMMSSmmm.jpg exactly.
var filenamePattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})(\d{3})\.jpg$`)

// ParseFilename parses a frame filename into its timestamp components,
// rejecting anything that doesn't match the strict pattern.
func ParseFilename(filename string) (timestampMs int64, date, clock string, err error) {
	m := filenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", "", fmt.Errorf("%w: %q", domain.ErrFrameUnparseable, filename)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])
	millis, _ := strconv.Atoi(m[7])

	t := time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), time.UTC)
	date = t.Format("2006-01-02")
	clock = t.Format("15:04:05")
	return t.UnixMilli(), date, clock, nil
}

// EffectiveDir returns dataDir/recordings if it exists as a directory,
// else dataDir itself (spec.md §4.1). Exported so callers that need to
// resolve a frame's path directly (e.g. internal/reanalyzer) use the same
// resolution rule as ListAll.
func EffectiveDir(dataDir string) string {
	candidate := filepath.Join(dataDir, "recordings")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return dataDir
}

// ListAll returns every parseable frame under dataDir, sorted by timestamp
// ascending. Unparseable filenames are silently skipped.
func ListAll(dataDir string) ([]domain.Frame, error) {
	dir := EffectiveDir(dataDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("frameregistry: reading %s: %w", dir, err)
	}

	frames := make([]domain.Frame, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts, date, clock, err := ParseFilename(e.Name())
		if err != nil {
			continue
		}
		frames = append(frames, domain.Frame{
			Filename:     e.Name(),
			Timestamp:    ts,
			Date:         date,
			Time:         clock,
			AbsolutePath: filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].Timestamp < frames[j].Timestamp })
	return frames, nil
}

// ListAfter returns every parseable frame whose timestamp is strictly after
// cursor. A nil cursor returns every frame.
func ListAfter(dataDir string, cursor *int64) ([]domain.Frame, error) {
	all, err := ListAll(dataDir)
	if err != nil {
		return nil, err
	}
	if cursor == nil {
		return all, nil
	}
	out := all[:0:0]
	for _, f := range all {
		if f.Timestamp > *cursor {
			out = append(out, f)
		}
	}
	return out, nil
}
