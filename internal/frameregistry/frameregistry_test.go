package frameregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"screenlog/internal/domain"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestParseFilenameValid(t *testing.T) {
	ts, date, clock, err := ParseFilename("20260315_143022500.jpg")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", date)
	assert.Equal(t, "14:30:22", clock)
	assert.Greater(t, ts, int64(0))
}

func TestParseFilenameInvalid(t *testing.T) {
	_, _, _, err := ParseFilename("screenshot.jpg")
	assert.ErrorIs(t, err, domain.ErrFrameUnparseable)

	_, _, _, err = ParseFilename("20260315-143022500.jpg")
	assert.ErrorIs(t, err, domain.ErrFrameUnparseable)
}

func TestListAllSortsAndSkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "20260315_143022500.jpg")
	touch(t, dir, "20260315_120000000.jpg")
	touch(t, dir, "notes.txt")
	touch(t, dir, "badname.jpg")

	frames, err := ListAll(dir)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "20260315_120000000.jpg", frames[0].Filename)
	assert.Equal(t, "20260315_143022500.jpg", frames[1].Filename)
}

func TestListAllPrefersRecordingsSubdir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "recordings")
	require.NoError(t, os.Mkdir(sub, 0o755))
	touch(t, sub, "20260315_120000000.jpg")
	touch(t, dir, "20260315_130000000.jpg") // outside recordings/, ignored

	frames, err := ListAll(dir)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "20260315_120000000.jpg", frames[0].Filename)
}

func TestListAfterFiltersByCursor(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "20260315_120000000.jpg")
	touch(t, dir, "20260315_130000000.jpg")

	all, err := ListAll(dir)
	require.NoError(t, err)
	cursor := all[0].Timestamp

	after, err := ListAfter(dir, &cursor)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "20260315_130000000.jpg", after[0].Filename)
}

func TestListAfterNilCursorReturnsAll(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "20260315_120000000.jpg")

	after, err := ListAfter(dir, nil)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestListAllMissingDirReturnsEmpty(t *testing.T) {
	frames, err := ListAll(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, frames)
}
