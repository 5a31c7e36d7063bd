package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestWriteJSONAndReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	want := sample{Name: "x", N: 7}
	require.NoError(t, WriteJSON(path, want))

	var got sample
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, want, got)
}

func TestWriteJSONLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, WriteJSON(path, sample{Name: "y"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestReadJSONMissingFileReturnsNotExist(t *testing.T) {
	var got sample
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &got)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.md")
	require.NoError(t, Write(path, []byte("# Title\n")))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", string(got))
}

func TestReadMissingFileReturnsNotExist(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.md"))
	assert.True(t, os.IsNotExist(err))
}
