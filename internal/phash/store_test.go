package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSolid(t *testing.T, path string, y uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for py := 0; py < 32; py++ {
		for px := 0; px < 32; px++ {
			v := y
			if (px+py)%7 == 0 {
				v = 255 - y
			}
			img.SetGray(px, py, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestCheckAndAddFirstFrameNotDuplicate(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "20260101_120000000.png")
	writeSolid(t, imgPath, 50)

	s, err := Open(filepath.Join(dir, "index.json"), Options{})
	require.NoError(t, err)

	res := s.CheckAndAdd(imgPath, "20260101_120000000.png", 1)
	assert.False(t, res.IsDuplicate)
	assert.NotEmpty(t, res.Hash)
	assert.Equal(t, 1, s.Len())
}

func TestCheckAndAddSameFilenameShortCircuits(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "f.png")
	writeSolid(t, imgPath, 50)

	s, err := Open(filepath.Join(dir, "index.json"), Options{})
	require.NoError(t, err)

	first := s.CheckAndAdd(imgPath, "f.png", 1)
	second := s.CheckAndAdd(imgPath, "f.png", 2)
	assert.False(t, second.IsDuplicate)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, 1, s.Len())
}

func TestCheckAndAddDetectsDuplicateWithinWindow(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "near-identical.png")
	writeSolid(t, imgPath, 50)

	s, err := Open(filepath.Join(dir, "index.json"), Options{})
	require.NoError(t, err)

	s.CheckAndAdd(imgPath, "first.png", 1)
	res := s.CheckAndAdd(imgPath, "second.png", 2)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, "first.png", res.SimilarTo)
	assert.Equal(t, 2, s.Len(), "duplicates still append to keep the window fresh")
}

func TestCheckAndAddEnforcesCap(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.json"), Options{Cap: 3, Window: 1})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		imgPath := filepath.Join(dir, "img.png")
		writeSolid(t, imgPath, uint8(i*40))
		s.CheckAndAdd(imgPath, filepath.Base(imgPath)+string(rune('a'+i)), int64(i))
	}
	assert.Equal(t, 3, s.Len())
}

func TestOpenReloadsPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.json")
	imgPath := filepath.Join(dir, "f.png")
	writeSolid(t, imgPath, 50)

	s1, err := Open(indexPath, Options{})
	require.NoError(t, err)
	s1.CheckAndAdd(imgPath, "f.png", 1)

	s2, err := Open(indexPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Len())

	res := s2.CheckAndAdd(imgPath, "f.png", 2)
	assert.False(t, res.IsDuplicate)
}
