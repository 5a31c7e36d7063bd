// Package phash computes 64-bit average-hash perceptual fingerprints and
// keeps a sliding, capped window of recent hashes for near-duplicate frame
// detection. The resize step is grounded on golang.org/x/image/draw, which
// appears across the example pack (beeper-ai-bridge's image pipeline decodes
// with the same image/* + golang.org/x/image combination) as the idiomatic
// way to do fixed-interpolation image scaling without cgo.
package phash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"
	"os"

	"golang.org/x/image/draw"
)

const (
	hashSide = 8 // 8x8 grayscale grid -> 64 bits
)

// Hash64 computes a 64-bit average hash from raw image bytes: downscale to
// an 8x8 grayscale grid with a fixed interpolator, set bit i to 1 where
// pixel i exceeds the grid mean.
func Hash64(data []byte) (uint64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("phash: decoding image: %w", err)
	}

	small := image.NewGray(image.Rect(0, 0, hashSide, hashSide))
	draw.CatmullRom.Scale(small, small.Bounds(), img, img.Bounds(), draw.Over, nil)

	var sum int
	pixels := make([]uint8, 0, hashSide*hashSide)
	for y := 0; y < hashSide; y++ {
		for x := 0; x < hashSide; x++ {
			v := small.GrayAt(x, y).Y
			pixels = append(pixels, v)
			sum += int(v)
		}
	}
	mean := sum / len(pixels)

	var h uint64
	for i, v := range pixels {
		if int(v) > mean {
			h |= 1 << uint(i)
		}
	}
	return h, nil
}

// HashFile reads and hashes the image at path.
func HashFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("phash: reading %s: %w", path, err)
	}
	return Hash64(data)
}

// ToHex renders a 64-bit hash as 16 lowercase hex nibbles.
func ToHex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// FromHex parses a 16-nibble hex string back into a 64-bit hash.
func FromHex(s string) (uint64, error) {
	var h uint64
	_, err := fmt.Sscanf(s, "%016x", &h)
	if err != nil {
		return 0, fmt.Errorf("phash: parsing hash %q: %w", s, err)
	}
	return h, nil
}

// HammingDistance counts differing bits between two hashes.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
