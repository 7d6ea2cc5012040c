// Package phash computes 64-bit DCT perceptual fingerprints. Small edits to
// an image flip few fingerprint bits, so Hamming distance measures visual
// drift rather than byte-level change.
package phash

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/bits"
	"sort"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

const (
	reduceSize = 32 // downscaled edge length fed to the DCT
	hashSize   = 8  // low-frequency block kept for the hash
)

// Hash is a 64-bit perceptual fingerprint.
type Hash uint64

// dctBasis is the orthonormal DCT-II basis for reduceSize, built once.
var dctBasis = func() *mat.Dense {
	n := reduceSize
	t := mat.NewDense(n, n, nil)
	for i := range n {
		scale := math.Sqrt(2.0 / float64(n))
		if i == 0 {
			scale = 1.0 / math.Sqrt(float64(n))
		}
		for j := range n {
			t.Set(i, j, scale*math.Cos(
				(float64(i)*math.Pi*(2*float64(j)+1))/(2*float64(n))))
		}
	}
	return t
}()

// FromImage fingerprints an image: downscale to 32x32 grayscale, take the
// 2D DCT, keep the top-left 8x8 low-frequency block, and threshold each
// coefficient against the block median.
func FromImage(src image.Image) Hash {
	small := image.NewGray(image.Rect(0, 0, reduceSize, reduceSize))
	xdraw.BiLinear.Scale(small, small.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	px := mat.NewDense(reduceSize, reduceSize, nil)
	for y := range reduceSize {
		for x := range reduceSize {
			px.Set(y, x, float64(small.GrayAt(x, y).Y))
		}
	}

	// D = T * P * T^T
	var tmp, d mat.Dense
	tmp.Mul(dctBasis, px)
	d.Mul(&tmp, dctBasis.T())

	low := make([]float64, 0, hashSize*hashSize)
	for y := range hashSize {
		for x := range hashSize {
			low = append(low, d.At(y, x))
		}
	}
	med := median(low)

	var h Hash
	for i, v := range low {
		if v > med {
			h |= 1 << uint(63-i)
		}
	}
	return h
}

// Distance is the Hamming distance between two fingerprints.
func (h Hash) Distance(o Hash) int {
	return bits.OnesCount64(uint64(h ^ o))
}

// String renders the fingerprint as 16 hex characters.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// Parse reads a fingerprint produced by String.
func Parse(s string) (Hash, error) {
	if len(s) != 16 {
		return 0, errors.New("fingerprint must be 16 hex characters")
	}
	var v uint64
	if _, err := fmt.Sscanf(s, "%016x", &v); err != nil {
		return 0, fmt.Errorf("malformed fingerprint: %w", err)
	}
	return Hash(v), nil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
