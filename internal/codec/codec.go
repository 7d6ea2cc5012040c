// Package codec writes and reads bit sequences in the transform domain of
// an image using quantization-index modulation.
//
// The carrier coefficients are the horizontal and vertical detail bands of
// the deepest Haar decomposition level of the luminance plane. Coefficient
// order is a secret-keyed permutation, so an extractor without the secret
// reads an unrelated coefficient sequence.
package codec

import (
	"errors"
	"image"
	"math"

	"github.com/pixelledger/pixelmark/internal/dwt"
	"github.com/pixelledger/pixelmark/internal/imgplane"
	"github.com/pixelledger/pixelmark/internal/sigkey"
)

var ErrCapacity = errors.New("bit sequence exceeds carrier capacity")

// Carrier is the reusable transform-domain view of one image. The pyramid
// is strength-independent, so a multi-strength extraction decomposes once
// and reads many times; concurrent ReadBits calls are safe.
type Carrier struct {
	planes *imgplane.Planes
	pyr    *dwt.Pyramid
	cH, cV []float64
	perm   []int
}

func NewCarrier(planes *imgplane.Planes, levels int, secret []byte) *Carrier {
	c := &Carrier{planes: planes}
	c.pyr = dwt.Decompose(planes.Y, planes.W, levels)
	c.cH, c.cV = c.pyr.DetailBands()
	c.perm = sigkey.Permutation(secret, len(c.cH)+len(c.cV))
	return c
}

// Capacity returns the number of carrier coefficients.
func (c *Carrier) Capacity() int {
	return len(c.perm)
}

func (c *Carrier) coeff(at int) *float64 {
	idx := c.perm[at]
	if idx < len(c.cH) {
		return &c.cH[idx]
	}
	return &c.cV[idx-len(c.cH)]
}

// WriteBits quantizes one carrier coefficient per bit. The carrier must be
// reconstructed with Image afterwards for the change to take effect.
func (c *Carrier) WriteBits(bits []bool, strength float64) error {
	if len(bits) > c.Capacity() {
		return ErrCapacity
	}
	for i, bit := range bits {
		p := c.coeff(i)
		*p = quantize(*p, strength, bit)
	}
	return nil
}

// ReadBits decodes n bits by checking which quantization bin each carrier
// coefficient falls nearest to.
func (c *Carrier) ReadBits(n int, strength float64) ([]bool, error) {
	if n > c.Capacity() {
		return nil, ErrCapacity
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = nearestBin(*c.coeff(i), strength)
	}
	return bits, nil
}

// Image reconstructs the luminance plane from the (possibly modified)
// pyramid and rebuilds the image.
func (c *Carrier) Image() image.Image {
	c.planes.Y = c.pyr.Reconstruct()
	return c.planes.Image()
}

// quantize forces a coefficient to the nearest multiple of strength for a
// zero bit, or to the nearest half-offset multiple for a one bit. Either
// way the coefficient moves by at most strength/2.
func quantize(v, strength float64, bit bool) float64 {
	if bit {
		return (math.Floor(v/strength) + 0.5) * strength
	}
	return math.Round(v/strength) * strength
}

// nearestBin reports whether a coefficient sits nearer the half-offset
// grid (a one bit) than the whole-multiple grid (a zero bit).
func nearestBin(v, strength float64) bool {
	frac := v/strength - math.Floor(v/strength)
	return frac >= 0.25 && frac < 0.75
}
