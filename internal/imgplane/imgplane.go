// Package imgplane splits images into float channel planes and rebuilds
// them. The watermark codec works on the luminance plane; chroma and alpha
// pass through untouched.
package imgplane

import (
	"image"
	"image/color"

	"github.com/pixelledger/pixelmark/internal/yuv"
)

type Planes struct {
	Bounds image.Rectangle
	W, H   int

	// Y, U, V are row-major float planes in 8-bit value range.
	Y, U, V []float64
	A       []uint8
}

// FromImage decomposes src into YUV planes.
func FromImage(src image.Image) *Planes {
	b := src.Bounds()
	p := &Planes{
		Bounds: b,
		W:      b.Dx(),
		H:      b.Dy(),
	}
	area := p.W * p.H
	p.Y = make([]float64, area)
	p.U = make([]float64, area)
	p.V = make([]float64, area)
	p.A = make([]uint8, area)

	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r32, g32, b32, a32 := src.At(x, y).RGBA()
			p.Y[idx], p.U[idx], p.V[idx] = yuv.FromRGB(
				float64(r32>>8), float64(g32>>8), float64(b32>>8))
			p.A[idx] = uint8(a32 >> 8)
			idx++
		}
	}
	return p
}

// Image rebuilds an RGBA image from the planes.
func (p *Planes) Image() image.Image {
	dst := image.NewRGBA(p.Bounds)
	idx := 0
	for y := p.Bounds.Min.Y; y < p.Bounds.Max.Y; y++ {
		for x := p.Bounds.Min.X; x < p.Bounds.Max.X; x++ {
			r, g, b := yuv.ToRGB(p.Y[idx], p.U[idx], p.V[idx])
			dst.SetRGBA(x, y, color.RGBA{
				R: yuv.Clip8(r),
				G: yuv.Clip8(g),
				B: yuv.Clip8(b),
				A: p.A[idx],
			})
			idx++
		}
	}
	return dst
}
