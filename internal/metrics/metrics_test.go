package metrics

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func flatImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func texturedImage(w, h int, shift int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := 64 + (x*11+y*29)%96 + shift
			if v > 255 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{uint8(v), uint8(v), uint8(v), 255})
		}
	}
	return img
}

func TestIdenticalImages(t *testing.T) {
	img := texturedImage(64, 64, 0)
	assert.Equal(t, 0.0, MSE(img, img))
	assert.Equal(t, 100.0, PSNR(img, img))
	assert.InDelta(t, 1.0, SSIM(img, img), 1e-12)
	assert.InDelta(t, 1.0, HistogramCorrelation(img, img), 1e-12)
}

func TestMSEKnownDifference(t *testing.T) {
	a := flatImage(16, 16, color.RGBA{100, 100, 100, 255})
	b := flatImage(16, 16, color.RGBA{110, 100, 100, 255})
	// only the red channel differs by 10: mean over 3 channels
	assert.InDelta(t, 100.0/3.0, MSE(a, b), 1e-9)
}

func TestPSNRDecreasesWithError(t *testing.T) {
	base := texturedImage(64, 64, 0)
	assert.Greater(t,
		PSNR(base, texturedImage(64, 64, 4)),
		PSNR(base, texturedImage(64, 64, 16)))
}

func TestSSIMDegrades(t *testing.T) {
	base := texturedImage(64, 64, 0)
	inverted := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			r, _, _, _ := base.At(x, y).RGBA()
			v := 255 - uint8(r>>8)
			inverted.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	assert.Less(t, SSIM(base, inverted), 0.5)
}

func TestResize(t *testing.T) {
	src := texturedImage(64, 48, 0)
	dst := Resize(src, 32, 24)
	assert.Equal(t, 32, dst.Bounds().Dx())
	assert.Equal(t, 24, dst.Bounds().Dy())
	// same dimensions return the source untouched
	assert.Equal(t, image.Image(src), Resize(src, 64, 48))
}

func TestHistogramCorrelationShift(t *testing.T) {
	base := texturedImage(64, 64, 0)
	near := texturedImage(64, 64, 1)
	far := texturedImage(64, 64, 60)
	assert.Greater(t,
		HistogramCorrelation(base, near),
		HistogramCorrelation(base, far))
}
