// Package metrics implements the pixel-domain divergence measures used for
// embedding quality control and tamper assessment.
package metrics

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// Resize scales src to w x h with bilinear interpolation. The tamper
// engine always scales the uploaded image onto the catalog original's
// dimensions before comparing.
func Resize(src image.Image, w, h int) image.Image {
	if b := src.Bounds(); b.Dx() == w && b.Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// MSE is the mean squared per-pixel difference averaged over the RGB
// channels. Images must share dimensions.
func MSE(a, b image.Image) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	var sum float64
	for y := range h {
		for x := range w {
			ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			dr := float64(ar>>8) - float64(br>>8)
			dg := float64(ag>>8) - float64(bg>>8)
			db := float64(abl>>8) - float64(bbl>>8)
			sum += dr*dr + dg*dg + db*db
		}
	}
	return sum / float64(w*h*3)
}

// PSNR is the peak signal-to-noise ratio in dB between two images of equal
// dimensions. Identical images report 100 dB rather than infinity.
func PSNR(a, b image.Image) float64 {
	mse := MSE(a, b)
	if mse <= 0 {
		return 100
	}
	return 10 * math.Log10(255.0*255.0/mse)
}

const (
	ssimWindow = 8
	ssimC1     = (0.01 * 255) * (0.01 * 255)
	ssimC2     = (0.03 * 255) * (0.03 * 255)
)

// SSIM is the mean structural similarity index over non-overlapping 8x8
// luminance windows. 1.0 means structurally identical.
func SSIM(a, b image.Image) float64 {
	ga := grayPlane(a)
	gb := grayPlane(b)
	w := a.Bounds().Dx()
	h := a.Bounds().Dy()

	var total float64
	var windows int
	for wy := 0; wy+ssimWindow <= h; wy += ssimWindow {
		for wx := 0; wx+ssimWindow <= w; wx += ssimWindow {
			total += windowSSIM(ga, gb, w, wx, wy)
			windows++
		}
	}
	if windows == 0 {
		// image smaller than one window: single global comparison
		return windowSSIMFull(ga, gb)
	}
	return total / float64(windows)
}

func windowSSIM(a, b []float64, stride, wx, wy int) float64 {
	var ma, mb float64
	n := float64(ssimWindow * ssimWindow)
	for y := range ssimWindow {
		for x := range ssimWindow {
			idx := (wy+y)*stride + wx + x
			ma += a[idx]
			mb += b[idx]
		}
	}
	ma /= n
	mb /= n

	var va, vb, cov float64
	for y := range ssimWindow {
		for x := range ssimWindow {
			idx := (wy+y)*stride + wx + x
			da, db := a[idx]-ma, b[idx]-mb
			va += da * da
			vb += db * db
			cov += da * db
		}
	}
	va /= n - 1
	vb /= n - 1
	cov /= n - 1

	return ((2*ma*mb + ssimC1) * (2*cov + ssimC2)) /
		((ma*ma + mb*mb + ssimC1) * (va + vb + ssimC2))
}

func windowSSIMFull(a, b []float64) float64 {
	n := float64(len(a))
	var ma, mb float64
	for i := range a {
		ma += a[i]
		mb += b[i]
	}
	ma /= n
	mb /= n
	var va, vb, cov float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		va += da * da
		vb += db * db
		cov += da * db
	}
	va /= n - 1
	vb /= n - 1
	cov /= n - 1
	return ((2*ma*mb + ssimC1) * (2*cov + ssimC2)) /
		((ma*ma + mb*mb + ssimC1) * (va + vb + ssimC2))
}

// HistogramCorrelation is the Pearson correlation of per-channel 256-bin
// RGB histograms, averaged over the three channels. 1.0 means identical
// color distributions.
func HistogramCorrelation(a, b image.Image) float64 {
	var total float64
	for ch := range 3 {
		ha := histogram(a, ch)
		hb := histogram(b, ch)
		total += stat.Correlation(ha, hb, nil)
	}
	return total / 3
}

func histogram(img image.Image, channel int) []float64 {
	bins := make([]float64, 256)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			var v uint32
			switch channel {
			case 0:
				v = r
			case 1:
				v = g
			default:
				v = bl
			}
			bins[v>>8]++
		}
	}
	return bins
}

func grayPlane(img image.Image) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out[idx] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			idx++
		}
	}
	return out
}
