// Package pixelmark hides an identity payload inside a raster image and
// later re-identifies uploaded images against a catalog of watermarked
// originals, scoring how much each image has changed since embedding.
//
// The write path embeds once per image (Embed). The verification path runs
// extraction at a bank of candidate strengths, resolves the decoded
// identifier against the catalog through three fallback strategies, and
// compares the upload with the stored original (Verify).
package pixelmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"runtime"
	"sync"

	"github.com/pixelledger/pixelmark/internal/codec"
	"github.com/pixelledger/pixelmark/internal/imgplane"
	"github.com/pixelledger/pixelmark/internal/metrics"
	"github.com/pixelledger/pixelmark/internal/phash"
	"github.com/pixelledger/pixelmark/payload"
)

// DefaultStrengthCandidates is the quantization step bank the extractor
// tries, ascending from weak to strong.
var DefaultStrengthCandidates = []float64{20, 25, 30, 35, 40, 45, 50, 60, 70, 80}

const (
	// DefaultEmbedStrength balances robustness against visible noise for
	// typical photographic content.
	DefaultEmbedStrength = 30.0

	// DefaultQualityFloor is the PSNR (dB) below which embedding refuses
	// to produce an image.
	DefaultQualityFloor = 30.0

	// DefaultLevels is the wavelet decomposition depth.
	DefaultLevels = 2
)

var defaultSecret = []byte("pixelmark/v1")

// Watermark embeds, extracts, and verifies image watermarks.
type Watermark struct {
	secret        []byte
	embedStrength float64
	strengths     []float64
	levels        int
	redundancy    int
	qualityFloor  float64

	fuzzyThreshold float64
	fpDistance     int
	workers        int

	pcodec *payload.Codec
}

// New initializes a watermark processor. All parameters have working
// defaults; see the Option constructors.
func New(opts ...Option) (*Watermark, error) {
	w := &Watermark{
		secret:         defaultSecret,
		embedStrength:  DefaultEmbedStrength,
		strengths:      DefaultStrengthCandidates,
		levels:         DefaultLevels,
		redundancy:     payload.DefaultRedundancy,
		qualityFloor:   DefaultQualityFloor,
		fuzzyThreshold: 0.5,
		fpDistance:     10,
		workers:        runtime.NumCPU(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	pcodec, err := payload.NewCodec(payload.WithRedundancy(w.redundancy))
	if err != nil {
		return nil, err
	}
	w.pcodec = pcodec
	return w, nil
}

// ExtractionResult is the outcome of one multi-strength extraction.
// The zero value means "no watermark found", which is a valid outcome,
// not an error.
type ExtractionResult struct {
	// Decoded holds the payload fields with per-field confidence.
	Decoded payload.Decoded

	// Strength is the candidate quantization step that produced the best
	// decode.
	Strength float64

	// Quality grades the best decode in [0,1] from copy agreement and
	// structural validity of the parsed fields.
	Quality float64

	// Found reports whether any candidate produced a structurally valid
	// identifier.
	Found bool
}

// Embed writes p into src and returns the watermarked image with its PSNR
// relative to src.
//
// Process:
//  1. Runs one extraction pass; a recognizable existing payload refuses
//     embedding with ErrAlreadyWatermarked.
//  2. Serializes the payload into its fixed-length replicated bitstream.
//  3. Quantizes secret-selected mid-frequency wavelet coefficients of the
//     luminance channel to carry the bits.
//  4. Reconstructs the image and gates it on the PSNR floor.
func (w *Watermark) Embed(ctx context.Context, src image.Image, p payload.Payload) (image.Image, float64, error) {
	existing, err := w.Extract(ctx, src)
	if err != nil && !errors.Is(err, ErrTooSmallImage) {
		return nil, 0, err
	}
	if existing.Found {
		return nil, 0, fmt.Errorf("%w: decoded id %q", ErrAlreadyWatermarked, existing.Decoded.Payload.ShortID)
	}

	bits, err := w.pcodec.Encode(p)
	if err != nil {
		return nil, 0, err
	}

	carrier := codec.NewCarrier(imgplane.FromImage(src), w.levels, w.secret)
	if err := carrier.WriteBits(bits, w.embedStrength); err != nil {
		if errors.Is(err, codec.ErrCapacity) {
			return nil, 0, fmt.Errorf("%w: need %d carrier coefficients, have %d",
				ErrTooSmallImage, len(bits), carrier.Capacity())
		}
		return nil, 0, err
	}
	marked := carrier.Image()

	psnr := metrics.PSNR(src, marked)
	if psnr < w.qualityFloor {
		return nil, psnr, fmt.Errorf("%w: PSNR %.2f dB, floor %.2f dB", ErrQualityFloor, psnr, w.qualityFloor)
	}
	return marked, psnr, nil
}

// Extract attempts decoding at every candidate strength and returns the
// best-scoring attempt.
//
// The embedding strength is not transmitted with the image, so it has to
// be rediscovered by trial. Each attempt is a pure function of the shared
// transform pyramid and one strength, so attempts fan out across a bounded
// worker pool and are all collected before selection: a weaker candidate
// may outscore a stronger one that already finished.
func (w *Watermark) Extract(ctx context.Context, src image.Image) (ExtractionResult, error) {
	carrier := codec.NewCarrier(imgplane.FromImage(src), w.levels, w.secret)
	n := w.pcodec.BitLen()
	if n > carrier.Capacity() {
		return ExtractionResult{}, fmt.Errorf("%w: need %d carrier coefficients, have %d",
			ErrTooSmallImage, n, carrier.Capacity())
	}

	attempts := make([]*ExtractionResult, len(w.strengths))
	sem := make(chan struct{}, w.workers)
	var wg sync.WaitGroup
	for i, strength := range w.strengths {
		wg.Add(1)
		go func(i int, strength float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			bits, err := carrier.ReadBits(n, strength)
			if err != nil {
				return
			}
			decoded, err := w.pcodec.Decode(bits)
			if err != nil {
				return
			}
			attempts[i] = &ExtractionResult{
				Decoded:  decoded,
				Strength: strength,
				Quality:  decodeScore(decoded),
			}
		}(i, strength)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return ExtractionResult{}, err
	}

	// candidates are ordered ascending, so a strict comparison prefers the
	// weaker strength on ties
	var best *ExtractionResult
	for _, a := range attempts {
		if a == nil || !a.Decoded.IDValid() {
			continue
		}
		if best == nil || a.Quality > best.Quality {
			best = a
		}
	}
	if best == nil {
		return ExtractionResult{}, nil
	}
	best.Found = true
	return *best, nil
}

// decodeScore weighs copy agreement against structural validity of the
// parsed fields.
func decodeScore(d payload.Decoded) float64 {
	return 0.7*d.MeanConfidence() + 0.3*d.StructuralScore()
}

// Fingerprint computes the 16-hex-character perceptual fingerprint of an
// image, used both as the payload content digest and as the catalog
// fingerprint for perceptual resolution.
func Fingerprint(img image.Image) string {
	return phash.FromImage(img).String()
}

// DecodeImage decodes PNG or JPEG bytes, reporting ErrMalformedImage for
// anything unreadable.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	return img, nil
}
