package pixelmark

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/pixelledger/pixelmark/internal/metrics"
	"github.com/pixelledger/pixelmark/internal/phash"
)

// Severity buckets a tampering score.
type Severity string

const (
	SeverityMinor       Severity = "MINOR"       // score 0-19
	SeverityModerate    Severity = "MODERATE"    // score 20-49
	SeveritySignificant Severity = "SIGNIFICANT" // score 50-74
	SeveritySevere      Severity = "SEVERE"      // score 75-100
)

// TamperVerdict quantifies how much an uploaded image diverges from its
// catalog original.
type TamperVerdict struct {
	// Score aggregates four weighted divergence metrics into 0-100.
	Score float64

	Severity Severity

	// Tampered is set when any single metric crosses its own threshold,
	// independently of the aggregate score.
	Tampered bool

	// Findings names each metric that indicated tampering, with its raw
	// value, in metric order.
	Findings []string
}

// Metric weights and thresholds. Weights sum to 100; the per-metric flag
// thresholds drive Tampered and the findings list.
const (
	fingerprintWeight  = 40.0
	fingerprintCeiling = 10.0
	fingerprintFlag    = 5

	ssimWeight = 30.0
	ssimFloor  = 0.5
	ssimFlag   = 0.95

	mseWeight  = 20.0
	mseCeiling = 500.0
	mseFlag    = 100.0

	histWeight = 10.0
	histFloor  = 0.8
	histFlag   = 0.95
)

// assessTamper compares the uploaded image against the stored original.
// The upload is scaled to the original's dimensions with bilinear
// interpolation before any metric runs.
func assessTamper(uploaded, original image.Image) TamperVerdict {
	ob := original.Bounds()
	up := metrics.Resize(uploaded, ob.Dx(), ob.Dy())

	var v TamperVerdict

	distance := phash.FromImage(up).Distance(phash.FromImage(original))
	v.Score += fingerprintWeight * math.Min(float64(distance), fingerprintCeiling) / fingerprintCeiling
	if distance > fingerprintFlag {
		v.Tampered = true
		v.Findings = append(v.Findings,
			fmt.Sprintf("visual structure modified (fingerprint distance: %d)", distance))
	}

	ssim := metrics.SSIM(up, original)
	v.Score += ssimWeight * clamp01((1-ssim)/(1-ssimFloor))
	if ssim < ssimFlag {
		v.Tampered = true
		v.Findings = append(v.Findings,
			fmt.Sprintf("structural changes detected (SSIM: %.3f)", ssim))
	}

	mse := metrics.MSE(up, original)
	v.Score += mseWeight * math.Min(mse, mseCeiling) / mseCeiling
	if mse > mseFlag {
		v.Tampered = true
		v.Findings = append(v.Findings,
			fmt.Sprintf("pixel-level modifications detected (MSE: %.1f)", mse))
	}

	hist := metrics.HistogramCorrelation(up, original)
	v.Score += histWeight * clamp01((1-hist)/(1-histFloor))
	if hist < histFlag {
		v.Tampered = true
		v.Findings = append(v.Findings,
			fmt.Sprintf("color or brightness modified (histogram correlation: %.3f)", hist))
	}

	if v.Score > 100 {
		v.Score = 100
	}
	v.Severity = severityFor(v.Score)
	return v
}

// assess fetches the stored original and scores the divergence. A failed
// fetch or undecodable stored bytes never fail verification: identity
// already stands, so the verdict degrades to "no divergence measured".
func (w *Watermark) assess(ctx context.Context, uploaded image.Image, rec *CatalogRecord, cat Catalog) TamperVerdict {
	data, err := cat.OriginalBytes(ctx, rec.ShortID)
	if err != nil || len(data) == 0 {
		return TamperVerdict{Severity: SeverityMinor}
	}
	original, err := DecodeImage(data)
	if err != nil {
		return TamperVerdict{Severity: SeverityMinor}
	}
	return assessTamper(uploaded, original)
}

func severityFor(score float64) Severity {
	switch {
	case score < 20:
		return SeverityMinor
	case score < 50:
		return SeverityModerate
	case score < 75:
		return SeveritySignificant
	default:
		return SeveritySevere
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
