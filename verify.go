package pixelmark

import (
	"context"
	"image"
)

// VerifyReport is the full outcome of one verification request.
type VerifyReport struct {
	// Extraction is always populated; Extraction.Found is false when no
	// candidate strength produced a plausible payload.
	Extraction ExtractionResult

	// Resolution is nil when the image could not be matched to any
	// catalog record. That is a valid terminal outcome, not an error.
	Resolution *Resolution

	// Verdict is computed only after successful resolution.
	Verdict *TamperVerdict
}

// WatermarkFound reports whether the request identified a cataloged image.
func (r VerifyReport) WatermarkFound() bool {
	return r.Resolution != nil
}

// Verify runs the full verification pipeline against src:
//  1. Multi-strength extraction of the embedded payload.
//  2. Hybrid identity resolution (exact, fuzzy, then perceptual).
//  3. Tamper assessment against the resolved record's stored original.
//
// Requests are independent; the catalog is only read. Verify returns an
// error for collaborator lookup failures and cancelled contexts, never for
// "no watermark" or "no match".
func (w *Watermark) Verify(ctx context.Context, src image.Image, cat Catalog) (VerifyReport, error) {
	var report VerifyReport

	extraction, err := w.Extract(ctx, src)
	if err != nil {
		return report, err
	}
	report.Extraction = extraction
	if !extraction.Found {
		return report, nil
	}

	resolution, err := w.resolve(ctx, src, extraction.Decoded, cat)
	if err != nil {
		return report, err
	}
	if resolution == nil {
		return report, nil
	}
	report.Resolution = resolution

	verdict := w.assess(ctx, src, resolution.Record, cat)
	report.Verdict = &verdict
	return report, nil
}
