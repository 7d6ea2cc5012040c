package pixelmark

import (
	"context"
	"image"
	"strings"
	"sync"

	"github.com/pixelledger/pixelmark/internal/phash"
	"github.com/pixelledger/pixelmark/payload"
)

// Method names how an identifier was resolved to a catalog record.
type Method string

const (
	MethodExact      Method = "EXACT_MATCH"
	MethodFuzzy      Method = "FUZZY_MATCH"
	MethodPerceptual Method = "PERCEPTUAL_HASH"
)

// Resolution links a verification request to a catalog record.
type Resolution struct {
	Method Method

	// Confidence is reported on a 0-100 scale: 100 for an exact match,
	// the similarity fraction for a fuzzy match, and a decreasing
	// function of fingerprint distance for a perceptual match.
	Confidence float64

	Record *CatalogRecord
}

// resolve tries the three strategies in order of decreasing precision and
// returns the first match, or nil when the image cannot be identified.
// It is read-only against the catalog and deterministic for a fixed
// catalog snapshot.
func (w *Watermark) resolve(ctx context.Context, src image.Image, d payload.Decoded, cat Catalog) (*Resolution, error) {
	strategies := []func(context.Context, image.Image, payload.Decoded, Catalog) (*Resolution, error){
		w.resolveExact,
		w.resolveFuzzy,
		w.resolvePerceptual,
	}
	for _, strategy := range strategies {
		res, err := strategy(ctx, src, d, cat)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// resolveExact looks the decoded identifier up directly. It applies only
// when the identifier decoded without bit disagreement (or was fully
// corrected by the Golay trailer).
func (w *Watermark) resolveExact(ctx context.Context, _ image.Image, d payload.Decoded, cat Catalog) (*Resolution, error) {
	if !d.IDValid() {
		return nil, nil
	}
	if d.FieldConfidence(payload.FieldShortID) < 1 && !d.IDFromECC {
		return nil, nil
	}
	rec, err := cat.Lookup(ctx, d.Payload.ShortID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &Resolution{Method: MethodExact, Confidence: 100, Record: rec}, nil
}

// resolveFuzzy compares the decoded identifier against every catalog key
// with a positional character similarity and accepts the best match at or
// above the threshold.
func (w *Watermark) resolveFuzzy(ctx context.Context, _ image.Image, d payload.Decoded, cat Catalog) (*Resolution, error) {
	// strip the characters that corruption turns into garbage; too little
	// left means no meaningful comparison
	clean := cleanID(d.Payload.ShortID)
	if len(clean) < 6 {
		return nil, nil
	}

	entries, err := cat.Fingerprints(ctx)
	if err != nil {
		return nil, err
	}
	best, score, ok := w.scanEntries(entries, func(e FingerprintEntry) (float64, bool) {
		return idSimilarity(clean, e.ShortID), true
	})
	if !ok || score < w.fuzzyThreshold {
		return nil, nil
	}
	rec, err := cat.Lookup(ctx, best.ShortID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &Resolution{Method: MethodFuzzy, Confidence: score * 100, Record: rec}, nil
}

// resolvePerceptual matches the uploaded image's fingerprint against every
// stored fingerprint by Hamming distance. This is the last resort: it
// identifies the picture, not the payload.
func (w *Watermark) resolvePerceptual(ctx context.Context, src image.Image, _ payload.Decoded, cat Catalog) (*Resolution, error) {
	entries, err := cat.Fingerprints(ctx)
	if err != nil {
		return nil, err
	}
	uploaded := phash.FromImage(src)
	best, score, ok := w.scanEntries(entries, func(e FingerprintEntry) (float64, bool) {
		h, err := phash.Parse(e.Fingerprint)
		if err != nil {
			return 0, false
		}
		// negated distance: scanEntries keeps the highest score
		return -float64(uploaded.Distance(h)), true
	})
	if !ok || -score > float64(w.fpDistance) {
		return nil, nil
	}
	rec, err := cat.Lookup(ctx, best.ShortID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	confidence := (1 + score/64) * 100
	if confidence < 0 {
		confidence = 0
	}
	return &Resolution{Method: MethodPerceptual, Confidence: confidence, Record: rec}, nil
}

// scanEntries scores every entry across a bounded worker pool and returns
// the best. Ordering is deterministic regardless of partitioning: higher
// score wins, ties break to the earlier catalog creation timestamp, then
// to the lexicographically smaller id.
func (w *Watermark) scanEntries(entries []FingerprintEntry, score func(FingerprintEntry) (float64, bool)) (FingerprintEntry, float64, bool) {
	type scored struct {
		entry FingerprintEntry
		score float64
		ok    bool
	}
	if len(entries) == 0 {
		return FingerprintEntry{}, 0, false
	}

	workers := w.workers
	if workers > len(entries) {
		workers = len(entries)
	}
	chunk := (len(entries) + workers - 1) / workers
	results := make([]scored, workers)
	var wg sync.WaitGroup
	for i := range workers {
		lo := i * chunk
		hi := min(lo+chunk, len(entries))
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(i, lo, hi int) {
			defer wg.Done()
			var best scored
			for _, e := range entries[lo:hi] {
				s, ok := score(e)
				if !ok {
					continue
				}
				if !best.ok || betterMatch(s, e, best.score, best.entry) {
					best = scored{entry: e, score: s, ok: true}
				}
			}
			results[i] = best
		}(i, lo, hi)
	}
	wg.Wait()

	var best scored
	for _, r := range results {
		if r.ok && (!best.ok || betterMatch(r.score, r.entry, best.score, best.entry)) {
			best = r
		}
	}
	return best.entry, best.score, best.ok
}

func betterMatch(s1 float64, e1 FingerprintEntry, s2 float64, e2 FingerprintEntry) bool {
	if s1 != s2 {
		return s1 > s2
	}
	if !e1.CreatedAt.Equal(e2.CreatedAt) {
		return e1.CreatedAt.Before(e2.CreatedAt)
	}
	return e1.ShortID < e2.ShortID
}

// cleanID lowercases an identifier and strips everything outside [0-9a-z].
func cleanID(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// idSimilarity is the fraction of positions at which the two identifiers
// carry the same character, relative to the longer one.
func idSimilarity(a, b string) float64 {
	b = strings.ToLower(b)
	n := min(len(a), len(b))
	matches := 0
	for i := range n {
		if a[i] == b[i] {
			matches++
		}
	}
	longer := max(len(a), len(b))
	if longer == 0 {
		return 0
	}
	return float64(matches) / float64(longer)
}
