package pixelmark

import (
	"errors"
	"fmt"
	"sort"
)

type Option func(*Watermark) error

// WithSecret keys the pseudo-random coefficient selection. Embedding and
// extraction only line up when they share the same secret.
func WithSecret(secret []byte) Option {
	return func(w *Watermark) error {
		if len(secret) == 0 {
			return errors.New("secret must not be empty")
		}
		w.secret = append([]byte(nil), secret...)
		return nil
	}
}

// WithEmbedStrength sets the quantization step used when embedding.
// Larger values increase noise but improve robustness.
func WithEmbedStrength(strength float64) Option {
	return func(w *Watermark) error {
		if strength <= 0 {
			return errors.New("embed strength must be positive")
		}
		w.embedStrength = strength
		return nil
	}
}

// WithStrengthCandidates sets the bank of quantization steps the extractor
// tries. The list is kept in ascending order: when two candidates decode
// equally well, the weaker one wins.
func WithStrengthCandidates(strengths ...float64) Option {
	return func(w *Watermark) error {
		if len(strengths) == 0 {
			return errors.New("at least one strength candidate is required")
		}
		for _, s := range strengths {
			if s <= 0 {
				return fmt.Errorf("strength candidate %f must be positive", s)
			}
		}
		w.strengths = append([]float64(nil), strengths...)
		sort.Float64s(w.strengths)
		return nil
	}
}

// WithLevels sets the wavelet decomposition depth. Deeper pyramids embed
// into lower-frequency coefficients: more robust, less capacity.
func WithLevels(levels int) Option {
	return func(w *Watermark) error {
		if levels < 1 || levels > 6 {
			return errors.New("levels must be between 1 and 6")
		}
		w.levels = levels
		return nil
	}
}

// WithRedundancy sets how many times the payload is replicated in the
// carrier.
func WithRedundancy(r int) Option {
	return func(w *Watermark) error {
		if r < 3 {
			return errors.New("redundancy must be at least 3")
		}
		w.redundancy = r
		return nil
	}
}

// WithQualityFloor sets the minimum acceptable PSNR (dB) of a watermarked
// image. Embed fails with ErrQualityFloor below it.
func WithQualityFloor(db float64) Option {
	return func(w *Watermark) error {
		if db <= 0 {
			return errors.New("quality floor must be positive")
		}
		w.qualityFloor = db
		return nil
	}
}

// WithFuzzyThreshold sets the minimum character similarity for a fuzzy
// identifier match. The default 0.5 is an empirical constant, not a
// derived one.
func WithFuzzyThreshold(t float64) Option {
	return func(w *Watermark) error {
		if t <= 0 || t > 1 {
			return errors.New("fuzzy threshold must be in (0, 1]")
		}
		w.fuzzyThreshold = t
		return nil
	}
}

// WithFingerprintDistance sets the maximum Hamming distance for a
// perceptual fingerprint match. The default 10 bits of 64 is an empirical
// constant, not a derived one.
func WithFingerprintDistance(bits int) Option {
	return func(w *Watermark) error {
		if bits < 0 || bits > 64 {
			return errors.New("fingerprint distance must be in [0, 64]")
		}
		w.fpDistance = bits
		return nil
	}
}

// WithWorkers bounds the goroutines used for multi-strength extraction and
// catalog scans.
func WithWorkers(n int) Option {
	return func(w *Watermark) error {
		if n < 1 {
			return errors.New("workers must be at least 1")
		}
		w.workers = n
		return nil
	}
}
