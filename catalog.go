package pixelmark

import (
	"context"
	"time"

	"github.com/pixelledger/pixelmark/payload"
)

// CatalogRecord is the stored view of one watermarked image. Records are
// created once at embed time by the caller's store and never mutated here;
// this package only reads them.
type CatalogRecord struct {
	ShortID string
	Payload payload.Payload

	// Fingerprint is the 16-hex-character perceptual fingerprint of the
	// watermarked image, as produced by Fingerprint.
	Fingerprint string

	CreatedAt time.Time
}

// FingerprintEntry is the slim projection of a record used by the fuzzy
// and perceptual catalog scans.
type FingerprintEntry struct {
	ShortID     string
	Fingerprint string
	CreatedAt   time.Time
}

// Catalog is the read-only collaborator store holding previously
// watermarked originals. Implementations are expected to be safe for
// concurrent use.
type Catalog interface {
	// Lookup returns the record for an exact short identifier, or
	// (nil, nil) when the id is unknown.
	Lookup(ctx context.Context, shortID string) (*CatalogRecord, error)

	// Fingerprints enumerates (id, fingerprint, createdAt) for every
	// record. Both fallback resolution strategies scan this snapshot in
	// full, so resolution cost grows linearly with catalog size.
	Fingerprints(ctx context.Context) ([]FingerprintEntry, error)

	// OriginalBytes fetches the stored watermarked image bytes for an id.
	// This is the only blocking collaborator call on the verification
	// path; callers bound it with the request context.
	OriginalBytes(ctx context.Context, shortID string) ([]byte, error)
}
