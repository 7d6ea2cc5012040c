// Package payload serializes the identity payload carried by a watermark
// into a fixed-length bit sequence and parses possibly corrupted sequences
// back into fields with per-field confidence.
//
// Every payload serializes to the same bit length: string fields are
// truncated or null-padded to fixed byte widths, the date is rendered as
// ISO-8601. Each serialized copy is replicated for redundancy, a
// Golay-protected copy of the identifier is appended, and the whole stream
// is deterministically shuffled so burst damage in one image region spreads
// across all fields.
package payload

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DateFormat is the on-wire layout of the creation date.
const DateFormat = "2006-01-02"

// Field identifies one logical payload field.
type Field int

const (
	FieldOwner Field = iota
	FieldShortID
	FieldDate
	FieldCreator
	FieldCopyright
	FieldDigest

	numFields
)

// fieldWidths fixes the serialized byte width of each field. The sum
// defines the per-copy bit length, so changing a width is a wire-format
// break.
var fieldWidths = [numFields]int{24, 12, 10, 20, 24, 16}

func (f Field) String() string {
	switch f {
	case FieldOwner:
		return "owner"
	case FieldShortID:
		return "shortId"
	case FieldDate:
		return "dateCreated"
	case FieldCreator:
		return "creator"
	case FieldCopyright:
		return "copyright"
	case FieldDigest:
		return "contentDigest"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// offset returns the bit offset of f within one serialized copy.
func (f Field) offset() int {
	var bits int
	for i := Field(0); i < f; i++ {
		bits += fieldWidths[i] * 8
	}
	return bits
}

func (f Field) bits() int { return fieldWidths[f] * 8 }

// copyBits is the bit length of one serialized payload copy.
func copyBits() int {
	var bits int
	for _, w := range fieldWidths {
		bits += w * 8
	}
	return bits
}

// Payload is the identity record embedded in an image.
type Payload struct {
	Owner       string
	ShortID     string
	DateCreated time.Time
	Creator     string
	Copyright   string

	// ContentDigest is the hex form of the image's perceptual fingerprint
	// at embed time, used for drift comparison.
	ContentDigest string
}

var shortIDPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// ValidShortID reports whether s is a well-formed short identifier:
// exactly twelve lowercase hex characters.
func ValidShortID(s string) bool {
	return shortIDPattern.MatchString(s)
}

// NewShortID generates a random short identifier.
func NewShortID() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate short id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Validate checks the payload is embeddable.
func (p Payload) Validate() error {
	if !ValidShortID(p.ShortID) {
		return errors.New("shortId must be 12 lowercase hex characters")
	}
	if p.Owner == "" {
		return errors.New("owner must not be empty")
	}
	return nil
}

// serialize renders p into its fixed-width byte form.
func (p Payload) serialize() []byte {
	out := make([]byte, 0, copyBits()/8)
	out = appendFixed(out, []byte(p.Owner), fieldWidths[FieldOwner])
	out = appendFixed(out, []byte(p.ShortID), fieldWidths[FieldShortID])
	var date []byte
	if !p.DateCreated.IsZero() {
		date = []byte(p.DateCreated.Format(DateFormat))
	}
	out = appendFixed(out, date, fieldWidths[FieldDate])
	out = appendFixed(out, []byte(p.Creator), fieldWidths[FieldCreator])
	out = appendFixed(out, []byte(p.Copyright), fieldWidths[FieldCopyright])
	out = appendFixed(out, []byte(p.ContentDigest), fieldWidths[FieldDigest])
	return out
}

// appendFixed truncates or null-pads b to width bytes.
func appendFixed(dst, b []byte, width int) []byte {
	if len(b) > width {
		b = b[:width]
	}
	dst = append(dst, b...)
	for i := len(b); i < width; i++ {
		dst = append(dst, 0)
	}
	return dst
}

// trimPadding strips the trailing null padding appendFixed added.
func trimPadding(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}
