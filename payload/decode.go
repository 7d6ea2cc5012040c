package payload

import (
	"strings"
	"time"
)

// Decoded is the result of parsing an extracted bit sequence. Fields may be
// garbled individually; confidence is reported per field so callers can
// tell a corrupted owner from a corrupted identifier.
type Decoded struct {
	Payload Payload

	// confidence[f] is the mean fraction of replicated copies agreeing
	// with the majority across the bits of field f.
	confidence [numFields]float64

	// Corrupted lists fields whose copies disagreed or whose parsed value
	// failed structural validation.
	Corrupted []Field

	// IDFromECC is set when the identifier came from the Golay-corrected
	// trailer instead of the replication majority.
	IDFromECC bool
}

// FieldConfidence returns the decode confidence of one field in [0,1].
func (d Decoded) FieldConfidence(f Field) float64 {
	return d.confidence[f]
}

// MeanConfidence averages the per-field confidences.
func (d Decoded) MeanConfidence() float64 {
	var sum float64
	for _, c := range d.confidence {
		sum += c
	}
	return sum / float64(numFields)
}

// IDValid reports whether the decoded identifier is structurally valid.
func (d Decoded) IDValid() bool {
	return ValidShortID(d.Payload.ShortID)
}

// StructuralScore grades how plausible the decoded payload is,
// independently of copy agreement: a valid identifier carries most of the
// weight, a parseable date and a printable owner the rest.
func (d Decoded) StructuralScore() float64 {
	var score float64
	if d.IDValid() {
		score += 0.5
	}
	if !d.Payload.DateCreated.IsZero() {
		score += 0.25
	}
	if printable(d.Payload.Owner) {
		score += 0.25
	}
	return score
}

func printable(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// parse maps majority bits back into payload fields and folds in the
// Golay identifier trailer.
func (c *Codec) parse(majority []bool, agreement []float64, trailer []bool) Decoded {
	var d Decoded
	raw := bitsToBytes(majority)

	for f := Field(0); f < numFields; f++ {
		start := f.offset() / 8
		width := fieldWidths[f]
		fieldBytes := trimPadding(raw[start : start+width])

		var conf float64
		for _, a := range agreement[f.offset() : f.offset()+f.bits()] {
			conf += a
		}
		d.confidence[f] = conf / float64(f.bits())

		value := string(fieldBytes)
		switch f {
		case FieldOwner:
			d.Payload.Owner = value
		case FieldShortID:
			d.Payload.ShortID = strings.ToLower(value)
		case FieldDate:
			if t, err := time.Parse(DateFormat, value); err == nil {
				d.Payload.DateCreated = t
			} else if value != "" {
				d.markCorrupted(FieldDate)
			}
		case FieldCreator:
			d.Payload.Creator = value
		case FieldCopyright:
			d.Payload.Copyright = value
		case FieldDigest:
			d.Payload.ContentDigest = value
		}
	}

	// the Golay trailer recovers or confirms the identifier when the
	// replication majority is not fully confident
	if eccBits, err := golayDecode(trailer, FieldShortID.bits()); err == nil {
		eccID := strings.ToLower(string(bitsToBytes(eccBits)))
		if ValidShortID(eccID) {
			repOK := d.IDValid() && d.confidence[FieldShortID] >= 1
			if !repOK {
				d.Payload.ShortID = eccID
				d.IDFromECC = true
			}
		}
	}

	for f := Field(0); f < numFields; f++ {
		if d.confidence[f] < 1 {
			d.markCorrupted(f)
		}
	}
	if !d.IDValid() {
		d.markCorrupted(FieldShortID)
	}
	return d
}

func (d *Decoded) markCorrupted(f Field) {
	for _, c := range d.Corrupted {
		if c == f {
			return
		}
	}
	d.Corrupted = append(d.Corrupted, f)
}
