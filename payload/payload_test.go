package payload

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelledger/pixelmark/internal/sigkey"
)

func date(s string) time.Time {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func samplePayload() Payload {
	return Payload{
		Owner:         "Alice",
		ShortID:       "8ea01208bce4",
		DateCreated:   date("2025-01-01"),
		Creator:       "Alice Lidell",
		Copyright:     "(c) 2025 Alice",
		ContentDigest: "a5a5a5a5a5a5a5a5",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	p := samplePayload()
	bits, err := c.Encode(p)
	require.NoError(t, err)
	require.Len(t, bits, c.BitLen())

	d, err := c.Decode(bits)
	require.NoError(t, err)
	assert.Equal(t, p, d.Payload)
	assert.Empty(t, d.Corrupted)
	assert.False(t, d.IDFromECC)
	assert.Equal(t, 1.0, d.MeanConfidence())
	assert.True(t, d.IDValid())
	assert.Equal(t, 1.0, d.StructuralScore())
}

func TestFixedBitLength(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	short := Payload{Owner: "a", ShortID: "000000000000"}
	long := samplePayload()
	long.Owner = strings.Repeat("x", 100)

	a, err := c.Encode(short)
	require.NoError(t, err)
	b, err := c.Encode(long)
	require.NoError(t, err)
	assert.Equal(t, len(a), len(b))
	assert.Equal(t, c.BitLen(), len(a))
}

func TestStringTruncation(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	p := samplePayload()
	p.Owner = strings.Repeat("o", 40)
	bits, err := c.Encode(p)
	require.NoError(t, err)
	d, err := c.Decode(bits)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("o", 24), d.Payload.Owner)
}

func TestValidate(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	p := samplePayload()
	p.ShortID = "NOT-HEX-0000"
	_, err = c.Encode(p)
	assert.Error(t, err)

	p = samplePayload()
	p.Owner = ""
	_, err = c.Encode(p)
	assert.Error(t, err)
}

func TestDecodeWrongLength(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)
	_, err = c.Decode(make([]bool, 10))
	assert.Error(t, err)
}

// corrupt flips the shuffled bits that carry the given stream positions.
func corrupt(c *Codec, bits []bool, positions []int) {
	perm := sigkey.SeededPermutation(c.shuffleSeed, len(bits))
	reverse := make([]int, len(bits))
	for i, p := range perm {
		reverse[p] = i
	}
	for _, p := range positions {
		bits[reverse[p]] = !bits[reverse[p]]
	}
}

func TestPerFieldCorruptionReport(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	p := samplePayload()
	bits, err := c.Encode(p)
	require.NoError(t, err)

	// destroy the owner field of the first replicated copy only
	var positions []int
	for b := FieldOwner.offset(); b < FieldOwner.offset()+FieldOwner.bits(); b++ {
		positions = append(positions, b)
	}
	corrupt(c, bits, positions)

	d, err := c.Decode(bits)
	require.NoError(t, err)

	// the majority still recovers every field value
	assert.Equal(t, p, d.Payload)
	// but the disagreement is attributed to the owner field alone
	assert.InDelta(t, 0.8, d.FieldConfidence(FieldOwner), 1e-9)
	assert.Equal(t, 1.0, d.FieldConfidence(FieldShortID))
	assert.Equal(t, []Field{FieldOwner}, d.Corrupted)
}

func TestGolayTrailerRecoversID(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	p := samplePayload()
	bits, err := c.Encode(p)
	require.NoError(t, err)

	// break the identifier majority: flip the id bits in three of the
	// five replicated copies
	cb := copyBits()
	var positions []int
	for cp := range 3 {
		for b := FieldShortID.offset(); b < FieldShortID.offset()+FieldShortID.bits(); b++ {
			positions = append(positions, cp*cb+b)
		}
	}
	corrupt(c, bits, positions)

	d, err := c.Decode(bits)
	require.NoError(t, err)
	assert.True(t, d.IDFromECC)
	assert.Equal(t, p.ShortID, d.Payload.ShortID)
	assert.Contains(t, d.Corrupted, FieldShortID)
	assert.Less(t, d.FieldConfidence(FieldShortID), 1.0)
}

func TestNewShortID(t *testing.T) {
	id, err := NewShortID()
	require.NoError(t, err)
	assert.True(t, ValidShortID(id))

	other, err := NewShortID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}
