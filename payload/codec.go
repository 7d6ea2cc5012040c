package payload

import (
	"errors"
	"fmt"

	"github.com/yyyoichi/bitstream-go"
	"github.com/yyyoichi/golay"

	"github.com/pixelledger/pixelmark/internal/sigkey"
)

// DefaultRedundancy is how many times each payload copy is replicated
// across distinct coefficient positions.
const DefaultRedundancy = 5

// DefaultShuffleSeed drives the deterministic bit shuffle. It is a format
// constant, not a secret: secrecy lives in the coefficient selection key.
const DefaultShuffleSeed int64 = 1234567890

// Codec encodes payloads to fixed-length bit sequences and decodes them
// with per-field confidence.
type Codec struct {
	redundancy  int
	shuffleSeed int64
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithRedundancy sets the replication factor. At least 3 copies are
// required for a meaningful majority vote.
func WithRedundancy(r int) CodecOption {
	return func(c *Codec) { c.redundancy = r }
}

// WithShuffleSeed overrides the bit-shuffle seed. Embed and extract must
// agree on it.
func WithShuffleSeed(seed int64) CodecOption {
	return func(c *Codec) { c.shuffleSeed = seed }
}

func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{
		redundancy:  DefaultRedundancy,
		shuffleSeed: DefaultShuffleSeed,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.redundancy < 3 {
		return nil, errors.New("redundancy must be at least 3")
	}
	return c, nil
}

// trailerBits is the Golay-encoded length of the identifier track.
func trailerBits() int {
	return golay.EncodedBits(FieldShortID.bits())
}

// BitLen is the constant serialized length for every payload.
func (c *Codec) BitLen() int {
	return c.redundancy * (copyBits() + trailerBits())
}

// Encode serializes p into its fixed-length bit sequence.
func (c *Codec) Encode(p Payload) ([]bool, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	copyB := bytesToBits(p.serialize())
	trailer, err := golayEncode(bytesToBits([]byte(p.ShortID)))
	if err != nil {
		return nil, fmt.Errorf("encode id trailer: %w", err)
	}

	stream := make([]bool, 0, c.BitLen())
	for range c.redundancy {
		stream = append(stream, copyB...)
	}
	for range c.redundancy {
		stream = append(stream, trailer...)
	}

	// spread the replicated copies across the coefficient sequence
	perm := sigkey.SeededPermutation(c.shuffleSeed, len(stream))
	shuffled := make([]bool, len(stream))
	for i := range stream {
		shuffled[i] = stream[perm[i]]
	}
	return shuffled, nil
}

// Decode majority-votes the replicated copies back into fields. Corruption
// never fails the decode: damaged fields surface through per-field
// confidence and the corruption report instead.
func (c *Codec) Decode(bits []bool) (Decoded, error) {
	if len(bits) != c.BitLen() {
		return Decoded{}, fmt.Errorf("bit sequence length %d, expected %d", len(bits), c.BitLen())
	}

	perm := sigkey.SeededPermutation(c.shuffleSeed, len(bits))
	stream := make([]bool, len(bits))
	for i := range bits {
		stream[perm[i]] = bits[i]
	}

	cb := copyBits()
	copies := make([][]bool, c.redundancy)
	for i := range copies {
		copies[i] = stream[i*cb : (i+1)*cb]
	}
	majority, agreement := vote(copies)

	tb := trailerBits()
	trailerStart := c.redundancy * cb
	trailers := make([][]bool, c.redundancy)
	for i := range trailers {
		trailers[i] = stream[trailerStart+i*tb : trailerStart+(i+1)*tb]
	}
	trailerMajority, _ := vote(trailers)

	return c.parse(majority, agreement, trailerMajority), nil
}

// vote reduces replicated copies to per-position majority bits and the
// fraction of copies agreeing with each majority.
func vote(copies [][]bool) (majority []bool, agreement []float64) {
	n := len(copies[0])
	r := len(copies)
	majority = make([]bool, n)
	agreement = make([]float64, n)
	for j := range n {
		ones := 0
		for i := range r {
			if copies[i][j] {
				ones++
			}
		}
		majority[j] = ones*2 > r
		high := ones
		if r-ones > high {
			high = r - ones
		}
		agreement[j] = float64(high) / float64(r)
	}
	return
}

func bytesToBits(b []byte) []bool {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range b {
		w.Write8(0, 8, v)
	}
	return readerBits(bitstream.NewBitReader(w.Data(), 0, 0), len(b)*8)
}

func bitsToBytes(bits []bool) []byte {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	r := bitstream.NewBitReader(w.Data(), 0, 0)
	out := make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for j := range 8 {
			bit, _ := r.ReadBitAt(i*8 + j)
			if bit {
				b |= 1 << uint(7-j)
			}
		}
		out[i] = b
	}
	return out
}

func readerBits(r *bitstream.BitReader[uint64], n int) []bool {
	r.SetBits(n)
	bits := make([]bool, n)
	for i := range bits {
		bits[i], _ = r.ReadBitAt(i)
	}
	return bits
}

func golayEncode(bits []bool) ([]bool, error) {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	var encoded []uint64
	enc := golay.NewEncoder(&encoded)
	if err := enc.Encode(w.Data(), len(bits)); err != nil {
		return nil, err
	}
	r := bitstream.NewBitReader(encoded, 0, 0)
	return readerBits(r, enc.Bits()), nil
}

// golayDecode corrects and strips the Golay trailer back to size raw bits.
func golayDecode(bits []bool, size int) ([]bool, error) {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	var decoded []uint64
	dec := golay.NewDecoder(w.Data(), len(bits))
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	r := bitstream.NewBitReader(decoded, 0, 0)
	return readerBits(r, size), nil
}
