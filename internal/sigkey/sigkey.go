// Package sigkey derives deterministic index permutations from a secret.
// Both the embed and extract paths regenerate the same sequence from the
// same secret, so no selection state is ever transmitted with the image.
package sigkey

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// Seed hashes a secret down to a PRNG seed.
func Seed(secret []byte) int64 {
	sum := sha256.Sum256(secret)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// Permutation returns a permutation of [0, n) keyed by secret.
func Permutation(secret []byte, n int) []int {
	return SeededPermutation(Seed(secret), n)
}

// SeededPermutation returns a permutation of [0, n) for an explicit seed.
func SeededPermutation(seed int64, n int) []int {
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	rd := rand.New(rand.NewSource(seed))
	rd.Shuffle(n, func(i, j int) {
		index[i], index[j] = index[j], index[i]
	})
	return index
}
