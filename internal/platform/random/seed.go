// Package random provides cryptographic seed generation helpers.
//
// Seeds feed the deterministic dice roller so every roll can be replayed from
// its seed in tests while production rolls stay unpredictable.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// SeedFunc produces a seed for one roll.
type SeedFunc func() (int64, error)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Fixed returns a SeedFunc that always yields seed.
func Fixed(seed int64) SeedFunc {
	return func() (int64, error) { return seed, nil }
}
