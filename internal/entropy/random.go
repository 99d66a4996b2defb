// Package entropy provides the random source shared by the weather generator,
// the field engine and the synthetic data sources.
// Seeded sources make ticks reproducible; seed 0 draws a seed from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
	"sync"
)

// Source is a goroutine-safe uniform random source.
type Source struct {
	mu   sync.Mutex
	rng  *mrand.Rand
	seed int64
}

// New creates a Source. A zero seed is replaced by one read from crypto/rand.
func New(seed int64) *Source {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Source{
		rng:  mrand.New(mrand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed this source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Float returns a random float64 in [0, 1).
func (s *Source) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Uniform returns a random float64 in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + s.Float()*(hi-lo)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.Float() < p
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed non-zero seed.
		return 1
	}
	n := int64(binary.LittleEndian.Uint64(buf[:]) & math.MaxInt64)
	if n == 0 {
		return 1
	}
	return n
}
