package identity

import (
	"crypto/sha256"
	"math"
	"math/rand/v2"
)

// Stream is the seeded pseudo-random source of a run. It is not safe for
// concurrent use; the coordinator hands it to one stage at a time.
type Stream struct {
	rng *rand.Rand
}

// NewStream returns a stream keyed by the SHA-256 of the seed. Two streams built
// from the same seed yield identical sequences.
func NewStream(seed RunSeed) *Stream {
	key := sha256.Sum256([]byte(seed))
	return &Stream{rng: rand.New(rand.NewChaCha8(key))}
}

// IntRange returns an int in [lo, hi].
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Uniform returns a float64 in [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Jitter returns a value in [-width, width) rounded to 6 decimal places.
func (s *Stream) Jitter(width float64) float64 {
	return Round(s.Uniform(-width, width), 6)
}

// Sample returns k distinct indices from [0, n) in draw order.
func (s *Stream) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Choice returns an index in [0, n).
func (s *Stream) Choice(n int) int {
	return s.rng.IntN(n)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
