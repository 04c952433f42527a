// Package entropy provides the single seedable randomness source the
// simulation draws from. Seeds come from the caller for deterministic replay,
// with crypto/rand as the fallback when none is configured.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	mrand "math/rand/v2"
)

// New returns a PCG-backed generator fully determined by seed.
func New(seed uint64) *mrand.Rand {
	return mrand.New(mrand.NewPCG(seedWord(seed, "pub"), seedWord(seed, "night")))
}

// seedWord derives one PCG state word from the seed and a salt so the two
// halves of the state never collide.
func seedWord(seed uint64, salt string) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	h.Write(buf[:])
	h.Write([]byte(salt))
	return h.Sum64()
}

// Seed returns a random seed from crypto/rand. Used when no seed is configured.
func Seed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 0x5eed
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// Roll reports whether a percentage chance in [0, 100] succeeds.
func Roll(rng *mrand.Rand, pct float64) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return rng.Float64()*100 < pct
}

// Between returns a uniform float in [lo, hi).
func Between(rng *mrand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// IntRange returns a uniform integer in [lo, hi].
func IntRange(rng *mrand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
