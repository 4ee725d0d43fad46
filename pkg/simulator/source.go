package simulator

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source supplies the uniform and Gaussian draws used for noise
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// SourceFunc hands out an independent noise stream per key
type SourceFunc func(key string) Source

// Seeded returns reproducible streams: the same seed and key always yield
// the same sequence, and distinct keys yield distinct sequences.
func Seeded(seed uint64) SourceFunc {
	return func(key string) Source {
		return rand.New(rand.NewPCG(seed, hashKey(key)))
	}
}

// Unseeded returns streams seeded from runtime entropy
func Unseeded() SourceFunc {
	return func(string) Source {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// Scoped prefixes every key, so one seed can serve many variants
func (f SourceFunc) Scoped(prefix string) SourceFunc {
	return func(key string) Source {
		return f(prefix + "/" + key)
	}
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
