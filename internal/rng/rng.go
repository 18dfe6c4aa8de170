// Package rng provides the seeded randomness used by the warp randomizer.
package rng

import (
	"math/rand/v2"
	"sort"
)

// Source is the randomness provider for every choice made during an attempt.
//
// Implementations are not required to be safe for concurrent use; each
// attempt owns its Source.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// pcgSource implements Source with a PCG generator.
//
// Invariant: two pcgSources built from the same seed yield the same sequence.
type pcgSource struct {
	r *rand.Rand
}

// NewSeeded returns a deterministic Source for seed.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewSeeded(seed int64) Source {
	s := uint64(seed)
	return &pcgSource{r: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Intn returns a random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" otherwise.
func (p *pcgSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return p.r.IntN(n)
}

// Pick returns a random element of items.
//
// Precondition: len(items) > 0.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Shuffled returns a shuffled copy of items using a Fisher-Yates pass.
func Shuffled[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// PickString returns a random element of ids after sorting them, so the result
// depends only on the set of ids and the source state.
//
// Precondition: len(ids) > 0.
func PickString(src Source, ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return Pick(src, sorted)
}
