package rando

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/cory-johannsen/warprando/internal/graph"
	"github.com/cory-johannsen/warprando/internal/rng"
)

// Spread describes how key and flag locations have been distributed so far.
type Spread struct {
	// Area returns the area of a vertex.
	Area func(id string) string
	// Placed returns how many key or flag locations have been attached to area.
	Placed func(area string) int
}

// SourceSelector picks the source warp that a key or flag location is attached
// to. Implementations must draw randomness only from src so that attempts stay
// deterministic.
type SourceSelector interface {
	// SelectSource returns one element of candidates.
	//
	// Precondition: len(candidates) > 0; candidates are sorted.
	SelectSource(src rng.Source, candidates []string, spread Spread) string
}

// TieredSpread prefers sources in areas that hold no placed locations yet,
// then areas holding at most one, then any area.
type TieredSpread struct{}

// spreadTiers are the widening per-area limits tried in order.
var spreadTiers = []int{0, 1}

// SelectSource implements SourceSelector.
func (TieredSpread) SelectSource(src rng.Source, candidates []string, spread Spread) string {
	for _, limit := range spreadTiers {
		var tier []string
		for _, c := range candidates {
			if spread.Placed(spread.Area(c)) <= limit {
				tier = append(tier, c)
			}
		}
		if len(tier) > 0 {
			return rng.Pick(src, tier)
		}
	}
	return rng.Pick(src, candidates)
}

// HomeSetFunc computes the set of vertices considered to have a path home.
// It is evaluated once per attempt and cached.
type HomeSetFunc func(g *graph.Graph, root string) mapset.Set[string]

// ReachableFromRoot returns every vertex with a finite shortest-path distance
// from the root over the live graph.
func ReachableFromRoot(g *graph.Graph, root string) mapset.Set[string] {
	home := mapset.New[string]()
	for id := range g.Distances(root, nil) {
		home.Put(id)
	}
	return home
}
