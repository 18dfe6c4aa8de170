package graph

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Reachable returns every vertex reachable from root over edges kept by f,
// root included. A missing root yields an empty set.
//
// Time: O(V+E).
func (g *Graph) Reachable(root string, f Filter) mapset.Set[string] {
	seen := mapset.New[string]()
	if !g.HasVertex(root) {
		return seen
	}
	seen.Put(root)
	queue := []string{root}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		for _, e := range g.adj[u] {
			if !f.keep(e) || seen.Has(e.To) {
				continue
			}
			seen.Put(e.To)
			queue = append(queue, e.To)
		}
	}
	return seen
}

// Distances returns the unweighted shortest-path distance from root to every
// vertex reachable over edges kept by f.
func (g *Graph) Distances(root string, f Filter) map[string]int {
	dist := make(map[string]int)
	if !g.HasVertex(root) {
		return dist
	}
	dist[root] = 0
	queue := []string{root}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		for _, e := range g.adj[u] {
			if !f.keep(e) {
				continue
			}
			if _, ok := dist[e.To]; ok {
				continue
			}
			dist[e.To] = dist[u] + 1
			queue = append(queue, e.To)
		}
	}
	return dist
}

// HasPath reports whether to is reachable from from over edges kept by f.
func (g *Graph) HasPath(from, to string, f Filter) bool {
	if !g.HasVertex(from) || !g.HasVertex(to) {
		return false
	}
	_, ok := g.Distances(from, f)[to]
	return ok
}

// ConnectedComponents returns the weakly connected components over edges kept
// by f. Each component is sorted; components are ordered by their smallest id.
func (g *Graph) ConnectedComponents(f Filter) [][]string {
	undirected := make(map[string][]string, len(g.adj))
	for _, id := range g.Vertices() {
		for _, e := range g.adj[id] {
			if !f.keep(e) {
				continue
			}
			undirected[e.From] = append(undirected[e.From], e.To)
			undirected[e.To] = append(undirected[e.To], e.From)
		}
	}

	seen := mapset.New[string]()
	var comps [][]string
	for _, start := range g.Vertices() {
		if seen.Has(start) {
			continue
		}
		seen.Put(start)
		queue := []string{start}
		for qi := 0; qi < len(queue); qi++ {
			for _, v := range undirected[queue[qi]] {
				if !seen.Has(v) {
					seen.Put(v)
					queue = append(queue, v)
				}
			}
		}
		sort.Strings(queue)
		comps = append(comps, queue)
	}
	return comps
}

// Sorted returns the members of s in lexicographic order.
func Sorted(s mapset.Set[string]) []string {
	out := make([]string, 0, s.Size())
	s.Each(func(id string) {
		out = append(out, id)
	})
	sort.Strings(out)
	return out
}
