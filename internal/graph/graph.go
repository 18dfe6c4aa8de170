// Package graph provides a small directed multigraph of typed edges keyed by
// warp id, with the breadth-first reachability and connectivity queries the
// randomizer needs. Every query iterates in a deterministic order.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// ErrVertexNotFound is returned when an edge references a missing vertex.
var ErrVertexNotFound = errors.New("vertex not found")

// ErrDuplicateEdge is returned when an edge with the same source, target and
// kind already exists.
var ErrDuplicateEdge = errors.New("duplicate edge")

// EdgeKind classifies an edge.
type EdgeKind int

const (
	// Fixed edges are always traversable.
	Fixed EdgeKind = iota
	// Conditional edges are traversable once their gate flag is satisfied.
	Conditional
	// Warp edges are the randomized output connections.
	Warp
)

// String returns the upper-case kind name.
func (k EdgeKind) String() string {
	switch k {
	case Fixed:
		return "FIXED"
	case Conditional:
		return "CONDITIONAL"
	case Warp:
		return "WARP"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// Edge is a directed typed connection. (From, To, Kind) identifies it.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
	// Gate is the flag name for conditional edges, empty otherwise.
	Gate string
}

// Reverse returns the edge with its endpoints swapped.
func (e Edge) Reverse() Edge {
	return Edge{From: e.To, To: e.From, Kind: e.Kind, Gate: e.Gate}
}

// Filter selects the edges a traversal may use. A nil Filter keeps every edge.
type Filter func(Edge) bool

// Without returns a Filter that drops every edge of the given kind.
func Without(kind EdgeKind) Filter {
	return func(e Edge) bool { return e.Kind != kind }
}

// WithoutGates returns a Filter that drops every edge gated by one of gates.
func WithoutGates(gates ...string) Filter {
	drop := mapset.New[string]()
	for _, g := range gates {
		drop.Put(g)
	}
	return func(e Edge) bool { return e.Gate == "" || !drop.Has(e.Gate) }
}

func (f Filter) keep(e Edge) bool {
	return f == nil || f(e)
}

// Graph is an adjacency-list directed multigraph. The zero value is not
// usable; call New.
//
// Graph is not safe for concurrent mutation.
type Graph struct {
	adj map[string][]Edge
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{adj: make(map[string][]Edge)}
}

// AddVertex adds id if absent.
//
// Postcondition: HasVertex(id) is true.
func (g *Graph) AddVertex(id string) {
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = nil
	}
}

// HasVertex reports whether id is a vertex.
func (g *Graph) HasVertex(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	return len(g.adj)
}

// Vertices returns every vertex id in lexicographic order.
func (g *Graph) Vertices() []string {
	ids := make([]string, 0, len(g.adj))
	for id := range g.adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddEdge appends e to the adjacency list of e.From.
//
// Postcondition: Returns nil when the edge took effect, ErrVertexNotFound when
// an endpoint is missing, or ErrDuplicateEdge when (From, To, Kind) exists.
func (g *Graph) AddEdge(e Edge) error {
	if !g.HasVertex(e.From) {
		return fmt.Errorf("adding %s edge %s->%s: %q: %w", e.Kind, e.From, e.To, e.From, ErrVertexNotFound)
	}
	if !g.HasVertex(e.To) {
		return fmt.Errorf("adding %s edge %s->%s: %q: %w", e.Kind, e.From, e.To, e.To, ErrVertexNotFound)
	}
	if g.HasEdge(e.From, e.To, e.Kind) {
		return fmt.Errorf("adding %s edge %s->%s: %w", e.Kind, e.From, e.To, ErrDuplicateEdge)
	}
	g.adj[e.From] = append(g.adj[e.From], e)
	return nil
}

// HasEdge reports whether an edge (from, to, kind) exists.
func (g *Graph) HasEdge(from, to string, kind EdgeKind) bool {
	for _, e := range g.adj[from] {
		if e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

// Edges returns every edge kept by f, ordered by source vertex then insertion.
func (g *Graph) Edges(f Filter) []Edge {
	var out []Edge
	for _, id := range g.Vertices() {
		for _, e := range g.adj[id] {
			if f.keep(e) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Degree returns the number of outgoing edges of id kept by f.
func (g *Graph) Degree(id string, f Filter) int {
	n := 0
	for _, e := range g.adj[id] {
		if f.keep(e) {
			n++
		}
	}
	return n
}
