package rando

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/graph"
	"github.com/cory-johannsen/warprando/internal/rng"
	"github.com/cory-johannsen/warprando/internal/warp"
)

// eligible reports whether w takes part in a world built for cfg.
func eligible(w *warp.Warp, cfg warp.Config) bool {
	if w.Level > cfg.Level || w.HasTag(warp.TagRemove) {
		return false
	}
	if cfg.ExtraDeadendRemoval && w.HasTag(warp.TagExtraDeadend) {
		return false
	}
	return true
}

// groups unions every eligible warp with its grouped duplicates.
type groups struct {
	parent map[string]string
}

func (g *groups) find(id string) string {
	p, ok := g.parent[id]
	if !ok {
		g.parent[id] = id
		return id
	}
	if p == id {
		return id
	}
	root := g.find(p)
	g.parent[id] = root
	return root
}

func (g *groups) union(a, b string) {
	ra, rb := g.find(a), g.find(b)
	if ra == rb {
		return
	}
	// The smaller id becomes the representative.
	if rb < ra {
		ra, rb = rb, ra
	}
	g.parent[rb] = ra
}

// collapse maps every eligible warp id to the main representative of its
// group and lists the trigger ids of each main warp.
//
// Postcondition: alias[id] is an eligible warp id for every eligible id;
// triggers[main] starts with main followed by its duplicates in sorted order.
func collapse(world *warp.World, cfg warp.Config) (alias map[string]string, triggers map[string][]string) {
	ids := world.SortedWarpIDs()
	gs := &groups{parent: make(map[string]string)}
	for _, id := range ids {
		w := world.Warps[id]
		if !eligible(w, cfg) {
			continue
		}
		gs.find(id)
		for _, dup := range w.Grouped {
			gs.union(id, dup)
		}
	}

	// The main warp is the smallest eligible member of a group. Grouped ids
	// may name trigger points that are not warps themselves.
	members := make(map[string][]string)
	for id := range gs.parent {
		root := gs.find(id)
		members[root] = append(members[root], id)
	}
	alias = make(map[string]string)
	triggers = make(map[string][]string)
	for _, ms := range members {
		sort.Strings(ms)
		main := ""
		for _, m := range ms {
			if w, ok := world.Warps[m]; ok && eligible(w, cfg) {
				main = m
				break
			}
		}
		if main == "" {
			continue
		}
		trig := []string{main}
		for _, m := range ms {
			if m != main {
				trig = append(trig, m)
			}
			if w, ok := world.Warps[m]; ok && eligible(w, cfg) {
				alias[m] = main
			}
		}
		triggers[main] = trig
	}
	return alias, triggers
}

// build constructs the initial graph and worklists of one attempt.
//
// Precondition: world has been validated; cfg.Validate() returned nil.
// Postcondition: Returns a ready attempt or an error wrapping ErrInvalidWorld.
func build(world *warp.World, cfg warp.Config, src rng.Source, o options) (*attempt, error) {
	alias, triggers := collapse(world, cfg)
	if len(alias) == 0 {
		return nil, fmt.Errorf("%w: no warps at level %d", ErrInvalidWorld, cfg.Level)
	}

	a := &attempt{
		world:     world,
		cfg:       cfg,
		src:       src,
		log:       o.logger,
		selector:  o.selector,
		homeSetFn: o.homeSet,
		g:         graph.New(),
		alias:     alias,
		triggers:  triggers,
		pending:   make(map[string][]graph.Edge),
		mapped:    mapset.New[string](),
		visited:   mapset.New[string](),
		satisfied: mapset.New[string](),
		placed:    make(map[string]int),
		trace: Trace{
			ReachedAt:   make(map[string]int),
			SatisfiedAt: make(map[string]int),
		},
	}

	for _, id := range world.SortedWarpIDs() {
		if main, ok := alias[id]; ok && main == id {
			a.g.AddVertex(id)
		}
	}

	// Connections of collapsed duplicates are merged onto their main warp.
	// Targets that are unknown or filtered out are silently dropped.
	for _, id := range world.SortedWarpIDs() {
		from, ok := alias[id]
		if !ok {
			continue
		}
		w := world.Warps[id]
		for _, target := range w.SortedTargets() {
			to, ok := alias[target]
			if !ok || to == from {
				continue
			}
			gate := w.Connections[target]
			if gate == warp.GateAlways {
				err := a.g.AddEdge(graph.Edge{From: from, To: to, Kind: graph.Fixed})
				if err != nil && !errors.Is(err, graph.ErrDuplicateEdge) {
					return nil, fmt.Errorf("%w: %v", ErrImpossibleMap, err)
				}
				continue
			}
			a.pending[gate] = append(a.pending[gate], graph.Edge{From: from, To: to, Kind: graph.Conditional, Gate: gate})
		}
	}

	for _, f := range world.Flags(cfg) {
		if f.Level > cfg.Level {
			continue
		}
		markers := make([]string, 0, len(f.Markers))
		for _, m := range f.Markers {
			markers = append(markers, a.resolve(m))
		}
		a.flags = append(a.flags, warp.FlagCondition{Name: f.Name, Level: f.Level, Markers: markers})
	}

	var roots []string
	for _, c := range world.RootCandidates {
		if r := a.resolve(c); a.g.HasVertex(r) {
			roots = append(roots, r)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no root candidate present at level %d", ErrInvalidWorld, cfg.Level)
	}
	a.root = rng.PickString(src, dedupe(roots))

	for _, comp := range a.g.ConnectedComponents(graph.Without(graph.Conditional)) {
		if len(comp) < 2 || contains(comp, a.root) {
			continue
		}
		a.unconnected = append(a.unconnected, comp)
	}

	for _, group := range world.EscapePaths {
		var present []string
		for _, id := range group {
			if r := a.resolve(id); a.g.HasVertex(r) {
				present = append(present, r)
			}
		}
		if len(present) > 0 {
			a.mustLink = append(a.mustLink, rng.PickString(src, dedupe(present)))
		}
	}
	a.mustLink = dedupe(a.mustLink)
	a.flagLocs = a.presentLocations(world.FlagLocations)
	a.keyLocs = a.presentLocations(world.KeyLocations)

	a.log.Debug("attempt graph built",
		zap.Int64("seed", cfg.Seed),
		zap.String("root", a.root),
		zap.Int("vertices", a.g.VertexCount()),
		zap.Int("unconnected", len(a.unconnected)),
		zap.Int("must_link", len(a.mustLink)),
		zap.Int("pending_gates", len(a.pending)),
	)
	return a, nil
}

// resolve maps a warp id onto its main representative, leaving unknown ids as-is.
func (a *attempt) resolve(id string) string {
	if main, ok := a.alias[id]; ok {
		return main
	}
	return id
}

func (a *attempt) presentLocations(ids []string) []string {
	var out []string
	for _, id := range ids {
		if r := a.resolve(id); a.g.HasVertex(r) {
			out = append(out, r)
		}
	}
	return dedupe(out)
}

// dedupe returns the distinct ids in sorted order.
func dedupe(ids []string) []string {
	set := mapset.New[string]()
	for _, id := range ids {
		set.Put(id)
	}
	return graph.Sorted(set)
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
