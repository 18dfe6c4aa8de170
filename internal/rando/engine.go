package rando

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/graph"
	"github.com/cory-johannsen/warprando/internal/rng"
	"github.com/cory-johannsen/warprando/internal/warp"
)

// Rule names the priority rule that produced a pairing.
type Rule string

// Pairing rules in priority order.
const (
	RuleUnconnected  Rule = "unconnected"
	RuleHomeLink     Rule = "home_link"
	RuleFlagLocation Rule = "flag_location"
	RuleHub          Rule = "hub"
	RuleKeyLocation  Rule = "key_location"
	RuleDeadEnd      Rule = "dead_end"
	RuleLeftover     Rule = "leftover"
	RuleOddOneOut    Rule = "odd_one_out"
)

// Pairing records one WARP connection made by the engine.
type Pairing struct {
	Step   int
	Rule   Rule
	Source string
	Target string
}

// Trace records when things happened during an attempt. Step 0 is the state
// before the first pairing; step n is the state right after pairing n.
type Trace struct {
	Pairings []Pairing
	// ReachedAt is the first step at which a vertex was reachable from the root.
	ReachedAt map[string]int
	// SatisfiedAt is the step at which a flag condition became satisfied.
	SatisfiedAt map[string]int
	// Promoted lists every conditional edge added to the live graph.
	Promoted []graph.Edge
}

// attempt owns every piece of mutable state of one randomization attempt.
// Nothing in it is shared with other attempts.
type attempt struct {
	world     *warp.World
	cfg       warp.Config
	src       rng.Source
	log       *zap.Logger
	selector  SourceSelector
	homeSetFn HomeSetFunc

	g        *graph.Graph
	root     string
	alias    map[string]string
	triggers map[string][]string
	flags    []warp.FlagCondition
	// pending holds conditional edges keyed by gate flag that are not live yet.
	pending map[string][]graph.Edge

	mapped    mapset.Set[string]
	visited   mapset.Set[string]
	satisfied mapset.Set[string]

	unconnected [][]string
	mustLink    []string
	flagLocs    []string
	keyLocs     []string
	placed      map[string]int
	homeSet     *mapset.Set[string]
	sentinel    string

	step  int
	trace Trace
}

// run pairs warps until every vertex is mapped.
//
// Postcondition: Returns nil when every vertex carries a WARP edge, or an
// error wrapping ErrImpossibleMap.
func (a *attempt) run() error {
	if err := a.update(); err != nil {
		return err
	}
	for {
		reachable, unreachable := a.partition()
		if len(reachable) == 0 && len(unreachable) == 0 {
			return nil
		}
		if len(reachable) == 0 {
			return impossible("step %d: %d unmapped warps left but none reachable", a.step, len(unreachable))
		}

		src, tgt, rule, err := a.choose(reachable, unreachable)
		if err != nil {
			return err
		}
		if err := a.pair(src, tgt, rule); err != nil {
			return err
		}
		if err := a.update(); err != nil {
			return err
		}
	}
}

// partition splits the unmapped vertices by reachability from the root.
// Both slices are sorted.
func (a *attempt) partition() (reachable, unreachable []string) {
	reach := a.g.Reachable(a.root, nil)
	for _, id := range a.g.Vertices() {
		if a.mapped.Has(id) {
			continue
		}
		if reach.Has(id) {
			reachable = append(reachable, id)
		} else {
			unreachable = append(unreachable, id)
		}
	}
	return reachable, unreachable
}

// choose applies the pairing rules in priority order; the first rule that
// yields a pair wins.
func (a *attempt) choose(reachable, unreachable []string) (string, string, Rule, error) {
	reachSet := mapset.New[string]()
	for _, id := range reachable {
		reachSet.Put(id)
	}

	if src, tgt, ok := a.chooseUnconnected(reachable, reachSet); ok {
		return src, tgt, RuleUnconnected, nil
	}
	if src, tgt, ok := a.chooseHomeLink(reachable, reachSet); ok {
		return src, tgt, RuleHomeLink, nil
	}

	if targets := a.unreached(a.flagLocs); len(targets) > 0 {
		src, tgt, ok := a.chooseSpread(reachable, targets)
		if !ok {
			return "", "", "", impossible("step %d: no legal source for %d flag locations", a.step, len(targets))
		}
		return src, tgt, RuleFlagLocation, nil
	}

	var hubs []string
	for _, id := range unreachable {
		if a.g.Degree(id, nil) > 1 {
			hubs = append(hubs, id)
		}
	}
	if len(hubs) > 0 {
		if src, tgt, ok := a.pickPair(reachable, hubs); ok {
			return src, tgt, RuleHub, nil
		}
	}

	if targets := a.unreached(a.keyLocs); len(targets) > 0 {
		src, tgt, ok := a.chooseSpread(reachable, targets)
		if !ok {
			return "", "", "", impossible("step %d: no legal source for %d key locations", a.step, len(targets))
		}
		return src, tgt, RuleKeyLocation, nil
	}

	if len(unreachable) > 0 {
		var preferred []string
		for _, id := range unreachable {
			if !a.warpHasTag(id, warp.TagLowPriority) {
				preferred = append(preferred, id)
			}
		}
		if len(preferred) > 0 {
			if src, tgt, ok := a.pickPair(reachable, preferred); ok {
				return src, tgt, RuleDeadEnd, nil
			}
		}
		if src, tgt, ok := a.pickPair(reachable, unreachable); ok {
			return src, tgt, RuleDeadEnd, nil
		}
		return "", "", "", impossible("step %d: no legal pairing for %d unreachable warps", a.step, len(unreachable))
	}

	if len(reachable) > 1 {
		if src, tgt, ok := a.pickPair(reachable, reachable); ok {
			return src, tgt, RuleLeftover, nil
		}
		return "", "", "", impossible("step %d: %d reachable warps cannot be paired", a.step, len(reachable))
	}

	sentinel, err := a.addSentinel()
	if err != nil {
		return "", "", "", err
	}
	return reachable[0], sentinel, RuleOddOneOut, nil
}

// chooseUnconnected links a reachable warp into a remaining disconnected island.
func (a *attempt) chooseUnconnected(reachable []string, reachSet mapset.Set[string]) (string, string, bool) {
	// Islands that became reachable some other way need no link.
	kept := a.unconnected[:0]
	for _, comp := range a.unconnected {
		linked := false
		for _, id := range comp {
			if reachSet.Has(id) || a.mapped.Has(id) {
				linked = true
				break
			}
		}
		if !linked {
			kept = append(kept, comp)
		}
	}
	a.unconnected = kept

	// Islands with no legal link this step stay queued for a later one.
	var blocked [][]string
	for len(a.unconnected) > 0 {
		i := a.src.Intn(len(a.unconnected))
		island := a.unconnected[i]
		a.unconnected = append(a.unconnected[:i], a.unconnected[i+1:]...)
		if src, tgt, ok := a.pickPair(reachable, island); ok {
			a.unconnected = append(a.unconnected, blocked...)
			return src, tgt, true
		}
		a.log.Debug("no legal link into island yet",
			zap.Int("step", a.step),
			zap.Strings("island", island),
		)
		blocked = append(blocked, island)
	}
	a.unconnected = blocked
	return "", "", false
}

// chooseHomeLink pairs an escape-path warp with a warp that has a path back
// to the root.
func (a *attempt) chooseHomeLink(reachable []string, reachSet mapset.Set[string]) (string, string, bool) {
	var remaining []string
	for _, id := range a.mustLink {
		if !a.mapped.Has(id) {
			remaining = append(remaining, id)
		}
	}
	a.mustLink = remaining
	if len(a.mustLink) == 0 {
		return "", "", false
	}

	var sources []string
	for _, id := range a.mustLink {
		if reachSet.Has(id) {
			sources = append(sources, id)
		}
	}
	if len(sources) == 0 {
		a.log.Debug("no must-link warp reachable; clearing requirement",
			zap.Int("step", a.step),
			zap.Strings("must_link", a.mustLink),
		)
		a.mustLink = nil
		sources = reachable
	}

	home := a.home()
	var targets []string
	for _, id := range reachable {
		if home.Has(id) {
			targets = append(targets, id)
		}
	}

	for _, src := range rng.Shuffled(a.src, sources) {
		var legal []string
		for _, t := range targets {
			if t != src && a.compatible(src, t) {
				legal = append(legal, t)
			}
		}
		if len(legal) > 0 {
			return src, rng.Pick(a.src, legal), true
		}
	}
	// Nothing with a path home is left; the requirement cannot be honoured.
	a.mustLink = nil
	return "", "", false
}

// home returns the cached home set, computing it on first use.
func (a *attempt) home() mapset.Set[string] {
	if a.homeSet == nil {
		s := a.homeSetFn(a.g, a.root)
		a.homeSet = &s
	}
	return *a.homeSet
}

// chooseSpread attaches one of targets to a source picked by the spread heuristic.
func (a *attempt) chooseSpread(reachable, targets []string) (string, string, bool) {
	spread := Spread{
		Area:   a.area,
		Placed: func(area string) int { return a.placed[area] },
	}
	for _, tgt := range rng.Shuffled(a.src, targets) {
		var sources []string
		for _, s := range reachable {
			if s != tgt && a.compatible(s, tgt) {
				sources = append(sources, s)
			}
		}
		if len(sources) == 0 {
			continue
		}
		src := a.selector.SelectSource(a.src, sources, spread)
		if !contains(sources, src) {
			src = rng.Pick(a.src, sources)
		}
		a.placed[a.area(src)]++
		return src, tgt, true
	}
	return "", "", false
}

// pickPair picks a random legal (source, target) with source from sources and
// target from targets.
func (a *attempt) pickPair(sources, targets []string) (string, string, bool) {
	for _, src := range rng.Shuffled(a.src, sources) {
		var legal []string
		for _, t := range targets {
			if t != src && !a.mapped.Has(t) && a.compatible(src, t) {
				legal = append(legal, t)
			}
		}
		if len(legal) > 0 {
			return src, rng.Pick(a.src, legal), true
		}
	}
	return "", "", false
}

// unreached returns the locations that are not visited and not mapped.
func (a *attempt) unreached(locs []string) []string {
	var out []string
	for _, id := range locs {
		if !a.visited.Has(id) && !a.mapped.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// addSentinel adds the first unused odd-one-out warp as a vertex.
func (a *attempt) addSentinel() (string, error) {
	if a.sentinel != "" {
		return "", impossible("step %d: odd-one-out warp %q already used", a.step, a.sentinel)
	}
	for _, id := range a.world.Sentinels(a.cfg) {
		if a.g.HasVertex(id) {
			continue
		}
		a.g.AddVertex(id)
		a.sentinel = id
		a.triggers[id] = a.world.Triggers(id)
		return id, nil
	}
	return "", impossible("step %d: no odd-one-out warp available", a.step)
}

// pair adds the WARP edges between src and tgt and marks both mapped.
func (a *attempt) pair(src, tgt string, rule Rule) error {
	if a.mapped.Has(src) || a.mapped.Has(tgt) {
		return impossible("step %d: %s pairing %s->%s touches a mapped warp", a.step, rule, src, tgt)
	}
	if !a.compatible(src, tgt) {
		return impossible("step %d: %s pairing %s->%s would strand a needs_return warp", a.step, rule, src, tgt)
	}
	if err := a.g.AddEdge(graph.Edge{From: src, To: tgt, Kind: graph.Warp}); err != nil {
		return fmt.Errorf("%w: %v", ErrImpossibleMap, err)
	}
	if src != tgt {
		if err := a.g.AddEdge(graph.Edge{From: tgt, To: src, Kind: graph.Warp}); err != nil {
			return fmt.Errorf("%w: %v", ErrImpossibleMap, err)
		}
	}
	a.mapped.Put(src)
	a.mapped.Put(tgt)
	a.step++
	a.trace.Pairings = append(a.trace.Pairings, Pairing{Step: a.step, Rule: rule, Source: src, Target: tgt})
	a.log.Debug("paired warps",
		zap.Int("step", a.step),
		zap.String("rule", string(rule)),
		zap.String("source", src),
		zap.String("target", tgt),
		zap.Int("mapped", a.mapped.Size()),
		zap.Int("vertices", a.g.VertexCount()),
	)
	return nil
}

// update records newly reached markers, satisfies flag conditions and
// promotes conditional edges until nothing changes.
func (a *attempt) update() error {
	for {
		reach := a.g.Reachable(a.root, nil)
		for _, id := range graph.Sorted(reach) {
			if !a.visited.Has(id) {
				a.visited.Put(id)
				a.trace.ReachedAt[id] = a.step
			}
		}
		a.flagLocs = a.unvisited(a.flagLocs)
		a.keyLocs = a.unvisited(a.keyLocs)

		for _, f := range a.flags {
			if a.satisfied.Has(f.Name) || !f.SatisfiedBy(a.visited.Has) {
				continue
			}
			a.satisfied.Put(f.Name)
			a.trace.SatisfiedAt[f.Name] = a.step
			a.log.Debug("flag satisfied", zap.Int("step", a.step), zap.String("flag", f.Name))
		}

		promoted, err := a.promote()
		if err != nil {
			return err
		}
		if !promoted {
			return nil
		}
	}
}

// promote adds every pending conditional edge whose flag is satisfied and
// whose endpoints are both vertices, in both directions.
//
// Postcondition: Returns true if at least one edge was added.
func (a *attempt) promote() (bool, error) {
	changed := false
	for _, f := range a.flags {
		if !a.satisfied.Has(f.Name) {
			continue
		}
		edges := a.pending[f.Name]
		if len(edges) == 0 {
			continue
		}
		var keep []graph.Edge
		for _, e := range edges {
			if !a.g.HasVertex(e.From) || !a.g.HasVertex(e.To) {
				keep = append(keep, e)
				continue
			}
			for _, edge := range []graph.Edge{e, e.Reverse()} {
				err := a.g.AddEdge(edge)
				if err == nil {
					a.trace.Promoted = append(a.trace.Promoted, edge)
					changed = true
					continue
				}
				if !errors.Is(err, graph.ErrDuplicateEdge) {
					return false, fmt.Errorf("%w: %v", ErrImpossibleMap, err)
				}
			}
		}
		if len(keep) == 0 {
			delete(a.pending, f.Name)
		} else {
			a.pending[f.Name] = keep
		}
	}
	return changed, nil
}

func (a *attempt) unvisited(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !a.visited.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func (a *attempt) compatible(x, y string) bool {
	return warp.Compatible(a.world.Warps[x], a.world.Warps[y])
}

func (a *attempt) warpHasTag(id string, tag warp.Tag) bool {
	w, ok := a.world.Warps[id]
	return ok && w.HasTag(tag)
}

func (a *attempt) area(id string) string {
	if w, ok := a.world.Warps[id]; ok {
		return w.AreaName()
	}
	return id
}
