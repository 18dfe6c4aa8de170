package rando

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/cory-johannsen/warprando/internal/graph"
	"github.com/cory-johannsen/warprando/internal/warp"
)

// validate runs the post-generation checks on a completed attempt. Every
// failure wraps ErrImpossibleMap so the retry driver treats it like a pairing
// failure, except missing rule vertices, which wrap ErrInvalidWorld.
func (a *attempt) validate(remaps []WarpRemapping) error {
	if err := a.validateStructure(); err != nil {
		return err
	}
	if a.cfg.Level != warp.MaxLevel {
		return nil
	}
	// Fixture values describe the full world, so pruning disables them.
	if !a.cfg.ExtraDeadendRemoval {
		if err := a.validateFixture(remaps); err != nil {
			return err
		}
	}
	return a.validateProgression(a.world.Progression(a.cfg))
}

// validateStructure checks that every vertex is wired exactly once.
func (a *attempt) validateStructure() error {
	incident := mapset.New[string]()
	for _, e := range a.g.Edges(func(e graph.Edge) bool { return e.Kind == graph.Warp }) {
		incident.Put(e.From)
		incident.Put(e.To)
	}
	for _, id := range a.g.Vertices() {
		if !incident.Has(id) {
			return impossible("warp %q has no WARP edge", id)
		}
	}

	seen := make(map[string]int)
	for _, p := range a.trace.Pairings {
		seen[p.Source]++
		if p.Target != p.Source {
			seen[p.Target]++
		}
	}
	for id, n := range seen {
		if n > 1 {
			return impossible("warp %q wired %d times", id, n)
		}
	}
	return nil
}

// validateFixture compares the result against known-good values.
func (a *attempt) validateFixture(remaps []WarpRemapping) error {
	fx := a.world.Fixture
	if fx.VertexCount > 0 && a.g.VertexCount() != fx.VertexCount {
		return impossible("vertex count %d, want %d", a.g.VertexCount(), fx.VertexCount)
	}
	if fx.MinRemaps > 0 && len(remaps) < fx.MinRemaps {
		return impossible("remap count %d, want at least %d", len(remaps), fx.MinRemaps)
	}
	if len(fx.ExpectedTriggers) == 0 {
		return nil
	}
	triggers := mapset.New[warp.Coord]()
	for _, r := range remaps {
		triggers.Put(r.Trigger())
	}
	for _, id := range fx.ExpectedTriggers {
		c, err := warp.ParseCoord(id)
		if err != nil {
			return fmt.Errorf("%w: expected trigger: %v", ErrInvalidWorld, err)
		}
		if !triggers.Has(c) {
			return impossible("expected trigger %q missing from remaps", id)
		}
	}
	return nil
}

// validateProgression checks that progression milestones stay reachable on
// the completed graph, including with ability-gated edges removed. Conditional
// edges whose flag never became satisfied are still pending and take no part.
//
// Ability rules remove the edges gated by ANY of their flags.
func (a *attempt) validateProgression(p warp.Progression) error {
	reachableFrom := func(f graph.Filter, ids []string, what string) error {
		for _, id := range ids {
			v := a.resolve(id)
			if !a.g.HasVertex(v) {
				return fmt.Errorf("%w: %s %q is not a vertex", ErrInvalidWorld, what, id)
			}
			if !a.g.HasPath(a.root, v, f) {
				return impossible("%s %q unreachable from root %q", what, id, a.root)
			}
		}
		return nil
	}

	if err := reachableFrom(nil, p.Milestones, "milestone"); err != nil {
		return err
	}
	if p.AllBadgesFlag != "" {
		if err := reachableFrom(graph.WithoutGates(p.AllBadgesFlag), p.GymLeaders, "gym leader without "+p.AllBadgesFlag); err != nil {
			return err
		}
	}
	for _, rule := range p.Abilities {
		f := graph.WithoutGates(rule.Flags...)
		ids := append([]string{}, rule.Keep...)
		if rule.Source != "" {
			ids = append(ids, rule.Source)
		}
		if err := reachableFrom(f, ids, "location without "+rule.Name); err != nil {
			return err
		}
	}
	return nil
}
