// Package warp provides the static world model for the warp randomizer: warps,
// their gated connections, flag conditions, and the randomization config.
package warp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxLevel is the most permissive world size. Fixture and progression checks
// only run at this level.
const MaxLevel = 10

// GateAlways marks a connection that is traversable without any flag.
const GateAlways = "always"

// Tag is a marker attached to a warp that alters how it is filtered or paired.
type Tag string

// Known warp tags.
const (
	// TagNeedsReturn marks a warp whose destination must offer a way back.
	TagNeedsReturn Tag = "needs_return"
	// TagNoReturn marks a warp whose destination offers no way back.
	TagNoReturn Tag = "no_return"
	// TagLowPriority marks a dead end that is paired after every other dead end.
	TagLowPriority Tag = "low_priority"
	// TagRemove excludes the warp from every world size.
	TagRemove Tag = "remove"
	// TagExtraDeadend excludes the warp when extra dead end removal is enabled.
	TagExtraDeadend Tag = "extra_deadend"
)

// Coord is the in-game address of a warp trigger.
type Coord struct {
	MapGroup int
	MapNo    int
	WarpNo   int
}

// String returns the coordinate as "group,map,warp".
func (c Coord) String() string {
	return fmt.Sprintf("%d,%d,%d", c.MapGroup, c.MapNo, c.WarpNo)
}

// Less orders coordinates by group, then map, then warp index.
func (c Coord) Less(o Coord) bool {
	if c.MapGroup != o.MapGroup {
		return c.MapGroup < o.MapGroup
	}
	if c.MapNo != o.MapNo {
		return c.MapNo < o.MapNo
	}
	return c.WarpNo < o.WarpNo
}

// ParseCoord extracts the trigger coordinate from a warp id of the form
// "<prefix>,<group>,<map>,<warp>".
//
// Postcondition: Returns the coordinate or an error if the id has fewer than
// three trailing non-negative integer fields.
func ParseCoord(id string) (Coord, error) {
	parts := strings.Split(id, ",")
	if len(parts) < 3 {
		return Coord{}, fmt.Errorf("warp id %q: expected <prefix>,<group>,<map>,<warp>", id)
	}
	tail := parts[len(parts)-3:]
	vals := make([]int, 3)
	for i, p := range tail {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coord{}, fmt.Errorf("warp id %q: field %d: %w", id, i, err)
		}
		if n < 0 {
			return Coord{}, fmt.Errorf("warp id %q: field %d must not be negative", id, i)
		}
		vals[i] = n
	}
	return Coord{MapGroup: vals[0], MapNo: vals[1], WarpNo: vals[2]}, nil
}

// Warp is a named map transition point that can be re-targeted.
// Warp values are never mutated after loading; attempt state is tracked elsewhere.
type Warp struct {
	// ID is the stable key, e.g. "E,8,1,0".
	ID string
	// Level is the smallest world size that includes this warp.
	Level int
	// Tags alter filtering and pairing.
	Tags []Tag
	// Connections maps a target warp id to GateAlways or a flag name.
	Connections map[string]string
	// Grouped lists other warp ids that share this warp's physical trigger.
	Grouped []string
	// Area overrides the area used by the spread heuristic. Empty means the map group.
	Area string
}

// HasTag reports whether w carries tag.
func (w *Warp) HasTag(tag Tag) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AreaName returns the area this warp belongs to for placement spreading.
func (w *Warp) AreaName() string {
	if w.Area != "" {
		return w.Area
	}
	c, err := ParseCoord(w.ID)
	if err != nil {
		return w.ID
	}
	return strconv.Itoa(c.MapGroup)
}

// SortedTargets returns the connection targets in lexicographic order.
func (w *Warp) SortedTargets() []string {
	targets := make([]string, 0, len(w.Connections))
	for t := range w.Connections {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Compatible reports whether a and b may be wired to each other: a warp that
// needs a return path may not lead to a warp that has none.
func Compatible(a, b *Warp) bool {
	if a == nil || b == nil {
		return true
	}
	if a.HasTag(TagNeedsReturn) && b.HasTag(TagNoReturn) {
		return false
	}
	if a.HasTag(TagNoReturn) && b.HasTag(TagNeedsReturn) {
		return false
	}
	return true
}

// FlagCondition is a named boolean that becomes true once every marker
// location has been reached.
type FlagCondition struct {
	Name    string
	Level   int
	Markers []string
}

// SatisfiedBy reports whether every marker is in reached.
func (f FlagCondition) SatisfiedBy(reached func(string) bool) bool {
	for _, m := range f.Markers {
		if !reached(m) {
			return false
		}
	}
	return true
}

// AbilityRule describes an ability-gated safety check: with every edge gated by
// one of Flags removed, Source and every id in Keep must stay reachable.
type AbilityRule struct {
	Name   string
	Flags  []string
	Source string
	Keep   []string
}

// Progression holds the logic checks for one gym-order mode.
type Progression struct {
	// Milestones must be reachable from the root on the completed graph.
	Milestones []string
	// AllBadgesFlag gates the endgame; GymLeaders must stay reachable without it.
	AllBadgesFlag string
	GymLeaders    []string
	Abilities     []AbilityRule
}

// Fixture holds known-good values for the most permissive world size.
// Zero values disable the corresponding check.
type Fixture struct {
	VertexCount      int
	MinRemaps        int
	ExpectedTriggers []string
}

// Config selects the world size and drives every random choice.
type Config struct {
	// Level is 0-10; higher levels include strictly more of the world.
	Level int
	// ExtraDeadendRemoval prunes warps tagged extra_deadend.
	ExtraDeadendRemoval bool
	// Seed drives every random choice and is advanced on retry.
	Seed int64
	// InGymOrder selects the strict-order flag table instead of the free-order one.
	InGymOrder bool
}

// Validate checks the config invariants.
func (c Config) Validate() error {
	if c.Level < 0 || c.Level > MaxLevel {
		return fmt.Errorf("level must be 0-%d, got %d", MaxLevel, c.Level)
	}
	return nil
}

// World is the static description of every warp and rule table. It is
// immutable after loading and safe to share between attempts.
type World struct {
	Warps map[string]*Warp
	// StrictFlags apply when Config.InGymOrder is set; FreeFlags otherwise.
	StrictFlags []FlagCondition
	FreeFlags   []FlagCondition
	// EscapePaths are groups of warps; one per group must link back home.
	EscapePaths [][]string
	// FlagLocations are markers needed to satisfy flag conditions.
	FlagLocations []string
	// KeyLocations are further mandatory markers.
	KeyLocations []string
	// RootCandidates are the possible start warps.
	RootCandidates []string
	// OddOneOut sentinels for an odd warp count, per deadend removal mode.
	OddOneOut             []string
	OddOneOutExtraDeadend []string
	// StrictProgression and FreeProgression are the validator rule sets.
	StrictProgression Progression
	FreeProgression   Progression
	Fixture           Fixture
}

// Flags returns the flag table selected by cfg.
func (w *World) Flags(cfg Config) []FlagCondition {
	if cfg.InGymOrder {
		return w.StrictFlags
	}
	return w.FreeFlags
}

// Progression returns the validator rules selected by cfg.
func (w *World) Progression(cfg Config) Progression {
	if cfg.InGymOrder {
		return w.StrictProgression
	}
	return w.FreeProgression
}

// Sentinels returns the odd-one-out candidates selected by cfg.
func (w *World) Sentinels(cfg Config) []string {
	if cfg.ExtraDeadendRemoval {
		return w.OddOneOutExtraDeadend
	}
	return w.OddOneOut
}

// Triggers returns the physical trigger ids of warp id: the warp itself
// followed by its grouped duplicates.
func (w *World) Triggers(id string) []string {
	out := []string{id}
	if wp, ok := w.Warps[id]; ok {
		out = append(out, wp.Grouped...)
	}
	return out
}

// SortedWarpIDs returns every warp id in lexicographic order.
func (w *World) SortedWarpIDs() []string {
	ids := make([]string, 0, len(w.Warps))
	for id := range w.Warps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks world invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (w *World) Validate() error {
	if len(w.Warps) == 0 {
		return fmt.Errorf("world must contain at least one warp")
	}
	for id, wp := range w.Warps {
		if wp.ID != id {
			return fmt.Errorf("warp key %q does not match warp ID %q", id, wp.ID)
		}
		if _, err := ParseCoord(id); err != nil {
			return err
		}
		if wp.Level < 0 || wp.Level > MaxLevel {
			return fmt.Errorf("warp %q: level must be 0-%d, got %d", id, MaxLevel, wp.Level)
		}
		for target, gate := range wp.Connections {
			if gate == "" {
				return fmt.Errorf("warp %q: connection to %q has empty gate", id, target)
			}
		}
		for _, g := range wp.Grouped {
			if _, err := ParseCoord(g); err != nil {
				return fmt.Errorf("warp %q: grouped: %w", id, err)
			}
		}
	}
	for _, table := range [][]FlagCondition{w.StrictFlags, w.FreeFlags} {
		for _, f := range table {
			if f.Name == "" {
				return fmt.Errorf("flag condition name must not be empty")
			}
			if len(f.Markers) == 0 {
				return fmt.Errorf("flag %q: must have at least one marker", f.Name)
			}
		}
	}
	if len(w.RootCandidates) == 0 {
		return fmt.Errorf("world must name at least one root candidate")
	}
	return nil
}
