package rando

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/warprando/internal/graph"
	"github.com/cory-johannsen/warprando/internal/warp"
)

// WarpRemapping redirects one physical warp trigger to a new destination.
// All fields are small non-negative integers.
type WarpRemapping struct {
	TriggerMapGroup int
	TriggerMapNo    int
	TriggerWarpNo   int
	TargetMapGroup  int
	TargetMapNo     int
	TargetWarpNo    int
}

// Trigger returns the trigger coordinate.
func (r WarpRemapping) Trigger() warp.Coord {
	return warp.Coord{MapGroup: r.TriggerMapGroup, MapNo: r.TriggerMapNo, WarpNo: r.TriggerWarpNo}
}

// Target returns the destination coordinate.
func (r WarpRemapping) Target() warp.Coord {
	return warp.Coord{MapGroup: r.TargetMapGroup, MapNo: r.TargetMapNo, WarpNo: r.TargetWarpNo}
}

// String renders the remap as "g,m,w -> g,m,w".
func (r WarpRemapping) String() string {
	return fmt.Sprintf("%s -> %s", r.Trigger(), r.Target())
}

// NewRemapping builds a remap from two coordinates.
func NewRemapping(trigger, target warp.Coord) WarpRemapping {
	return WarpRemapping{
		TriggerMapGroup: trigger.MapGroup,
		TriggerMapNo:    trigger.MapNo,
		TriggerWarpNo:   trigger.WarpNo,
		TargetMapGroup:  target.MapGroup,
		TargetMapNo:     target.MapNo,
		TargetWarpNo:    target.WarpNo,
	}
}

// formatRemaps converts every WARP edge of g into remap records, one per
// physical trigger of the edge's source.
//
// Postcondition: the result is sorted by trigger (group, map, warp); records
// sharing a trigger are ordered by target.
func formatRemaps(g *graph.Graph, triggers map[string][]string) ([]WarpRemapping, error) {
	var out []WarpRemapping
	for _, e := range g.Edges(func(e graph.Edge) bool { return e.Kind == graph.Warp }) {
		target, err := warp.ParseCoord(e.To)
		if err != nil {
			return nil, fmt.Errorf("%w: target: %v", ErrInvalidWorld, err)
		}
		trig := triggers[e.From]
		if len(trig) == 0 {
			trig = []string{e.From}
		}
		for _, id := range trig {
			c, err := warp.ParseCoord(id)
			if err != nil {
				return nil, fmt.Errorf("%w: trigger: %v", ErrInvalidWorld, err)
			}
			out = append(out, NewRemapping(c, target))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Trigger(), out[j].Trigger()
		if ti != tj {
			return ti.Less(tj)
		}
		return out[i].Target().Less(out[j].Target())
	})
	return out, nil
}
