package rando

import (
	"github.com/cory-johannsen/warprando/internal/warp"
)

// testWorld assembles small worlds by hand.
type testWorld struct {
	w *warp.World
}

func newTestWorld(root string) *testWorld {
	return &testWorld{w: &warp.World{
		Warps:          make(map[string]*warp.Warp),
		RootCandidates: []string{root},
		OddOneOut:      []string{"E,99,0,0"},
	}}
}

func (tw *testWorld) add(id string, tags ...warp.Tag) *testWorld {
	tw.w.Warps[id] = &warp.Warp{ID: id, Tags: tags, Connections: make(map[string]string)}
	return tw
}

// link connects a and b in both directions under gate.
func (tw *testWorld) link(a, b, gate string) *testWorld {
	tw.w.Warps[a].Connections[b] = gate
	tw.w.Warps[b].Connections[a] = gate
	return tw
}

// room adds ids and links every pair with a fixed connection.
func (tw *testWorld) room(ids ...string) *testWorld {
	for _, id := range ids {
		if _, ok := tw.w.Warps[id]; !ok {
			tw.add(id)
		}
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			tw.link(ids[i], ids[j], warp.GateAlways)
		}
	}
	return tw
}

func (tw *testWorld) world() *warp.World {
	// The odd-one-out warp exists in the data but never takes part on its own.
	if _, ok := tw.w.Warps["E,99,0,0"]; !ok {
		tw.add("E,99,0,0", warp.TagRemove)
	}
	return tw.w
}

func maxConfig(seed int64) warp.Config {
	return warp.Config{Level: warp.MaxLevel, Seed: seed}
}

// flagWorld is a root room, two dead-end flag locations and a connection
// between them that opens once both are reached.
func flagWorld() *warp.World {
	tw := newTestWorld("E,0,0,0").
		room("E,0,0,0", "E,0,0,1").
		add("E,1,0,0").
		add("E,2,0,0").
		link("E,1,0,0", "E,2,0,0", "FLAG_F")
	w := tw.world()
	w.FreeFlags = []warp.FlagCondition{{Name: "FLAG_F", Markers: []string{"E,1,0,0", "E,2,0,0"}}}
	w.FlagLocations = []string{"E,1,0,0", "E,2,0,0"}
	return w
}

// oddWorld has a root room of three, an island of two and two dead ends:
// seven vertices, so the odd-one-out warp is always needed.
func oddWorld() *warp.World {
	return newTestWorld("E,0,0,0").
		room("E,0,0,0", "E,0,0,1", "E,0,0,2").
		room("E,1,0,0", "E,1,0,1").
		add("E,2,0,0").
		add("E,3,0,0").
		world()
}
