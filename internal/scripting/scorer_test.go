package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/warprando/internal/rando"
	"github.com/cory-johannsen/warprando/internal/rng"
	"github.com/cory-johannsen/warprando/internal/scripting"
	"github.com/cory-johannsen/warprando/internal/warp"
)

func writeTempLua(t testing.TB, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "score.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func newTestScorer(t *testing.T, src string, limit int) (*scripting.Scorer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	s, err := scripting.NewScorer(writeTempLua(t, src), limit, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, logs
}

func areaSpread(placed map[string]int) rando.Spread {
	return rando.Spread{
		Area:   func(id string) string { return id[:1] },
		Placed: func(area string) int { return placed[area] },
	}
}

func TestScorer_LowestScoreWins(t *testing.T) {
	s, logs := newTestScorer(t, `
		function score(source, area, placed)
			if source == "b2" then return -5 end
			return placed
		end
	`, 0)
	src := rng.NewSeeded(1)
	for i := 0; i < 10; i++ {
		got := s.SelectSource(src, []string{"a1", "b2", "c3"}, areaSpread(nil))
		assert.Equal(t, "b2", got)
	}
	assert.Equal(t, 0, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestScorer_PlacedIsPassed(t *testing.T) {
	s, _ := newTestScorer(t, `
		function score(source, area, placed)
			return placed
		end
	`, 0)
	src := rng.NewSeeded(2)
	spread := areaSpread(map[string]int{"a": 3, "b": 0, "c": 3})
	assert.Equal(t, "b1", s.SelectSource(src, []string{"a1", "b1", "c1"}, spread))
}

func TestScorer_TiesUseSource(t *testing.T) {
	s, _ := newTestScorer(t, `function score() return 1 end`, 0)
	seen := make(map[string]bool)
	src := rng.NewSeeded(3)
	for i := 0; i < 50; i++ {
		seen[s.SelectSource(src, []string{"a1", "b1", "c1"}, areaSpread(nil))] = true
	}
	assert.Len(t, seen, 3)
}

func TestScorer_RuntimeErrorFallsBack(t *testing.T) {
	s, logs := newTestScorer(t, `function score() error("boom") end`, 0)
	spread := areaSpread(map[string]int{"a": 2, "b": 0})
	got := s.SelectSource(rng.NewSeeded(4), []string{"a1", "b1"}, spread)
	assert.Equal(t, "b1", got, "the built-in selector prefers empty areas")
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestScorer_NonNumberFallsBack(t *testing.T) {
	s, logs := newTestScorer(t, `function score() return "high" end`, 0)
	got := s.SelectSource(rng.NewSeeded(5), []string{"a1"}, areaSpread(nil))
	assert.Equal(t, "a1", got)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestScorer_InstructionLimitIsPerCall(t *testing.T) {
	s, logs := newTestScorer(t, `
		function score(source, area, placed)
			if source == "z9" then
				while true do end
			end
			return 0
		end
	`, 500)
	src := rng.NewSeeded(6)
	s.SelectSource(src, []string{"z9"}, areaSpread(nil))
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())

	for i := 0; i < 20; i++ {
		assert.Equal(t, "a1", s.SelectSource(src, []string{"a1"}, areaSpread(nil)))
	}
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestNewScorer_MissingFunction(t *testing.T) {
	_, err := scripting.NewScorer(writeTempLua(t, `local x = 1`), 0, zap.NewNop())
	assert.Error(t, err)
}

func TestNewScorer_MissingFile(t *testing.T) {
	_, err := scripting.NewScorer("/nonexistent/score.lua", 0, zap.NewNop())
	assert.Error(t, err)
}

func TestScorer_DrivesRandomizer(t *testing.T) {
	s, _ := newTestScorer(t, `
		function score(source, area, placed)
			if source == "E,0,0,1" then return 0 end
			return 1
		end
	`, 0)

	w := &warp.World{
		Warps: map[string]*warp.Warp{
			"E,0,0,0": {ID: "E,0,0,0", Connections: map[string]string{"E,0,0,1": warp.GateAlways}},
			"E,0,0,1": {ID: "E,0,0,1", Connections: map[string]string{"E,0,0,0": warp.GateAlways}},
			"E,1,0,0": {ID: "E,1,0,0", Connections: map[string]string{}},
			"E,2,0,0": {ID: "E,2,0,0", Connections: map[string]string{}},
		},
		FlagLocations:  []string{"E,1,0,0", "E,2,0,0"},
		RootCandidates: []string{"E,0,0,0"},
	}
	res, err := rando.RandomizeWarps(context.Background(), w, warp.Config{Level: 10, Seed: 8}, rando.WithSourceSelector(s))
	require.NoError(t, err)
	require.NotEmpty(t, res.Trace.Pairings)
	assert.Equal(t, "E,0,0,1", res.Trace.Pairings[0].Source)
}
