package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/rando"
	"github.com/cory-johannsen/warprando/internal/rng"
)

// scoreHook is the Lua global every scorer script must define:
//
//	function score(source, area, placed) return <number> end
//
// Lower scores are preferred.
const scoreHook = "score"

// Scorer picks the source warp for key and flag locations by calling a Lua
// score function. It implements rando.SourceSelector.
//
// Scorer is safe for concurrent use; calls into the VM are serialized.
type Scorer struct {
	mu       sync.Mutex
	sb       *Sandbox
	fallback rando.SourceSelector
	logger   *zap.Logger
}

// NewScorer loads the script at path into a sandboxed VM.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses DefaultInstructionLimit).
// Postcondition: Returns a Scorer whose script defines a score function, or an error.
func NewScorer(path string, instLimit int, logger *zap.Logger) (*Scorer, error) {
	sb := NewSandbox(instLimit)
	if err := sb.L.DoFile(path); err != nil {
		sb.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
	}
	if fn := sb.L.GetGlobal(scoreHook); fn.Type() != lua.LTFunction {
		sb.Close()
		return nil, fmt.Errorf("scripting: %q does not define a %s function", path, scoreHook)
	}
	logger.Debug("scorer loaded", zap.String("path", path), zap.Int("instruction_limit", sb.Limit()))
	return &Scorer{
		sb:       sb,
		fallback: rando.TieredSpread{},
		logger:   logger,
	}, nil
}

// Close releases the VM.
func (s *Scorer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sb.Close()
}

// SelectSource implements rando.SourceSelector. Candidates sharing the lowest
// score are picked from at random; any script failure falls back to the
// built-in tiered selector for this call.
func (s *Scorer) SelectSource(src rng.Source, candidates []string, spread rando.Spread) string {
	scores, err := s.scoreAll(candidates, spread)
	if err != nil {
		s.logger.Warn("scripting: Lua runtime error; using built-in selector",
			zap.String("hook", scoreHook),
			zap.Error(err),
		)
		return s.fallback.SelectSource(src, candidates, spread)
	}

	var best []string
	lowest := 0.0
	for i, c := range candidates {
		switch {
		case len(best) == 0 || scores[i] < lowest:
			best = []string{c}
			lowest = scores[i]
		case scores[i] == lowest:
			best = append(best, c)
		}
	}
	return rng.Pick(src, best)
}

func (s *Scorer) scoreAll(candidates []string, spread rando.Spread) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn := s.sb.L.GetGlobal(scoreHook)
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		area := spread.Area(c)
		v, err := s.call(fn, lua.LString(c), lua.LString(area), lua.LNumber(spread.Placed(area)))
		if err != nil {
			return nil, fmt.Errorf("scoring %q: %w", c, err)
		}
		n, ok := v.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("scoring %q: %s returned %s, want number", c, scoreHook, v.Type())
		}
		scores[i] = float64(n)
	}
	return scores, nil
}

// call runs fn under a fresh instruction budget.
func (s *Scorer) call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	s.sb.Rearm()
	L := s.sb.L
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
