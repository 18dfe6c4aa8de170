// Package scripting runs user-supplied placement scoring scripts in a
// restricted GopherLua VM.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one call when none is configured.
const DefaultInstructionLimit = 100_000

// blockedGlobals are base library functions that reach the filesystem or
// load arbitrary chunks.
var blockedGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// budget is a context that cancels itself once Done has been polled n times.
// The VM polls Done once per opcode, so n is an opcode budget.
type budget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *budget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func newBudget(n int) *budget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.left.Store(int64(n))
	return b
}

// Sandbox is a Lua VM with only the base, table, string and math libraries
// and a per-call opcode budget. A Sandbox is not safe for concurrent use.
type Sandbox struct {
	L      *lua.LState
	limit  int
	budget *budget
}

// NewSandbox creates a VM whose calls may each run at most limit opcodes.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The VM is armed with a full budget. The caller must Close it.
func NewSandbox(limit int) *Sandbox {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	s := &Sandbox{L: L, limit: limit}
	s.Rearm()
	return s
}

// Rearm replaces the remaining budget with a full one.
func (s *Sandbox) Rearm() {
	if s.budget != nil {
		s.budget.cancel()
	}
	s.budget = newBudget(s.limit)
	s.L.SetContext(s.budget)
}

// Limit returns the per-call opcode budget.
func (s *Sandbox) Limit() int {
	return s.limit
}

// Close releases the VM.
func (s *Sandbox) Close() {
	s.budget.cancel()
	s.L.Close()
}
