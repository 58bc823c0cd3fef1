package emit

import (
	"sort"

	"ssagen/internal/cfg"
	"ssagen/internal/ir"
)

// envEntry is the per-variable ⟨type, current IR value⟩ pair the spec's
// variable environment holds (§3).
type envEntry struct {
	Ty    cfg.Type
	Value *ir.Value
}

// Env is the Variable environment (§3): a mapping from CFG variable index
// to its current type and IR value. It is cloned whenever a block is
// enqueued for translation (§4.3), so that each work item's φ-wiring sees a
// consistent, private snapshot.
type Env struct {
	vars map[int]envEntry
}

// NewEnv creates an empty environment.
func NewEnv() Env { return Env{vars: map[int]envEntry{}} }

// Clone copies the environment so the original and the copy can diverge
// independently (§3: "The environment is cloned for each enqueued block").
func (e Env) Clone() Env {
	cp := make(map[int]envEntry, len(e.vars))
	for k, v := range e.vars {
		cp[k] = v
	}
	return Env{vars: cp}
}

// Get looks up variable varNo's current binding.
func (e Env) Get(varNo int) (cfg.Type, *ir.Value, bool) {
	entry, ok := e.vars[varNo]
	return entry.Ty, entry.Value, ok
}

// Set rebinds variable varNo in place. Per §3's invariant for Push/Pop,
// callers must call this before any further use of the variable is lowered
// so that no stale value is ever observed.
func (e Env) Set(varNo int, ty cfg.Type, val *ir.Value) {
	e.vars[varNo] = envEntry{Ty: ty, Value: val}
}

// Vars returns the variable indices currently bound, in ascending order so
// φ creation is deterministic, for iterating live-in candidates when
// materializing a block (§4.3's "every variable in the current environment
// is acceptable" over-approximation).
func (e Env) Vars() []int {
	out := make([]int, 0, len(e.vars))
	for k := range e.vars {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
