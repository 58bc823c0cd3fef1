package runtime

import (
	"ssagen/internal/cfg"
	"ssagen/internal/ir"
)

// Solana implements TargetRuntime for the Solana BPF target: 32-byte
// addresses, i64 realloc size, byte-swapped selector comparison, an
// ambient `accounts` parameter appended to every internal call, and an
// entry-block alloca placement policy (§6).
type Solana struct {
	base
	builtins map[string]BuiltinFunction
}

// NewSolana builds a Solana runtime declaring its intrinsics into mod.
func NewSolana(mod *ir.Module) *Solana {
	r := &Solana{base: base{intr: NewIntrinsics(mod), reallocWidth: ir.I64}}
	r.builtins = solanaBuiltins(r)
	return r
}

func (r *Solana) Target() cfg.Target           { return cfg.Solana }
func (r *Solana) AddressLength() int           { return 32 }
func (r *Solana) ReallocSizeType() *ir.IntType { return ir.I64 }
func (r *Solana) EntryAllocas() bool           { return true }
func (r *Solana) AmbientAccountsParam() bool   { return true }

// CompareSelector byte-swaps the loaded value before comparing, since
// Solana (like EVM-style targets) encodes the selector big-endian while the
// IR's integer comparison is host-order (§4.5, §8.6).
func (r *Solana) CompareSelector(b *ir.Builder, loaded *ir.Value, expected uint32) *ir.Value {
	swap := r.intr.Declare("__bswap32", []ir.Type{ir.I32}, ir.I32)
	swapped := b.CreateCall(swap, []*ir.Value{loaded}, "sel.swapped")
	constVal := &ir.Value{Name: selectorConstName(expected), Type: ir.I32}
	return b.CreateICmp(ir.ICmpEq, swapped, constVal, "sel.match")
}

func (r *Solana) Builtin(name string) (BuiltinFunction, bool) {
	fn, ok := r.builtins[name]
	return fn, ok
}
