package runtime

import "ssagen/internal/ir"

// Intrinsics holds the lazily-declared external functions a target runtime
// delegates to. Both Substrate and Solana share this declaration cache;
// they differ only in the signatures they register (e.g. __realloc's size
// parameter width) and in which entry points exist at all.
type Intrinsics struct {
	mod   *ir.Module
	funcs map[string]*ir.Function
}

// NewIntrinsics binds an intrinsic cache to mod, declaring functions into it
// on first use.
func NewIntrinsics(mod *ir.Module) *Intrinsics {
	return &Intrinsics{mod: mod, funcs: map[string]*ir.Function{}}
}

// Declare returns the external function declaration named name, creating it
// (with no definition, per ir.Function.Declared) the first time it is
// requested.
func (in *Intrinsics) Declare(name string, params []ir.Type, ret ir.Type) *ir.Function {
	if fn, ok := in.funcs[name]; ok {
		return fn
	}
	fn := &ir.Function{Name: name, RetType: ret}
	for i, p := range params {
		fn.Params = append(fn.Params, &ir.Value{ID: i, Name: paramName(i), Type: p})
	}
	in.funcs[name] = fn
	in.mod.Functions = append(in.mod.Functions, fn)
	return fn
}

func paramName(i int) string {
	names := []string{"%a", "%b", "%c", "%d", "%e", "%f", "%g", "%h"}
	if i < len(names) {
		return names[i]
	}
	return "%p" + string(rune('0'+i))
}
