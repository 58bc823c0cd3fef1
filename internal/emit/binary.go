// Package emit is the code-emission core: it lowers a typed, per-function
// control-flow graph (internal/cfg) into the low-level SSA IR
// (internal/ir), dispatching everything that differs between compilation
// targets through internal/runtime.
package emit

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/tliron/commonlog"

	"ssagen/internal/cfg"
	"ssagen/internal/diag"
	"ssagen/internal/ir"
	"ssagen/internal/runtime"
)

// log is the emission core's logger. The backend is configured by the
// embedding driver (commonlog.Configure), not here; with no configuration
// the logger is silent.
var log = commonlog.GetLogger("emit")

// Binary is the Binary Context (§4.7): the state threaded through one
// contract's emission. It owns the output module, the vector struct cache
// keyed by element type, and the mapping from CFG index to the ir.Function
// it lowers into (needed before any function body is lowered, since
// Call{Static} may reference a CFG not yet translated).
type Binary struct {
	Namespace *cfg.Namespace
	Contract  *cfg.Contract
	Runtime   runtime.TargetRuntime
	Module    *ir.Module

	// UnitID correlates this Binary's diagnostics across a batch compile
	// (multiple contracts emitted by one process share a logger but not a
	// Binary). It never affects emitted IR.
	UnitID ksuid.KSUID

	vectorTypes    map[string]*ir.StructType
	structTypes    map[string]*ir.StructType
	externalFnType *ir.StructType
	functions      []*ir.Function // indexed like cfg.Contract.CFGs

	// curFunction/curBlock/curInstr track the CFG node currently being
	// lowered, purely so a fatal invariant violation (§7.1) can point at
	// it; -1 means "not applicable" (e.g. during type lowering at
	// function declaration, before any block exists).
	curFunction string
	curBlock    int
	curInstr    int
}

// NewBinary creates the Binary Context for one contract, pre-declaring an
// ir.Function (still empty of blocks) for every CFG so that internal calls
// can reference callees regardless of translation order. It emits into rt's
// own module, so the contract's functions and the runtime's lazily-declared
// intrinsics end up side by side in one ir.Module.
func NewBinary(ns *cfg.Namespace, contract *cfg.Contract, rt runtime.TargetRuntime) *Binary {
	mod := rt.Module()
	mod.Name = contract.Name
	bin := &Binary{
		Namespace:   ns,
		Contract:    contract,
		Runtime:     rt,
		Module:      mod,
		UnitID:      ksuid.New(),
		vectorTypes: map[string]*ir.StructType{},
		structTypes: map[string]*ir.StructType{},
		curBlock:    -1,
		curInstr:    -1,
	}
	for _, f := range contract.CFGs {
		bin.curFunction = f.Name
		fn := bin.declareFunction(f)
		bin.functions = append(bin.functions, fn)
		mod.Functions = append(mod.Functions, fn)
	}
	log.Infof("emitting contract %q for %s (unit %s, %d functions)",
		contract.Name, ns.Target, bin.UnitID, len(contract.CFGs))
	return bin
}

// FunctionFor returns the pre-declared ir.Function for CFG index i.
func (b *Binary) FunctionFor(i int) *ir.Function { return b.functions[i] }

func (b *Binary) declareFunction(f *cfg.ControlFlowGraph) *ir.Function {
	fn := &ir.Function{Name: f.Name}
	for i, p := range f.Params {
		fn.Params = append(fn.Params, fn.NewValue(paramValueName(i, p.Name), b.LLVMVarType(p.Type)))
	}
	if b.Runtime.AmbientAccountsParam() {
		fn.Params = append(fn.Params, fn.NewValue("%accounts", &ir.PointerType{Elem: ir.I8}))
	}
	// Every lowered function returns a ReturnCode (§3); out-parameters for
	// declared return values are appended as trailing pointer parameters,
	// mirroring the "one out-pointer per return value" calling convention
	// (§4.5's Call row).
	for i, r := range f.Returns {
		fn.Params = append(fn.Params, fn.NewValue(fmt.Sprintf("%%ret.%d", i), &ir.PointerType{Elem: b.LLVMVarType(r.Type)}))
	}
	fn.RetType = ir.I32 // ReturnCode
	return fn
}

func paramValueName(i int, name string) string {
	if name == "" {
		return fmt.Sprintf("%%arg.%d", i)
	}
	return "%" + name
}

// fatalf reports a compile-time invariant violation (§7.1) pointing at the
// CFG node currently being lowered, and panics (these are compiler bugs,
// never user-facing).
func (b *Binary) fatalf(code, format string, args ...any) {
	diag.Fatalf(diag.CFGPointer{Function: b.curFunction, Blk: b.curBlock, Instr: b.curInstr}, code, format, args...)
}

// VectorLenPtr returns a pointer to the len field of a Vector (§3, field 0).
func (b *Binary) VectorLenPtr(builder *ir.Builder, vec *ir.Value) *ir.Value {
	return builder.CreateGEP(vec, 0, nil, ir.I32, "vec.len.ptr")
}

// VectorLen loads the len field of a Vector.
func (b *Binary) VectorLen(builder *ir.Builder, vec *ir.Value) *ir.Value {
	return builder.CreateLoad(b.VectorLenPtr(builder, vec), ir.I32, "vec.len")
}

// VectorCapPtr returns a pointer to the cap field of a Vector (§3, field 1).
func (b *Binary) VectorCapPtr(builder *ir.Builder, vec *ir.Value) *ir.Value {
	return builder.CreateGEP(vec, 1, nil, ir.I32, "vec.cap.ptr")
}

// VectorDataPtr returns a pointer to element 0 of a Vector's inline payload
// (§3, field 2), cast to i8* so byte-oriented runtime calls (print,
// external-call payloads, memcpy) can use it directly regardless of the
// vector's element type.
func (b *Binary) VectorDataPtr(builder *ir.Builder, vec *ir.Value) *ir.Value {
	zero := ir.ConstInt(ir.I32, 0)
	return builder.CreateGEP(vec, 2, zero, ir.I8, "vec.bytes")
}

// VectorElemPtr returns a pointer to element idx of a Vector's payload,
// typed as elemTy (unlike VectorDataPtr, which always yields i8*).
func (b *Binary) VectorElemPtr(builder *ir.Builder, vec *ir.Value, idx *ir.Value, elemTy ir.Type) *ir.Value {
	return builder.CreateGEP(vec, 2, idx, elemTy, "vec.elem")
}

// VectorType returns the canonical {len,cap,data} struct for elements of
// type elem, caching by the element's string form so repeated vector types
// of the same element share one ir.StructType (§3).
func (b *Binary) VectorType(elem ir.Type) *ir.StructType {
	key := elem.String()
	if t, ok := b.vectorTypes[key]; ok {
		return t
	}
	t := ir.NewVectorType(elem)
	b.vectorTypes[key] = t
	return t
}

// sizeOf computes t's size in bytes, used by the PushMemory/PopMemory
// realloc-size computation (§4.5). Pointer size is derived from the
// target's realloc size width, since both targets are flat, single
// address-space machines where a pointer and the realloc size argument
// share one width.
func (b *Binary) sizeOf(t ir.Type) int64 {
	switch ty := t.(type) {
	case *ir.IntType:
		return int64((ty.Bits + 7) / 8)
	case *ir.ArrayType:
		return int64(ty.Len) * b.sizeOf(ty.Elem)
	case *ir.StructType:
		var sum int64
		for _, f := range ty.Fields {
			sum += b.sizeOf(f)
		}
		return sum
	case *ir.PointerType:
		return int64(b.Runtime.ReallocSizeType().Bits / 8)
	default:
		return 0
	}
}

// declareIntrinsic declares a module-level helper that isn't itself part of
// the per-target runtime capability surface (unlike internal/runtime's own
// intrinsics, these are ordinary codegen helpers every target shares).
func (b *Binary) declareIntrinsic(name string, params []ir.Type, ret ir.Type) *ir.Function {
	if fn := b.Module.FunctionByName(name); fn != nil {
		return fn
	}
	fn := &ir.Function{Name: name, RetType: ret}
	for i, p := range params {
		fn.Params = append(fn.Params, &ir.Value{ID: i, Name: paramValueName(i, ""), Type: p})
	}
	b.Module.Functions = append(b.Module.Functions, fn)
	return fn
}

// memcpyIntrinsic is the raw byte-copy helper behind Instr.MemCopy when the
// byte count is only known at run time (§4.5, §6: `__memcpy(i8* dst, i8*
// src, i32 n) → i8*`).
func (b *Binary) memcpyIntrinsic() *ir.Function {
	return b.declareIntrinsic("__memcpy", []ir.Type{
		&ir.PointerType{Elem: ir.I8}, &ir.PointerType{Elem: ir.I8}, ir.I32,
	}, &ir.PointerType{Elem: ir.I8})
}

// leNtobeN is the little-to-big-endian byte-order conversion helper used by
// Instr.WriteBuffer when writing a multi-byte FixedBytes value (§4.5, §6:
// `__leNtobeN(i8* src, i8* dst, i32 n)`).
func (b *Binary) leNtobeN() *ir.Function {
	return b.declareIntrinsic("__leNtobeN", []ir.Type{
		&ir.PointerType{Elem: ir.I8}, &ir.PointerType{Elem: ir.I8}, ir.I32,
	}, &ir.VoidType{})
}
