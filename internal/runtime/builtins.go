package runtime

import "ssagen/internal/ir"

// builtinSet declares the common builtin registry exercised by
// Call{Builtin} (§4.5's Call{Builtin} row; supplemented per SPEC_FULL §4.5
// from the original builtin contract-function test suite): block number,
// timestamp, remaining gas, value sent, minimum balance, randomness,
// signature verification, and the standard hash builtins. Each entry is a
// single call to a declared runtime function. Only signature_verify yields
// a ReturnCode that the lowerer branches on; every other builtin returns
// its value directly and its call is not checked for failure.
func builtinSet(r *base) map[string]BuiltinFunction {
	addr := &ir.PointerType{Elem: ir.I8}
	set := map[string]BuiltinFunction{}

	reg := func(name string, params []ir.Type, returns []ir.Type) {
		retTy := ir.Type(&ir.VoidType{})
		if len(returns) == 1 {
			retTy = returns[0]
		}
		fn := r.intr.Declare(name, params, retTy)
		set[name] = BuiltinFunction{
			Name:    name,
			Params:  params,
			Returns: returns,
			Emit: func(b *ir.Builder, f *ir.Function, args []*ir.Value) []*ir.Value {
				res := b.CreateCall(fn, args, name+".result")
				if res == nil {
					return nil
				}
				return []*ir.Value{res}
			},
		}
	}

	reg("block_number", nil, []ir.Type{ir.I64})
	reg("timestamp", nil, []ir.Type{ir.I64})
	reg("gas_left", nil, []ir.Type{ir.I64})
	reg("value_sent", nil, []ir.Type{ir.I64})
	reg("minimum_balance", nil, []ir.Type{ir.I64})
	reg("random", []ir.Type{addr}, []ir.Type{&ir.ArrayType{Elem: ir.I8, Len: 32}})

	// signature_verify is fallible: the host capability itself reports
	// whether the signature checked out as a ReturnCode, rather than a
	// plain bool, so a bad signature propagates like any other failing
	// call (§7) instead of being silently foldable into a value.
	sigVerifyFn := r.intr.Declare("signature_verify", []ir.Type{addr, addr, addr}, ir.I32)
	set["signature_verify"] = BuiltinFunction{
		Name:     "signature_verify",
		Params:   []ir.Type{addr, addr, addr},
		Fallible: true,
		Emit: func(b *ir.Builder, f *ir.Function, args []*ir.Value) []*ir.Value {
			code := b.CreateCall(sigVerifyFn, args, "signature_verify.code")
			return []*ir.Value{code}
		},
	}

	reg("keccak256", []ir.Type{addr, ir.I32}, []ir.Type{&ir.ArrayType{Elem: ir.I8, Len: 32}})
	reg("ripemd160", []ir.Type{addr, ir.I32}, []ir.Type{&ir.ArrayType{Elem: ir.I8, Len: 20}})
	reg("sha256", []ir.Type{addr, ir.I32}, []ir.Type{&ir.ArrayType{Elem: ir.I8, Len: 32}})
	reg("blake2_128", []ir.Type{addr, ir.I32}, []ir.Type{&ir.ArrayType{Elem: ir.I8, Len: 16}})
	reg("blake2_256", []ir.Type{addr, ir.I32}, []ir.Type{&ir.ArrayType{Elem: ir.I8, Len: 32}})

	return set
}

func substrateBuiltins(r *Substrate) map[string]BuiltinFunction { return builtinSet(&r.base) }

func solanaBuiltins(r *Solana) map[string]BuiltinFunction { return builtinSet(&r.base) }
