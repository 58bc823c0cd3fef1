package emit

import (
	"ssagen/internal/cfg"
	"ssagen/internal/diag"
	"ssagen/internal/ir"
)

// lowerExpr is the Expression Lowerer (§4.2): it turns a CFG expression
// into an IR value given the current variable environment. It is pure with
// respect to control flow — it may append straight-line instructions to
// the builder's current block, but it never branches and never
// materializes a block. Overflow/division-by-zero checks delegate to the
// runtime's checked-arithmetic entry point (SPEC_FULL §4.2) so that
// contract still holds exactly.
func (fl *funcLowering) lowerExpr(e cfg.Expression, env Env) *ir.Value {
	switch expr := e.(type) {
	case *cfg.NumberLiteral:
		return ir.ConstInt(fl.bin.LLVMType(expr.Ty), expr.Value)

	case *cfg.BoolLiteral:
		v := int64(0)
		if expr.Value {
			v = 1
		}
		return ir.ConstInt(ir.I1, v)

	case *cfg.BytesLiteral:
		return ir.ConstBytes(fl.bin.LLVMType(expr.Ty), expr.Value)

	case *cfg.Variable:
		_, val, ok := env.Get(expr.VarNo)
		if !ok {
			fl.bin.fatalf(diag.ErrUndefinedVariableRead, "read of variable v%d with no binding in the current environment", expr.VarNo)
			return nil
		}
		return val

	case *cfg.BinaryExpr:
		return fl.lowerBinaryExpr(expr, env)

	case *cfg.UnaryExpr:
		return fl.lowerUnaryExpr(expr, env)

	case *cfg.CastExpr:
		return fl.lowerCastExpr(expr, env)

	case *cfg.Subscript:
		return fl.lowerSubscript(expr, env)

	case *cfg.StructMember:
		return fl.lowerStructMember(expr, env)

	case *cfg.BuiltinExpr:
		return fl.lowerBuiltinExpr(expr, env)

	case *cfg.Undefined:
		// Reached only when an Undefined value flows somewhere other than
		// directly as Set's source expression (which special-cases it,
		// §4.5's Set row); there is no default to fall back on here, so a
		// null pointer or zero value of the right width stands in for it.
		if cfg.IsReferenceType(expr.Ty) {
			return ir.ConstNull(fl.bin.LLVMVarType(expr.Ty).(*ir.PointerType))
		}
		return ir.ConstInt(fl.bin.LLVMType(expr.Ty), 0)

	default:
		fl.bin.fatalf(diag.ErrUnknownType, "unhandled expression kind %T", e)
		return nil
	}
}

func (fl *funcLowering) lowerBinaryExpr(expr *cfg.BinaryExpr, env Env) *ir.Value {
	lhs := fl.lowerExpr(expr.Left, env)
	rhs := fl.lowerExpr(expr.Right, env)

	if expr.Op.IsCheckedArith() {
		return fl.bin.Runtime.CheckedArith(fl.builder, fl.fn, expr.Op, lhs, rhs)
	}

	if pred, ok := icmpPredicate(expr.Op); ok {
		return fl.builder.CreateICmp(pred, lhs, rhs, "")
	}

	return fl.builder.CreateBinOp(binOpKind(expr.Op), lhs, rhs, "")
}

func icmpPredicate(op cfg.BinOp) (ir.ICmpPredicate, bool) {
	switch op {
	case cfg.OpEq:
		return ir.ICmpEq, true
	case cfg.OpNeq:
		return ir.ICmpNe, true
	case cfg.OpLt:
		return ir.ICmpSlt, true
	case cfg.OpLte:
		return ir.ICmpSle, true
	case cfg.OpGt:
		return ir.ICmpSgt, true
	case cfg.OpGte:
		return ir.ICmpSge, true
	default:
		return 0, false
	}
}

func binOpKind(op cfg.BinOp) ir.BinOpKind {
	switch op {
	case cfg.OpAnd, cfg.OpBoolAnd:
		return ir.OpAnd
	case cfg.OpOr, cfg.OpBoolOr:
		return ir.OpOr
	case cfg.OpXor:
		return ir.OpXor
	case cfg.OpShl:
		return ir.OpShl
	case cfg.OpShr:
		return ir.OpLShr
	default:
		return ir.OpAdd
	}
}

func (fl *funcLowering) lowerUnaryExpr(expr *cfg.UnaryExpr, env Env) *ir.Value {
	operand := fl.lowerExpr(expr.Operand, env)
	switch expr.Op {
	case cfg.OpNeg:
		zero := ir.ConstInt(operand.Type, 0)
		return fl.builder.CreateBinOp(ir.OpSub, zero, operand, "")
	case cfg.OpNot:
		one := ir.ConstInt(ir.I1, 1)
		return fl.builder.CreateBinOp(ir.OpXor, operand, one, "")
	case cfg.OpBitNot:
		allOnes := ir.ConstInt(operand.Type, -1)
		return fl.builder.CreateBinOp(ir.OpXor, operand, allOnes, "")
	default:
		fl.bin.fatalf(diag.ErrUnknownType, "unknown unary operator %d", expr.Op)
		return nil
	}
}

func (fl *funcLowering) lowerCastExpr(expr *cfg.CastExpr, env Env) *ir.Value {
	val := fl.lowerExpr(expr.Operand, env)
	to := fl.bin.LLVMVarType(expr.To)
	switch expr.Kind {
	case cfg.CastZeroExtend:
		return fl.builder.CreateCast(ir.CastZExt, val, to, "")
	case cfg.CastSignExtend:
		return fl.builder.CreateCast(ir.CastSExt, val, to, "")
	case cfg.CastTruncate:
		return fl.builder.CreateCast(ir.CastTrunc, val, to, "")
	case cfg.CastBitcast:
		return fl.builder.CreateCast(ir.CastBitcast, val, to, "")
	default:
		fl.bin.fatalf(diag.ErrUnknownType, "unknown cast kind %d", expr.Kind)
		return nil
	}
}

// lowerSubscript indexes into a vector-backed array or a fixed array,
// returning the element pointer for fixed-reference element types and the
// loaded value otherwise (§4.5's edge-case policy, shared with Push/Pop).
func (fl *funcLowering) lowerSubscript(expr *cfg.Subscript, env Env) *ir.Value {
	arr := fl.lowerExpr(expr.Array, env)
	idx := fl.lowerExpr(expr.Index, env)
	elemIRTy := fl.bin.fieldType(expr.Ty)

	var elemPtr *ir.Value
	if cfg.IsDynamicMemory(expr.Array.Type()) {
		elemPtr = fl.bin.VectorElemPtr(fl.builder, arr, idx, elemIRTy)
	} else {
		elemPtr = fl.builder.CreateArrayGEP(arr, idx, elemIRTy, "elem.ptr")
	}

	if cfg.IsFixedReferenceType(expr.Ty) {
		return elemPtr
	}
	return fl.builder.CreateLoad(elemPtr, elemIRTy, "elem")
}

func (fl *funcLowering) lowerStructMember(expr *cfg.StructMember, env Env) *ir.Value {
	base := fl.lowerExpr(expr.Expr, env)
	fieldTy := fl.bin.fieldType(expr.Ty)
	ptr := fl.builder.CreateGEP(base, expr.Field, nil, fieldTy, "field.ptr")
	if cfg.IsFixedReferenceType(expr.Ty) {
		return ptr
	}
	return fl.builder.CreateLoad(ptr, fieldTy, "field")
}

// lowerBuiltinExpr dispatches a pure builtin used as a value. Unlike
// Instr.Call{Builtin} (§4.5), this has no caller-visible ReturnCode: it is
// assumed to always succeed, matching the spec's "Expression ... pure
// values" contract (§3) — a builtin exposed as a value-producing expression
// rather than a call statement is not expected to fail.
func (fl *funcLowering) lowerBuiltinExpr(expr *cfg.BuiltinExpr, env Env) *ir.Value {
	builtin, ok := fl.bin.Runtime.Builtin(expr.Name)
	if !ok {
		fl.bin.fatalf(diag.ErrRuntimeCapabilityUnavailable, "builtin %q not provided by target runtime", expr.Name)
		return nil
	}
	args := make([]*ir.Value, len(expr.Args))
	for i, a := range expr.Args {
		args[i] = fl.lowerExpr(a, env)
	}
	results := builtin.Emit(fl.builder, fl.fn, args)
	if len(results) == 0 {
		return nil
	}
	return results[0]
}
