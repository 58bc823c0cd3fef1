package emit

import (
	"fmt"

	"ssagen/internal/cfg"
	"ssagen/internal/diag"
	"ssagen/internal/ir"
	"ssagen/internal/runtime"
)

// lowerInstr is the Instruction Lowerer's dispatch (§4.5): the large switch
// that turns one CFG instruction into IR, delegating to the Expression
// Lowerer for any operand expressions and to the Runtime Abstraction for
// everything target-specific.
func (fl *funcLowering) lowerInstr(instr cfg.Instr, env Env) {
	switch in := instr.(type) {
	case *cfg.Nop:
		// no-op (§4.5).

	case *cfg.Return:
		fl.lowerReturn(in, env)

	case *cfg.Set:
		fl.lowerSet(in, env)

	case *cfg.Store:
		dst := fl.lowerExpr(in.Dst, env)
		src := fl.lowerExpr(in.Src, env)
		fl.builder.CreateStore(dst, src)

	case *cfg.Branch:
		target := fl.branchTo(in.Target, env)
		fl.builder.CreateBr(target)

	case *cfg.BranchCond:
		cond := fl.lowerExpr(in.Cond, env)
		trueBlk := fl.branchTo(in.TrueBlk, env)
		falseBlk := fl.branchTo(in.FalseBlk, env)
		fl.builder.CreateCondBr(cond, trueBlk, falseBlk)

	case *cfg.Switch:
		fl.lowerSwitch(in, env)

	case *cfg.LoadStorage:
		slot := fl.lowerExpr(in.Storage, env)
		val := fl.bin.Runtime.StorageLoad(fl.builder, fl.fn, slot, fl.bin.LLVMVarType(in.Ty))
		env.Set(in.Res, in.Ty, val)

	case *cfg.ClearStorage:
		slot := fl.lowerExpr(in.Storage, env)
		fl.bin.Runtime.StorageClear(fl.builder, slot)

	case *cfg.SetStorage:
		val := fl.lowerExpr(in.Value, env)
		slot := fl.lowerExpr(in.Storage, env)
		fl.bin.Runtime.StorageStore(fl.builder, slot, val)

	case *cfg.SetStorageBytes:
		val := fl.lowerExpr(in.Value, env)
		slot := fl.lowerExpr(in.Storage, env)
		offset := fl.lowerExpr(in.Offset, env)
		fl.bin.Runtime.StorageSetBytesSubscript(fl.builder, slot, offset, val)

	case *cfg.PushStorage:
		slot := fl.lowerExpr(in.Storage, env)
		elemTy := fl.bin.LLVMType(in.Ty)
		addr := fl.bin.Runtime.StoragePush(fl.builder, fl.fn, slot, elemTy)
		if in.Value != nil {
			val := fl.lowerExpr(in.Value, env)
			fl.builder.CreateStore(addr, val)
		}
		env.Set(in.Res, in.Ty, addr)

	case *cfg.PopStorage:
		slot := fl.lowerExpr(in.Storage, env)
		elemTy := fl.bin.LLVMType(in.Ty)
		val := fl.bin.Runtime.StoragePop(fl.builder, fl.fn, slot, elemTy)
		if in.Res >= 0 {
			env.Set(in.Res, in.Ty, val)
		}

	case *cfg.PushMemory:
		fl.lowerPushMemory(in, env)

	case *cfg.PopMemory:
		fl.lowerPopMemory(in, env)

	case *cfg.AssertFailure:
		fl.lowerAssertFailure(in, env)

	case *cfg.Print:
		val := fl.lowerExpr(in.Expr, env)
		fl.bin.Runtime.Print(fl.builder, fl.bin.VectorDataPtr(fl.builder, val), fl.bin.VectorLen(fl.builder, val))

	case *cfg.Call:
		fl.lowerCall(in, env)

	case *cfg.Constructor:
		fl.lowerConstructor(in, env)

	case *cfg.ExternalCall:
		fl.lowerExternalCall(in, env)

	case *cfg.ValueTransfer:
		fl.lowerValueTransfer(in, env)

	case *cfg.AbiDecode:
		fl.lowerAbiDecode(in, env)

	case *cfg.ReturnData:
		data := fl.lowerExpr(in.Data, env)
		length := fl.lowerExpr(in.Len, env)
		ptr := data
		if cfg.IsDynamicMemory(in.Data.Type()) {
			ptr = fl.bin.VectorDataPtr(fl.builder, data)
		}
		fl.bin.Runtime.ReturnABIData(fl.builder, ptr, length)

	case *cfg.ReturnCodeInstr:
		fl.builder.CreateRet(ir.ConstInt(ir.I32, int64(in.Code)))

	case *cfg.EmitEvent:
		fl.lowerEmitEvent(in, env)

	case *cfg.WriteBuffer:
		fl.lowerWriteBuffer(in, env)

	case *cfg.MemCopy:
		fl.lowerMemCopy(in, env)

	case *cfg.SelfDestruct:
		recipient := fl.lowerExpr(in.Recipient, env)
		fl.bin.Runtime.SelfDestruct(fl.builder, recipient)

	case *cfg.Unreachable:
		// Deliberately emits nothing; the preceding instruction is
		// required to already be a terminator (§4.5).
		if fl.builder.GetInsertBlock().Terminator == nil {
			fl.bin.fatalf(diag.ErrUnreachableNotLast, "Unreachable not preceded by a terminator")
		}

	default:
		fl.bin.fatalf(diag.ErrUnknownType, "unhandled instruction kind %T", instr)
	}
}

func (fl *funcLowering) lowerReturn(in *cfg.Return, env Env) {
	if len(in.Values) == 0 {
		fl.builder.CreateRet(ir.ConstInt(ir.I32, int64(cfg.Success)))
		return
	}
	offset := len(fl.cfgFn.Params)
	if fl.bin.Runtime.AmbientAccountsParam() {
		offset++
	}
	for i, v := range in.Values {
		val := fl.lowerExpr(v, env)
		fl.builder.CreateStore(fl.fn.Params[offset+i], val)
	}
	fl.builder.CreateRet(ir.ConstInt(ir.I32, int64(cfg.Success)))
}

func (fl *funcLowering) lowerSet(in *cfg.Set, env Env) {
	if undef, ok := in.Expr.(*cfg.Undefined); ok {
		if def, hasDefault := fl.bin.Namespace.Default(undef.Ty); hasDefault {
			env.Set(in.Res, undef.Ty, fl.lowerExpr(def, env))
			return
		}
	}
	env.Set(in.Res, in.Expr.Type(), fl.lowerExpr(in.Expr, env))
}

func (fl *funcLowering) lowerSwitch(in *cfg.Switch, env Env) {
	cond := fl.lowerExpr(in.Cond, env)
	cases := make([]ir.SwitchCase, len(in.Cases))
	for i, c := range in.Cases {
		lit, ok := c.Value.(*cfg.NumberLiteral)
		if !ok {
			fl.bin.fatalf(diag.ErrUnknownType, "switch case value must be a compile-time constant")
		}
		target := fl.branchTo(c.Block, env)
		cases[i] = ir.SwitchCase{Value: lit.Value, Target: target}
	}
	def := fl.branchTo(in.Default, env)
	fl.builder.CreateSwitch(cond, cases, def)
}

// lowerPushMemory implements §4.5's PushMemory contract: recompute the new
// length, realloc the vector to fit it, rebind the array variable to the
// realloc result before any further use, store the pushed value (or copy it
// by value for fixed-reference element types), and update len/cap.
func (fl *funcLowering) lowerPushMemory(in *cfg.PushMemory, env Env) {
	elemCfgTy := cfg.ArrayElem(in.Ty)
	elemIRTy := fl.bin.fieldType(elemCfgTy)

	_, arr, ok := env.Get(in.Array)
	if !ok {
		fl.bin.fatalf(diag.ErrUndefinedVariableRead, "PushMemory on unbound array variable v%d", in.Array)
	}

	length := fl.bin.VectorLen(fl.builder, arr)
	one := ir.ConstInt(ir.I32, 1)
	newLen := fl.builder.CreateBinOp(ir.OpAdd, length, one, "new.len")

	newArr := fl.realloc(arr, newLen, elemIRTy)
	env.Set(in.Array, in.Ty, newArr)

	elemPtr := fl.bin.VectorElemPtr(fl.builder, newArr, length, elemIRTy)
	value := fl.lowerExpr(in.Value, env)

	var result *ir.Value
	if cfg.IsFixedReferenceType(elemCfgTy) {
		result = elemPtr
		copied := fl.builder.CreateLoad(value, elemIRTy, "elem.copy")
		fl.builder.CreateStore(elemPtr, copied)
	} else {
		result = value
		fl.builder.CreateStore(elemPtr, value)
	}
	env.Set(in.Res, elemCfgTy, result)

	fl.builder.CreateStore(fl.bin.VectorLenPtr(fl.builder, newArr), newLen)
	fl.builder.CreateStore(fl.bin.VectorCapPtr(fl.builder, newArr), newLen)
}

// lowerPopMemory implements §4.5's PopMemory contract: fatal-assert on an
// empty vector, return the last element (by pointer for fixed-reference
// element types), then realloc down and update len/cap.
func (fl *funcLowering) lowerPopMemory(in *cfg.PopMemory, env Env) {
	elemCfgTy := cfg.ArrayElem(in.Ty)
	elemIRTy := fl.bin.fieldType(elemCfgTy)

	_, arr, ok := env.Get(in.Array)
	if !ok {
		fl.bin.fatalf(diag.ErrUndefinedVariableRead, "PopMemory on unbound array variable v%d", in.Array)
	}

	length := fl.bin.VectorLen(fl.builder, arr)
	zero := ir.ConstInt(ir.I32, 0)
	isEmpty := fl.builder.CreateICmp(ir.ICmpEq, length, zero, "is.empty")

	errBlk := fl.builder.CreateBlock("pop.empty")
	okBlk := fl.builder.CreateBlock("pop.ok")
	fl.builder.CreateCondBr(isEmpty, errBlk, okBlk)

	fl.builder.SetInsertPoint(errBlk)
	fl.bin.Runtime.AssertFailure(fl.builder, nil, nil)
	fl.builder.CreateUnreachable()

	fl.builder.SetInsertPoint(okBlk)
	one := ir.ConstInt(ir.I32, 1)
	newLen := fl.builder.CreateBinOp(ir.OpSub, length, one, "new.len")

	elemPtr := fl.bin.VectorElemPtr(fl.builder, arr, newLen, elemIRTy)
	var result *ir.Value
	if cfg.IsFixedReferenceType(elemCfgTy) {
		result = elemPtr
	} else {
		result = fl.builder.CreateLoad(elemPtr, elemIRTy, "popped")
	}
	env.Set(in.Res, elemCfgTy, result)

	newArr := fl.realloc(arr, newLen, elemIRTy)
	env.Set(in.Array, in.Ty, newArr)

	fl.builder.CreateStore(fl.bin.VectorLenPtr(fl.builder, newArr), newLen)
	fl.builder.CreateStore(fl.bin.VectorCapPtr(fl.builder, newArr), newLen)
}

// realloc computes the Vector's new byte size for newLen elements of
// elemIRTy (header + newLen*elemsize), widens it to the target's realloc
// size width, and calls through to the runtime, returning the result cast
// back to the vector's pointer type.
func (fl *funcLowering) realloc(vec *ir.Value, newLen *ir.Value, elemIRTy ir.Type) *ir.Value {
	vecStructTy := vec.Type.(*ir.PointerType).Elem
	headerSize := fl.bin.sizeOf(vecStructTy)
	elemSize := fl.bin.sizeOf(elemIRTy)

	sizeElems := fl.builder.CreateBinOp(ir.OpMul, newLen, ir.ConstInt(ir.I32, elemSize), "size.elems")
	sizeBytes := fl.builder.CreateBinOp(ir.OpAdd, sizeElems, ir.ConstInt(ir.I32, headerSize), "size.bytes")

	sizeArg := sizeBytes
	if fl.bin.Runtime.ReallocSizeType().Bits != 32 {
		sizeArg = fl.builder.CreateCast(ir.CastZExt, sizeBytes, fl.bin.Runtime.ReallocSizeType(), "size.ext")
	}

	i8ptr := fl.builder.CreateCast(ir.CastBitcast, vec, &ir.PointerType{Elem: ir.I8}, "vec.i8")
	newRaw := fl.bin.Runtime.Realloc(fl.builder, fl.fn, i8ptr, sizeArg)
	return fl.builder.CreateCast(ir.CastBitcast, newRaw, vec.Type, "vec.new")
}

// lowerAssertFailure ABI-encodes in.Expr as Error(string), prefixed with the
// well-known selector (§7), before handing the payload to the runtime's
// assertion-failure capability.
func (fl *funcLowering) lowerAssertFailure(in *cfg.AssertFailure, env Env) {
	if in.Expr == nil {
		fl.bin.Runtime.AssertFailure(fl.builder, nil, nil)
		return
	}
	val := fl.lowerExpr(in.Expr, env)
	selector := ir.ConstInt(ir.I32, int64(runtime.AssertFailureSelector))
	vals := []*ir.Value{selector, val}
	tys := []ir.Type{ir.I32, fl.bin.LLVMVarType(in.Expr.Type())}
	ptr, length := fl.bin.Runtime.AbiEncode(fl.builder, fl.fn, vals, tys)
	fl.bin.Runtime.AssertFailure(fl.builder, ptr, length)
}

// lowerCall implements all three Call{...} rows of §4.5: Static and Dynamic
// share the out-pointer/success-check shape; Builtin checks a ReturnCode too,
// but only for the subset of builtins the runtime marks Fallible (SPEC_FULL
// §4.5) — most builtins are plain value producers with no failure mode.
func (fl *funcLowering) lowerCall(in *cfg.Call, env Env) {
	args := make([]*ir.Value, len(in.Args))
	for i, a := range in.Args {
		args[i] = fl.lowerExpr(a, env)
	}

	if in.Kind == cfg.CallBuiltin {
		fl.lowerCallBuiltin(in, args, env)
		return
	}
	fl.lowerCallDynamicOrStatic(in, args, env)
}

func (fl *funcLowering) lowerCallBuiltin(in *cfg.Call, args []*ir.Value, env Env) {
	builtin, ok := fl.bin.Runtime.Builtin(in.Callee.Name)
	if !ok {
		fl.bin.fatalf(diag.ErrRuntimeCapabilityUnavailable, "builtin %q not provided by target runtime", in.Callee.Name)
		return
	}
	results := builtin.Emit(fl.builder, fl.fn, args)
	if builtin.Fallible {
		fl.branchOnSuccess(results[0])
		results = results[1:]
	}
	for i, res := range results {
		if i >= len(in.Res) {
			break
		}
		env.Set(in.Res[i], in.Callee.Returns[i], res)
	}
}

// lowerCallDynamicOrStatic handles Call{Static} and Call{Dynamic}: both
// allocate one out-pointer per return, call through (to a pre-declared
// function for Static, to a lowered callee expression for Dynamic), branch
// on the ReturnCode, propagate non-Success codes verbatim (§7), and on
// success load and bind each return value per the "store through an
// existing pointer destination" edge case (§4.5).
func (fl *funcLowering) lowerCallDynamicOrStatic(in *cfg.Call, args []*ir.Value, env Env) {
	var callee *ir.Function
	var returnTypes []cfg.Type

	switch in.Kind {
	case cfg.CallStatic:
		calleeDecl := fl.bin.Contract.CFGs[in.CFGNo]
		callee = fl.bin.FunctionFor(in.CFGNo)
		for _, r := range calleeDecl.Returns {
			returnTypes = append(returnTypes, r.Type)
		}
	case cfg.CallDynamic:
		fnTy, ok := in.Expr.Type().(*cfg.InternalFunctionTy)
		if !ok {
			fl.bin.fatalf(diag.ErrUnknownType, "Call{Dynamic} callee is not an InternalFunction type")
			return
		}
		returnTypes = fnTy.Returns
	}

	outPtrs := make([]*ir.Value, len(returnTypes))
	for i, rt := range returnTypes {
		outPtrs[i] = fl.builder.CreateAlloca(fl.bin.LLVMVarType(rt), fmt.Sprintf("ret.%d", i))
	}

	callArgs := append([]*ir.Value{}, args...)
	if fl.bin.Runtime.AmbientAccountsParam() {
		callArgs = append(callArgs, fl.accountsValue())
	}
	callArgs = append(callArgs, outPtrs...)

	var ret *ir.Value
	if in.Kind == cfg.CallDynamic {
		calleePtr := fl.lowerExpr(in.Expr, env)
		ret = fl.builder.CreateIndirectCall(calleePtr, callArgs, "call.result")
	} else {
		ret = fl.builder.CreateCall(callee, callArgs, "call.result")
	}

	fl.branchOnSuccess(ret)

	for i, rt := range returnTypes {
		val := fl.builder.CreateLoad(outPtrs[i], fl.bin.LLVMVarType(rt), "")
		fl.bindCallResult(env, in.Res[i], rt, val)
	}
}

// branchOnSuccess emits the success/bail branch shared by every internal
// call shape: on success, control falls through into a fresh block (left
// as the builder's insertion point) to bind return values; on any other
// code, the current function returns that exact code (§7's failure
// propagation).
func (fl *funcLowering) branchOnSuccess(ret *ir.Value) {
	successVal := ir.ConstInt(ir.I32, int64(cfg.Success))
	isSuccess := fl.builder.CreateICmp(ir.ICmpEq, ret, successVal, "call.success")

	okBlk := fl.builder.CreateBlock("call.ok")
	bailBlk := fl.builder.CreateBlock("call.bail")
	fl.builder.CreateCondBr(isSuccess, okBlk, bailBlk)

	fl.builder.SetInsertPoint(bailBlk)
	fl.builder.CreateRet(ret)

	fl.builder.SetInsertPoint(okBlk)
}

// bindCallResult applies the "result binding after call" edge case (§4.5):
// if the destination variable is already bound to a pointer and the return
// type is not itself reference-represented, store through that pointer;
// otherwise rebind the destination variable to the value directly.
func (fl *funcLowering) bindCallResult(env Env, resVar int, ty cfg.Type, val *ir.Value) {
	_, dest, ok := env.Get(resVar)
	if ok {
		if _, isPtr := dest.Type.(*ir.PointerType); isPtr && !cfg.IsReferenceType(ty) {
			fl.builder.CreateStore(dest, val)
			return
		}
	}
	env.Set(resVar, ty, val)
}

func (fl *funcLowering) accountsValue() *ir.Value {
	idx := len(fl.cfgFn.Params)
	return fl.fn.Params[idx]
}

// lowerConstructor deploys a new contract instance and binds its address.
// CreateContract returns an i8* pointing at the new address's raw bytes (or
// null on failure, per the runtime's contract); Success, when wanted, is
// derived from a null check rather than a separate ReturnCode, since
// contract deployment has no internal-call out-pointer convention of its
// own.
func (fl *funcLowering) lowerConstructor(in *cfg.Constructor, env Env) {
	args := runtime.ContractArgs{}
	if in.EncodedArgs != nil {
		encoded := fl.lowerExpr(in.EncodedArgs, env)
		if cfg.IsDynamicMemory(in.EncodedArgs.Type()) {
			args.EncodedArgs = fl.bin.VectorDataPtr(fl.builder, encoded)
			args.EncodedArgsLen = fl.bin.VectorLen(fl.builder, encoded)
		} else {
			args.EncodedArgs = encoded
		}
		if in.EncodedArgLen != nil {
			args.EncodedArgsLen = fl.lowerExpr(in.EncodedArgLen, env)
		}
	}
	if in.Value != nil {
		args.Value = fl.lowerExpr(in.Value, env)
	}
	if in.Gas != nil {
		args.Gas = fl.lowerExpr(in.Gas, env)
	}
	if in.Salt != nil {
		args.Salt = fl.lowerExpr(in.Salt, env)
	}
	if in.Space != nil {
		args.Space = fl.lowerExpr(in.Space, env)
	}

	addrPtr := fl.bin.Runtime.CreateContract(fl.builder, fl.fn, in.ContractNo, args)

	addrTy := &ir.ArrayType{Elem: ir.I8, Len: fl.bin.Runtime.AddressLength()}
	typed := fl.builder.CreateCast(ir.CastBitcast, addrPtr, &ir.PointerType{Elem: addrTy}, "new.addr.typed")
	loaded := fl.builder.CreateLoad(typed, addrTy, "new.addr")
	env.Set(in.Res, &cfg.AddressTy{}, loaded)

	if in.Success >= 0 {
		null := ir.ConstNull(addrPtr.Type.(*ir.PointerType))
		ok := fl.builder.CreateICmp(ir.ICmpNe, addrPtr, null, "deploy.ok")
		env.Set(in.Success, &cfg.BoolTy{}, ok)
	}
}

func (fl *funcLowering) lowerExternalCall(in *cfg.ExternalCall, env Env) {
	a := runtime.ExternalCallArgs{CallType: in.CallType}

	payload := fl.lowerExpr(in.Payload, env)
	if cfg.IsDynamicMemory(in.Payload.Type()) {
		a.Payload = fl.bin.VectorDataPtr(fl.builder, payload)
		a.PayloadLen = fl.bin.VectorLen(fl.builder, payload)
	} else {
		a.Payload = payload
		a.PayloadLen = ir.ConstInt(ir.I32, fl.bin.sizeOf(fl.bin.LLVMType(in.Payload.Type())))
	}

	if in.Address != nil {
		addrVal := fl.lowerExpr(in.Address, env)
		slot := fl.builder.CreateAlloca(&ir.ArrayType{Elem: ir.I8, Len: fl.bin.Runtime.AddressLength()}, "ext.addr")
		fl.builder.CreateStore(slot, addrVal)
		a.Address = slot
	}
	if in.Value != nil {
		a.Value = fl.lowerExpr(in.Value, env)
	}
	if in.Gas != nil {
		a.Gas = fl.lowerExpr(in.Gas, env)
	}
	if in.Accounts != nil {
		accVal := fl.lowerExpr(in.Accounts, env)
		a.Accounts = accVal
	}
	if in.Seeds != nil {
		a.Seeds = fl.lowerExpr(in.Seeds, env)
	}

	outcome := fl.bin.Runtime.ExternalCall(fl.builder, fl.fn, a)
	if in.Success >= 0 {
		successVal := ir.ConstInt(ir.I32, int64(cfg.Success))
		isSuccess := fl.builder.CreateICmp(ir.ICmpEq, outcome, successVal, "ext.success")
		env.Set(in.Success, &cfg.BoolTy{}, isSuccess)
	}
}

func (fl *funcLowering) lowerValueTransfer(in *cfg.ValueTransfer, env Env) {
	addrVal := fl.lowerExpr(in.Address, env)
	value := fl.lowerExpr(in.Value, env)

	slot := fl.builder.CreateAlloca(&ir.ArrayType{Elem: ir.I8, Len: fl.bin.Runtime.AddressLength()}, "xfer.addr")
	fl.builder.CreateStore(slot, addrVal)

	outcome := fl.bin.Runtime.ValueTransfer(fl.builder, fl.fn, slot, value)
	if in.Success >= 0 {
		successVal := ir.ConstInt(ir.I32, int64(cfg.Success))
		isSuccess := fl.builder.CreateICmp(ir.ICmpEq, outcome, successVal, "xfer.success")
		env.Set(in.Success, &cfg.BoolTy{}, isSuccess)
	}
}

// lowerAbiDecode implements §4.5's selector-checked decode: if a selector
// is given, it requires more than 4 bytes of input, compares the leading
// 4-byte word (byte-swapped per target endianness, §8.6), and on either
// failure jumps to the caller-supplied exception block before the data
// pointer/length are ever advanced.
func (fl *funcLowering) lowerAbiDecode(in *cfg.AbiDecode, env Env) {
	v := fl.lowerExpr(in.Data, env)

	var data, dataLen *ir.Value
	if cfg.IsDynamicMemory(in.Data.Type()) {
		data = fl.bin.VectorDataPtr(fl.builder, v)
		dataLen = fl.bin.VectorLen(fl.builder, v)
	} else {
		data = v
		dataLen = ir.ConstInt(ir.I32, fl.bin.sizeOf(fl.bin.LLVMType(in.Data.Type())))
	}
	if in.DataLen != nil {
		dataLen = fl.lowerExpr(in.DataLen, env)
	}

	if in.Selector != nil {
		exceptionBlk := fl.branchTo(in.ExceptionBlock, env)

		hasSelector := fl.builder.CreateICmp(ir.ICmpUgt, dataLen, ir.ConstInt(ir.I32, 4), "has.selector")
		ok1 := fl.builder.CreateBlock("abi.ok1")
		fl.builder.CreateCondBr(hasSelector, ok1, exceptionBlk)

		fl.builder.SetInsertPoint(ok1)
		selTy := &ir.PointerType{Elem: ir.I32}
		selPtr := fl.builder.CreateCast(ir.CastBitcast, data, selTy, "sel.ptr")
		loaded := fl.builder.CreateLoad(selPtr, ir.I32, "sel.loaded")

		matches := fl.bin.Runtime.CompareSelector(fl.builder, loaded, *in.Selector)
		ok2 := fl.builder.CreateBlock("abi.ok2")
		// A second edge into the exception block needs its own φ wiring;
		// branchTo returns the same cached block but records this
		// predecessor too.
		exceptionBlk = fl.branchTo(in.ExceptionBlock, env)
		fl.builder.CreateCondBr(matches, ok2, exceptionBlk)

		fl.builder.SetInsertPoint(ok2)
		dataLen = fl.builder.CreateBinOp(ir.OpSub, dataLen, ir.ConstInt(ir.I32, 4), "data.len")
		data = fl.builder.CreateArrayGEP(data, ir.ConstInt(ir.I32, 4), ir.I8, "data.adv")
	}

	types := make([]ir.Type, len(in.Tys))
	for i, t := range in.Tys {
		types[i] = fl.bin.LLVMVarType(t)
	}
	results := fl.bin.Runtime.AbiDecode(fl.builder, fl.fn, data, dataLen, types)
	for i, r := range results {
		env.Set(in.Res[i], in.Tys[i], r)
	}
}

func (fl *funcLowering) lowerEmitEvent(in *cfg.EmitEvent, env Env) {
	topics := make([]*ir.Value, len(in.Topics))
	for i, t := range in.Topics {
		topics[i] = fl.lowerExpr(t, env)
	}
	data := make([]*ir.Value, len(in.Data))
	for i, d := range in.Data {
		data[i] = fl.lowerExpr(d, env)
	}
	fl.bin.Runtime.EmitEvent(fl.builder, fl.fn, in.EventNo, topics, data)
}

// lowerWriteBuffer writes a value into a dynamic buffer at a byte offset,
// using the __leNtobeN intrinsic for multi-byte Bytes(n) values (these must
// be byte-order-converted on write, §4.5) and a direct typed store
// otherwise.
func (fl *funcLowering) lowerWriteBuffer(in *cfg.WriteBuffer, env Env) {
	buf := fl.lowerExpr(in.Buf, env)
	data := fl.bin.VectorDataPtr(fl.builder, buf)
	offset := fl.lowerExpr(in.Offset, env)
	value := fl.lowerExpr(in.Value, env)

	start := fl.builder.CreateArrayGEP(data, offset, ir.I8, "wb.start")

	if fb, ok := in.Value.Type().(*cfg.FixedBytesTy); ok && fb.N > 1 {
		slot := fl.builder.CreateAlloca(value.Type, fmt.Sprintf("wb.bytes%d", fb.N))
		fl.builder.CreateStore(slot, value)
		leToBe := fl.bin.leNtobeN()
		slotI8 := fl.builder.CreateCast(ir.CastBitcast, slot, &ir.PointerType{Elem: ir.I8}, "wb.src")
		n := ir.ConstInt(ir.I32, int64(fb.N))
		fl.builder.CreateCall(leToBe, []*ir.Value{slotI8, start, n}, "")
		return
	}

	typed := fl.builder.CreateCast(ir.CastBitcast, start, &ir.PointerType{Elem: value.Type}, "wb.dst")
	fl.builder.CreateStore(typed, value)
}

// lowerMemCopy computes source/destination pointers, honoring the dynamic-
// memory rule (§4.5: a vector-backed operand contributes its data pointer,
// not its own address). A literal byte count lowers to the intrinsic
// memcpy; a run-time count calls __memcpy.
func (fl *funcLowering) lowerMemCopy(in *cfg.MemCopy, env Env) {
	from := fl.memCopyOperand(in.From, env)
	to := fl.memCopyOperand(in.To, env)

	if lit, ok := in.Bytes.(*cfg.NumberLiteral); ok {
		fl.builder.CreateMemCpy(to, from, lit.Value)
		return
	}
	n := fl.lowerExpr(in.Bytes, env)
	fl.builder.CreateCall(fl.bin.memcpyIntrinsic(), []*ir.Value{to, from, n}, "")
}

func (fl *funcLowering) memCopyOperand(e cfg.Expression, env Env) *ir.Value {
	val := fl.lowerExpr(e, env)
	if cfg.IsDynamicMemory(e.Type()) {
		return fl.bin.VectorDataPtr(fl.builder, val)
	}
	return val
}
