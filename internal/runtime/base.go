package runtime

import (
	"fmt"

	"ssagen/internal/cfg"
	"ssagen/internal/ir"
)

// base implements everything shared between Substrate and Solana: storage
// access, the Vector realloc helper, print/assert, event emission and
// checked arithmetic all delegate to intrinsic calls exactly as the
// original instruction lowerer this is grounded on does ("target.xxx(...)"
// for every one of these operations). Only the five axes §6 calls out
// (address length, realloc size width, selector endianness, ambient
// accounts parameter, alloca placement) are overridden by the concrete
// target types.
type base struct {
	intr         *Intrinsics
	reallocWidth *ir.IntType
}

// Module returns the module this runtime's intrinsics were declared into
// (shared by both concrete targets via embedding).
func (r *base) Module() *ir.Module { return r.intr.mod }

func (r *base) storageFn(op string, ty ir.Type) *ir.Function {
	name := fmt.Sprintf("%s$%s", op, ty)
	slotTy := ir.I64
	switch op {
	case "storage_load":
		return r.intr.Declare(name, []ir.Type{slotTy}, ty)
	case "storage_clear":
		return r.intr.Declare(name, []ir.Type{slotTy}, &ir.VoidType{})
	default:
		return r.intr.Declare(name, []ir.Type{slotTy, ty}, &ir.VoidType{})
	}
}

func (r *base) StorageLoad(b *ir.Builder, f *ir.Function, slot *ir.Value, ty ir.Type) *ir.Value {
	fn := r.storageFn("storage_load", ty)
	return b.CreateCall(fn, []*ir.Value{slot}, "")
}

func (r *base) StorageStore(b *ir.Builder, slot, val *ir.Value) {
	fn := r.storageFn("storage_store", val.Type)
	b.CreateCall(fn, []*ir.Value{slot, val}, "")
}

func (r *base) StorageClear(b *ir.Builder, slot *ir.Value) {
	fn := r.intr.Declare("storage_clear", []ir.Type{ir.I64}, &ir.VoidType{})
	b.CreateCall(fn, []*ir.Value{slot}, "")
}

func (r *base) StorageSetBytesSubscript(b *ir.Builder, slot, offset, val *ir.Value) {
	fn := r.intr.Declare("storage_set_bytes_subscript", []ir.Type{ir.I64, ir.I32, ir.I8}, &ir.VoidType{})
	b.CreateCall(fn, []*ir.Value{slot, offset, val}, "")
}

func (r *base) StoragePush(b *ir.Builder, f *ir.Function, slot *ir.Value, elemTy ir.Type) *ir.Value {
	fn := r.intr.Declare(fmt.Sprintf("storage_push$%s", elemTy), []ir.Type{ir.I64}, &ir.PointerType{Elem: elemTy})
	return b.CreateCall(fn, []*ir.Value{slot}, "")
}

func (r *base) StoragePop(b *ir.Builder, f *ir.Function, slot *ir.Value, elemTy ir.Type) *ir.Value {
	fn := r.intr.Declare(fmt.Sprintf("storage_pop$%s", elemTy), []ir.Type{ir.I64}, elemTy)
	return b.CreateCall(fn, []*ir.Value{slot}, "")
}

func (r *base) Realloc(b *ir.Builder, f *ir.Function, ptr *ir.Value, newSize *ir.Value) *ir.Value {
	fn := r.intr.Declare("__realloc", []ir.Type{&ir.PointerType{Elem: ir.I8}, r.reallocWidth}, &ir.PointerType{Elem: ir.I8})
	return b.CreateCall(fn, []*ir.Value{ptr, newSize}, "vec.ptr")
}

func (r *base) AbiEncode(b *ir.Builder, f *ir.Function, vals []*ir.Value, tys []ir.Type) (*ir.Value, *ir.Value) {
	fn := r.intr.Declare("abi_encode", nil, &ir.PointerType{Elem: ir.I8})
	ptr := b.CreateCall(fn, vals, "enc.ptr")
	lenFn := r.intr.Declare("abi_encoded_len", nil, ir.I32)
	length := b.CreateCall(lenFn, vals, "enc.len")
	return ptr, length
}

func (r *base) AbiDecode(b *ir.Builder, f *ir.Function, data, dataLen *ir.Value, tys []ir.Type) []*ir.Value {
	out := make([]*ir.Value, len(tys))
	for i, ty := range tys {
		fn := r.intr.Declare(fmt.Sprintf("abi_decode$%d$%s", i, ty), []ir.Type{&ir.PointerType{Elem: ir.I8}, ir.I32}, ty)
		out[i] = b.CreateCall(fn, []*ir.Value{data, dataLen}, "")
	}
	return out
}

func (r *base) Print(b *ir.Builder, ptr, length *ir.Value) {
	fn := r.intr.Declare("print", []ir.Type{&ir.PointerType{Elem: ir.I8}, ir.I32}, &ir.VoidType{})
	b.CreateCall(fn, []*ir.Value{ptr, length}, "")
}

// AssertFailureSelector is keccak256("Error(string)")[:4] (§7's
// well-known Error(string) selector).
const AssertFailureSelector uint32 = 0x08c379a0

func (r *base) AssertFailure(b *ir.Builder, ptr, length *ir.Value) {
	fn := r.intr.Declare("assert_failure", []ir.Type{&ir.PointerType{Elem: ir.I8}, ir.I32}, &ir.VoidType{})
	if ptr == nil {
		zero := &ir.Value{Name: "null", Type: &ir.PointerType{Elem: ir.I8}}
		zeroLen := &ir.Value{Name: "0", Type: ir.I32}
		b.CreateCall(fn, []*ir.Value{zero, zeroLen}, "")
		return
	}
	b.CreateCall(fn, []*ir.Value{ptr, length}, "")
}

func (r *base) CreateContract(b *ir.Builder, f *ir.Function, contractNo int, args ContractArgs) *ir.Value {
	fn := r.intr.Declare("create_contract", nil, &ir.PointerType{Elem: ir.I8})
	callArgs := nonNil(args.EncodedArgs, args.EncodedArgsLen, args.Value, args.Gas, args.Salt, args.Space)
	return b.CreateCall(fn, callArgs, "new.addr")
}

func (r *base) ExternalCall(b *ir.Builder, f *ir.Function, args ExternalCallArgs) *ir.Value {
	fn := r.intr.Declare("external_call", nil, ir.I32)
	callType := &ir.Value{Name: fmt.Sprintf("%d", args.CallType), Type: ir.I32}
	callArgs := nonNil(args.Address, args.Payload, args.PayloadLen, args.Value, args.Gas, callType, args.Accounts, args.Seeds)
	return b.CreateCall(fn, callArgs, "call.result")
}

func (r *base) ValueTransfer(b *ir.Builder, f *ir.Function, address, value *ir.Value) *ir.Value {
	fn := r.intr.Declare("value_transfer", []ir.Type{&ir.PointerType{Elem: ir.I8}, ir.I64}, ir.I32)
	return b.CreateCall(fn, []*ir.Value{address, value}, "transfer.result")
}

func (r *base) EmitEvent(b *ir.Builder, f *ir.Function, eventNo int, topics, data []*ir.Value) {
	fn := r.intr.Declare("emit_event", nil, &ir.VoidType{})
	b.CreateCall(fn, append(topics, data...), "")
}

func (r *base) ReturnABIData(b *ir.Builder, ptr, length *ir.Value) {
	fn := r.intr.Declare("return_data", []ir.Type{&ir.PointerType{Elem: ir.I8}, ir.I32}, &ir.VoidType{})
	b.CreateCall(fn, []*ir.Value{ptr, length}, "")
}

func (r *base) SelfDestruct(b *ir.Builder, recipient *ir.Value) {
	fn := r.intr.Declare("self_destruct", []ir.Type{&ir.PointerType{Elem: ir.I8}}, &ir.VoidType{})
	b.CreateCall(fn, []*ir.Value{recipient}, "")
}

// CheckedArith lowers to a call to a per-operator checked-arithmetic
// intrinsic; the branch to the fatal assertion path on overflow or
// division-by-zero happens inside that intrinsic, never as a block the
// instruction lowerer itself creates (SPEC_FULL §4.2).
func (r *base) CheckedArith(b *ir.Builder, f *ir.Function, op cfg.BinOp, lhs, rhs *ir.Value) *ir.Value {
	fn := r.intr.Declare(fmt.Sprintf("checked_%s$%s", checkedArithName(op), lhs.Type), []ir.Type{lhs.Type, rhs.Type}, lhs.Type)
	return b.CreateCall(fn, []*ir.Value{lhs, rhs}, "")
}

func checkedArithName(op cfg.BinOp) string {
	switch op {
	case cfg.OpAdd:
		return "add"
	case cfg.OpSub:
		return "sub"
	case cfg.OpMul:
		return "mul"
	case cfg.OpDiv:
		return "div"
	case cfg.OpMod:
		return "mod"
	default:
		return "unknown"
	}
}

func nonNil(vals ...*ir.Value) []*ir.Value {
	out := make([]*ir.Value, 0, len(vals))
	for _, v := range vals {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
