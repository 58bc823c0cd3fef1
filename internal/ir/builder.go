package ir

import "fmt"

// Builder emits instructions at a current insertion point, mirroring the
// teacher's AST-to-IR builder shape (a cursor plus Create* methods) but
// working at the level of basic blocks and instructions rather than source
// expressions.
type Builder struct {
	fn    *Function
	block *BasicBlock

	allocaBlock  *BasicBlock // entry block, used when entryAllocas is set
	entryAllocas bool
}

// NewBuilder creates a builder for fn. entryAllocas selects the Solana
// alloca placement policy (§4.6): when true, every CreateAlloca call
// inserts into the function's entry block regardless of the current
// insertion point, instead of at the current cursor.
func NewBuilder(fn *Function, entryAllocas bool) *Builder {
	return &Builder{fn: fn, entryAllocas: entryAllocas}
}

// SetInsertPoint moves the cursor to the end of blk.
func (b *Builder) SetInsertPoint(blk *BasicBlock) {
	b.block = blk
	if b.allocaBlock == nil {
		b.allocaBlock = blk
	}
}

// GetInsertBlock returns the block instructions are currently appended to.
func (b *Builder) GetInsertBlock() *BasicBlock { return b.block }

func (b *Builder) value(name string, ty Type) *Value { return b.fn.NewValue(name, ty) }

// CreateAlloca reserves stack space for a value of type ty. Per the
// entry-block alloca policy, the instruction is inserted at the head of the
// first block the builder was positioned in (the function's entry block)
// when entryAllocas is set, even though the resulting pointer
// is usable (and SSA-valid) from the current block onward.
func (b *Builder) CreateAlloca(ty Type, name string) *Value {
	res := b.value(name, &PointerType{Elem: ty})
	instr := &Alloca{Res: res, AllocType: ty}
	if b.entryAllocas && b.allocaBlock != nil {
		b.allocaBlock.Instructions = append([]Instruction{instr}, b.allocaBlock.Instructions...)
	} else {
		b.block.Append(instr)
	}
	return res
}

// CreateLoad reads the value at ptr.
func (b *Builder) CreateLoad(ptr *Value, resultType Type, name string) *Value {
	res := b.value(name, resultType)
	b.block.Append(&Load{Res: res, Ptr: ptr})
	return res
}

// CreateStore writes val to ptr.
func (b *Builder) CreateStore(ptr, val *Value) {
	b.block.Append(&Store{Ptr: ptr, Val: val})
}

// CreateGEP computes the address of struct field fieldIndex of base (and,
// if idx is non-nil, additionally indexes the resulting array by idx).
func (b *Builder) CreateGEP(base *Value, fieldIndex int, idx *Value, elemType Type, name string) *Value {
	res := b.value(name, &PointerType{Elem: elemType})
	b.block.Append(&GEP{Res: res, Base: base, FieldIndex: fieldIndex, Index: idx})
	return res
}

// CreateArrayGEP computes the address of element idx of a raw array
// pointer base (no struct field to index through first).
func (b *Builder) CreateArrayGEP(base *Value, idx *Value, elemType Type, name string) *Value {
	res := b.value(name, &PointerType{Elem: elemType})
	b.block.Append(&ArrayGEP{Res: res, Base: base, Index: idx})
	return res
}

// CreateICmp compares lhs and rhs, yielding an i1.
func (b *Builder) CreateICmp(pred ICmpPredicate, lhs, rhs *Value, name string) *Value {
	res := b.value(name, I1)
	b.block.Append(&ICmp{Res: res, Pred: pred, LHS: lhs, RHS: rhs})
	return res
}

// CreateBinOp emits an unchecked integer binary operation.
func (b *Builder) CreateBinOp(op BinOpKind, lhs, rhs *Value, name string) *Value {
	res := b.value(name, lhs.Type)
	b.block.Append(&IntBinOp{Res: res, Op: op, LHS: lhs, RHS: rhs})
	return res
}

// CreateCast converts val to type to.
func (b *Builder) CreateCast(op CastOp, val *Value, to Type, name string) *Value {
	res := b.value(name, to)
	b.block.Append(&Cast{Res: res, Op: op, Val: val, To: to})
	return res
}

// CreateCall invokes callee. For void-returning functions the returned
// *Value is nil and name is unused.
func (b *Builder) CreateCall(callee *Function, args []*Value, name string) *Value {
	var res *Value
	if _, void := callee.RetType.(*VoidType); !void {
		res = b.value(name, callee.RetType)
	}
	b.block.Append(&Call{Res: res, Callee: callee, Args: args})
	return res
}

// CreateIndirectCall invokes a function-pointer value (callee's type is a
// PointerType to a FunctionType), yielding its i32 ReturnCode.
func (b *Builder) CreateIndirectCall(callee *Value, args []*Value, name string) *Value {
	res := b.value(name, I32)
	b.block.Append(&IndirectCall{Res: res, Callee: callee, Args: args})
	return res
}

// CreateMemCpy copies n bytes from src to dst via the constant-length
// memcpy intrinsic.
func (b *Builder) CreateMemCpy(dst, src *Value, n int64) {
	b.block.Append(&MemCpy{Dst: dst, Src: src, Len: n})
}

// CreatePhi creates a phi-node with no incoming edges yet and appends it to
// the current block; callers wire edges in with Phi.AddIncoming as each
// predecessor is translated (§4.3).
func (b *Builder) CreatePhi(ty Type, name string) *Phi {
	p := &Phi{Res: b.value(name, ty)}
	b.block.AddPhi(p)
	return p
}

// CreateBr terminates the current block with an unconditional branch.
func (b *Builder) CreateBr(target *BasicBlock) { b.block.SetTerminator(&Br{Target: target}) }

// CreateCondBr terminates the current block with a conditional branch.
func (b *Builder) CreateCondBr(cond *Value, t, f *BasicBlock) {
	b.block.SetTerminator(&CondBr{Cond: cond, True: t, False: f})
}

// CreateSwitch terminates the current block with a dense multi-way branch.
func (b *Builder) CreateSwitch(cond *Value, cases []SwitchCase, def *BasicBlock) {
	b.block.SetTerminator(&Switch{Cond: cond, Cases: cases, Default: def})
}

// CreateRet terminates the current block by returning val (nil for void).
func (b *Builder) CreateRet(val *Value) { b.block.SetTerminator(&Ret{Val: val}) }

// CreateUnreachable terminates the current block with `unreachable`.
func (b *Builder) CreateUnreachable() { b.block.SetTerminator(&Unreachable{}) }

// CreateBlock allocates a new, empty basic block in the builder's function
// and gives it a unique label derived from hint.
func (b *Builder) CreateBlock(hint string) *BasicBlock {
	label := fmt.Sprintf("%s.%d", hint, len(b.fn.Blocks))
	blk := &BasicBlock{Label: label}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}
