package ir

import (
	"fmt"
	"strings"
)

// Alloca reserves stack space for one value of AllocType, yielding a
// pointer. On Solana all allocas are hoisted to the function's entry block
// (§4.6's alloca placement policy); elsewhere they are created at the
// current insertion point.
type Alloca struct {
	Res       *Value
	AllocType Type
}

func (i *Alloca) Result() *Value { return i.Res }
func (i *Alloca) String() string {
	return fmt.Sprintf("%s = alloca %s", i.Res.Name, i.AllocType)
}

// Load reads the value pointed to by Ptr.
type Load struct {
	Res *Value
	Ptr *Value
}

func (i *Load) Result() *Value { return i.Res }
func (i *Load) String() string {
	return fmt.Sprintf("%s = load %s, %s %s", i.Res.Name, i.Res.Type, i.Ptr.Type, i.Ptr.Name)
}

// Store writes Val to the address Ptr.
type Store struct {
	Ptr, Val *Value
}

func (i *Store) Result() *Value { return nil }
func (i *Store) String() string {
	return fmt.Sprintf("store %s %s, %s %s", i.Val.Type, i.Val.Name, i.Ptr.Type, i.Ptr.Name)
}

// GEP (GetElementPtr) computes the address of a field or array element
// without dereferencing. FieldIndex selects a struct field (Vector len=0,
// cap=1, data=2); Index, if non-nil, additionally indexes into an array.
type GEP struct {
	Res        *Value
	Base       *Value
	FieldIndex int
	Index      *Value // nil when indexing only by FieldIndex
}

func (i *GEP) Result() *Value { return i.Res }
func (i *GEP) String() string {
	if i.Index != nil {
		return fmt.Sprintf("%s = getelementptr %s, %s %s, i32 0, i32 %d, %s %s",
			i.Res.Name, i.Base.Type, i.Base.Type, i.Base.Name, i.FieldIndex, i.Index.Type, i.Index.Name)
	}
	return fmt.Sprintf("%s = getelementptr %s, %s %s, i32 0, i32 %d",
		i.Res.Name, i.Base.Type, i.Base.Type, i.Base.Name, i.FieldIndex)
}

// ArrayGEP computes the address of element Index of Base, where Base points
// directly at an array (rather than at a struct whose field is an array, as
// GEP assumes). Used for fixed-size array indexing, where there is no
// Vector header to index through.
type ArrayGEP struct {
	Res   *Value
	Base  *Value
	Index *Value
}

func (i *ArrayGEP) Result() *Value { return i.Res }
func (i *ArrayGEP) String() string {
	return fmt.Sprintf("%s = getelementptr %s, %s %s, i32 0, %s %s",
		i.Res.Name, i.Base.Type, i.Base.Type, i.Base.Name, i.Index.Type, i.Index.Name)
}

// IndirectCall invokes a callee known only as a runtime function-pointer
// value (cfg.InternalFunctionTy, §4.1), rather than a statically known
// *Function. Always yields an i32 ReturnCode per the calling convention.
type IndirectCall struct {
	Res    *Value
	Callee *Value
	Args   []*Value
}

func (i *IndirectCall) Result() *Value { return i.Res }
func (i *IndirectCall) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.Type.String() + " " + a.Name
	}
	return fmt.Sprintf("%s = call %s %s(%s)", i.Res.Name, i.Callee.Type, i.Callee.Name, strings.Join(args, ", "))
}

// ICmpPredicate enumerates the integer comparison predicates.
type ICmpPredicate int

const (
	ICmpEq ICmpPredicate = iota
	ICmpNe
	ICmpSlt
	ICmpSle
	ICmpSgt
	ICmpSge
	ICmpUlt
	ICmpUle
	ICmpUgt
	ICmpUge
)

func (p ICmpPredicate) String() string {
	return [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}[p]
}

// ICmp compares two integers, yielding an i1.
type ICmp struct {
	Res      *Value
	Pred     ICmpPredicate
	LHS, RHS *Value
}

func (i *ICmp) Result() *Value { return i.Res }
func (i *ICmp) String() string {
	return fmt.Sprintf("%s = icmp %s %s %s, %s", i.Res.Name, i.Pred, i.LHS.Type, i.LHS.Name, i.RHS.Name)
}

// BinOpKind enumerates the integer binary opcodes.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
)

func (k BinOpKind) String() string {
	return [...]string{"add", "sub", "mul", "udiv", "sdiv", "urem", "srem", "and", "or", "xor", "shl", "lshr", "ashr"}[k]
}

// IntBinOp is an ordinary, unchecked integer binary operation. Overflow
// checking is never inline here: checked operators lower to a call to the
// runtime-provided checked-arithmetic entry point (internal/runtime)
// instead, which does its own branching, keeping expression lowering
// branch-free.
type IntBinOp struct {
	Res      *Value
	Op       BinOpKind
	LHS, RHS *Value
}

func (i *IntBinOp) Result() *Value { return i.Res }
func (i *IntBinOp) String() string {
	return fmt.Sprintf("%s = %s %s %s, %s", i.Res.Name, i.Op, i.LHS.Type, i.LHS.Name, i.RHS.Name)
}

// CastOp enumerates integer/pointer conversion opcodes.
type CastOp int

const (
	CastZExt CastOp = iota
	CastSExt
	CastTrunc
	CastBitcast
	CastPtrToInt
	CastIntToPtr
)

func (c CastOp) String() string {
	return [...]string{"zext", "sext", "trunc", "bitcast", "ptrtoint", "inttoptr"}[c]
}

// Cast converts Val to type To.
type Cast struct {
	Res *Value
	Op  CastOp
	Val *Value
	To  Type
}

func (i *Cast) Result() *Value { return i.Res }
func (i *Cast) String() string {
	return fmt.Sprintf("%s = %s %s %s to %s", i.Res.Name, i.Op, i.Val.Type, i.Val.Name, i.To)
}

// MemCpy is the constant-length intrinsic memcpy form (§4.5's MemCopy row:
// a literal byte count lowers to this; run-time counts call __memcpy).
type MemCpy struct {
	Dst, Src *Value
	Len      int64
}

func (i *MemCpy) Result() *Value { return nil }
func (i *MemCpy) String() string {
	return fmt.Sprintf("call void @llvm.memcpy.p0i8.p0i8.i32(i8* %s, i8* %s, i32 %d, i1 false)",
		i.Dst.Name, i.Src.Name, i.Len)
}

// Call invokes Callee with Args. Res is nil for void calls.
type Call struct {
	Res    *Value
	Callee *Function
	Args   []*Value
}

func (i *Call) Result() *Value { return i.Res }
func (i *Call) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.Type.String() + " " + a.Name
	}
	prefix := "call "
	if i.Res != nil {
		prefix = i.Res.Name + " = call "
	}
	return fmt.Sprintf("%s%s @%s(%s)", prefix, i.Callee.RetType, i.Callee.Name, strings.Join(args, ", "))
}
