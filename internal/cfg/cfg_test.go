package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	ns := &Namespace{Target: Substrate, AddressLength: 20, SlotWidth: 64}
	cases := []struct {
		name string
		ty   Type
		want Expression
	}{
		{"int", &IntTy{Bits: 256}, &NumberLiteral{Ty: &IntTy{Bits: 256}, Value: 0}},
		{"bool", &BoolTy{}, &BoolLiteral{Value: false}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := ns.Default(c.ty)
			require.True(t, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestDefaultAddressIsAsWideAsTheTargetAddress(t *testing.T) {
	substrate := &Namespace{Target: Substrate, AddressLength: 20}
	solana := &Namespace{Target: Solana, AddressLength: 32}

	def, ok := substrate.Default(&AddressTy{})
	require.True(t, ok)
	assert.Len(t, def.(*BytesLiteral).Value, 20)

	def, ok = solana.Default(&AddressTy{})
	require.True(t, ok)
	assert.Len(t, def.(*BytesLiteral).Value, 32)
}

func TestDefaultHasNoCaseForReferenceTypes(t *testing.T) {
	ns := &Namespace{Target: Substrate, AddressLength: 20}
	_, ok := ns.Default(&ArrayTy{Elem: &IntTy{Bits: 8}})
	assert.False(t, ok)
}

func TestIsFixedReferenceType(t *testing.T) {
	assert.True(t, IsFixedReferenceType(&StructTy{Name: "Pair"}))
	assert.True(t, IsFixedReferenceType(&FixedArrayTy{Elem: &IntTy{Bits: 8}, Len: 4}))
	assert.False(t, IsFixedReferenceType(&ArrayTy{Elem: &IntTy{Bits: 8}}))
	assert.False(t, IsFixedReferenceType(&IntTy{Bits: 8}))
}

func TestIsDynamicMemory(t *testing.T) {
	assert.True(t, IsDynamicMemory(&StringTy{}))
	assert.True(t, IsDynamicMemory(&DynamicBytesTy{}))
	assert.True(t, IsDynamicMemory(&ArrayTy{Elem: &BoolTy{}}))
	assert.False(t, IsDynamicMemory(&FixedArrayTy{Elem: &BoolTy{}, Len: 2}))
}

func TestCFGByName(t *testing.T) {
	c := &Contract{
		Name: "Token",
		CFGs: []*ControlFlowGraph{
			{Name: "transfer"},
			{Name: "balanceOf"},
		},
	}
	idx, f := c.CFGByName("balanceOf")
	require.NotNil(t, f)
	assert.Equal(t, 1, idx)

	idx, f = c.CFGByName("missing")
	assert.Equal(t, -1, idx)
	assert.Nil(t, f)
}

func TestBinOpIsCheckedArith(t *testing.T) {
	assert.True(t, OpAdd.IsCheckedArith())
	assert.True(t, OpMod.IsCheckedArith())
	assert.False(t, OpEq.IsCheckedArith())
	assert.False(t, OpBoolAnd.IsCheckedArith())
}

// These two blank declarations exist purely so the compiler verifies every
// variant still implements its sum-type interface, catching an accidental
// dropped method as a compile error rather than a silent gap at dispatch.
var _ = []Expression{
	&NumberLiteral{}, &BoolLiteral{}, &BytesLiteral{}, &Variable{},
	&BinaryExpr{}, &UnaryExpr{}, &CastExpr{}, &Subscript{},
	&StructMember{}, &BuiltinExpr{}, &Undefined{},
}

var _ = []Instr{
	&Nop{}, &Return{}, &Set{}, &Store{}, &Branch{}, &BranchCond{}, &Switch{},
	&LoadStorage{}, &ClearStorage{}, &SetStorage{}, &SetStorageBytes{},
	&PushStorage{}, &PopStorage{}, &PushMemory{}, &PopMemory{},
	&AssertFailure{}, &Print{}, &Call{}, &Constructor{}, &ExternalCall{},
	&ValueTransfer{}, &AbiDecode{}, &ReturnData{}, &ReturnCodeInstr{},
	&EmitEvent{}, &WriteBuffer{}, &MemCopy{}, &SelfDestruct{}, &Unreachable{},
}
