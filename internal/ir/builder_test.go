package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAllocaAndStore(t *testing.T) {
	fn := &Function{Name: "f", RetType: I32}
	entry := &BasicBlock{Label: "entry"}
	fn.Blocks = append(fn.Blocks, entry)

	b := NewBuilder(fn, false)
	b.SetInsertPoint(entry)
	ptr := b.CreateAlloca(I32, "x.addr")
	b.CreateStore(ptr, fn.NewValue("c", I32))
	b.CreateRet(nil)

	require.Len(t, entry.Instructions, 2)
	assert.IsType(t, &Alloca{}, entry.Instructions[0])
	assert.IsType(t, &Store{}, entry.Instructions[1])
	assert.IsType(t, &Ret{}, entry.Terminator)
}

func TestBuilderEntryAllocaPolicy(t *testing.T) {
	fn := &Function{Name: "f", RetType: &VoidType{}}
	entry := &BasicBlock{Label: "entry"}
	body := &BasicBlock{Label: "body"}
	fn.Blocks = append(fn.Blocks, entry, body)

	b := NewBuilder(fn, true)
	b.SetInsertPoint(entry)
	b.SetInsertPoint(body)
	b.CreateAlloca(I64, "tmp")

	// Entry-alloca policy (Solana, §4.6) places the alloca in the entry
	// block even though the insertion point had already moved to body.
	require.Len(t, entry.Instructions, 1)
	assert.IsType(t, &Alloca{}, entry.Instructions[0])
	assert.Len(t, body.Instructions, 0)
}

func TestBuilderPhiAddIncoming(t *testing.T) {
	fn := &Function{Name: "f", RetType: I32}
	merge := &BasicBlock{Label: "merge"}
	fn.Blocks = append(fn.Blocks, merge)
	pred1 := &BasicBlock{Label: "pred1"}
	pred2 := &BasicBlock{Label: "pred2"}

	b := NewBuilder(fn, false)
	b.SetInsertPoint(merge)
	phi := b.CreatePhi(I32, "x")
	phi.AddIncoming(pred1, fn.NewValue("a", I32))
	phi.AddIncoming(pred2, fn.NewValue("b", I32))

	require.Len(t, merge.Phis, 1)
	assert.Len(t, phi.Incoming, 2)
}

func TestCreateBlockUniqueLabels(t *testing.T) {
	fn := &Function{Name: "f", RetType: I32}
	b := NewBuilder(fn, false)
	b1 := b.CreateBlock("then")
	b2 := b.CreateBlock("then")
	assert.NotEqual(t, b1.Label, b2.Label)
}

func TestSwitchSuccessorsIncludeDefault(t *testing.T) {
	fn := &Function{Name: "f", RetType: I32}
	case1 := &BasicBlock{Label: "case1"}
	def := &BasicBlock{Label: "default"}
	fn.Blocks = append(fn.Blocks, case1, def)

	sw := &Switch{
		Cond:    fn.NewValue("c", I32),
		Cases:   []SwitchCase{{Value: 1, Target: case1}},
		Default: def,
	}
	assert.ElementsMatch(t, []*BasicBlock{case1, def}, sw.Successors())
}

func TestVectorTypeLayout(t *testing.T) {
	vt := NewVectorType(I8)
	require.Len(t, vt.Fields, 3)
	assert.Equal(t, I32, vt.Fields[0])
	assert.Equal(t, I32, vt.Fields[1])
	arr, ok := vt.Fields[2].(*ArrayType)
	require.True(t, ok)
	assert.Equal(t, I8, arr.Elem)
}
