package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoArmMerge() (*Function, *BasicBlock, *BasicBlock, *BasicBlock, *Phi) {
	fn := &Function{Name: "f", RetType: I32}
	b := NewBuilder(fn, false)
	entry := b.CreateBlock("entry")
	left := b.CreateBlock("left")
	right := b.CreateBlock("right")
	merge := b.CreateBlock("merge")

	b.SetInsertPoint(entry)
	cond := fn.NewValue("c", I1)
	b.CreateCondBr(cond, left, right)

	b.SetInsertPoint(merge)
	phi := b.CreatePhi(I32, "x")
	b.CreateRet(phi.Res)

	b.SetInsertPoint(left)
	phi.AddIncoming(left, ConstInt(I32, 1))
	b.CreateBr(merge)

	b.SetInsertPoint(right)
	phi.AddIncoming(right, ConstInt(I32, 2))
	b.CreateBr(merge)

	return fn, left, right, merge, phi
}

func TestVerifyAcceptsCompleteFunction(t *testing.T) {
	fn, _, _, _, _ := twoArmMerge()
	assert.NoError(t, Verify(fn))
}

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	fn, _, right, _, _ := twoArmMerge()
	right.Terminator = nil
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no terminator")
}

func TestVerifyRejectsIncompletePhi(t *testing.T) {
	fn, _, right, merge, phi := twoArmMerge()
	delete(phi.Incoming, right)
	phi.preds = []*BasicBlock{merge}
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomings")
}

func TestVerifySkipsDeclarations(t *testing.T) {
	decl := &Function{Name: "__realloc", RetType: &PointerType{Elem: I8}}
	assert.NoError(t, Verify(decl))
}

func TestVerifyModuleReportsFirstBrokenFunction(t *testing.T) {
	good, _, _, _, _ := twoArmMerge()
	bad, _, right, _, _ := twoArmMerge()
	bad.Name = "g"
	right.Terminator = nil

	m := &Module{Name: "m", Functions: []*Function{good, bad}}
	err := VerifyModule(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify g")
}
