package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFatalfPanicsWithInvariant(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		inv, ok := r.(*Invariant)
		require.True(t, ok)
		assert.Equal(t, ErrPopEmptyVector, inv.Code)
		assert.Equal(t, "transfer", inv.At.Function)
		assert.Equal(t, 2, inv.At.Blk)
		assert.ErrorContains(t, inv, "popping empty vector")
	}()

	Fatalf(CFGPointer{Function: "transfer", Blk: 2, Instr: 5}, ErrPopEmptyVector, "popping empty vector")
}

func TestCFGPointerString(t *testing.T) {
	assert.Equal(t, "f", CFGPointer{Function: "f", Blk: -1, Instr: -1}.String())
	assert.Equal(t, "f block 1", CFGPointer{Function: "f", Blk: 1, Instr: -1}.String())
	assert.Equal(t, "f block 1 instr 2", CFGPointer{Function: "f", Blk: 1, Instr: 2}.String())
}

func TestFormatIncludesCodeAndLocation(t *testing.T) {
	inv := &Invariant{Code: ErrBlockNeverMaterialized, Message: "block 3 never reached", At: CFGPointer{Function: "f", Blk: -1, Instr: -1}}
	out := Format(inv)
	assert.Contains(t, out, ErrBlockNeverMaterialized)
	assert.Contains(t, out, "block 3 never reached")
}
