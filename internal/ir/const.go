package ir

import (
	"encoding/hex"
	"fmt"
)

// ConstInt builds an immediate integer value of type ty. Constants are
// never associated with a DefInstr: they are not the result of any
// instruction, so SSA dominance (§8.1) does not apply to them.
func ConstInt(ty Type, value int64) *Value {
	return &Value{Name: fmt.Sprintf("%d", value), Type: ty}
}

// ConstBytes builds an immediate fixed-byte-array constant (addresses,
// bytesN literals).
func ConstBytes(ty Type, value []byte) *Value {
	return &Value{Name: "0x" + hex.EncodeToString(value), Type: ty}
}

// ConstNull builds a null pointer constant of type ty.
func ConstNull(ty *PointerType) *Value {
	return &Value{Name: "null", Type: ty}
}
