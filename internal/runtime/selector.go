package runtime

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Selector computes the 4-byte Solidity-style function selector: the first
// four bytes of keccak256(signature), read as a big-endian uint32. This
// lets tests derive expected selectors (and the well-known
// Error(string) selector, AssertFailureSelector) instead of hand-copying
// hex constants.
func Selector(signature string) uint32 {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint32(sum[:4])
}
