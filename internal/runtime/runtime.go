// Package runtime is the Runtime Abstraction (§4.6): the single capability
// interface the instruction lowerer calls through for everything that
// differs between compilation targets, so internal/emit never branches on
// target identity itself.
package runtime

import (
	"ssagen/internal/cfg"
	"ssagen/internal/ir"
)

// TargetRuntime is implemented once per compilation target (Substrate,
// Solana). The instruction lowerer treats it as opaque: it must not assume
// any bit-layout from it except what §3/§4.6 state explicitly for the
// Vector header and selector comparison.
type TargetRuntime interface {
	// Module returns the module this runtime declares its intrinsics into,
	// so callers construct it once and hand it to both the runtime and the
	// Binary Context that emits the contract's own functions alongside them.
	Module() *ir.Module

	// Target identifies which concrete runtime this is.
	Target() cfg.Target

	// AddressLength is the byte width of an address value (20 for
	// Substrate, 32 for Solana).
	AddressLength() int

	// ReallocSizeType is the integer type __realloc's size parameter uses
	// (i32 for Substrate, i64 for Solana).
	ReallocSizeType() *ir.IntType

	// EntryAllocas reports whether allocas must be hoisted to the entry
	// block (true for Solana) rather than created at the current
	// insertion point.
	EntryAllocas() bool

	// AmbientAccountsParam reports whether every internal call must be
	// given an extra, ambient `accounts` argument appended after its
	// declared parameters (true for Solana).
	AmbientAccountsParam() bool

	// CompareSelector emits the comparison of a loaded selector value
	// against the expected constant, honoring target selector endianness
	// (§4.5, §8.6): Substrate compares host-order; everything else
	// byte-swaps the loaded value first.
	CompareSelector(b *ir.Builder, loaded *ir.Value, expected uint32) *ir.Value

	// StorageLoad / StorageStore / StorageClear implement the direct
	// storage-slot operations behind LoadStorage/SetStorage/ClearStorage.
	StorageLoad(b *ir.Builder, f *ir.Function, slot *ir.Value, ty ir.Type) *ir.Value
	StorageStore(b *ir.Builder, slot, val *ir.Value)
	StorageClear(b *ir.Builder, slot *ir.Value)

	// StorageSetBytesSubscript overwrites a byte range of a storage-resident
	// byte buffer at the given offset (SetStorageBytes).
	StorageSetBytesSubscript(b *ir.Builder, slot, offset, val *ir.Value)

	// StoragePush/StoragePop implement append/remove-last on a storage
	// vector (PushStorage/PopStorage). StoragePush returns the address of
	// the pushed element; StoragePop returns the popped element's value.
	StoragePush(b *ir.Builder, f *ir.Function, slot *ir.Value, elemTy ir.Type) *ir.Value
	StoragePop(b *ir.Builder, f *ir.Function, slot *ir.Value, elemTy ir.Type) *ir.Value

	// Realloc wraps the __realloc intrinsic with the target's size type.
	Realloc(b *ir.Builder, f *ir.Function, ptr *ir.Value, newSize *ir.Value) *ir.Value

	// AbiEncode / AbiDecode delegate to the target's ABI codec; the core
	// treats the emitted payload as opaque bytes.
	AbiEncode(b *ir.Builder, f *ir.Function, vals []*ir.Value, tys []ir.Type) (ptr, length *ir.Value)
	AbiDecode(b *ir.Builder, f *ir.Function, data, dataLen *ir.Value, tys []ir.Type) []*ir.Value

	// Print forwards a byte buffer to the target's debug-print capability.
	Print(b *ir.Builder, ptr, length *ir.Value)

	// AssertFailure emits `assert_failure(ptr, len)`; ptr/length are nil
	// for the null/zero-length payload form.
	AssertFailure(b *ir.Builder, ptr, length *ir.Value)

	// CreateContract delegates constructor deployment.
	CreateContract(b *ir.Builder, f *ir.Function, contractNo int, args ContractArgs) *ir.Value

	// ExternalCall delegates an external contract/account invocation,
	// returning the result ReturnCode.
	ExternalCall(b *ir.Builder, f *ir.Function, args ExternalCallArgs) *ir.Value

	// ValueTransfer sends value with no payload, returning a ReturnCode.
	ValueTransfer(b *ir.Builder, f *ir.Function, address, value *ir.Value) *ir.Value

	// EmitEvent emits one event occurrence.
	EmitEvent(b *ir.Builder, f *ir.Function, eventNo int, topics, data []*ir.Value)

	// ReturnABIData sets the contract-level ABI return payload.
	ReturnABIData(b *ir.Builder, ptr, length *ir.Value)

	// SelfDestruct destroys the current contract, sending its balance to
	// recipient.
	SelfDestruct(b *ir.Builder, recipient *ir.Value)

	// CheckedArith lowers a checked arithmetic operation: on overflow or
	// division by zero it branches, internally, to the fatal assertion
	// path, never surfacing that branch to the instruction lowerer
	// (§4.2's resolution of the "no control flow" vs "branches to a
	// common assertion path" tension).
	CheckedArith(b *ir.Builder, f *ir.Function, op cfg.BinOp, lhs, rhs *ir.Value) *ir.Value

	// Builtin looks up a builtin function entry point by name, or reports
	// ok=false if this target does not provide it.
	Builtin(name string) (fn BuiltinFunction, ok bool)
}

// ContractArgs bundles Constructor's optional fields (§4.5's Constructor
// row) so the interface method stays readable.
type ContractArgs struct {
	EncodedArgs    *ir.Value // the constructor's ABI-encoded argument payload
	EncodedArgsLen *ir.Value
	Value          *ir.Value // nil if not provided
	Gas            *ir.Value
	Salt           *ir.Value // nil if not provided
	Space          *ir.Value // nil if not provided; Solana account size
}

// ExternalCallArgs bundles ExternalCall's optional fields.
type ExternalCallArgs struct {
	Address    *ir.Value // nil for reply-style calls
	Payload    *ir.Value
	PayloadLen *ir.Value
	Value      *ir.Value
	Gas        *ir.Value
	CallType   cfg.ExternalCallType
	Accounts   *ir.Value // nil unless Solana
	Seeds      *ir.Value // nil unless Solana
}

// BuiltinFunction is one entry in the target's builtin registry (§4.5's
// Call{Builtin} row; supplemented builtin table per SPEC_FULL §4.5). Most
// builtins are pure value producers and always succeed. A builtin whose
// underlying capability can itself fail (e.g. signature verification) sets
// Fallible; its Emit then returns the raw ReturnCode as element 0, followed
// by one value per entry in Returns — the instruction lowerer branches on
// that code exactly like it does for Call{Static}/Call{Dynamic} before
// binding any of the remaining results (§7's failure propagation).
type BuiltinFunction struct {
	Name     string
	Params   []ir.Type
	Returns  []ir.Type
	Fallible bool
	Emit     func(b *ir.Builder, f *ir.Function, args []*ir.Value) []*ir.Value
}
