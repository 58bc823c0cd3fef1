package diag

// Invariant codes, grouped by the component that raises them (mirrors the
// teacher's range-per-category convention in internal/errors/codes.go).

const (
	// Block materialization / work-list driver (§4.3, §4.4).
	ErrBlockNeverMaterialized = "E1001"
	ErrBlockTranslatedTwice   = "E1002"
	ErrMissingPhiIncoming     = "E1003"

	// Variable environment.
	ErrUndefinedVariableRead = "E2001"

	// Vector heap object (§3).
	ErrPopEmptyVector = "E3001"

	// Runtime abstraction (§4.6).
	ErrRuntimeCapabilityUnavailable = "E4001"

	// General lowering invariants.
	ErrUnreachableNotLast = "E5001"
	ErrUnknownType        = "E5002"
)
