package ir

// Effect classifies the side effect, if any, an instruction has on memory.
// Nothing in this repository currently consumes Effect for optimization
// (§1's Non-goals exclude cross-function and source-level optimization),
// but the classification is cheap to keep accurate and is exercised by
// tests asserting the emitter never marks a pure computation as effectful.
type Effect int

const (
	EffectNone Effect = iota
	EffectReads
	EffectWrites
	EffectAllocates
)

// Effects reports the memory effect of instr.
func Effects(instr Instruction) Effect {
	switch instr.(type) {
	case *Load:
		return EffectReads
	case *Store:
		return EffectWrites
	case *Alloca:
		return EffectAllocates
	case *MemCpy:
		return EffectWrites
	case *Call, *IndirectCall:
		// Calls are conservatively classified as writing memory: the
		// callee may be a runtime entry point that reads/writes storage.
		return EffectWrites
	default:
		return EffectNone
	}
}
