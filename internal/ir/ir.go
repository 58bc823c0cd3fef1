package ir

import "fmt"

// Module is one compiled contract's low-level IR: its declared globals,
// intrinsic/external function declarations and defined functions.
type Module struct {
	Name      string
	Globals   []*GlobalVar
	Functions []*Function
}

// FunctionByName finds a defined or declared function by name.
func (m *Module) FunctionByName(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// GlobalVar is a module-level constant or mutable storage slot.
type GlobalVar struct {
	Name    string
	Type    Type
	Initial []byte
}

// Function is either a declaration (Blocks empty, used for intrinsics like
// __realloc and __memcpy and for target entry points) or a definition.
type Function struct {
	Name    string
	Params  []*Value
	RetType Type
	Blocks  []*BasicBlock

	nextValueID int
}

// NewValue allocates a fresh SSA value owned by this function.
func (f *Function) NewValue(name string, ty Type) *Value {
	f.nextValueID++
	if name == "" {
		name = fmt.Sprintf("%%%d", f.nextValueID)
	}
	return &Value{ID: f.nextValueID, Name: name, Type: ty}
}

// Declared reports whether this function is an external/intrinsic
// declaration rather than a definition lowered from a CFG.
func (f *Function) Declared() bool { return len(f.Blocks) == 0 }

// BasicBlock is a straight-line sequence of instructions ending in exactly
// one terminator (§4.3/§4.4: blocks are materialized on first encounter by
// the work-list driver, and each is translated exactly once).
type BasicBlock struct {
	Label        string
	Phis         []*Phi
	Instructions []Instruction
	Terminator   Terminator
}

// AddPhi appends a phi-node to the block's phi list (phis always precede
// non-phi instructions in a block, per SSA form).
func (b *BasicBlock) AddPhi(p *Phi) { b.Phis = append(b.Phis, p) }

// Append adds a non-terminator instruction to the block.
func (b *BasicBlock) Append(i Instruction) { b.Instructions = append(b.Instructions, i) }

// SetTerminator sets the block's terminating instruction. Calling it twice
// on the same block is a compiler bug (§8.1 SSA validity: every reachable
// block has exactly one terminator).
func (b *BasicBlock) SetTerminator(t Terminator) { b.Terminator = t }

// Value is an SSA value: a function parameter, a constant, or the result
// of exactly one instruction. Builder does not fill in DefInstr, so it is
// nil for every value the builder creates.
type Value struct {
	ID       int
	Name     string
	Type     Type
	DefInstr Instruction
}

func (v *Value) String() string { return v.Name }

// Instruction is any IR instruction that is not itself a block terminator.
type Instruction interface {
	fmt.Stringer
	Result() *Value // nil for instructions with no result (Store, MemCopy writes, ...)
}

// Terminator is the last instruction of a basic block.
type Terminator interface {
	fmt.Stringer
	Successors() []*BasicBlock
}

// Phi is a phi-node: one incoming value per live predecessor edge, keyed by
// predecessor block (§8.3 phi-completeness: every phi in a materialized
// block has exactly one incoming entry per predecessor that has been
// translated).
type Phi struct {
	Res      *Value
	Incoming map[*BasicBlock]*Value

	// preds keeps the wiring order so rendering is deterministic; the map
	// alone would print edges in map-iteration order.
	preds []*BasicBlock
}

func (p *Phi) Result() *Value { return p.Res }

func (p *Phi) String() string {
	s := p.Res.Name + " = phi " + p.Res.Type.String() + " "
	for i, blk := range p.preds {
		if i > 0 {
			s += ", "
		}
		s += "[" + p.Incoming[blk].Name + ", %" + blk.Label + "]"
	}
	return s
}

// AddIncoming wires one predecessor's value into this phi. Called by the
// block materializer every time a branch site is lowered, per §4.3.
func (p *Phi) AddIncoming(pred *BasicBlock, val *Value) {
	if p.Incoming == nil {
		p.Incoming = make(map[*BasicBlock]*Value)
	}
	if _, seen := p.Incoming[pred]; !seen {
		p.preds = append(p.preds, pred)
	}
	p.Incoming[pred] = val
}
