package ir

import (
	"fmt"
	"strings"
)

// Ret returns Val (nil for a bare `ret void`, used for functions whose
// return type is VoidType — never the contract-level ReturnCode, which is
// always returned by value).
type Ret struct{ Val *Value }

func (t *Ret) Successors() []*BasicBlock { return nil }
func (t *Ret) String() string {
	if t.Val == nil {
		return "ret void"
	}
	return fmt.Sprintf("ret %s %s", t.Val.Type, t.Val.Name)
}

// Br is an unconditional branch.
type Br struct{ Target *BasicBlock }

func (t *Br) Successors() []*BasicBlock { return []*BasicBlock{t.Target} }
func (t *Br) String() string            { return "br label %" + t.Target.Label }

// CondBr is a two-way conditional branch.
type CondBr struct {
	Cond        *Value
	True, False *BasicBlock
}

func (t *CondBr) Successors() []*BasicBlock { return []*BasicBlock{t.True, t.False} }
func (t *CondBr) String() string {
	return fmt.Sprintf("br i1 %s, label %%%s, label %%%s", t.Cond.Name, t.True.Label, t.False.Label)
}

// SwitchCase pairs a constant value with its target block.
type SwitchCase struct {
	Value  int64
	Target *BasicBlock
}

// Switch is a dense multi-way branch (§4.5 Switch row: the block
// materializer visits every case target plus the default).
type Switch struct {
	Cond    *Value
	Cases   []SwitchCase
	Default *BasicBlock
}

func (t *Switch) Successors() []*BasicBlock {
	succs := make([]*BasicBlock, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		succs = append(succs, c.Target)
	}
	return append(succs, t.Default)
}

func (t *Switch) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "switch %s %s, label %%%s [", t.Cond.Type, t.Cond.Name, t.Default.Label)
	for _, c := range t.Cases {
		fmt.Fprintf(&b, " %s %d, label %%%s", t.Cond.Type, c.Value, c.Target.Label)
	}
	b.WriteString(" ]")
	return b.String()
}

// Unreachable marks a point control flow is statically known never to
// reach (§4.5: lowers to nothing but must still close its block).
type Unreachable struct{}

func (t *Unreachable) Successors() []*BasicBlock { return nil }
func (t *Unreachable) String() string            { return "unreachable" }
