package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"ssagen/internal/cfg"
)

// parser is built once; participle.Build is not cheap enough to redo per
// call, and the grammar has no per-call state.
var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseFunction parses one textual function into a cfg.ControlFlowGraph.
// The source's name is used only for parse-error reporting.
func ParseFunction(name, source string) (*cfg.ControlFlowGraph, error) {
	f, err := parser.ParseString(name, source)
	if err != nil {
		return nil, fmt.Errorf("asm: %s: %w", name, err)
	}
	return newFuncBuilder().build(f.Func)
}

// AssembleContract parses one textual function per source and assembles
// them into a cfg.Contract in the given order, so Call{Static} CFG indices
// in hand-built instructions line up with source order.
func AssembleContract(name string, sources ...string) (*cfg.Contract, error) {
	c := &cfg.Contract{Name: name}
	for _, src := range sources {
		f, err := ParseFunction(name, src)
		if err != nil {
			return nil, err
		}
		c.CFGs = append(c.CFGs, f)
	}
	return c, nil
}

// funcBuilder tracks the var-type symbol table used to resolve bare
// identifiers (`v0`, `v1`, ...) to a cfg.Variable with a concrete Type, the
// same role the semantic analysis phase plays upstream of this core in a
// real compiler (§1: out of scope here, so this notation keeps only the
// sliver of it needed to let fixtures omit repeating types on every read).
type funcBuilder struct {
	varTypes map[string]cfg.Type
}

func newFuncBuilder() *funcBuilder {
	return &funcBuilder{varTypes: map[string]cfg.Type{}}
}

func (fb *funcBuilder) build(f *Function) (*cfg.ControlFlowGraph, error) {
	out := &cfg.ControlFlowGraph{Name: f.Name, Public: f.Public, Create: f.Create}

	for i, p := range f.Params {
		ty, err := parseType(p.Type)
		if err != nil {
			return nil, err
		}
		out.Params = append(out.Params, cfg.Parameter{Name: p.Name, Type: ty})
		fb.varTypes[fmt.Sprintf("v%d", i)] = ty
	}
	for _, r := range f.Returns {
		ty, err := parseType(r)
		if err != nil {
			return nil, err
		}
		out.Returns = append(out.Returns, cfg.Parameter{Type: ty})
	}

	blocksByNo := map[int]*Block{}
	var order []int
	for _, b := range f.Body.Blocks {
		blocksByNo[b.No] = b
		order = append(order, b.No)
	}
	maxNo := -1
	for _, n := range order {
		if n > maxNo {
			maxNo = n
		}
	}
	out.Blocks = make([]*cfg.Block, maxNo+1)
	for _, b := range f.Body.Blocks {
		blk, err := fb.buildBlock(b)
		if err != nil {
			return nil, err
		}
		out.Blocks[b.No] = blk
	}
	return out, nil
}

func (fb *funcBuilder) buildBlock(b *Block) (*cfg.Block, error) {
	blk := &cfg.Block{}
	for _, s := range b.Stmts {
		instr, err := fb.buildStmt(s)
		if err != nil {
			return nil, err
		}
		blk.Instructions = append(blk.Instructions, instr)
	}
	return blk, nil
}

func (fb *funcBuilder) buildStmt(s *Stmt) (cfg.Instr, error) {
	switch {
	case s.Nop != nil:
		return &cfg.Nop{}, nil
	case s.Unreachable != nil:
		return &cfg.Unreachable{}, nil
	case s.RetCode != nil:
		return &cfg.ReturnCodeInstr{Code: cfg.ReturnCode(s.RetCode.Code)}, nil
	case s.Return != nil:
		if s.Return.Value == nil {
			return &cfg.Return{}, nil
		}
		e, err := fb.buildExpr(s.Return.Value)
		if err != nil {
			return nil, err
		}
		return &cfg.Return{Values: []cfg.Expression{e}}, nil
	case s.Set != nil:
		e, err := fb.buildExpr(s.Set.Expr)
		if err != nil {
			return nil, err
		}
		fb.varTypes[s.Set.Var] = e.Type()
		return &cfg.Set{Res: fb.varNo(s.Set.Var), Expr: e}, nil
	case s.Store != nil:
		dst, err := fb.buildExpr(s.Store.Dst)
		if err != nil {
			return nil, err
		}
		src, err := fb.buildExpr(s.Store.Src)
		if err != nil {
			return nil, err
		}
		return &cfg.Store{Dst: dst, Src: src}, nil
	case s.Branch != nil:
		return &cfg.Branch{Target: s.Branch.Target}, nil
	case s.BranchCond != nil:
		cond, err := fb.buildExpr(s.BranchCond.Cond)
		if err != nil {
			return nil, err
		}
		return &cfg.BranchCond{Cond: cond, TrueBlk: s.BranchCond.True, FalseBlk: s.BranchCond.False}, nil
	default:
		return nil, fmt.Errorf("asm: empty statement")
	}
}

func (fb *funcBuilder) buildExpr(e *Expr) (cfg.Expression, error) {
	left, err := fb.buildUnary(e.Left)
	if err != nil {
		return nil, err
	}
	for _, rhs := range e.Ops {
		right, err := fb.buildUnary(rhs.Right)
		if err != nil {
			return nil, err
		}
		op, ok := binOpFor(rhs.Op)
		if !ok {
			return nil, fmt.Errorf("asm: unknown operator %q", rhs.Op)
		}
		left = &cfg.BinaryExpr{Op: op, Left: left, Right: right, Ty: binaryResultType(op, left.Type())}
	}
	return left, nil
}

func (fb *funcBuilder) buildUnary(u *UnaryExpr) (cfg.Expression, error) {
	val, err := fb.buildPrimary(u.Value)
	if err != nil {
		return nil, err
	}
	if u.Op == nil {
		return val, nil
	}
	var op cfg.UnOp
	switch *u.Op {
	case "!":
		op = cfg.OpNot
	case "-":
		op = cfg.OpNeg
	case "~":
		op = cfg.OpBitNot
	default:
		return nil, fmt.Errorf("asm: unknown unary operator %q", *u.Op)
	}
	return &cfg.UnaryExpr{Op: op, Operand: val, Ty: val.Type()}, nil
}

func (fb *funcBuilder) buildPrimary(p *Primary) (cfg.Expression, error) {
	switch {
	case p.Bool != nil:
		return &cfg.BoolLiteral{Value: *p.Bool == "true"}, nil
	case p.Number != nil:
		n, err := strconv.ParseInt(*p.Number, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("asm: bad integer literal %q: %w", *p.Number, err)
		}
		return &cfg.NumberLiteral{Ty: &cfg.IntTy{Bits: 64}, Value: n}, nil
	case p.Var != nil:
		ty, ok := fb.varTypes[*p.Var]
		if !ok {
			return nil, fmt.Errorf("asm: reference to %q before its type is known (bind it with a prior `set` or declare it as a parameter)", *p.Var)
		}
		return &cfg.Variable{VarNo: fb.varNo(*p.Var), Ty: ty}, nil
	case p.Paren != nil:
		return fb.buildExpr(p.Paren)
	default:
		return nil, fmt.Errorf("asm: empty expression")
	}
}

// varNo maps a textual variable name ("v3") to the numeric CFG slot the
// rest of the core indexes by; this notation always spells variables as
// `vN`, including function parameters (slots 0..len(params)-1), so there is
// no separate by-name resolution to do.
func (fb *funcBuilder) varNo(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "v"))
	if err != nil {
		return -1
	}
	return n
}
