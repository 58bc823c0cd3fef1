package asm

import (
	"fmt"
	"strconv"
	"strings"

	"ssagen/internal/cfg"
)

// parseType resolves a TypeName to a cfg.Type (§4.1's Type Lowerer input
// vocabulary, restricted to the scalar/dynamic-array subset this notation
// supports — see grammar.go's TypeName doc comment).
func parseType(t *TypeName) (cfg.Type, error) {
	base, err := parseBaseType(t.Base)
	if err != nil {
		return nil, err
	}
	if t.Array {
		return &cfg.ArrayTy{Elem: base}, nil
	}
	return base, nil
}

func parseBaseType(name string) (cfg.Type, error) {
	switch name {
	case "bool":
		return &cfg.BoolTy{}, nil
	case "address":
		return &cfg.AddressTy{}, nil
	case "bytes":
		return &cfg.DynamicBytesTy{}, nil
	case "string":
		return &cfg.StringTy{}, nil
	}
	if n, ok := bitWidth(name, "u"); ok {
		return &cfg.IntTy{Bits: n, Signed: false}, nil
	}
	if n, ok := bitWidth(name, "i"); ok {
		return &cfg.IntTy{Bits: n, Signed: true}, nil
	}
	if n, ok := bitWidth(name, "bytes"); ok {
		return &cfg.FixedBytesTy{N: n}, nil
	}
	return nil, fmt.Errorf("asm: unknown type %q", name)
}

// bitWidth parses a prefix+digits type name such as "u64" or "bytes32",
// returning the numeric suffix.
func bitWidth(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	digits := name[len(prefix):]
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// comparisonOps yields a BoolTy result regardless of operand type; every
// other operator this notation supports preserves the left operand's type,
// matching lowerBinaryExpr's unchecked-binop path (internal/emit/expression.go),
// which types its IR result from the LHS.
var comparisonOps = map[cfg.BinOp]bool{
	cfg.OpEq: true, cfg.OpNeq: true, cfg.OpLt: true, cfg.OpLte: true,
	cfg.OpGt: true, cfg.OpGte: true, cfg.OpBoolAnd: true, cfg.OpBoolOr: true,
}

func binaryResultType(op cfg.BinOp, lhsTy cfg.Type) cfg.Type {
	if comparisonOps[op] {
		return &cfg.BoolTy{}
	}
	return lhsTy
}

func binOpFor(sym string) (cfg.BinOp, bool) {
	switch sym {
	case "+":
		return cfg.OpAdd, true
	case "-":
		return cfg.OpSub, true
	case "*":
		return cfg.OpMul, true
	case "/":
		return cfg.OpDiv, true
	case "%":
		return cfg.OpMod, true
	case "&":
		return cfg.OpAnd, true
	case "|":
		return cfg.OpOr, true
	case "^":
		return cfg.OpXor, true
	case "<<":
		return cfg.OpShl, true
	case ">>":
		return cfg.OpShr, true
	case "==":
		return cfg.OpEq, true
	case "!=":
		return cfg.OpNeq, true
	case "<":
		return cfg.OpLt, true
	case "<=":
		return cfg.OpLte, true
	case ">":
		return cfg.OpGt, true
	case ">=":
		return cfg.OpGte, true
	case "&&":
		return cfg.OpBoolAnd, true
	case "||":
		return cfg.OpBoolOr, true
	default:
		return 0, false
	}
}
