// Package ir is the low-level SSA IR this repository emits: explicit
// pointers, allocas, GEPs, basic blocks and phi-nodes, close enough to LLVM
// IR that a further back-end can select machine instructions directly from
// it. Nothing in this package knows about contracts, storage or ABI
// encoding; that vocabulary lives in internal/cfg and internal/runtime.
package ir

import (
	"fmt"
	"strings"
)

// Type is a closed sum type of low-level IR types.
type Type interface {
	fmt.Stringer
	isType()
}

func (*IntType) isType()      {}
func (*PointerType) isType()  {}
func (*StructType) isType()   {}
func (*ArrayType) isType()    {}
func (*FunctionType) isType() {}
func (*VoidType) isType()     {}

// IntType is an N-bit integer.
type IntType struct{ Bits int }

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

// PointerType points at a value of type Elem in address space 0 (no
// separate address spaces are modeled; both targets are flat memory).
type PointerType struct{ Elem Type }

func (t *PointerType) String() string { return t.Elem.String() + "*" }

// StructType is an ordered, named aggregate. The Vector heap object (§3) is
// represented as a StructType named "vector.<elem>" with three fields: i32 len,
// i32 cap, and a flexible trailing array element (Data), exactly mirroring
// the length/capacity/inline-data layout the spec requires.
type StructType struct {
	Name   string
	Fields []Type
}

func (t *StructType) String() string {
	if t.Name != "" {
		return "%" + t.Name
	}
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NewVectorType builds the canonical 3-field Vector heap layout for an
// element type: {i32 len, i32 cap, elem data[0]}.
func NewVectorType(elem Type) *StructType {
	return &StructType{
		Name:   "vector." + elem.String(),
		Fields: []Type{&IntType{Bits: 32}, &IntType{Bits: 32}, &ArrayType{Elem: elem, Len: 0}},
	}
}

// ArrayType is a fixed-length inline array, used both for fixed source
// arrays and for the Vector struct's flexible trailing data member (Len 0).
type ArrayType struct {
	Elem Type
	Len  int
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }

// FunctionType is a function signature.
type FunctionType struct {
	Params []Type
	Return Type // VoidType when the function returns nothing by value
}

func (t *FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s (%s)", t.Return, strings.Join(parts, ", "))
}

// VoidType marks a call or function with no return value.
type VoidType struct{}

func (*VoidType) String() string { return "void" }

// Common integer widths used throughout the emitter.
var (
	I1  = &IntType{Bits: 1}
	I8  = &IntType{Bits: 8}
	I32 = &IntType{Bits: 32}
	I64 = &IntType{Bits: 64}
)
