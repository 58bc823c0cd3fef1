package emit

import (
	"ssagen/internal/cfg"
	"ssagen/internal/diag"
	"ssagen/internal/ir"
)

// LLVMType is the Type Lowerer's by-value mapping (§4.1's llvm_type): the
// memory layout a value of t occupies. Aggregates (vectors, structs, fixed
// arrays) appear here as their bare layout; how a variable slot or
// parameter refers to them is LLVMVarType's business.
func (b *Binary) LLVMType(t cfg.Type) ir.Type {
	switch ty := t.(type) {
	case *cfg.IntTy:
		return &ir.IntType{Bits: ty.Bits}
	case *cfg.BoolTy:
		return ir.I1
	case *cfg.FixedBytesTy:
		return &ir.IntType{Bits: ty.N * 8}
	case *cfg.AddressTy:
		return &ir.ArrayType{Elem: ir.I8, Len: b.Runtime.AddressLength()}
	case *cfg.DynamicBytesTy, *cfg.StringTy:
		return b.VectorType(ir.I8)
	case *cfg.ArrayTy:
		return b.VectorType(b.fieldType(ty.Elem))
	case *cfg.FixedArrayTy:
		return &ir.ArrayType{Elem: b.fieldType(ty.Elem), Len: ty.Len}
	case *cfg.StructTy:
		return b.structType(ty)
	case *cfg.MappingTy, *cfg.StorageRefTy:
		return &ir.IntType{Bits: b.Namespace.SlotWidth}
	case *cfg.InternalFunctionTy:
		return &ir.PointerType{Elem: b.functionPointerType(ty.Params, ty.Returns)}
	case *cfg.ExternalFunctionTy:
		return b.externalFunctionType()
	default:
		b.fatalf(diag.ErrUnknownType, "unknown type in LLVMType: %s", t)
		return nil
	}
}

// LLVMVarType is the Type Lowerer's register / stack-slot / out-pointer
// mapping (§4.1's llvm_var_ty). Reference-typed values are always pointers
// here — a variable holding a vector or struct holds the pointer, never the
// aggregate itself; everything else coincides with LLVMType.
func (b *Binary) LLVMVarType(t cfg.Type) ir.Type {
	if cfg.IsReferenceType(t) {
		return &ir.PointerType{Elem: b.LLVMType(t)}
	}
	return b.LLVMType(t)
}

// fieldType is the layout of t when embedded inside an aggregate, as a
// struct field or a vector payload element: dynamic (heap-resident) types
// embed as pointers, fixed aggregates and scalars embed inline. This is
// what makes push/pop on a vector of structs copy the aggregate in place
// (§4.5's fixed-reference rule) while a vector of vectors stores pointers.
func (b *Binary) fieldType(t cfg.Type) ir.Type {
	if cfg.IsDynamicMemory(t) {
		return b.LLVMVarType(t)
	}
	return b.LLVMType(t)
}

// structType lowers a source struct to an IR struct in declared field
// order, caching by name so repeated references to the same struct type
// share one ir.StructType (mirrors VectorType's caching).
func (b *Binary) structType(t *cfg.StructTy) *ir.StructType {
	if cached, ok := b.structTypes[t.Name]; ok {
		return cached
	}
	st := &ir.StructType{Name: "struct." + t.Name}
	b.structTypes[t.Name] = st // register before recursing: self-referential fields resolve to the same pointer
	fields := make([]ir.Type, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = b.fieldType(f.Type)
	}
	st.Fields = fields
	return st
}

func (b *Binary) functionPointerType(params, returns []cfg.Type) *ir.FunctionType {
	ft := &ir.FunctionType{Return: ir.I32} // every lowered function returns a ReturnCode (§3)
	for _, p := range params {
		ft.Params = append(ft.Params, b.LLVMVarType(p))
	}
	if b.Runtime.AmbientAccountsParam() {
		ft.Params = append(ft.Params, &ir.PointerType{Elem: ir.I8})
	}
	for _, r := range returns {
		ft.Params = append(ft.Params, &ir.PointerType{Elem: b.LLVMVarType(r)})
	}
	return ft
}

// externalFunctionType lowers an ExternalFunction to struct{selector u32,
// address} (§4.1).
func (b *Binary) externalFunctionType() *ir.StructType {
	if b.externalFnType != nil {
		return b.externalFnType
	}
	b.externalFnType = &ir.StructType{
		Name:   "struct.external_function",
		Fields: []ir.Type{ir.I32, &ir.ArrayType{Elem: ir.I8, Len: b.Runtime.AddressLength()}},
	}
	return b.externalFnType
}
