package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintModuleRendersDeclareAndDefine(t *testing.T) {
	m := &Module{Name: "token"}
	decl := &Function{Name: "__realloc", RetType: &PointerType{Elem: I8}, Params: []*Value{{Name: "%p", Type: &PointerType{Elem: I8}}}}
	m.Functions = append(m.Functions, decl)

	fn := &Function{Name: "balance_of", RetType: I32}
	entry := &BasicBlock{Label: "entry"}
	fn.Blocks = append(fn.Blocks, entry)
	b := NewBuilder(fn, false)
	b.SetInsertPoint(entry)
	b.CreateRet(fn.NewValue("zero", I32))
	m.Functions = append(m.Functions, fn)

	out := Print(m)
	assert.Contains(t, out, `module "token"`)
	assert.Contains(t, out, "declare i8* @__realloc")
	assert.Contains(t, out, "define i32 @balance_of")
	assert.Contains(t, out, "entry:")
	assert.Contains(t, out, "ret i32")
}
