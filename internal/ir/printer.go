package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Module as a readable textual dump, in the same
// indent-and-accumulate style the teacher's IR printer uses.
type Printer struct {
	indent int
	out    strings.Builder
}

// Print renders m.
func Print(m *Module) string {
	p := &Printer{}
	p.printModule(m)
	return p.out.String()
}

func (p *Printer) writeLine(format string, args ...any) {
	p.out.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteByte('\n')
}

func (p *Printer) printModule(m *Module) {
	p.writeLine("module %q", m.Name)
	for _, g := range m.Globals {
		p.writeLine("global @%s = %s", g.Name, g.Type)
	}
	for _, f := range m.Functions {
		p.printFunction(f)
	}
}

func (p *Printer) printFunction(f *Function) {
	params := make([]string, len(f.Params))
	for i, v := range f.Params {
		params[i] = v.Type.String() + " " + v.Name
	}
	if f.Declared() {
		p.writeLine("declare %s @%s(%s)", f.RetType, f.Name, strings.Join(params, ", "))
		return
	}
	p.writeLine("define %s @%s(%s) {", f.RetType, f.Name, strings.Join(params, ", "))
	p.indent++
	for _, blk := range f.Blocks {
		p.printBlock(blk)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printBlock(blk *BasicBlock) {
	p.writeLine("%s:", blk.Label)
	p.indent++
	for _, phi := range blk.Phis {
		p.writeLine("%s", phi)
	}
	for _, instr := range blk.Instructions {
		p.writeLine("%s", instr)
	}
	if blk.Terminator != nil {
		p.writeLine("%s", blk.Terminator)
	}
	p.indent--
}
