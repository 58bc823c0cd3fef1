// Package asm adapts the teacher's participle lexer+grammar shape
// (kanso-lang-kanso/grammar) into a small textual assembly notation for
// cfg.ControlFlowGraph values, used only by tests and golden fixtures
// (SPEC_FULL §2): a CFG fixture of any real size is unreadable as a nested
// Go struct literal, the same reason LLVM/MLIR test suites carry a textual
// IR form instead of building test IR with builder calls.
package asm

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the assembly notation. It keeps the teacher's rule
// shape (ordered rules, comments before identifiers, whitespace elided by
// the parser rather than the lexer) but trims the token set to what this
// notation's grammar needs: no string/doc-comment distinction, no
// punctuation beyond what CFG instructions use.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"Arrow", `->`, nil},
		{"Operator", `(==|!=|<=|>=|&&|\|\||<<|>>|[-+*/%&|^<>=!~])`, nil},
		{"Punctuation", `[{}\[\]():,;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
