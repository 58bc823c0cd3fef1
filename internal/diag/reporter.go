// Package diag reports the two error domains the emission core produces
// (§7): compile-time invariant violations, which are compiler bugs and are
// never user-visible, and structured diagnostics pointing at the CFG node
// that triggered them. It is adapted from the teacher's internal/errors
// package: same styled rendering via github.com/fatih/color, a CFGPointer
// in place of a source position.
package diag

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
)

// log reports invariant violations to the configured logging backend
// before the panic unwinds, so a batch compile's log still shows which
// unit died even when a caller recovers.
var log = commonlog.GetLogger("diag")

// CFGPointer locates the CFG node a diagnostic concerns: a function name, a
// block index within it, and an instruction index within the block. Blk and
// Instr are -1 when the diagnostic concerns the function as a whole.
type CFGPointer struct {
	Function string
	Blk      int
	Instr    int
}

func (p CFGPointer) String() string {
	if p.Blk < 0 {
		return p.Function
	}
	if p.Instr < 0 {
		return fmt.Sprintf("%s block %d", p.Function, p.Blk)
	}
	return fmt.Sprintf("%s block %d instr %d", p.Function, p.Blk, p.Instr)
}

// Invariant is a fatal compile-time invariant violation (§7.1): malformed
// input the core's contract assumes never happens (an undefined variable
// read without a default, a branch to a block the work-list driver never
// materialized, and the like). It is always a compiler bug, never
// user-facing, so it is always delivered by panic, not by an error return.
type Invariant struct {
	Code    string
	Message string
	At      CFGPointer
	cause   error
}

func (i *Invariant) Error() string {
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.At, i.Message)
}

// Unwrap exposes the stack-carrying cause so callers can still use
// errors.As/errors.Is through the invariant.
func (i *Invariant) Unwrap() error { return i.cause }

// Fatalf builds an Invariant carrying a stack trace (via
// github.com/pkg/errors, so the panic value still has one after unwinding)
// and panics with it. Callers recover at the top-level emission entry point
// only in tests; production callers let it crash the process, per §7.1.
func Fatalf(at CFGPointer, code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	inv := &Invariant{
		Code:    code,
		Message: msg,
		At:      at,
		cause:   errors.New(msg),
	}
	log.Critical(inv.Error())
	panic(inv)
}

// Format renders inv the way the teacher colors its diagnostics: a bold
// error code and location line, a faint message body.
func Format(inv *Invariant) string {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	return fmt.Sprintf("%s %s\n  %s", bold("error["+inv.Code+"]"), inv.At, faint(inv.Message))
}
