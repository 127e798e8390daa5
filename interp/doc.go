// Package interp implements the Interpreter/Thread: a
// single-threaded cooperative dispatch loop over the 64-bit instruction
// words of package bytecode, operating on a primitive stack, an object
// stack, a call stack, and the global segments.
//
// Grounded on engine/wazero.go's call-in/run-to-completion dispatch shape
// and the per-opcode-group [256]Handler table idiom of
// asyncify/internal/handler/{registry,arithmetic,conversion,constant,
// variable,memory,gc,reference,passthrough}.go — there, one handler array
// is indexed by a WASM opcode byte and each entry is a narrow, single-
// purpose function; here the same array indexes bytecode.Opcode instead.
package interp

import (
	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/vmerr"
)

// handler executes one decoded instruction. A non-nil *vmerr.Error halts
// the thread; the caller of Run maps it to an exit code.
type handler func(t *Thread, w bytecode.Word) *vmerr.Error

var dispatch [256]handler

func register(op bytecode.Opcode, h handler) {
	dispatch[op] = h
}
