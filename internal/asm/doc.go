// Package asm assembles a small line-oriented bytecode text format into
// vm.ModuleBlob values, standing in for the emitter a real front end
// would own (lexer/parser/checker/emitter are all out of this project's
// scope). It exists only to give package tests and internp tests
// executable fixtures without hand-packing bytecode.Word values one at
// a time.
//
// Grounded on wat/internal/{token,ast,parser,encoder}'s four-stage
// pipeline (tokenize, build an AST, parse structure, encode to bytes),
// collapsed here into tokenize -> parse -> encode since this grammar is
// one instruction per line rather than nested s-expressions and doesn't
// need a separate AST package to hold it.
//
// Source syntax, one statement per line:
//
//	extern <name> <signature>        ; declare a native import
//	func <name> [id]                 ; begin a function (id defaults to
//	                                  ; declaration order)
//	endfunc                          ; end the current function
//	<label>:                         ; define a jump target
//	<mnemonic> <args...>             ; one instruction
//
// A ';' starts a line comment. Instruction mnemonics are the snake_case
// spelling of their bytecode.Opcode name (see mnemonic.go); oop
// sub-operators are written "oop.<sub_id>" (e.g. "oop.map_get").
//
// Assemble assumes its ModuleBlob is loaded into a freshly constructed
// VM that has had RegisterNative called for every extern, in the order
// declared, before LoadModule runs: native.Bind and LoadModule both
// allocate o_global slots by simple Advance(1), so externs registered
// first occupy offsets 0..len(externs)-1 and this module's own
// functions continue from there. call and call_val targets naming an
// extern or a sibling function are resolved against that assumption at
// assemble time, not at load time.
package asm
