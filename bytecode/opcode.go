package bytecode

// Opcode is the 8-bit instruction tag occupying a Word's top byte
//. Compare operators fold their condition code directly
// into the opcode (CmpEqI8, CmpLtI8, ...) rather than packing a separate
// `cc` operand — the standard word layout has only three operand fields
// (result, operand1, operand2) and `cmp_iN cc dest lhs rhs`
// needs four distinct values, so cc becomes part of the opcode space
// instead, matching how `frame`/`ret`/`loop_entry` are already concrete,
// unparameterized opcodes rather than parameterized meta-ops.
type Opcode uint8

const (
	OpFrame Opcode = iota
	OpRet
	OpDebug

	// Load: segment -> local stack.
	OpLoadI8
	OpLoadI16
	OpLoadI32
	OpLoadI64
	OpLoadF32
	OpLoadF64
	OpLoadO

	OpLoadImmI8
	OpLoadImmI16
	OpLoadImmI32
	OpLoadImmI64

	// Store: local stack -> segment.
	OpStoreI8
	OpStoreI16
	OpStoreI32
	OpStoreI64
	OpStoreF32
	OpStoreF64
	OpStoreO

	// Move within the local stack (wide-encoded: src/dest offsets).
	OpMovI8
	OpMovI16
	OpMovI32
	OpMovI64
	OpMovF32
	OpMovF64
	OpMovO

	// Integer arithmetic, register-register.
	OpAddI8
	OpAddI16
	OpAddI32
	OpAddI64
	OpSubI8
	OpSubI16
	OpSubI32
	OpSubI64
	OpMulI8
	OpMulI16
	OpMulI32
	OpMulI64
	OpDivI8
	OpDivI16
	OpDivI32
	OpDivI64

	// Integer arithmetic, immediate-register.
	OpAddImmI8
	OpAddImmI16
	OpAddImmI32
	OpAddImmI64
	OpSubImmI8
	OpSubImmI16
	OpSubImmI32
	OpSubImmI64
	OpMulImmI8
	OpMulImmI16
	OpMulImmI32
	OpMulImmI64
	OpDivImmI8
	OpDivImmI16
	OpDivImmI32
	OpDivImmI64

	// Floating arithmetic.
	OpAddF32
	OpAddF64
	OpSubF32
	OpSubF64
	OpMulF32
	OpMulF64
	OpDivF32
	OpDivF64
	OpAddImmF32
	OpAddImmF64
	OpSubImmF32
	OpSubImmF64
	OpMulImmF32
	OpMulImmF64
	OpDivImmF32
	OpDivImmF64

	// Bitwise, register-register.
	OpOrI8
	OpOrI16
	OpOrI32
	OpOrI64
	OpXorI8
	OpXorI16
	OpXorI32
	OpXorI64
	OpAndI8
	OpAndI16
	OpAndI32
	OpAndI64
	OpShlI8
	OpShlI16
	OpShlI32
	OpShlI64
	OpShrI8
	OpShrI16
	OpShrI32
	OpShrI64
	OpUshrI8
	OpUshrI16
	OpUshrI32
	OpUshrI64

	// Bitwise, immediate-register.
	OpOrImmI8
	OpOrImmI16
	OpOrImmI32
	OpOrImmI64
	OpXorImmI8
	OpXorImmI16
	OpXorImmI32
	OpXorImmI64
	OpAndImmI8
	OpAndImmI16
	OpAndImmI32
	OpAndImmI64
	OpShlImmI8
	OpShlImmI16
	OpShlImmI32
	OpShlImmI64
	OpShrImmI8
	OpShrImmI16
	OpShrImmI32
	OpShrImmI64
	OpUshrImmI8
	OpUshrImmI16
	OpUshrImmI32
	OpUshrImmI64

	// Bitwise unary.
	OpInvI8
	OpInvI16
	OpInvI32
	OpInvI64

	// Compare (cc folded into the opcode, see type doc).
	OpCmpEqI8
	OpCmpNeI8
	OpCmpLtI8
	OpCmpLeI8
	OpCmpGtI8
	OpCmpGeI8
	OpCmpEqI16
	OpCmpNeI16
	OpCmpLtI16
	OpCmpLeI16
	OpCmpGtI16
	OpCmpGeI16
	OpCmpEqI32
	OpCmpNeI32
	OpCmpLtI32
	OpCmpLeI32
	OpCmpGtI32
	OpCmpGeI32
	OpCmpEqI64
	OpCmpNeI64
	OpCmpLtI64
	OpCmpLeI64
	OpCmpGtI64
	OpCmpGeI64
	OpCmpEqF32
	OpCmpNeF32
	OpCmpLtF32
	OpCmpLeF32
	OpCmpGtF32
	OpCmpGeF32
	OpCmpEqF64
	OpCmpNeF64
	OpCmpLtF64
	OpCmpLeF64
	OpCmpGtF64
	OpCmpGeF64

	// Logical.
	OpLogicNot

	// Casts: name carries the input width, an operand carries the output
	// width.
	OpSextI8
	OpSextI16
	OpSextI32
	OpTruncI16
	OpTruncI32
	OpTruncI64
	OpFpExtF32
	OpFpTruncF64
	OpFpToSiF32
	OpFpToSiF64
	OpSiToFpI8
	OpSiToFpI16
	OpSiToFpI32
	OpSiToFpI64

	// Control.
	OpJmp
	OpJz
	OpJnz
	OpLoopEntry

	// Call.
	OpCall
	OpCallVal
	OpCloseFn

	// Object operators; sub-id lives in oop.go.
	OpOop

	numOpcodes
)

// Valid reports whether op is a defined opcode. The interpreter raises
// Panic on an opcode that fails this check.
func (op Opcode) Valid() bool { return op < numOpcodes }
