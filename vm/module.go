package vm

import "github.com/nyaavm/nyaavm/heap"

// FunctionBlob is one source function's worth of the bytecode
// blob format: a constant-primitive region, a constant-object table, a code
// array, and optional debug info. ConstObjTable entries that reference
// another function in the same module (mutual recursion, a closure's
// captured NormalFunctionObj) must already be the same object identity
// the loader allocated for that other FunctionBlob — resolving those
// references is internal/asm's job (or a test's), not LoadModule's, since
// the emitter that would normally do this lowering is out of scope.
type FunctionBlob struct {
	Name          string
	ID            int32
	ConstPrimBlob []byte
	ConstObjTable []heap.Object
	Code          []uint64
	Debug         *heap.DebugInfo
}

// ModuleBlob is the in-memory shape of the bytecode blob
// boundary: one NormalFunction per source function plus the module's
// global segment sizes and its bootstrap function name. Because the
// emitter is out of scope, a ModuleBlob is built directly by tests and by
// internal/asm rather than by a real compiler.
type ModuleBlob struct {
	// Functions is lowered into fresh o_global slots in order and
	// registered under Name.
	Functions []FunctionBlob

	// ReflectedTypes seeds the Reflected Type Table in
	// order; a FunctionBlob's bytecode that references type index i means
	// ReflectedTypes[i].
	ReflectedTypes []heap.Object

	// PGlobalSize/OGlobalSize are the byte/slot counts LoadModule reserves
	// in p_global/o_global for the module's globals, beyond what its own
	// functions and reflected types occupy.
	PGlobalSize int
	OGlobalSize int

	// Entry names the bootstrap function Run starts at.
	Entry string
}
