package heap

// NativeFunctionObj describes a function implemented outside the
// interpreter. Signature is the native-bridge
// signature string (§4.8); Fn and Warper are opaque here to avoid a
// heap<->native import cycle — package native stores its own Impl and
// trampoline values here and type-asserts them back out. A nil Warper
// mirrors the rule that a null native pointer raises
// NullNativeFunction: natives can be discovered lazily with the slot
// present before the implementation is registered.
type NativeFunctionObj struct {
	Header
	Name          string
	Signature     string
	PrimArgsSize  int
	ObjArgsSize   int
	Fn            any
	Warper        any
}

// DebugInfo is the per-function source-position table.
type DebugInfo struct {
	SourceFile      string
	Positions       []SourcePosition
	TraceNodeCount  int
}

// SourcePosition maps one bytecode pc to a source location.
type SourcePosition struct {
	PC   int
	Line int
	Col  int
}

// NormalFunctionObj is a compiled function: constants, code, debug info
//. ConstObjTable entries are never mutated after
// construction.
type NormalFunctionObj struct {
	Header
	Name          string
	ID            int32
	ConstPrimBlob []byte
	ConstObjTable []Object
	Code          []uint64
	Debug         *DebugInfo
}
