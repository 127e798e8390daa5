package heap

// UpValueObj is a heap cell shared by every closure that captured the same
// enclosing binding. UniqueID is the compiler-issued
// binding id the Object Factory uses to deduplicate upvalues.
type UpValueObj struct {
	Header
	UniqueID    int32
	IsPrimitive bool
	Value       Slot
}

// UpvalDescriptor is one entry in a Closure's descriptor array. While the
// closure is open it names a slot on an enclosing frame's stack; close_fn
// resolves it into a heap UpValueObj.
type UpvalDescriptor struct {
	UniqueID    int32
	Offset      int
	OnObjStack  bool // false => primitive stack, true => object stack
	Resolved    *UpValueObj
}

// ClosureObj is either open (descriptors reference a live caller frame and
// must not escape it) or closed (every descriptor resolves to a heap
// UpValueObj).
type ClosureObj struct {
	Header
	Open        bool
	Function    *NormalFunctionObj
	UpValues    []UpvalDescriptor
}
