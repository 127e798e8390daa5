package heap

// UnionObj carries a reflection-type reference plus an inline payload of up
// to 8 bytes, primitive or reference.
type UnionObj struct {
	Header
	Type    Object // one of the Reflection* kinds
	Payload Slot
}

// ExternalObj is an opaque type-code plus a raw pointer. The GC scanner
// never follows Ptr: whatever it addresses
// is owned outside the managed heap.
type ExternalObj struct {
	Header
	TypeCode int64
	Ptr      any
}
