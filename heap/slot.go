package heap

// Slot holds one primitive-or-reference value inline. Several shapes
// (Union's payload, UpValue's captured value, HashMap Pair
// keys/values) describe up to 8 inline payload bytes, primitive or
// reference. Go cannot safely overlap a raw object pointer with a byte
// array — the real Go garbage collector would not see a pointer hidden
// inside a []byte and could reclaim the referenced object out from under
// the VM's own bookkeeping — so Slot keeps the two side by side instead of
// overlapped. Exactly one of Prim/Ref is meaningful at a time, decided by
// the slot's associated reflected type; the other is always left zero.
type Slot struct {
	Prim [8]byte
	Ref  Object
}

// IsReference reports whether this slot currently holds an object
// reference rather than inline primitive bytes.
func (s Slot) IsReference() bool {
	return s.Ref != nil
}
