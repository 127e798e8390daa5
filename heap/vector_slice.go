package heap

// VectorObj is a growable, homogeneously-typed array. The
// element reflected type decides whether Elems[i].Prim or Elems[i].Ref
// holds the live value (see Slot).
type VectorObj struct {
	Header
	ElemType Object // reflected element type
	Elems    []Slot
	size     int
}

// Size returns the number of live elements (distinct from cap(Elems)).
func (v *VectorObj) Size() int { return v.size }

// SetSize updates the live element count. Callers (factory/interp) are
// responsible for keeping Elems sized to at least Size.
func (v *VectorObj) SetSize(n int) { v.size = n }

// Grow doubles capacity: ArrayAdd grows capacity by 2x when full.
func (v *VectorObj) Grow(minCap int) {
	if cap(v.Elems) >= minCap {
		return
	}
	newCap := cap(v.Elems) * 2
	if newCap < minCap {
		newCap = minCap
	}
	if newCap < 4 {
		newCap = 4
	}
	grown := make([]Slot, len(v.Elems), newCap)
	copy(grown, v.Elems)
	v.Elems = grown
}

// SliceObj is a range view over a backing Vector.
type SliceObj struct {
	Header
	Begin   int
	Size    int
	Backing *VectorObj
}
