// Package rtype implements the Reflected Type Table: every
// statically known type the (out-of-scope) compiler encounters is lowered
// to a reflected-type heap object and given a stable index. Bytecode
// operators that need a type — cast, union box/unbox, map/array creation,
// union test — reference it by that index. The table also exposes each
// type's placement size, used by the interpreter to pick load/store width
// and to size Union payloads.
//
// Grounded on component/internal/arena/types.go's TypeArena: an
// index-addressed arena resolving IDs to kind-tagged records. Here the
// arena's backing storage is literally the object global segment
//, not a private slice, so the table stays within the regular
// GC root set the same way every other o_global entry does.
package rtype

import (
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/segment"
)

// Table indexes reflected-type objects stored inside an object segment.
type Table struct {
	seg  *segment.Object
	base int
}

// NewTable creates a table whose entries begin at the segment's current
// end.
func NewTable(seg *segment.Object) *Table {
	return &Table{seg: seg, base: seg.Len()}
}

// Base returns the segment offset the table starts at.
func (t *Table) Base() int { return t.base }

// Register assigns the next stable index to o and returns it. The index is
// what the emitter (out of scope) would encode into cast/union/map/array
// operators' type operand.
func (t *Table) Register(o heap.Object) int {
	off := t.seg.Advance(1)
	t.seg.Set(off, o)
	return off - t.base
}

// Get resolves a stable index back to its reflected-type object.
func (t *Table) Get(idx int) heap.Object {
	return t.seg.Get(t.base + idx)
}

// Len returns the number of registered types.
func (t *Table) Len() int {
	return t.seg.Len() - t.base
}

// PlacementSize returns the byte width the interpreter should use to load
// or store a value of this type, and to size a Union payload carrying it.
func PlacementSize(o heap.Object) int {
	switch v := o.(type) {
	case *heap.ReflectionVoidObj:
		return 0
	case *heap.ReflectionIntegralObj:
		return v.BitWide / 8
	case *heap.ReflectionFloatingObj:
		return v.BitWide / 8
	default:
		// Every reference kind (string, error, union, external, slice,
		// array/vector, map, function) is a single machine reference.
		return 8
	}
}

// IsReference reports whether values of this type occupy a Slot's Ref
// field rather than its Prim bytes.
func IsReference(o heap.Object) bool {
	switch o.(type) {
	case *heap.ReflectionIntegralObj, *heap.ReflectionFloatingObj, *heap.ReflectionVoidObj:
		return false
	default:
		return true
	}
}

// TypeID returns the compiler-issued stable type identity carried by any
// reflected-type object (distinct from its table index — the
// compiler assigns both; the table index is what bytecode operands use,
// TypeID is what equality/printing/map-keying compare against).
func TypeID(o heap.Object) int64 {
	switch v := o.(type) {
	case *heap.ReflectionVoidObj:
		return v.TypeID
	case *heap.ReflectionIntegralObj:
		return v.TypeID
	case *heap.ReflectionFloatingObj:
		return v.TypeID
	case *heap.ReflectionStringObj:
		return v.TypeID
	case *heap.ReflectionErrorObj:
		return v.TypeID
	case *heap.ReflectionUnionObj:
		return v.TypeID
	case *heap.ReflectionExternalObj:
		return v.TypeID
	case *heap.ReflectionSliceObj:
		return v.TypeID
	case *heap.ReflectionArrayObj:
		return v.TypeID
	case *heap.ReflectionMapObj:
		return v.TypeID
	case *heap.ReflectionFunctionObj:
		return v.TypeID
	default:
		return -1
	}
}

// SameType reports whether a and b identify the same compiler type,
// regardless of table index (two modules could in principle register the
// same primitive type at different indices).
func SameType(a, b heap.Object) bool {
	return a != nil && b != nil && TypeID(a) == TypeID(b)
}
