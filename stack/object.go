package stack

import (
	"fmt"

	"github.com/nyaavm/nyaavm/heap"
)

// Object is the growable reference stack.
// Unlike Primitive it is addressed in slot units (one heap.Object per
// slot), not bytes — references are always one machine word regardless of
// the emitter's chosen width granularity for primitives.
type Object struct {
	slots []heap.Object
	base  int
	top   int
	Debug bool
}

// NewObject creates an empty object stack.
func NewObject(debug bool) *Object {
	return &Object{Debug: debug}
}

func (s *Object) Base() int { return s.base }
func (s *Object) Top() int  { return s.top }
func (s *Object) Len() int  { return len(s.slots) }

func (s *Object) ensure(end int) {
	if end <= len(s.slots) {
		return
	}
	grown := make([]heap.Object, end)
	copy(grown, s.slots)
	s.slots = grown
}

// Advance grows the top by n slots and returns the offset just reserved.
func (s *Object) Advance(n int) int {
	reserved := s.top
	s.top += n
	s.ensure(s.base + s.top)
	return reserved
}

func (s *Object) AdjustFrame(delta, size int) {
	s.base += delta
	s.top = size
	s.ensure(s.base + s.top)
}

func (s *Object) SetFrame(base, size int) {
	s.base = base
	s.top = size
	s.ensure(s.base + s.top)
}

func (s *Object) checkBounds(offset int) {
	if !s.Debug {
		return
	}
	pos := s.base + offset
	if pos < 0 || pos >= len(s.slots) {
		panic(fmt.Sprintf("stack: object access out of bounds at base=%d offset=%d (len=%d)",
			s.base, offset, len(s.slots)))
	}
}

// Get reads the reference at offset (relative to base); may be nil.
func (s *Object) Get(offset int) heap.Object {
	s.checkBounds(offset)
	return s.slots[s.base+offset]
}

// Set writes a reference at offset (relative to base).
func (s *Object) Set(offset int, v heap.Object) {
	s.checkBounds(offset)
	s.slots[s.base+offset] = v
}

// Push advances by one slot and stores v, returning the reserved offset.
func (s *Object) Push(v heap.Object) int {
	off := s.Advance(1)
	s.Set(off, v)
	return off
}

// Each visits every live reference across every frame currently on the
// stack, not just the active one: a frame's slots sit below whatever
// offset a later AdjustFrame pushed base/top to, and are never cleared on
// return, so scanning slots[:base+top] reaches every still-live ancestor
// frame in one pass (the embedder's GC root scan).
func (s *Object) Each(visit func(heap.Object)) {
	for _, o := range s.slots[:s.base+s.top] {
		if o != nil {
			visit(o)
		}
	}
}
