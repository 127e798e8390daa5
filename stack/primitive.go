package stack

import (
	"fmt"
	"unsafe"
)

// Alignment is the placement alignment for every primitive stack slot.
const Alignment = 4

// Numeric lists the primitive widths the interpreter pushes/reads: i1 (as
// a byte), i8, i16, i32, i64, f32, f64.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Primitive is a growable, 4-byte-aligned byte stack. Debug
// controls whether accesses are bounds-checked with a descriptive panic;
// release mode trusts the emitter and only pays for Go's own slice bounds
// check.
type Primitive struct {
	buf   []byte
	base  int
	top   int
	Debug bool
}

// New creates an empty primitive stack.
func New(debug bool) *Primitive {
	return &Primitive{Debug: debug}
}

// Base returns the current frame's base offset.
func (s *Primitive) Base() int { return s.base }

// Top returns the current frame's top offset.
func (s *Primitive) Top() int { return s.top }

// Len returns the total bytes grown so far (for diagnostics/tests).
func (s *Primitive) Len() int { return len(s.buf) }

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

func (s *Primitive) ensure(end int) {
	if end <= len(s.buf) {
		return
	}
	grown := make([]byte, end)
	copy(grown, s.buf)
	s.buf = grown
}

// Advance grows the top by n bytes (aligned up to Alignment) and returns
// the offset (relative to base) of the region just reserved.
func (s *Primitive) Advance(n int) int {
	reserved := s.top
	s.top += alignUp(n)
	s.ensure(s.base + s.top)
	return reserved
}

// AdjustFrame moves base forward by delta and sets top to base+size — the
// relative form used on ordinary call/return.
func (s *Primitive) AdjustFrame(delta, size int) {
	s.base += delta
	s.top = size
	s.ensure(s.base + s.top)
}

// SetFrame sets base and size absolutely — used when restoring a CallContext
// on return.
func (s *Primitive) SetFrame(base, size int) {
	s.base = base
	s.top = size
	s.ensure(s.base + s.top)
}

func (s *Primitive) checkBounds(offset, size int) {
	if !s.Debug {
		return
	}
	pos := s.base + offset
	if pos < 0 || pos+size > len(s.buf) {
		panic(fmt.Sprintf("stack: out of bounds access at base=%d offset=%d size=%d (len=%d)",
			s.base, offset, size, len(s.buf)))
	}
}

// Get reads a T at a (possibly negative) offset relative to base. Negative
// offsets are legal: the callee writes to the slot immediately
// preceding its own frame to return a value.
func Get[T Numeric](s *Primitive, offset int) T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	s.checkBounds(offset, size)
	pos := s.base + offset
	return *(*T)(unsafe.Pointer(&s.buf[pos]))
}

// Set writes a T at a (possibly negative) offset relative to base.
func Set[T Numeric](s *Primitive, offset int, v T) {
	size := int(unsafe.Sizeof(v))
	s.checkBounds(offset, size)
	pos := s.base + offset
	*(*T)(unsafe.Pointer(&s.buf[pos])) = v
}

// Push advances by sizeof(T) (aligned) and stores v at the reserved
// offset, returning that offset.
func Push[T Numeric](s *Primitive, v T) int {
	off := s.Advance(int(unsafe.Sizeof(v)))
	Set(s, off, v)
	return off
}
