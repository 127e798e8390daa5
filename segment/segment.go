// Package segment implements MemorySegment: a single
// contiguous growable buffer used for process-wide global storage
// (p_global, o_global). Unlike package stack there is no frame/base
// concept and no deletion — only aligned append and random-offset access.
//
// Grounded on the same growable-buffer adapter as package stack
// (linker/internal/memory/wrapper.go).
package segment

import (
	"fmt"
	"unsafe"

	"github.com/nyaavm/nyaavm/heap"
)

// Primitive is p_global: the growable byte segment storing the program's
// primitive globals.
type Primitive struct {
	buf   []byte
	Debug bool
}

func NewPrimitive(debug bool) *Primitive { return &Primitive{Debug: debug} }

func (m *Primitive) Len() int { return len(m.buf) }

func alignUp(n int) int { return (n + 3) &^ 3 }

// Advance grows the segment by n bytes (4-byte aligned) and returns the
// offset of the newly reserved region.
func (m *Primitive) Advance(n int) int {
	off := len(m.buf)
	m.buf = append(m.buf, make([]byte, alignUp(n))...)
	return off
}

func (m *Primitive) checkBounds(offset, size int) {
	if !m.Debug {
		return
	}
	if offset < 0 || offset+size > len(m.buf) {
		panic(fmt.Sprintf("segment: out of bounds access at offset=%d size=%d (len=%d)", offset, size, len(m.buf)))
	}
}

func Get[T stackNumeric](m *Primitive, offset int) T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	m.checkBounds(offset, size)
	return *(*T)(unsafe.Pointer(&m.buf[offset]))
}

func Set[T stackNumeric](m *Primitive, offset int, v T) {
	size := int(unsafe.Sizeof(v))
	m.checkBounds(offset, size)
	*(*T)(unsafe.Pointer(&m.buf[offset])) = v
}

// stackNumeric mirrors stack.Numeric without importing package stack (no
// genuine dependency between them, just the same width set).
type stackNumeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Object is o_global: the growable object-reference segment. The
// reflected-type table lives at a known base inside this segment.
type Object struct {
	slots []heap.Object
	Debug bool
}

func NewObject(debug bool) *Object { return &Object{Debug: debug} }

func (m *Object) Len() int { return len(m.slots) }

// Advance grows the segment by n slots and returns the offset reserved.
func (m *Object) Advance(n int) int {
	off := len(m.slots)
	m.slots = append(m.slots, make([]heap.Object, n)...)
	return off
}

func (m *Object) checkBounds(offset int) {
	if !m.Debug {
		return
	}
	if offset < 0 || offset >= len(m.slots) {
		panic(fmt.Sprintf("segment: object access out of bounds at offset=%d (len=%d)", offset, len(m.slots)))
	}
}

func (m *Object) Get(offset int) heap.Object {
	m.checkBounds(offset)
	return m.slots[offset]
}

func (m *Object) Set(offset int, v heap.Object) {
	m.checkBounds(offset)
	m.slots[offset] = v
}

// All returns every slot (used by the GC's MarkRoot to scan p_global's
// object companion, §4.9).
func (m *Object) All() []heap.Object {
	return m.slots
}
