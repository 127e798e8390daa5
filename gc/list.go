// Package gc implements the Mark-Sweep-Generation collector:
// two generations, four colors, an explicit phase state machine
// advanced one step at a time by the mutator, a write barrier, and a
// pinned set for objects held by external handles.
//
// Grounded on src/msg-garbage-collector.{h,cc} from the original
// implementation this spec was distilled from (the Step/MarkRoot/Remark/
// Propagate/Atomic/SweepYoung function split, the HOInsertHead/HORemove
// intrusive-list idiom, White2Gray/Gray2Black/Black2White naming) and
// heap/scan.go for the generic scanner this collector calls for.
//
// Go has no manual free(): where a C++ collector's
// DeleteObject calls ::free() on a previous-white object during sweep,
// this collector instead unlinks the object from every intrusive list it
// is on. Once unlinked and no longer reachable from any GC root or Go
// variable, Go's own runtime collector reclaims the memory on its own
// schedule — "sweep" here means "make unreachable", not "deallocate".
// This is recorded as the one structural deviation from the original's
// memory-management approach; the phase machine, coloring, and
// generation bookkeeping above it are unchanged.
package gc

import "github.com/nyaavm/nyaavm/heap"

// list is a circular, intrusive doubly-linked list of headers with a
// dummy sentinel node (heap/msg-garbage-collector.h's HeapObject
// *_header_ fields, HOInsertHead/HORemove/HOIsEmpty/HOIsNotEmpty).
type list struct {
	sentinel heap.Header
}

func newList() *list {
	l := &list{}
	l.sentinel.SetNext(&l.sentinel)
	l.sentinel.SetPrev(&l.sentinel)
	return l
}

func (l *list) empty() bool { return l.sentinel.Next() == &l.sentinel }

func (l *list) pushFront(h *heap.Header) {
	h.SetNext(l.sentinel.Next())
	h.SetPrev(&l.sentinel)
	l.sentinel.Next().SetPrev(h)
	l.sentinel.SetNext(h)
}

func (l *list) remove(h *heap.Header) {
	h.Prev().SetNext(h.Next())
	h.Next().SetPrev(h.Prev())
	h.SetNext(nil)
	h.SetPrev(nil)
}

// front returns the first real node, or nil if the list is empty.
func (l *list) front() *heap.Header {
	if l.empty() {
		return nil
	}
	return l.sentinel.Next()
}

// moveAllTo splices every node of l onto the front of dst, leaving l
// empty. Used by Atomic's gray/gray-again swap.
func (l *list) moveAllTo(dst *list) {
	for h := l.front(); h != nil; h = l.front() {
		l.remove(h)
		dst.pushFront(h)
	}
}

// forEach visits every node currently in the list. Visiting functions
// may call remove/pushFront on the current node but must not otherwise
// mutate the list out from under the iteration; forEach captures `next`
// before invoking f for exactly this reason.
func (l *list) forEach(f func(h *heap.Header)) {
	h := l.sentinel.Next()
	for h != &l.sentinel {
		next := h.Next()
		f(h)
		h = next
	}
}
