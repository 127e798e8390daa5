// Package handle implements the external Handle: a
// refcounted, stable reference to a heap object that an embedder can hold
// across GC cycles and across calls back into the runtime, independent of
// whatever the mutator's own stacks currently reach.
//
// Grounded on resource/table.go's UnifiedTable and resource/
// backend_local.go's LocalBackend: a free-list-backed slice of entries
// addressed by a 1-based handle so 0 stays a reserved "no handle" value,
// adapted from storing arbitrary `any` resource values to storing
// heap.Object and pinning/unpinning it against the collector instead of
// calling a Dropper on removal.
package handle

import (
	"sync"

	"github.com/nyaavm/nyaavm/heap"
)

// Pinner is the collector hook a Table pins/unpins objects against
//. *gc.GC satisfies this; the
// interface keeps this package from depending on package gc directly.
type Pinner interface {
	Pin(o heap.Object)
	Unpin(o heap.Object)
}

// Handle is an opaque, stable external reference. The zero Handle never
// names a live entry.
type Handle uint32

type entry struct {
	obj      heap.Object
	refCount uint32
	valid    bool
}

// Table is a refcounted handle table over one GC's pinned-object set.
type Table struct {
	mu       sync.RWMutex
	gc       Pinner
	entries  []entry
	freeList []Handle
}

// NewTable creates an empty table pinning against gc.
func NewTable(gc Pinner) *Table {
	return &Table{
		gc:       gc,
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Retain creates a fresh handle over o with a reference count of one,
// pinning o so the collector keeps it alive regardless of reachability
// from the ordinary root set.
func (t *Table) Retain(o heap.Object) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gc.Pin(o)
	e := entry{obj: o, refCount: 1, valid: true}

	if n := len(t.freeList); n > 0 {
		h := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
		return h
	}
	t.entries = append(t.entries, e)
	return Handle(len(t.entries))
}

// Get resolves a handle to its object. Returns (nil, false) for the zero
// handle or one that has already reached a zero reference count.
func (t *Table) Get(h Handle) (heap.Object, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookup(h)
	if !ok {
		return nil, false
	}
	return e.obj, true
}

// Dup increments h's reference count, for an embedder handing the same
// handle to more than one owner. Returns false if h is already dangling.
func (t *Table) Dup(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.index(h)
	if !ok {
		return false
	}
	t.entries[idx].refCount++
	return true
}

// Release drops one reference to h. Once the count reaches zero the
// object is unpinned and the slot is returned to the free list. Returns
// false if h was already dangling.
func (t *Table) Release(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.index(h)
	if !ok {
		return false
	}

	e := &t.entries[idx]
	e.refCount--
	if e.refCount > 0 {
		return true
	}

	t.gc.Unpin(e.obj)
	e.valid = false
	e.obj = nil
	t.freeList = append(t.freeList, h)
	return true
}

// Len reports the number of live (non-dangling) handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.valid {
			n++
		}
	}
	return n
}

func (t *Table) index(h Handle) (int, bool) {
	if h == 0 {
		return 0, false
	}
	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return 0, false
	}
	return idx, true
}

func (t *Table) lookup(h Handle) (entry, bool) {
	idx, ok := t.index(h)
	if !ok {
		return entry{}, false
	}
	return t.entries[idx], true
}
