// Package factory implements the Object Factory: the sole
// place every heap object is allocated and its header initialized. No
// allocation here is ever allowed to leave an object with a partially
// filled header — each constructor fills every field before handing the
// object to the allocator hook.
//
// Grounded on component/decoder.go (constructing typed records from a
// stream, one constructor per shape) and resource/backend_local.go (the
// mutex-guarded id/slot bookkeeping pattern, reused here for the string
// intern set and the upvalue unique-id map).
package factory

import (
	"sync"

	"github.com/nyaavm/nyaavm/heap"
)

// MaxInternedStringBytes is the short-string interning threshold: strings at or
// under this length are looked up/inserted in the intern set; longer
// strings always allocate fresh.
const MaxInternedStringBytes = 32

// Allocator is the hook the factory uses to join a freshly built object
// into the collector's bookkeeping. It is an interface rather than a
// direct dependency on package gc so factory and gc can each depend on
// heap without depending on each other.
type Allocator interface {
	// CurrentWhite returns the color newly allocated objects should be
	// marked with (the GC's live-white toggles every generation).
	CurrentWhite() heap.Color
	// Track registers o as GC-managed, linking it into the appropriate
	// generation's object list.
	Track(o heap.Object)
}

// Factory is the Object Factory. One Factory instance should back one
// live VM; it is safe for concurrent use.
type Factory struct {
	alloc Allocator

	mu      sync.Mutex
	interns map[string]*heap.StringObj
	upvals  map[int32]*heap.UpValueObj
}

func New(alloc Allocator) *Factory {
	return &Factory{
		alloc:   alloc,
		interns: make(map[string]*heap.StringObj),
		upvals:  make(map[int32]*heap.UpValueObj),
	}
}

func (f *Factory) alloc_(kind heap.Kind) heap.Header {
	var h heap.Header
	h.Init(kind, f.alloc.CurrentWhite())
	return h
}

// finish stamps o's header with a back-reference to o itself and hands it
// to the allocator hook. Every constructor in this package and reflect.go
// must route its finished object through here instead of calling
// f.alloc.Track directly, so the GC's intrusive lists can always recover
// the concrete object from a bare *heap.Header during traversal.
func (f *Factory) finish(o heap.Object) {
	heap.HeaderOf(o).SetOwner(o)
	f.alloc.Track(o)
}

// NewString always allocates a fresh String object, bypassing the intern
// set. Used when the caller knows the string will not be deduplicated
// (e.g. runtime-computed output) or already checked interning itself.
func (f *Factory) NewString(bytes []byte) *heap.StringObj {
	s := &heap.StringObj{Header: f.alloc_(heap.KindString)}
	s.Bytes = append([]byte(nil), bytes...)
	f.finish(s)
	return s
}

// GetOrNewString is the interning variant: for bytes at or under
// MaxInternedStringBytes it looks up an existing String object with
// identical content and returns it, only allocating on a miss.
func (f *Factory) GetOrNewString(bytes []byte) *heap.StringObj {
	if len(bytes) > MaxInternedStringBytes {
		return f.NewString(bytes)
	}
	key := string(bytes)

	f.mu.Lock()
	if s, ok := f.interns[key]; ok {
		f.mu.Unlock()
		return s
	}
	f.mu.Unlock()

	s := f.NewString(bytes)

	f.mu.Lock()
	if existing, ok := f.interns[key]; ok {
		// Lost a race with another mutator call; keep the winner so a
		// single logical string has one canonical cell. The loser is
		// left for the GC to reclaim — it was tracked, just unused.
		f.mu.Unlock()
		return existing
	}
	f.interns[key] = s
	f.mu.Unlock()
	return s
}

// InternedCount reports the number of distinct interned strings.
func (f *Factory) InternedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.interns)
}

// ForgetString removes a string from the intern set. The GC's sweep
// calls this when it reclaims an interned string so a later
// GetOrNewString with the same bytes doesn't hand back a dead cell.
func (f *Factory) ForgetString(bytes []byte) {
	if len(bytes) > MaxInternedStringBytes {
		return
	}
	f.mu.Lock()
	delete(f.interns, string(bytes))
	f.mu.Unlock()
}

func (f *Factory) NewClosure(fn *heap.NormalFunctionObj, nUpvalues int) *heap.ClosureObj {
	c := &heap.ClosureObj{Header: f.alloc_(heap.KindClosure)}
	c.Function = fn
	c.UpValues = make([]heap.UpvalDescriptor, nUpvalues)
	f.finish(c)
	return c
}

func (f *Factory) NewNativeFunction(name, signature string, primArgsSize, objArgsSize int, fn, warper any) *heap.NativeFunctionObj {
	n := &heap.NativeFunctionObj{Header: f.alloc_(heap.KindNativeFunction)}
	n.Name = name
	n.Signature = signature
	n.PrimArgsSize = primArgsSize
	n.ObjArgsSize = objArgsSize
	n.Fn = fn
	n.Warper = warper
	f.finish(n)
	return n
}

func (f *Factory) NewNormalFunction(name string, id int32, constObjs []heap.Object, constPrimBytes []byte, code []uint64, debug *heap.DebugInfo) *heap.NormalFunctionObj {
	fn := &heap.NormalFunctionObj{Header: f.alloc_(heap.KindNormalFunction)}
	fn.Name = name
	fn.ID = id
	fn.ConstObjTable = constObjs
	fn.ConstPrimBlob = constPrimBytes
	fn.Code = code
	fn.Debug = debug
	f.finish(fn)
	return fn
}

func (f *Factory) NewVector(initialSize int, elementType heap.Object) *heap.VectorObj {
	v := &heap.VectorObj{Header: f.alloc_(heap.KindVector)}
	v.ElemType = elementType
	v.Grow(initialSize)
	v.Elems = v.Elems[:initialSize]
	v.SetSize(initialSize)
	f.finish(v)
	return v
}

func (f *Factory) NewSlice(begin, size int, backing *heap.VectorObj) *heap.SliceObj {
	s := &heap.SliceObj{Header: f.alloc_(heap.KindSlice)}
	s.Begin = begin
	s.Size = size
	s.Backing = backing
	f.finish(s)
	return s
}

func (f *Factory) NewHashMap(seed, initialSlots int, keyType, valueType heap.Object) *heap.HashMapObj {
	if initialSlots < heap.MinHashMapSlots {
		initialSlots = heap.MinHashMapSlots
	}
	m := &heap.HashMapObj{Header: f.alloc_(heap.KindHashMap)}
	m.Seed = seed
	m.KeyType = keyType
	m.ValueType = valueType
	m.Slots = make([]*heap.PairNode, initialSlots)
	f.finish(m)
	return m
}

func (f *Factory) NewError(message, file *heap.StringObj, position int, linked *heap.ErrorObj) *heap.ErrorObj {
	e := &heap.ErrorObj{Header: f.alloc_(heap.KindError)}
	e.Message = message
	e.File = file
	e.Position = position
	e.Linked = linked
	f.finish(e)
	return e
}

func (f *Factory) NewUnion(payload heap.Slot, typeInfo heap.Object) *heap.UnionObj {
	u := &heap.UnionObj{Header: f.alloc_(heap.KindUnion)}
	u.Payload = payload
	u.Type = typeInfo
	f.finish(u)
	return u
}

func (f *Factory) NewExternal(typeCode int64, rawPtr any) *heap.ExternalObj {
	e := &heap.ExternalObj{Header: f.alloc_(heap.KindExternal)}
	e.TypeCode = typeCode
	e.Ptr = rawPtr
	f.finish(e)
	return e
}

// GetOrNewUpvalue returns the shared UpValue cell for uniqueID, creating
// it (seeded with value) the first time it is requested. Every closure
// that captures the same binding gets the same *heap.UpValueObj back.
func (f *Factory) GetOrNewUpvalue(value heap.Slot, uniqueID int32, isPrimitive bool) *heap.UpValueObj {
	f.mu.Lock()
	if u, ok := f.upvals[uniqueID]; ok {
		f.mu.Unlock()
		return u
	}
	f.mu.Unlock()

	u := &heap.UpValueObj{Header: f.alloc_(heap.KindUpValue)}
	u.UniqueID = uniqueID
	u.IsPrimitive = isPrimitive
	u.Value = value
	f.finish(u)

	f.mu.Lock()
	if existing, ok := f.upvals[uniqueID]; ok {
		f.mu.Unlock()
		return existing
	}
	f.upvals[uniqueID] = u
	f.mu.Unlock()
	return u
}

// ForgetUpvalue drops uniqueID's entry once its owning scope has fully
// closed over it and the GC has reclaimed the cell.
func (f *Factory) ForgetUpvalue(uniqueID int32) {
	f.mu.Lock()
	delete(f.upvals, uniqueID)
	f.mu.Unlock()
}
