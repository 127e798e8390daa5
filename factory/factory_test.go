package factory

import (
	"testing"

	"github.com/nyaavm/nyaavm/heap"
)

// fakeAllocator is a minimal Allocator for testing: it just counts
// tracked objects and always hands out White0.
type fakeAllocator struct {
	tracked []heap.Object
}

func (a *fakeAllocator) CurrentWhite() heap.Color { return heap.White0 }
func (a *fakeAllocator) Track(o heap.Object)       { a.tracked = append(a.tracked, o) }

func TestNewStringInitializesHeader(t *testing.T) {
	alloc := &fakeAllocator{}
	f := New(alloc)

	s := f.NewString([]byte("hello"))
	if s.Kind() != heap.KindString {
		t.Fatalf("Kind() = %v, want KindString", s.Kind())
	}
	if s.Color() != heap.White0 {
		t.Fatalf("Color() = %v, want White0", s.Color())
	}
	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount() = %d, want 0", s.HandleCount())
	}
	if string(s.Bytes) != "hello" {
		t.Fatalf("Bytes = %q, want hello", s.Bytes)
	}
	if len(alloc.tracked) != 1 {
		t.Fatalf("expected 1 tracked object, got %d", len(alloc.tracked))
	}
}

func TestGetOrNewStringInterns(t *testing.T) {
	f := New(&fakeAllocator{})

	a := f.GetOrNewString([]byte("short"))
	b := f.GetOrNewString([]byte("short"))
	if a != b {
		t.Fatal("expected interning to return the same cell")
	}
	if f.InternedCount() != 1 {
		t.Fatalf("InternedCount() = %d, want 1", f.InternedCount())
	}
}

func TestGetOrNewStringDoesNotInternLongStrings(t *testing.T) {
	f := New(&fakeAllocator{})
	long := make([]byte, MaxInternedStringBytes+1)
	for i := range long {
		long[i] = 'x'
	}

	a := f.GetOrNewString(long)
	b := f.GetOrNewString(long)
	if a == b {
		t.Fatal("expected distinct cells for strings over the interning threshold")
	}
	if f.InternedCount() != 0 {
		t.Fatalf("InternedCount() = %d, want 0", f.InternedCount())
	}
}

func TestForgetStringAllowsReintern(t *testing.T) {
	f := New(&fakeAllocator{})
	a := f.GetOrNewString([]byte("x"))
	f.ForgetString([]byte("x"))
	b := f.GetOrNewString([]byte("x"))
	if a == b {
		t.Fatal("expected a fresh cell after ForgetString")
	}
}

func TestGetOrNewUpvalueSharesCell(t *testing.T) {
	f := New(&fakeAllocator{})
	var slot heap.Slot
	slot.Prim = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	u1 := f.GetOrNewUpvalue(slot, 42, true)
	u2 := f.GetOrNewUpvalue(heap.Slot{}, 42, true)
	if u1 != u2 {
		t.Fatal("expected same upvalue cell for the same unique id")
	}
	if u1.UniqueID != 42 {
		t.Fatalf("UniqueID = %d, want 42", u1.UniqueID)
	}
}

func TestNewVectorGrowsAndSizes(t *testing.T) {
	f := New(&fakeAllocator{})
	var elemType heap.ReflectionIntegralObj
	elemType.Init(heap.KindReflectionIntegral, heap.White0)
	elemType.BitWide = 64
	elemType.Signed = true

	v := f.NewVector(3, &elemType)
	if v.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", v.Size())
	}
	if cap(v.Elems) < 3 {
		t.Fatalf("cap(Elems) = %d, want >= 3", cap(v.Elems))
	}
}

func TestNewHashMapEnforcesMinSlots(t *testing.T) {
	f := New(&fakeAllocator{})
	m := f.NewHashMap(0, 1, nil, nil)
	if m.NumSlots() != heap.MinHashMapSlots {
		t.Fatalf("NumSlots() = %d, want %d", m.NumSlots(), heap.MinHashMapSlots)
	}
}

func TestNewClosureAllocatesUpvalueDescriptors(t *testing.T) {
	f := New(&fakeAllocator{})
	fn := f.NewNormalFunction("f", 1, nil, nil, nil, nil)
	c := f.NewClosure(fn, 2)
	if len(c.UpValues) != 2 {
		t.Fatalf("len(UpValues) = %d, want 2", len(c.UpValues))
	}
	if c.Function != fn {
		t.Fatal("closure does not reference its function")
	}
}

func TestNewUnionCarriesPayload(t *testing.T) {
	f := New(&fakeAllocator{})
	var ty heap.ReflectionIntegralObj
	ty.Init(heap.KindReflectionIntegral, heap.White0)

	var payload heap.Slot
	payload.Prim = [8]byte{9}

	u := f.NewUnion(payload, &ty)
	if u.Payload.Prim[0] != 9 {
		t.Fatal("union payload not stored")
	}
	if u.Type != heap.Object(&ty) {
		t.Fatal("union type not stored")
	}
}

func TestReflectionConstructorsSetTypeID(t *testing.T) {
	f := New(&fakeAllocator{})
	i := f.NewReflectionIntegral(7, 64, true)
	if i.TypeID != 7 || i.BitWide != 64 || !i.Signed {
		t.Fatalf("unexpected reflection integral: %+v", i)
	}
	s := f.NewReflectionSlice(8, i)
	if s.TypeID != 8 || s.Element != heap.Object(i) {
		t.Fatalf("unexpected reflection slice: %+v", s)
	}
}
