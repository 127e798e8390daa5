package heap

import "testing"

func TestHeaderInit(t *testing.T) {
	var h Header
	h.Init(KindString, White0)

	if h.Kind() != KindString {
		t.Fatalf("kind = %v, want String", h.Kind())
	}
	if h.Color() != White0 {
		t.Fatalf("color = %v, want White0", h.Color())
	}
	if h.Generation() != 0 {
		t.Fatalf("generation = %d, want 0", h.Generation())
	}
	if h.HandleCount() != 0 {
		t.Fatalf("handles = %d, want 0", h.HandleCount())
	}
}

func TestHeaderRetainRelease(t *testing.T) {
	var h Header
	h.Init(KindVector, White0)

	if n := h.Retain(); n != 1 {
		t.Fatalf("Retain = %d, want 1", n)
	}
	h.Retain()
	if h.HandleCount() != 2 {
		t.Fatalf("handles = %d, want 2", h.HandleCount())
	}
	h.Release()
	h.Release()
	if h.HandleCount() != 0 {
		t.Fatalf("handles = %d, want 0", h.HandleCount())
	}
	// Releasing below zero must stay at zero.
	h.Release()
	if h.HandleCount() != 0 {
		t.Fatalf("handles went negative")
	}
}

func TestHeaderSetColorGenerationPreserveOtherFields(t *testing.T) {
	var h Header
	h.Init(KindClosure, White0)
	h.Retain()
	h.SetColor(Black)
	h.SetGeneration(1)

	if h.Kind() != KindClosure {
		t.Fatalf("kind clobbered: %v", h.Kind())
	}
	if h.HandleCount() != 1 {
		t.Fatalf("handle count clobbered: %d", h.HandleCount())
	}
	if h.Color() != Black {
		t.Fatalf("color = %v, want Black", h.Color())
	}
	if h.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", h.Generation())
	}
}

func TestHeaderOwnerRoundTrip(t *testing.T) {
	s := &StringObj{}
	s.Init(KindString, White0)
	s.SetOwner(s)

	if HeaderOf(s).Owner() != Object(s) {
		t.Fatal("Owner() did not round trip to the object that set it")
	}
}

func TestScanVector(t *testing.T) {
	var elemType ReflectionIntegralObj
	elemType.Init(KindReflectionIntegral, White0)

	var s1, s2 StringObj
	s1.Init(KindString, White0)
	s2.Init(KindString, White0)

	v := &VectorObj{ElemType: &elemType}
	v.Header.Init(KindVector, White0)
	v.Elems = []Slot{{Ref: &s1}, {Ref: &s2}}
	v.SetSize(2)

	var seen []Object
	Scan(v, func(o Object) { seen = append(seen, o) })

	if len(seen) != 3 { // elem type + 2 strings
		t.Fatalf("scanned %d refs, want 3", len(seen))
	}
}
