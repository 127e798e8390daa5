package register

import "testing"

func TestFindOrInsertCreatesOnce(t *testing.T) {
	r := New()
	e1 := r.FindOrInsert("main", 4, KindNormal)
	e2 := r.FindOrInsert("main", 999, KindNative)
	if e1 != e2 {
		t.Fatal("expected the same entry on repeated FindOrInsert")
	}
	if e1.OffsetInOGlobal != 4 {
		t.Fatalf("offset = %d, want 4 (first insert wins)", e1.OffsetInOGlobal)
	}
}

func TestFindMissing(t *testing.T) {
	r := New()
	if r.Find("nope") != nil {
		t.Fatal("expected nil for unregistered name")
	}
}

func TestRegisterNativeLazyDiscovery(t *testing.T) {
	r := New()
	e := r.RegisterNative("::lang::print", 8)
	if e.Kind != KindNative {
		t.Fatalf("Kind = %v, want KindNative", e.Kind)
	}
	again := r.RegisterNative("::lang::print", 999)
	if again.OffsetInOGlobal != 8 {
		t.Fatal("expected existing entry's offset to be preserved")
	}
}

func TestAllNormalFunctionsFiltersKind(t *testing.T) {
	r := New()
	r.FindOrInsert("a", 0, KindNormal)
	r.FindOrInsert("b", 1, KindNative)
	r.FindOrInsert("c", 2, KindNormal)

	all := r.AllNormalFunctions()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	for _, e := range all {
		if e.Kind != KindNormal {
			t.Fatalf("unexpected kind %v in normal-function list", e.Kind)
		}
	}
}
