package gc_test

import (
	"testing"

	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/gc"
	"github.com/nyaavm/nyaavm/heap"
)

func TestFullGCReclaimsUnreachableSurvivesReachable(t *testing.T) {
	var root *heap.VectorObj
	var reclaimedNames []string
	var collector *gc.GC
	collector = gc.New(func(visit func(heap.Object)) {
		if root != nil {
			visit(root)
		}
	}, func(o heap.Object) {
		if s, ok := o.(*heap.StringObj); ok {
			reclaimedNames = append(reclaimedNames, string(s.Bytes))
		}
	})

	f := factory.New(collector)

	root = f.NewVector(1, nil)
	kept := f.NewString([]byte("kept"))
	root.Elems[0] = heap.Slot{Ref: kept}
	root.SetSize(1)

	f.NewString([]byte("garbage, definitely over the intern threshold for a distinct allocation"))

	collector.FullGC()
	collector.FullGC()

	if heap.HeaderOf(kept).Color() == heap.White0 || heap.HeaderOf(kept).Color() == heap.White1 {
		t.Fatalf("reachable string was left white after two full cycles")
	}

	found := false
	for _, n := range reclaimedNames {
		if n == "garbage, definitely over the intern threshold for a distinct allocation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("unreachable string was never reclaimed, reclaimed=%v", reclaimedNames)
	}
}

func TestPinProtectsUnreachableObject(t *testing.T) {
	reclaimed := false
	collector := gc.New(func(visit func(heap.Object)) {}, func(o heap.Object) { reclaimed = true })
	f := factory.New(collector)

	orphan := f.NewString([]byte("pinned but otherwise unreachable"))
	collector.Pin(orphan)

	collector.FullGC()
	collector.FullGC()
	collector.FullGC()

	if reclaimed {
		t.Fatal("a pinned object was reclaimed despite having no root path")
	}

	collector.Unpin(orphan)
	collector.FullGC()
	collector.FullGC()

	if !reclaimed {
		t.Fatal("object was not reclaimed after its handle was released")
	}
}

func TestWriteBarrierGraysWhiteReferentStoredIntoBlack(t *testing.T) {
	collector := gc.New(func(visit func(heap.Object)) {}, nil)
	f := factory.New(collector)

	target := f.NewString([]byte("target"))
	other := f.NewString([]byte("other"))

	heap.HeaderOf(target).SetColor(heap.Black)
	collector.WriteBarrier(target, other)

	if heap.HeaderOf(other).Color() != heap.Gray {
		t.Fatalf("write barrier did not gray a white referent stored into a black object, got %v", heap.HeaderOf(other).Color())
	}
}

func TestWriteBarrierPromotesYoungIntoOldGeneration(t *testing.T) {
	collector := gc.New(func(visit func(heap.Object)) {}, nil)
	f := factory.New(collector)

	old := f.NewString([]byte("old-gen holder"))
	heap.HeaderOf(old).SetGeneration(1)

	young := f.NewString([]byte("young referent"))

	collector.WriteBarrier(old, young)

	if heap.HeaderOf(young).Generation() != 1 {
		t.Fatalf("young referent stored into an old-generation holder was not promoted, generation=%d", heap.HeaderOf(young).Generation())
	}
}

func TestPhaseStringsCoverAllNamedPhases(t *testing.T) {
	names := []string{"Pause", "MarkRoot", "Remark", "Propagate", "Atomic", "SweepWeak", "SweepYoung", "SweepOld", "Finalize"}
	phases := []gc.Phase{gc.PhasePause, gc.PhaseMarkRoot, gc.PhaseRemark, gc.PhasePropagate, gc.PhaseAtomic, gc.PhaseSweepWeak, gc.PhaseSweepYoung, gc.PhaseSweepOld, gc.PhaseFinalize}
	for i, p := range phases {
		if p.String() != names[i] {
			t.Fatalf("phase %d stringified to %q, want %q", i, p.String(), names[i])
		}
	}
}

// One rooted, interned string survives a full cycle under heavy transient
// allocation pressure; every transient string is reclaimed and the intern
// set still holds only the rooted string.
func TestFullGCUnderPressureKeepsOneRootedStringAmongManyTransients(t *testing.T) {
	const transientCount = 100000

	var root *heap.StringObj
	reclaimed := 0
	collector := gc.New(func(visit func(heap.Object)) {
		if root != nil {
			visit(root)
		}
	}, func(o heap.Object) {
		if _, ok := o.(*heap.StringObj); ok {
			reclaimed++
		}
	})

	f := factory.New(collector)
	root = f.GetOrNewString([]byte("kept"))

	for i := 0; i < transientCount; i++ {
		f.NewString([]byte("garbage, definitely over the intern threshold for a distinct allocation"))
	}

	collector.FullGC()
	collector.FullGC()

	if reclaimed != transientCount {
		t.Fatalf("reclaimed %d transient strings, want %d", reclaimed, transientCount)
	}
	if f.InternedCount() != 1 {
		t.Fatalf("InternedCount() = %d, want 1", f.InternedCount())
	}
	if c := heap.HeaderOf(root).Color(); c == heap.White0 || c == heap.White1 {
		t.Fatalf("rooted interned string was left white after two full cycles, color=%v", c)
	}
}

// A HashMap registered with RegisterWeakMap drops an entry whose value
// side has no other root, during the SweepWeak phase of a full cycle.
// The entry is injected between Propagate/Atomic and SweepWeak so the
// map's own (unconditionally strong) Scan never marks it first — mirroring
// an entry whose value became unreachable earlier in the same cycle.
func TestWeakMapDropsEntryOnceValueUnreachable(t *testing.T) {
	var root *heap.HashMapObj
	collector := gc.New(func(visit func(heap.Object)) {
		if root != nil {
			visit(root)
		}
	}, nil)
	f := factory.New(collector)

	var keyType heap.ReflectionIntegralObj
	keyType.Init(heap.KindReflectionIntegral, heap.White0)
	keyType.BitWide, keyType.Signed = 64, true

	var valueType heap.ReflectionStringObj
	valueType.Init(heap.KindReflectionString, heap.White0)

	m := f.NewHashMap(1, heap.MinHashMapSlots, &keyType, &valueType)
	m.WeakValue = true
	root = m
	collector.RegisterWeakMap(m)

	orphan := f.NewString([]byte("ephemeral"))

	tick := 0
	for collector.Phase() != gc.PhaseSweepWeak {
		tick++
		collector.Step(tick)
	}

	m.Slots[0] = &heap.PairNode{Key: heap.Slot{Prim: [8]byte{1}}, Value: heap.Slot{Ref: orphan}}
	m.SetSize(1)

	tick++
	collector.Step(tick)

	if m.Size() != 0 {
		t.Fatalf("map size = %d after SweepWeak, want 0", m.Size())
	}
	if m.Slots[0] != nil {
		t.Fatalf("weak entry not dropped: slot still holds %+v", m.Slots[0])
	}

	collector.FullGC()
}
