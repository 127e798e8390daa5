package trace

import "testing"

func TestHitLoopAccumulatesPerSite(t *testing.T) {
	r := New()
	r.HitLoop(1, 0)
	r.HitLoop(1, 0)
	r.HitLoop(1, 1)
	r.HitLoop(2, 0)

	if got := r.LoopHits(1, 0); got != 2 {
		t.Fatalf("LoopHits(1,0) = %d, want 2", got)
	}
	if got := r.LoopHits(1, 1); got != 1 {
		t.Fatalf("LoopHits(1,1) = %d, want 1", got)
	}
	if got := r.LoopHits(2, 0); got != 1 {
		t.Fatalf("LoopHits(2,0) = %d, want 1", got)
	}
}

func TestHintReportsOnceThresholdCrossed(t *testing.T) {
	r := NewWithThreshold(3)
	if _, hot := r.Hint(1); hot {
		t.Fatal("expected no hint before any hits")
	}
	r.HitLoop(1, 5)
	r.HitLoop(1, 5)
	if _, hot := r.Hint(1); hot {
		t.Fatal("expected no hint below threshold")
	}
	r.HitLoop(1, 5)

	loopID, hot := r.Hint(1)
	if !hot || loopID != 5 {
		t.Fatalf("Hint = (%d, %v), want (5, true)", loopID, hot)
	}
}

func TestHintReportsEachSiteOnlyOnce(t *testing.T) {
	r := NewWithThreshold(1)
	r.HitLoop(1, 0)

	if _, hot := r.Hint(1); !hot {
		t.Fatal("expected a hint on first poll")
	}
	if _, hot := r.Hint(1); hot {
		t.Fatal("expected no repeat hint for an already-reported site")
	}

	r.HitLoop(1, 0)
	if _, hot := r.Hint(1); hot {
		t.Fatal("expected the site to stay reported even after more hits")
	}
}

func TestHintIsolatesFunctions(t *testing.T) {
	r := NewWithThreshold(1)
	r.HitLoop(1, 0)

	if _, hot := r.Hint(2); hot {
		t.Fatal("expected function 2's hint to ignore function 1's hits")
	}
}

func TestHitGuardAndResetIndependent(t *testing.T) {
	r := NewWithThreshold(1)
	r.HitLoop(1, 0)
	r.HitGuard(1, 0)
	if r.GuardHits(1, 0) != 1 {
		t.Fatalf("GuardHits = %d, want 1", r.GuardHits(1, 0))
	}
	r.Reset()
	if r.LoopHits(1, 0) != 0 || r.GuardHits(1, 0) != 0 {
		t.Fatal("expected Reset to clear both counters")
	}
}
