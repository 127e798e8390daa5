package stack

import (
	"testing"

	"github.com/nyaavm/nyaavm/heap"
)

func TestObjectPushGet(t *testing.T) {
	s := NewObject(true)
	var str heap.StringObj
	str.Init(heap.KindString, heap.White0)

	off := s.Push(&str)
	if got := s.Get(off); got != heap.Object(&str) {
		t.Fatal("round trip mismatch")
	}
}

func TestObjectNilSlotAllowed(t *testing.T) {
	s := NewObject(true)
	off := s.Advance(1)
	if got := s.Get(off); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestObjectFrameAdjust(t *testing.T) {
	s := NewObject(true)
	s.AdjustFrame(0, 4)
	s.AdjustFrame(4, 2)
	if s.Base() != 4 || s.Top() != 2 {
		t.Fatalf("base/top = %d/%d, want 4/2", s.Base(), s.Top())
	}
}
