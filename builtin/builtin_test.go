package builtin

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/register"
	"github.com/nyaavm/nyaavm/segment"
)

type fakeAllocator struct{}

func (fakeAllocator) CurrentWhite() heap.Color { return heap.White0 }
func (fakeAllocator) Track(o heap.Object)      {}

func TestRegisterAllInstallsEveryName(t *testing.T) {
	oGlobal := segment.NewObject(true)
	fac := factory.New(fakeAllocator{})
	reg := register.New()

	if err := RegisterAll(reg, oGlobal, fac, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"::lang::print", "::lang::println_i64", "::lang::println_f64",
		"::lang::clock_ms", "::lang::rand_u64", "::lang::id_i64",
	} {
		if reg.Find(name) == nil {
			t.Errorf("expected %q to be registered", name)
		}
	}
}

func TestPrintWritesStringBytes(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrintHost(&buf)
	fac := factory.New(fakeAllocator{})
	s := fac.NewString([]byte("hello"))

	if _, err := h.print([]heap.Slot{{Ref: s}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello" {
		t.Fatalf("buf = %q, want %q", buf.String(), "hello")
	}
}

func TestPrintRejectsNonString(t *testing.T) {
	h := NewPrintHost(&bytes.Buffer{})
	fac := factory.New(fakeAllocator{})
	var ty heap.ReflectionIntegralObj
	ty.Init(heap.KindReflectionIntegral, heap.White0)
	_ = fac // only used for parity with other tests

	if _, err := h.print([]heap.Slot{{Ref: &ty}}); err == nil {
		t.Fatal("expected an error for a non-string argument")
	}
}

func TestPrintlnI64FormatsDecimal(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrintHost(&buf)
	if _, err := h.printlnI64([]heap.Slot{{Prim: slotFromInt64(-7).Prim}}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "-7" {
		t.Fatalf("buf = %q, want -7", buf.String())
	}
}

func TestIdentityReturnsArgumentUnchanged(t *testing.T) {
	h := NewIdentityHost()
	arg := heap.Slot{Prim: slotFromInt64(99).Prim}
	out, err := h.idI64([]heap.Slot{arg})
	if err != nil {
		t.Fatal(err)
	}
	if int64FromSlot(out) != 99 {
		t.Fatalf("got %d, want 99", int64FromSlot(out))
	}
}

func TestRandU64ReturnsWithoutError(t *testing.T) {
	h := NewRandomHost()
	if _, err := h.randU64(nil); err != nil {
		t.Fatal(err)
	}
}

func TestClockMsIncreasesMonotonically(t *testing.T) {
	h := NewClockHost()
	a, err := h.clockMs(nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.clockMs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if int64FromSlot(b) < int64FromSlot(a) {
		t.Fatal("expected clock to be non-decreasing")
	}
}
