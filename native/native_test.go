package native

import (
	"testing"
	"unsafe"

	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/interp"
	"github.com/nyaavm/nyaavm/register"
	"github.com/nyaavm/nyaavm/rtype"
	"github.com/nyaavm/nyaavm/segment"
	"github.com/nyaavm/nyaavm/stack"
)

func TestParseSignature(t *testing.T) {
	tests := []struct {
		sig     string
		wantErr bool
		args    []Kind
		ret     Kind
	}{
		{sig: "(z)!", args: []Kind{KindString}, ret: KindVoid},
		{sig: "()9", args: nil, ret: KindI64},
		{sig: "(9)9", args: []Kind{KindI64}, ret: KindI64},
		{sig: "(z", wantErr: true},
		{sig: "(q)!", wantErr: true},
		{sig: "(9)q", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			sig, err := Parse(tt.sig)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.sig)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sig.Return != tt.ret {
				t.Fatalf("Return = %q, want %q", sig.Return, tt.ret)
			}
			if len(sig.Args) != len(tt.args) {
				t.Fatalf("Args = %v, want %v", sig.Args, tt.args)
			}
		})
	}
}

func TestSignatureArgSizes(t *testing.T) {
	sig, err := Parse("(9z5)!")
	if err != nil {
		t.Fatal(err)
	}
	if got := sig.PrimArgsSize(); got != 8+4 {
		t.Fatalf("PrimArgsSize() = %d, want 12", got)
	}
	if got := sig.ObjArgsSize(); got != 1 {
		t.Fatalf("ObjArgsSize() = %d, want 1", got)
	}
}

// fakeAllocator satisfies factory.Allocator without pulling in package gc,
// mirroring factory's own test helper of the same name.
type fakeAllocator struct{}

func (fakeAllocator) CurrentWhite() heap.Color { return heap.White0 }
func (fakeAllocator) Track(o heap.Object)      {}

func newTestThread(t *testing.T) (*interp.Thread, *factory.Factory) {
	t.Helper()
	pGlobal := segment.NewPrimitive(true)
	oGlobal := segment.NewObject(true)
	f := factory.New(fakeAllocator{})
	reg := register.New()
	types := rtype.NewTable(oGlobal)
	return interp.NewThread(pGlobal, oGlobal, f, nil, reg, types), f
}

func TestTrampolineRoundTripsIntegers(t *testing.T) {
	sig, err := Parse("(9)9")
	if err != nil {
		t.Fatal(err)
	}
	impl := func(args []heap.Slot) (heap.Slot, error) {
		n := *(*int64)(unsafe.Pointer(&args[0].Prim[0]))
		var out heap.Slot
		*(*int64)(unsafe.Pointer(&out.Prim[0])) = n * 2
		return out, nil
	}
	tramp := Trampoline(sig, impl)

	th, _ := newTestThread(t)
	th.P.AdjustFrame(0, 16)
	th.P.AdjustFrame(8, sig.PrimArgsSize())
	stack.Set[int64](th.P, 0, 21)

	if err := tramp(th); err != nil {
		t.Fatalf("trampoline error: %v", err)
	}
	if got := stack.Get[int64](th.P, -8); got != 42 {
		t.Fatalf("result = %d, want 42", got)
	}
}

func TestTrampolinePassesStringArgument(t *testing.T) {
	sig, err := Parse("(z)!")
	if err != nil {
		t.Fatal(err)
	}
	var seen string
	impl := func(args []heap.Slot) (heap.Slot, error) {
		s, ok := args[0].Ref.(*heap.StringObj)
		if !ok {
			t.Fatal("expected a *heap.StringObj argument")
		}
		seen = string(s.Bytes)
		return heap.Slot{}, nil
	}
	tramp := Trampoline(sig, impl)

	th, f := newTestThread(t)
	s := f.NewString([]byte("hi"))
	th.O.AdjustFrame(0, 1)
	th.O.Set(0, s)
	th.O.AdjustFrame(0, sig.ObjArgsSize())

	if err := tramp(th); err != nil {
		t.Fatalf("trampoline error: %v", err)
	}
	if seen != "hi" {
		t.Fatalf("impl saw %q, want %q", seen, "hi")
	}
}

func TestBindCreatesFreshEntry(t *testing.T) {
	oGlobal := segment.NewObject(true)
	f := factory.New(fakeAllocator{})
	reg := register.New()

	impl := func(args []heap.Slot) (heap.Slot, error) { return heap.Slot{}, nil }
	fn, err := Bind(reg, oGlobal, f, "::lang::print", "(z)!", impl)
	if err != nil {
		t.Fatal(err)
	}
	entry := reg.Find("::lang::print")
	if entry == nil {
		t.Fatal("expected a registered entry")
	}
	if oGlobal.Get(entry.OffsetInOGlobal) != heap.Object(fn) {
		t.Fatal("expected the bound function installed at its o_global slot")
	}
	if _, ok := fn.Warper.(interp.NativeTrampoline); !ok {
		t.Fatal("expected Warper to hold a resolved NativeTrampoline")
	}
}

func TestBindReusesPlaceholderEntry(t *testing.T) {
	oGlobal := segment.NewObject(true)
	f := factory.New(fakeAllocator{})
	reg := register.New()

	placeholder := f.NewNativeFunction("::lang::print", "(z)!", 0, 1, nil, nil)
	offset := oGlobal.Advance(1)
	oGlobal.Set(offset, placeholder)
	reg.RegisterNative("::lang::print", offset)

	impl := func(args []heap.Slot) (heap.Slot, error) { return heap.Slot{}, nil }
	fn, err := Bind(reg, oGlobal, f, "::lang::print", "(z)!", impl)
	if err != nil {
		t.Fatal(err)
	}
	if fn != placeholder {
		t.Fatal("expected Bind to reuse the loader's placeholder object")
	}
	if fn.Warper == nil {
		t.Fatal("expected Bind to fill in the placeholder's Warper")
	}
}
