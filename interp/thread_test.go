package interp_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/internal/asm"
	"github.com/nyaavm/nyaavm/vm"
	"github.com/nyaavm/nyaavm/vmerr"
)

func mustAssemble(t *testing.T, src string, opts asm.Options) *asm.Module {
	t.Helper()
	mod, err := asm.Assemble(src, opts)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return mod
}

func TestArithmeticAndReturn(t *testing.T) {
	mod := mustAssemble(t, `
func main
	frame 16 0
	load_imm_i64 0 20
	load_imm_i64 8 22
	add_i64 0 0 8
	ret
endfunc
`, asm.Options{})

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadModule(mod.Blob); err != nil {
		t.Fatal(err)
	}
	kind, err := v.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if kind != vmerr.KindSuccess {
		t.Fatalf("kind = %v, want KindSuccess", kind)
	}
}

func TestLoopAccumulatesAndCallsNative(t *testing.T) {
	mod := mustAssemble(t, `
extern capture (9)!
func main
	frame 24 0
	load_imm_i64 0 0
	load_imm_i64 8 5
top:
	add_imm_i64 0 0 1
	cmp_lt_i64 16 0 8
	jnz top
	call 0 0 capture
	ret
endfunc
`, asm.Options{})

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var captured int64
	for _, ext := range mod.Externs {
		if err := v.RegisterNative(ext.Name, vm.NativeImpl{
			Signature: ext.Signature,
			Fn: func(args []heap.Slot) (heap.Slot, error) {
				captured = int64(binary.LittleEndian.Uint64(args[0].Prim[:]))
				return heap.Slot{}, nil
			},
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := v.LoadModule(mod.Blob); err != nil {
		t.Fatal(err)
	}
	kind, err := v.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if kind != vmerr.KindSuccess {
		t.Fatalf("kind = %v, want KindSuccess", kind)
	}
	if captured != 5 {
		t.Fatalf("captured = %d, want 5", captured)
	}
}

func TestDivisionByZeroTraps(t *testing.T) {
	mod := mustAssemble(t, `
func main
	frame 16 0
	load_imm_i64 0 10
	load_imm_i64 8 0
	div_i64 0 0 8
	ret
endfunc
`, asm.Options{})

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadModule(mod.Blob); err != nil {
		t.Fatal(err)
	}
	kind, err := v.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error dividing by zero")
	}
	if kind != vmerr.KindDivZero {
		t.Fatalf("kind = %v, want KindDivZero", kind)
	}
}

func TestUnboundedRecursionOverflowsTheCallStack(t *testing.T) {
	mod := mustAssemble(t, `
func loopy
	frame 0 0
	call 0 0 loopy
	ret
endfunc
`, asm.Options{})

	v, err := vm.New(vm.Options{MaxCallDepth: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadModule(mod.Blob); err != nil {
		t.Fatal(err)
	}
	kind, err := v.Run(context.Background())
	if err == nil {
		t.Fatal("expected unbounded recursion to overflow the call stack")
	}
	if kind != vmerr.KindStackOverflow {
		t.Fatalf("kind = %v, want KindStackOverflow", kind)
	}
}
