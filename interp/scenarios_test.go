package interp_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/gc"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/internal/asm"
	"github.com/nyaavm/nyaavm/vm"
	"github.com/nyaavm/nyaavm/vmerr"
)

// These four cover the end-to-end scenarios that TestLoopAccumulatesAndCallsNative's
// sibling tests in this file don't: arithmetic printed through the native
// bridge, a map initializer/lookup round-trip, a closure escaping through an
// upvalue, and the native bridge carrying true 64-bit extremes. The other
// two scenarios (GC under allocation pressure, a weak map losing an entry)
// live in gc/gc_test.go, where the collector's phase machinery is directly
// drivable.

// Scenario: 2+3 computed in bytecode, printed through ::lang::println_i64.
func TestScenarioArithmeticPrintsThroughNativeBridge(t *testing.T) {
	mod, err := asm.Assemble(`
extern print (z)!
extern println_i64 (9)!
func main
	frame 16 0
	load_imm_i64 0 2
	load_imm_i64 8 3
	add_i64 0 0 8
	call 0 0 println_i64
	ret
endfunc
`, asm.Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := v.RegisterBuiltins(&out); err != nil {
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
	if got := out.String(); got != "5\n" {
		t.Fatalf("output = %q, want %q", got, "5\n")
	}
}

// Scenario: a map is created, seeded with one entry, then looked back up by
// its key — oop.map, oop.map_put, oop.map_get and oop.union_unbox end to
// end, exercising the single largest file in the interpreter with no
// existing execution coverage of its own.
func TestScenarioMapInitializerAndGet(t *testing.T) {
	var keyType heap.ReflectionIntegralObj
	keyType.Init(heap.KindReflectionIntegral, heap.White0)
	keyType.BitWide, keyType.Signed = 64, true

	var valueType heap.ReflectionIntegralObj
	valueType.Init(heap.KindReflectionIntegral, heap.White0)
	valueType.BitWide, valueType.Signed = 64, true

	mod, err := asm.Assemble(`
extern print (z)!
extern println_i64 (9)!
func main
	frame 16 2
	load_imm_i64 0 7
	load_imm_i64 8 42
	oop.map 0 0 1
	oop.map_put 0 0 8
	oop.map_get 1 0 0
	oop.union_unbox 0 1 1
	call 0 0 println_i64
	ret
endfunc
`, asm.Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	mod.Blob.ReflectedTypes = []heap.Object{&keyType, &valueType}

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := v.RegisterBuiltins(&out); err != nil {
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
	if got := out.String(); got != "42\n" {
		t.Fatalf("output = %q, want %q", got, "42\n")
	}
}

// Scenario: a closure captures an enclosing primitive local by value, is
// closed via close_fn, then invoked through call_val; the inner function
// increments the captured binding in the caller's own frame (pDelta=0, the
// shared-address-space calling convention TestLoopAccumulatesAndCallsNative
// also relies on) and the result is observed back in the outer frame.
func TestScenarioClosureCapturesUpvalue(t *testing.T) {
	innerMod, err := asm.Assemble(`
func inner
	frame 8 0
	load_i64 0 up_prim 0
	add_imm_i64 0 0 1
	ret
endfunc
`, asm.Options{})
	if err != nil {
		t.Fatalf("assemble inner: %v", err)
	}

	// A throwaway factory/collector just to build the closure fixture; it
	// never participates in the VM's own collector and is never swept by
	// it, which is fine for an object that only needs to survive one Run.
	scratch := factory.New(gc.New(func(func(heap.Object)) {}, nil))
	innerFb := innerMod.Blob.Functions[0]
	innerFn := scratch.NewNormalFunction(innerFb.Name, innerFb.ID, innerFb.ConstObjTable, innerFb.ConstPrimBlob, innerFb.Code, innerFb.Debug)
	closure := scratch.NewClosure(innerFn, 1)
	closure.Open = true
	closure.UpValues[0] = heap.UpvalDescriptor{UniqueID: 1, Offset: 0, OnObjStack: false}

	mainMod, err := asm.Assemble(`
extern print (z)!
extern println_i64 (9)!
func main
	frame 8 1
	load_imm_i64 0 41
	load_o 0 const_object 0
	close_fn 0
	call_val 0 0 0
	call 0 0 println_i64
	ret
endfunc
`, asm.Options{})
	if err != nil {
		t.Fatalf("assemble main: %v", err)
	}
	mainMod.Blob.Functions[0].ConstObjTable = []heap.Object{closure}

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := v.RegisterBuiltins(&out); err != nil {
		t.Fatal(err)
	}
	if err := v.LoadModule(mainMod.Blob); err != nil {
		t.Fatal(err)
	}
	kind, err := v.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if kind != vmerr.KindSuccess {
		t.Fatalf("kind = %v, want KindSuccess", kind)
	}
	if got := out.String(); got != "42\n" {
		t.Fatalf("output = %q, want %q", got, "42\n")
	}
}

// Scenario: five int64 extremes round-trip through ::lang::id_i64 and back
// out through println_i64, including the two values load_imm_i64's 32-bit
// immediate can't represent — which is why each is read out of
// const_prim instead, the only segment that carries a true 64-bit literal.
func TestScenarioNativeBridgeRoundTripsInt64Extremes(t *testing.T) {
	values := []int64{0, 1, -1, math.MinInt64, math.MaxInt64}
	primBlob := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(primBlob[i*8:], uint64(v))
	}

	mod, err := asm.Assemble(`
extern print (z)!
extern println_i64 (9)!
extern println_f64 (6)!
extern clock_ms ()9
extern rand_u64 ()9
extern id_i64 (9)9
func main
	frame 16 0
	load_i64 8 const_prim 0
	call 8 0 id_i64
	call 0 0 println_i64
	load_i64 8 const_prim 8
	call 8 0 id_i64
	call 0 0 println_i64
	load_i64 8 const_prim 16
	call 8 0 id_i64
	call 0 0 println_i64
	load_i64 8 const_prim 24
	call 8 0 id_i64
	call 0 0 println_i64
	load_i64 8 const_prim 32
	call 8 0 id_i64
	call 0 0 println_i64
	ret
endfunc
`, asm.Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	mod.Blob.Functions[0].ConstPrimBlob = primBlob

	v, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := v.RegisterBuiltins(&out); err != nil {
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
	want := "0\n1\n-1\n-9223372036854775808\n9223372036854775807\n"
	if got := out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}
