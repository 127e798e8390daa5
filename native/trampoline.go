package native

import (
	"unsafe"

	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/interp"
	"github.com/nyaavm/nyaavm/stack"
	"github.com/nyaavm/nyaavm/vmerr"
)

// Impl is the Go-side implementation an embedder registers for a native
// function: it receives already-marshalled arguments in signature order
// and returns a single value. An error surfaces to the guest as a runtime
// trap rather than a language-level Error object — native code is host
// code, trusted by construction, not guest bytecode that can fail in an
// expected way.
type Impl func(args []heap.Slot) (heap.Slot, error)

// Trampoline builds the interp.NativeTrampoline a NativeFunctionObj.Warper
// holds once the bridge has resolved it. Argument slots sit
// at non-negative offsets from the frame Thread.callNative already
// adjusted to the signature's own size; the result is written to the slot
// immediately preceding that frame's base, mirroring the return-slot
// convention an ordinary call/ret pair uses (package stack's "the callee
// writes to the slot immediately preceding its own frame").
func Trampoline(sig Signature, impl Impl) interp.NativeTrampoline {
	return func(t *interp.Thread) *vmerr.Error {
		args := make([]heap.Slot, len(sig.Args))
		primOffset, objOffset := 0, 0
		for i, k := range sig.Args {
			if k.IsObject() {
				args[i] = heap.Slot{Ref: t.O.Get(objOffset)}
				objOffset++
				continue
			}
			width := k.PrimSize()
			args[i] = heap.Slot{Prim: readPrimBytes(t.P, primOffset, width)}
			primOffset += width
		}

		result, err := impl(args)
		if err != nil {
			return vmerr.New(vmerr.PhaseNative, vmerr.KindPanic).
				Cause(err).
				Detail("native call failed").
				Build()
		}

		switch {
		case sig.Return == KindVoid:
			// no result slot to fill
		case sig.Return.IsObject():
			t.O.Set(-1, result.Ref)
		default:
			width := sig.Return.PrimSize()
			writePrimBytes(t.P, -width, width, result.Prim)
		}
		return nil
	}
}

// readPrimBytes/writePrimBytes mirror interp's own readPrimSlot helper: a
// primitive is always carried as 8 raw bytes in a heap.Slot regardless of
// its declared width, with only the low `width` bytes meaningful.
func readPrimBytes(s *stack.Primitive, offset, width int) [8]byte {
	var b [8]byte
	switch width {
	case 1:
		b[0] = stack.Get[uint8](s, offset)
	case 2:
		*(*uint16)(unsafe.Pointer(&b[0])) = stack.Get[uint16](s, offset)
	case 4:
		*(*uint32)(unsafe.Pointer(&b[0])) = stack.Get[uint32](s, offset)
	case 8:
		*(*uint64)(unsafe.Pointer(&b[0])) = stack.Get[uint64](s, offset)
	}
	return b
}

func writePrimBytes(s *stack.Primitive, offset, width int, b [8]byte) {
	switch width {
	case 1:
		stack.Set(s, offset, b[0])
	case 2:
		stack.Set(s, offset, *(*uint16)(unsafe.Pointer(&b[0])))
	case 4:
		stack.Set(s, offset, *(*uint32)(unsafe.Pointer(&b[0])))
	case 8:
		stack.Set(s, offset, *(*uint64)(unsafe.Pointer(&b[0])))
	}
}
