package interp

import (
	"unsafe"

	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/segment"
	"github.com/nyaavm/nyaavm/stack"
	"github.com/nyaavm/nyaavm/vmerr"
)

// Resolved layout: both
// use the same three word fields so the handler code is shared — Result
// is always the local-stack slot (dest for load, src for store),
// Operand1 is the bytecode.Segment tag, Operand2 is the segment-relative
// offset.

func init() {
	register(bytecode.OpLoadI8, loadPrim[int8])
	register(bytecode.OpLoadI16, loadPrim[int16])
	register(bytecode.OpLoadI32, loadPrim[int32])
	register(bytecode.OpLoadI64, loadPrim[int64])
	register(bytecode.OpLoadF32, loadPrim[float32])
	register(bytecode.OpLoadF64, loadPrim[float64])
	register(bytecode.OpLoadO, opLoadO)

	register(bytecode.OpStoreI8, storePrim[int8])
	register(bytecode.OpStoreI16, storePrim[int16])
	register(bytecode.OpStoreI32, storePrim[int32])
	register(bytecode.OpStoreI64, storePrim[int64])
	register(bytecode.OpStoreF32, storePrim[float32])
	register(bytecode.OpStoreF64, storePrim[float64])
	register(bytecode.OpStoreO, opStoreO)

	register(bytecode.OpLoadImmI8, loadImm[int8])
	register(bytecode.OpLoadImmI16, loadImm[int16])
	register(bytecode.OpLoadImmI32, loadImm[int32])
	register(bytecode.OpLoadImmI64, loadImm[int64])

	register(bytecode.OpMovI8, movPrim[int8])
	register(bytecode.OpMovI16, movPrim[int16])
	register(bytecode.OpMovI32, movPrim[int32])
	register(bytecode.OpMovI64, movPrim[int64])
	register(bytecode.OpMovF32, movPrim[float32])
	register(bytecode.OpMovF64, movPrim[float64])
	register(bytecode.OpMovO, opMovO)
}

func loadPrim[T stack.Numeric](t *Thread, w bytecode.Word) *vmerr.Error {
	dest := int(w.Result())
	seg := bytecode.Segment(w.Operand1())
	offset := int(w.Operand2())
	v, err := readPrimSeg[T](t, seg, offset)
	if err != nil {
		return err
	}
	stack.Set(t.P, dest, v)
	return nil
}

func storePrim[T stack.Numeric](t *Thread, w bytecode.Word) *vmerr.Error {
	src := int(w.Result())
	seg := bytecode.Segment(w.Operand1())
	offset := int(w.Operand2())
	v := stack.Get[T](t.P, src)
	return writePrimSeg[T](t, seg, offset, v)
}

// loadImm writes a sign-extended 32-bit immediate (Operand2) into a local
// primitive slot — the only load operator whose source is the
// instruction stream itself rather than a segment.
func loadImm[T stack.Numeric](t *Thread, w bytecode.Word) *vmerr.Error {
	dest := int(w.Result())
	stack.Set(t.P, dest, T(w.Operand2()))
	return nil
}

func opLoadO(t *Thread, w bytecode.Word) *vmerr.Error {
	dest := int(w.Result())
	seg := bytecode.Segment(w.Operand1())
	offset := int(w.Operand2())
	v, err := readObjSeg(t, seg, offset)
	if err != nil {
		return err
	}
	t.O.Set(dest, v)
	return nil
}

func opStoreO(t *Thread, w bytecode.Word) *vmerr.Error {
	src := int(w.Result())
	seg := bytecode.Segment(w.Operand1())
	offset := int(w.Operand2())
	v := t.O.Get(src)
	return writeObjSeg(t, seg, offset, v)
}

// movPrim/opMovO move a value already on the local stack to another local
// offset. Wide-encoded:
// WideA is the source offset, WideB the destination.
func movPrim[T stack.Numeric](t *Thread, w bytecode.Word) *vmerr.Error {
	src, dest := int(w.WideA()), int(w.WideB())
	stack.Set(t.P, dest, stack.Get[T](t.P, src))
	return nil
}

func opMovO(t *Thread, w bytecode.Word) *vmerr.Error {
	src, dest := int(w.WideA()), int(w.WideB())
	t.O.Set(dest, t.O.Get(src))
	return nil
}

func readPrimSeg[T stack.Numeric](t *Thread, seg bytecode.Segment, offset int) (T, *vmerr.Error) {
	var zero T
	switch seg {
	case bytecode.GlobalPrim:
		return segment.Get[T](t.PGlobal, offset), nil
	case bytecode.ConstPrim:
		if err := checkPrimBlob(t.constPrim, offset, int(unsafe.Sizeof(zero))); err != nil {
			return zero, err
		}
		return *(*T)(unsafe.Pointer(&t.constPrim[offset])), nil
	case bytecode.UpPrim:
		uv, err := t.resolvedUpvalue(offset)
		if err != nil {
			return zero, err
		}
		return *(*T)(unsafe.Pointer(&uv.Value.Prim[0])), nil
	case bytecode.LocalPrim:
		return stack.Get[T](t.P, offset), nil
	default:
		return zero, vmerr.BadBitCode("load: segment does not hold primitive data")
	}
}

func writePrimSeg[T stack.Numeric](t *Thread, seg bytecode.Segment, offset int, v T) *vmerr.Error {
	switch seg {
	case bytecode.GlobalPrim:
		segment.Set(t.PGlobal, offset, v)
		return nil
	case bytecode.UpPrim:
		uv, err := t.resolvedUpvalue(offset)
		if err != nil {
			return err
		}
		*(*T)(unsafe.Pointer(&uv.Value.Prim[0])) = v
		return nil
	case bytecode.LocalPrim:
		stack.Set(t.P, offset, v)
		return nil
	default:
		return vmerr.BadBitCode("store: segment is not writable primitive storage")
	}
}

func readObjSeg(t *Thread, seg bytecode.Segment, offset int) (heap.Object, *vmerr.Error) {
	switch seg {
	case bytecode.GlobalObject:
		return t.OGlobal.Get(offset), nil
	case bytecode.ConstObject:
		if offset < 0 || offset >= len(t.constObj) {
			return nil, vmerr.BadBitCode("load_o: const object index out of range")
		}
		return t.constObj[offset], nil
	case bytecode.UpObject:
		uv, err := t.resolvedUpvalue(offset)
		if err != nil {
			return nil, err
		}
		return uv.Value.Ref, nil
	case bytecode.LocalObject:
		return t.O.Get(offset), nil
	default:
		return nil, vmerr.BadBitCode("load_o: segment does not hold object references")
	}
}

func writeObjSeg(t *Thread, seg bytecode.Segment, offset int, v heap.Object) *vmerr.Error {
	switch seg {
	case bytecode.GlobalObject:
		t.OGlobal.Set(offset, v)
		return nil
	case bytecode.UpObject:
		uv, err := t.resolvedUpvalue(offset)
		if err != nil {
			return err
		}
		uv.Value.Ref = v
		if t.GC != nil && v != nil {
			t.GC.WriteBarrier(uv, v)
		}
		return nil
	case bytecode.LocalObject:
		t.O.Set(offset, v)
		return nil
	default:
		return vmerr.BadBitCode("store_o: segment is not writable object storage")
	}
}

func (t *Thread) resolvedUpvalue(index int) (*heap.UpValueObj, *vmerr.Error) {
	if index < 0 || index >= len(t.upvalues) {
		return nil, vmerr.BadBitCode("upvalue index out of range")
	}
	uv := t.upvalues[index].Resolved
	if uv == nil {
		return nil, vmerr.Trap(vmerr.KindBadBitCode, "upvalue referenced before its closure was closed")
	}
	return uv, nil
}

func checkPrimBlob(blob []byte, offset, size int) *vmerr.Error {
	if offset < 0 || offset+size > len(blob) {
		return vmerr.BadBitCode("constant primitive blob access out of range")
	}
	return nil
}
