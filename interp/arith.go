package interp

import (
	"math"
	"unsafe"

	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/stack"
	"github.com/nyaavm/nyaavm/vmerr"
)

// Resolved layout: every register-register binary op reads Result=dest,
// Operand1=lhs offset, Operand2=rhs offset; every immediate-register
// variant reads Result=dest, Operand1=lhs offset, Operand2=the immediate
// itself (sign-extended, cast to the operator's width).

func init() {
	register(bytecode.OpAddI8, arithBinary(func(a, b int8) int8 { return a + b }))
	register(bytecode.OpAddI16, arithBinary(func(a, b int16) int16 { return a + b }))
	register(bytecode.OpAddI32, arithBinary(func(a, b int32) int32 { return a + b }))
	register(bytecode.OpAddI64, arithBinary(func(a, b int64) int64 { return a + b }))
	register(bytecode.OpSubI8, arithBinary(func(a, b int8) int8 { return a - b }))
	register(bytecode.OpSubI16, arithBinary(func(a, b int16) int16 { return a - b }))
	register(bytecode.OpSubI32, arithBinary(func(a, b int32) int32 { return a - b }))
	register(bytecode.OpSubI64, arithBinary(func(a, b int64) int64 { return a - b }))
	register(bytecode.OpMulI8, arithBinary(func(a, b int8) int8 { return a * b }))
	register(bytecode.OpMulI16, arithBinary(func(a, b int16) int16 { return a * b }))
	register(bytecode.OpMulI32, arithBinary(func(a, b int32) int32 { return a * b }))
	register(bytecode.OpMulI64, arithBinary(func(a, b int64) int64 { return a * b }))
	register(bytecode.OpDivI8, intDiv[int8])
	register(bytecode.OpDivI16, intDiv[int16])
	register(bytecode.OpDivI32, intDiv[int32])
	register(bytecode.OpDivI64, intDiv[int64])

	register(bytecode.OpAddImmI8, arithImmediate(func(a, b int8) int8 { return a + b }))
	register(bytecode.OpAddImmI16, arithImmediate(func(a, b int16) int16 { return a + b }))
	register(bytecode.OpAddImmI32, arithImmediate(func(a, b int32) int32 { return a + b }))
	register(bytecode.OpAddImmI64, arithImmediate(func(a, b int64) int64 { return a + b }))
	register(bytecode.OpSubImmI8, arithImmediate(func(a, b int8) int8 { return a - b }))
	register(bytecode.OpSubImmI16, arithImmediate(func(a, b int16) int16 { return a - b }))
	register(bytecode.OpSubImmI32, arithImmediate(func(a, b int32) int32 { return a - b }))
	register(bytecode.OpSubImmI64, arithImmediate(func(a, b int64) int64 { return a - b }))
	register(bytecode.OpMulImmI8, arithImmediate(func(a, b int8) int8 { return a * b }))
	register(bytecode.OpMulImmI16, arithImmediate(func(a, b int16) int16 { return a * b }))
	register(bytecode.OpMulImmI32, arithImmediate(func(a, b int32) int32 { return a * b }))
	register(bytecode.OpMulImmI64, arithImmediate(func(a, b int64) int64 { return a * b }))
	register(bytecode.OpDivImmI8, intDivImmediate[int8])
	register(bytecode.OpDivImmI16, intDivImmediate[int16])
	register(bytecode.OpDivImmI32, intDivImmediate[int32])
	register(bytecode.OpDivImmI64, intDivImmediate[int64])

	register(bytecode.OpAddF32, arithBinary(func(a, b float32) float32 { return a + b }))
	register(bytecode.OpAddF64, arithBinary(func(a, b float64) float64 { return a + b }))
	register(bytecode.OpSubF32, arithBinary(func(a, b float32) float32 { return a - b }))
	register(bytecode.OpSubF64, arithBinary(func(a, b float64) float64 { return a - b }))
	register(bytecode.OpMulF32, arithBinary(func(a, b float32) float32 { return a * b }))
	register(bytecode.OpMulF64, arithBinary(func(a, b float64) float64 { return a * b }))
	register(bytecode.OpDivF32, arithBinary(func(a, b float32) float32 { return a / b }))
	register(bytecode.OpDivF64, arithBinary(func(a, b float64) float64 { return a / b }))
	register(bytecode.OpAddImmF32, arithImmediateF32(func(a, b float32) float32 { return a + b }))
	register(bytecode.OpAddImmF64, arithImmediateF64(func(a, b float64) float64 { return a + b }))
	register(bytecode.OpSubImmF32, arithImmediateF32(func(a, b float32) float32 { return a - b }))
	register(bytecode.OpSubImmF64, arithImmediateF64(func(a, b float64) float64 { return a - b }))
	register(bytecode.OpMulImmF32, arithImmediateF32(func(a, b float32) float32 { return a * b }))
	register(bytecode.OpMulImmF64, arithImmediateF64(func(a, b float64) float64 { return a * b }))
	register(bytecode.OpDivImmF32, arithImmediateF32(func(a, b float32) float32 { return a / b }))
	register(bytecode.OpDivImmF64, arithImmediateF64(func(a, b float64) float64 { return a / b }))

	register(bytecode.OpOrI8, arithBinary(func(a, b int8) int8 { return a | b }))
	register(bytecode.OpOrI16, arithBinary(func(a, b int16) int16 { return a | b }))
	register(bytecode.OpOrI32, arithBinary(func(a, b int32) int32 { return a | b }))
	register(bytecode.OpOrI64, arithBinary(func(a, b int64) int64 { return a | b }))
	register(bytecode.OpXorI8, arithBinary(func(a, b int8) int8 { return a ^ b }))
	register(bytecode.OpXorI16, arithBinary(func(a, b int16) int16 { return a ^ b }))
	register(bytecode.OpXorI32, arithBinary(func(a, b int32) int32 { return a ^ b }))
	register(bytecode.OpXorI64, arithBinary(func(a, b int64) int64 { return a ^ b }))
	register(bytecode.OpAndI8, arithBinary(func(a, b int8) int8 { return a & b }))
	register(bytecode.OpAndI16, arithBinary(func(a, b int16) int16 { return a & b }))
	register(bytecode.OpAndI32, arithBinary(func(a, b int32) int32 { return a & b }))
	register(bytecode.OpAndI64, arithBinary(func(a, b int64) int64 { return a & b }))
	register(bytecode.OpShlI8, arithBinary(func(a, b int8) int8 { return a << uint(b) }))
	register(bytecode.OpShlI16, arithBinary(func(a, b int16) int16 { return a << uint(b) }))
	register(bytecode.OpShlI32, arithBinary(func(a, b int32) int32 { return a << uint(b) }))
	register(bytecode.OpShlI64, arithBinary(func(a, b int64) int64 { return a << uint(b) }))
	register(bytecode.OpShrI8, arithBinary(func(a, b int8) int8 { return a >> uint(b) }))
	register(bytecode.OpShrI16, arithBinary(func(a, b int16) int16 { return a >> uint(b) }))
	register(bytecode.OpShrI32, arithBinary(func(a, b int32) int32 { return a >> uint(b) }))
	register(bytecode.OpShrI64, arithBinary(func(a, b int64) int64 { return a >> uint(b) }))
	register(bytecode.OpUshrI8, arithBinary(func(a, b int8) int8 { return int8(uint8(a) >> uint(b)) }))
	register(bytecode.OpUshrI16, arithBinary(func(a, b int16) int16 { return int16(uint16(a) >> uint(b)) }))
	register(bytecode.OpUshrI32, arithBinary(func(a, b int32) int32 { return int32(uint32(a) >> uint(b)) }))
	register(bytecode.OpUshrI64, arithBinary(func(a, b int64) int64 { return int64(uint64(a) >> uint(b)) }))

	register(bytecode.OpOrImmI8, arithImmediate(func(a, b int8) int8 { return a | b }))
	register(bytecode.OpOrImmI16, arithImmediate(func(a, b int16) int16 { return a | b }))
	register(bytecode.OpOrImmI32, arithImmediate(func(a, b int32) int32 { return a | b }))
	register(bytecode.OpOrImmI64, arithImmediate(func(a, b int64) int64 { return a | b }))
	register(bytecode.OpXorImmI8, arithImmediate(func(a, b int8) int8 { return a ^ b }))
	register(bytecode.OpXorImmI16, arithImmediate(func(a, b int16) int16 { return a ^ b }))
	register(bytecode.OpXorImmI32, arithImmediate(func(a, b int32) int32 { return a ^ b }))
	register(bytecode.OpXorImmI64, arithImmediate(func(a, b int64) int64 { return a ^ b }))
	register(bytecode.OpAndImmI8, arithImmediate(func(a, b int8) int8 { return a & b }))
	register(bytecode.OpAndImmI16, arithImmediate(func(a, b int16) int16 { return a & b }))
	register(bytecode.OpAndImmI32, arithImmediate(func(a, b int32) int32 { return a & b }))
	register(bytecode.OpAndImmI64, arithImmediate(func(a, b int64) int64 { return a & b }))
	register(bytecode.OpShlImmI8, arithImmediate(func(a, b int8) int8 { return a << uint(b) }))
	register(bytecode.OpShlImmI16, arithImmediate(func(a, b int16) int16 { return a << uint(b) }))
	register(bytecode.OpShlImmI32, arithImmediate(func(a, b int32) int32 { return a << uint(b) }))
	register(bytecode.OpShlImmI64, arithImmediate(func(a, b int64) int64 { return a << uint(b) }))
	register(bytecode.OpShrImmI8, arithImmediate(func(a, b int8) int8 { return a >> uint(b) }))
	register(bytecode.OpShrImmI16, arithImmediate(func(a, b int16) int16 { return a >> uint(b) }))
	register(bytecode.OpShrImmI32, arithImmediate(func(a, b int32) int32 { return a >> uint(b) }))
	register(bytecode.OpShrImmI64, arithImmediate(func(a, b int64) int64 { return a >> uint(b) }))
	register(bytecode.OpUshrImmI8, arithImmediate(func(a, b int8) int8 { return int8(uint8(a) >> uint(b)) }))
	register(bytecode.OpUshrImmI16, arithImmediate(func(a, b int16) int16 { return int16(uint16(a) >> uint(b)) }))
	register(bytecode.OpUshrImmI32, arithImmediate(func(a, b int32) int32 { return int32(uint32(a) >> uint(b)) }))
	register(bytecode.OpUshrImmI64, arithImmediate(func(a, b int64) int64 { return int64(uint64(a) >> uint(b)) }))

	register(bytecode.OpInvI8, arithUnary(func(a int8) int8 { return ^a }))
	register(bytecode.OpInvI16, arithUnary(func(a int16) int16 { return ^a }))
	register(bytecode.OpInvI32, arithUnary(func(a int32) int32 { return ^a }))
	register(bytecode.OpInvI64, arithUnary(func(a int64) int64 { return ^a }))

	register(bytecode.OpLogicNot, opLogicNot)

	for i := 0; i < 256; i++ {
		op := bytecode.Opcode(i)
		if cc, isFloat, bits, ok := bytecode.Compare(op); ok {
			register(op, makeCmpHandler(cc, isFloat, bits))
		}
	}

	register(bytecode.OpSextI8, castSext(8))
	register(bytecode.OpSextI16, castSext(16))
	register(bytecode.OpSextI32, castSext(32))
	register(bytecode.OpTruncI16, castTrunc(16))
	register(bytecode.OpTruncI32, castTrunc(32))
	register(bytecode.OpTruncI64, castTrunc(64))
	register(bytecode.OpFpExtF32, opFpExtF32)
	register(bytecode.OpFpTruncF64, opFpTruncF64)
	register(bytecode.OpFpToSiF32, castFpToSi(32))
	register(bytecode.OpFpToSiF64, castFpToSi(64))
	register(bytecode.OpSiToFpI8, castSiToFp(8))
	register(bytecode.OpSiToFpI16, castSiToFp(16))
	register(bytecode.OpSiToFpI32, castSiToFp(32))
	register(bytecode.OpSiToFpI64, castSiToFp(64))
}

func arithBinary[T stack.Numeric](op func(a, b T) T) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, lhs, rhs := int(w.Result()), int(w.Operand1()), int(w.Operand2())
		a := stack.Get[T](t.P, lhs)
		b := stack.Get[T](t.P, rhs)
		stack.Set(t.P, dest, op(a, b))
		return nil
	}
}

func arithImmediate[T stack.Numeric](op func(a, b T) T) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, lhs := int(w.Result()), int(w.Operand1())
		a := stack.Get[T](t.P, lhs)
		stack.Set(t.P, dest, op(a, T(w.Operand2())))
		return nil
	}
}

// arithImmediateF32's immediate is the bit pattern of the float32 constant
// packed directly into Operand2 — it fits the 32-bit field exactly.
func arithImmediateF32(op func(a, b float32) float32) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, lhs := int(w.Result()), int(w.Operand1())
		a := stack.Get[float32](t.P, lhs)
		imm := math.Float32frombits(uint32(w.Operand2()))
		stack.Set(t.P, dest, op(a, imm))
		return nil
	}
}

// arithImmediateF64's immediate doesn't fit Operand2's 32 bits, so the
// emitter instead places the f64 constant in the const primitive blob and
// Operand2 names its byte offset there.
func arithImmediateF64(op func(a, b float64) float64) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, lhs := int(w.Result()), int(w.Operand1())
		a := stack.Get[float64](t.P, lhs)
		off := int(w.Operand2())
		if err := checkPrimBlob(t.constPrim, off, 8); err != nil {
			return err
		}
		imm := *(*float64)(unsafe.Pointer(&t.constPrim[off]))
		stack.Set(t.P, dest, op(a, imm))
		return nil
	}
}

func arithUnary[T stack.Numeric](op func(a T) T) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, src := int(w.Result()), int(w.Operand1())
		stack.Set(t.P, dest, op(stack.Get[T](t.P, src)))
		return nil
	}
}

func intDiv[T stack.Numeric](t *Thread, w bytecode.Word) *vmerr.Error {
	dest, lhs, rhs := int(w.Result()), int(w.Operand1()), int(w.Operand2())
	a := stack.Get[T](t.P, lhs)
	b := stack.Get[T](t.P, rhs)
	if b == 0 {
		return vmerr.DivZero()
	}
	stack.Set(t.P, dest, a/b)
	return nil
}

func intDivImmediate[T stack.Numeric](t *Thread, w bytecode.Word) *vmerr.Error {
	dest, lhs := int(w.Result()), int(w.Operand1())
	a := stack.Get[T](t.P, lhs)
	b := T(w.Operand2())
	if b == 0 {
		return vmerr.DivZero()
	}
	stack.Set(t.P, dest, a/b)
	return nil
}

func opLogicNot(t *Thread, w bytecode.Word) *vmerr.Error {
	dest, src := int(w.Result()), int(w.Operand1())
	v := stack.Get[int8](t.P, src)
	var out int8
	if v == 0 {
		out = 1
	}
	stack.Set(t.P, dest, out)
	t.cond = out != 0
	return nil
}

// makeCmpHandler builds the shared body every cmp_iN/cmp_fN opcode uses,
// keyed by the relation/width/floatness bytecode.Compare already decoded
// from the opcode. Writes its i1 result both to the named dest slot and
// to Thread.cond (see opJz/opJnz).
func makeCmpHandler(cc bytecode.CC, isFloat bool, bits int) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, lhs, rhs := int(w.Result()), int(w.Operand1()), int(w.Operand2())
		var result bool
		switch {
		case isFloat && bits == 32:
			result = compareOrdered(cc, stack.Get[float32](t.P, lhs), stack.Get[float32](t.P, rhs))
		case isFloat:
			result = compareOrdered(cc, stack.Get[float64](t.P, lhs), stack.Get[float64](t.P, rhs))
		case bits == 8:
			result = compareOrdered(cc, stack.Get[int8](t.P, lhs), stack.Get[int8](t.P, rhs))
		case bits == 16:
			result = compareOrdered(cc, stack.Get[int16](t.P, lhs), stack.Get[int16](t.P, rhs))
		case bits == 32:
			result = compareOrdered(cc, stack.Get[int32](t.P, lhs), stack.Get[int32](t.P, rhs))
		default:
			result = compareOrdered(cc, stack.Get[int64](t.P, lhs), stack.Get[int64](t.P, rhs))
		}
		var b int8
		if result {
			b = 1
		}
		stack.Set(t.P, dest, b)
		t.cond = result
		return nil
	}
}

func compareOrdered[T stack.Numeric](cc bytecode.CC, a, b T) bool {
	switch cc {
	case bytecode.EQ:
		return a == b
	case bytecode.NE:
		return a != b
	case bytecode.LT:
		return a < b
	case bytecode.LE:
		return a <= b
	case bytecode.GT:
		return a > b
	default:
		return a >= b
	}
}

func castSext(inBits int) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, src := int(w.Result()), int(w.Operand1())
		var v int64
		switch inBits {
		case 8:
			v = int64(stack.Get[int8](t.P, src))
		case 16:
			v = int64(stack.Get[int16](t.P, src))
		default:
			v = int64(stack.Get[int32](t.P, src))
		}
		switch w.OutputWidth() {
		case bytecode.WidthI16:
			stack.Set(t.P, dest, int16(v))
		case bytecode.WidthI32:
			stack.Set(t.P, dest, int32(v))
		case bytecode.WidthI64:
			stack.Set(t.P, dest, v)
		default:
			return vmerr.BadBitCode("sext: invalid output width")
		}
		return nil
	}
}

func castTrunc(inBits int) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, src := int(w.Result()), int(w.Operand1())
		var v int64
		switch inBits {
		case 16:
			v = int64(stack.Get[int16](t.P, src))
		case 32:
			v = int64(stack.Get[int32](t.P, src))
		default:
			v = stack.Get[int64](t.P, src)
		}
		switch w.OutputWidth() {
		case bytecode.WidthI8:
			stack.Set(t.P, dest, int8(v))
		case bytecode.WidthI16:
			stack.Set(t.P, dest, int16(v))
		case bytecode.WidthI32:
			stack.Set(t.P, dest, int32(v))
		default:
			return vmerr.BadBitCode("trunc: invalid output width")
		}
		return nil
	}
}

func opFpExtF32(t *Thread, w bytecode.Word) *vmerr.Error {
	dest, src := int(w.Result()), int(w.Operand1())
	stack.Set(t.P, dest, float64(stack.Get[float32](t.P, src)))
	return nil
}

func opFpTruncF64(t *Thread, w bytecode.Word) *vmerr.Error {
	dest, src := int(w.Result()), int(w.Operand1())
	stack.Set(t.P, dest, float32(stack.Get[float64](t.P, src)))
	return nil
}

func castFpToSi(inBits int) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, src := int(w.Result()), int(w.Operand1())
		var f float64
		if inBits == 32 {
			f = float64(stack.Get[float32](t.P, src))
		} else {
			f = stack.Get[float64](t.P, src)
		}
		switch w.OutputWidth() {
		case bytecode.WidthI8:
			stack.Set(t.P, dest, int8(f))
		case bytecode.WidthI16:
			stack.Set(t.P, dest, int16(f))
		case bytecode.WidthI32:
			stack.Set(t.P, dest, int32(f))
		case bytecode.WidthI64:
			stack.Set(t.P, dest, int64(f))
		default:
			return vmerr.BadBitCode("fptosi: invalid output width")
		}
		return nil
	}
}

func castSiToFp(inBits int) handler {
	return func(t *Thread, w bytecode.Word) *vmerr.Error {
		dest, src := int(w.Result()), int(w.Operand1())
		var v int64
		switch inBits {
		case 8:
			v = int64(stack.Get[int8](t.P, src))
		case 16:
			v = int64(stack.Get[int16](t.P, src))
		case 32:
			v = int64(stack.Get[int32](t.P, src))
		default:
			v = stack.Get[int64](t.P, src)
		}
		switch w.OutputWidth() {
		case bytecode.WidthF32:
			stack.Set(t.P, dest, float32(v))
		case bytecode.WidthF64:
			stack.Set(t.P, dest, float64(v))
		default:
			return vmerr.BadBitCode("sitofp: invalid output width")
		}
		return nil
	}
}
