package bytecode

import "testing"

func TestEncodeDecodeStandard(t *testing.T) {
	w := Encode(OpAddI64, 3, 7, -42)
	if w.Opcode() != OpAddI64 {
		t.Fatalf("Opcode() = %v, want OpAddI64", w.Opcode())
	}
	if w.Result() != 3 {
		t.Fatalf("Result() = %d, want 3", w.Result())
	}
	if w.Operand1() != 7 {
		t.Fatalf("Operand1() = %d, want 7", w.Operand1())
	}
	if w.Operand2() != -42 {
		t.Fatalf("Operand2() = %d, want -42", w.Operand2())
	}
}

func TestEncodeDecodeOperandFieldWidths(t *testing.T) {
	// Result/Operand1 are 12-bit fields; verify max values round-trip.
	w := Encode(OpMovI64, 0xFFF, 0xFFF, 0)
	if w.Result() != 0xFFF {
		t.Fatalf("Result() = %x, want fff", w.Result())
	}
	if w.Operand1() != 0xFFF {
		t.Fatalf("Operand1() = %x, want fff", w.Operand1())
	}
}

func TestEncodeWide(t *testing.T) {
	w := EncodeWide(OpFrame, 32, -8)
	if w.Opcode() != OpFrame {
		t.Fatalf("Opcode() = %v, want OpFrame", w.Opcode())
	}
	if w.WideA() != 32 {
		t.Fatalf("WideA() = %d, want 32", w.WideA())
	}
	if w.WideB() != -8 {
		t.Fatalf("WideB() = %d, want -8", w.WideB())
	}
}

func TestEncodeOopRoundTrip(t *testing.T) {
	w := EncodeOop(MapPut, 1, 2, -100)
	if w.Opcode() != OpOop {
		t.Fatalf("Opcode() = %v, want OpOop", w.Opcode())
	}
	if w.OopID() != MapPut {
		t.Fatalf("OopID() = %v, want MapPut", w.OopID())
	}
	if w.OopA() != 2 {
		t.Fatalf("OopA() = %d, want 2", w.OopA())
	}
	if w.OopB() != -100 {
		t.Fatalf("OopB() = %d, want -100", w.OopB())
	}
}

func TestEncodeOopPositiveB(t *testing.T) {
	w := EncodeOop(ArrayAdd, 0, 0, 123)
	if w.OopB() != 123 {
		t.Fatalf("OopB() = %d, want 123", w.OopB())
	}
}

func TestEncodeCastOutputWidth(t *testing.T) {
	w := EncodeCast(OpSextI8, 0, 1, WidthI64)
	if w.OutputWidth() != WidthI64 {
		t.Fatalf("OutputWidth() = %v, want WidthI64", w.OutputWidth())
	}
}

func TestCompareLookup(t *testing.T) {
	cc, float, bits, ok := Compare(OpCmpLtF64)
	if !ok || cc != LT || !float || bits != 64 {
		t.Fatalf("Compare(OpCmpLtF64) = %v %v %v %v, want LT true 64 true", cc, float, bits, ok)
	}
	_, _, _, ok = Compare(OpAddI64)
	if ok {
		t.Fatal("expected OpAddI64 to not be a compare opcode")
	}
}

func TestSegmentIsObject(t *testing.T) {
	if !GlobalObject.IsObject() {
		t.Fatal("GlobalObject should be an object segment")
	}
	if LocalPrim.IsObject() {
		t.Fatal("LocalPrim should not be an object segment")
	}
}

func TestOpcodeValid(t *testing.T) {
	if !OpOop.Valid() {
		t.Fatal("OpOop should be valid")
	}
	if Opcode(255).Valid() && numOpcodes <= 255 {
		t.Fatal("255 should be invalid unless numOpcodes exceeds it")
	}
}
