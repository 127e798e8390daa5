package bytecode

// OutputWidth is the operand every cast opcode carries in Operand2 to
// name its result width.
type OutputWidth int32

const (
	WidthI8 OutputWidth = iota
	WidthI16
	WidthI32
	WidthI64
	WidthF32
	WidthF64
)

// EncodeCast packs a cast instruction: dest in Result, source value in
// Operand1, output width in Operand2.
func EncodeCast(op Opcode, dest, src uint16, out OutputWidth) Word {
	return Encode(op, dest, src, int32(out))
}

func (w Word) OutputWidth() OutputWidth { return OutputWidth(w.Operand2()) }
