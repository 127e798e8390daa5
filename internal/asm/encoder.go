package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/vm"
)

// Extern is one "extern" declaration: the name and signature a test
// must pass to vm.VM.RegisterNative, in the same order Assemble saw
// them, before loading Module.Blob (see package doc).
type Extern struct {
	Name      string
	Signature string
}

// Module is Assemble's result: the externs a caller must register
// first, and the blob to hand to vm.VM.LoadModule afterward.
type Module struct {
	Externs []Extern
	Blob    vm.ModuleBlob
}

// Options configures Assemble. Entry overrides the bootstrap function
// name (default: the first "func" declaration). PGlobalSize/OGlobalSize
// pass straight through to the resulting ModuleBlob.
type Options struct {
	Entry       string
	PGlobalSize int
	OGlobalSize int
}

// Assemble tokenizes, parses and encodes src into a Module.
func Assemble(src string, opts Options) (*Module, error) {
	stmts, err := parse(Tokenize(src))
	if err != nil {
		return nil, err
	}

	offsets, externs, funcOrder, err := resolveOffsets(stmts)
	if err != nil {
		return nil, err
	}

	functions := make([]vm.FunctionBlob, 0, len(funcOrder))
	var cur *funcBuilder
	var builders []*funcBuilder

	for _, st := range stmts {
		switch st.kind {
		case stmtExtern:
			// handled in resolveOffsets; nothing to emit here.
		case stmtFuncBegin:
			id := int32(len(builders))
			if st.hasID {
				id = st.id
			}
			cur = &funcBuilder{name: st.name, id: id, labels: map[string]int{}}
			builders = append(builders, cur)
		case stmtFuncEnd:
			if cur == nil {
				return nil, fmt.Errorf("asm: line %d: endfunc without a matching func", st.line)
			}
			cur = nil
		case stmtLabel:
			if cur == nil {
				return nil, fmt.Errorf("asm: line %d: label outside a function", st.line)
			}
			cur.labels[st.name] = len(cur.pending)
		case stmtInstr:
			if cur == nil {
				return nil, fmt.Errorf("asm: line %d: instruction outside a function", st.line)
			}
			cur.pending = append(cur.pending, st)
		}
	}

	for _, b := range builders {
		code, err := b.encode(offsets)
		if err != nil {
			return nil, err
		}
		functions = append(functions, vm.FunctionBlob{Name: b.name, ID: b.id, Code: code})
	}

	entry := opts.Entry
	if entry == "" && len(funcOrder) > 0 {
		entry = funcOrder[0]
	}

	return &Module{
		Externs: externs,
		Blob: vm.ModuleBlob{
			Functions:   functions,
			PGlobalSize: opts.PGlobalSize,
			OGlobalSize: opts.OGlobalSize,
			Entry:       entry,
		},
	}, nil
}

// resolveOffsets assigns every extern and function the o_global offset
// it will occupy once every extern has been registered (in declaration
// order) and this module's functions are then loaded, per the ordering
// contract in the package doc comment.
func resolveOffsets(stmts []statement) (offsets map[string]int32, externs []Extern, funcOrder []string, err error) {
	offsets = map[string]int32{}
	var next int32
	for _, st := range stmts {
		if st.kind != stmtExtern {
			continue
		}
		if _, dup := offsets[st.name]; dup {
			return nil, nil, nil, fmt.Errorf("asm: line %d: extern %q declared twice", st.line, st.name)
		}
		offsets[st.name] = next
		next++
		externs = append(externs, Extern{Name: st.name, Signature: st.sig})
	}
	for _, st := range stmts {
		if st.kind != stmtFuncBegin {
			continue
		}
		if _, dup := offsets[st.name]; dup {
			return nil, nil, nil, fmt.Errorf("asm: line %d: name %q declared twice", st.line, st.name)
		}
		offsets[st.name] = next
		next++
		funcOrder = append(funcOrder, st.name)
	}
	return offsets, externs, funcOrder, nil
}

type funcBuilder struct {
	name    string
	id      int32
	labels  map[string]int
	pending []statement
}

func (b *funcBuilder) encode(offsets map[string]int32) ([]uint64, error) {
	code := make([]uint64, 0, len(b.pending))
	for i, st := range b.pending {
		w, err := encodeInstr(st, i, b.labels, offsets)
		if err != nil {
			return nil, err
		}
		code = append(code, uint64(w))
	}
	return code, nil
}

func encodeInstr(st statement, index int, labels map[string]int, offsets map[string]int32) (bytecode.Word, error) {
	if strings.HasPrefix(st.mnemonic, "oop.") {
		return encodeOop(st, index)
	}
	m, ok := mnemonics[st.mnemonic]
	if !ok {
		return 0, fmt.Errorf("asm: line %d: unknown mnemonic %q", st.line, st.mnemonic)
	}

	switch m.form {
	case formNone:
		return bytecode.Encode(m.op, 0, 0, 0), nil
	case formImm:
		dest, err := arg16(st, 0)
		if err != nil {
			return 0, err
		}
		imm, err := argImm(st, 1)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, dest, 0, imm), nil
	case formRRR:
		dest, lhs, rhs, err := arg3(st)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, dest, lhs, int32(rhs)), nil
	case formRRI:
		dest, lhs, err := arg2(st)
		if err != nil {
			return 0, err
		}
		imm, err := argImm(st, 2)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, dest, lhs, imm), nil
	case formUnary:
		dest, src, err := arg2(st)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, dest, src, 0), nil
	case formCast:
		dest, src, err := arg2(st)
		if err != nil {
			return 0, err
		}
		width, err := argWidth(st, 2)
		if err != nil {
			return 0, err
		}
		return bytecode.EncodeCast(m.op, dest, src, width), nil
	case formLoad, formStore:
		reg, err := arg16(st, 0)
		if err != nil {
			return 0, err
		}
		seg, err := argSegment(st, 1)
		if err != nil {
			return 0, err
		}
		off, err := argImm(st, 2)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, reg, uint16(seg), off), nil
	case formMovWide:
		src, dest, err := argWide2(st)
		if err != nil {
			return 0, err
		}
		return bytecode.EncodeWide(m.op, src, dest), nil
	case formFrameWide:
		sizeP, sizeO, err := argWide2(st)
		if err != nil {
			return 0, err
		}
		return bytecode.EncodeWide(m.op, sizeP, sizeO), nil
	case formJump:
		if len(st.args) != 1 {
			return 0, fmt.Errorf("asm: line %d: %s wants a label", st.line, st.mnemonic)
		}
		target, ok := labels[st.args[0]]
		if !ok {
			return 0, fmt.Errorf("asm: line %d: undefined label %q", st.line, st.args[0])
		}
		delta := int32(target - (index + 1))
		return bytecode.Encode(m.op, 0, 0, delta), nil
	case formLoopEntry:
		id, err := arg16(st, 0)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, id, 0, 0), nil
	case formCall:
		pDelta, oDelta, err := arg2(st)
		if err != nil {
			return 0, err
		}
		if len(st.args) != 3 {
			return 0, fmt.Errorf("asm: line %d: call wants <pDelta> <oDelta> <target>", st.line)
		}
		target, ok := offsets[st.args[2]]
		if !ok {
			return 0, fmt.Errorf("asm: line %d: call to undeclared function/extern %q", st.line, st.args[2])
		}
		return bytecode.Encode(m.op, pDelta, oDelta, target), nil
	case formCallVal:
		pDelta, oDelta, offset, err := arg3(st)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, pDelta, oDelta, int32(offset)), nil
	case formCloseFn:
		off, err := argImm(st, 0)
		if err != nil {
			return 0, err
		}
		return bytecode.Encode(m.op, 0, 0, off), nil
	default:
		return 0, fmt.Errorf("asm: line %d: mnemonic %q has no encoder", st.line, st.mnemonic)
	}
}

func encodeOop(st statement, index int) (bytecode.Word, error) {
	sub := strings.TrimPrefix(st.mnemonic, "oop.")
	id, ok := oopIDs[sub]
	if !ok {
		return 0, fmt.Errorf("asm: line %d: unknown oop operator %q", st.line, sub)
	}
	result, a, b, err := arg3(st)
	if err != nil {
		return 0, err
	}
	return bytecode.EncodeOop(id, result, a, int32(b)), nil
}

func argNum(st statement, i int) (int64, error) {
	if i >= len(st.args) {
		return 0, fmt.Errorf("asm: line %d: %s wants at least %d arguments", st.line, st.mnemonic, i+1)
	}
	v, err := strconv.ParseInt(st.args[i], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("asm: line %d: %s argument %d: %w", st.line, st.mnemonic, i+1, err)
	}
	return v, nil
}

func arg16(st statement, i int) (uint16, error) {
	v, err := argNum(st, i)
	return uint16(v), err
}

func argImm(st statement, i int) (int32, error) {
	v, err := argNum(st, i)
	return int32(v), err
}

func arg2(st statement) (uint16, uint16, error) {
	a, err := arg16(st, 0)
	if err != nil {
		return 0, 0, err
	}
	b, err := arg16(st, 1)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func arg3(st statement) (uint16, uint16, uint16, error) {
	a, b, err := arg2(st)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := arg16(st, 2)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, c, nil
}

func argWide2(st statement) (int16, int16, error) {
	a, err := argNum(st, 0)
	if err != nil {
		return 0, 0, err
	}
	b, err := argNum(st, 1)
	if err != nil {
		return 0, 0, err
	}
	return int16(a), int16(b), nil
}

func argSegment(st statement, i int) (bytecode.Segment, error) {
	if i >= len(st.args) {
		return 0, fmt.Errorf("asm: line %d: %s wants a segment name at argument %d", st.line, st.mnemonic, i+1)
	}
	seg, ok := segments[st.args[i]]
	if !ok {
		return 0, fmt.Errorf("asm: line %d: unknown segment %q", st.line, st.args[i])
	}
	return seg, nil
}

func argWidth(st statement, i int) (bytecode.OutputWidth, error) {
	if i >= len(st.args) {
		return 0, fmt.Errorf("asm: line %d: %s wants a width at argument %d", st.line, st.mnemonic, i+1)
	}
	w, ok := widths[st.args[i]]
	if !ok {
		return 0, fmt.Errorf("asm: line %d: unknown width %q", st.line, st.args[i])
	}
	return w, nil
}
