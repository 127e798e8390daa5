package asm

import (
	"testing"

	"github.com/nyaavm/nyaavm/bytecode"
)

func TestAssembleArithmeticAndReturn(t *testing.T) {
	src := `
func main
	frame 2 0
	load_imm_i64 0 20
	load_imm_i64 1 22
	add_i64 0 0 1
	ret
endfunc
`
	mod, err := Assemble(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mod.Blob.Entry != "main" {
		t.Fatalf("entry = %q, want main", mod.Blob.Entry)
	}
	if len(mod.Blob.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(mod.Blob.Functions))
	}
	fn := mod.Blob.Functions[0]
	if len(fn.Code) != 5 {
		t.Fatalf("got %d instructions, want 5", len(fn.Code))
	}
	if bytecode.Word(fn.Code[4]).Opcode() != bytecode.OpRet {
		t.Fatalf("last instruction = %v, want OpRet", bytecode.Word(fn.Code[4]).Opcode())
	}
}

func TestAssembleResolvesJumpLabel(t *testing.T) {
	src := `
func loop
	frame 1 0
	load_imm_i64 0 0
top:
	add_imm_i64 0 0 1
	cmp_lt_i64 1 0 1
	jnz top
	ret
endfunc
`
	mod, err := Assemble(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	code := mod.Blob.Functions[0].Code
	// Instructions: 0:frame, 1:load_imm, 2:add_imm (top:), 3:cmp, 4:jnz,
	// 5:ret. top labels index 2, so jnz's delta is 2 - (4+1) = -3.
	w := bytecode.Word(code[4])
	if w.Opcode() != bytecode.OpJnz {
		t.Fatalf("opcode = %v, want OpJnz", w.Opcode())
	}
	if got, want := w.Operand2(), int32(-3); got != want {
		t.Fatalf("jump delta = %d, want %d", got, want)
	}
}

func TestAssembleResolvesCallTargetsAcrossExternsAndFunctions(t *testing.T) {
	src := `
extern host_print (9)!
func helper
	frame 0 0
	ret
endfunc
func main
	frame 0 0
	call 0 0 host_print
	call 0 0 helper
	ret
endfunc
`
	mod, err := Assemble(src, Options{Entry: "main"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mod.Externs) != 1 || mod.Externs[0].Name != "host_print" {
		t.Fatalf("externs = %+v, want one host_print entry", mod.Externs)
	}

	var mainFn, helperFn = -1, -1
	for i, fn := range mod.Blob.Functions {
		switch fn.Name {
		case "main":
			mainFn = i
		case "helper":
			helperFn = i
		}
	}
	if mainFn < 0 || helperFn < 0 {
		t.Fatalf("expected both main and helper functions, got %+v", mod.Blob.Functions)
	}

	// Externs occupy offsets [0, len(externs)), functions continue in
	// declaration order after that: helper is offset 1, main offset 2.
	callHost := bytecode.Word(mod.Blob.Functions[mainFn].Code[1])
	callHelper := bytecode.Word(mod.Blob.Functions[mainFn].Code[2])
	if callHost.Operand2() != 0 {
		t.Fatalf("call to host_print resolved to offset %d, want 0", callHost.Operand2())
	}
	if callHelper.Operand2() != 1 {
		t.Fatalf("call to helper resolved to offset %d, want 1", callHelper.Operand2())
	}
}

func TestAssembleRejectsUndefinedLabel(t *testing.T) {
	src := `
func main
	frame 0 0
	jmp nowhere
	ret
endfunc
`
	if _, err := Assemble(src, Options{}); err == nil {
		t.Fatal("expected an error for an undefined label")
	}
}

func TestAssembleOopMapOperators(t *testing.T) {
	src := `
func main
	frame 0 2
	oop.map 0 0 0
	oop.map_put 0 1 2
	ret
endfunc
`
	mod, err := Assemble(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	w := bytecode.Word(mod.Blob.Functions[0].Code[2])
	if w.Opcode() != bytecode.OpOop {
		t.Fatalf("opcode = %v, want OpOop", w.Opcode())
	}
	if w.OopID() != bytecode.MapPut {
		t.Fatalf("oop id = %v, want MapPut", w.OopID())
	}
}
