package asm

import "github.com/nyaavm/nyaavm/bytecode"

// form names the operand shape an instruction line must parse into —
// which bytecode.Word constructor applies and how many symbolic vs.
// numeric arguments it takes. Grounded on the field-layout doc comments
// scattered across interp/arith.go, interp/loadstore.go and
// interp/thread.go (each op's handler already states which Word field
// carries which value; form just mirrors that grouping back into text).
type form int

const (
	formNone     form = iota // ret, debug: no operands
	formImm                  // load_imm_iN: dest, immediate
	formRRR                  // dest, lhs, rhs (register-register arith/bitwise/cmp)
	formRRI                  // dest, lhs, immediate
	formUnary                // dest, src (inv_iN, logic_not, fp_ext/trunc)
	formCast                 // dest, src, output width token
	formLoad                 // dest, segment token, offset
	formStore                // src, segment token, offset
	formMovWide              // src, dest (EncodeWide)
	formFrameWide            // sizeP, sizeO (EncodeWide)
	formJump                 // label
	formLoopEntry            // loop-site id
	formCall                 // pDelta, oDelta, function/extern name
	formCallVal              // pDelta, oDelta, local object offset
	formCloseFn              // local object offset
	formOop                  // result, a, b (EncodeOop)
)

type mnemonic struct {
	op   bytecode.Opcode
	form form
}

var mnemonics = map[string]mnemonic{
	"ret":   {bytecode.OpRet, formNone},
	"debug": {bytecode.OpDebug, formNone},

	"load_i8":  {bytecode.OpLoadI8, formLoad},
	"load_i16": {bytecode.OpLoadI16, formLoad},
	"load_i32": {bytecode.OpLoadI32, formLoad},
	"load_i64": {bytecode.OpLoadI64, formLoad},
	"load_f32": {bytecode.OpLoadF32, formLoad},
	"load_f64": {bytecode.OpLoadF64, formLoad},
	"load_o":   {bytecode.OpLoadO, formLoad},

	"load_imm_i8":  {bytecode.OpLoadImmI8, formImm},
	"load_imm_i16": {bytecode.OpLoadImmI16, formImm},
	"load_imm_i32": {bytecode.OpLoadImmI32, formImm},
	"load_imm_i64": {bytecode.OpLoadImmI64, formImm},

	"store_i8":  {bytecode.OpStoreI8, formStore},
	"store_i16": {bytecode.OpStoreI16, formStore},
	"store_i32": {bytecode.OpStoreI32, formStore},
	"store_i64": {bytecode.OpStoreI64, formStore},
	"store_f32": {bytecode.OpStoreF32, formStore},
	"store_f64": {bytecode.OpStoreF64, formStore},
	"store_o":   {bytecode.OpStoreO, formStore},

	"mov_i8":  {bytecode.OpMovI8, formMovWide},
	"mov_i16": {bytecode.OpMovI16, formMovWide},
	"mov_i32": {bytecode.OpMovI32, formMovWide},
	"mov_i64": {bytecode.OpMovI64, formMovWide},
	"mov_f32": {bytecode.OpMovF32, formMovWide},
	"mov_f64": {bytecode.OpMovF64, formMovWide},
	"mov_o":   {bytecode.OpMovO, formMovWide},

	"frame": {bytecode.OpFrame, formFrameWide},

	"add_i8": {bytecode.OpAddI8, formRRR}, "add_i16": {bytecode.OpAddI16, formRRR},
	"add_i32": {bytecode.OpAddI32, formRRR}, "add_i64": {bytecode.OpAddI64, formRRR},
	"sub_i8": {bytecode.OpSubI8, formRRR}, "sub_i16": {bytecode.OpSubI16, formRRR},
	"sub_i32": {bytecode.OpSubI32, formRRR}, "sub_i64": {bytecode.OpSubI64, formRRR},
	"mul_i8": {bytecode.OpMulI8, formRRR}, "mul_i16": {bytecode.OpMulI16, formRRR},
	"mul_i32": {bytecode.OpMulI32, formRRR}, "mul_i64": {bytecode.OpMulI64, formRRR},
	"div_i8": {bytecode.OpDivI8, formRRR}, "div_i16": {bytecode.OpDivI16, formRRR},
	"div_i32": {bytecode.OpDivI32, formRRR}, "div_i64": {bytecode.OpDivI64, formRRR},

	"add_imm_i8": {bytecode.OpAddImmI8, formRRI}, "add_imm_i16": {bytecode.OpAddImmI16, formRRI},
	"add_imm_i32": {bytecode.OpAddImmI32, formRRI}, "add_imm_i64": {bytecode.OpAddImmI64, formRRI},
	"sub_imm_i8": {bytecode.OpSubImmI8, formRRI}, "sub_imm_i16": {bytecode.OpSubImmI16, formRRI},
	"sub_imm_i32": {bytecode.OpSubImmI32, formRRI}, "sub_imm_i64": {bytecode.OpSubImmI64, formRRI},
	"mul_imm_i8": {bytecode.OpMulImmI8, formRRI}, "mul_imm_i16": {bytecode.OpMulImmI16, formRRI},
	"mul_imm_i32": {bytecode.OpMulImmI32, formRRI}, "mul_imm_i64": {bytecode.OpMulImmI64, formRRI},
	"div_imm_i8": {bytecode.OpDivImmI8, formRRI}, "div_imm_i16": {bytecode.OpDivImmI16, formRRI},
	"div_imm_i32": {bytecode.OpDivImmI32, formRRI}, "div_imm_i64": {bytecode.OpDivImmI64, formRRI},

	"add_f32": {bytecode.OpAddF32, formRRR}, "add_f64": {bytecode.OpAddF64, formRRR},
	"sub_f32": {bytecode.OpSubF32, formRRR}, "sub_f64": {bytecode.OpSubF64, formRRR},
	"mul_f32": {bytecode.OpMulF32, formRRR}, "mul_f64": {bytecode.OpMulF64, formRRR},
	"div_f32": {bytecode.OpDivF32, formRRR}, "div_f64": {bytecode.OpDivF64, formRRR},
	"add_imm_f32": {bytecode.OpAddImmF32, formRRI}, "add_imm_f64": {bytecode.OpAddImmF64, formRRI},
	"sub_imm_f32": {bytecode.OpSubImmF32, formRRI}, "sub_imm_f64": {bytecode.OpSubImmF64, formRRI},
	"mul_imm_f32": {bytecode.OpMulImmF32, formRRI}, "mul_imm_f64": {bytecode.OpMulImmF64, formRRI},
	"div_imm_f32": {bytecode.OpDivImmF32, formRRI}, "div_imm_f64": {bytecode.OpDivImmF64, formRRI},

	"or_i8": {bytecode.OpOrI8, formRRR}, "or_i16": {bytecode.OpOrI16, formRRR},
	"or_i32": {bytecode.OpOrI32, formRRR}, "or_i64": {bytecode.OpOrI64, formRRR},
	"xor_i8": {bytecode.OpXorI8, formRRR}, "xor_i16": {bytecode.OpXorI16, formRRR},
	"xor_i32": {bytecode.OpXorI32, formRRR}, "xor_i64": {bytecode.OpXorI64, formRRR},
	"and_i8": {bytecode.OpAndI8, formRRR}, "and_i16": {bytecode.OpAndI16, formRRR},
	"and_i32": {bytecode.OpAndI32, formRRR}, "and_i64": {bytecode.OpAndI64, formRRR},
	"shl_i8": {bytecode.OpShlI8, formRRR}, "shl_i16": {bytecode.OpShlI16, formRRR},
	"shl_i32": {bytecode.OpShlI32, formRRR}, "shl_i64": {bytecode.OpShlI64, formRRR},
	"shr_i8": {bytecode.OpShrI8, formRRR}, "shr_i16": {bytecode.OpShrI16, formRRR},
	"shr_i32": {bytecode.OpShrI32, formRRR}, "shr_i64": {bytecode.OpShrI64, formRRR},
	"ushr_i8": {bytecode.OpUshrI8, formRRR}, "ushr_i16": {bytecode.OpUshrI16, formRRR},
	"ushr_i32": {bytecode.OpUshrI32, formRRR}, "ushr_i64": {bytecode.OpUshrI64, formRRR},

	"or_imm_i8": {bytecode.OpOrImmI8, formRRI}, "or_imm_i16": {bytecode.OpOrImmI16, formRRI},
	"or_imm_i32": {bytecode.OpOrImmI32, formRRI}, "or_imm_i64": {bytecode.OpOrImmI64, formRRI},
	"xor_imm_i8": {bytecode.OpXorImmI8, formRRI}, "xor_imm_i16": {bytecode.OpXorImmI16, formRRI},
	"xor_imm_i32": {bytecode.OpXorImmI32, formRRI}, "xor_imm_i64": {bytecode.OpXorImmI64, formRRI},
	"and_imm_i8": {bytecode.OpAndImmI8, formRRI}, "and_imm_i16": {bytecode.OpAndImmI16, formRRI},
	"and_imm_i32": {bytecode.OpAndImmI32, formRRI}, "and_imm_i64": {bytecode.OpAndImmI64, formRRI},
	"shl_imm_i8": {bytecode.OpShlImmI8, formRRI}, "shl_imm_i16": {bytecode.OpShlImmI16, formRRI},
	"shl_imm_i32": {bytecode.OpShlImmI32, formRRI}, "shl_imm_i64": {bytecode.OpShlImmI64, formRRI},
	"shr_imm_i8": {bytecode.OpShrImmI8, formRRI}, "shr_imm_i16": {bytecode.OpShrImmI16, formRRI},
	"shr_imm_i32": {bytecode.OpShrImmI32, formRRI}, "shr_imm_i64": {bytecode.OpShrImmI64, formRRI},
	"ushr_imm_i8": {bytecode.OpUshrImmI8, formRRI}, "ushr_imm_i16": {bytecode.OpUshrImmI16, formRRI},
	"ushr_imm_i32": {bytecode.OpUshrImmI32, formRRI}, "ushr_imm_i64": {bytecode.OpUshrImmI64, formRRI},

	"inv_i8": {bytecode.OpInvI8, formUnary}, "inv_i16": {bytecode.OpInvI16, formUnary},
	"inv_i32": {bytecode.OpInvI32, formUnary}, "inv_i64": {bytecode.OpInvI64, formUnary},
	"logic_not": {bytecode.OpLogicNot, formUnary},

	"cmp_eq_i8": {bytecode.OpCmpEqI8, formRRR}, "cmp_ne_i8": {bytecode.OpCmpNeI8, formRRR},
	"cmp_lt_i8": {bytecode.OpCmpLtI8, formRRR}, "cmp_le_i8": {bytecode.OpCmpLeI8, formRRR},
	"cmp_gt_i8": {bytecode.OpCmpGtI8, formRRR}, "cmp_ge_i8": {bytecode.OpCmpGeI8, formRRR},
	"cmp_eq_i16": {bytecode.OpCmpEqI16, formRRR}, "cmp_ne_i16": {bytecode.OpCmpNeI16, formRRR},
	"cmp_lt_i16": {bytecode.OpCmpLtI16, formRRR}, "cmp_le_i16": {bytecode.OpCmpLeI16, formRRR},
	"cmp_gt_i16": {bytecode.OpCmpGtI16, formRRR}, "cmp_ge_i16": {bytecode.OpCmpGeI16, formRRR},
	"cmp_eq_i32": {bytecode.OpCmpEqI32, formRRR}, "cmp_ne_i32": {bytecode.OpCmpNeI32, formRRR},
	"cmp_lt_i32": {bytecode.OpCmpLtI32, formRRR}, "cmp_le_i32": {bytecode.OpCmpLeI32, formRRR},
	"cmp_gt_i32": {bytecode.OpCmpGtI32, formRRR}, "cmp_ge_i32": {bytecode.OpCmpGeI32, formRRR},
	"cmp_eq_i64": {bytecode.OpCmpEqI64, formRRR}, "cmp_ne_i64": {bytecode.OpCmpNeI64, formRRR},
	"cmp_lt_i64": {bytecode.OpCmpLtI64, formRRR}, "cmp_le_i64": {bytecode.OpCmpLeI64, formRRR},
	"cmp_gt_i64": {bytecode.OpCmpGtI64, formRRR}, "cmp_ge_i64": {bytecode.OpCmpGeI64, formRRR},
	"cmp_eq_f32": {bytecode.OpCmpEqF32, formRRR}, "cmp_ne_f32": {bytecode.OpCmpNeF32, formRRR},
	"cmp_lt_f32": {bytecode.OpCmpLtF32, formRRR}, "cmp_le_f32": {bytecode.OpCmpLeF32, formRRR},
	"cmp_gt_f32": {bytecode.OpCmpGtF32, formRRR}, "cmp_ge_f32": {bytecode.OpCmpGeF32, formRRR},
	"cmp_eq_f64": {bytecode.OpCmpEqF64, formRRR}, "cmp_ne_f64": {bytecode.OpCmpNeF64, formRRR},
	"cmp_lt_f64": {bytecode.OpCmpLtF64, formRRR}, "cmp_le_f64": {bytecode.OpCmpLeF64, formRRR},
	"cmp_gt_f64": {bytecode.OpCmpGtF64, formRRR}, "cmp_ge_f64": {bytecode.OpCmpGeF64, formRRR},

	"sext_i8": {bytecode.OpSextI8, formCast}, "sext_i16": {bytecode.OpSextI16, formCast},
	"sext_i32": {bytecode.OpSextI32, formCast},
	"trunc_i16": {bytecode.OpTruncI16, formCast}, "trunc_i32": {bytecode.OpTruncI32, formCast},
	"trunc_i64": {bytecode.OpTruncI64, formCast},
	"fp_to_si_f32": {bytecode.OpFpToSiF32, formCast}, "fp_to_si_f64": {bytecode.OpFpToSiF64, formCast},
	"si_to_fp_i8": {bytecode.OpSiToFpI8, formCast}, "si_to_fp_i16": {bytecode.OpSiToFpI16, formCast},
	"si_to_fp_i32": {bytecode.OpSiToFpI32, formCast}, "si_to_fp_i64": {bytecode.OpSiToFpI64, formCast},
	"fp_ext_f32":   {bytecode.OpFpExtF32, formUnary},
	"fp_trunc_f64": {bytecode.OpFpTruncF64, formUnary},

	"jmp":        {bytecode.OpJmp, formJump},
	"jz":         {bytecode.OpJz, formJump},
	"jnz":        {bytecode.OpJnz, formJump},
	"loop_entry": {bytecode.OpLoopEntry, formLoopEntry},

	"call":     {bytecode.OpCall, formCall},
	"call_val": {bytecode.OpCallVal, formCallVal},
	"close_fn": {bytecode.OpCloseFn, formCloseFn},
}

var oopIDs = map[string]bytecode.OopID{
	"union_or_merge":   bytecode.UnionOrMerge,
	"union_test":       bytecode.UnionTest,
	"union_unbox":      bytecode.UnionUnbox,
	"array":            bytecode.Array,
	"array_set":        bytecode.ArraySet,
	"array_direct_set": bytecode.ArrayDirectSet,
	"array_add":        bytecode.ArrayAdd,
	"array_get":        bytecode.ArrayGet,
	"array_size":       bytecode.ArraySize,
	"slice":            bytecode.Slice,
	"map":              bytecode.Map,
	"map_weak":         bytecode.MapWeak,
	"map_put":          bytecode.MapPut,
	"map_delete":       bytecode.MapDelete,
	"map_get":          bytecode.MapGet,
	"map_first_key":    bytecode.MapFirstKey,
	"map_next_key":     bytecode.MapNextKey,
	"map_size":         bytecode.MapSize,
	"to_string":        bytecode.ToString,
	"str_cat":          bytecode.StrCat,
	"str_len":          bytecode.StrLen,
}

var segments = map[string]bytecode.Segment{
	"global_prim":   bytecode.GlobalPrim,
	"global_object": bytecode.GlobalObject,
	"const_prim":    bytecode.ConstPrim,
	"const_object":  bytecode.ConstObject,
	"up_prim":       bytecode.UpPrim,
	"up_object":     bytecode.UpObject,
	"local_prim":    bytecode.LocalPrim,
	"local_object":  bytecode.LocalObject,
}

var widths = map[string]bytecode.OutputWidth{
	"i8":  bytecode.WidthI8,
	"i16": bytecode.WidthI16,
	"i32": bytecode.WidthI32,
	"i64": bytecode.WidthI64,
	"f32": bytecode.WidthF32,
	"f64": bytecode.WidthF64,
}
