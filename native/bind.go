package native

import (
	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/register"
	"github.com/nyaavm/nyaavm/segment"
)

// Bind resolves or creates the NativeFunctionObj for name in oGlobal and
// installs impl's trampoline as its Warper. If the loader
// already declared a placeholder entry for name (a NativeFunctionObj with
// its Signature set but Warper nil, left by LoadModule scanning a
// module's import table), that object is reused in place; otherwise a
// fresh o_global slot and register entry are created, for natives an
// embedder wires in ahead of any bitcode that imports them.
func Bind(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory, name, sigText string, impl Impl) (*heap.NativeFunctionObj, error) {
	sig, err := Parse(sigText)
	if err != nil {
		return nil, err
	}
	trampoline := Trampoline(sig, impl)

	if entry := reg.Find(name); entry != nil {
		if fn, ok := oGlobal.Get(entry.OffsetInOGlobal).(*heap.NativeFunctionObj); ok {
			fn.Signature = sigText
			fn.PrimArgsSize = sig.PrimArgsSize()
			fn.ObjArgsSize = sig.ObjArgsSize()
			fn.Fn = impl
			fn.Warper = trampoline
			return fn, nil
		}
	}

	offset := oGlobal.Advance(1)
	fn := fac.NewNativeFunction(name, sigText, sig.PrimArgsSize(), sig.ObjArgsSize(), impl, trampoline)
	oGlobal.Set(offset, fn)
	reg.RegisterNative(name, offset)
	return fn, nil
}
