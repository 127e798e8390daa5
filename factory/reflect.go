package factory

import "github.com/nyaavm/nyaavm/heap"

// This file holds one constructor per reflected-type kind.
// Each still goes through the ordinary header-init path;
// callers register the result with an rtype.Table to give it a stable
// bytecode-visible index.

func (f *Factory) NewReflectionVoid(typeID int64) *heap.ReflectionVoidObj {
	o := &heap.ReflectionVoidObj{Header: f.alloc_(heap.KindReflectionVoid)}
	o.TypeID = typeID
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionIntegral(typeID int64, bitWide int, signed bool) *heap.ReflectionIntegralObj {
	o := &heap.ReflectionIntegralObj{Header: f.alloc_(heap.KindReflectionIntegral)}
	o.TypeID = typeID
	o.BitWide = bitWide
	o.Signed = signed
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionFloating(typeID int64, bitWide int) *heap.ReflectionFloatingObj {
	o := &heap.ReflectionFloatingObj{Header: f.alloc_(heap.KindReflectionFloating)}
	o.TypeID = typeID
	o.BitWide = bitWide
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionString(typeID int64) *heap.ReflectionStringObj {
	o := &heap.ReflectionStringObj{Header: f.alloc_(heap.KindReflectionString)}
	o.TypeID = typeID
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionError(typeID int64) *heap.ReflectionErrorObj {
	o := &heap.ReflectionErrorObj{Header: f.alloc_(heap.KindReflectionError)}
	o.TypeID = typeID
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionUnion(typeID int64) *heap.ReflectionUnionObj {
	o := &heap.ReflectionUnionObj{Header: f.alloc_(heap.KindReflectionUnion)}
	o.TypeID = typeID
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionExternal(typeID int64) *heap.ReflectionExternalObj {
	o := &heap.ReflectionExternalObj{Header: f.alloc_(heap.KindReflectionExternal)}
	o.TypeID = typeID
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionSlice(typeID int64, element heap.Object) *heap.ReflectionSliceObj {
	o := &heap.ReflectionSliceObj{Header: f.alloc_(heap.KindReflectionSlice)}
	o.TypeID = typeID
	o.Element = element
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionArray(typeID int64, element heap.Object) *heap.ReflectionArrayObj {
	o := &heap.ReflectionArrayObj{Header: f.alloc_(heap.KindReflectionArray)}
	o.TypeID = typeID
	o.Element = element
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionMap(typeID int64, key, value heap.Object) *heap.ReflectionMapObj {
	o := &heap.ReflectionMapObj{Header: f.alloc_(heap.KindReflectionMap)}
	o.TypeID = typeID
	o.Key = key
	o.Value = value
	f.finish(o)
	return o
}

func (f *Factory) NewReflectionFunction(typeID int64, ret heap.Object, params []heap.Object) *heap.ReflectionFunctionObj {
	o := &heap.ReflectionFunctionObj{Header: f.alloc_(heap.KindReflectionFunction)}
	o.TypeID = typeID
	o.Return = ret
	o.Parameters = params
	f.finish(o)
	return o
}
