package heap

// Scan invokes visit on every outgoing reference of o. It never recurses: callers (the GC's Propagate phase) own the
// worklist discipline that keeps cyclic graphs bounded.
func Scan(o Object, visit func(Object)) {
	visitSlot := func(s Slot) {
		if s.Ref != nil {
			visit(s.Ref)
		}
	}

	switch v := o.(type) {
	case *StringObj:
		// no outgoing references

	case *ErrorObj:
		if v.Message != nil {
			visit(v.Message)
		}
		if v.File != nil {
			visit(v.File)
		}
		if v.Linked != nil {
			visit(v.Linked)
		}

	case *UnionObj:
		if v.Type != nil {
			visit(v.Type)
		}
		visitSlot(v.Payload)

	case *ExternalObj:
		// raw pointer, never scanned

	case *VectorObj:
		if v.ElemType != nil {
			visit(v.ElemType)
		}
		for _, s := range v.Elems {
			visitSlot(s)
		}

	case *SliceObj:
		if v.Backing != nil {
			visit(v.Backing)
		}

	case *HashMapObj:
		if v.KeyType != nil {
			visit(v.KeyType)
		}
		if v.ValueType != nil {
			visit(v.ValueType)
		}
		for _, head := range v.Slots {
			for p := head; p != nil; p = p.Next {
				visitSlot(p.Key)
				visitSlot(p.Value)
			}
		}

	case *UpValueObj:
		visitSlot(v.Value)

	case *ClosureObj:
		if v.Function != nil {
			visit(v.Function)
		}
		for _, d := range v.UpValues {
			if d.Resolved != nil {
				visit(d.Resolved)
			}
		}

	case *NativeFunctionObj:
		// no managed outgoing references

	case *NormalFunctionObj:
		for _, c := range v.ConstObjTable {
			if c != nil {
				visit(c)
			}
		}

	case *ReflectionSliceObj:
		if v.Element != nil {
			visit(v.Element)
		}
	case *ReflectionArrayObj:
		if v.Element != nil {
			visit(v.Element)
		}
	case *ReflectionMapObj:
		if v.Key != nil {
			visit(v.Key)
		}
		if v.Value != nil {
			visit(v.Value)
		}
	case *ReflectionFunctionObj:
		if v.Return != nil {
			visit(v.Return)
		}
		for _, p := range v.Parameters {
			if p != nil {
				visit(p)
			}
		}

	case *ReflectionVoidObj, *ReflectionIntegralObj, *ReflectionFloatingObj,
		*ReflectionStringObj, *ReflectionErrorObj, *ReflectionUnionObj,
		*ReflectionExternalObj:
		// leaf reflected types: no outgoing references
	}
}
