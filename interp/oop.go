package interp

import (
	"strconv"
	"unsafe"

	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/rtype"
	"github.com/nyaavm/nyaavm/stack"
	"github.com/nyaavm/nyaavm/vmerr"
)

// Resolved operand roles for the oop meta-opcode:
//
//   - When an operator mutates an existing container (ArraySet,
//     ArrayDirectSet, ArrayAdd, MapWeak, MapPut, MapDelete, MapFirstKey,
//     MapNextKey), `result` names the container's object-stack offset
//     (read, not written) rather than a destination.
//   - A type-table argument (Array's element type, Map's key/value
//     types, UnionOrMerge/UnionTest/UnionUnbox/ToString's type operand) is
//     always a bare rtype.Table index, never a stack offset.
//   - A value that could be primitive-or-reference (array element, map
//     key/value, union payload) is read/written as a full heap.Slot via
//     readSlot/writeSlot, consulting the relevant reflected type to
//     decide which stack it lives on.
//   - `Slice`'s prose signature needs three inputs (array, begin, size)
//     but the word only carries two past the container; `b` is resolved
//     to a primitive-stack offset holding `begin`, with `size` at the
//     immediately following primitive slot (`b`+width(i64)).
//   - `MapWeak`'s `a` is a bare two-bit immediate (bit 0 = weak key, bit
//     1 = weak value), not an offset.
//   - `MapGet` always produces an object-stack result: a primitive hit
//     value is boxed into a Union of the map's value type so the result
//     slot is uniformly a reference; a miss writes a fresh ErrorObj
//     directly, rather than the prose's "error wrapped in the static
//     result union" — carrying a second reflected type for "the error
//     union" would need a fourth operand the encoding has no room for.

func init() {
	register(bytecode.OpOop, opOop)
}

func opOop(t *Thread, w bytecode.Word) *vmerr.Error {
	id := w.OopID()
	if !id.Valid() {
		return vmerr.Trap(vmerr.KindBadBitCode, "unknown oop sub-operator")
	}
	result := int(w.Result())
	a := int(w.OopA())
	b := w.OopB()

	switch id {
	case bytecode.UnionOrMerge:
		return t.oopUnionOrMerge(result, a, int(b))
	case bytecode.UnionTest:
		return t.oopUnionTest(result, a, int(b))
	case bytecode.UnionUnbox:
		return t.oopUnionUnbox(result, a, int(b))
	case bytecode.Array:
		return t.oopArray(result, int(a), b)
	case bytecode.ArraySet:
		return t.oopArraySet(result, a, int(b))
	case bytecode.ArrayDirectSet:
		return t.oopArrayDirectSet(result, a, int(b))
	case bytecode.ArrayAdd:
		return t.oopArrayAdd(result, int(b))
	case bytecode.ArrayGet:
		return t.oopArrayGet(result, a, int(b))
	case bytecode.ArraySize:
		return t.oopArraySize(result, a)
	case bytecode.Slice:
		return t.oopSlice(result, a, int(b))
	case bytecode.Map:
		return t.oopMap(result, a, int(b))
	case bytecode.MapWeak:
		return t.oopMapWeak(result, a)
	case bytecode.MapPut:
		return t.oopMapPut(result, a, int(b))
	case bytecode.MapDelete:
		return t.oopMapDelete(result, a, int(b))
	case bytecode.MapGet:
		return t.oopMapGet(result, a, int(b))
	case bytecode.MapFirstKey:
		return t.oopMapFirstKey(result, a, int(b))
	case bytecode.MapNextKey:
		return t.oopMapNextKey(result, a, int(b))
	case bytecode.MapSize:
		return t.oopMapSize(result, a)
	case bytecode.ToString:
		return t.oopToString(result, a, int(b))
	case bytecode.StrCat:
		return t.oopStrCat(result, a, int(b))
	case bytecode.StrLen:
		return t.oopStrLen(result, a)
	default:
		return vmerr.Trap(vmerr.KindBadBitCode, "unhandled oop sub-operator")
	}
}

// readSlot pulls a full Slot for a value of reflected type typ out of the
// primitive or object stack at offset, per rtype.IsReference(typ).
func (t *Thread) readSlot(typ heap.Object, offset int) heap.Slot {
	if rtype.IsReference(typ) {
		return heap.Slot{Ref: t.O.Get(offset)}
	}
	var s heap.Slot
	switch rtype.PlacementSize(typ) {
	case 1:
		s.Prim[0] = byte(stack.Get[int8](t.P, offset))
	case 2:
		v := stack.Get[int16](t.P, offset)
		*(*int16)(unsafe.Pointer(&s.Prim[0])) = v
	case 4:
		v := stack.Get[int32](t.P, offset)
		*(*int32)(unsafe.Pointer(&s.Prim[0])) = v
	default:
		v := stack.Get[int64](t.P, offset)
		*(*int64)(unsafe.Pointer(&s.Prim[0])) = v
	}
	return s
}

// writeSlot is readSlot's inverse, additionally running the write
// barrier when the stored value is a non-nil reference and owner is
// non-nil.
func (t *Thread) writeSlot(owner heap.Object, typ heap.Object, offset int, s heap.Slot) {
	if rtype.IsReference(typ) {
		t.O.Set(offset, s.Ref)
		if t.GC != nil && s.Ref != nil && owner != nil {
			t.GC.WriteBarrier(owner, s.Ref)
		}
		return
	}
	switch rtype.PlacementSize(typ) {
	case 1:
		stack.Set(t.P, offset, int8(s.Prim[0]))
	case 2:
		stack.Set(t.P, offset, *(*int16)(unsafe.Pointer(&s.Prim[0])))
	case 4:
		stack.Set(t.P, offset, *(*int32)(unsafe.Pointer(&s.Prim[0])))
	default:
		stack.Set(t.P, offset, *(*int64)(unsafe.Pointer(&s.Prim[0])))
	}
}

func (t *Thread) container(offset int) heap.Object { return t.O.Get(offset) }

func (t *Thread) oopUnionOrMerge(result, a, typeIdx int) *vmerr.Error {
	typ := t.Types.Get(typeIdx)
	if rtype.IsReference(typ) {
		if existing, ok := t.O.Get(a).(*heap.UnionObj); ok && rtype.SameType(existing.Type, typ) {
			t.O.Set(result, existing)
			return nil
		}
	}
	payload := t.readSlot(typ, a)
	u := t.Factory.NewUnion(payload, typ)
	if t.GC != nil && payload.Ref != nil {
		t.GC.WriteBarrier(u, payload.Ref)
	}
	t.O.Set(result, u)
	return nil
}

func (t *Thread) oopUnionTest(result, a, typeIdx int) *vmerr.Error {
	u, ok := t.O.Get(a).(*heap.UnionObj)
	hit := ok && rtype.SameType(u.Type, t.Types.Get(typeIdx))
	var v int8
	if hit {
		v = 1
	}
	stack.Set(t.P, result, v)
	t.cond = hit
	return nil
}

func (t *Thread) oopUnionUnbox(result, a, typeIdx int) *vmerr.Error {
	u, ok := t.O.Get(a).(*heap.UnionObj)
	typ := t.Types.Get(typeIdx)
	if !ok || !rtype.SameType(u.Type, typ) {
		return vmerr.Trap(vmerr.KindBadBitCode, "union_unbox: type mismatch")
	}
	t.writeSlot(nil, typ, result, u.Payload)
	return nil
}

func (t *Thread) oopArray(result, typeIdx int, capacity int32) *vmerr.Error {
	elemType := t.Types.Get(typeIdx)
	v := t.Factory.NewVector(int(capacity), elemType)
	v.SetSize(0)
	t.O.Set(result, v)
	return nil
}

func (t *Thread) oopArraySet(result, idxOff, valOff int) *vmerr.Error {
	v, ok := t.container(result).(*heap.VectorObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_set: not a Vector")
	}
	idx := int(stack.Get[int64](t.P, idxOff))
	if idx < 0 || idx >= v.Size() {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_set: index out of range")
	}
	val := t.readSlot(v.ElemType, valOff)
	v.Elems[idx] = val
	if t.GC != nil && val.Ref != nil {
		t.GC.WriteBarrier(v, val.Ref)
	}
	return nil
}

func (t *Thread) oopArrayDirectSet(result, idx, valOff int) *vmerr.Error {
	v, ok := t.container(result).(*heap.VectorObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_direct_set: not a Vector")
	}
	if idx < 0 || idx >= v.Size() {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_direct_set: index out of range")
	}
	val := t.readSlot(v.ElemType, valOff)
	v.Elems[idx] = val
	if t.GC != nil && val.Ref != nil {
		t.GC.WriteBarrier(v, val.Ref)
	}
	return nil
}

func (t *Thread) oopArrayAdd(result, valOff int) *vmerr.Error {
	v, ok := t.container(result).(*heap.VectorObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_add: not a Vector")
	}
	v.Grow(v.Size() + 1)
	val := t.readSlot(v.ElemType, valOff)
	v.Elems = v.Elems[:v.Size()+1]
	v.Elems[v.Size()] = val
	v.SetSize(v.Size() + 1)
	if t.GC != nil && val.Ref != nil {
		t.GC.WriteBarrier(v, val.Ref)
	}
	return nil
}

func (t *Thread) oopArrayGet(result, containerOff, idxOff int) *vmerr.Error {
	v, ok := t.container(containerOff).(*heap.VectorObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_get: not a Vector")
	}
	idx := int(stack.Get[int64](t.P, idxOff))
	if idx < 0 || idx >= v.Size() {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_get: index out of range")
	}
	t.writeSlot(nil, v.ElemType, result, v.Elems[idx])
	return nil
}

func (t *Thread) oopArraySize(result, containerOff int) *vmerr.Error {
	v, ok := t.container(containerOff).(*heap.VectorObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "array_size: not a Vector")
	}
	stack.Set(t.P, result, int64(v.Size()))
	return nil
}

func (t *Thread) oopSlice(result, containerOff, beginOff int) *vmerr.Error {
	v, ok := t.container(containerOff).(*heap.VectorObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "slice: not a Vector")
	}
	begin := int(stack.Get[int64](t.P, beginOff))
	size := int(stack.Get[int64](t.P, beginOff+8))
	if begin < 0 || size < 0 || begin+size > v.Size() {
		return vmerr.Trap(vmerr.KindBadBitCode, "slice: range out of bounds")
	}
	s := t.Factory.NewSlice(begin, size, v)
	if t.GC != nil {
		t.GC.WriteBarrier(s, v)
	}
	t.O.Set(result, s)
	return nil
}

func (t *Thread) oopMap(result, keyTypeIdx, valueTypeIdx int) *vmerr.Error {
	keyType := t.Types.Get(keyTypeIdx)
	valueType := t.Types.Get(valueTypeIdx)
	t.mapSeed++
	m := t.Factory.NewHashMap(t.mapSeed, heap.MinHashMapSlots, keyType, valueType)
	t.O.Set(result, m)
	return nil
}

func (t *Thread) oopMapWeak(result, bits int) *vmerr.Error {
	m, ok := t.container(result).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_weak: not a HashMap")
	}
	m.WeakKey = bits&1 != 0
	m.WeakValue = bits&2 != 0
	if t.GC != nil && (m.WeakKey || m.WeakValue) {
		t.GC.RegisterWeakMap(m)
	}
	return nil
}

func (t *Thread) oopMapPut(result, keyOff, valOff int) *vmerr.Error {
	m, ok := t.container(result).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_put: not a HashMap")
	}
	key := t.readSlot(m.KeyType, keyOff)
	val := t.readSlot(m.ValueType, valOff)
	mapPut(m, key, val)
	if t.GC != nil {
		if key.Ref != nil {
			t.GC.WriteBarrier(m, key.Ref)
		}
		if val.Ref != nil {
			t.GC.WriteBarrier(m, val.Ref)
		}
	}
	return nil
}

func (t *Thread) oopMapDelete(result, keyOff, presenceOff int) *vmerr.Error {
	m, ok := t.container(result).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_delete: not a HashMap")
	}
	key := t.readSlot(m.KeyType, keyOff)
	present := mapDelete(m, key)
	var v int8
	if present {
		v = 1
	}
	stack.Set(t.P, presenceOff, v)
	return nil
}

func (t *Thread) oopMapGet(result, containerOff, keyOff int) *vmerr.Error {
	m, ok := t.container(containerOff).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_get: not a HashMap")
	}
	key := t.readSlot(m.KeyType, keyOff)
	node, found := mapGetNode(m, key)
	if found {
		if rtype.IsReference(m.ValueType) {
			t.O.Set(result, node.Value.Ref)
			return nil
		}
		u := t.Factory.NewUnion(node.Value, m.ValueType)
		t.O.Set(result, u)
		return nil
	}
	errObj := t.Factory.NewError(t.Factory.GetOrNewString([]byte("key not found")), nil, 0, nil)
	t.O.Set(result, errObj)
	return nil
}

func (t *Thread) oopMapFirstKey(result, keyOff, valOff int) *vmerr.Error {
	m, ok := t.container(result).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_first_key: not a HashMap")
	}
	node, found := mapFirst(m)
	t.cond = found
	if !found {
		return nil
	}
	t.writeSlot(m, m.KeyType, keyOff, node.Key)
	t.writeSlot(m, m.ValueType, valOff, node.Value)
	return nil
}

func (t *Thread) oopMapNextKey(result, keyOff, valOff int) *vmerr.Error {
	m, ok := t.container(result).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_next_key: not a HashMap")
	}
	cur := t.readSlot(m.KeyType, keyOff)
	node, found := mapNext(m, cur)
	t.cond = found
	if !found {
		return nil
	}
	t.writeSlot(m, m.KeyType, keyOff, node.Key)
	t.writeSlot(m, m.ValueType, valOff, node.Value)
	return nil
}

func (t *Thread) oopMapSize(result, containerOff int) *vmerr.Error {
	m, ok := t.container(containerOff).(*heap.HashMapObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "map_size: not a HashMap")
	}
	stack.Set(t.P, result, int64(m.Size()))
	return nil
}

func (t *Thread) oopToString(result, valOff, typeIdx int) *vmerr.Error {
	typ := t.Types.Get(typeIdx)
	val := t.readSlot(typ, valOff)
	str := t.Factory.GetOrNewString([]byte(formatValue(typ, val)))
	t.O.Set(result, str)
	return nil
}

func (t *Thread) oopStrCat(result, aOff, bOff int) *vmerr.Error {
	sa, ok := t.O.Get(aOff).(*heap.StringObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "str_cat: lhs is not a String")
	}
	sb, ok := t.O.Get(bOff).(*heap.StringObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "str_cat: rhs is not a String")
	}
	joined := make([]byte, 0, len(sa.Bytes)+len(sb.Bytes))
	joined = append(joined, sa.Bytes...)
	joined = append(joined, sb.Bytes...)
	t.O.Set(result, t.Factory.NewString(joined))
	return nil
}

func (t *Thread) oopStrLen(result, strOff int) *vmerr.Error {
	s, ok := t.O.Get(strOff).(*heap.StringObj)
	if !ok {
		return vmerr.Trap(vmerr.KindBadBitCode, "str_len: not a String")
	}
	stack.Set(t.P, result, int64(s.Len()))
	return nil
}

// hashSlot hashes a key Slot for HashMapObj bucket placement. String keys
// hash by content so two distinct StringObj cells with identical bytes
// land in the same bucket; other references hash by object identity
// (their header's address); primitive keys hash their raw bytes.
func hashSlot(seed int, s heap.Slot) uint64 {
	h := uint64(1469598103934665603) ^ uint64(seed)
	mix := func(b byte) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	if sr, ok := s.Ref.(*heap.StringObj); ok {
		for _, b := range sr.Bytes {
			mix(b)
		}
		return h
	}
	if s.Ref != nil {
		ptr := uintptr(unsafe.Pointer(heap.HeaderOf(s.Ref)))
		for i := 0; i < int(unsafe.Sizeof(ptr)); i++ {
			mix(byte(ptr >> (8 * i)))
		}
		return h
	}
	for _, b := range s.Prim {
		mix(b)
	}
	return h
}

// slotEqual compares two key Slots the same way hashSlot buckets them:
// strings by content, other references by identity, primitives by bytes.
func slotEqual(a, b heap.Slot) bool {
	sa, aIsStr := a.Ref.(*heap.StringObj)
	sb, bIsStr := b.Ref.(*heap.StringObj)
	if aIsStr && bIsStr {
		return string(sa.Bytes) == string(sb.Bytes)
	}
	if a.IsReference() || b.IsReference() {
		return a.Ref == b.Ref
	}
	return a.Prim == b.Prim
}

func mapBucket(m *heap.HashMapObj, key heap.Slot) int {
	return int(hashSlot(m.Seed, key) % uint64(len(m.Slots)))
}

func mapPut(m *heap.HashMapObj, key, value heap.Slot) {
	if len(m.Slots) == 0 {
		m.Slots = make([]*heap.PairNode, heap.MinHashMapSlots)
	}
	idx := mapBucket(m, key)
	for n := m.Slots[idx]; n != nil; n = n.Next {
		if slotEqual(n.Key, key) {
			n.Value = value
			return
		}
	}
	m.Slots[idx] = &heap.PairNode{Key: key, Value: value, Next: m.Slots[idx]}
	m.SetSize(m.Size() + 1)
	if m.LoadFactor() > heap.GrowLoadFactor {
		mapRehash(m, len(m.Slots)*2)
	}
}

func mapDelete(m *heap.HashMapObj, key heap.Slot) bool {
	if len(m.Slots) == 0 {
		return false
	}
	idx := mapBucket(m, key)
	var prev *heap.PairNode
	for n := m.Slots[idx]; n != nil; n = n.Next {
		if slotEqual(n.Key, key) {
			if prev == nil {
				m.Slots[idx] = n.Next
			} else {
				prev.Next = n.Next
			}
			m.SetSize(m.Size() - 1)
			if m.Size() >= heap.MinHashMapSlots && m.LoadFactor() < heap.ShrinkLoadFactor {
				newLen := len(m.Slots) / 2
				if newLen < heap.MinHashMapSlots {
					newLen = heap.MinHashMapSlots
				}
				mapRehash(m, newLen)
			}
			return true
		}
		prev = n
	}
	return false
}

func mapGetNode(m *heap.HashMapObj, key heap.Slot) (*heap.PairNode, bool) {
	if len(m.Slots) == 0 {
		return nil, false
	}
	idx := mapBucket(m, key)
	for n := m.Slots[idx]; n != nil; n = n.Next {
		if slotEqual(n.Key, key) {
			return n, true
		}
	}
	return nil, false
}

func mapRehash(m *heap.HashMapObj, newLen int) {
	old := m.Slots
	m.Slots = make([]*heap.PairNode, newLen)
	for _, head := range old {
		for n := head; n != nil; {
			next := n.Next
			idx := mapBucket(m, n.Key)
			n.Next = m.Slots[idx]
			m.Slots[idx] = n
			n = next
		}
	}
}

func mapFirst(m *heap.HashMapObj) (*heap.PairNode, bool) {
	for _, head := range m.Slots {
		if head != nil {
			return head, true
		}
	}
	return nil, false
}

// mapNext walks from the bucket holding cur to the next live pair in
// iteration order (bucket index, then chain order within a bucket).
func mapNext(m *heap.HashMapObj, cur heap.Slot) (*heap.PairNode, bool) {
	for i, head := range m.Slots {
		for n := head; n != nil; n = n.Next {
			if !slotEqual(n.Key, cur) {
				continue
			}
			if n.Next != nil {
				return n.Next, true
			}
			for j := i + 1; j < len(m.Slots); j++ {
				if m.Slots[j] != nil {
					return m.Slots[j], true
				}
			}
			return nil, false
		}
	}
	return nil, false
}

// formatValue renders a Slot as text for the ToString oop operator, the
// way the value's reflected type says it should print.
func formatValue(typ heap.Object, s heap.Slot) string {
	switch v := typ.(type) {
	case *heap.ReflectionIntegralObj:
		if v.Signed {
			switch v.BitWide {
			case 8:
				return strconv.FormatInt(int64(int8(s.Prim[0])), 10)
			case 16:
				return strconv.FormatInt(int64(*(*int16)(unsafe.Pointer(&s.Prim[0]))), 10)
			case 32:
				return strconv.FormatInt(int64(*(*int32)(unsafe.Pointer(&s.Prim[0]))), 10)
			default:
				return strconv.FormatInt(*(*int64)(unsafe.Pointer(&s.Prim[0])), 10)
			}
		}
		switch v.BitWide {
		case 8:
			return strconv.FormatUint(uint64(s.Prim[0]), 10)
		case 16:
			return strconv.FormatUint(uint64(*(*uint16)(unsafe.Pointer(&s.Prim[0]))), 10)
		case 32:
			return strconv.FormatUint(uint64(*(*uint32)(unsafe.Pointer(&s.Prim[0]))), 10)
		default:
			return strconv.FormatUint(*(*uint64)(unsafe.Pointer(&s.Prim[0])), 10)
		}
	case *heap.ReflectionFloatingObj:
		if v.BitWide == 32 {
			f := *(*float32)(unsafe.Pointer(&s.Prim[0]))
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
		f := *(*float64)(unsafe.Pointer(&s.Prim[0]))
		return strconv.FormatFloat(f, 'g', -1, 64)
	case *heap.ReflectionVoidObj:
		return "void"
	default:
		if sr, ok := s.Ref.(*heap.StringObj); ok {
			return string(sr.Bytes)
		}
		if s.Ref == nil {
			return "null"
		}
		return "<object>"
	}
}
