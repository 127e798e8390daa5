// Package native implements the Native Bridge: turns a
// NativeFunctionObj's textual signature into a trampoline that marshals
// arguments off a thread's stacks, invokes a registered Go implementation,
// and writes the result back.
//
// Grounded on transcoder/{stack,encoder,decoder}.go's Kind-switched
// lower/lift pattern, narrowed from a full Canonical ABI type
// system down to this runtime's fixed single-character grammar, and on
// errors.New(phase,kind).Detail(...).Build() there, already mirrored by
// this module's own vmerr.Builder.
package native

import "fmt"

// Kind is one character of a native signature: `!` void,
// `8/7/5/9` signed integers of width 8/16/32/64, `3/6` float32/float64,
// `z/e/u/x/s/a/m/r` string/error/union/external/slice/vector/map/function
// references.
type Kind byte

const (
	KindVoid     Kind = '!'
	KindI8       Kind = '8'
	KindI16      Kind = '7'
	KindI32      Kind = '5'
	KindI64      Kind = '9'
	KindF32      Kind = '3'
	KindF64      Kind = '6'
	KindString   Kind = 'z'
	KindError    Kind = 'e'
	KindUnion    Kind = 'u'
	KindExternal Kind = 'x'
	KindSlice    Kind = 's'
	KindVector   Kind = 'a'
	KindMap      Kind = 'm'
	KindFunction Kind = 'r'
)

func (k Kind) valid() bool {
	switch k {
	case KindVoid, KindI8, KindI16, KindI32, KindI64, KindF32, KindF64,
		KindString, KindError, KindUnion, KindExternal, KindSlice, KindVector, KindMap, KindFunction:
		return true
	default:
		return false
	}
}

// IsObject reports whether k is carried on the object stack rather than
// the primitive stack.
func (k Kind) IsObject() bool {
	switch k {
	case KindString, KindError, KindUnion, KindExternal, KindSlice, KindVector, KindMap, KindFunction:
		return true
	default:
		return false
	}
}

// PrimSize is the byte width k occupies on the primitive stack, tightly
// packed (no 8-byte forcing the way a closed-over upvalue capture does):
// 0 for object kinds and for void.
func (k Kind) PrimSize() int {
	switch k {
	case KindI8:
		return 1
	case KindI16:
		return 2
	case KindI32, KindF32:
		return 4
	case KindI64, KindF64:
		return 8
	default:
		return 0
	}
}

// Signature is a parsed native function signature, e.g. "(z)!" or "()9".
type Signature struct {
	Args   []Kind
	Return Kind
}

// Parse reads a "(args)return" signature string.
func Parse(sig string) (Signature, error) {
	open, close := -1, -1
	for i := 0; i < len(sig); i++ {
		switch sig[i] {
		case '(':
			if open != -1 {
				return Signature{}, fmt.Errorf("native: malformed signature %q", sig)
			}
			open = i
		case ')':
			close = i
		}
	}
	if open != 0 || close < open {
		return Signature{}, fmt.Errorf("native: malformed signature %q", sig)
	}
	retPart := sig[close+1:]
	if len(retPart) != 1 {
		return Signature{}, fmt.Errorf("native: malformed return kind in %q", sig)
	}
	ret := Kind(retPart[0])
	if !ret.valid() {
		return Signature{}, fmt.Errorf("native: unknown return kind %q in %q", retPart, sig)
	}

	argsPart := sig[open+1 : close]
	args := make([]Kind, 0, len(argsPart))
	for i := 0; i < len(argsPart); i++ {
		k := Kind(argsPart[i])
		if !k.valid() || k == KindVoid {
			return Signature{}, fmt.Errorf("native: unknown argument kind %q in %q", string(argsPart[i]), sig)
		}
		args = append(args, k)
	}
	return Signature{Args: args, Return: ret}, nil
}

// PrimArgsSize is the total primitive-stack bytes the arguments consume,
// matching heap.NativeFunctionObj.PrimArgsSize.
func (s Signature) PrimArgsSize() int {
	n := 0
	for _, k := range s.Args {
		n += k.PrimSize()
	}
	return n
}

// ObjArgsSize is the number of object-stack slots the arguments consume,
// matching heap.NativeFunctionObj.ObjArgsSize.
func (s Signature) ObjArgsSize() int {
	n := 0
	for _, k := range s.Args {
		if k.IsObject() {
			n++
		}
	}
	return n
}

func (s Signature) String() string {
	b := make([]byte, 0, len(s.Args)+3)
	b = append(b, '(')
	for _, k := range s.Args {
		b = append(b, byte(k))
	}
	b = append(b, ')')
	b = append(b, byte(s.Return))
	return string(b)
}
