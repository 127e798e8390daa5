// Package heap defines the bit-exact in-memory representation of every
// managed object kind: the shared header carrying the
// GC's intrusive list pointers and atomic flags word, and one Go struct per
// object shape.
//
// Where the original C++ source hand-lays-out memory with field-offset
// constants, this package replaces that
// with explicit struct definitions: one tagged sum (the Kind-tagged Header)
// plus a strongly typed struct per variant. Trailing variable-length arrays
// (string bytes, function code, closure upvalue descriptors) become owned
// slices on the struct instead of manually computed trailing offsets.
package heap
