// Package stack implements the growable, aligned primitive and object
// stacks: a movable base/top pair over a byte (primitive)
// or reference (object) buffer, with typed accessors and the
// adjust_frame/set_frame operations the interpreter's call/return sequence
// depends on.
//
// Grounded on a linker/internal/memory wrapper, which adapts a
// raw buffer with typed ReadU8/16/32/64 and WriteU8/16/32/64 accessors;
// here the buffer is self-owned (grown with append) instead of wrapping a
// wazero api.Memory, and a parallel ObjectStack variant stores typed
// heap.Object references instead of raw bytes.
package stack
