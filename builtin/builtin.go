// Package builtin implements the native builtin library: the fixed
// `::lang::*` native functions a fresh VM registers
// before any guest module's own natives are linked in.
//
// Grounded on wasi/preview2/{cli/stdout.go, clocks/wall.go,
// random/secure.go}'s `XxxHost` pattern: one small struct per concern, a
// constructor, and a method per host function, registered through the
// same namespace idea (there `wasi:cli/stdout@0.2.3`, here `::lang::*`).
package builtin

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"time"
	"unsafe"

	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/native"
	"github.com/nyaavm/nyaavm/register"
	"github.com/nyaavm/nyaavm/segment"
)

// host is any of this package's XxxHost types, wired in by RegisterAll.
type host interface {
	Register(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory) error
}

// RegisterAll installs every `::lang::` builtin, directing print/println
// output to out. Call this once per VM, before loading any guest module
// that imports these names.
func RegisterAll(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory, out io.Writer) error {
	hosts := []host{
		NewPrintHost(out),
		NewClockHost(),
		NewRandomHost(),
		NewIdentityHost(),
	}
	for _, h := range hosts {
		if err := h.Register(reg, oGlobal, fac); err != nil {
			return err
		}
	}
	return nil
}

// PrintHost backs ::lang::print, ::lang::println_i64, ::lang::println_f64.
type PrintHost struct {
	Out io.Writer
}

func NewPrintHost(out io.Writer) *PrintHost { return &PrintHost{Out: out} }

func (h *PrintHost) Register(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory) error {
	if _, err := native.Bind(reg, oGlobal, fac, "::lang::print", "(z)!", h.print); err != nil {
		return err
	}
	if _, err := native.Bind(reg, oGlobal, fac, "::lang::println_i64", "(9)!", h.printlnI64); err != nil {
		return err
	}
	if _, err := native.Bind(reg, oGlobal, fac, "::lang::println_f64", "(6)!", h.printlnF64); err != nil {
		return err
	}
	return nil
}

func (h *PrintHost) print(args []heap.Slot) (heap.Slot, error) {
	s, ok := args[0].Ref.(*heap.StringObj)
	if !ok {
		return heap.Slot{}, fmt.Errorf("::lang::print: argument is not a string")
	}
	_, err := h.Out.Write(s.Bytes)
	return heap.Slot{}, err
}

func (h *PrintHost) printlnI64(args []heap.Slot) (heap.Slot, error) {
	_, err := fmt.Fprintln(h.Out, strconv.FormatInt(int64FromSlot(args[0]), 10))
	return heap.Slot{}, err
}

func (h *PrintHost) printlnF64(args []heap.Slot) (heap.Slot, error) {
	_, err := fmt.Fprintln(h.Out, strconv.FormatFloat(float64FromSlot(args[0]), 'g', -1, 64))
	return heap.Slot{}, err
}

// ClockHost backs ::lang::clock_ms.
type ClockHost struct{}

func NewClockHost() *ClockHost { return &ClockHost{} }

func (h *ClockHost) Register(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory) error {
	_, err := native.Bind(reg, oGlobal, fac, "::lang::clock_ms", "()9", h.clockMs)
	return err
}

func (h *ClockHost) clockMs([]heap.Slot) (heap.Slot, error) {
	return slotFromInt64(time.Now().UnixMilli()), nil
}

// RandomHost backs ::lang::rand_u64.
type RandomHost struct{}

func NewRandomHost() *RandomHost { return &RandomHost{} }

func (h *RandomHost) Register(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory) error {
	_, err := native.Bind(reg, oGlobal, fac, "::lang::rand_u64", "()9", h.randU64)
	return err
}

func (h *RandomHost) randU64([]heap.Slot) (heap.Slot, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return heap.Slot{}, err
	}
	return slotFromInt64(int64(binary.LittleEndian.Uint64(buf[:]))), nil
}

// IdentityHost backs ::lang::id_i64, a pass-through used by tests and
// embedders to probe the native bridge without any side effects.
type IdentityHost struct{}

func NewIdentityHost() *IdentityHost { return &IdentityHost{} }

func (h *IdentityHost) Register(reg *register.Register, oGlobal *segment.Object, fac *factory.Factory) error {
	_, err := native.Bind(reg, oGlobal, fac, "::lang::id_i64", "(9)9", h.idI64)
	return err
}

func (h *IdentityHost) idI64(args []heap.Slot) (heap.Slot, error) {
	return args[0], nil
}

func int64FromSlot(s heap.Slot) int64 {
	return *(*int64)(unsafe.Pointer(&s.Prim[0]))
}

func float64FromSlot(s heap.Slot) float64 {
	return *(*float64)(unsafe.Pointer(&s.Prim[0]))
}

func slotFromInt64(n int64) heap.Slot {
	var s heap.Slot
	*(*int64)(unsafe.Pointer(&s.Prim[0])) = n
	return s
}
