package vm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nyaavm/nyaavm/builtin"
	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/gc"
	"github.com/nyaavm/nyaavm/handle"
	"github.com/nyaavm/nyaavm/heap"
	"github.com/nyaavm/nyaavm/interp"
	"github.com/nyaavm/nyaavm/native"
	"github.com/nyaavm/nyaavm/register"
	"github.com/nyaavm/nyaavm/rtype"
	"github.com/nyaavm/nyaavm/segment"
	"github.com/nyaavm/nyaavm/trace"
	"github.com/nyaavm/nyaavm/vmerr"
)

// ExitCode is the outcome of a completed Run: one value per runtime
// trap exit code, plus KindLanguageError for an uncaught first-class
// Error object.
type ExitCode = vmerr.Kind

// NativeImpl is what RegisterNative binds a name to: the signature text
// the native bridge's grammar parses and the Go function
// backing it.
type NativeImpl struct {
	Signature string
	Fn        native.Impl
}

// Frame is one entry of Backtrace.
type Frame struct {
	Name string
	Kind register.Kind
}

// Profiler is an optional callback Tick invokes off the mutator's
// critical path; it only ever reads Thread.Callee(), an
// atomic load, so it never needs to synchronize with the mutator.
type Profiler func(callee heap.Object)

// Options configures a VM at construction. Every field is optional.
type Options struct {
	Logger       *zap.Logger
	Profiler     Profiler
	HotThreshold int
	MaxCallDepth int
}

// VM is the embedding surface: one VM owns one Thread and
// every collaborator package wires against — global segments, the object
// factory, the collector, the function register, the reflected-type
// table, the native bridge's bound entries, the trace recorder, and the
// external handle table.
//
// Grounded on runtime.Runtime: New/LoadModule/RegisterNative/Run mirror
// Runtime's New/LoadWASM/RegisterFunc/(embedder calling exported funcs),
// narrowed from wazero module instantiation to direct struct wiring since
// there is no separate compiled-module/instantiated-instance split here.
type VM struct {
	mu sync.Mutex

	logger   *zap.Logger
	profiler Profiler

	pGlobal   *segment.Primitive
	oGlobal   *segment.Object
	collector *gc.GC
	fac       *factory.Factory
	reg       *register.Register
	types     *rtype.Table
	tracer    *trace.Recorder
	handles   *handle.Table
	thread    *interp.Thread

	entry   string
	started bool
}

// New builds an empty VM: fresh global
// segments, a collector rooted at this VM's own thread and object
// segment, and an empty function register. No module is loaded yet.
func New(opts Options) (*VM, error) {
	logger := opts.Logger
	if logger == nil {
		logger = Logger()
	}
	threshold := opts.HotThreshold
	if threshold == 0 {
		threshold = trace.DefaultHotThreshold
	}

	v := &VM{
		logger:   logger,
		profiler: opts.Profiler,
		pGlobal:  segment.NewPrimitive(false),
		oGlobal:  segment.NewObject(false),
		reg:      register.New(),
		tracer:   trace.NewWithThreshold(threshold),
	}
	v.types = rtype.NewTable(v.oGlobal)
	v.collector = gc.New(v.scanRoots, v.reclaim)
	v.fac = factory.New(v.collector)
	v.handles = handle.NewTable(v.collector)

	v.thread = interp.NewThread(v.pGlobal, v.oGlobal, v.fac, v.collector, v.reg, v.types)
	v.thread.Trace = v.tracer
	if opts.MaxCallDepth > 0 {
		v.thread.MaxCallDepth = opts.MaxCallDepth
	}
	return v, nil
}

// scanRoots is the gc.RootScanner this VM hands its collector: the
// global object segment (every module-level global and every loaded
// function/type lives there) plus whatever the mutator thread itself
// currently reaches.
func (v *VM) scanRoots(visit func(heap.Object)) {
	for _, o := range v.oGlobal.All() {
		if o != nil {
			visit(o)
		}
	}
	if v.thread != nil {
		v.thread.ScanRoots(visit)
	}
}

// reclaim is the collector's dead-object hook: it evicts a reclaimed
// string from the factory's intern set, or a reclaimed upvalue cell from
// its unique-id map, so a later GetOrNewString/GetOrNewUpvalue with the
// same key doesn't hand back a dead cell (factory.go's own doc comments
// on ForgetString/ForgetUpvalue).
func (v *VM) reclaim(o heap.Object) {
	switch val := o.(type) {
	case *heap.StringObj:
		v.fac.ForgetString(val.Bytes)
	case *heap.UpValueObj:
		v.fac.ForgetUpvalue(val.UniqueID)
	}
}

// LoadModule installs blob's functions and reflected types, the data-delivery half of VM::compile_project.
// Safe to call more than once; later modules' functions are appended
// alongside earlier ones in the same o_global.
func (v *VM) LoadModule(blob ModuleBlob) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, ty := range blob.ReflectedTypes {
		v.types.Register(ty)
	}

	for _, fb := range blob.Functions {
		if v.reg.Find(fb.Name) != nil {
			v.logger.Warn("load module: duplicate function name", zap.String("function", fb.Name))
			return fmt.Errorf("vm: function %q already registered", fb.Name)
		}
		fn := v.fac.NewNormalFunction(fb.Name, fb.ID, fb.ConstObjTable, fb.ConstPrimBlob, fb.Code, fb.Debug)
		offset := v.oGlobal.Advance(1)
		v.oGlobal.Set(offset, fn)
		v.reg.FindOrInsert(fb.Name, offset, register.KindNormal)
	}

	if blob.PGlobalSize > 0 {
		v.pGlobal.Advance(blob.PGlobalSize)
	}
	if blob.OGlobalSize > 0 {
		v.oGlobal.Advance(blob.OGlobalSize)
	}
	if blob.Entry != "" {
		v.entry = blob.Entry
	}
	return nil
}

// RegisterBuiltins installs the `::lang::*` native library, directing
// print/println output to out. Call this once per VM, before loading any
// guest module that imports those names.
func (v *VM) RegisterBuiltins(out io.Writer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return builtin.RegisterAll(v.reg, v.oGlobal, v.fac, out)
}

// RegisterNative binds fn under name through the native bridge: if a loaded module already declared a
// placeholder import for name, that entry's NativeFunctionObj is filled
// in in place; otherwise a fresh o_global slot is allocated for it.
func (v *VM) RegisterNative(name string, fn NativeImpl) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := native.Bind(v.reg, v.oGlobal, v.fac, name, fn.Signature, fn.Fn)
	if err != nil {
		v.logger.Warn("register native: bind failed", zap.String("name", name), zap.Error(err))
	}
	return err
}

// Run starts the thread at blob's bootstrap function and runs to
// completion or to a terminal error. ctx is honored only
// at quantum boundaries: canceling it behaves like Thread.RequestExit,
// since the interpreter's dispatch loop has no other natural checkpoint
// to poll a context at.
func (v *VM) Run(ctx context.Context) (ExitCode, error) {
	if v.entry == "" {
		return vmerr.KindBadBitCode, fmt.Errorf("vm: no entry function loaded")
	}

	done := make(chan struct{})
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				v.thread.RequestExit()
			case <-done:
			}
		}()
	}

	kind, rerr := v.thread.Run(v.entry)
	close(done)

	if rerr != nil {
		v.logger.Warn("run: thread exited with error", zap.String("exit", string(kind)), zap.Error(rerr))
		return kind, rerr
	}
	return kind, nil
}

// Tick runs one quantum of at most quantum instructions, starting the
// thread at the loaded entry function on its first call, then (if set)
// invokes the profiler with the function currently executing. It is the
// cooperative-scheduling alternative to Run:
// repeated calls let a host interleave other work between quanta without
// a second goroutine ever touching mutator state. Once the program runs
// to completion a later Tick call restarts it from the entry function.
func (v *VM) Tick(quantum int) {
	if !v.started {
		if v.entry == "" {
			return
		}
		if err := v.thread.Start(v.entry); err != nil {
			return
		}
		v.started = true
	}

	done, _, _ := v.thread.RunQuantum(quantum)
	if v.profiler != nil {
		v.profiler(v.thread.Callee())
	}
	if done {
		v.started = false
	}
}

// RetainHandle hands the embedder a stable, refcounted Handle<T> over o
//: the object stays alive across GC cycles regardless of
// mutator-stack reachability until every retained reference is released.
func (v *VM) RetainHandle(o heap.Object) handle.Handle {
	return v.handles.Retain(o)
}

// GetHandle resolves a handle retained through RetainHandle.
func (v *VM) GetHandle(h handle.Handle) (heap.Object, bool) {
	return v.handles.Get(h)
}

// DupHandle adds one more reference to an already-retained handle.
func (v *VM) DupHandle(h handle.Handle) bool {
	return v.handles.Dup(h)
}

// ReleaseHandle drops one reference to h, unpinning the object once the
// count reaches zero.
func (v *VM) ReleaseHandle(h handle.Handle) bool {
	return v.handles.Release(h)
}

// Backtrace reports the call stack's function names, outermost first,
// resolved against the Function Register.
func (v *VM) Backtrace() []Frame {
	names := v.thread.Backtrace()
	frames := make([]Frame, 0, len(names))
	for _, n := range names {
		kind := register.KindNormal
		if e := v.reg.Find(n); e != nil {
			kind = e.Kind
		}
		frames = append(frames, Frame{Name: n, Kind: kind})
	}
	return frames
}

// DisassembleAll renders every loaded NormalFunction's code array as one
// instruction per line: program counter, numeric opcode, and its three
// packed operand fields. There is no mnemonic table here since the
// (out-of-scope) emitter is the only thing that would otherwise need
// one; this is a diagnostic dump, not a disassembler-as-a-product.
func (v *VM) DisassembleAll() string {
	var b strings.Builder
	for _, e := range v.reg.AllNormalFunctions() {
		fn, ok := v.oGlobal.Get(e.OffsetInOGlobal).(*heap.NormalFunctionObj)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "function %s (id=%d)\n", fn.Name, fn.ID)
		for pc, raw := range fn.Code {
			w := bytecode.Word(raw)
			fmt.Fprintf(&b, "  %4d: op=%-3d result=%-5d operand1=%-5d operand2=%d\n",
				pc, w.Opcode(), w.Result(), w.Operand1(), w.Operand2())
		}
	}
	return b.String()
}
