package interp

import (
	"sync/atomic"
	"unsafe"

	"github.com/nyaavm/nyaavm/bytecode"
	"github.com/nyaavm/nyaavm/factory"
	"github.com/nyaavm/nyaavm/gc"
	"github.com/nyaavm/nyaavm/heap"
	fnreg "github.com/nyaavm/nyaavm/register"
	"github.com/nyaavm/nyaavm/rtype"
	"github.com/nyaavm/nyaavm/segment"
	"github.com/nyaavm/nyaavm/stack"
	"github.com/nyaavm/nyaavm/vmerr"
)

// DefaultMaxCallDepth bounds the call stack.
const DefaultMaxCallDepth = 4096

// callContext holds enough to restore the
// caller's view of both stacks and resume at the saved pc. Code/ConstPrim/
// ConstObj/Upvalues are saved alongside it since, unlike a single flat
// code blob, every NormalFunction here owns its own separate code array
// — switching frames means switching which array pc
// indexes into.
type callContext struct {
	pBase, pSize int
	oBase, oSize int
	returnPC     int
	callee       heap.Object
	code         []uint64
	constPrim    []byte
	constObj     []heap.Object
	upvalues     []heap.UpvalDescriptor
}

// Tracer receives loop back-edge hits so it can decide when a loop site
// turns hot. Declared here rather than imported from package trace so
// interp does not need to depend on it; trace.Recorder satisfies this.
type Tracer interface {
	HitLoop(functionID int32, loopSite int)
}

// NativeTrampoline is what every NativeFunctionObj.Warper must hold once
// the native bridge has resolved it: marshal arguments off
// the stacks, invoke the host implementation, and push results back.
// Kept here rather than in package native so heap.NativeFunctionObj's
// opaque Warper field has exactly one consumer-side type to assert
// against, avoiding a heap<->native<->interp import triangle.
type NativeTrampoline func(t *Thread) *vmerr.Error

// calleeBox lets Thread.callee hold a heap.Object behind an atomic.Value,
// which requires a single concrete stored type across every Store call.
type calleeBox struct{ fn heap.Object }

// Thread is one interpreter/mutator.
type Thread struct {
	P       *stack.Primitive
	O       *stack.Object
	PGlobal *segment.Primitive
	OGlobal *segment.Object
	Factory *factory.Factory
	GC      *gc.GC
	Reg     *fnreg.Register
	Types   *rtype.Table

	// Trace is optional; when set, opLoopEntry reports every back-edge hit
	// to it.
	Trace Tracer

	MaxCallDepth int

	calls []callContext
	pc    int
	code  []uint64

	callee    heap.Object
	constPrim []byte
	constObj  []heap.Object
	upvalues  []heap.UpvalDescriptor

	cond bool // the condition register jz/jnz branch on

	tick int

	mapSeed int // incremented per oop Map, seeds each HashMap's bucket hash

	calleeAtomic atomic.Value // calleeBox, read by an optional sampling profiler
	shouldExit   atomic.Bool
}

// NewThread builds a thread over the given global segments and runtime
// collaborators. pStack/oStack default to debug-checked stacks sized for
// a fresh call.
func NewThread(pGlobal *segment.Primitive, oGlobal *segment.Object, f *factory.Factory, g *gc.GC, reg *fnreg.Register, types *rtype.Table) *Thread {
	t := &Thread{
		P:            stack.New(true),
		O:            stack.NewObject(true),
		PGlobal:      pGlobal,
		OGlobal:      oGlobal,
		Factory:      f,
		GC:           g,
		Reg:          reg,
		Types:        types,
		MaxCallDepth: DefaultMaxCallDepth,
	}
	t.calleeAtomic.Store(calleeBox{})
	return t
}

// Callee returns the object currently executing, for the sampling
// profiler. Safe to call from another goroutine.
func (t *Thread) Callee() heap.Object {
	return t.calleeAtomic.Load().(calleeBox).fn
}

// RequestExit sets the "should exit" flag: checked
// before each dispatch, terminates with Success at the next safe point.
func (t *Thread) RequestExit() { t.shouldExit.Store(true) }

func (t *Thread) setCallee(o heap.Object) {
	t.callee = o
	t.calleeAtomic.Store(calleeBox{fn: o})
}

// Start positions the thread to begin executing the named entry function
// without running it. Run and the embedder's
// quantum-at-a-time scheduling (vm.VM.Tick) both build on this; Run is
// simply Start followed by looping to completion.
func (t *Thread) Start(entryName string) *vmerr.Error {
	entry := t.Reg.Find(entryName)
	if entry == nil {
		return vmerr.BadBitCode("entry function " + entryName + " not found in function register")
	}
	callee := t.OGlobal.Get(entry.OffsetInOGlobal)
	return t.enter(callee, 0, 0)
}

// Run starts execution at the named entry function and runs to
// completion.
func (t *Thread) Run(entryName string) (vmerr.Kind, *vmerr.Error) {
	if err := t.Start(entryName); err != nil {
		return err.Kind, err
	}
	return t.loop()
}

// loop is the dispatch core: run quanta of unbounded size until the
// thread halts.
func (t *Thread) loop() (vmerr.Kind, *vmerr.Error) {
	for {
		done, kind, err := t.RunQuantum(loopQuantum)
		if done {
			return kind, err
		}
	}
}

// loopQuantum is the instruction budget loop() gives each RunQuantum call;
// large enough that a Run call never pays the per-quantum return/re-enter
// overhead in practice, small enough to bound a single call's latency if
// something upstream ever wants to interleave it with other work.
const loopQuantum = 1 << 20

// RunQuantum executes at most quantum instructions (or until the thread
// halts, whichever comes first) and returns whether it halted. It is the
// cooperative-scheduling half of the single-mutator-thread model:
// the embedder (vm.VM.Tick) calls this instead of Run so a profiler or
// host-side scheduler gets a chance to run between quanta without a
// second OS thread ever touching the mutator's state.
func (t *Thread) RunQuantum(quantum int) (done bool, kind vmerr.Kind, err *vmerr.Error) {
	for i := 0; i < quantum; i++ {
		if t.shouldExit.Load() || t.pc >= len(t.code) {
			return true, vmerr.KindSuccess, nil
		}

		w := bytecode.Word(t.code[t.pc])
		t.pc++

		t.tick++
		if t.GC != nil {
			t.GC.Step(t.tick)
		}

		op := w.Opcode()
		if !op.Valid() {
			e := vmerr.Panic(byte(op))
			return true, e.Kind, e
		}
		h := dispatch[op]
		if h == nil {
			e := vmerr.Panic(byte(op))
			return true, e.Kind, e
		}
		if err := h(t, w); err != nil {
			if err.Kind == vmerr.KindSuccess {
				return true, vmerr.KindSuccess, nil
			}
			return true, err.Kind, err
		}
	}
	return t.shouldExit.Load() || t.pc >= len(t.code), vmerr.KindSuccess, nil
}

// enter sets up the thread to begin executing callee at its entry point,
// advancing the stacks by the given frame deltas.
func (t *Thread) enter(callee heap.Object, pDelta, oDelta int) *vmerr.Error {
	switch fn := callee.(type) {
	case *heap.NormalFunctionObj:
		t.P.AdjustFrame(pDelta, t.P.Top()-pDelta)
		t.O.AdjustFrame(oDelta, t.O.Top()-oDelta)
		t.setCallee(fn)
		t.code = fn.Code
		t.constPrim = fn.ConstPrimBlob
		t.constObj = fn.ConstObjTable
		t.upvalues = nil
		t.pc = 0
		return nil
	case *heap.ClosureObj:
		t.P.AdjustFrame(pDelta, t.P.Top()-pDelta)
		t.O.AdjustFrame(oDelta, t.O.Top()-oDelta)
		t.setCallee(fn)
		t.code = fn.Function.Code
		t.constPrim = fn.Function.ConstPrimBlob
		t.constObj = fn.Function.ConstObjTable
		t.upvalues = fn.UpValues
		t.pc = 0
		return nil
	case *heap.NativeFunctionObj:
		return t.callNative(fn, pDelta, oDelta)
	default:
		return vmerr.Trap(vmerr.KindBadBitCode, "call target is not a callable object")
	}
}

// callNative runs a native entry via its resolved trampoline. Its frame is
// adjusted exactly as a NormalFunction call's would be, sized to the
// signature's own precomputed argument region (PrimArgsSize/ObjArgsSize)
// rather than anything a `frame` instruction would patch in, since a
// native entry has no bytecode of its own to run that instruction against
//. A nil or
// not-yet-resolved Warper raises NullNativeFunction.
func (t *Thread) callNative(fn *heap.NativeFunctionObj, pDelta, oDelta int) *vmerr.Error {
	trampoline, ok := fn.Warper.(NativeTrampoline)
	if !ok || trampoline == nil {
		return vmerr.NullNativeFunction(fn.Name)
	}
	pBase, pSize := t.P.Base(), t.P.Top()
	oBase, oSize := t.O.Base(), t.O.Top()
	prevCallee := t.callee

	t.P.AdjustFrame(pDelta, fn.PrimArgsSize)
	t.O.AdjustFrame(oDelta, fn.ObjArgsSize)
	t.setCallee(fn)

	err := trampoline(t)

	t.P.SetFrame(pBase, pSize)
	t.O.SetFrame(oBase, oSize)
	t.setCallee(prevCallee)
	return err
}

// ScanRoots visits every heap object directly reachable from this
// thread's share of the GC root set: the
// currently executing function/closure, every suspended caller's on the
// call stack, and every live slot of the object stack. The global object
// segment is a separate root the embedder (package vm) scans on its own,
// since a Thread never holds a reference to it by itself.
func (t *Thread) ScanRoots(visit func(heap.Object)) {
	if t.callee != nil {
		visit(t.callee)
	}
	for _, cc := range t.calls {
		if cc.callee != nil {
			visit(cc.callee)
		}
	}
	t.O.Each(visit)
}

// Backtrace reports the name of every function on the call stack,
// outermost first, for the embedder's diagnostics. Names
// come straight off each frame's own callee object rather than a
// register reverse-lookup, since every callable object already carries
// its own Name field.
func (t *Thread) Backtrace() []string {
	names := make([]string, 0, len(t.calls)+1)
	for _, cc := range t.calls {
		names = append(names, calleeName(cc.callee))
	}
	if t.callee != nil {
		names = append(names, calleeName(t.callee))
	}
	return names
}

func calleeName(o heap.Object) string {
	switch fn := o.(type) {
	case *heap.NormalFunctionObj:
		return fn.Name
	case *heap.ClosureObj:
		if fn.Function != nil {
			return fn.Function.Name
		}
		return "<closure>"
	case *heap.NativeFunctionObj:
		return fn.Name
	default:
		return "<unknown>"
	}
}

// loopFunctionID resolves the ID of the NormalFunction currently
// executing, unwrapping a Closure if that's what's running, for the
// trace recorder's per-function hit counters.
func (t *Thread) loopFunctionID() int32 {
	switch fn := t.callee.(type) {
	case *heap.NormalFunctionObj:
		return fn.ID
	case *heap.ClosureObj:
		return fn.Function.ID
	default:
		return -1
	}
}

// readPrimSlot copies the 8-byte primitive region at offset into a Slot's
// fixed-width Prim array. Every primitive captured by close_fn occupies a
// full 8-byte stack slot regardless of its declared width, so closing a
// closure never needs the descriptor to carry a width.
func readPrimSlot(s *stack.Primitive, offset int) [8]byte {
	var b [8]byte
	v := stack.Get[uint64](s, offset)
	*(*uint64)(unsafe.Pointer(&b[0])) = v
	return b
}

func init() {
	register(bytecode.OpFrame, opFrame)
	register(bytecode.OpRet, opRet)
	register(bytecode.OpDebug, opDebug)
	register(bytecode.OpCall, opCall)
	register(bytecode.OpCallVal, opCallVal)
	register(bytecode.OpCloseFn, opCloseFn)
	register(bytecode.OpJmp, opJmp)
	register(bytecode.OpJz, opJz)
	register(bytecode.OpJnz, opJnz)
	register(bytecode.OpLoopEntry, opLoopEntry)
}

// opFrame grows both stacks to their declared sizes.
func opFrame(t *Thread, w bytecode.Word) *vmerr.Error {
	sizeP, sizeO := w.WideA(), w.WideB()
	t.P.SetFrame(t.P.Base(), int(sizeP))
	t.O.SetFrame(t.O.Base(), int(sizeO))
	return nil
}

// opRet restores the caller's frame and resumes at the saved pc. Returning from the outermost frame ends the thread.
func opRet(t *Thread, w bytecode.Word) *vmerr.Error {
	if len(t.calls) == 0 {
		t.pc = len(t.code) // outermost return: loop() sees pc exhausted
		return nil
	}
	cc := t.calls[len(t.calls)-1]
	t.calls = t.calls[:len(t.calls)-1]

	t.P.SetFrame(cc.pBase, cc.pSize)
	t.O.SetFrame(cc.oBase, cc.oSize)
	t.pc = cc.returnPC
	t.code = cc.code
	t.constPrim = cc.constPrim
	t.constObj = cc.constObj
	t.upvalues = cc.upvalues
	t.setCallee(cc.callee)
	return nil
}

// opDebug is the `debug` opcode: an unrecoverable assertion in release
// builds.
func opDebug(t *Thread, w bytecode.Word) *vmerr.Error {
	return &vmerr.Error{Phase: vmerr.PhaseRuntime, Kind: vmerr.KindDebugging}
}

// opCall is a statically resolved call: the target is a
// function the emitter already resolved to a fixed o_global slot (the
// same addressing the Function Register hands out), given directly as
// Operand2 rather than via an indirect object-stack read.
//
// Resolved ambiguity: a prose signature of "call base_p base_o
// delta" doesn't fit the standard three-operand word alongside an
// object-stack offset the way call_val does, so this interpretation fixes
// the third field as a direct o_global offset of the callee
// (NormalFunction or Closure): Result = prim frame delta, Operand1 = obj
// frame delta, Operand2 = o_global offset.
func opCall(t *Thread, w bytecode.Word) *vmerr.Error {
	pDelta := int(w.Result())
	oDelta := int(w.Operand1())
	target := int(w.Operand2())
	return t.call(t.OGlobal.Get(target), pDelta, oDelta)
}

// opCallVal is an indirect call through an object-stack slot: Result/Operand1 carry the frame deltas exactly as opCall,
// Operand2 names the local object-stack offset holding the callee
// reference.
func opCallVal(t *Thread, w bytecode.Word) *vmerr.Error {
	pDelta := int(w.Result())
	oDelta := int(w.Operand1())
	offset := int(w.Operand2())
	callee := t.O.Get(offset)
	if callee == nil {
		return vmerr.NullNativeFunction("<object-stack slot holds no function>")
	}
	return t.call(callee, pDelta, oDelta)
}

func (t *Thread) call(callee heap.Object, pDelta, oDelta int) *vmerr.Error {
	if nf, ok := callee.(*heap.NativeFunctionObj); ok {
		return t.callNative(nf, pDelta, oDelta)
	}
	if len(t.calls) >= t.MaxCallDepth {
		return vmerr.StackOverflow(len(t.calls), t.MaxCallDepth)
	}
	t.calls = append(t.calls, callContext{
		pBase: t.P.Base(), pSize: t.P.Top(),
		oBase: t.O.Base(), oSize: t.O.Top(),
		returnPC:  t.pc,
		callee:    t.callee,
		code:      t.code,
		constPrim: t.constPrim,
		constObj:  t.constObj,
		upvalues:  t.upvalues,
	})
	if err := t.enter(callee, pDelta, oDelta); err != nil {
		t.calls = t.calls[:len(t.calls)-1]
		return err
	}
	return nil
}

// opCloseFn resolves every descriptor of the open closure sitting at the
// given local object-stack offset into a heap UpValue, after which it may
// escape its creating frame.
func opCloseFn(t *Thread, w bytecode.Word) *vmerr.Error {
	offset := int(w.Operand2())
	obj := t.O.Get(offset)
	closure, ok := obj.(*heap.ClosureObj)
	if !ok || !closure.Open {
		return vmerr.Trap(vmerr.KindBadBitCode, "close_fn target is not an open closure")
	}
	for i := range closure.UpValues {
		d := &closure.UpValues[i]
		if d.Resolved != nil {
			continue
		}
		var value heap.Slot
		if d.OnObjStack {
			value.Ref = t.O.Get(d.Offset)
		} else {
			value.Prim = readPrimSlot(t.P, d.Offset)
		}
		d.Resolved = t.Factory.GetOrNewUpvalue(value, d.UniqueID, !d.OnObjStack)
		if t.GC != nil {
			t.GC.WriteBarrier(closure, d.Resolved)
		}
	}
	closure.Open = false
	return nil
}

// opJmp is an unconditional relative branch: delta is in
// instruction-word units, applied to the already-advanced pc.
func opJmp(t *Thread, w bytecode.Word) *vmerr.Error {
	t.pc += int(w.Operand2())
	return nil
}

// opJz/opJnz branch on the interpreter's condition register rather than a
// named stack slot (resolving the open question around
// MapFirstKey/MapNextKey's "skip next instruction" wording): every
// boolean-producing operator — cmp_iN/cmp_fN, UnionTest, and the has-
// value flag of MapFirstKey/MapNextKey — sets t.cond in addition to
// writing its own named destination, so jz/jnz never need a second
// operand to say what they're testing.
func opJz(t *Thread, w bytecode.Word) *vmerr.Error {
	if !t.cond {
		t.pc += int(w.Operand2())
	}
	return nil
}

func opJnz(t *Thread, w bytecode.Word) *vmerr.Error {
	if t.cond {
		t.pc += int(w.Operand2())
	}
	return nil
}

// opLoopEntry marks a loop back-edge target for the trace recorder;
// id is the per-function loop-site index.
func opLoopEntry(t *Thread, w bytecode.Word) *vmerr.Error {
	if t.Trace != nil {
		t.Trace.HitLoop(t.loopFunctionID(), int(w.Result()))
	}
	return nil
}
