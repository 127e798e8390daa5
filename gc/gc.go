package gc

import (
	"sync"

	"github.com/nyaavm/nyaavm/heap"
)

// Phase is one state of the collector's step(tick) state machine.
type Phase int

const (
	PhasePause Phase = iota
	PhaseMarkRoot
	PhaseRemark
	PhasePropagate
	PhaseAtomic
	PhaseSweepWeak
	PhaseSweepYoung
	PhaseSweepOld
	PhaseFinalize
)

func (p Phase) String() string {
	switch p {
	case PhasePause:
		return "Pause"
	case PhaseMarkRoot:
		return "MarkRoot"
	case PhaseRemark:
		return "Remark"
	case PhasePropagate:
		return "Propagate"
	case PhaseAtomic:
		return "Atomic"
	case PhaseSweepWeak:
		return "SweepWeak"
	case PhaseSweepYoung:
		return "SweepYoung"
	case PhaseSweepOld:
		return "SweepOld"
	case PhaseFinalize:
		return "Finalize"
	default:
		return "Phase(?)"
	}
}

const (
	DefaultPropagateSpeed = 50 // kDefaultPropagateSpeed in the original
	DefaultSweepSpeed     = 50 // kDefaultSweepSpeed in the original
	youngGeneration       = 0
	oldGeneration         = 1
)

// RootScanner is supplied by the embedder (package vm): it calls visit on
// every object reachable directly from a GC root — the global object
// segment, the current thread's object stack, and the current call stack.
type RootScanner func(visit func(heap.Object))

// GC is the Mark-Sweep-Generation collector.
type GC struct {
	mu sync.Mutex

	white Color
	phase Phase

	tick, startTick int
	propagateSpeed  int
	sweepSpeed      int
	active          bool

	gray, grayAgain *list
	young, old      *list
	youngCursor     *heap.Header
	oldCursor       *heap.Header

	// handles holds every object currently pinned by an external Handle,
	// keyed by its header pointer. Kept as a plain map rather than a
	// third intrusive list: an object's single next/prev pair is always
	// owned by whichever generation/work list it is presently threaded
	// onto, so "currently pinned" has to be tracked out of band instead
	// of by (exclusive) list membership (see DESIGN.md, "Handle-list
	// membership").
	handles map[*heap.Header]heap.Object

	roots    RootScanner
	weakMaps []*heap.HashMapObj

	// reclaim is called for every object the sweep phases determine is
	// dead, before it is unlinked, so the factory can evict it from the
	// string-intern set or upvalue cache.
	reclaim func(heap.Object)
}

// Color is an alias so callers outside heap don't need two import paths
// for the same concept.
type Color = heap.Color

const (
	White0 = heap.White0
	White1 = heap.White1
	Gray   = heap.Gray
	Black  = heap.Black
)

// New creates a collector. roots is called at the start of every
// MarkRoot phase; reclaim (optional, may be nil) is notified of every
// object a sweep phase determines is dead.
func New(roots RootScanner, reclaim func(heap.Object)) *GC {
	return &GC{
		white:          White0,
		phase:          PhasePause,
		propagateSpeed: DefaultPropagateSpeed,
		sweepSpeed:     DefaultSweepSpeed,
		active:         true,
		gray:           newList(),
		grayAgain:      newList(),
		young:          newList(),
		old:            newList(),
		handles:        make(map[*heap.Header]heap.Object),
		roots:          roots,
		reclaim:        reclaim,
	}
}

// CurrentWhite implements factory.Allocator.
func (g *GC) CurrentWhite() heap.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.white
}

// Track implements factory.Allocator: a freshly built object joins the
// young generation's list.
func (g *GC) Track(o heap.Object) {
	h := heap.HeaderOf(o)
	if h == nil {
		return
	}
	g.mu.Lock()
	g.young.pushFront(h)
	g.mu.Unlock()
}

// Phase reports the collector's current phase (embedding API introspection).
func (g *GC) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Tick reports the tick of the last Step call.
func (g *GC) Tick() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

// Active turns the collector on/off).
func (g *GC) Active(active bool) {
	g.mu.Lock()
	g.active = active
	g.mu.Unlock()
}

func (g *GC) prevWhite() heap.Color {
	if g.white == White0 {
		return White1
	}
	return White0
}

func isWhite(c heap.Color) bool { return c == White0 || c == White1 }

// unlink splices h out of whichever list currently threads it, using
// only h's own prev/next pointers — a doubly-linked node can always be
// removed without the caller knowing which logical list holds it. A
// header no list threads yet (an object built outside the factory, such
// as a hand-made reflected type) has nil pointers and is left as is.
func unlink(h *heap.Header) {
	if h.Prev() == nil {
		return
	}
	h.Prev().SetNext(h.Next())
	h.Next().SetPrev(h.Prev())
	h.SetNext(nil)
	h.SetPrev(nil)
}

// generationList returns the list an object of the given generation
// belongs in once it is no longer part of a GC worklist.
func (g *GC) generationList(gen uint8) *list {
	if gen >= oldGeneration {
		return g.old
	}
	return g.young
}

// Step advances the collector by one unit of work"). Called by the interpreter between
// instructions at a safe point.
func (g *GC) Step(tick int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active {
		return
	}

	switch g.phase {
	case PhasePause:
		g.startTick = tick
		// Survivors of the previous cycle are still black; return them to
		// the current white so this cycle marks them afresh and an object
		// that lost its last root or handle can turn out dead.
		whiten := func(h *heap.Header) {
			if h.Color() == Black {
				h.SetColor(g.white)
			}
		}
		g.young.forEach(whiten)
		g.old.forEach(whiten)
		g.phase = PhaseMarkRoot
	case PhaseMarkRoot:
		g.markRoot()
		g.phase = PhaseRemark
	case PhaseRemark:
		g.remark()
		g.phase = PhasePropagate
	case PhasePropagate:
		g.propagate()
	case PhaseSweepWeak:
		g.sweepWeak()
		g.phase = PhaseSweepYoung
	case PhaseSweepYoung:
		if g.sweepYoung() {
			g.phase = PhaseSweepOld
		}
	case PhaseSweepOld:
		if g.sweepOld() {
			g.phase = PhaseFinalize
		}
	case PhaseFinalize:
		g.phase = PhasePause
		g.startTick = 0
	}
	g.tick = tick
}

// FullGC drives the collector through one complete cycle synchronously
// (used by tests and the embedding API's explicit GC trigger). Always
// performs at least one full Pause..Finalize sweep, even if called while
// already paused.
func (g *GC) FullGC() {
	t := g.Tick()
	for {
		t++
		g.Step(t)
		if g.Phase() == PhasePause {
			return
		}
	}
}

// markRoot colors every object directly reachable from a GC root gray
// and moves it onto the gray worklist. Caller
// holds g.mu.
func (g *GC) markRoot() {
	if g.roots == nil {
		return
	}
	g.roots(func(o heap.Object) {
		g.maybeGray(o)
	})
}

// maybeGray moves o onto the gray worklist if it is currently white.
// Caller holds g.mu.
func (g *GC) maybeGray(o heap.Object) {
	h := heap.HeaderOf(o)
	if h == nil || !isWhite(h.Color()) {
		return
	}
	unlink(h)
	h.SetColor(Gray)
	g.gray.pushFront(h)
}

// remark walks every handle-pinned object and ensures it too is on the
// gray worklist, so objects reachable only through an external Handle
// survive even with no path from the ordinary root set. Caller holds g.mu.
func (g *GC) remark() {
	for _, o := range g.handles {
		g.maybeGray(o)
	}
}

// propagate pops up to propagateSpeed gray objects, scans each via
// heap.Scan, grays any newly discovered white referent, and finishes the
// popped object by coloring it black and returning it to its generation
// list. When both the gray worklist and grayAgain (where this scan queues
// newly grayed referents) drain empty, the cycle moves to atomic(). Caller
// holds g.mu.
func (g *GC) propagate() {
	n := 0
	for n < g.propagateSpeed {
		x := g.gray.front()
		if x == nil {
			break
		}
		g.gray.remove(x)

		owner := x.Owner()
		if owner != nil {
			heap.Scan(owner, func(r heap.Object) {
				rh := heap.HeaderOf(r)
				if rh == nil || !isWhite(rh.Color()) {
					return
				}
				unlink(rh)
				rh.SetColor(Gray)
				g.grayAgain.pushFront(rh)
			})
		}

		x.SetColor(Black)
		g.generationList(x.Generation()).pushFront(x)
		n++
	}

	if g.gray.empty() {
		if g.grayAgain.empty() {
			g.atomic()
			g.phase = PhaseSweepWeak
		} else {
			g.grayAgain.moveAllTo(g.gray)
		}
	}
}

// atomic performs the Atomic step's remaining, stop-the-world
// part: flipping which white is "current". The "swap gray-again into
// gray, re-run MarkRoot+Remark+drain" half of the original description
// is subsumed by propagate()'s loop and by WriteBarrier enqueueing
// freshly-grayed objects directly onto gray — by the time propagate()
// calls atomic(), both worklists are already empty by construction, so
// there is nothing left to re-drain.
func (g *GC) atomic() {
	g.white = g.prevWhite()
}

// sweepWeak drops entries from registered weak HashMaps whose weak-
// marked side is now dead (colored at the previous white, which after
// atomic() identifies garbage). Caller holds
// g.mu.
func (g *GC) sweepWeak() {
	dead := g.prevWhite()
	for _, m := range g.weakMaps {
		for i, head := range m.Slots {
			var prev *heap.PairNode
			node := head
			for node != nil {
				next := node.Next
				drop := false
				if m.WeakKey && node.Key.IsReference() {
					if kh := heap.HeaderOf(node.Key.Ref); kh != nil && kh.Color() == dead {
						drop = true
					}
				}
				if m.WeakValue && node.Value.IsReference() {
					if vh := heap.HeaderOf(node.Value.Ref); vh != nil && vh.Color() == dead {
						drop = true
					}
				}
				if drop {
					if prev == nil {
						m.Slots[i] = next
					} else {
						prev.Next = next
					}
					m.SetSize(m.Size() - 1)
				} else {
					prev = node
				}
				node = next
			}
		}
	}
}

// RegisterWeakMap tells the collector about a HashMap with a weak key
// and/or value side, so sweepWeak considers it.
func (g *GC) RegisterWeakMap(m *heap.HashMapObj) {
	g.mu.Lock()
	g.weakMaps = append(g.weakMaps, m)
	g.mu.Unlock()
}

// sweepYoung processes up to sweepSpeed objects of generation 0 starting
// from a resumable cursor, reclaiming previous-white objects and
// promoting black survivors to generation 1.
// Returns true once a full pass has completed. Caller holds g.mu.
func (g *GC) sweepYoung() bool {
	return g.sweepGeneration(g.young, &g.youngCursor, true)
}

// sweepOld applies the same policy to generation 1, except survivors
// have nowhere further to be promoted to and simply stay. Caller holds g.mu.
func (g *GC) sweepOld() bool {
	return g.sweepGeneration(g.old, &g.oldCursor, false)
}

func (g *GC) sweepGeneration(l *list, cursor **heap.Header, promote bool) bool {
	dead := g.prevWhite()
	h := *cursor
	if h == nil {
		h = l.front()
	}

	n := 0
	for n < g.sweepSpeed {
		if h == nil || h == &l.sentinel {
			*cursor = nil
			return true
		}
		next := h.Next()

		switch {
		case h.Color() == dead:
			unlink(h)
			if g.reclaim != nil {
				g.reclaim(h.Owner())
			}
		case h.Color() == Black && promote:
			unlink(h)
			h.SetGeneration(oldGeneration)
			g.old.pushFront(h)
		}

		h = next
		n++
	}
	*cursor = h
	return false
}

// Pin marks o as held by an external Handle, guaranteeing it survives
// future GC cycles via remark() regardless of reachability from the
// ordinary root set.
func (g *GC) Pin(o heap.Object) {
	h := heap.HeaderOf(o)
	if h == nil {
		return
	}
	g.mu.Lock()
	g.handles[h] = o
	g.mu.Unlock()
}

// Unpin drops o from the pinned set once its last Handle has been
// released.
func (g *GC) Unpin(o heap.Object) {
	h := heap.HeaderOf(o)
	if h == nil {
		return
	}
	g.mu.Lock()
	delete(g.handles, h)
	g.mu.Unlock()
}

// WriteBarrier implements the generation-promotion and SATB
// requirements for a pointer write `target <- other`: whichever of the
// two objects sits in the younger generation is promoted to match the
// elder (an old object is never allowed to hold the only reference to a
// young one between collections), and if target is already black while
// other is still some shade of white, other is grayed immediately so the
// invariant "no black object points at a white one" never breaks.
//
// Every opcode that stores an object reference into an already-heap-
// resident slot (mov_obj*, the object-kind StoreObj group, ArraySet,
// MapPut, UnionOrMerge and friends) must call this after the store.
// Once an object turns black it is never rescanned by markRoot or
// propagate — this call is the only thing that keeps its later
// mutations visible to the collector.
func (g *GC) WriteBarrier(target, other heap.Object) {
	th, oh := heap.HeaderOf(target), heap.HeaderOf(other)
	if th == nil || oh == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if oh.Generation() < th.Generation() && oh.Color() != Gray {
		unlink(oh)
		oh.SetGeneration(th.Generation())
		g.generationList(th.Generation()).pushFront(oh)
	} else if th.Generation() < oh.Generation() && th.Color() != Gray {
		unlink(th)
		th.SetGeneration(oh.Generation())
		g.generationList(oh.Generation()).pushFront(th)
	}

	if th.Color() == Black && isWhite(oh.Color()) {
		unlink(oh)
		oh.SetColor(Gray)
		g.gray.pushFront(oh)
	}
}
