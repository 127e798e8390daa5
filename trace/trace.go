// Package trace implements the Trace Record:
// per-function loop-site and guard-site hit counters, and a one-shot hint
// once a site crosses a hotness threshold. No control-flow graph or
// compiled trace is retained — the JIT itself stays out of scope here,
// so this package only ever counts.
//
// Grounded on asyncify/internal/engine/callgraph.go's CallGraph: a
// function-index-keyed map built by walking decoded instructions,
// repurposed here from static call-graph analysis to live hit counting
// keyed the same way (function id, plus a site index within it).
package trace

import "sync"

// DefaultHotThreshold is the hit count a loop or guard site must reach
// before Hint reports it.
const DefaultHotThreshold = 1000

type siteKey struct {
	functionID int32
	site       int
}

// Recorder counts per-function loop back-edge and guard-site hits.
// Hit counting and Hint polling can run from different goroutines (a
// sampling profiler alongside the mutator thread), so every access is
// mutex-guarded.
type Recorder struct {
	mu        sync.Mutex
	threshold int
	loopHits  map[siteKey]int
	guardHits map[siteKey]int
	reported  map[siteKey]bool
}

// New creates a Recorder using DefaultHotThreshold.
func New() *Recorder { return NewWithThreshold(DefaultHotThreshold) }

// NewWithThreshold creates a Recorder with a caller-chosen threshold
// (tests use a low one to avoid driving thousands of iterations).
func NewWithThreshold(threshold int) *Recorder {
	return &Recorder{
		threshold: threshold,
		loopHits:  make(map[siteKey]int),
		guardHits: make(map[siteKey]int),
		reported:  make(map[siteKey]bool),
	}
}

// HitLoop records one hit of a loop back-edge at loopSite within
// functionID. Satisfies interp.Tracer.
func (r *Recorder) HitLoop(functionID int32, loopSite int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loopHits[siteKey{functionID, loopSite}]++
}

// HitGuard records one hit of a guard site: a branch the (out-of-scope)
// emitter flagged as worth watching for speculation, distinct from a
// plain loop back-edge.
func (r *Recorder) HitGuard(functionID int32, guardSite int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guardHits[siteKey{functionID, guardSite}]++
}

// Hint reports the hottest not-yet-reported loop site within functionID
// that has crossed the threshold, if any. Each site is reported at most
// once, so a caller that polls on every call doesn't see the same site
// repeatedly once it has already acted on the hint.
func (r *Recorder) Hint(functionID int32) (loopID int, hot bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	best, bestHits := -1, 0
	for k, hits := range r.loopHits {
		if k.functionID != functionID || r.reported[k] {
			continue
		}
		if hits >= r.threshold && hits > bestHits {
			best, bestHits = k.site, hits
		}
	}
	if best == -1 {
		return 0, false
	}
	r.reported[siteKey{functionID, best}] = true
	return best, true
}

// LoopHits reports the current hit count for one loop site.
func (r *Recorder) LoopHits(functionID int32, loopSite int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loopHits[siteKey{functionID, loopSite}]
}

// GuardHits reports the current hit count for one guard site.
func (r *Recorder) GuardHits(functionID int32, guardSite int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guardHits[siteKey{functionID, guardSite}]
}

// Reset clears every counter and reported flag, for tests that reuse a
// single Recorder across cases.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loopHits = make(map[siteKey]int)
	r.guardHits = make(map[siteKey]int)
	r.reported = make(map[siteKey]bool)
}
