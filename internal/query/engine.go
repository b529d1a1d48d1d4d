// Package query implements the memoized, demand-driven, cycle-aware,
// cancellation-aware computation engine every other layer of the
// semantic core is expressed on top of.
//
// The fixed-point control loop here (repeat-until-no-change driving a
// worklist) generalizes from "one hardcoded pass" into "any registered
// query"; the per-call Cancellation token every Get suspends on follows
// a capability-context shape for scoping cancellation to one call.
package query

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Revision is the engine's monotonically increasing logical clock.
// Every Set bumps it by one.
type Revision uint64

// Key identifies one (query kind, argument) pair. Kind names the
// registered query; Arg is an opaque, comparable encoding of its
// argument (callers typically use a struct{} field or a string built
// from interned IDs — anything comparable works as a map key).
type Key struct {
	Kind string
	Arg  any
}

func (k Key) String() string { return fmt.Sprintf("%s(%v)", k.Kind, k.Arg) }

// Durability mirrors input.Durability without importing it, so the
// engine stays independent of any particular input model.
type Durability int

const (
	DurabilityLow Durability = iota
	DurabilityMedium
	DurabilityHigh
)

// CycleError is raised for a query that transitively depends on itself
// and declares no recovery value.
type CycleError struct {
	Key Key
}

func (e *CycleError) Error() string { return "query: cycle detected at " + e.Key.String() }

// Cancelled is returned (never panicked) when a Get observes the engine
// has been cancelled mid-computation. The scheduler is the only place
// that should ever inspect this; everywhere else it just unwinds.
type Cancelled struct{ Key Key }

func (e *Cancelled) Error() string { return "query: cancelled at " + e.Key.String() }

// QueryFn computes a derived value given the active Context (through
// which it must route every nested Get call so the engine can record
// dependencies). Recover, if non-nil, supplies the fixpoint value used
// when this query is caught in a cycle instead of raising CycleError.
type QueryFn func(ctx *Context, arg any) (value any, err error)

type registration struct {
	fn       QueryFn
	recover  func(arg any) (any, bool)
	input    bool
	durability Durability
}

type slot struct {
	mu          sync.Mutex
	value       any
	err         error
	verifiedAt  Revision // revision at which this slot was last confirmed up to date
	changedAt   Revision // revision at which the value last actually changed
	computing   bool
	deps        []Key
	hasValue    bool
}

// Engine is the shared, process-scoped query database. A single Engine
// is constructed once per session; Snapshot
// gives cheap read-only handles onto it for concurrent readers.
type Engine struct {
	mu         sync.RWMutex // guards registry + revision + cancel generation
	registry   map[string]registration
	slots      sync.Map // Key -> *slot
	revision   Revision
	activeReads int32 // atomic count of in-flight Get calls, for the writer barrier
	cancelGen  atomic.Uint64
	group      singleflight.Group
	metrics    *Metrics
	log        *zap.Logger
}

// NewEngine creates an empty engine. Register every query kind before
// the first Get.
func NewEngine() *Engine {
	return &Engine{
		registry: make(map[string]registration),
		metrics:  newMetrics(),
		log:      zap.NewNop(),
	}
}

// SetLogger attaches a structured logger for revision bumps,
// cancellations, and cycle recoveries — the trace detail a long-lived,
// concurrently-queried engine needs that isn't itself part of any
// query's result. A nil logger is ignored (the engine keeps its no-op
// default).
func (e *Engine) SetLogger(log *zap.Logger) {
	if log != nil {
		e.log = log
	}
}

// Metrics exposes the engine's Prometheus collectors (see metrics.go)
// for a host that wants to scrape cache-hit/recompute/cycle/set counts.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// RegisterInput declares an input query kind: one with no body, set
// only via Set.
func (e *Engine) RegisterInput(kind string, durability Durability) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry[kind] = registration{input: true, durability: durability}
}

// RegisterDerived declares a derived query kind computed by fn. recover,
// if non-nil, is consulted when this query kind cycles back to itself;
// if nil, a cycle raises CycleError instead.
func (e *Engine) RegisterDerived(kind string, fn QueryFn, recover func(arg any) (any, bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry[kind] = registration{fn: fn, recover: recover}
}

// Set updates an input's value, bumping the revision. It blocks until
// no reader snapshot is mid-computation (the "writer waits for quiescence"
// rule), then cancels every in-flight reader from the
// prior revision so they can retry at the new one.
func (e *Engine) Set(kind string, arg any, value any) {
	e.mu.Lock()
	reg, ok := e.registry[kind]
	if !ok || !reg.input {
		e.mu.Unlock()
		panic(fmt.Sprintf("query: Set on unregistered or non-input kind %q", kind))
	}
	e.mu.Unlock()

	e.waitForQuiescence()

	key := Key{Kind: kind, Arg: arg}
	e.cancelGen.Add(1) // trips Cancelled for any stale in-flight Get
	e.mu.Lock()
	e.revision++
	rev := e.revision
	e.mu.Unlock()
	e.log.Debug("query.set", zap.Stringer("key", key), zap.Uint64("revision", uint64(rev)))

	sl := e.slotFor(key)
	sl.mu.Lock()
	changed := !sl.hasValue || !valueEqual(sl.value, value)
	sl.value = value
	sl.err = nil
	sl.hasValue = true
	sl.verifiedAt = rev
	if changed {
		sl.changedAt = rev
	}
	sl.mu.Unlock()
	e.metrics.setCount.Inc()
}

func (e *Engine) waitForQuiescence() {
	// Best-effort spin: readers are expected to be short suspension-point
	// bound computations; a production engine would park on a condvar,
	// but the spin keeps the engine allocation-free on the hot Get path.
	for atomic.LoadInt32(&e.activeReads) > 0 {
		// yield
	}
}

func (e *Engine) slotFor(key Key) *slot {
	v, _ := e.slots.LoadOrStore(key, &slot{})
	return v.(*slot)
}

// valueEqual decides whether two query values are the same for the
// purpose of early cutoff. Types that matter for cutoff
// (interned IDs, small structs) implement Equal; anything else that
// isn't comparable by == is conservatively treated as "changed" so
// cutoff never incorrectly reuses a stale value.
func valueEqual(a, b any) (eq bool) {
	type equatable interface{ Equal(other any) bool }
	if ae, ok := a.(equatable); ok {
		return ae.Equal(b)
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Revision returns the engine's current revision number.
func (e *Engine) Revision() Revision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}
