package query

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Snapshot is a cheap, read-only handle onto the database at a fixed
// revision. Multiple snapshots may evaluate
// queries concurrently; a snapshot pins the revision it was created at
// purely for caller bookkeeping — the engine always validates against
// its *current* revision, since cached values only ever move forward.
type Snapshot struct {
	engine *Engine
	rev    Revision
}

// NewSnapshot pins the engine's current revision and returns a handle
// usable from any number of concurrent goroutines.
func (e *Engine) NewSnapshot() *Snapshot {
	return &Snapshot{engine: e, rev: e.Revision()}
}

// Revision reports the revision this snapshot was taken at.
func (s *Snapshot) Revision() Revision { return s.rev }

// Get evaluates a top-level query against this snapshot, returning its
// value (computing it, or reusing a valid cached value, as needed).
func (s *Snapshot) Get(kind string, arg any) (any, error) {
	atomic.AddInt32(&s.engine.activeReads, 1)
	defer atomic.AddInt32(&s.engine.activeReads, -1)

	ctx := &Context{engine: s.engine, gen: s.engine.cancelGen.Load()}
	return ctx.Get(kind, arg)
}

// get is the shared implementation behind Context.Get: look up the
// slot, validate-without-recompute if possible (early cutoff),
// otherwise recompute via singleflight so concurrent identical requests
// collapse into one execution (golang.org/x/sync/singleflight).
func (e *Engine) get(ctx *Context, key Key) (any, error) {
	e.mu.RLock()
	reg, ok := e.registry[key.Kind]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("query: unregistered kind %q", key.Kind)
	}

	sl := e.slotFor(key)

	if reg.input {
		sl.mu.Lock()
		defer sl.mu.Unlock()
		if !sl.hasValue {
			return nil, fmt.Errorf("query: input %s read before Set", key)
		}
		return sl.value, sl.err
	}

	validationCtx := &Context{engine: e, gen: ctx.gen, stack: append(append([]Key{}, ctx.stack...), key)}
	if v, _, ok := e.tryCutoff(validationCtx, key, sl); ok {
		e.metrics.hitCount.Inc()
		sl.mu.Lock()
		err := sl.err
		sl.mu.Unlock()
		return v, err
	}

	v, err, _ := e.group.Do(key.String(), func() (any, error) {
		return e.compute(ctx, key, reg, sl)
	})
	return v, err
}

// tryCutoff attempts to validate a cached value without recomputing its
// body: it re-runs (via Get, recursively) every direct dependency at the
// engine's current revision, checked concurrently via errgroup since
// the dependencies are independent of each other; if all return the
// same values they did last time, the cached value is reused.
func (e *Engine) tryCutoff(ctx *Context, key Key, sl *slot) (value any, fresh bool, ok bool) {
	sl.mu.Lock()
	if !sl.hasValue {
		sl.mu.Unlock()
		return nil, false, false
	}
	curRev := e.Revision()
	if sl.verifiedAt == curRev {
		v := sl.value
		sl.mu.Unlock()
		return v, true, true
	}
	deps := append([]Key{}, sl.deps...)
	verified := sl.verifiedAt
	sl.mu.Unlock()

	// No dependencies recorded yet (first computation in flight, or a
	// query with zero Gets) means nothing to validate against; caller
	// must recompute.
	if deps == nil {
		return nil, false, false
	}

	var g errgroup.Group
	var changed atomic.Bool
	for _, dep := range deps {
		dep := dep
		g.Go(func() error {
			depSlot := e.slotFor(dep)
			depSlot.mu.Lock()
			before := depSlot.changedAt
			depSlot.mu.Unlock()

			depCtx := &Context{engine: e, gen: ctx.gen, stack: append(append([]Key{}, ctx.stack...), key)}
			if _, err := depCtx.Get(dep.Kind, dep.Arg); err != nil {
				return err
			}

			depSlot.mu.Lock()
			after := depSlot.changedAt
			depSlot.mu.Unlock()
			if after != before || after > verified {
				changed.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, false
	}
	if changed.Load() {
		return nil, false, false
	}

	sl.mu.Lock()
	sl.verifiedAt = curRev
	v := sl.value
	sl.mu.Unlock()
	return v, true, true
}

// compute actually executes a derived query's body, with cycle and
// cancellation handling, recording the dependency set it observes.
func (e *Engine) compute(ctx *Context, key Key, reg registration, sl *slot) (any, error) {
	if ctx.Cancelled() {
		return nil, &Cancelled{Key: key}
	}

	childCtx := &Context{
		engine: e,
		gen:    ctx.gen,
		stack:  append(append([]Key{}, ctx.stack...), key),
	}

	e.metrics.recomputeCount.Inc()
	v, err := reg.fn(childCtx, key.Arg)

	if ctx.Cancelled() {
		// Discard the in-progress result; cached state is untouched.
		return nil, &Cancelled{Key: key}
	}

	sl.mu.Lock()
	curRev := e.Revision()
	changed := !sl.hasValue || err != nil || !valueEqual(sl.value, v)
	if err == nil {
		sl.value = v
		sl.hasValue = true
	}
	sl.err = err
	sl.deps = childCtx.deps
	sl.verifiedAt = curRev
	if changed {
		sl.changedAt = curRev
	}
	sl.mu.Unlock()

	// Propagate this dependency to the parent (the caller already
	// appended `key` to ctx.deps in Context.Get before recursing here).
	return v, err
}
