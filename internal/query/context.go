package query

import "go.uber.org/zap"

// Context is threaded through a single Get call and every nested Get it
// performs. It is how the engine (a) records the dependency set of the
// query currently executing and (b) lets that query observe
// cancellation at every suspension point.
type Context struct {
	engine *Engine
	gen    uint64 // cancellation generation this read started under
	stack  []Key  // in-flight keys on this goroutine's call chain, for cycle detection
	deps   []Key  // dependencies recorded for the key currently at the top of stack
}

// Cancelled reports whether a writer has committed a Set since this
// read began, i.e. whether the engine has moved past this read's
// cancellation generation. Every suspension point (each nested Get)
// checks this before doing further work.
func (c *Context) Cancelled() bool {
	return c.engine.cancelGen.Load() != c.gen
}

// Get evaluates (or returns the cached value of) a query, recording it
// as a dependency of whatever query is currently executing on this
// Context (if any). This is the single suspension point the rest of
// the engine's contract (cancellation, cycle detection, early cutoff)
// hangs off of.
func (c *Context) Get(kind string, arg any) (any, error) {
	if c.engine.cancelGen.Load() != c.gen {
		key := Key{Kind: kind, Arg: arg}
		c.engine.log.Debug("query.cancelled", zap.Stringer("key", key))
		return nil, &Cancelled{Key: key}
	}

	key := Key{Kind: kind, Arg: arg}

	// Record this as a dependency of the caller, if any.
	if len(c.stack) > 0 {
		c.deps = append(c.deps, key)
	}

	for _, inflight := range c.stack {
		if inflight == key {
			return c.engine.recoverCycle(key)
		}
	}

	return c.engine.get(c, key)
}

func (e *Engine) recoverCycle(key Key) (any, error) {
	e.mu.RLock()
	reg, ok := e.registry[key.Kind]
	e.mu.RUnlock()
	if ok && reg.recover != nil {
		if v, ok := reg.recover(key.Arg); ok {
			e.metrics.cycleCount.Inc()
			e.log.Warn("query.cycle.recovered", zap.Stringer("key", key))
			return v, nil
		}
	}
	e.metrics.cycleCount.Inc()
	e.log.Error("query.cycle.unrecovered", zap.Stringer("key", key))
	return nil, &CycleError{Key: key}
}
