package hirtypes

// Coerce attempts to adjust have's type so it unifies with want,
// applying the small fixed set of implicit coercions rust permits:
// never coerces to anything, and a reference to a sized array coerces
// to a reference to the corresponding unsized slice. Everything else
// is a plain unification attempt. Returns the coerced (or original)
// type and whether coercion succeeded.
func (c *Ctx) Coerce(have, want TyID) (TyID, bool) {
	haveR := c.Infer.Resolve(have)
	wantR := c.Infer.Resolve(want)

	if c.Types.Get(haveR).Kind == KindNever {
		return want, true
	}

	if ty := c.Types.Get(haveR); ty.Kind == KindRef {
		if inner := c.Types.Get(c.Infer.Resolve(ty.Elem)); inner.Kind == KindArray {
			if wty := c.Types.Get(wantR); wty.Kind == KindRef {
				if welem := c.Types.Get(c.Infer.Resolve(wty.Elem)); welem.Kind == KindSlice {
					coerced := c.Types.Ref(c.Types.Slice(inner.Elem), ty.Mut)
					if err := c.Infer.Unify(coerced, want); err == nil {
						return want, true
					}
				}
			}
		}
	}

	if err := c.Infer.Unify(have, want); err != nil {
		return have, false
	}
	return want, true
}

// CoerceMany finds a single common type for a set of candidate types —
// an if/else's two branches, or every arm of a match — coercing each
// candidate to the first one that every other candidate can also
// coerce to. Grounded on rustc's CoerceMany, simplified to a single
// left-to-right pass since this package has no notion of coercion
// "priority" beyond unification succeeding.
func (c *Ctx) CoerceMany(candidates []TyID) TyID {
	if len(candidates) == 0 {
		return c.Types.Never()
	}
	result := candidates[0]
	for _, cand := range candidates[1:] {
		// Never is bottom: a diverging candidate (return/break/panic!)
		// never wins the merge, and a diverging result so far always
		// yields to the next concrete candidate.
		if c.Types.Get(c.Infer.Resolve(result)).Kind == KindNever {
			result = cand
			continue
		}
		if c.Types.Get(c.Infer.Resolve(cand)).Kind == KindNever {
			continue
		}
		if coerced, ok := c.Coerce(cand, result); ok {
			result = coerced
			continue
		}
		if coerced, ok := c.Coerce(result, cand); ok {
			result = coerced
			continue
		}
		// Neither direction coerces; keep result and let the mismatch
		// surface as a diagnostic at the call site that unifies arms
		// directly (inferMatch/inferIf already do, so CoerceMany is only
		// used where the caller wants the merged type without also
		// re-reporting the error).
	}
	return result
}
