package hirtypes

import (
	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/diag"
)

// Finish runs the final phase over a body once every expression/pattern
// has been visited once: defaulting of still-unbound integer/float
// literal variables, resolution of
// collected trait obligations through the Solver, and replacement of
// any inference variable that remains unbound even after defaulting
// with the error type so downstream consumers never observe a raw
// KindInferVar. Total: every expr/pat gets a concrete TyID, never a
// panic, regardless of how much of the body failed to type-check.
func (c *Ctx) Finish() {
	c.resolveObligations()
	c.defaultDivergentVars()
	c.fallbackUnresolved()
}

// resolveObligations asks the Solver to discharge every obligation
// collected during inference. An obligation whose self type is still
// an unresolved variable is left for a later pass (defaulting may pin
// it down); one that fails to resolve even after defaulting is reported
// but otherwise dropped — a missing impl never blocks the rest of the
// body from having types.
func (c *Ctx) resolveObligations() {
	var remaining []Obligation
	for _, ob := range c.Obligations {
		if c.Infer.IsUnbound(ob.Self) {
			remaining = append(remaining, ob)
			continue
		}
		if _, ok := c.Solver.Implements(c.Infer, ob.Self, ob.TraitPath, ob.Args); !ok {
			c.err(diag.TYP012, unsatisfiedObligationMessage(c.Types, ob))
		}
	}
	c.Obligations = remaining
}

// defaultDivergentVars applies numeric-literal defaulting: an
// inference variable created for an integer literal that never got
// unified with a concrete scalar defaults to i32; one created for a
// float literal defaults to f64 — rust's own defaulting rules, applied
// only once the rest of inference has had a chance to pin the type
// down some other way.
func (c *Ctx) defaultDivergentVars() {
	for id, ty := range c.ExprTypes {
		c.ExprTypes[id] = c.applyDefault(ty)
	}
	for id, ty := range c.PatTypes {
		c.PatTypes[id] = c.applyDefault(ty)
	}
	// Re-run obligation resolution now that defaulting may have pinned
	// down previously-unbound self types.
	var remaining []Obligation
	for _, ob := range c.Obligations {
		self := c.applyDefault(ob.Self)
		if c.Infer.IsUnbound(self) {
			remaining = append(remaining, ob)
			continue
		}
		if _, ok := c.Solver.Implements(c.Infer, self, ob.TraitPath, ob.Args); !ok {
			c.err(diag.TYP012, unsatisfiedObligationMessage(c.Types, ob))
		}
	}
	c.Obligations = remaining
}

func (c *Ctx) applyDefault(id TyID) TyID {
	resolved := c.Infer.Resolve(id)
	ty := c.Types.Get(resolved)
	if ty.Kind != KindInferVar {
		return resolved
	}
	switch ty.Origin {
	case OriginIntLiteral:
		def := c.Types.Scalar(ScalarI32)
		_ = c.Infer.Unify(resolved, def)
		return def
	case OriginFloatLiteral:
		def := c.Types.Scalar(ScalarF64)
		_ = c.Infer.Unify(resolved, def)
		return def
	default:
		return resolved
	}
}

// fallbackUnresolved replaces any inference variable that survives
// defaulting — one whose type genuinely couldn't be pinned down by
// anything in the body — with the error type, so a reader of
// ExprTypes/PatTypes never has to special-case KindInferVar.
func (c *Ctx) fallbackUnresolved() {
	for id, ty := range c.ExprTypes {
		if c.Types.Get(c.Infer.Resolve(ty)).Kind == KindInferVar {
			c.ExprTypes[id] = c.Types.Error()
		} else {
			c.ExprTypes[id] = c.Infer.ResolveDeep(ty)
		}
	}
	for id, ty := range c.PatTypes {
		if c.Types.Get(c.Infer.Resolve(ty)).Kind == KindInferVar {
			c.PatTypes[id] = c.Types.Error()
		} else {
			c.PatTypes[id] = c.Infer.ResolveDeep(ty)
		}
	}
}

func unsatisfiedObligationMessage(t *Table, ob Obligation) string {
	return "the trait bound `" + t.String(ob.Self) + "` is not satisfied"
}

// ExprType reads a body's final inferred type for one expression. Only
// meaningful after Finish has run.
func (c *Ctx) ExprType(id body.ExprID) TyID { return c.ExprTypes[id] }

// PatType reads a body's final inferred type for one pattern. Only
// meaningful after Finish has run.
func (c *Ctx) PatType(id body.PatID) TyID { return c.PatTypes[id] }
