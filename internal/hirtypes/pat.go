package hirtypes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/diag"
)

// InferPat infers id's type, unifying it against expected (the
// scrutinee/let-initializer/parameter type it's matched against) and
// binding any names it introduces into the current scope. Returns the
// pattern's resolved type, which is expected itself whenever expected
// is known — a pattern never widens its scrutinee's type, only narrows
// bindings within it (match ergonomics' default binding mode is a
// consequence of how callers pick expected, not of this function).
func (c *Ctx) InferPat(id body.PatID, expected TyID) TyID {
	p := c.pat(id)
	ty := c.inferPatKind(id, p, expected)
	c.PatTypes[id] = ty
	return ty
}

func (c *Ctx) ensureExpected(expected TyID) TyID {
	if expected == 0 {
		return c.Infer.NewVar(OriginGeneral)
	}
	return expected
}

func (c *Ctx) inferPatKind(id body.PatID, p body.Pat, expected TyID) TyID {
	expected = c.ensureExpected(expected)

	switch p.Kind {
	case body.PatWild:
		return expected

	case body.PatBind:
		c.bind(p.Name, expected)
		if p.SubPat != nil {
			c.InferPat(*p.SubPat, expected)
		}
		return expected

	case body.PatPath:
		// A unit struct/enum-variant or const pattern: real identity
		// needs the def map (deferred to whoever wires nameres into this
		// Ctx), so this is a no-op type-compatibility check against
		// expected.
		return expected

	case body.PatTuple:
		return c.inferPatTuple(p, expected)

	case body.PatTupleStruct:
		return c.inferPatTupleStruct(p, expected)

	case body.PatStruct:
		return c.inferPatStruct(p, expected)

	case body.PatOr:
		return c.inferPatOr(p, expected)

	case body.PatLiteral:
		return c.inferPatLiteral(p, expected)

	case body.PatRef:
		return c.inferPatRef(p, expected)

	default:
		return expected
	}
}

func (c *Ctx) inferPatTuple(p body.Pat, expected TyID) TyID {
	resolved := c.Infer.Resolve(expected)
	ty := c.Types.Get(resolved)
	if ty.Kind == KindTuple && len(ty.Elements) == len(p.Elements) {
		for i, el := range p.Elements {
			c.InferPat(el, ty.Elements[i])
		}
		return expected
	}
	elems := make([]TyID, len(p.Elements))
	for i, el := range p.Elements {
		elems[i] = c.InferPat(el, 0)
	}
	built := c.Types.Tuple(elems)
	if err := c.Infer.Unify(expected, built); err != nil {
		c.err(diag.TYP001, fmt.Sprintf("tuple pattern type mismatch: %v", err))
	}
	return expected
}

// inferPatTupleStruct infers a `Path(p1, p2, ...)` pattern, used for
// both tuple-struct and tuple-enum-variant patterns. Without the def
// map, the path's declared field arity and types aren't known here, so
// each sub-pattern gets a fresh variable — still sufficient to bind
// every name the pattern introduces correctly.
func (c *Ctx) inferPatTupleStruct(p body.Pat, expected TyID) TyID {
	for _, el := range p.Elements {
		c.InferPat(el, 0)
	}
	return expected
}

func (c *Ctx) inferPatStruct(p body.Pat, expected TyID) TyID {
	resolved := c.Infer.Resolve(expected)
	ty := c.Types.Get(resolved)
	if ty.Kind == KindAdt {
		if fields, ok := c.Fields.Fields(ty.DefPath); ok {
			byName := make(map[string]TyID, len(fields))
			for _, f := range fields {
				byName[c.Interner.Lookup(f.Name)] = c.substituteParams(f.Type, ty.DefPath, ty.Args)
			}
			for i, name := range p.FieldNames {
				if i >= len(p.Elements) {
					break
				}
				fieldTy, ok := byName[c.Interner.Lookup(name)]
				if !ok {
					c.err(diag.TYP007, fmt.Sprintf("no field `%s`", c.Interner.Lookup(name)))
					c.InferPat(p.Elements[i], 0)
					continue
				}
				c.InferPat(p.Elements[i], fieldTy)
			}
			return expected
		}
	}
	for _, el := range p.Elements {
		c.InferPat(el, 0)
	}
	return expected
}

func (c *Ctx) inferPatOr(p body.Pat, expected TyID) TyID {
	for _, alt := range p.Alternatives {
		c.InferPat(alt, expected)
	}
	return expected
}

func (c *Ctx) inferPatLiteral(p body.Pat, expected TyID) TyID {
	text := strings.TrimSpace(p.LitText)
	var lit TyID
	switch {
	case text == "true" || text == "false":
		lit = c.Types.Scalar(ScalarBool)
	case strings.HasPrefix(text, "\""):
		lit = c.Types.Ref(c.Types.Str(), false)
	case strings.HasPrefix(text, "'"):
		lit = c.Types.Scalar(ScalarChar)
	case strings.Contains(text, "."):
		lit = c.Infer.NewVar(OriginFloatLiteral)
	default:
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			lit = c.Infer.NewVar(OriginIntLiteral)
		} else {
			lit = c.Infer.NewVar(OriginGeneral)
		}
	}
	if err := c.Infer.Unify(expected, lit); err != nil {
		c.err(diag.TYP001, fmt.Sprintf("literal pattern type mismatch: %v", err))
	}
	return expected
}

func (c *Ctx) inferPatRef(p body.Pat, expected TyID) TyID {
	resolved := c.Infer.Resolve(expected)
	ty := c.Types.Get(resolved)
	if ty.Kind == KindRef {
		if p.SubPat != nil {
			c.InferPat(*p.SubPat, ty.Elem)
		}
		return expected
	}
	if p.SubPat != nil {
		inner := c.InferPat(*p.SubPat, 0)
		built := c.Types.Ref(inner, false)
		if err := c.Infer.Unify(expected, built); err != nil {
			c.err(diag.TYP001, fmt.Sprintf("reference pattern type mismatch: %v", err))
		}
	}
	return expected
}
