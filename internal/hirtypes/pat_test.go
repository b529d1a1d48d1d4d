package hirtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/intern"
)

// fakeAdtFields is a minimal AdtFields backed by a fixed table, used to
// exercise field-typed inference without a real item tree.
type fakeAdtFields struct {
	byPath map[string][]FieldInfo
	params map[string][]intern.ID
}

func pathKey(path []intern.ID) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "::"
		}
		s += string(rune(p)) // distinct interned IDs still produce distinct keys
	}
	return s
}

func (f fakeAdtFields) Fields(path []intern.ID) ([]FieldInfo, bool) {
	fs, ok := f.byPath[pathKey(path)]
	return fs, ok
}

func (f fakeAdtFields) TypeParams(path []intern.ID) []intern.ID {
	return f.params[pathKey(path)]
}

func TestInferStructLitChecksFieldsAgainstProvider(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	pointPath := []intern.ID{in.Intern("Point")}
	xName := in.Intern("x")
	yName := in.Intern("y")

	fields := fakeAdtFields{byPath: map[string][]FieldInfo{
		pathKey(pointPath): {
			{Name: xName, Type: tys.Scalar(ScalarI32)},
			{Name: yName, Type: tys.Scalar(ScalarI32)},
		},
	}}

	exprs := intern.NewArena[body.Expr]()
	pats := intern.NewArena[body.Pat]()

	xVal := exprs.Alloc(body.Expr{Kind: body.ExprLiteral, LitKind: body.LitInt, LitText: "1"})
	yVal := exprs.Alloc(body.Expr{Kind: body.ExprLiteral, LitKind: body.LitInt, LitText: "2"})
	lit := exprs.Alloc(body.Expr{
		Kind:       body.ExprStructLit,
		StructPath: pointPath,
		Fields: []body.StructLitField{
			{Name: xName, Value: xVal},
			{Name: yName, Value: yVal},
		},
	})

	b := &body.Body{Exprs: exprs, Pats: pats, RootExpr: lit}
	ctx := NewCtx(tys, b, in, nil, fields, nil)

	ctx.InferBody(nil)
	ctx.Finish()

	assert.Zero(t, ctx.Diags.Len())
	assert.Equal(t, tys.Adt(pointPath, nil), ctx.ExprType(lit))
}

func TestInferStructLitReportsMissingField(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	pointPath := []intern.ID{in.Intern("Point")}
	xName := in.Intern("x")
	yName := in.Intern("y")

	fields := fakeAdtFields{byPath: map[string][]FieldInfo{
		pathKey(pointPath): {
			{Name: xName, Type: tys.Scalar(ScalarI32)},
			{Name: yName, Type: tys.Scalar(ScalarI32)},
		},
	}}

	exprs := intern.NewArena[body.Expr]()
	pats := intern.NewArena[body.Pat]()

	xVal := exprs.Alloc(body.Expr{Kind: body.ExprLiteral, LitKind: body.LitInt, LitText: "1"})
	lit := exprs.Alloc(body.Expr{
		Kind:       body.ExprStructLit,
		StructPath: pointPath,
		Fields:     []body.StructLitField{{Name: xName, Value: xVal}},
	})

	b := &body.Body{Exprs: exprs, Pats: pats, RootExpr: lit}
	ctx := NewCtx(tys, b, in, nil, fields, nil)

	ctx.InferBody(nil)
	ctx.Finish()

	assert.Equal(t, 1, ctx.Diags.Len())
	assert.Equal(t, "TYP002", ctx.Diags.All()[0].Code)
}

// TestInferOrPatternUnifiesAlternatives builds a match whose single arm pattern is
// `0 | 1` over a scrutinee that's an unbound integer-literal variable,
// checking every alternative unifies against the same expected type.
func TestInferOrPatternUnifiesAlternatives(t *testing.T) {
	exprs := intern.NewArena[body.Expr]()
	pats := intern.NewArena[body.Pat]()

	scrutinee := exprs.Alloc(body.Expr{Kind: body.ExprLiteral, LitKind: body.LitInt, LitText: "0"})
	zero := pats.Alloc(body.Pat{Kind: body.PatLiteral, LitText: "0"})
	one := pats.Alloc(body.Pat{Kind: body.PatLiteral, LitText: "1"})
	orPat := pats.Alloc(body.Pat{Kind: body.PatOr, Alternatives: []body.PatID{zero, one}})

	armBody := exprs.Alloc(body.Expr{Kind: body.ExprTuple})
	matchExpr := exprs.Alloc(body.Expr{
		Kind:      body.ExprMatch,
		Scrutinee: scrutinee,
		Arms:      []body.MatchArm{{Pat: orPat, Body: armBody}},
	})

	b := &body.Body{Exprs: exprs, Pats: pats, RootExpr: matchExpr}
	in := intern.New()
	tys := NewTable(in)
	ctx := NewCtx(tys, b, in, nil, nil, nil)

	ctx.InferBody(nil)
	ctx.Finish()

	assert.Zero(t, ctx.Diags.Len())
	i32 := tys.Scalar(ScalarI32)
	assert.Equal(t, i32, ctx.PatType(orPat))
}
