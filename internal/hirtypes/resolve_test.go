package hirtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/intern"
)

type fakeMethods struct {
	byPath map[string][]MethodCandidate
}

func (f fakeMethods) Lookup(path []intern.ID, name intern.ID) []MethodCandidate {
	return f.byPath[pathKey(path)+"::"+pathKey([]intern.ID{name})]
}

func TestResolveMethodFindsInherentMethodDirectlyOnReceiver(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	counterPath := []intern.ID{in.Intern("Counter")}
	getName := in.Intern("get")

	methods := fakeMethods{byPath: map[string][]MethodCandidate{
		pathKey(counterPath) + "::" + pathKey([]intern.ID{getName}): {
			{Path: append(append([]intern.ID{}, counterPath...), getName), Ret: tys.Scalar(ScalarI32)},
		},
	}}

	exprs := intern.NewArena[body.Expr]()
	pats := intern.NewArena[body.Pat]()
	recv := exprs.Alloc(body.Expr{Kind: body.ExprStructLit, StructPath: counterPath})
	call := exprs.Alloc(body.Expr{Kind: body.ExprMethodCall, Receiver: recv, MethodName: getName})

	b := &body.Body{Exprs: exprs, Pats: pats, RootExpr: call}
	ctx := NewCtx(tys, b, in, nil, nil, methods)

	ctx.InferBody(nil)
	ctx.Finish()

	assert.Zero(t, ctx.Diags.Len())
	assert.Equal(t, tys.Scalar(ScalarI32), ctx.ExprType(call))
}

func TestResolveMethodWalksThroughReferences(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	counterPath := []intern.ID{in.Intern("Counter")}
	getName := in.Intern("get")

	methods := fakeMethods{byPath: map[string][]MethodCandidate{
		pathKey(counterPath) + "::" + pathKey([]intern.ID{getName}): {
			{Ret: tys.Scalar(ScalarI32)},
		},
	}}

	it := NewInferenceTable(tys)
	ctx := &Ctx{Types: tys, Infer: it, Solver: NoopSolver{}, Methods: methods, Interner: in}

	recvTy := tys.Ref(tys.Adt(counterPath, nil), false)
	cand, err := ctx.ResolveMethod(recvTy, getName)
	require.NoError(t, err)
	assert.Equal(t, tys.Scalar(ScalarI32), cand.Ret)
}

func TestResolveMethodAmbiguousWithMultipleCandidates(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	path := []intern.ID{in.Intern("Thing")}
	name := in.Intern("go")
	methods := fakeMethods{byPath: map[string][]MethodCandidate{
		pathKey(path) + "::" + pathKey([]intern.ID{name}): {{}, {}},
	}}

	it := NewInferenceTable(tys)
	ctx := &Ctx{Types: tys, Infer: it, Solver: NoopSolver{}, Methods: methods, Interner: in}

	_, err := ctx.ResolveMethod(tys.Adt(path, nil), name)
	require.Error(t, err)
}
