package hirtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/intern"
)

type stubSolver struct {
	implements map[TyID]bool
}

func (s stubSolver) Implements(_ *InferenceTable, self TyID, _ []intern.ID, _ []TyID) (*ImplSource, bool) {
	if !s.implements[self] {
		return nil, false
	}
	return &ImplSource{}, true
}

func (s stubSolver) Normalize(_ *InferenceTable, proj TyID) TyID { return proj }

func newObligationCtx(tys *Table, in *intern.Interner, solver Solver, obs []Obligation) *Ctx {
	return &Ctx{
		Types:       tys,
		Infer:       NewInferenceTable(tys),
		Solver:      solver,
		Fields:      NoopAdtFields{},
		Methods:     NoopMethods{},
		Interner:    in,
		Diags:       &diag.Bag{},
		ExprTypes:   make(map[body.ExprID]TyID),
		PatTypes:    make(map[body.PatID]TyID),
		Obligations: obs,
	}
}

func TestFinishResolvesObligationAgainstSolver(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)
	i32 := tys.Scalar(ScalarI32)

	solver := stubSolver{implements: map[TyID]bool{i32: true}}
	ctx := newObligationCtx(tys, in, solver, []Obligation{
		{Self: i32, TraitPath: []intern.ID{in.Intern("Display")}},
	})

	ctx.Finish()

	assert.Zero(t, ctx.Diags.Len())
	assert.Empty(t, ctx.Obligations)
}

func TestFinishReportsUnsatisfiedObligation(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)
	boolTy := tys.Scalar(ScalarBool)

	solver := stubSolver{implements: map[TyID]bool{}}
	ctx := newObligationCtx(tys, in, solver, []Obligation{
		{Self: boolTy, TraitPath: []intern.ID{in.Intern("Display")}},
	})

	ctx.Finish()

	assert.Equal(t, 1, ctx.Diags.Len())
	assert.Equal(t, "TYP012", ctx.Diags.All()[0].Code)
}
