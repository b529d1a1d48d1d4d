package hirtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/intern"
)

func newTestCtx() (*Ctx, *Table) {
	in := intern.New()
	tys := NewTable(in)
	return &Ctx{Types: tys, Infer: NewInferenceTable(tys), Solver: NoopSolver{}, Fields: NoopAdtFields{}, Methods: NoopMethods{}, Interner: in}, tys
}

func TestCoerceArrayReferenceToSliceReference(t *testing.T) {
	ctx, tys := newTestCtx()

	arrTy := tys.Ref(tys.Array(tys.Scalar(ScalarU8), 4), false)
	sliceTy := tys.Ref(tys.Slice(tys.Scalar(ScalarU8)), false)

	got, ok := ctx.Coerce(arrTy, sliceTy)
	require.True(t, ok)
	assert.Equal(t, sliceTy, got)
}

func TestCoerceNeverCoercesToAnyType(t *testing.T) {
	ctx, tys := newTestCtx()

	got, ok := ctx.Coerce(tys.Never(), tys.Scalar(ScalarBool))
	require.True(t, ok)
	assert.Equal(t, tys.Scalar(ScalarBool), got)
}

func TestCoerceManyPicksCommonTypeAcrossCandidates(t *testing.T) {
	ctx, tys := newTestCtx()

	i32 := tys.Scalar(ScalarI32)
	never := tys.Never()

	result := ctx.CoerceMany([]TyID{never, i32, never})
	assert.Equal(t, i32, result)
}

func TestCoerceFailsOnIncompatibleTypes(t *testing.T) {
	ctx, tys := newTestCtx()

	_, ok := ctx.Coerce(tys.Scalar(ScalarI32), tys.Scalar(ScalarBool))
	assert.False(t, ok)
}
