package hirtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/intern"
)

func TestUnifyIdenticalScalarsSucceeds(t *testing.T) {
	tys := NewTable(intern.New())
	it := NewInferenceTable(tys)

	err := it.Unify(tys.Scalar(ScalarI32), tys.Scalar(ScalarI32))
	require.NoError(t, err)
}

func TestUnifyMismatchedScalarsFails(t *testing.T) {
	tys := NewTable(intern.New())
	it := NewInferenceTable(tys)

	err := it.Unify(tys.Scalar(ScalarI32), tys.Scalar(ScalarBool))
	require.Error(t, err)
	var mismatch *MismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestUnifyBindsFreeVariable(t *testing.T) {
	tys := NewTable(intern.New())
	it := NewInferenceTable(tys)

	v := it.NewVar(OriginGeneral)
	i32 := tys.Scalar(ScalarI32)

	require.NoError(t, it.Unify(v, i32))
	assert.Equal(t, i32, it.Resolve(v))
}

func TestUnifyOccursCheckRejectsSelfReferentialType(t *testing.T) {
	tys := NewTable(intern.New())
	it := NewInferenceTable(tys)

	v := it.NewVar(OriginGeneral)
	refToV := tys.Ref(v, false)

	err := it.Unify(v, refToV)
	require.Error(t, err)
	var occurs *OccursError
	assert.ErrorAs(t, err, &occurs)
}

func TestUnifyErrorTypeAbsorbsAnything(t *testing.T) {
	tys := NewTable(intern.New())
	it := NewInferenceTable(tys)

	err := it.Unify(tys.Error(), tys.Scalar(ScalarBool))
	assert.NoError(t, err)
}

func TestUnifyNeverCoercesToAnything(t *testing.T) {
	tys := NewTable(intern.New())
	it := NewInferenceTable(tys)

	err := it.Unify(tys.Never(), tys.Adt([]intern.ID{1}, nil))
	assert.NoError(t, err)
}

func TestResolveDeepRebuildsNestedBindings(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)
	it := NewInferenceTable(tys)

	v := it.NewVar(OriginGeneral)
	tuple := tys.Tuple([]TyID{v, tys.Scalar(ScalarBool)})

	require.NoError(t, it.Unify(v, tys.Scalar(ScalarI32)))

	resolved := it.ResolveDeep(tuple)
	want := tys.Tuple([]TyID{tys.Scalar(ScalarI32), tys.Scalar(ScalarBool)})
	assert.Equal(t, want, resolved)
}

func TestUnifyAdtRequiresSamePathAndArgs(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)
	it := NewInferenceTable(tys)

	vecPath := []intern.ID{in.Intern("Vec")}
	boxPath := []intern.ID{in.Intern("Box")}

	vecOfI32 := tys.Adt(vecPath, []TyID{tys.Scalar(ScalarI32)})
	boxOfI32 := tys.Adt(boxPath, []TyID{tys.Scalar(ScalarI32)})

	require.Error(t, it.Unify(vecOfI32, boxOfI32))
}
