package hirtypes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/sunholo/semcore/internal/intern"
)

func TestTableInternsStructurallyEqualTypes(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	path := []intern.ID{in.Intern("Vec")}
	a := tys.Adt(path, []TyID{tys.Scalar(ScalarI32)})
	b := tys.Adt([]intern.ID{in.Intern("Vec")}, []TyID{tys.Scalar(ScalarI32)})

	assert.Equal(t, a, b, "two Adt calls with the same path and args must return the same TyID")

	c := tys.Adt(path, []TyID{tys.Scalar(ScalarU32)})
	assert.NotEqual(t, a, c, "different args must intern to a different TyID")
}

func TestTableUnitIsEmptyTuple(t *testing.T) {
	tys := NewTable(intern.New())
	assert.Equal(t, tys.Tuple(nil), tys.Unit())
}

func TestTableStringRendersNestedTypes(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	vecPath := []intern.ID{in.Intern("Vec")}
	inner := tys.Ref(tys.Str(), false)
	vecOfStr := tys.Adt(vecPath, []TyID{inner})

	assert.Equal(t, "Vec<&str>", tys.String(vecOfStr))
}

func TestTablePlaceholderDistinctFromSameNamedParamAtDifferentIndex(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	name := in.Intern("T")
	p0 := tys.Placeholder(name, 0)
	p1 := tys.Placeholder(name, 1)

	assert.NotEqual(t, p0, p1)
}

func TestTableGetReturnsStructurallyIdenticalTyAcrossSeparateTables(t *testing.T) {
	in1, in2 := intern.New(), intern.New()
	tys1, tys2 := NewTable(in1), NewTable(in2)

	path1 := []intern.ID{in1.Intern("Option")}
	path2 := []intern.ID{in2.Intern("Option")}
	a := tys1.Get(tys1.Adt(path1, []TyID{tys1.Scalar(ScalarI32)}))
	b := tys2.Get(tys2.Adt(path2, []TyID{tys2.Scalar(ScalarI32)}))

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Ty built the same way in two independent tables must be structurally identical (-got +want):\n%s", diff)
	}
}

func TestTableFnDefDistinctFromFnPtrWithSameSignature(t *testing.T) {
	in := intern.New()
	tys := NewTable(in)

	params := []TyID{tys.Scalar(ScalarI32)}
	ret := tys.Scalar(ScalarBool)
	path := []intern.ID{in.Intern("check")}

	fnDef := tys.FnDef(path, params, ret)
	fnPtr := tys.FnPtr(params, ret)

	assert.NotEqual(t, fnDef, fnPtr)
}
