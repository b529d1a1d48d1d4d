package hirtypes

import (
	"fmt"

	"github.com/sunholo/semcore/internal/intern"
)

// InferenceTable is one body's unification table: a union-find over
// inference variables plus the level (universe) each was created at;
// NewVar records the level, but neither unification nor defaulting
// reads it.
// This generalizes a unifier/substitution pair from a map[string]Type
// substitution to a dense union-find keyed by VarID, which is the
// representation rust-analyzer itself uses and avoids repeated
// full-type substitution on every step.
type InferenceTable struct {
	types   *Table
	nextVar uint32
	// bindings[v] holds the type var v is bound to once known; an
	// unbound var has no entry.
	bindings map[uint32]TyID
	levels   map[uint32]int
	curLevel int
}

// NewInferenceTable creates an empty unification table over ty's type
// table.
func NewInferenceTable(ty *Table) *InferenceTable {
	return &InferenceTable{types: ty, bindings: make(map[uint32]TyID), levels: make(map[uint32]int)}
}

// EnterLevel increases the current universe, used when entering a
// polymorphic binder (a generic function's body).
func (it *InferenceTable) EnterLevel() { it.curLevel++ }

// ExitLevel decreases the current universe.
func (it *InferenceTable) ExitLevel() { it.curLevel-- }

// NewVar allocates a fresh, unbound inference variable at the current
// level.
func (it *InferenceTable) NewVar(origin InferVarOrigin) TyID {
	id := it.nextVar
	it.nextVar++
	it.levels[id] = it.curLevel
	key := fmt.Sprintf("ivar:%d", id)
	return it.types.intern(key, Ty{Kind: KindInferVar, VarID: id, Origin: origin})
}

// Resolve follows bound inference variables to their current target,
// recursively through any chain of bound vars, stopping at the first
// unbound variable or non-variable type. It does not descend into the
// components of that type (ResolveDeep does).
func (it *InferenceTable) Resolve(id TyID) TyID {
	ty := it.types.Get(id)
	if ty.Kind != KindInferVar {
		return id
	}
	if bound, ok := it.bindings[ty.VarID]; ok {
		return it.Resolve(bound)
	}
	return id
}

// ResolveDeep recursively replaces every bound inference variable
// reachable from id with its current binding, used to read out a
// body's final inferred types.
func (it *InferenceTable) ResolveDeep(id TyID) TyID {
	id = it.Resolve(id)
	ty := it.types.Get(id)
	switch ty.Kind {
	case KindAdt, KindTraitObject, KindOpaque:
		return it.rebuildArgs(id, ty)
	case KindTuple:
		return it.types.Tuple(it.resolveAll(ty.Elements))
	case KindArray:
		return it.types.Array(it.ResolveDeep(ty.Elem), ty.Len)
	case KindSlice:
		return it.types.Slice(it.ResolveDeep(ty.Elem))
	case KindRef:
		return it.types.Ref(it.ResolveDeep(ty.Elem), ty.Mut)
	case KindRawPtr:
		return it.types.RawPtr(it.ResolveDeep(ty.Elem), ty.Mut)
	case KindFnDef:
		return it.types.FnDef(ty.DefPath, it.resolveAll(ty.Params), it.ResolveDeep(ty.Ret))
	case KindFnPtr:
		return it.types.FnPtr(it.resolveAll(ty.Params), it.ResolveDeep(ty.Ret))
	case KindClosure:
		return it.types.Closure(ty.DefPath, it.resolveAll(ty.Params), it.ResolveDeep(ty.Ret))
	default:
		return id
	}
}

func (it *InferenceTable) rebuildArgs(id TyID, ty Ty) TyID {
	args := it.resolveAll(ty.Args)
	switch ty.Kind {
	case KindAdt:
		return it.types.Adt(ty.DefPath, args)
	case KindTraitObject:
		return it.types.TraitObject(ty.DefPath, args, ty.AutoTraits)
	case KindOpaque:
		return it.types.Opaque(ty.DefPath, args)
	default:
		return id
	}
}

func (it *InferenceTable) resolveAll(ids []TyID) []TyID {
	if ids == nil {
		return nil
	}
	out := make([]TyID, len(ids))
	for i, id := range ids {
		out[i] = it.ResolveDeep(id)
	}
	return out
}

// IsUnbound reports whether id is still a free inference variable.
func (it *InferenceTable) IsUnbound(id TyID) bool {
	ty := it.types.Get(it.Resolve(id))
	return ty.Kind == KindInferVar
}

// Unify attempts to make a and b equal, recording variable bindings as
// it goes. The error type and never type are compatible with anything.
func (it *InferenceTable) Unify(a, b TyID) error {
	a = it.Resolve(a)
	b = it.Resolve(b)
	if a == b {
		return nil
	}

	ta, tb := it.types.Get(a), it.types.Get(b)

	if ta.Kind == KindError || tb.Kind == KindError {
		return nil
	}
	if ta.Kind == KindNever {
		return nil
	}
	if tb.Kind == KindNever {
		return nil
	}

	if ta.Kind == KindInferVar {
		return it.bindVar(ta.VarID, b)
	}
	if tb.Kind == KindInferVar {
		return it.bindVar(tb.VarID, a)
	}

	if ta.Kind != tb.Kind {
		return &MismatchError{Table: it.types, Got: a, Want: b}
	}

	switch ta.Kind {
	case KindScalar:
		if ta.Scalar != tb.Scalar {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return nil
	case KindStr, KindPlaceholder:
		if ta.Kind == KindPlaceholder && ta.ParamIdx != tb.ParamIdx {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return nil
	case KindAdt, KindTraitObject, KindOpaque:
		if !sameNames(ta.DefPath, tb.DefPath) {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return it.unifyAll(ta.Args, tb.Args, a, b)
	case KindTuple:
		return it.unifyAll(ta.Elements, tb.Elements, a, b)
	case KindArray:
		if ta.Len != tb.Len {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return it.Unify(ta.Elem, tb.Elem)
	case KindSlice:
		return it.Unify(ta.Elem, tb.Elem)
	case KindRef, KindRawPtr:
		if ta.Mut != tb.Mut {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return it.Unify(ta.Elem, tb.Elem)
	case KindFnDef:
		if !sameNames(ta.DefPath, tb.DefPath) {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return it.unifySignature(ta, tb, a, b)
	case KindFnPtr:
		return it.unifySignature(ta, tb, a, b)
	case KindClosure:
		if !sameNames(ta.DefPath, tb.DefPath) {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return it.unifySignature(ta, tb, a, b)
	case KindProjection:
		// Unevaluated projections only unify when structurally identical;
		// normalizing them is the trait solver's job (Normalize), not
		// the unifier's.
		if !sameNames(ta.TraitPath, tb.TraitPath) || ta.AssocName != tb.AssocName {
			return &MismatchError{Table: it.types, Got: a, Want: b}
		}
		return it.Unify(ta.Self, tb.Self)
	default:
		return &MismatchError{Table: it.types, Got: a, Want: b}
	}
}

func (it *InferenceTable) unifySignature(ta, tb Ty, a, b TyID) error {
	if len(ta.Params) != len(tb.Params) {
		return &MismatchError{Table: it.types, Got: a, Want: b}
	}
	for i := range ta.Params {
		if err := it.Unify(ta.Params[i], tb.Params[i]); err != nil {
			return err
		}
	}
	return it.Unify(ta.Ret, tb.Ret)
}

func (it *InferenceTable) unifyAll(as, bs []TyID, a, b TyID) error {
	if len(as) != len(bs) {
		return &MismatchError{Table: it.types, Got: a, Want: b}
	}
	for i := range as {
		if err := it.Unify(as[i], bs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *InferenceTable) bindVar(v uint32, target TyID) error {
	if it.occurs(v, target) {
		return &OccursError{VarID: v}
	}
	it.bindings[v] = target
	return nil
}

func (it *InferenceTable) occurs(v uint32, id TyID) bool {
	id = it.Resolve(id)
	ty := it.types.Get(id)
	switch ty.Kind {
	case KindInferVar:
		return ty.VarID == v
	case KindAdt, KindTraitObject, KindOpaque:
		return anyOccurs(it, v, ty.Args)
	case KindTuple:
		return anyOccurs(it, v, ty.Elements)
	case KindArray, KindSlice, KindRef, KindRawPtr:
		return it.occurs(v, ty.Elem)
	case KindFnDef, KindFnPtr, KindClosure:
		return anyOccurs(it, v, ty.Params) || it.occurs(v, ty.Ret)
	case KindProjection:
		return it.occurs(v, ty.Self)
	default:
		return false
	}
}

func anyOccurs(it *InferenceTable, v uint32, ids []TyID) bool {
	for _, id := range ids {
		if it.occurs(v, id) {
			return true
		}
	}
	return false
}

func sameNames(a, b []intern.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MismatchError is TYP001 "mismatched types".
type MismatchError struct {
	Table    *Table
	Got, Want TyID
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mismatched types: expected %s, found %s", e.Table.String(e.Want), e.Table.String(e.Got))
}

// OccursError is TYP011 "occurs check failure".
type OccursError struct {
	VarID uint32
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("occurs check failed for inference variable ?%d", e.VarID)
}
