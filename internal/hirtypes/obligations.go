package hirtypes

import "github.com/sunholo/semcore/internal/intern"

// Obligation is a trait bound a concrete type must satisfy, generated
// while inferring a body (a generic call's `where T: Trait` bound
// instantiated at a concrete type, or a `?`/for-loop desugaring's
// implicit Try/IntoIterator requirement). Obligations are resolved in
// the final phase, not eagerly, so an obligation on a still-unresolved
// inference variable doesn't fail prematurely.
type Obligation struct {
	TraitPath []intern.ID
	Self      TyID
	Args      []TyID
}

// ImplSource describes where a solved obligation's implementation comes
// from, the minimal shape method resolution (resolve.go) needs to keep
// walking a call to a concrete function.
type ImplSource struct {
	ImplPath []intern.ID
	Args     []TyID
}

// Solver is the narrow trait-solving interface this package consumes.
// internal/nameres's DefMap supplies candidate impls; a concrete Solver
// implementation (outside this package's scope) indexes them by trait
// and self-type head for Implements to consult.
type Solver interface {
	// Implements reports whether self satisfies trait<args>, resolving
	// through the inference table so partially-known self types can
	// still match a unique candidate impl.
	Implements(it *InferenceTable, self TyID, traitPath []intern.ID, args []TyID) (*ImplSource, bool)

	// Normalize reduces a KindProjection type to its underlying type if
	// exactly one impl provides the associated item; returns the input
	// type unchanged (not an error) if normalization isn't yet possible
	// because self is still an unresolved inference variable.
	Normalize(it *InferenceTable, proj TyID) TyID
}

// NoopSolver never resolves an obligation. It's the solver used when no
// trait/impl index has been wired in yet (e.g. unit tests exercising
// inference in isolation) — every obligation simply survives to the
// final phase and is reported as an unsatisfied trait-bound diagnostic
// (TYP012) rather than panicking on a nil interface.
type NoopSolver struct{}

func (NoopSolver) Implements(*InferenceTable, TyID, []intern.ID, []TyID) (*ImplSource, bool) {
	return nil, false
}

func (NoopSolver) Normalize(_ *InferenceTable, proj TyID) TyID { return proj }
