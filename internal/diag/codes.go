package diag

// Error code constants, grouped by component. Every component in the
// pipeline reports through one of these families, following the phase-
// prefixed numbering scheme the codebase has used since its earliest
// diagnostics.
const (
	// Input errors: crate graph / file model problems.
	INP001 = "INP001" // unresolved module file
	INP002 = "INP002" // unresolved extern crate
	INP003 = "INP003" // cyclic crate dependency
	INP004 = "INP004" // unconfigured code (cfg false)

	// Resolution errors: name resolution and macro expansion.
	NAM001 = "NAM001" // unresolved import
	NAM002 = "NAM002" // unresolved extern crate
	NAM003 = "NAM003" // unresolved module (with candidate suggestions)
	NAM004 = "NAM004" // unresolved macro call
	NAM005 = "NAM005" // unresolved proc macro
	NAM006 = "NAM006" // macro expansion error
	NAM007 = "NAM007" // unimplemented built-in macro
	NAM008 = "NAM008" // macro call on non-macro
	NAM009 = "NAM009" // glob recursion limit exceeded
	NAM010 = "NAM010" // macro fixpoint iteration limit exceeded

	// Macro expansion errors.
	MAC001 = "MAC001" // expansion depth limit exceeded
	MAC002 = "MAC002" // cyclic expansion
	MAC003 = "MAC003" // no matching declarative-macro rule

	// Type errors.
	TYP001 = "TYP001" // mismatched types
	TYP002 = "TYP002" // missing struct fields
	TYP003 = "TYP003" // extra struct fields
	TYP004 = "TYP004" // non-exhaustive match
	TYP005 = "TYP005" // break outside of a loop
	TYP006 = "TYP006" // missing unsafe block
	TYP007 = "TYP007" // no such field
	TYP008 = "TYP008" // mismatched argument count
	TYP009 = "TYP009" // unresolved method
	TYP010 = "TYP010" // ambiguous method resolution
	TYP011 = "TYP011" // occurs check failure
	TYP012 = "TYP012" // trait bound not satisfied

	// Lints.
	LNT001 = "LNT001" // replace filter-map-next
	LNT002 = "LNT002" // remove this semicolon
	LNT003 = "LNT003" // missing Ok/Some in tail expression

	// Engine errors: never user-visible except as a diagnostic.
	ENG001 = "ENG001" // cycle detected, recovery value used
	ENG002 = "ENG002" // cancellation (informational only)
)
