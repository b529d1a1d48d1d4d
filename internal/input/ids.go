// Package input holds the query engine's *inputs*: the crate graph,
// file text, and proc-macro registry the host sets from outside.
// Nothing in this package is derived; every value here is set directly
// and read back verbatim by derived queries elsewhere.
package input

// CrateID names a crate in the dependency graph. Stable for the session.
type CrateID uint32

// FileID names a source file, real (on disk) or virtual (a macro
// expansion result). Stable for the session; never re-used.
type FileID uint32

// Edition selects language-edition-dependent resolution rules (prelude
// path, `?`-operator desugaring shape).
type Edition string

const (
	Edition2015 Edition = "2015"
	Edition2018 Edition = "2018"
	Edition2021 Edition = "2021"
)

// Durability classifies how often an input is expected to change.
// Bumping an input at durability D invalidates only derived values that
// depend on inputs at durability <= D.
type Durability int

const (
	// DurabilityLow is file text: changes on every keystroke.
	DurabilityLow Durability = iota
	// DurabilityMedium is cfg options: changes when a feature flag toggles.
	DurabilityMedium
	// DurabilityHigh is the crate graph: changes when the project is reconfigured.
	DurabilityHigh
)
