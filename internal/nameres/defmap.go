package nameres

import (
	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
)

// Namespace is one of the three namespaces a name can occupy
// simultaneously.
type Namespace int

const (
	NSTypes Namespace = iota
	NSValues
	NSMacros
	nsCount
)

// VisibilityKind mirrors itemtree.VisibilityKind without importing it,
// keeping nameres's public surface self-contained.
type VisibilityKind int

const (
	VisPrivate VisibilityKind = iota
	VisPublic
	VisCrate
	VisIn
)

// Visibility is attached to every scope entry.
type Visibility struct {
	Kind VisibilityKind
	At   ModuleID // meaningful for VisCrate/VisIn
}

// widerThan reports whether v is at least as permissive as other,
// used by the unnamed-trait-import merge rule which
// widens visibility to the maximum across imports.
func (v Visibility) widerThan(other Visibility) bool {
	rank := func(k VisibilityKind) int {
		switch k {
		case VisPublic:
			return 3
		case VisCrate:
			return 2
		case VisIn:
			return 1
		default:
			return 0
		}
	}
	return rank(v.Kind) >= rank(other.Kind)
}

// entryOrigin distinguishes a named definition/import from a glob
// import, for the shadowing tie-break rule.
type entryOrigin int

const (
	originNamed entryOrigin = iota
	originGlob
)

// scopeEntry is one (def, visibility, origin) triple in one namespace.
type scopeEntry struct {
	Def    DefID
	Vis    Visibility
	Origin entryOrigin
}

// Scope is a per-module, per-namespace name table.
type Scope struct {
	entries [nsCount]map[intern.ID]scopeEntry
}

func newScope() *Scope {
	s := &Scope{}
	for i := range s.entries {
		s.entries[i] = make(map[intern.ID]scopeEntry)
	}
	return s
}

// insert applies the shadowing/tie-break rule: a named
// entry always replaces; a glob entry only replaces an existing glob of
// narrower visibility. Returns true if the scope actually changed,
// which is what the fixed-point loop and glob re-propagation watch for.
func (s *Scope) insert(ns Namespace, name intern.ID, entry scopeEntry) (changed bool) {
	existing, ok := s.entries[ns][name]
	if !ok {
		s.entries[ns][name] = entry
		return true
	}
	switch entry.Origin {
	case originNamed:
		if existing.Origin == originNamed && existing.Def == entry.Def && existing.Vis == entry.Vis {
			return false
		}
		s.entries[ns][name] = entry
		return true
	case originGlob:
		if existing.Origin != originGlob {
			return false // named never yields to a glob
		}
		if entry.Vis.widerThan(existing.Vis) && !existing.Vis.widerThan(entry.Vis) {
			s.entries[ns][name] = entry
			return true
		}
		return false
	}
	return false
}

// Get looks up name in namespace ns.
func (s *Scope) Get(ns Namespace, name intern.ID) (scopeEntry, bool) {
	e, ok := s.entries[ns][name]
	return e, ok
}

// Snapshot returns every (namespace, name, entry) triple currently
// visible, filtered by the given visibility predicate — used by glob
// imports to copy a source module's scope.
func (s *Scope) Snapshot(visibleTo func(Visibility) bool) []struct {
	NS    Namespace
	Name  intern.ID
	Entry scopeEntry
} {
	var out []struct {
		NS    Namespace
		Name  intern.ID
		Entry scopeEntry
	}
	for ns := Namespace(0); ns < nsCount; ns++ {
		for name, entry := range s.entries[ns] {
			if visibleTo(entry.Vis) {
				out = append(out, struct {
					NS    Namespace
					Name  intern.ID
					Entry scopeEntry
				}{ns, name, entry})
			}
		}
	}
	return out
}

// Module is one node of the module tree.
type Module struct {
	Parent       ModuleID
	HasParent    bool
	Children     map[intern.ID]ModuleID
	Scope        *Scope
	LegacyMacros *Scope // textual (let-style) macro scope
}

// DefMap is a crate's (or block's) module tree plus the extern prelude
// and accumulated diagnostics.
type DefMap struct {
	Crate  input.CrateID
	Arena  []*Module // indexed by ModuleID.Local
	Root   ModuleID

	// ExternPrelude maps an external crate name/alias to the module it
	// resolves to (seeded once at collection time).
	ExternPrelude map[intern.ID]ModuleID
	// Prelude is the crate's std/core prelude module, if resolved.
	Prelude   *ModuleID

	Diagnostics *diag.Bag
	// ExportedProcMacros lists the proc macros this crate exports.
	ExportedProcMacros []intern.ID
}

// NewDefMap creates a DefMap with a single (empty) root module.
func NewDefMap(crate input.CrateID) *DefMap {
	root := &Module{Children: make(map[intern.ID]ModuleID), Scope: newScope(), LegacyMacros: newScope()}
	return &DefMap{
		Crate:         crate,
		Arena:         []*Module{root},
		Root:          ModuleID{Crate: crate, Local: 0},
		ExternPrelude: make(map[intern.ID]ModuleID),
		Diagnostics:   &diag.Bag{},
	}
}

// ModuleAt dereferences a ModuleID. Panics on a foreign-crate or
// out-of-range id — an internal invariant violation (no dangling ids).
func (dm *DefMap) ModuleAt(id ModuleID) *Module {
	if id.Crate != dm.Crate {
		panic("nameres: ModuleID from a different crate")
	}
	return dm.Arena[id.Local]
}

// NewChildModule allocates a new module as a child of parent, named name.
func (dm *DefMap) NewChildModule(parent ModuleID, name intern.ID) ModuleID {
	id := ModuleID{Crate: dm.Crate, Local: uint32(len(dm.Arena))}
	m := &Module{
		Parent:       parent,
		HasParent:    true,
		Children:     make(map[intern.ID]ModuleID),
		Scope:        newScope(),
		LegacyMacros: newScope(),
	}
	dm.Arena = append(dm.Arena, m)
	dm.ModuleAt(parent).Children[name] = id
	return id
}
