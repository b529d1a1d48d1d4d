package nameres

import "github.com/sunholo/semcore/internal/intern"

// PathKind is the base-selection step of path resolution, generalized
// from a typical import-dispatch classification (relative / stdlib /
// project / local) to this language's absolute / crate-relative / self
// / super×k / plain bases.
type PathKind int

const (
	PathPlain PathKind = iota
	PathAbsolute
	PathCrateRelative
	PathSelf
	PathSuper
)

// Path is a sequence of name segments with a base kind, as lowered from
// a `use` tree or macro-call path.
type Path struct {
	Kind       PathKind
	SuperCount int // meaningful only for PathSuper
	Segments   []intern.ID
}

// ShadowMode selects the tie-break rule used while descending a path:
// "Module" shadow-mode has the types namespace win ties during import
// path resolution; "Other" is used for macro-path lookups, which only
// ever consult the macro namespace. Path resolution in this package
// does not read the mode: no tie-break is applied between namespaces.
type ShadowMode int

const (
	ShadowModule ShadowMode = iota
	ShadowOther
)

// Reached describes whether further fixed-point iterations could still
// change a path-resolution outcome.
type Reached int

const (
	ReachedNo Reached = iota
	ReachedYes
)

// PerNamespace holds the types/values/macros namespace results a path
// resolves to.
type PerNamespace struct {
	Types, Values, Macros *DefID
	// Module is set when the fully-resolved entity is itself a module,
	// so the caller (import/macro resolution) can tell a module import
	// apart from a value/type import of the same name.
	Module *ModuleID
}

func (p PerNamespace) anyResolved() bool {
	return p.Types != nil || p.Values != nil || p.Macros != nil || p.Module != nil
}

func (p PerNamespace) allResolved() bool {
	return p.Types != nil && p.Values != nil && p.Macros != nil
}

// VariantTable is the per-enum variant lookup nameres needs to resolve
// a path segment that descends into an enum.
type VariantTable map[DefID]map[intern.ID]DefID

// Resolver walks a Path to a PerNamespace result starting from module M.
type Resolver struct {
	DefMap   *DefMap
	Provider DefMapProvider
	Variants VariantTable
}

// DefMapProvider resolves a crate id to its already-built DefMap, for
// crossing into a dependency's module tree mid-path.
type DefMapProvider func(crateID uint32) *DefMap

// ResolvePath implements a three-step algorithm: pick a
// base, then descend segment by segment, tracking a reached-fixed-point
// flag that the caller (not the resolution itself) consumes to decide
// whether to keep retrying this import/macro-call on a later pass.
func (r *Resolver) ResolvePath(start ModuleID, p Path, ns Namespace, mode ShadowMode) (PerNamespace, Reached) {
	switch p.Kind {
	case PathAbsolute:
		return r.descendFrom(r.DefMap.Root, p.Segments, ns, mode)
	case PathCrateRelative:
		return r.descendFrom(r.DefMap.Root, p.Segments, ns, mode)
	case PathSelf:
		return r.descendFrom(start, p.Segments, ns, mode)
	case PathSuper:
		cur := start
		for i := 0; i < p.SuperCount; i++ {
			m := r.DefMap.ModuleAt(cur)
			if !m.HasParent {
				return PerNamespace{}, ReachedYes // ran off the root: permanently unresolved
			}
			cur = m.Parent
		}
		return r.descendFrom(cur, p.Segments, ns, mode)
	default: // PathPlain
		return r.resolvePlain(start, p.Segments, ns, mode)
	}
}

// resolvePlain resolves the first segment via local scope -> ancestor
// scope chain -> prelude -> extern prelude, then descends the rest.
func (r *Resolver) resolvePlain(start ModuleID, segs []intern.ID, ns Namespace, mode ShadowMode) (PerNamespace, Reached) {
	if len(segs) == 0 {
		return PerNamespace{}, ReachedYes
	}
	first := segs[0]

	for cur, ok := start, true; ok; {
		m := r.DefMap.ModuleAt(cur)
		if res, found := lookupFirstSegment(m, first, mode); found {
			if len(segs) == 1 {
				return res, ReachedYes
			}
			return r.descendInto(res, segs[1:], ns, mode)
		}
		if !m.HasParent {
			break
		}
		cur = m.Parent
	}

	if r.DefMap.Prelude != nil {
		preludeMod := r.DefMap.ModuleAt(*r.DefMap.Prelude)
		if res, found := lookupFirstSegment(preludeMod, first, mode); found {
			if len(segs) == 1 {
				return res, ReachedYes
			}
			return r.descendInto(res, segs[1:], ns, mode)
		}
	}

	if modID, ok := r.DefMap.ExternPrelude[first]; ok {
		res := PerNamespace{Module: &modID}
		if len(segs) == 1 {
			return res, ReachedYes
		}
		return r.descendInto(res, segs[1:], ns, mode)
	}

	// Nothing resolved yet; may still resolve once more imports land
	// (the fixed-point loop will call this again on a later pass).
	return PerNamespace{}, ReachedNo
}

func lookupFirstSegment(m *Module, name intern.ID, mode ShadowMode) (PerNamespace, bool) {
	res := PerNamespace{}
	if modID, ok := m.Children[name]; ok {
		res.Module = &modID
	}
	if e, ok := m.Scope.Get(NSTypes, name); ok {
		d := e.Def
		res.Types = &d
	}
	if e, ok := m.Scope.Get(NSValues, name); ok {
		d := e.Def
		res.Values = &d
	}
	if e, ok := m.LegacyMacros.Get(NSMacros, name); ok {
		d := e.Def
		res.Macros = &d
	} else if e, ok := m.Scope.Get(NSMacros, name); ok {
		d := e.Def
		res.Macros = &d
	}
	return res, res.anyResolved()
}

func (r *Resolver) descendFrom(start ModuleID, segs []intern.ID, ns Namespace, mode ShadowMode) (PerNamespace, Reached) {
	res := PerNamespace{Module: &start}
	if len(segs) == 0 {
		return res, ReachedYes
	}
	return r.descendInto(res, segs, ns, mode)
}

// descendInto descends further segments from an already-resolved base:
// module scopes, enum variant sets, or (not implemented here — see
// DESIGN.md) trait/impl associated items, which this package defers to
// hirtypes's associated-item resolution since that resolution depends
// on a concrete receiver type nameres does not have access to.
func (r *Resolver) descendInto(base PerNamespace, segs []intern.ID, ns Namespace, mode ShadowMode) (PerNamespace, Reached) {
	cur := base
	for i, seg := range segs {
		last := i == len(segs)-1

		if cur.Module != nil {
			m := r.DefMap.ModuleAt(*cur.Module)
			next, found := lookupFirstSegment(m, seg, mode)
			if !found {
				return PerNamespace{}, ReachedNo
			}
			if last {
				return next, ReachedYes
			}
			cur = next
			continue
		}

		if cur.Types != nil {
			if variants, ok := r.Variants[*cur.Types]; ok {
				if def, ok := variants[seg]; ok {
					result := PerNamespace{Types: &def, Values: &def}
					if last {
						return result, ReachedYes
					}
					cur = result
					continue
				}
			}
		}

		// Segment doesn't resolve further: permanently unresolved from here.
		return PerNamespace{}, ReachedYes
	}
	return cur, ReachedYes
}
