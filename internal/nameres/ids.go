// Package nameres implements the Definition Map and the fixed-point
// DefCollector that builds it: import resolution interleaved with
// macro expansion. Two ideas carry over from module loaders in
// general, repurposed here:
//
//   - import-path classification (relative / stdlib / project / local)
//     becomes the Path-kind base-selection step of ResolvePath.
//   - a dictionary-resolution fixed point ("resolve what you can,
//     record what's still pending, repeat") becomes the outer
//     resolve_imports*/resolve_macros control loop.
//
// Ambiguous details follow rust-analyzer's per-namespace Indeterminate
// shape of a partially resolved import.
package nameres

import "github.com/sunholo/semcore/internal/input"

// ModuleID names one module within one crate's DefMap.
type ModuleID struct {
	Crate input.CrateID
	Local uint32
}

// ItemKind mirrors itemtree.Kind for the def-arena a DefId belongs to.
type ItemKind int

const (
	DefFunction ItemKind = iota
	DefStruct
	DefEnum
	DefUnion
	DefTrait
	DefTypeAlias
	DefConst
	DefStatic
	DefImpl
	DefEnumVariant
	DefField
	DefTypeParam
	DefLifetimeParam
	DefConstParam
	DefMacroDef
	DefModule
)

func (k ItemKind) String() string {
	switch k {
	case DefFunction:
		return "function"
	case DefStruct:
		return "struct"
	case DefEnum:
		return "enum"
	case DefUnion:
		return "union"
	case DefTrait:
		return "trait"
	case DefTypeAlias:
		return "type_alias"
	case DefConst:
		return "const"
	case DefStatic:
		return "static"
	case DefImpl:
		return "impl"
	case DefEnumVariant:
		return "enum_variant"
	case DefField:
		return "field"
	case DefTypeParam:
		return "type_param"
	case DefLifetimeParam:
		return "lifetime_param"
	case DefConstParam:
		return "const_param"
	case DefMacroDef:
		return "macro_def"
	case DefModule:
		return "module"
	default:
		return "unknown"
	}
}

// DefID names one item, referenced by its declaration site. Equality
// and hashing are always by id, never by structural content.
type DefID struct {
	Kind ItemKind
	Idx  uint32
}

// MacroCallID identifies one macro invocation site: its defining macro,
// the argument token subtree, and the call site.
type MacroCallID struct {
	Def      DefID
	ArgsHash string
	CallSite ModuleID
}
