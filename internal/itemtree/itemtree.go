// Package itemtree builds the per-file, macro-agnostic, cfg-filtered
// skeleton of declared items that name resolution consumes without
// re-parsing. It is deliberately *lossy*: small edits to
// whitespace or expression bodies never change the item tree, which is
// what lets name resolution's cached outputs survive routine typing.
//
// The top-level item walk (split a file into module decls, funcs, and
// statements) is the same shape as a one-pass AST-to-declarations
// elaborator, generalized here to walk a tree-sitter-sourced concrete
// tree (internal/synsrc) instead of a hand-rolled surface AST.
package itemtree

import (
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/synsrc"
)

// ID indexes one item within the ItemTree of a single FileID.
type ID = intern.Idx[Item]

// Visibility is one of: public, crate-restricted, module-restricted, or
// private to the defining module.
type Visibility struct {
	Kind VisibilityKind
	// At, for VisCrate/VisIn, names the module the visibility is
	// restricted to/from. Left as an opaque string here (a module path)
	// since the item tree is built before module IDs exist; nameres
	// resolves it to a ModuleID when it consumes the item tree.
	At string
}

type VisibilityKind int

const (
	VisPrivate VisibilityKind = iota
	VisPublic
	VisCrate    // pub(crate)
	VisIn       // pub(in path) / pub(super) / pub(self)
)

// Kind enumerates the item variants this tree lowers top-level items to.
type Kind int

const (
	KindFunction Kind = iota
	KindStruct
	KindEnum
	KindUnion
	KindTrait
	KindTypeAlias
	KindConst
	KindStatic
	KindImpl
	KindMacroDef
	KindUse
	KindExternCrate
	KindModule
	KindMacroCall
)

// AttrKind distinguishes the two directive shapes a plain
// `#[...]` attribute_item can carry, short of `cfg` (which item-tree
// lowering evaluates and discards on the spot rather than keeping as
// a directive).
type AttrKind int

const (
	// AttrDerive is `#[derive(Path, ...)]`: one pending directive per
	// listed path, each resolved in the macro namespace.
	AttrDerive AttrKind = iota
	// AttrPlain is any other attribute, e.g. `#[unknown_attr]`: a
	// candidate attribute-macro call unless it turns out to name a
	// helper attribute declared by one of the item's derives.
	AttrPlain
)

// Attr is one attribute directive attached to an item, in source order.
type Attr struct {
	Kind AttrKind
	// Path is the attribute's own name for AttrPlain and is unset for
	// AttrDerive — DerivePaths holds the derive list instead so a single
	// `#[derive(A, B)]` yields one Attr with two pending directives
	// rather than two Attrs.
	Path        []intern.ID
	DerivePaths [][]intern.ID // AttrDerive only
	Node        synsrc.NodePtr
}

// Field is a struct/union/variant field: a name, a syntactic type
// reference (opaque here — type inference lowers it), and a visibility.
type Field struct {
	Name intern.ID
	Vis  Visibility
	Node synsrc.NodePtr
}

// Variant is one arm of an enum.
type Variant struct {
	Name   intern.ID
	Fields []Field
	Node   synsrc.NodePtr
}

// UseTree captures one `use` item's path and import kind, unexpanded —
// nameres interprets glob/named/rename forms from this shape.
type UseTree struct {
	Segments []intern.ID
	Rename   intern.ID // 0/unset if no `as` clause
	IsGlob   bool
	TypeOnly bool // `use` vs `use type` restriction, if the grammar supports it
}

// Item is one declared item. Name is unset (zero ID) for items that
// don't carry one (impls, bare macro calls, anonymous `use` trees).
type Item struct {
	Kind     Kind
	Name     intern.ID
	Vis      Visibility
	Generics []intern.ID // generic parameter names, in declaration order
	Node     synsrc.NodePtr

	// Kind-specific payloads; exactly one is populated per Kind.
	Fields   []Field  // struct/union
	Variants []Variant // enum
	Use      *UseTree
	// InnerItems holds items declared inside this item's body (e.g. a
	// block-local `mod` or `fn` inside a function).
	InnerItems []ID

	// Attrs lists every non-cfg attribute attached directly before this
	// item, in source order: derives and plain attribute-macro
	// candidates alike. Name resolution turns each into a pending
	// directive (resolve_macros' three directive kinds).
	Attrs []Attr
}

// ItemTree is the skeleton for one FileID.
type ItemTree struct {
	File  input.FileID
	Items *intern.Arena[Item]
	// TopLevel lists the IDs of items declared directly at file scope,
	// in source order (needed for shadowing/ordering-sensitive legacy
	// macro scope resolution in name resolution).
	TopLevel []ID
	// SkipAttrs records, by attribute syntax node, every attribute
	// directive the name-resolution fixed point has given up resolving
	// as a macro call (stall recovery picks one unresolved attribute
	// per stalled pass and marks it here so later passes treat the
	// item as if that attribute were absent rather than looping
	// forever). Populated by internal/nameres.Collector.Run, not by
	// item-tree lowering itself.
	SkipAttrs map[synsrc.NodeID]bool
}

// Get dereferences an item ID.
func (t *ItemTree) Get(id ID) Item { return t.Items.Get(id) }
