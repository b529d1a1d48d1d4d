// Package semantic is the thin (DefID, &Database)-shaped surface an IDE
// frontend actually calls: "what are this item's
// children", "what's this field's/binding's type", "what does this path
// resolve to", "where else is this used" — each a shallow read over the
// item tree, def map, lowered bodies, and inferred types already built
// by the rest of the pipeline, never a fresh analysis pass of its own.
//
// This generalizes the idea of exposing compiled modules as a stable
// (name, kind, type) surface for tooling from a whole-module export
// list into a per-definition query surface, and from a fixed
// post-compilation snapshot into something every query pulls live
// through Database.
package semantic

import (
	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/hirtypes"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/itemtree"
	"github.com/sunholo/semcore/internal/nameres"
	"github.com/sunholo/semcore/internal/synsrc"
)

// Database is the narrow read surface this package needs from whatever
// owns the crate graph, item trees, def maps, bodies, and inference
// results (internal/db). Every method here is expected to be a plain
// query-engine lookup, not a computation — semantic never triggers
// analysis itself, only assembles it.
type Database interface {
	ItemTreeOf(file input.FileID) *itemtree.ItemTree
	DefMapOf(crate input.CrateID) *nameres.DefMap
	ItemOf(def nameres.DefID) (itemtree.Item, bool)
	BodyOf(def nameres.DefID) (*body.Body, bool)
	InferenceOf(def nameres.DefID) (*hirtypes.Ctx, bool)
	// SourceOf resolves a definition to the file and syntax node it was
	// declared at. For an item introduced by macro expansion, File is the
	// virtual macro-expansion file macroexpand.VirtualFileAllocator
	// produced, not anything on disk.
	SourceOf(def nameres.DefID) (input.FileID, synsrc.NodePtr, bool)
	// ExpansionOf maps a virtual macro-expansion file to the call-site
	// file and the node of the macro invocation that produced it, one
	// level at a time — following it repeatedly walks all the way back to
	// real source.
	ExpansionOf(file input.FileID) (input.FileID, synsrc.NodePtr, bool)
	// ModuleOf resolves a DefModule definition to the ModuleID a DefMap
	// actually indexes its scope under.
	ModuleOf(def nameres.DefID) (nameres.ModuleID, bool)
	// FieldsOf lists the DefField definitions declared inside a
	// struct/union/enum-variant container, in declaration order.
	FieldsOf(def nameres.DefID) []nameres.DefID
}

// Def is a handle to one definition, scoped to the Database that
// produced it. It carries no cached data of its own — every accessor
// re-reads through db, so a Def stays valid (and current) across edits
// the same way a query-engine-derived value does.
type Def struct {
	db Database
	id nameres.DefID
}

// NewDef wraps a raw DefID for querying through db.
func NewDef(db Database, id nameres.DefID) Def { return Def{db: db, id: id} }

// ID returns the underlying DefID, for callers that need to cross back
// into nameres/db directly (e.g. to build a ReferenceIndex).
func (d Def) ID() nameres.DefID { return d.id }

// Item returns the declaring item-tree node, if still resolvable.
func (d Def) Item() (itemtree.Item, bool) { return d.db.ItemOf(d.id) }

// Kind reports the definition's item kind (function, struct, field, ...).
func (d Def) Kind() (nameres.ItemKind, bool) {
	return d.id.Kind, true
}

// Children enumerates the definitions nested inside d: a struct's or
// union's fields and a module's items. An enum yields what FieldsOf
// records under the enum's own DefID, which does not include its
// variants; traits are not handled and, like non-container kinds,
// return nil. Module children are the one
// case this package can't assemble from the item tree alone (a module's
// members live across many files and an accumulated Scope, not a single
// Item), so that case defers entirely to the Database.
func (d Def) Children() []Def {
	item, ok := d.Item()
	if !ok {
		return nil
	}
	var out []Def
	switch item.Kind {
	case itemtree.KindEnum, itemtree.KindStruct, itemtree.KindUnion:
		for _, fdef := range d.db.FieldsOf(d.id) {
			out = append(out, NewDef(d.db, fdef))
		}
	case itemtree.KindModule:
		mod, ok := d.db.ModuleOf(d.id)
		if !ok {
			return nil
		}
		dm := d.db.DefMapOf(mod.Crate)
		if dm == nil {
			return nil
		}
		scope := dm.ModuleAt(mod).Scope
		for _, e := range scope.Snapshot(func(nameres.Visibility) bool { return true }) {
			out = append(out, NewDef(d.db, e.Entry.Def))
		}
	}
	return out
}

// Source returns the file and syntax node d was declared at, as
// SourceOf reports it; macro-expansion virtual files are not followed
// back to real source (OriginalSource does that).
func (d Def) Source() (input.FileID, synsrc.NodePtr, bool) {
	return d.db.SourceOf(d.id)
}

// OriginalSource repeatedly follows ExpansionOf until it reaches a file
// with no further expansion ancestor, returning the real, on-disk
// source location a macro-generated definition ultimately came from.
// Bounded so a misbehaving Database implementation can't loop forever.
func (d Def) OriginalSource() (input.FileID, synsrc.NodePtr, bool) {
	file, node, ok := d.db.SourceOf(d.id)
	if !ok {
		return file, node, false
	}
	return OriginalFile(d.db, file, node)
}

// OriginalFile walks ExpansionOf from (file, node) until no further
// expansion ancestor exists.
func OriginalFile(db Database, file input.FileID, node synsrc.NodePtr) (input.FileID, synsrc.NodePtr, bool) {
	const maxHops = 64
	for i := 0; i < maxHops; i++ {
		parentFile, parentNode, ok := db.ExpansionOf(file)
		if !ok {
			return file, node, true
		}
		file, node = parentFile, parentNode
	}
	return file, node, true
}

// TypeOfExpr reads the inferred type of one expression in d's body, nil
// if d has no body or no recorded inference (e.g. inference never ran,
// or the expression belongs to a different definition's body).
func (d Def) TypeOfExpr(id body.ExprID) (*hirtypes.Ty, bool) {
	ctx, ok := d.db.InferenceOf(d.id)
	if !ok {
		return nil, false
	}
	ty := ctx.ExprType(id)
	got := ctx.Types.Get(ty)
	return &got, true
}

// TypeOfPat reads the inferred type of one pattern binding in d's body.
func (d Def) TypeOfPat(id body.PatID) (*hirtypes.Ty, bool) {
	ctx, ok := d.db.InferenceOf(d.id)
	if !ok {
		return nil, false
	}
	ty := ctx.PatType(id)
	got := ctx.Types.Get(ty)
	return &got, true
}

// TypeString renders TypeOfExpr's result for display, "{unknown}" if
// unavailable — never a panic, since a stale edit can always leave a
// node momentarily un-inferred.
func (d Def) TypeString(id body.ExprID) string {
	ctx, ok := d.db.InferenceOf(d.id)
	if !ok {
		return "{unknown}"
	}
	return ctx.Types.String(ctx.ExprType(id))
}
