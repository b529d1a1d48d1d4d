package semantic

import (
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/nameres"
	"github.com/sunholo/semcore/internal/synsrc"
)

// Reference is one use of a definition: either the declaration itself
// or a later mention (a path expression, a pattern binding referring
// back to its declaration, a struct-literal field name, ...).
type Reference struct {
	File  input.FileID
	Node  synsrc.NodePtr
	IsDecl bool
}

// ReferenceIndex is the narrow lookup find-all-references needs. Name
// resolution already determined, once, which DefID every path in the
// crate resolves to — this package never re-resolves
// anything, it only asks whoever built that index what it recorded.
// No package in this module implements it; an implementation records
// a (DefID -> []Reference) entry at every point ResolvePath succeeds
// during def-map construction and body lowering.
type ReferenceIndex interface {
	Refs(def nameres.DefID) []Reference
}

// FindReferences returns every recorded use of d, declaration included,
// ordered however idx returned them. A Database alone can't answer
// this — it takes a proper crate-wide ReferenceIndex, assembled once
// per snapshot alongside name resolution rather than recomputed per
// call.
func FindReferences(idx ReferenceIndex, d Def) []Reference {
	return idx.Refs(d.ID())
}

// FilterDecls splits refs into the declaration site(s) and the rest,
// the grouping most IDE "find references" views present (declaration
// pinned to the top, usages below).
func FilterDecls(refs []Reference) (decls, uses []Reference) {
	for _, r := range refs {
		if r.IsDecl {
			decls = append(decls, r)
		} else {
			uses = append(uses, r)
		}
	}
	return decls, uses
}
