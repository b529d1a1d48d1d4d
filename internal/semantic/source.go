package semantic

import (
	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/synsrc"
)

// NodeIndex locates idx within tree.Nodes by NodeID — the source maps
// in internal/body key by NodeID (stable across reparses), but an
// ancestor walk needs Tree's index-based Parent array, so callers
// cross between the two representations here.
func NodeIndex(tree *synsrc.Tree, id synsrc.NodeID) (int, bool) {
	for i, n := range tree.Nodes {
		if n.ID == id {
			return i, true
		}
	}
	return 0, false
}

// EnclosingExprOrPat walks from nodeIdx up through tree.Parent looking
// for the nearest ancestor (inclusive of nodeIdx itself) that a body's
// SourceMap recognizes as an expression or pattern — the core of the
// source→semantics bridge: a click anywhere inside, say, a
// binary operator's right-hand operand still resolves to *some*
// expression, even if the cursor lands on a bare token the lowering
// pass never allocated an Expr for.
func EnclosingExprOrPat(tree *synsrc.Tree, sm *body.SourceMap, nodeIdx int) (body.ExprID, body.PatID, bool, bool) {
	for i := nodeIdx; i != -1; i = tree.Parent[i] {
		id := tree.Nodes[i].ID
		if exprID, ok := sm.NodeExpr[id]; ok {
			return exprID, 0, true, false
		}
		if patID, ok := sm.NodePat[id]; ok {
			return 0, patID, false, true
		}
	}
	return 0, 0, false, false
}

// AncestorOfKind returns the nearest ancestor of nodeIdx (inclusive)
// whose grammar kind is in kinds, used to find the enclosing item
// (function_item, struct_item, ...) a position belongs to before
// DefAt's item-tree lookup.
func AncestorOfKind(tree *synsrc.Tree, nodeIdx int, kinds ...string) (int, bool) {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	for i := nodeIdx; i != -1; i = tree.Parent[i] {
		if want[tree.Nodes[i].Kind] {
			return i, true
		}
	}
	return 0, false
}

// itemKinds lists the tree-sitter node kinds that correspond to a
// top-level or block-local item in the rust grammar go-tree-sitter
// ships — the same set item-tree lowering itself splits on.
var itemKinds = []string{
	"function_item",
	"struct_item",
	"enum_item",
	"union_item",
	"trait_item",
	"type_item",
	"const_item",
	"static_item",
	"impl_item",
	"macro_definition",
	"use_declaration",
	"extern_crate_declaration",
	"mod_item",
}

// EnclosingItemNode returns the nearest enclosing item node for a
// position, the entry point for "what definition owns this byte
// offset" before consulting a Database for that item's DefID.
func EnclosingItemNode(tree *synsrc.Tree, nodeIdx int) (synsrc.NodePtr, bool) {
	idx, ok := AncestorOfKind(tree, nodeIdx, itemKinds...)
	if !ok {
		return synsrc.NodePtr{}, false
	}
	return tree.Nodes[idx], true
}
