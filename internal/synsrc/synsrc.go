// Package synsrc is the thin adapter over the external syntax-tree
// parser this package treats as an out-of-scope collaborator: "a lossless
// concrete tree with stable node identities". It wraps go-tree-sitter's
// Rust grammar, a common choice for concrete-syntax access in semantic
// tooling, so the core never implements a lexer or parser itself.
//
// Grounded on the common pattern of wrapping sitter.Parser plus a
// language grammar behind a small domain-specific interface in the
// same shape as NodePtr/Tree below.
package synsrc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// NodeID is a stable identity for one concrete-syntax node, computed
// from its owning file, byte range, and grammar kind — not from the
// tree-sitter node pointer, which is only valid for the lifetime of one
// parse. Stability across incremental reparses lets the item tree's
// and body lowering's source maps point at positions that survive
// whitespace-only edits.
type NodeID string

// newNodeID follows a common content-addressing formula (hash of
// canonical path | start | end | kind), generalized here from AST
// nodes to concrete-syntax tree-sitter nodes.
func newNodeID(file string, start, end uint32, kind string) NodeID {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s", file, start, end, kind)
	return NodeID(hex.EncodeToString(h.Sum(nil))[:16])
}

// NodePtr is a lightweight, stable pointer to one node of a parsed
// file: enough to recover a byte range and kind without holding a
// reference to the live tree-sitter tree (which is closed after parsing
// completes). Body lowering's source maps and the semantic surface's
// source↔semantics bridge both key off NodePtr.
type NodePtr struct {
	ID         NodeID
	Kind       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Point is a line/column position, 0-based as tree-sitter reports it.
type Point struct {
	Row, Column uint32
}

// Tree is a parsed file: a flat, indexable list of nodes (pre-order)
// plus a parent index, which is all item-tree lowering and body
// lowering need — they never walk the live *sitter.Tree directly.
type Tree struct {
	File    string
	Text    []byte
	Nodes   []NodePtr
	Parent  []int // Parent[i] is the index of Nodes[i]'s parent, or -1 for the root
	Kind2Idxs map[string][]int
}

// NodeText returns the source text spanned by a node.
func (t *Tree) NodeText(idx int) string {
	n := t.Nodes[idx]
	return string(t.Text[n.StartByte:n.EndByte])
}

// ByKind returns every node index of the given grammar kind
// (e.g. "function_item", "use_declaration", "mod_item").
func (t *Tree) ByKind(kind string) []int {
	return t.Kind2Idxs[kind]
}

// Children returns the index of every direct child of idx, in order.
func (t *Tree) Children(idx int) []int {
	var out []int
	for i, p := range t.Parent {
		if p == idx {
			out = append(out, i)
		}
	}
	return out
}

// Parser wraps a single sitter.Parser configured for the Rust grammar.
// Parser is not safe for concurrent use; callers typically keep one per
// goroutine, or serialize access, matching upstream go-tree-sitter's own
// documented constraint.
type Parser struct {
	inner *sitter.Parser
}

// NewParser constructs a Rust-grammar parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	return &Parser{inner: p}
}

// Parse produces a lossless concrete tree for one file's text, with
// stable node identities assigned from (file, byte range, kind).
func (p *Parser) Parse(ctx context.Context, file string, text []byte) (*Tree, error) {
	sitterTree, err := p.inner.ParseCtx(ctx, nil, text)
	if err != nil {
		return nil, fmt.Errorf("synsrc: parse %s: %w", file, err)
	}
	defer sitterTree.Close()

	out := &Tree{File: file, Text: text, Kind2Idxs: make(map[string][]int)}
	var walk func(n *sitter.Node, parentIdx int)
	walk = func(n *sitter.Node, parentIdx int) {
		idx := len(out.Nodes)
		ptr := NodePtr{
			ID:         newNodeID(file, n.StartByte(), n.EndByte(), n.Type()),
			Kind:       n.Type(),
			StartByte:  n.StartByte(),
			EndByte:    n.EndByte(),
			StartPoint: Point{Row: n.StartPoint().Row, Column: n.StartPoint().Column},
			EndPoint:   Point{Row: n.EndPoint().Row, Column: n.EndPoint().Column},
		}
		out.Nodes = append(out.Nodes, ptr)
		out.Parent = append(out.Parent, parentIdx)
		out.Kind2Idxs[ptr.Kind] = append(out.Kind2Idxs[ptr.Kind], idx)

		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			walk(n.Child(i), idx)
		}
	}
	walk(sitterTree.RootNode(), -1)
	return out, nil
}
