package body

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/synsrc"
)

// treeBuilder constructs a synsrc.Tree by hand, bypassing the real
// tree-sitter parser, so lowering logic can be exercised deterministically
// without depending on the exact grammar's node shapes round-tripping
// through a live parse.
type treeBuilder struct {
	tree *synsrc.Tree
}

func newTreeBuilder(text string) *treeBuilder {
	return &treeBuilder{tree: &synsrc.Tree{Text: []byte(text), Kind2Idxs: make(map[string][]int)}}
}

func (b *treeBuilder) node(parent int, kind string, start, end int) int {
	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, synsrc.NodePtr{
		ID:        synsrc.NodeID(kind + "#" + itoa(idx)),
		Kind:      kind,
		StartByte: uint32(start),
		EndByte:   uint32(end),
	})
	b.tree.Parent = append(b.tree.Parent, parent)
	b.tree.Kind2Idxs[kind] = append(b.tree.Kind2Idxs[kind], idx)
	return idx
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestLowerBlockWithTailExpression(t *testing.T) {
	b := newTreeBuilder("{ 1 }")
	blk := b.node(-1, "block", 0, 5)
	b.node(blk, "{", 0, 1)
	lit := b.node(blk, "integer_literal", 2, 3)
	b.node(blk, "}", 4, 5)

	in := intern.New()
	body := Lower(b.tree, in, nil, blk)

	e := body.Exprs.Get(body.RootExpr)
	require.Equal(t, ExprBlock, e.Kind)
	require.NotNil(t, e.Tail)
	tail := body.Exprs.Get(*e.Tail)
	assert.Equal(t, ExprLiteral, tail.Kind)
	assert.Equal(t, LitInt, tail.LitKind)
	_ = lit
}

func TestLowerIfLetDesugarsToMatch(t *testing.T) {
	// `if let Some(x) = opt { 1 } else { 2 }`
	text := "if let Some(x) = opt { 1 } else { 2 }"
	b := newTreeBuilder(text)
	ifExpr := b.node(-1, "if_expression", 0, len(text))
	b.node(ifExpr, "if", 0, 2)
	cond := b.node(ifExpr, "let_condition", 3, 20)
	b.node(cond, "let", 3, 6)
	pat := b.node(cond, "tuple_struct_pattern", 7, 14)
	b.node(pat, "identifier", 7, 11) // "Some"
	b.node(pat, "(", 11, 12)
	b.node(pat, "identifier", 12, 13) // "x"
	b.node(pat, ")", 13, 14)
	b.node(cond, "=", 15, 16)
	b.node(cond, "identifier", 17, 20) // "opt"
	thenBlk := b.node(ifExpr, "block", 21, 26)
	b.node(thenBlk, "{", 21, 22)
	b.node(thenBlk, "integer_literal", 23, 24)
	b.node(thenBlk, "}", 25, 26)
	b.node(ifExpr, "else", 27, 31)
	elseBlk := b.node(ifExpr, "block", 32, 37)
	b.node(elseBlk, "{", 32, 33)
	b.node(elseBlk, "integer_literal", 34, 35)
	b.node(elseBlk, "}", 36, 37)

	in := intern.New()
	body := Lower(b.tree, in, nil, ifExpr)

	e := body.Exprs.Get(body.RootExpr)
	require.Equal(t, ExprMatch, e.Kind, "if-let must desugar to a match expression")
	require.Len(t, e.Arms, 2)

	scrutinee := body.Exprs.Get(e.Scrutinee)
	assert.Equal(t, ExprPath, scrutinee.Kind)

	firstArmPat := body.Pats.Get(e.Arms[0].Pat)
	assert.Equal(t, PatTupleStruct, firstArmPat.Kind)
	assert.Equal(t, "Some", in.Lookup(firstArmPat.PathSegments[0]))

	secondArmPat := body.Pats.Get(e.Arms[1].Pat)
	assert.Equal(t, PatWild, secondArmPat.Kind)
}

func TestLowerForDesugarsToLoopOverIterator(t *testing.T) {
	text := "for x in xs { x }"
	b := newTreeBuilder(text)
	forExpr := b.node(-1, "for_expression", 0, len(text))
	b.node(forExpr, "for", 0, 3)
	pat := b.node(forExpr, "identifier", 4, 5) // "x"
	b.node(forExpr, "in", 6, 8)
	iter := b.node(forExpr, "identifier", 9, 11) // "xs"
	blk := b.node(forExpr, "block", 12, 17)
	b.node(blk, "{", 12, 13)
	b.node(blk, "identifier", 14, 15)
	b.node(blk, "}", 16, 17)
	_ = pat
	_ = iter

	in := intern.New()
	body := Lower(b.tree, in, nil, forExpr)

	e := body.Exprs.Get(body.RootExpr)
	require.Equal(t, ExprLoop, e.Kind, "for must desugar to a loop expression")
	inner := body.Exprs.Get(e.LoopBody)
	require.Equal(t, ExprMatch, inner.Kind)

	nextCall := body.Exprs.Get(inner.Scrutinee)
	require.Equal(t, ExprMethodCall, nextCall.Kind)
	assert.Equal(t, "next", in.Lookup(nextCall.MethodName))
}

func TestLowerPatternBindAndWild(t *testing.T) {
	b := newTreeBuilder("x")
	idNode := b.node(-1, "identifier", 0, 1)
	wildNode := b.node(-1, "_", 0, 1)

	in := intern.New()
	lz := &Lowerer{tree: b.tree, interner: in, exprs: intern.NewArena[Expr](), pats: intern.NewArena[Pat](), sm: newSourceMap()}

	bindPat := lz.lowerPat(idNode)
	bp := lz.pats.Get(bindPat)
	assert.Equal(t, PatBind, bp.Kind)
	assert.Equal(t, "x", in.Lookup(bp.Name))

	wildPat := lz.lowerPat(wildNode)
	wp := lz.pats.Get(wildPat)
	assert.Equal(t, PatWild, wp.Kind)
}
