package synsrc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunctionItem(t *testing.T) {
	p := NewParser()
	tree, err := p.Parse(context.Background(), "lib.rs", []byte("pub fn f() -> u8 { 0 }"))
	require.NoError(t, err)
	require.NotEmpty(t, tree.Nodes)

	fns := tree.ByKind("function_item")
	require.Len(t, fns, 1)
	assert.Contains(t, tree.NodeText(fns[0]), "fn f")
}

func TestNodeIdentityStableAcrossReparse(t *testing.T) {
	p := NewParser()
	src := []byte("fn f() {}")
	t1, err := p.Parse(context.Background(), "lib.rs", src)
	require.NoError(t, err)
	t2, err := p.Parse(context.Background(), "lib.rs", src)
	require.NoError(t, err)

	assert.Equal(t, t1.Nodes[0].ID, t2.Nodes[0].ID, "identical (file, span, kind) must yield identical NodeID")
}
