package itemtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/synsrc"
)

func lowerSrc(t *testing.T, src string, cfg input.CfgOptions) (*ItemTree, *synsrc.Tree, *intern.Interner) {
	t.Helper()
	p := synsrc.NewParser()
	tree, err := p.Parse(context.Background(), "lib.rs", []byte(src))
	require.NoError(t, err)
	in := intern.New()
	it, _ := Lower(0, tree, in, cfg)
	return it, tree, in
}

func TestLowerFunctionAndStruct(t *testing.T) {
	it, _, in := lowerSrc(t, `
pub struct S { field: u8 }
pub fn f() -> u8 { 0 }
`, input.NewCfgOptions())

	require.Len(t, it.TopLevel, 2)
	var sawStruct, sawFn bool
	for _, id := range it.TopLevel {
		item := it.Get(id)
		switch item.Kind {
		case KindStruct:
			sawStruct = true
			assert.Equal(t, "S", in.Lookup(item.Name))
			assert.Equal(t, VisPublic, item.Vis.Kind)
			require.Len(t, item.Fields, 1)
			assert.Equal(t, "field", in.Lookup(item.Fields[0].Name))
		case KindFunction:
			sawFn = true
			assert.Equal(t, "f", in.Lookup(item.Name))
		}
	}
	assert.True(t, sawStruct)
	assert.True(t, sawFn)
}

func TestCfgFalseItemIsDroppedWithDiagnostic(t *testing.T) {
	p := synsrc.NewParser()
	tree, err := p.Parse(context.Background(), "lib.rs", []byte(`
#[cfg(windows)]
pub fn win_only() {}
pub fn always() {}
`))
	require.NoError(t, err)
	in := intern.New()
	it, bag := Lower(0, tree, in, input.NewCfgOptions())

	require.Len(t, it.TopLevel, 1)
	assert.Equal(t, "always", in.Lookup(it.Get(it.TopLevel[0]).Name))
	assert.Equal(t, 1, bag.Len())
}

func TestLowerAttrsSplitsDeriveFromPlainAttribute(t *testing.T) {
	it, _, in := lowerSrc(t, `
#[derive(Debug, Clone)]
#[unknown_attr]
pub struct S { field: u8 }
`, input.NewCfgOptions())

	require.Len(t, it.TopLevel, 1)
	item := it.Get(it.TopLevel[0])
	require.Len(t, item.Attrs, 2)

	derive := item.Attrs[0]
	assert.Equal(t, AttrDerive, derive.Kind)
	require.Len(t, derive.DerivePaths, 2)
	assert.Equal(t, "Debug", in.Lookup(derive.DerivePaths[0][0]))
	assert.Equal(t, "Clone", in.Lookup(derive.DerivePaths[1][0]))

	plain := item.Attrs[1]
	assert.Equal(t, AttrPlain, plain.Kind)
	require.Len(t, plain.Path, 1)
	assert.Equal(t, "unknown_attr", in.Lookup(plain.Path[0]))
}

func TestLowerAttrsExcludesCfg(t *testing.T) {
	it, _, _ := lowerSrc(t, `
#[cfg(not(windows))]
#[derive(Debug)]
pub struct S { field: u8 }
`, input.NewCfgOptions())

	require.Len(t, it.TopLevel, 1)
	item := it.Get(it.TopLevel[0])
	require.Len(t, item.Attrs, 1)
	assert.Equal(t, AttrDerive, item.Attrs[0].Kind)
}
