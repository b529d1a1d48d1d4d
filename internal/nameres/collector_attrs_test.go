package nameres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/itemtree"
	"github.com/sunholo/semcore/internal/synsrc"
)

// collectSrc parses and lowers src, then runs the collector fixed point
// to completion against a single-file crate rooted at the DefMap root.
func collectSrc(t *testing.T, src string) (*itemtree.ItemTree, *Collector) {
	t.Helper()
	p := synsrc.NewParser()
	tree, err := p.Parse(context.Background(), "lib.rs", []byte(src))
	require.NoError(t, err)
	in := intern.New()
	it, bag := itemtree.Lower(0, tree, in, input.NewCfgOptions())
	require.Equal(t, 0, bag.Len())

	c := NewCollector(0, nil, nil, in)
	c.CollectFile(c.DefMap.Root, it)
	c.Run()
	return it, c
}

func TestDeriveOnStructResolvesAsBuiltinWithoutScopeEntry(t *testing.T) {
	it, c := collectSrc(t, `
#[derive(Debug, Clone)]
pub struct S { field: u8 }
`)

	assert.Equal(t, 0, c.DefMap.Diagnostics.Len())

	item := it.Get(it.TopLevel[0])
	require.Len(t, item.Attrs, 1)
	require.Len(t, item.Attrs[0].DerivePaths, 2)
	// Built-in derives resolve without ever being recorded against a
	// macro DefID.
	assert.Empty(t, c.ResolvedDerives)
}

func TestUnknownAttributeMacroReportsUnresolvedProcMacroAndSkips(t *testing.T) {
	it, c := collectSrc(t, `
#[unknown_attr]
pub fn g() -> i32 { 1 }
`)

	reports := c.DefMap.Diagnostics.All()
	require.Len(t, reports, 1)
	assert.Equal(t, "NAM005", reports[0].Code)

	item := it.Get(it.TopLevel[0])
	require.Len(t, item.Attrs, 1)
	attrNode := item.Attrs[0].Node.ID
	assert.True(t, it.SkipAttrs[attrNode])

	// The function itself still resolved normally, as if the attribute
	// were absent.
	e, ok := c.DefMap.ModuleAt(c.DefMap.Root).Scope.Get(NSValues, item.Name)
	require.True(t, ok)
	assert.Equal(t, DefFunction, e.Def.Kind)
}

func TestOrdinaryLangAttributesNeverReportUnresolvedProcMacro(t *testing.T) {
	_, c := collectSrc(t, `
#[allow(dead_code)]
#[inline]
#[must_use]
pub fn h() -> i32 { 1 }

#[test]
fn t() {}
`)

	assert.Equal(t, 0, c.DefMap.Diagnostics.Len())
	assert.Empty(t, c.pendingAttrs)
}
