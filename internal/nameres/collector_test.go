package nameres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/intern"
)

func TestGlobImportPropagatesAndKeepsWidening(t *testing.T) {
	in := intern.New()
	dm := NewDefMap(0)

	srcName := in.Intern("src")
	dstName := in.Intern("dst")
	itemName := in.Intern("Widget")

	src := dm.NewChildModule(dm.Root, srcName)
	dst := dm.NewChildModule(dm.Root, dstName)

	def := DefID{Kind: DefStruct, Idx: 1}
	dm.ModuleAt(src).Scope.insert(NSTypes, itemName, scopeEntry{Def: def, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})

	c := &Collector{DefMap: dm, Interner: in, variants: make(VariantTable), nextDef: make(map[ItemKind]uint32)}
	c.pendingGlobs = append(c.pendingGlobs, &pendingImport{
		module: dst,
		path:   Path{Kind: PathCrateRelative, Segments: []intern.ID{srcName}},
		isGlob: true,
	})

	c.Run()

	e, ok := dm.ModuleAt(dst).Scope.Get(NSTypes, itemName)
	require.True(t, ok)
	assert.Equal(t, def, e.Def)

	// Adding a second public item to src and re-running must propagate it too:
	// glob imports never "complete", they keep tracking the source scope.
	secondName := in.Intern("Gadget")
	dm.ModuleAt(src).Scope.insert(NSTypes, secondName, scopeEntry{Def: DefID{Kind: DefStruct, Idx: 2}, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})
	c.pendingGlobs = append(c.pendingGlobs, &pendingImport{
		module: dst,
		path:   Path{Kind: PathCrateRelative, Segments: []intern.ID{srcName}},
		isGlob: true,
	})
	c.Run()

	_, ok = dm.ModuleAt(dst).Scope.Get(NSTypes, secondName)
	assert.True(t, ok)
}

func TestCollectFileBuildsNestedModulesAndEnumVariants(t *testing.T) {
	// Targets CollectFile end-to-end on a lowered
	// `mod inner { enum E { A, B } }`; the body only skips.
	t.Skip("requires a synsrc-parsed fixture; covered indirectly by itemtree+nameres integration in cmd/semcore's check path")
}
