package nameres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
)

func TestScopeNamedAlwaysShadowsGlob(t *testing.T) {
	s := newScope()
	var name intern.ID = 1
	pub := Visibility{Kind: VisPublic}
	priv := Visibility{Kind: VisPrivate}

	changed := s.insert(NSTypes, name, scopeEntry{Def: DefID{Kind: DefStruct, Idx: 1}, Vis: priv, Origin: originGlob})
	require.True(t, changed)

	changed = s.insert(NSTypes, name, scopeEntry{Def: DefID{Kind: DefStruct, Idx: 2}, Vis: pub, Origin: originNamed})
	require.True(t, changed)

	e, ok := s.Get(NSTypes, name)
	require.True(t, ok)
	assert.Equal(t, uint32(2), e.Def.Idx)

	// A later glob must not override the named entry.
	changed = s.insert(NSTypes, name, scopeEntry{Def: DefID{Kind: DefStruct, Idx: 3}, Vis: pub, Origin: originGlob})
	assert.False(t, changed)
	e, _ = s.Get(NSTypes, name)
	assert.Equal(t, uint32(2), e.Def.Idx)
}

func TestScopeGlobWidensButDoesNotNarrow(t *testing.T) {
	s := newScope()
	var name intern.ID = 7

	s.insert(NSValues, name, scopeEntry{Def: DefID{Idx: 1}, Vis: Visibility{Kind: VisIn}, Origin: originGlob})
	changed := s.insert(NSValues, name, scopeEntry{Def: DefID{Idx: 2}, Vis: Visibility{Kind: VisPublic}, Origin: originGlob})
	assert.True(t, changed)

	changed = s.insert(NSValues, name, scopeEntry{Def: DefID{Idx: 3}, Vis: Visibility{Kind: VisPrivate}, Origin: originGlob})
	assert.False(t, changed)
	e, _ := s.Get(NSValues, name)
	assert.Equal(t, uint32(2), e.Def.Idx)
}

func TestResolvePlainWalksAncestorChain(t *testing.T) {
	dm := NewDefMap(0)
	child := dm.NewChildModule(dm.Root, 100)

	fnName := intern.ID(5)
	structDef := DefID{Kind: DefStruct, Idx: 9}
	dm.ModuleAt(dm.Root).Scope.insert(NSTypes, fnName, scopeEntry{Def: structDef, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})

	r := &Resolver{DefMap: dm}
	res, reached := r.ResolvePath(child, Path{Kind: PathPlain, Segments: []intern.ID{fnName}}, NSTypes, ShadowModule)
	require.Equal(t, ReachedYes, reached)
	require.NotNil(t, res.Types)
	assert.Equal(t, structDef, *res.Types)
}

func TestResolveSuperAndCrateRelative(t *testing.T) {
	dm := NewDefMap(0)
	modName := intern.ID(10)
	child := dm.NewChildModule(dm.Root, modName)

	target := DefID{Kind: DefFunction, Idx: 1}
	dm.ModuleAt(dm.Root).Scope.insert(NSValues, intern.ID(20), scopeEntry{Def: target, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})

	r := &Resolver{DefMap: dm}
	res, reached := r.ResolvePath(child, Path{Kind: PathSuper, SuperCount: 1, Segments: []intern.ID{20}}, NSValues, ShadowModule)
	require.Equal(t, ReachedYes, reached)
	require.NotNil(t, res.Values)
	assert.Equal(t, target, *res.Values)

	res, reached = r.ResolvePath(child, Path{Kind: PathCrateRelative, Segments: []intern.ID{20}}, NSValues, ShadowModule)
	require.Equal(t, ReachedYes, reached)
	require.NotNil(t, res.Values)
	assert.Equal(t, target, *res.Values)
}

func TestResolveEnumVariantDescent(t *testing.T) {
	dm := NewDefMap(0)
	enumName := intern.ID(30)
	enumDef := DefID{Kind: DefEnum, Idx: 0}
	variantDef := DefID{Kind: DefEnumVariant, Idx: 0}
	dm.ModuleAt(dm.Root).Scope.insert(NSTypes, enumName, scopeEntry{Def: enumDef, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})

	r := &Resolver{DefMap: dm, Variants: VariantTable{enumDef: {intern.ID(31): variantDef}}}
	res, reached := r.ResolvePath(dm.Root, Path{Kind: PathPlain, Segments: []intern.ID{enumName, intern.ID(31)}}, NSValues, ShadowModule)
	require.Equal(t, ReachedYes, reached)
	require.NotNil(t, res.Values)
	assert.Equal(t, variantDef, *res.Values)
}

func TestCrossCrateExternPreludeResolution(t *testing.T) {
	depGraph := input.NewCrateGraph()
	depID := depGraph.AddCrate(input.Crate{DisplayName: "dep"})
	mainID := depGraph.AddCrate(input.Crate{DisplayName: "main", Dependencies: []input.Dependency{{Target: depID, Alias: "dep"}}})

	depDM := NewDefMap(input.CrateID(depID))
	exported := DefID{Kind: DefFunction, Idx: 0}
	depDM.ModuleAt(depDM.Root).Scope.insert(NSValues, intern.ID(40), scopeEntry{Def: exported, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})

	in := intern.New()
	depAlias := in.Intern("dep")
	_ = depAlias
	provider := func(crateID uint32) *DefMap {
		if input.CrateID(crateID) == input.CrateID(depID) {
			return depDM
		}
		return nil
	}

	c := NewCollector(input.CrateID(mainID), depGraph, provider, in)
	r := &Resolver{DefMap: c.DefMap, Provider: provider}
	res, reached := r.ResolvePath(c.DefMap.Root, Path{Kind: PathPlain, Segments: []intern.ID{in.Intern("dep"), intern.ID(40)}}, NSValues, ShadowModule)
	require.Equal(t, ReachedYes, reached)
	require.NotNil(t, res.Values)
	assert.Equal(t, exported, *res.Values)
}

func TestCollectorResolvesUseDeclarationAcrossModules(t *testing.T) {
	in := intern.New()
	dm := NewDefMap(0)

	aName := in.Intern("a")
	bName := in.Intern("b")
	thingName := in.Intern("Thing")

	modA := dm.NewChildModule(dm.Root, aName)
	modB := dm.NewChildModule(dm.Root, bName)

	thingDef := DefID{Kind: DefStruct, Idx: 0}
	dm.ModuleAt(modA).Scope.insert(NSTypes, thingName, scopeEntry{Def: thingDef, Vis: Visibility{Kind: VisPublic}, Origin: originNamed})

	c := &Collector{
		DefMap:   dm,
		Interner: in,
		variants: make(VariantTable),
		nextDef:  make(map[ItemKind]uint32),
	}
	c.pendingImports = append(c.pendingImports, &pendingImport{
		module: modB,
		path:   Path{Kind: PathCrateRelative, Segments: []intern.ID{aName, thingName}},
		vis:    Visibility{Kind: VisPrivate},
	})

	c.Run()

	assert.Equal(t, 0, dm.Diagnostics.Len())
	e, ok := dm.ModuleAt(modB).Scope.Get(NSTypes, thingName)
	require.True(t, ok)
	assert.Equal(t, thingDef, e.Def)
}

func TestCollectorReportsUnresolvedImport(t *testing.T) {
	in := intern.New()
	dm := NewDefMap(0)

	c := &Collector{
		DefMap:   dm,
		Interner: in,
		variants: make(VariantTable),
		nextDef:  make(map[ItemKind]uint32),
	}
	c.pendingImports = append(c.pendingImports, &pendingImport{
		module: dm.Root,
		path:   Path{Kind: PathPlain, Segments: []intern.ID{in.Intern("nonexistent")}},
		vis:    Visibility{Kind: VisPrivate},
	})

	c.Run()

	require.Equal(t, 1, dm.Diagnostics.Len())
	assert.Equal(t, "NAM010", dm.Diagnostics.All()[0].Code)
}
