package nameres

import (
	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/itemtree"
	"github.com/sunholo/semcore/internal/macroexpand"
	"github.com/sunholo/semcore/internal/synsrc"
)

// maxFixedPointIterations bounds the resolve_imports/resolve_macros
// interleaving. Past this, whatever
// remains unresolved is reported as NAM010 rather than looping forever
// on a genuinely-stuck import.
const maxFixedPointIterations = 256

// pendingImport is a `use` item not yet (fully) resolved.
type pendingImport struct {
	module ModuleID
	path   Path
	vis    Visibility
	rename intern.ID
	isGlob bool
	node   itemtree.ID
}

// pendingMacroCall is a macro_invocation item whose callee isn't
// resolved yet; expansion itself belongs to internal/macroexpand,
// which consumes DefMap.ResolvedMacroCalls once the collector is done.
type pendingMacroCall struct {
	module ModuleID
	path   Path
	node   itemtree.ID
}

// pendingDerive is one path listed in a `#[derive(...)]` attribute, not
// yet resolved against the macro namespace. Built-in derives (Debug,
// Clone, ...) resolve without ever needing a DefID; anything else is
// looked up like any other macro path.
type pendingDerive struct {
	module ModuleID
	path   Path
	item   itemtree.ID
	attr   synsrc.NodeID
}

// pendingAttribute is a non-derive, non-cfg attribute attached to an
// item: a candidate attribute-macro call, unless it turns out to name
// a helper attribute one of the item's own derives declares, in which
// case the fixed point consumes it without ever treating it as a
// macro call (helper attributes must always win over an independent
// macro-call attempt).
type pendingAttribute struct {
	module ModuleID
	path   Path
	name   intern.ID
	item   itemtree.ID
	attr   synsrc.NodeID
	tree   *itemtree.ItemTree
}

// attrOutcome is the result of one resolution attempt against a
// pendingAttribute.
type attrOutcome int

const (
	attrPending attrOutcome = iota
	attrConsumedHelper
	attrConsumedLang
	attrResolvedMacro
)

// deriveOutcome is the result of one resolution attempt against a
// pendingDerive.
type deriveOutcome int

const (
	deriveUnresolved deriveOutcome = iota
	deriveBuiltin
	deriveCustom
)

// Collector runs the fixed-point def-map construction for one crate.
type Collector struct {
	DefMap   *DefMap
	Graph    *input.CrateGraph
	Provider DefMapProvider
	Interner *intern.Interner

	variants VariantTable
	nextDef  map[ItemKind]uint32

	// ModuleDefs maps the DefModule DefID allocated for a `mod` item to
	// the ModuleID the collector created for it, so a caller holding only
	// a DefID (as semantic.Def does) can still reach the module's Scope.
	ModuleDefs map[DefID]ModuleID

	// Fields maps a struct/union/enum-variant DefID to the ordered
	// DefField DefIDs declared inside it, the globally-unique counterpart
	// to itemtree.Item's local Fields slice (which only indexes within
	// one item). semantic.Def.Children() walks this for container kinds.
	Fields map[DefID][]DefID

	pendingImports []*pendingImport
	pendingGlobs   []*pendingImport
	pendingMacros  []*pendingMacroCall
	pendingDerives []*pendingDerive
	pendingAttrs   []*pendingAttribute

	// ResolvedMacroCalls maps each macro_invocation item to the macro
	// definition it resolved against, for macro expansion to pick up.
	ResolvedMacroCalls map[itemtree.ID]DefID

	// ResolvedDerives maps a derive path's attribute syntax node to the
	// macro definition it resolved against. Built-in derives resolve
	// without a DefID and are never recorded here.
	ResolvedDerives map[synsrc.NodeID]DefID

	// ResolvedAttrs maps an attribute-macro attribute's syntax node to
	// the macro definition it resolved against, for expansion to pick
	// up — the Attribute counterpart to ResolvedMacroCalls.
	ResolvedAttrs map[synsrc.NodeID]DefID

	// deriveHelpers accumulates, per item, the helper attribute names
	// declared by that item's already-resolved derives. Consulted
	// before a same-item attribute is ever attempted as a macro call.
	deriveHelpers map[itemtree.ID]map[intern.ID]bool

	// DefSource records, for every DefID this collector allocates, the
	// file and syntax node its declaration came from — the raw material
	// internal/db's semantic.Database.SourceOf is built from.
	DefSource map[DefID]DefSource
}

// DefSource is where one DefID was declared.
type DefSource struct {
	File input.FileID
	Node synsrc.NodePtr
}

// NewCollector seeds the extern prelude from crate's declared
// dependencies and returns a ready-to-run
// Collector with an empty root module.
func NewCollector(crate input.CrateID, graph *input.CrateGraph, provider DefMapProvider, interner *intern.Interner) *Collector {
	dm := NewDefMap(crate)
	c := &Collector{
		DefMap:             dm,
		Graph:              graph,
		Provider:           provider,
		Interner:           interner,
		variants:           make(VariantTable),
		nextDef:            make(map[ItemKind]uint32),
		ResolvedMacroCalls: make(map[itemtree.ID]DefID),
		ResolvedDerives:    make(map[synsrc.NodeID]DefID),
		ResolvedAttrs:      make(map[synsrc.NodeID]DefID),
		deriveHelpers:      make(map[itemtree.ID]map[intern.ID]bool),
		DefSource:          make(map[DefID]DefSource),
		ModuleDefs:         make(map[DefID]ModuleID),
		Fields:             make(map[DefID][]DefID),
	}
	if graph != nil {
		self := graph.Crate(crate)
		for _, dep := range self.Dependencies {
			name := dep.Alias
			if depCrate := graph.Crate(dep.Target); name == "" {
				name = depCrate.DisplayName
			}
			if provider == nil {
				continue
			}
			depMap := provider(uint32(dep.Target))
			if depMap == nil {
				continue
			}
			dm.ExternPrelude[interner.Intern(name)] = depMap.Root
		}
	}
	return c
}

func (c *Collector) allocDef(kind ItemKind) DefID {
	idx := c.nextDef[kind]
	c.nextDef[kind] = idx + 1
	return DefID{Kind: kind, Idx: idx}
}

// recordSource notes where def was declared, for semantic.Database.SourceOf.
func (c *Collector) recordSource(def DefID, file input.FileID, node synsrc.NodePtr) {
	c.DefSource[def] = DefSource{File: file, Node: node}
}

// collectFields allocates a DefField for every field of a struct/union/
// enum-variant container, in declaration order.
func (c *Collector) collectFields(container DefID, file input.FileID, fields []itemtree.Field) {
	for _, f := range fields {
		fdef := c.allocDef(DefField)
		c.recordSource(fdef, file, f.Node)
		c.Fields[container] = append(c.Fields[container], fdef)
	}
}

// CollectFile walks one file's already-lowered item tree into module,
// starting at dest (the crate root for the crate's main file, or a
// submodule for a `mod foo;` file-level declaration).
func (c *Collector) CollectFile(dest ModuleID, tree *itemtree.ItemTree) {
	c.collectItems(dest, tree, tree.TopLevel)
}

func (c *Collector) collectItems(mod ModuleID, tree *itemtree.ItemTree, ids []itemtree.ID) {
	m := c.DefMap.ModuleAt(mod)
	for _, id := range ids {
		item := tree.Get(id)
		vis := translateVisibility(item.Vis)
		c.collectAttrs(mod, tree, id, item.Attrs)

		switch item.Kind {
		case itemtree.KindFunction:
			def := c.allocDef(DefFunction)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSValues, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})
			c.collectItems(mod, tree, item.InnerItems)

		case itemtree.KindConst, itemtree.KindStatic:
			kind := DefConst
			if item.Kind == itemtree.KindStatic {
				kind = DefStatic
			}
			def := c.allocDef(kind)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSValues, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})

		case itemtree.KindStruct:
			def := c.allocDef(DefStruct)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSTypes, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})
			c.collectFields(def, tree.File, item.Fields)

		case itemtree.KindUnion:
			def := c.allocDef(DefUnion)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSTypes, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})
			c.collectFields(def, tree.File, item.Fields)

		case itemtree.KindEnum:
			def := c.allocDef(DefEnum)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSTypes, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})
			variants := make(map[intern.ID]DefID, len(item.Variants))
			for _, v := range item.Variants {
				vdef := c.allocDef(DefEnumVariant)
				c.recordSource(vdef, tree.File, v.Node)
				variants[v.Name] = vdef
				c.collectFields(vdef, tree.File, v.Fields)
			}
			c.variants[def] = variants

		case itemtree.KindTrait:
			def := c.allocDef(DefTrait)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSTypes, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})

		case itemtree.KindTypeAlias:
			def := c.allocDef(DefTypeAlias)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSTypes, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})

		case itemtree.KindImpl:
			// Impls don't occupy a namespace slot; they contribute
			// associated items to their target type, which method
			// resolution consults directly rather than through a Scope.
			def := c.allocDef(DefImpl)
			c.recordSource(def, tree.File, item.Node)

		case itemtree.KindMacroDef:
			def := c.allocDef(DefMacroDef)
			c.recordSource(def, tree.File, item.Node)
			m.Scope.insert(NSMacros, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})
			m.LegacyMacros.insert(NSMacros, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})

		case itemtree.KindExternCrate:
			pi := &pendingImport{module: mod, node: id, vis: vis}
			pi.path = Path{Kind: PathPlain, Segments: []intern.ID{item.Name}}
			c.pendingImports = append(c.pendingImports, pi)

		case itemtree.KindModule:
			def := c.allocDef(DefModule)
			c.recordSource(def, tree.File, item.Node)
			child := c.DefMap.NewChildModule(mod, item.Name)
			c.ModuleDefs[def] = child
			m.Scope.insert(NSTypes, item.Name, scopeEntry{Def: def, Vis: vis, Origin: originNamed})
			c.collectItems(child, tree, item.InnerItems)

		case itemtree.KindUse:
			if item.Use == nil {
				continue
			}
			pi := &pendingImport{
				module: mod,
				path:   Path{Kind: classifyUsePath(c.Interner, item.Use.Segments), Segments: item.Use.Segments},
				vis:    vis,
				rename: item.Use.Rename,
				isGlob: item.Use.IsGlob,
				node:   id,
			}
			if pi.isGlob {
				c.pendingGlobs = append(c.pendingGlobs, pi)
			} else {
				c.pendingImports = append(c.pendingImports, pi)
			}

		case itemtree.KindMacroCall:
			c.pendingMacros = append(c.pendingMacros, &pendingMacroCall{
				module: mod,
				path:   Path{Kind: PathPlain, Segments: []intern.ID{item.Name}},
				node:   id,
			})
		}
	}
}

// collectAttrs turns id's non-cfg attributes into pending derive and
// attribute directives for the resolve_macros step of the fixed point.
func (c *Collector) collectAttrs(mod ModuleID, tree *itemtree.ItemTree, id itemtree.ID, attrs []itemtree.Attr) {
	for _, a := range attrs {
		switch a.Kind {
		case itemtree.AttrDerive:
			for _, path := range a.DerivePaths {
				c.pendingDerives = append(c.pendingDerives, &pendingDerive{
					module: mod,
					path:   Path{Kind: PathPlain, Segments: path},
					item:   id,
					attr:   a.Node.ID,
				})
			}
		case itemtree.AttrPlain:
			var name intern.ID
			if len(a.Path) > 0 {
				name = a.Path[len(a.Path)-1]
			}
			c.pendingAttrs = append(c.pendingAttrs, &pendingAttribute{
				module: mod,
				path:   Path{Kind: PathPlain, Segments: a.Path},
				name:   name,
				item:   id,
				attr:   a.Node.ID,
				tree:   tree,
			})
		}
	}
}

// classifyUsePath re-derives a Path's base kind from its first segment
// text, since itemtree lowers `use` paths as plain segment lists
// (self/super/crate are just the first segment's interned spelling).
func classifyUsePath(in *intern.Interner, segs []intern.ID) PathKind {
	if len(segs) == 0 {
		return PathPlain
	}
	switch in.Lookup(segs[0]) {
	case "crate":
		return PathCrateRelative
	case "self":
		return PathSelf
	case "super":
		n := 0
		for _, s := range segs {
			if in.Lookup(s) == "super" {
				n++
			}
		}
		return PathSuper
	default:
		return PathPlain
	}
}

func translateVisibility(v itemtree.Visibility) Visibility {
	switch v.Kind {
	case itemtree.VisPublic:
		return Visibility{Kind: VisPublic}
	case itemtree.VisCrate:
		return Visibility{Kind: VisCrate}
	case itemtree.VisIn:
		return Visibility{Kind: VisIn}
	default:
		return Visibility{Kind: VisPrivate}
	}
}

// Run drives the resolve_imports/resolve_macros fixed point to
// completion, interleaving named-import
// resolution, glob-import propagation, and macro-call resolution until
// one full pass makes no further progress.
func (c *Collector) Run() {
	resolver := &Resolver{DefMap: c.DefMap, Provider: c.Provider, Variants: c.variants}

	var failedImports []*pendingImport

	for iter := 0; iter < maxFixedPointIterations; iter++ {
		changed := false

		remaining := c.pendingImports[:0]
		for _, pi := range c.pendingImports {
			resolved, giveUp := c.tryResolveImport(resolver, pi)
			switch {
			case resolved:
				changed = true
			case giveUp:
				failedImports = append(failedImports, pi)
			default:
				remaining = append(remaining, pi)
			}
		}
		c.pendingImports = remaining

		remainingGlobs := c.pendingGlobs[:0]
		for _, pi := range c.pendingGlobs {
			if c.tryResolveGlob(resolver, pi) {
				changed = true
			}
			remainingGlobs = append(remainingGlobs, pi)
		}
		c.pendingGlobs = remainingGlobs

		remainingMacros := c.pendingMacros[:0]
		for _, pm := range c.pendingMacros {
			if def, ok := c.tryResolveMacroCall(resolver, pm); ok {
				c.ResolvedMacroCalls[pm.node] = def
				changed = true
				continue
			}
			remainingMacros = append(remainingMacros, pm)
		}
		c.pendingMacros = remainingMacros

		// Derives resolve (or recognize a built-in) before this same
		// pass's attribute attempt below, so derive_helpers_in_scope is
		// complete before any attribute sharing the item is attempted
		// as a macro call.
		remainingDerives := c.pendingDerives[:0]
		for _, pd := range c.pendingDerives {
			switch outcome, def := c.tryResolveDerive(resolver, pd); outcome {
			case deriveBuiltin:
				c.noteDeriveHelpers(pd.item, pd.path.Segments)
				changed = true
			case deriveCustom:
				c.ResolvedDerives[pd.attr] = def
				c.noteDeriveHelpers(pd.item, pd.path.Segments)
				changed = true
			default:
				remainingDerives = append(remainingDerives, pd)
			}
		}
		c.pendingDerives = remainingDerives

		remainingAttrs := c.pendingAttrs[:0]
		for _, pa := range c.pendingAttrs {
			switch c.tryResolveAttr(resolver, pa) {
			case attrConsumedHelper, attrConsumedLang, attrResolvedMacro:
				changed = true
			default:
				remainingAttrs = append(remainingAttrs, pa)
			}
		}
		c.pendingAttrs = remainingAttrs

		if !changed {
			if len(c.pendingAttrs) == 0 {
				break
			}
			// Stall recovery: the pass made no progress and at least
			// one attribute is still unresolved. Pick one,
			// skip it on subsequent passes (its item resolves as if
			// the attribute were absent), and resume the fixed point
			// for whatever else is left.
			pa := c.pendingAttrs[0]
			c.pendingAttrs = c.pendingAttrs[1:]
			pa.tree.SkipAttrs[pa.attr] = true
			c.DefMap.Diagnostics.Add(diag.New(diag.NAM005, "nameres", "unresolved proc macro: "+c.Interner.Lookup(pa.name), nil))
			continue
		}
	}

	for range failedImports {
		c.DefMap.Diagnostics.Add(diag.New(diag.NAM001, "nameres", "unresolved import", nil))
	}
	for _, pi := range c.pendingImports {
		_ = pi
		c.DefMap.Diagnostics.Add(diag.New(diag.NAM010, "nameres", "import still pending at fixpoint limit", nil))
	}
	for range c.pendingMacros {
		c.DefMap.Diagnostics.Add(diag.New(diag.NAM004, "nameres", "unresolved macro call", nil))
	}
	for range c.pendingDerives {
		c.DefMap.Diagnostics.Add(diag.New(diag.NAM004, "nameres", "unresolved derive macro", nil))
	}
	for _, pa := range c.pendingAttrs {
		c.DefMap.Diagnostics.Add(diag.New(diag.NAM005, "nameres", "unresolved proc macro: "+c.Interner.Lookup(pa.name), nil))
	}
}

// tryResolveDerive recognizes a built-in derive by name without ever
// consulting the macro namespace (as rustc does: `derive(Debug)` needs
// no `use Debug` in scope), falling back to an ordinary macro-path
// lookup for anything else so a proc-macro-backed custom derive still
// resolves.
func (c *Collector) tryResolveDerive(r *Resolver, pd *pendingDerive) (deriveOutcome, DefID) {
	if len(pd.path.Segments) == 1 {
		if macroexpand.IsKnownBuiltinDerive(c.Interner.Lookup(pd.path.Segments[0])) {
			return deriveBuiltin, DefID{}
		}
	}
	res, _ := r.ResolvePath(pd.module, pd.path, NSMacros, ShadowOther)
	if res.Macros == nil {
		return deriveUnresolved, DefID{}
	}
	return deriveCustom, *res.Macros
}

// noteDeriveHelpers records the helper attribute names a resolved
// derive declares, so collectAttrs' pending attributes on the same
// item recognize them ahead of ever being attempted as a macro call.
func (c *Collector) noteDeriveHelpers(item itemtree.ID, path []intern.ID) {
	if len(path) == 0 {
		return
	}
	helpers := macroexpand.BuiltinDeriveHelpers(c.Interner.Lookup(path[len(path)-1]))
	if len(helpers) == 0 {
		return
	}
	set := c.deriveHelpers[item]
	if set == nil {
		set = make(map[intern.ID]bool)
		c.deriveHelpers[item] = set
	}
	for _, h := range helpers {
		set[c.Interner.Intern(h)] = true
	}
}

// tryResolveAttr resolves one pending attribute: a name already
// declared as a helper by one of the item's derives is consumed
// without ever becoming a macro call; otherwise it is resolved like
// any other macro path, and left pending (for a later pass, or
// eventual stall recovery) if that fails.
func (c *Collector) tryResolveAttr(r *Resolver, pa *pendingAttribute) attrOutcome {
	if helpers := c.deriveHelpers[pa.item]; helpers != nil && helpers[pa.name] {
		return attrConsumedHelper
	}
	if macroexpand.IsKnownLangAttr(c.Interner.Lookup(pa.name)) {
		return attrConsumedLang
	}
	res, _ := r.ResolvePath(pa.module, pa.path, NSMacros, ShadowOther)
	if res.Macros == nil {
		return attrPending
	}
	c.ResolvedAttrs[pa.attr] = *res.Macros
	return attrResolvedMacro
}

// tryResolveImport reports (resolved, giveUp): resolved means the
// import was applied to the scope this round; giveUp means it can
// never resolve (ran off the module tree) and should be reported
// rather than retried on a later pass.
func (c *Collector) tryResolveImport(r *Resolver, pi *pendingImport) (resolved, giveUp bool) {
	res, reached := r.ResolvePath(pi.module, pi.path, NSTypes, ShadowModule)
	if !res.anyResolved() {
		return false, reached == ReachedYes
	}

	name := pi.rename
	if name == 0 && len(pi.path.Segments) > 0 {
		name = pi.path.Segments[len(pi.path.Segments)-1]
	}

	m := c.DefMap.ModuleAt(pi.module)
	if res.Types != nil {
		m.Scope.insert(NSTypes, name, scopeEntry{Def: *res.Types, Vis: pi.vis, Origin: originNamed})
	}
	if res.Values != nil {
		m.Scope.insert(NSValues, name, scopeEntry{Def: *res.Values, Vis: pi.vis, Origin: originNamed})
	}
	if res.Macros != nil {
		m.Scope.insert(NSMacros, name, scopeEntry{Def: *res.Macros, Vis: pi.vis, Origin: originNamed})
	}
	if res.Module != nil {
		m.Children[name] = *res.Module
	}
	return true, false
}

// tryResolveGlob re-propagates a glob import's source scope every
// round: globs never
// "finish" the way named imports do, since the source scope can keep
// growing as long as the overall fixed point hasn't settled, so the
// caller always keeps them in pendingGlobs and only uses the changed
// bool to decide whether another round is warranted.
func (c *Collector) tryResolveGlob(r *Resolver, pi *pendingImport) bool {
	res, _ := r.ResolvePath(pi.module, pi.path, NSTypes, ShadowModule)
	if res.Module == nil {
		return false
	}
	src := c.DefMap.ModuleAt(*res.Module)
	dst := c.DefMap.ModuleAt(pi.module)

	changed := false
	for _, e := range src.Scope.Snapshot(func(v Visibility) bool { return v.Kind != VisPrivate }) {
		if dst.Scope.insert(e.NS, e.Name, scopeEntry{Def: e.Entry.Def, Vis: e.Entry.Vis, Origin: originGlob}) {
			changed = true
		}
	}
	return changed
}

func (c *Collector) tryResolveMacroCall(r *Resolver, pm *pendingMacroCall) (DefID, bool) {
	res, _ := r.ResolvePath(pm.module, pm.path, NSMacros, ShadowOther)
	if res.Macros == nil {
		return DefID{}, false
	}
	return *res.Macros, true
}
