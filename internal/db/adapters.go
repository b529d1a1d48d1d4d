package db

import (
	"github.com/sunholo/semcore/internal/hirtypes"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/itemtree"
	"github.com/sunholo/semcore/internal/nameres"
	"github.com/sunholo/semcore/internal/synsrc"
)

// adtFields implements hirtypes.AdtFields over the item tree: it
// answers "does this struct/union have a field named X" from real
// declarations (an enum variant's path is not looked up: Fields
// reports ok=false for it), but since item-tree lowering doesn't lower
// field type annotations to hirtypes.TyID (no syntactic-type lowering
// pass exists in this codebase yet), every field's reported type is a
// fresh inference variable rather than the one actually written in
// source. That keeps field-name checking (TYP007) and struct-literal
// completeness checking (TYP002) genuine while being honest that field
// *type* checking through a field access is not yet load-bearing.
type adtFields struct {
	db *Database
	it *hirtypes.InferenceTable
}

func (a *adtFields) Fields(adtPath []intern.ID) ([]hirtypes.FieldInfo, bool) {
	item, ok := a.db.itemByPath(adtPath)
	if !ok {
		return nil, false
	}
	var fields []itemtree.Field
	switch item.Kind {
	case itemtree.KindStruct, itemtree.KindUnion:
		fields = item.Fields
	default:
		return nil, false
	}
	out := make([]hirtypes.FieldInfo, len(fields))
	for i, f := range fields {
		out[i] = hirtypes.FieldInfo{Name: f.Name, Type: a.it.NewVar(hirtypes.OriginGeneral)}
	}
	return out, true
}

func (a *adtFields) TypeParams(adtPath []intern.ID) []intern.ID {
	item, ok := a.db.itemByPath(adtPath)
	if !ok {
		return nil
	}
	return item.Generics
}

// itemByPath finds the item-tree Item whose name matches the last
// segment of path, by scanning every item tree this Database has built
// so far. Full multi-segment path resolution (modules, re-exports)
// belongs to nameres; this is the coarse fallback type inference's
// adapters use when they only have a bare type name to go on.
func (db *Database) itemByPath(path []intern.ID) (itemtree.Item, bool) {
	if len(path) == 0 {
		return itemtree.Item{}, false
	}
	name := path[len(path)-1]
	db.mu.RLock()
	crates := make([]input.CrateID, 0, len(db.collectors))
	for c := range db.collectors {
		crates = append(crates, c)
	}
	db.mu.RUnlock()

	var found itemtree.Item
	var ok bool
	for _, crate := range crates {
		c := db.collectorFor(crate)
		if c == nil {
			continue
		}
		for def, src := range c.DefSource {
			if def.Kind != nameres.DefStruct && def.Kind != nameres.DefUnion && def.Kind != nameres.DefEnum {
				continue
			}
			tree := db.ItemTreeOf(src.File)
			if tree == nil {
				continue
			}
			tree.Items.Iter(func(_ itemtree.ID, item itemtree.Item) {
				if !ok && item.Node.ID == src.Node.ID && item.Name == name {
					found, ok = item, true
				}
			})
		}
	}
	return found, ok
}

// methodTable implements hirtypes.Methods by re-reading impl blocks'
// syntax directly: the item tree doesn't lower an impl's target type or
// trait path to structured fields, so this adapter recovers "impl TypeName { fn method
// (..) }" and "impl Trait for TypeName { .. }" shapes from the
// tree-sitter node text around each impl_item, grounded on the same
// child-node-kind walk internal/itemtree/lower.go uses for visibility
// and use-tree extraction.
type methodTable struct {
	db *Database
	it *hirtypes.InferenceTable
}

func (m *methodTable) Lookup(selfPath []intern.ID, name intern.ID) []hirtypes.MethodCandidate {
	if len(selfPath) == 0 {
		return nil
	}
	selfName := m.db.Interner.Lookup(selfPath[len(selfPath)-1])
	methodName := m.db.Interner.Lookup(name)

	db := m.db
	db.mu.RLock()
	crates := make([]input.CrateID, 0, len(db.collectors))
	for c := range db.collectors {
		crates = append(crates, c)
	}
	db.mu.RUnlock()

	var out []hirtypes.MethodCandidate
	seen := make(map[input.FileID]bool)
	for _, crate := range crates {
		c := db.collectorFor(crate)
		if c == nil {
			continue
		}
		for def, src := range c.DefSource {
			if def.Kind != nameres.DefImpl || seen[src.File] {
				continue
			}
			seen[src.File] = true
			out = append(out, m.scanFileImpls(src.File, selfName, methodName)...)
		}
	}
	return out
}

func (m *methodTable) scanFileImpls(file input.FileID, selfName, methodName string) []hirtypes.MethodCandidate {
	tree, err := m.db.Tree(file)
	if err != nil {
		return nil
	}
	var out []hirtypes.MethodCandidate
	for _, implIdx := range tree.ByKind("impl_item") {
		if implTargetName(tree, implIdx) != selfName {
			continue
		}
		for _, fnIdx := range implFunctions(tree, implIdx) {
			if functionName(tree, fnIdx) != methodName {
				continue
			}
			out = append(out, hirtypes.MethodCandidate{
				Path:   []intern.ID{m.db.Interner.Intern(selfName), m.db.Interner.Intern(methodName)},
				Params: freshParamVars(m.it, parameterCount(tree, fnIdx)),
				Ret:    m.it.NewVar(hirtypes.OriginGeneral),
			})
		}
	}
	return out
}

func freshParamVars(it *hirtypes.InferenceTable, n int) []hirtypes.TyID {
	out := make([]hirtypes.TyID, n)
	for i := range out {
		out[i] = it.NewVar(hirtypes.OriginGeneral)
	}
	return out
}

// implTargetName extracts the bare type name an impl_item targets,
// handling both "impl Type { }" and "impl Trait for Type { }" by taking
// the last type_identifier child before the impl's body block.
func implTargetName(tree *synsrc.Tree, implIdx int) string {
	var lastType string
	for _, c := range tree.Children(implIdx) {
		switch tree.Nodes[c].Kind {
		case "type_identifier":
			lastType = tree.NodeText(c)
		case "declaration_list":
			return lastType
		}
	}
	return lastType
}

func implFunctions(tree *synsrc.Tree, implIdx int) []int {
	var out []int
	for _, c := range tree.Children(implIdx) {
		if tree.Nodes[c].Kind != "declaration_list" {
			continue
		}
		for _, fn := range tree.Children(c) {
			if tree.Nodes[fn].Kind == "function_item" {
				out = append(out, fn)
			}
		}
	}
	return out
}

func functionName(tree *synsrc.Tree, fnIdx int) string {
	for _, c := range tree.Children(fnIdx) {
		if tree.Nodes[c].Kind == "identifier" {
			return tree.NodeText(c)
		}
	}
	return ""
}

func parameterCount(tree *synsrc.Tree, fnIdx int) int {
	for _, c := range tree.Children(fnIdx) {
		if tree.Nodes[c].Kind != "parameters" {
			continue
		}
		n := 0
		for _, p := range tree.Children(c) {
			if tree.Nodes[p].Kind == "parameter" {
				n++
			}
		}
		return n
	}
	return 0
}

// traitSolver implements hirtypes.Solver by checking whether any
// "impl Trait for Type" block exists for the requested (self, trait)
// pair, the minimal coherence-free check obligation resolution needs —
// a full trait solver stays an external collaborator this package only
// consults through a narrow interface.
type traitSolver struct {
	db  *Database
	tys *hirtypes.Table
}

func (s *traitSolver) Implements(it *hirtypes.InferenceTable, self hirtypes.TyID, traitPath []intern.ID, _ []hirtypes.TyID) (*hirtypes.ImplSource, bool) {
	if len(traitPath) == 0 || s.tys == nil {
		return nil, false
	}
	ty := s.tys.Get(it.Resolve(self))
	if ty.Kind != hirtypes.KindAdt || len(ty.DefPath) == 0 {
		return nil, false
	}
	selfName := s.db.Interner.Lookup(ty.DefPath[len(ty.DefPath)-1])
	traitName := s.db.Interner.Lookup(traitPath[len(traitPath)-1])

	db := s.db
	db.mu.RLock()
	crates := make([]input.CrateID, 0, len(db.collectors))
	for c := range db.collectors {
		crates = append(crates, c)
	}
	db.mu.RUnlock()

	seen := make(map[input.FileID]bool)
	for _, crate := range crates {
		c := db.collectorFor(crate)
		if c == nil {
			continue
		}
		for def, src := range c.DefSource {
			if def.Kind != nameres.DefImpl || seen[src.File] {
				continue
			}
			seen[src.File] = true
			if implSatisfies(db, src.File, selfName, traitName) {
				return &hirtypes.ImplSource{ImplPath: []intern.ID{ty.DefPath[len(ty.DefPath)-1]}}, true
			}
		}
	}
	return nil, false
}

// implSatisfies reports whether file declares an "impl Trait for Type"
// block matching selfName/traitName — a plain-text child-node scan
// parallel to implTargetName, since the item tree doesn't retain an
// impl's trait reference as a structured field.
func implSatisfies(db *Database, file input.FileID, selfName, traitName string) bool {
	tree, err := db.Tree(file)
	if err != nil {
		return false
	}
	for _, implIdx := range tree.ByKind("impl_item") {
		var types []string
		for _, c := range tree.Children(implIdx) {
			if tree.Nodes[c].Kind == "type_identifier" {
				types = append(types, tree.NodeText(c))
			}
		}
		if len(types) == 2 && types[0] == traitName && types[1] == selfName {
			return true
		}
	}
	return false
}

func (s *traitSolver) Normalize(it *hirtypes.InferenceTable, proj hirtypes.TyID) hirtypes.TyID {
	return proj
}
