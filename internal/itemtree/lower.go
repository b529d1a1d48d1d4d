package itemtree

import (
	"strings"

	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/synsrc"
)

// kindByGrammar maps tree-sitter Rust grammar node kinds to item-tree
// Kinds. Grammar kinds not present here (expressions, statements inside
// function bodies that aren't themselves items) are simply not item-tree
// nodes; body lowering handles those instead.
var kindByGrammar = map[string]Kind{
	"function_item":       KindFunction,
	"struct_item":         KindStruct,
	"enum_item":           KindEnum,
	"union_item":          KindUnion,
	"trait_item":          KindTrait,
	"type_item":           KindTypeAlias,
	"const_item":          KindConst,
	"static_item":         KindStatic,
	"impl_item":           KindImpl,
	"macro_definition":    KindMacroDef,
	"use_declaration":     KindUse,
	"extern_crate_declaration": KindExternCrate,
	"mod_item":            KindModule,
	"macro_invocation":    KindMacroCall,
}

// Lower builds the item tree for one parsed file, filtering out items
// whose `cfg` attribute evaluates to false under cfg and recording a
// diagnostic for each one.
func Lower(file input.FileID, tree *synsrc.Tree, interner *intern.Interner, cfg input.CfgOptions) (*ItemTree, *diag.Bag) {
	bag := &diag.Bag{}
	it := &ItemTree{
		File:      file,
		Items:     intern.NewArena[Item](),
		SkipAttrs: make(map[synsrc.NodeID]bool),
	}

	// Walk only direct children of the source_file root and of module
	// bodies; nested expression statements are opaque to the item tree.
	rootChildren := tree.Children(rootIndex(tree))
	it.TopLevel = lowerItemList(tree, rootChildren, it, interner, cfg, bag)
	return it, bag
}

func rootIndex(tree *synsrc.Tree) int {
	for i, p := range tree.Parent {
		if p == -1 {
			return i
		}
	}
	return 0
}

func lowerItemList(tree *synsrc.Tree, idxs []int, it *ItemTree, interner *intern.Interner, cfg input.CfgOptions, bag *diag.Bag) []ID {
	var out []ID
	for _, idx := range idxs {
		node := tree.Nodes[idx]
		kind, ok := kindByGrammar[node.Kind]
		if !ok {
			continue
		}

		if !cfgAllows(tree, idx, cfg) {
			bag.Add(diag.New("INP004", "item_tree", "item disabled by cfg", spanOf(tree, node)))
			continue
		}

		item := lowerOne(tree, idx, kind, it, interner, cfg, bag)
		id := it.Items.Alloc(item)
		out = append(out, id)
	}
	return out
}

func lowerOne(tree *synsrc.Tree, idx int, kind Kind, it *ItemTree, interner *intern.Interner, cfg input.CfgOptions, bag *diag.Bag) Item {
	node := tree.Nodes[idx]
	item := Item{Kind: kind, Node: node, Vis: lowerVisibility(tree, idx), Attrs: lowerAttrs(tree, idx, interner)}

	if name := findChildText(tree, idx, "identifier", "type_identifier"); name != "" {
		item.Name = interner.Intern(name)
	}

	switch kind {
	case KindStruct, KindUnion:
		item.Fields = lowerFields(tree, idx, interner)
	case KindEnum:
		item.Variants = lowerVariants(tree, idx, interner)
	case KindUse:
		item.Use = lowerUseTree(tree, idx, interner)
	case KindModule:
		// A `mod foo { ... }` with an inline body carries block-local
		// inner items; a `mod foo;` file-level declaration has none
		// here (nameres resolves the file and merges its item tree).
		var bodyChildren []int
		for _, c := range tree.Children(idx) {
			if tree.Nodes[c].Kind == "declaration_list" {
				bodyChildren = tree.Children(c)
			}
		}
		item.InnerItems = lowerItemList(tree, bodyChildren, it, interner, cfg, bag)
	case KindFunction:
		// Inner items declared inside a function body (block-local
		// modules/fns) are tracked too, per the "inner items inside
		// block expressions" note.
		var bodyChildren []int
		for _, c := range tree.Children(idx) {
			if tree.Nodes[c].Kind == "block" {
				bodyChildren = tree.Children(c)
			}
		}
		item.InnerItems = lowerItemList(tree, bodyChildren, it, interner, cfg, bag)
	}

	return item
}

func lowerVisibility(tree *synsrc.Tree, idx int) Visibility {
	for _, c := range tree.Children(idx) {
		if tree.Nodes[c].Kind != "visibility_modifier" {
			continue
		}
		text := tree.NodeText(c)
		switch {
		case text == "pub":
			return Visibility{Kind: VisPublic}
		case strings.Contains(text, "pub(crate)"):
			return Visibility{Kind: VisCrate}
		case strings.HasPrefix(text, "pub("):
			inner := strings.TrimSuffix(strings.TrimPrefix(text, "pub("), ")")
			return Visibility{Kind: VisIn, At: inner}
		}
	}
	return Visibility{Kind: VisPrivate}
}

func lowerFields(tree *synsrc.Tree, idx int, interner *intern.Interner) []Field {
	var fields []Field
	for _, c := range tree.Children(idx) {
		if tree.Nodes[c].Kind == "field_declaration_list" {
			fields = append(fields, lowerFields(tree, c, interner)...)
			continue
		}
		if tree.Nodes[c].Kind != "field_declaration" {
			continue
		}
		name := findChildText(tree, c, "field_identifier")
		fields = append(fields, Field{
			Name: interner.Intern(name),
			Vis:  lowerVisibility(tree, c),
			Node: tree.Nodes[c],
		})
	}
	return fields
}

func lowerVariants(tree *synsrc.Tree, idx int, interner *intern.Interner) []Variant {
	var variants []Variant
	for _, c := range tree.Children(idx) {
		if tree.Nodes[c].Kind == "enum_variant_list" {
			variants = append(variants, lowerVariants(tree, c, interner)...)
			continue
		}
		if tree.Nodes[c].Kind != "enum_variant" {
			continue
		}
		name := findChildText(tree, c, "identifier")
		variants = append(variants, Variant{
			Name:   interner.Intern(name),
			Fields: lowerFields(tree, c, interner),
			Node:   tree.Nodes[c],
		})
	}
	return variants
}

func lowerUseTree(tree *synsrc.Tree, idx int, interner *intern.Interner) *UseTree {
	ut := &UseTree{}
	text := tree.NodeText(idx)
	if strings.Contains(text, "*") {
		ut.IsGlob = true
	}
	path := strings.TrimPrefix(text, "use ")
	path = strings.TrimSuffix(strings.TrimSpace(path), ";")
	if i := strings.Index(path, " as "); i >= 0 {
		ut.Rename = interner.Intern(strings.TrimSpace(path[i+4:]))
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "::*")
	for _, seg := range strings.Split(path, "::") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "{" || seg == "}" {
			continue
		}
		ut.Segments = append(ut.Segments, interner.Intern(seg))
	}
	return ut
}

func findChildText(tree *synsrc.Tree, idx int, kinds ...string) string {
	for _, c := range tree.Children(idx) {
		for _, k := range kinds {
			if tree.Nodes[c].Kind == k {
				return tree.NodeText(c)
			}
		}
	}
	return ""
}

func spanOf(tree *synsrc.Tree, n synsrc.NodePtr) *diag.Span {
	return &diag.Span{
		File:        tree.File,
		StartOffset: int(n.StartByte),
		EndOffset:   int(n.EndByte),
		StartLine:   int(n.StartPoint.Row) + 1,
		StartCol:    int(n.StartPoint.Column) + 1,
	}
}

// lowerAttrs collects the run of plain attribute_item siblings
// contiguously preceding idx (cfg attributes excluded: cfgAllows
// already consumes those, and a filtered-out item never reaches here
// at all) into the item's Attrs, in source order, splitting derive
// lists into one path per listed derive.
func lowerAttrs(tree *synsrc.Tree, idx int, interner *intern.Interner) []Attr {
	parent := tree.Parent[idx]
	if parent < 0 {
		return nil
	}
	siblings := tree.Children(parent)
	pos := -1
	for i, s := range siblings {
		if s == idx {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	var nodes []int
	for i := pos - 1; i >= 0; i-- {
		if tree.Nodes[siblings[i]].Kind != "attribute_item" {
			break
		}
		nodes = append(nodes, siblings[i])
	}
	for l, r := 0, len(nodes)-1; l < r; l, r = l+1, r-1 {
		nodes[l], nodes[r] = nodes[r], nodes[l]
	}

	var attrs []Attr
	for _, n := range nodes {
		inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(tree.NodeText(n)), "#["), "]")
		name, args := splitAttrNameArgs(inner)
		if name == "cfg" {
			continue
		}
		if name == "derive" {
			attrs = append(attrs, Attr{
				Kind:        AttrDerive,
				DerivePaths: splitDerivePaths(args, interner),
				Node:        tree.Nodes[n],
			})
			continue
		}
		attrs = append(attrs, Attr{
			Kind: AttrPlain,
			Path: splitPath(name, interner),
			Node: tree.Nodes[n],
		})
	}
	return attrs
}

// splitAttrNameArgs splits `name(args)` or bare `name` attribute
// content (already stripped of its surrounding `#[`/`]`) into the
// attribute's own path text and its unparsed argument text.
func splitAttrNameArgs(inner string) (name, args string) {
	i := strings.Index(inner, "(")
	if i < 0 {
		return strings.TrimSpace(inner), ""
	}
	rest := strings.TrimSuffix(strings.TrimSpace(inner[i+1:]), ")")
	return strings.TrimSpace(inner[:i]), rest
}

// splitDerivePaths splits a derive attribute's comma-separated
// argument list into one path per listed trait.
func splitDerivePaths(args string, interner *intern.Interner) [][]intern.ID {
	var paths [][]intern.ID
	for _, part := range strings.Split(args, ",") {
		if path := splitPath(part, interner); path != nil {
			paths = append(paths, path)
		}
	}
	return paths
}

// splitPath interns a `a::b::c`-shaped path's segments.
func splitPath(text string, interner *intern.Interner) []intern.ID {
	var segs []intern.ID
	for _, seg := range strings.Split(text, "::") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segs = append(segs, interner.Intern(seg))
	}
	return segs
}

// cfgAllows evaluates any `#[cfg(...)]` attribute attached directly
// before idx. A full attribute-token parser is out of scope for item
// tree lowering (it would duplicate the syntax parser); this recognizes
// the common `cfg(flag)` / `cfg(not(flag))` shapes textually, which is
// sufficient for the item tree's cfg-filtering contract and degrades to
// "allowed" (never silently drops valid code) on anything more exotic.
func cfgAllows(tree *synsrc.Tree, idx int, cfg input.CfgOptions) bool {
	parent := tree.Parent[idx]
	if parent < 0 {
		return true
	}
	siblings := tree.Children(parent)
	pos := -1
	for i, sib := range siblings {
		if sib == idx {
			pos = i
			break
		}
	}
	for i := pos - 1; i >= 0; i-- {
		sib := siblings[i]
		if tree.Nodes[sib].Kind != "attribute_item" {
			break
		}
		text := tree.NodeText(sib)
		if !strings.Contains(text, "cfg") {
			continue
		}
		if strings.Contains(text, "cfg(not(") {
			flag := extractFlag(text, "cfg(not(")
			if cfg.Enabled[flag] {
				return false
			}
		} else if strings.Contains(text, "cfg(") {
			flag := extractFlag(text, "cfg(")
			if flag != "" && !cfg.Enabled[flag] {
				return false
			}
		}
	}
	return true
}

func extractFlag(text, prefix string) string {
	i := strings.Index(text, prefix)
	if i < 0 {
		return ""
	}
	rest := text[i+len(prefix):]
	end := strings.IndexAny(rest, ")]")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
