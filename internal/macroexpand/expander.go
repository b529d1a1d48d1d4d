package macroexpand

import (
	"context"
	"strings"

	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/input"
)

// maxExpansionDepth bounds recursive macro expansion, mirroring rustc/rust-analyzer's own fixed
// ceiling rather than trying to detect runaway expansion structurally.
const maxExpansionDepth = 128

// CallSite is one macro invocation to expand.
type CallSite struct {
	Name  string
	Args  []Token
	Depth int
	File  string
	Line  int
}

// Registry holds a crate's declarative macro definitions plus a handle
// to its procedural macro registry, and drives expansion end to end.
type Registry struct {
	Crate       input.CrateID
	Declarative map[string]*Definition
	ProcMacros  *input.ProcMacroRegistry
}

// NewRegistry creates an empty registry for one crate.
func NewRegistry(crate input.CrateID, procMacros *input.ProcMacroRegistry) *Registry {
	return &Registry{Crate: crate, Declarative: make(map[string]*Definition), ProcMacros: procMacros}
}

// Define registers a macro_rules! definition.
func (r *Registry) Define(def *Definition) {
	r.Declarative[def.Name] = def
}

// Expand resolves and runs one macro call, given the stack of macro
// names already in flight (for cycle detection). It
// never returns an error: every failure mode is a diagnostic plus an
// empty expansion, since name resolution must still make progress
// around a broken macro call.
func (r *Registry) Expand(stack []string, site CallSite) ([]Token, *diag.Bag) {
	bag := &diag.Bag{}

	if site.Depth > maxExpansionDepth {
		bag.Add(diag.New(diag.MAC001, "macroexpand", "macro expansion depth limit exceeded", nil))
		return nil, bag
	}
	for _, s := range stack {
		if s == site.Name {
			bag.Add(diag.New(diag.MAC002, "macroexpand", "cyclic macro expansion: "+site.Name, nil))
			return nil, bag
		}
	}

	if def, ok := r.Declarative[site.Name]; ok {
		toks, ok := expandDeclarative(def, site.Args)
		if !ok {
			bag.Add(diag.New(diag.MAC003, "macroexpand", "no matching rule for "+site.Name+"!", nil))
			return nil, bag
		}
		return toks, bag
	}

	if fn, ok := builtinFnLike[site.Name]; ok {
		toks, err := fn(BuiltinCall{Args: site.Args, File: site.File, Line: site.Line})
		if err != nil {
			bag.Add(diag.New(diag.NAM006, "macroexpand", err.Error(), nil))
			return nil, bag
		}
		return toks, bag
	}

	if r.ProcMacros != nil {
		exp := r.ProcMacros.Lookup(r.Crate, site.Name)
		result := exp.Expand(context.Background(), input.TokenTree{Text: joinTokens(site.Args)})
		if result.Err != nil {
			bag.Add(diag.New(diag.NAM005, "macroexpand", "unresolved proc macro: "+site.Name, nil))
			return nil, bag
		}
		return Tokenize(result.Expanded.Text), bag
	}

	bag.Add(diag.New(diag.NAM007, "macroexpand", "unimplemented built-in macro: "+site.Name, nil))
	return nil, bag
}

// expandDeclarative tries each rule in declaration order and expands
// the template of the first one that matches the call's arguments.
func expandDeclarative(def *Definition, args []Token) ([]Token, bool) {
	for _, rule := range def.Rules {
		b, ok := matchRule(rule.Pattern, args)
		if !ok {
			continue
		}
		return expandTemplate(rule.Template, b), true
	}
	return nil, false
}

func joinTokens(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = string(t)
	}
	return strings.Join(parts, " ")
}

// VirtualFileAllocator hands out synthetic FileIDs for expanded macro
// output, so item-tree lowering and body lowering can treat expansion
// results exactly like a real source file. Grounded on input.FileStore's own
// AddFile, reused rather than duplicated.
type VirtualFileAllocator struct {
	store   *input.FileStore
	counter int
}

// NewVirtualFileAllocator wraps a FileStore for virtual-file production.
func NewVirtualFileAllocator(store *input.FileStore) *VirtualFileAllocator {
	return &VirtualFileAllocator{store: store}
}

// Allocate materializes expanded tokens as a new virtual file.
func (v *VirtualFileAllocator) Allocate(name string, tokens []Token) input.FileID {
	v.counter++
	text := joinTokens(tokens)
	path := "<macro-expansion:" + name + ">"
	return v.store.AddFile(path, text)
}
