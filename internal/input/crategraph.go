package input

import "fmt"

// Dependency is one edge of the crate graph: a named alias under which
// the target crate is visible in the extern prelude of the dependent.
type Dependency struct {
	Target CrateID
	Alias  string
}

// CfgOptions is the set of compile-time configuration flags gating item
// inclusion and `cfg!` evaluation.
type CfgOptions struct {
	Enabled map[string]bool
	// KeyValues holds cfg(key = "value") style flags, e.g. target_os.
	KeyValues map[string][]string
}

// NewCfgOptions returns an empty (nothing enabled) option set.
func NewCfgOptions() CfgOptions {
	return CfgOptions{Enabled: map[string]bool{}, KeyValues: map[string][]string{}}
}

// Evaluate implements the boolean cfg predicate grammar: bare flags,
// `key = "value"` pairs, and the `all`/`any`/`not` combinators. A cfg
// predicate this function does not recognize evaluates to false and is
// reported by the caller as an INP004 diagnostic, never panics.
func (c CfgOptions) Evaluate(pred CfgPredicate) bool {
	switch p := pred.(type) {
	case CfgFlag:
		return c.Enabled[p.Name]
	case CfgKeyValue:
		for _, v := range c.KeyValues[p.Key] {
			if v == p.Value {
				return true
			}
		}
		return false
	case CfgAll:
		for _, sub := range p.Preds {
			if !c.Evaluate(sub) {
				return false
			}
		}
		return true
	case CfgAny:
		for _, sub := range p.Preds {
			if c.Evaluate(sub) {
				return true
			}
		}
		return false
	case CfgNot:
		return !c.Evaluate(p.Pred)
	default:
		return false
	}
}

// CfgPredicate is the sum type of cfg() expressions.
type CfgPredicate interface{ cfgPredicate() }

type CfgFlag struct{ Name string }
type CfgKeyValue struct{ Key, Value string }
type CfgAll struct{ Preds []CfgPredicate }
type CfgAny struct{ Preds []CfgPredicate }
type CfgNot struct{ Pred CfgPredicate }

func (CfgFlag) cfgPredicate()     {}
func (CfgKeyValue) cfgPredicate() {}
func (CfgAll) cfgPredicate()      {}
func (CfgAny) cfgPredicate()      {}
func (CfgNot) cfgPredicate()      {}

// ProcMacroRef names one proc macro a crate exports: its kind (derive,
// attribute, function-like) and its path name. It records no expander;
// which expander runs is decided by ProcMacroRegistry.Lookup
// (procmacro.go).
type ProcMacroRef struct {
	Name string
	Kind ProcMacroKind
}

type ProcMacroKind int

const (
	ProcMacroFunctionLike ProcMacroKind = iota
	ProcMacroDerive
	ProcMacroAttribute
)

// Crate is one node of the crate graph.
type Crate struct {
	Root         FileID
	DisplayName  string
	Edition      Edition
	Cfg          CfgOptions
	PotentialCfg CfgOptions // cfgs that *could* be set, for "could this ever be true" queries
	EnvVars      map[string]string
	Dependencies []Dependency
	ProcMacros   []ProcMacroRef
}

// CrateGraph is the acyclic dependency graph of crates. It is the
// highest-durability input: changing it invalidates nearly everything.
type CrateGraph struct {
	crates map[CrateID]*Crate
	nextID CrateID
}

// NewCrateGraph creates an empty graph.
func NewCrateGraph() *CrateGraph {
	return &CrateGraph{crates: make(map[CrateID]*Crate)}
}

// AddCrate inserts a crate and returns its freshly allocated ID.
func (g *CrateGraph) AddCrate(c Crate) CrateID {
	id := g.nextID
	g.nextID++
	cc := c
	g.crates[id] = &cc
	return id
}

// Crate looks up a crate by ID. Panics if the ID was never allocated by
// this graph — an internal invariant violation, not a user error.
func (g *CrateGraph) Crate(id CrateID) *Crate {
	c, ok := g.crates[id]
	if !ok {
		panic(fmt.Sprintf("input: unknown crate id %d", id))
	}
	return c
}

// AllCrates returns every crate ID currently in the graph.
func (g *CrateGraph) AllCrates() []CrateID {
	ids := make([]CrateID, 0, len(g.crates))
	for id := range g.crates {
		ids = append(ids, id)
	}
	return ids
}

// CheckAcyclic verifies the dependency graph has no cycles, returning
// the cycle (as a crate-id path) if one is found. The crate graph is
// documented as acyclic; this is how a host-supplied
// graph violating that is caught (the seed loaders return a cyclic
// crate dependency error) rather than looping during name resolution.
func (g *CrateGraph) CheckAcyclic() (cycle []CrateID, ok bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[CrateID]int, len(g.crates))
	var path []CrateID
	var visit func(CrateID) []CrateID
	visit = func(id CrateID) []CrateID {
		color[id] = gray
		path = append(path, id)
		for _, dep := range g.crates[id].Dependencies {
			switch color[dep.Target] {
			case gray:
				// Found the back-edge; slice path from the repeated node.
				for i, p := range path {
					if p == dep.Target {
						return append(append([]CrateID{}, path[i:]...), dep.Target)
					}
				}
			case white:
				if c := visit(dep.Target); c != nil {
					return c
				}
			}
		}
		color[id] = black
		path = path[:len(path)-1]
		return nil
	}
	for id := range g.crates {
		if color[id] == white {
			if c := visit(id); c != nil {
				return c, false
			}
		}
	}
	return nil, true
}
