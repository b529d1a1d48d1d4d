// Package db assembles the whole pipeline into the one long-lived
// object an IDE frontend actually talks to: the query engine, the
// interner, the file store, and the crate graph, plus the lazily-built
// item trees, def maps, bodies, and inference results layered on top
// of them.
//
// This plays the same role a module loader does for a whole program's
// module graph plus a cache of per-module compiled output behind a
// handful of public Load/Get-style methods, generalized from "load and
// typecheck a module" to "answer a semantic query about one definition
// without redoing work an earlier query already did".
package db

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/hirtypes"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/itemtree"
	"github.com/sunholo/semcore/internal/macroexpand"
	"github.com/sunholo/semcore/internal/nameres"
	"github.com/sunholo/semcore/internal/query"
	"github.com/sunholo/semcore/internal/semantic"
	"github.com/sunholo/semcore/internal/synsrc"
)

// Database satisfies semantic.Database, letting internal/semantic's
// thin query surface run directly against it.
var _ semantic.Database = (*Database)(nil)

const (
	queryItemTree = "item_tree"
	queryParse    = "parse"
	queryDefMap   = "def_map"
)

// expansionEdge records where one virtual macro-expansion file came
// from, for OriginalFile-style ancestor walks back to real source.
type expansionEdge struct {
	callSiteFile input.FileID
	callSiteNode synsrc.NodePtr
}

// Database owns every input and every derived artifact of one editing
// session. SessionID identifies it for telemetry/log correlation; it
// plays no role in computing anything.
type Database struct {
	SessionID uuid.UUID

	Engine     *query.Engine
	Interner   *intern.Interner
	Files      *input.FileStore
	Graph      *input.CrateGraph
	ProcMacros *input.ProcMacroRegistry
	Parser     *synsrc.Parser
	VFiles     *macroexpand.VirtualFileAllocator

	mu          sync.RWMutex
	collectors  map[input.CrateID]*nameres.Collector
	bodies      map[nameres.DefID]*body.Body
	inference   map[nameres.DefID]*hirtypes.Ctx
	expansionOf map[input.FileID]expansionEdge
	fileCrate   map[input.FileID]input.CrateID
}

// New wires up an empty Database: a fresh query engine with every
// derived query registered, an interner, and empty file/crate/proc-
// macro stores ready for a host to populate.
func New() *Database {
	files := input.NewFileStore()
	db := &Database{
		SessionID:   uuid.New(),
		Engine:      query.NewEngine(),
		Interner:    intern.New(),
		Files:       files,
		Graph:       input.NewCrateGraph(),
		ProcMacros:  input.NewProcMacroRegistry(true),
		Parser:      synsrc.NewParser(),
		collectors:  make(map[input.CrateID]*nameres.Collector),
		bodies:      make(map[nameres.DefID]*body.Body),
		inference:   make(map[nameres.DefID]*hirtypes.Ctx),
		expansionOf: make(map[input.FileID]expansionEdge),
		fileCrate:   make(map[input.FileID]input.CrateID),
	}
	db.VFiles = macroexpand.NewVirtualFileAllocator(files)

	db.Engine.RegisterInput(queryParse, query.DurabilityLow)
	db.Engine.RegisterDerived(queryItemTree, db.computeItemTree, nil)
	db.Engine.RegisterDerived(queryDefMap, db.computeDefMap, nil)
	return db
}

// SetLogger attaches a structured logger to this Database's query
// engine, so revision bumps, cancellations, and cycle recoveries across
// every query this session runs get traced. A nil logger is ignored.
func (db *Database) SetLogger(log *zap.Logger) {
	db.Engine.SetLogger(log)
}

// AddFile registers a file's text as an input query and records which
// crate it belongs to for later def-map construction.
func (db *Database) AddFile(crate input.CrateID, path, text string) input.FileID {
	id := db.Files.AddFile(path, text)
	db.Engine.Set(queryParse, id, text)
	db.mu.Lock()
	db.fileCrate[id] = crate
	db.mu.Unlock()
	return id
}

// SetFileText updates an existing file's text, bumping the engine's
// revision so every derived query that read it recomputes on next ask.
func (db *Database) SetFileText(id input.FileID, text string) {
	db.Files.SetText(id, text)
	db.Engine.Set(queryParse, id, text)
}

// AllocVirtualFile materializes macro-expansion output as a file and
// records the call site it expanded from, so ExpansionOf can later walk
// back to real source one hop at a time.
func (db *Database) AllocVirtualFile(name string, tokens []macroexpand.Token, callSiteFile input.FileID, callSiteNode synsrc.NodePtr, crate input.CrateID) input.FileID {
	id := db.VFiles.Allocate(name, tokens)
	db.Engine.Set(queryParse, id, db.Files.Text(id))
	db.mu.Lock()
	db.expansionOf[id] = expansionEdge{callSiteFile: callSiteFile, callSiteNode: callSiteNode}
	db.fileCrate[id] = crate
	db.mu.Unlock()
	return id
}

// query runs a top-level query against the engine's latest revision.
func (db *Database) query(kind string, arg any) (any, error) {
	return db.Engine.NewSnapshot().Get(kind, arg)
}

// Tree parses one file's current text. Parsing is cheap enough (and
// idempotent) that this isn't itself routed through the query engine;
// computeItemTree below is the cached, invalidation-aware path that
// matters for incrementality.
func (db *Database) Tree(file input.FileID) (*synsrc.Tree, error) {
	return db.Parser.Parse(context.Background(), db.Files.Path(file), []byte(db.Files.Text(file)))
}

func (db *Database) computeItemTree(ctx *query.Context, arg any) (any, error) {
	file := arg.(input.FileID)
	text, err := ctx.Get(queryParse, file)
	if err != nil {
		return nil, err
	}
	tree, perr := db.Parser.Parse(context.Background(), db.Files.Path(file), []byte(text.(string)))
	if perr != nil {
		return nil, perr
	}
	cfg := input.NewCfgOptions()
	if crate, ok := db.fileCrate[file]; ok {
		cfg = db.Graph.Crate(crate).Cfg
	}
	it, bag := itemtree.Lower(file, tree, db.Interner, cfg)
	return itemTreeResult{tree: it, diags: bag, synTree: tree}, nil
}

type itemTreeResult struct {
	tree    *itemtree.ItemTree
	diags   *diag.Bag
	synTree *synsrc.Tree
}

// ItemTreeOf returns the (cached) item tree for file, building it
// through the query engine on first ask.
func (db *Database) ItemTreeOf(file input.FileID) *itemtree.ItemTree {
	v, err := db.query(queryItemTree, file)
	if err != nil || v == nil {
		return nil
	}
	return v.(itemTreeResult).tree
}

func (db *Database) computeDefMap(ctx *query.Context, arg any) (any, error) {
	crate := arg.(input.CrateID)
	provider := func(crateID uint32) *nameres.DefMap {
		return db.DefMapOf(input.CrateID(crateID))
	}
	c := nameres.NewCollector(crate, db.Graph, provider, db.Interner)
	self := db.Graph.Crate(crate)
	itv, err := ctx.Get(queryItemTree, self.Root)
	if err != nil {
		return nil, err
	}
	if it := itv.(itemTreeResult).tree; it != nil {
		c.CollectFile(c.DefMap.Root, it)
	}
	c.Run()
	db.mu.Lock()
	db.collectors[crate] = c
	db.mu.Unlock()
	return c.DefMap, nil
}

// DefMapOf returns the (cached) definition map for crate, running the
// collector's fixed point on first ask.
func (db *Database) DefMapOf(crate input.CrateID) *nameres.DefMap {
	v, err := db.query(queryDefMap, crate)
	if err != nil || v == nil {
		return nil
	}
	return v.(*nameres.DefMap)
}

func (db *Database) collectorFor(crate input.CrateID) *nameres.Collector {
	db.DefMapOf(crate) // ensure built
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.collectors[crate]
}

// crateOf finds which crate owns def by scanning the crates whose
// collector has already run — a definition's crate isn't carried on
// DefID itself, so the
// caller is expected to already know it in the common case; this exists
// for the handful of cross-crate tooling paths (FieldsOf, ModuleOf) that
// don't.
func (db *Database) crateOf(def nameres.DefID) (input.CrateID, *nameres.Collector, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for crate, c := range db.collectors {
		if _, ok := c.DefSource[def]; ok {
			return crate, c, true
		}
	}
	return 0, nil, false
}

// ItemOf resolves a DefID back to its declaring item-tree Item.
func (db *Database) ItemOf(def nameres.DefID) (itemtree.Item, bool) {
	_, c, ok := db.crateOf(def)
	if !ok {
		return itemtree.Item{}, false
	}
	src, ok := c.DefSource[def]
	if !ok {
		return itemtree.Item{}, false
	}
	tree := db.ItemTreeOf(src.File)
	if tree == nil {
		return itemtree.Item{}, false
	}
	var found itemtree.Item
	var ok2 bool
	tree.Items.Iter(func(_ itemtree.ID, item itemtree.Item) {
		if !ok2 && item.Node.ID == src.Node.ID {
			found, ok2 = item, true
		}
	})
	return found, ok2
}

// SourceOf implements semantic.Database.
func (db *Database) SourceOf(def nameres.DefID) (input.FileID, synsrc.NodePtr, bool) {
	_, c, ok := db.crateOf(def)
	if !ok {
		return 0, synsrc.NodePtr{}, false
	}
	src, ok := c.DefSource[def]
	return src.File, src.Node, ok
}

// ExpansionOf implements semantic.Database.
func (db *Database) ExpansionOf(file input.FileID) (input.FileID, synsrc.NodePtr, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.expansionOf[file]
	return e.callSiteFile, e.callSiteNode, ok
}

// ModuleOf implements semantic.Database.
func (db *Database) ModuleOf(def nameres.DefID) (nameres.ModuleID, bool) {
	_, c, ok := db.crateOf(def)
	if !ok {
		return nameres.ModuleID{}, false
	}
	m, ok := c.ModuleDefs[def]
	return m, ok
}

// FieldsOf implements semantic.Database.
func (db *Database) FieldsOf(def nameres.DefID) []nameres.DefID {
	_, c, ok := db.crateOf(def)
	if !ok {
		return nil
	}
	return c.Fields[def]
}

// BodyOf lowers (and caches) the lowered body for a function-like
// definition, building it on the first request. Non-function kinds, or
// functions whose source or body block cannot be found, return ok=false.
func (db *Database) BodyOf(def nameres.DefID) (*body.Body, bool) {
	db.mu.RLock()
	b, ok := db.bodies[def]
	db.mu.RUnlock()
	if ok {
		return b, true
	}
	return db.buildBody(def)
}

func (db *Database) buildBody(def nameres.DefID) (*body.Body, bool) {
	if def.Kind != nameres.DefFunction {
		return nil, false
	}
	file, node, ok := db.SourceOf(def)
	if !ok {
		return nil, false
	}
	tree, err := db.Tree(file)
	if err != nil {
		return nil, false
	}
	nodeIdx, ok := findNodeIndex(tree, node)
	if !ok {
		return nil, false
	}
	var params []int
	var rootExprNode = -1
	for _, child := range tree.Children(nodeIdx) {
		switch tree.Nodes[child].Kind {
		case "parameters":
			for _, p := range tree.Children(child) {
				if tree.Nodes[p].Kind == "parameter" {
					params = append(params, p)
				}
			}
		case "block":
			rootExprNode = child
		}
	}
	if rootExprNode == -1 {
		return nil, false
	}
	b := body.Lower(tree, db.Interner, params, rootExprNode)
	db.mu.Lock()
	db.bodies[def] = b
	db.mu.Unlock()
	return b, true
}

func findNodeIndex(tree *synsrc.Tree, node synsrc.NodePtr) (int, bool) {
	for i, n := range tree.Nodes {
		if n.ID == node.ID {
			return i, true
		}
	}
	return 0, false
}

// InferenceOf runs (and caches) type inference over def's body, using
// this Database's real AdtFields/Methods/Solver adapters.
func (db *Database) InferenceOf(def nameres.DefID) (*hirtypes.Ctx, bool) {
	db.mu.RLock()
	ctx, ok := db.inference[def]
	db.mu.RUnlock()
	if ok {
		return ctx, true
	}

	b, ok := db.BodyOf(def)
	if !ok {
		return nil, false
	}
	// tys/it are built once and threaded into every adapter so every
	// inference variable any of them mints — field types, method params,
	// body expressions alike — lives in the same unification table and
	// gets a distinct VarID. Handing each adapter its own InferenceTable
	// over the same tys would let their independent var counters collide
	// on the same interned "ivar:N" key and silently alias unrelated
	// variables.
	tys := hirtypes.NewTable(db.Interner)
	it := hirtypes.NewInferenceTable(tys)
	fields := &adtFields{db: db, it: it}
	methods := &methodTable{db: db, it: it}
	solver := &traitSolver{db: db, tys: tys}
	c := &hirtypes.Ctx{
		Types:     tys,
		Infer:     it,
		Solver:    solver,
		Fields:    fields,
		Methods:   methods,
		Body:      b,
		Interner:  db.Interner,
		Diags:     &diag.Bag{},
		ExprTypes: make(map[body.ExprID]hirtypes.TyID),
		PatTypes:  make(map[body.PatID]hirtypes.TyID),
	}
	paramTypes := make([]hirtypes.TyID, len(b.Params))
	for i := range paramTypes {
		paramTypes[i] = c.Infer.NewVar(hirtypes.OriginGeneral)
	}
	c.InferBody(paramTypes)
	c.Finish()

	db.mu.Lock()
	db.inference[def] = c
	db.mu.Unlock()
	return c, true
}
