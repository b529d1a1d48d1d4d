package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sunholo/semcore/internal/db"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/nameres"
)

// openSession loads a crate-seed file into a fresh Database, ready for
// check/query/watch to drive the pipeline over.
func openSession(seedPath string, log *zap.Logger) (*db.Database, []input.CrateID, error) {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading seed file: %w", err)
	}
	dbase := db.New()
	dbase.SetLogger(log)
	crates, err := dbase.LoadSeed(dirOf(seedPath), data)
	if err != nil {
		return nil, nil, err
	}
	return dbase, crates, nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// foundDef pairs a resolved definition with the name it was found
// under, for listing output — a DefID alone carries no name.
type foundDef struct {
	Name string
	Kind nameres.ItemKind
	Def  nameres.DefID
}

// walkDefs visits every name bound in every module of a crate's def
// map, in Arena order, listing each DefID once under the first name
// found for it — enough structure for a flat listing; it does
// not attempt to reconstruct nesting, since Scope only records what's
// visible, not a module's declaration order.
func walkDefs(dbase *db.Database, dm *nameres.DefMap) []foundDef {
	var out []foundDef
	seen := make(map[nameres.DefID]bool)
	for _, m := range dm.Arena {
		entries := m.Scope.Snapshot(func(nameres.Visibility) bool { return true })
		for _, e := range entries {
			def := e.Entry.Def
			if seen[def] {
				continue
			}
			seen[def] = true
			out = append(out, foundDef{
				Name: dbase.Interner.Lookup(e.Name),
				Kind: def.Kind,
				Def:  def,
			})
		}
	}
	return out
}
