package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/sunholo/semcore/internal/input"
)

// LoadSeed populates this Database's crate graph and file store from a
// YAML seed document, routing every file through AddFile so each lands
// in the query engine as a tracked input rather than a bare FileStore
// entry — the detail input.LoadSeed's standalone CrateGraph/FileStore
// pair can't provide on its own, since nothing downstream of it is
// wired to an Engine.
func (db *Database) LoadSeed(baseDir string, data []byte) ([]input.CrateID, error) {
	var seed input.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("db: parsing seed file: %w", err)
	}

	byName := make(map[string]input.CrateID, len(seed.Crates))
	var ids []input.CrateID

	for _, cs := range seed.Crates {
		cfg := input.NewCfgOptions()
		for _, flag := range cs.Cfg {
			cfg.Enabled[flag] = true
		}
		ed := input.Edition(cs.Edition)
		if ed == "" {
			ed = input.Edition2021
		}
		id := db.Graph.AddCrate(input.Crate{
			DisplayName: cs.Name,
			Edition:     ed,
			Cfg:         cfg,
			EnvVars:     map[string]string{},
		})
		byName[cs.Name] = id
		ids = append(ids, id)
	}

	for _, cs := range seed.Crates {
		id := byName[cs.Name]
		c := db.Graph.Crate(id)
		for alias, target := range cs.Dependencies {
			targetID, ok := byName[target]
			if !ok {
				return nil, fmt.Errorf("db: crate %q depends on unknown crate %q", cs.Name, target)
			}
			c.Dependencies = append(c.Dependencies, input.Dependency{Target: targetID, Alias: alias})
		}

		rootPath := filepath.Join(baseDir, cs.Root)
		rootText, err := os.ReadFile(rootPath)
		if err != nil {
			return nil, fmt.Errorf("db: reading root of crate %q: %w", cs.Name, err)
		}
		c.Root = db.AddFile(id, rootPath, string(rootText))

		for _, pattern := range cs.Files {
			matches, err := doublestar.Glob(os.DirFS(baseDir), pattern)
			if err != nil {
				return nil, fmt.Errorf("db: bad glob %q in crate %q: %w", pattern, cs.Name, err)
			}
			for _, m := range matches {
				full := filepath.Join(baseDir, m)
				if full == rootPath {
					continue
				}
				text, err := os.ReadFile(full)
				if err != nil {
					return nil, fmt.Errorf("db: reading %q: %w", full, err)
				}
				db.AddFile(id, full, string(text))
			}
		}
	}

	if cycle, ok := db.Graph.CheckAcyclic(); !ok {
		return nil, fmt.Errorf("db: cyclic crate dependency: %v", cycle)
	}
	return ids, nil
}
