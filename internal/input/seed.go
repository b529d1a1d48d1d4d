// Seed-file loading: turns a host-authored YAML project description into
// a CrateGraph + FileStore pair. This is the concrete shape a real IDE's
// project-manifest-discovery layer (out of scope here) would feed into
// the core; here it also doubles as the fixture format the test suite
// uses to build small crate graphs without a real project.
package input

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// SeedSchema is the YAML schema for a crate-graph seed file, in the
// same tagged-struct style as a typical build-manifest schema.
const SeedSchema = "semcore.seed/v1"

// CrateSeed describes one crate in a seed file.
type CrateSeed struct {
	Name         string            `yaml:"name"`
	Root         string            `yaml:"root"`
	Files        []string          `yaml:"files"` // glob patterns, e.g. "src/**/*.rs"
	Edition      string            `yaml:"edition"`
	Dependencies map[string]string `yaml:"dependencies"` // alias -> crate name
	Cfg          []string          `yaml:"cfg"`
}

// Seed is the top-level seed-file document.
type Seed struct {
	Schema string      `yaml:"schema"`
	Crates []CrateSeed `yaml:"crates"`
}

// LoadSeed parses a YAML seed file and expands its glob file lists
// against baseDir using doublestar, returning a populated CrateGraph and
// FileStore ready to hand to the query engine as inputs.
func LoadSeed(baseDir string, data []byte) (*CrateGraph, *FileStore, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, nil, fmt.Errorf("input: parsing seed file: %w", err)
	}

	graph := NewCrateGraph()
	files := NewFileStore()
	byName := make(map[string]CrateID)

	// Pass 1: read every crate's root file; crate IDs are allocated in
	// the loop that follows.
	roots := make(map[string]FileID)
	for _, cs := range seed.Crates {
		rootPath := filepath.Join(baseDir, cs.Root)
		text, err := os.ReadFile(rootPath)
		if err != nil {
			return nil, nil, fmt.Errorf("input: reading root of crate %q: %w", cs.Name, err)
		}
		fid := files.AddFile(rootPath, string(text))
		roots[cs.Name] = fid
	}

	for _, cs := range seed.Crates {
		cfg := NewCfgOptions()
		for _, flag := range cs.Cfg {
			cfg.Enabled[flag] = true
		}
		ed := Edition(cs.Edition)
		if ed == "" {
			ed = Edition2021
		}
		id := graph.AddCrate(Crate{
			Root:        roots[cs.Name],
			DisplayName: cs.Name,
			Edition:     ed,
			Cfg:         cfg,
			EnvVars:     map[string]string{},
		})
		byName[cs.Name] = id
	}

	// Pass 2: resolve dependency aliases and glob-expand non-root files.
	for _, cs := range seed.Crates {
		id := byName[cs.Name]
		c := graph.Crate(id)
		for alias, target := range cs.Dependencies {
			targetID, ok := byName[target]
			if !ok {
				return nil, nil, fmt.Errorf("input: crate %q depends on unknown crate %q", cs.Name, target)
			}
			c.Dependencies = append(c.Dependencies, Dependency{Target: targetID, Alias: alias})
		}

		for _, pattern := range cs.Files {
			matches, err := doublestar.Glob(os.DirFS(baseDir), pattern)
			if err != nil {
				return nil, nil, fmt.Errorf("input: bad glob %q in crate %q: %w", pattern, cs.Name, err)
			}
			for _, m := range matches {
				full := filepath.Join(baseDir, m)
				if full == filepath.Join(baseDir, cs.Root) {
					continue // root already loaded in pass 1
				}
				text, err := os.ReadFile(full)
				if err != nil {
					return nil, nil, fmt.Errorf("input: reading %q: %w", full, err)
				}
				files.AddFile(full, string(text))
			}
		}
	}

	if cycle, ok := graph.CheckAcyclic(); !ok {
		return nil, nil, fmt.Errorf("input: cyclic crate dependency: %v", cycle)
	}

	return graph, files, nil
}
