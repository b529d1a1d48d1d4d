package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadSeedExpandsGlobsAndDeps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/lib.rs", "pub fn f() -> u8 { 0 }")
	writeFile(t, dir, "a/src/extra.rs", "pub fn g() {}")
	writeFile(t, dir, "b/lib.rs", "use a::*;")

	seedYAML := `
schema: semcore.seed/v1
crates:
  - name: a
    root: a/lib.rs
    files: ["a/src/**/*.rs"]
  - name: b
    root: b/lib.rs
    dependencies:
      a: a
`
	graph, files, err := LoadSeed(dir, []byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, graph.AllCrates(), 2)

	var crateB *Crate
	for _, id := range graph.AllCrates() {
		c := graph.Crate(id)
		if c.DisplayName == "b" {
			crateB = c
		}
	}
	require.NotNil(t, crateB)
	require.Len(t, crateB.Dependencies, 1)
	assert.Equal(t, "a", crateB.Dependencies[0].Alias)

	assert.Equal(t, "use a::*;", files.Text(crateB.Root))
}

func TestCrateGraphDetectsCycle(t *testing.T) {
	g := NewCrateGraph()
	a := g.AddCrate(Crate{DisplayName: "a"})
	b := g.AddCrate(Crate{DisplayName: "b"})
	g.Crate(a).Dependencies = []Dependency{{Target: b, Alias: "b"}}
	g.Crate(b).Dependencies = []Dependency{{Target: a, Alias: "a"}}

	_, ok := g.CheckAcyclic()
	assert.False(t, ok)
}
