package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureProject = "../../testdata/fixtures/py_project"

// buildFixture runs a full build of the fixture project into a fresh
// MemStore.
func buildFixture(t *testing.T, opts BuildOptions) (*MemStore, *BuildResult) {
	t.Helper()

	parser := NewTreeSitterParser()
	defer parser.Close()

	store := NewMemStore()
	builder := NewBuilder(fixtureProject, parser, store, opts)

	result, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	return store, result
}

// ---------------------------------------------------------------------------
// TestBuilder_FixtureProject
// ---------------------------------------------------------------------------

func TestBuilder_FixtureProject(t *testing.T) {
	store, result := buildFixture(t, BuildOptions{})
	ctx := context.Background()

	t.Run("discovery honors gitignore", func(t *testing.T) {
		// broken.py, main.py, models/{__init__,base,user}.py,
		// scripts/run.py, utils.py; generated.py is gitignored.
		assert.Equal(t, 7, result.FilesDiscovered)
		assert.Equal(t, 6, result.FilesParsed)

		ent, err := store.GetEntity(ctx, "generated")
		require.NoError(t, err)
		assert.Nil(t, ent, "gitignored file must not produce a module")
	})

	t.Run("syntax errors become warnings", func(t *testing.T) {
		require.Len(t, result.Warnings, 1)
		w := result.Warnings[0]
		assert.Equal(t, WarnParseFailure, w.Kind)
		assert.Equal(t, "broken.py", w.File)

		ent, err := store.GetEntity(ctx, "broken")
		require.NoError(t, err)
		assert.Nil(t, ent, "failed file must contribute nothing")
	})

	t.Run("stats", func(t *testing.T) {
		assert.Equal(t, 1, result.Stats.PackageCount, "models")
		assert.Equal(t, 5, result.Stats.ModuleCount)
		assert.Equal(t, 3, result.Stats.ClassCount)
		assert.Equal(t, 10, result.Stats.FunctionCount)
		// os, json, sys, requests
		assert.Equal(t, 4, result.Stats.ExternalCount)
	})

	t.Run("package initializer names the directory", func(t *testing.T) {
		models, err := store.GetEntity(ctx, "models")
		require.NoError(t, err)
		require.NotNil(t, models)
		assert.Equal(t, KindPackage, models.Kind)
		assert.Equal(t, "models/__init__.py", models.SourceLocation)
	})

	t.Run("containment", func(t *testing.T) {
		edges, err := store.Edges(ctx)
		require.NoError(t, err)

		assert.Contains(t, edges, Relation{Source: "models", Target: "models.user", Kind: EdgeKindContains})
		assert.Contains(t, edges, Relation{Source: "models", Target: "models.base", Kind: EdgeKindContains})
		assert.Contains(t, edges, Relation{Source: "main", Target: "main.App", Kind: EdgeKindContains})
		assert.Contains(t, edges, Relation{Source: "main.App", Target: "main.App.register", Kind: EdgeKindContains})

		// scripts/ has no __init__.py, so scripts.run is a forest root.
		for _, e := range edges {
			if e.Kind == EdgeKindContains {
				assert.NotEqual(t, "scripts.run", e.Target, "bare-directory module must have no parent")
			}
		}
	})

	t.Run("import resolution", func(t *testing.T) {
		edges, err := store.Edges(ctx)
		require.NoError(t, err)

		assert.Contains(t, edges, Relation{Source: "main", Target: "utils", Kind: EdgeKindImports})
		assert.Contains(t, edges, Relation{Source: "main", Target: "models.user.User", Kind: EdgeKindImports})
		assert.Contains(t, edges, Relation{Source: "main", Target: "os", Kind: EdgeKindImports})
		assert.Contains(t, edges, Relation{Source: "models", Target: "models.base.Base", Kind: EdgeKindImports})
		assert.Contains(t, edges, Relation{Source: "models.user", Target: "requests", Kind: EdgeKindImports})
		assert.Contains(t, edges, Relation{Source: "scripts.run", Target: "main", Kind: EdgeKindImports})
	})

	t.Run("inheritance resolution", func(t *testing.T) {
		edges, err := store.Edges(ctx)
		require.NoError(t, err)

		assert.Contains(t, edges, Relation{Source: "models.user.User", Target: "models.base.Base", Kind: EdgeKindInherits})
	})

	t.Run("external references collapse per library", func(t *testing.T) {
		externals, err := store.QueryEntities(ctx, "", KindExternal, 0)
		require.NoError(t, err)

		names := make(map[string]bool)
		for _, e := range externals {
			names[e.QualifiedName] = true
			assert.Empty(t, e.SourceLocation, "externals carry no source location")
		}
		assert.Equal(t, map[string]bool{"os": true, "json": true, "sys": true, "requests": true}, names)
	})

	t.Run("containment is a forest", func(t *testing.T) {
		edges, err := store.Edges(ctx)
		require.NoError(t, err)

		// Exactly one containment parent per contained node.
		parent := make(map[string]string)
		for _, e := range edges {
			if e.Kind != EdgeKindContains {
				continue
			}
			prev, seen := parent[e.Target]
			assert.False(t, seen, "%s has two containment parents: %s and %s", e.Target, prev, e.Source)
			parent[e.Target] = e.Source
		}

		// Parent chains terminate at a root instead of cycling.
		for node := range parent {
			visited := map[string]bool{node: true}
			for cur, ok := parent[node]; ok; cur, ok = parent[cur] {
				require.False(t, visited[cur], "containment cycle through %s", cur)
				visited[cur] = true
			}
		}
	})

	t.Run("no dangling edges", func(t *testing.T) {
		entities, err := store.Entities(ctx)
		require.NoError(t, err)
		edges, err := store.Edges(ctx)
		require.NoError(t, err)

		known := make(map[string]bool, len(entities))
		for _, e := range entities {
			known[e.QualifiedName] = true
		}
		for _, e := range edges {
			assert.True(t, known[e.Source], "dangling source %s", e.Source)
			assert.True(t, known[e.Target], "dangling target %s", e.Target)
		}
	})

	t.Run("function complexity recorded", func(t *testing.T) {
		flatten, err := store.GetEntity(ctx, "utils.flatten")
		require.NoError(t, err)
		require.NotNil(t, flatten)
		// 1 + for + if
		assert.Equal(t, 3, flatten.Complexity)
	})
}

// ---------------------------------------------------------------------------
// TestBuilder_Deterministic
// ---------------------------------------------------------------------------

func TestBuilder_Deterministic(t *testing.T) {
	ctx := context.Background()

	first, _ := buildFixture(t, BuildOptions{Workers: 4})
	second, _ := buildFixture(t, BuildOptions{Workers: 1})

	firstEntities, err := first.Entities(ctx)
	require.NoError(t, err)
	secondEntities, err := second.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstEntities, secondEntities, "entity enumeration must not depend on worker scheduling")

	firstEdges, err := first.Edges(ctx)
	require.NoError(t, err)
	secondEdges, err := second.Edges(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstEdges, secondEdges)
}

// ---------------------------------------------------------------------------
// TestBuilder_ExcludeDirs
// ---------------------------------------------------------------------------

func TestBuilder_ExcludeDirs(t *testing.T) {
	store, _ := buildFixture(t, BuildOptions{ExcludeDirs: []string{"models"}})

	ent, err := store.GetEntity(context.Background(), "models.user")
	require.NoError(t, err)
	assert.Nil(t, ent)
}

// ---------------------------------------------------------------------------
// TestBuilder_RootPackageInitializer
// ---------------------------------------------------------------------------

func TestBuilder_RootPackageInitializer(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "__init__.py"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("class Base:\n    pass\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "__init__.py"), nil, 0o644))

	parser := NewTreeSitterParser()
	defer parser.Close()

	store := NewMemStore()
	builder := NewBuilder(root, parser, store, BuildOptions{})
	_, err := builder.Build(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	rootName := filepath.Base(root)
	pkg, err := store.GetEntity(ctx, rootName)
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, KindPackage, pkg.Kind)

	// Top-level entries nest under the root package instead of floating.
	edges, err := store.Edges(ctx)
	require.NoError(t, err)
	assert.Contains(t, edges, Relation{Source: rootName, Target: "a", Kind: EdgeKindContains})
	assert.Contains(t, edges, Relation{Source: rootName, Target: "models", Kind: EdgeKindContains})

	parents := 0
	for _, e := range edges {
		if e.Kind == EdgeKindContains && e.Target == "a" {
			parents++
		}
	}
	assert.Equal(t, 1, parents)
}

// ---------------------------------------------------------------------------
// TestBuilder_MissingRoot
// ---------------------------------------------------------------------------

func TestBuilder_MissingRoot(t *testing.T) {
	parser := NewTreeSitterParser()
	defer parser.Close()

	builder := NewBuilder("testdata/does-not-exist", parser, NewMemStore(), BuildOptions{})
	_, err := builder.Build(context.Background())
	assert.Error(t, err, "an inaccessible root is the one fatal condition")
}

// ---------------------------------------------------------------------------
// TestBuilder_WithCache
// ---------------------------------------------------------------------------

func TestBuilder_WithCache(t *testing.T) {
	cache, err := OpenParseCache(t.TempDir())
	require.NoError(t, err)

	cold, coldResult := buildFixture(t, BuildOptions{Cache: cache})
	warm, warmResult := buildFixture(t, BuildOptions{Cache: cache})

	assert.Equal(t, coldResult.Stats, warmResult.Stats)

	ctx := context.Background()
	coldEntities, err := cold.Entities(ctx)
	require.NoError(t, err)
	warmEntities, err := warm.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, coldEntities, warmEntities, "cached records must reproduce the cold-parse graph")
}
