//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/codesynapse/internal/export"
	"github.com/synapse-labs/codesynapse/internal/graph"
)

func fixtureProject() string {
	return filepath.Join("..", "..", "testdata", "fixtures", "py_project")
}

// buildProject runs the full extraction pipeline over the fixture project.
func buildProject(t *testing.T) (graph.Store, *graph.BuildResult) {
	t.Helper()

	parser := graph.NewTreeSitterParser()
	t.Cleanup(func() { parser.Close() })

	store := graph.NewMemStore()
	builder := graph.NewBuilder(fixtureProject(), parser, store, graph.BuildOptions{})

	result, err := builder.Build(context.Background())
	require.NoError(t, err)
	return store, result
}

// TestPipeline_E2E runs discovery, parsing, resolution and every export
// format against the fixture project and verifies the produced artifacts.
func TestPipeline_E2E(t *testing.T) {
	store, result := buildProject(t)
	ctx := context.Background()
	outputDir := t.TempDir()

	assert.Greater(t, result.FilesParsed, 0)
	assert.NotEmpty(t, result.Warnings, "the broken fixture file should warn")

	// --- JSON export ---

	jsonPath := filepath.Join(outputDir, "graph.json")
	f, err := os.Create(jsonPath)
	require.NoError(t, err)
	require.NoError(t, export.WriteJSON(ctx, store, fixtureProject(), f))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded export.GraphExport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Stats.EntityCount(), len(decoded.Nodes))
	assert.Equal(t, result.Stats.EdgeCount, len(decoded.Edges))
	assert.Contains(t, decoded.Summary.ExternalDependencies, "requests")

	// --- Mermaid export ---

	mermaid, err := export.GenerateMermaid(ctx, store)
	require.NoError(t, err)
	assert.Contains(t, mermaid, "graph LR")

	// --- HTML export ---

	htmlPath := filepath.Join(outputDir, "graph.html")
	hf, err := os.Create(htmlPath)
	require.NoError(t, err)
	require.NoError(t, export.WriteHTML(ctx, store, "py_project", hf))
	require.NoError(t, hf.Close())

	info, err := os.Stat(htmlPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
