package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/codesynapse/internal/graph"
)

// sampleStore builds a small graph: one package containing a module, one
// class with a method, and an external library import.
func sampleStore(t *testing.T) graph.Store {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemStore()

	entities := []graph.Entity{
		{QualifiedName: "app", DisplayName: "app", Kind: graph.KindPackage},
		{QualifiedName: "app.core", DisplayName: "core", Kind: graph.KindModule, SourceLocation: "app/core.py"},
		{QualifiedName: "app.core.Engine", DisplayName: "Engine", Kind: graph.KindClass, SourceLocation: "app/core.py"},
		{QualifiedName: "app.core.Engine.start", DisplayName: "start", Kind: graph.KindFunction, SourceLocation: "app/core.py", Complexity: 2},
		{QualifiedName: "requests", DisplayName: "requests", Kind: graph.KindExternal},
	}
	for _, e := range entities {
		require.NoError(t, store.AddEntity(ctx, e))
	}

	edges := []graph.Relation{
		{Source: "app", Target: "app.core", Kind: graph.EdgeKindContains},
		{Source: "app.core", Target: "app.core.Engine", Kind: graph.EdgeKindContains},
		{Source: "app.core.Engine", Target: "app.core.Engine.start", Kind: graph.EdgeKindContains},
		{Source: "app.core", Target: "requests", Kind: graph.EdgeKindImports},
	}
	for _, e := range edges {
		require.NoError(t, store.AddEdge(ctx, e))
	}
	return store
}

func TestBuildJSON(t *testing.T) {
	store := sampleStore(t)

	export, err := BuildJSON(context.Background(), store, "/tmp/app")
	require.NoError(t, err)

	assert.Equal(t, "codesynapse", export.Metadata.Tool)
	assert.Equal(t, "/tmp/app", export.Metadata.ProjectPath)
	assert.NotEmpty(t, export.Metadata.GeneratedAt)

	assert.Len(t, export.Nodes, 5)
	assert.Len(t, export.Edges, 4)

	assert.Equal(t, 1, export.Summary.NodesByKind["package"])
	assert.Equal(t, 1, export.Summary.NodesByKind["class"])
	assert.Equal(t, 3, export.Summary.EdgesByType["CONTAINS"])
	assert.Equal(t, 1, export.Summary.EdgesByType["IMPORTS"])
	assert.Equal(t, []string{"requests"}, export.Summary.ExternalDependencies)
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	store := sampleStore(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(context.Background(), store, "/tmp/app", &buf))

	var decoded GraphExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Nodes, 5)
	assert.Equal(t, "CONTAINS", decoded.Edges[0].Type)
}

func TestGenerateMermaid(t *testing.T) {
	store := sampleStore(t)

	out, err := GenerateMermaid(context.Background(), store)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "graph LR", lines[0])
	// 5 node lines + 4 edge lines.
	assert.Len(t, lines, 10)

	assert.Contains(t, out, `["app"]`, "packages render as rectangles")
	assert.Contains(t, out, `(["Engine"])`, "classes render as stadiums")
	assert.Contains(t, out, `(("start"))`, "functions render as circles")
	assert.Contains(t, out, `[("requests")]`, "externals render as cylinders")
	assert.Contains(t, out, "==>", "imports render as thick arrows")
	assert.Contains(t, out, "-->", "containment renders as plain arrows")
	assert.NotContains(t, out, "-.->", "no inheritance edges in this graph")
}

func TestWriteHTML(t *testing.T) {
	store := sampleStore(t)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(context.Background(), store, "app", &buf))
	out := buf.String()

	assert.Contains(t, out, "<title>app</title>")
	assert.Contains(t, out, "vis-network")

	// Node labels carry display names; titles carry qualified names.
	assert.Contains(t, out, `"label":"Engine"`)
	assert.Contains(t, out, `"title":"app.core.Engine"`)

	// Kind styling comes through the node payload.
	assert.Contains(t, out, `"shape":"database"`)
	assert.Contains(t, out, `"color":"#BBDEFB"`)
}
