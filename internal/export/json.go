package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/synapse-labs/codesynapse/internal/graph"
)

// GraphExport is the top-level JSON export structure.
type GraphExport struct {
	Metadata Metadata       `json:"metadata"`
	Nodes    []graph.Entity `json:"nodes"`
	Edges    []EdgeExport   `json:"edges"`
	Summary  Summary        `json:"summary"`
}

// Metadata describes the export itself.
type Metadata struct {
	ProjectPath string `json:"projectPath,omitempty"`
	GeneratedAt string `json:"generatedAt"`
	Tool        string `json:"tool"`
	Version     string `json:"version"`
}

// EdgeExport is one directed typed edge.
type EdgeExport struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Summary aggregates node and edge counts plus the external dependency
// surface of the project.
type Summary struct {
	NodesByKind          map[string]int `json:"nodesByKind"`
	EdgesByType          map[string]int `json:"edgesByType"`
	ExternalDependencies []string       `json:"externalDependencies"`
}

// Version is stamped into export metadata; set by the linker at build time.
var Version = "dev"

// BuildJSON assembles a GraphExport from a store.
func BuildJSON(ctx context.Context, store graph.Store, projectPath string) (*GraphExport, error) {
	entities, err := store.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	edges, err := store.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}

	out := &GraphExport{
		Metadata: Metadata{
			ProjectPath: projectPath,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Tool:        "codesynapse",
			Version:     Version,
		},
		Nodes: entities,
		Summary: Summary{
			NodesByKind: make(map[string]int),
			EdgesByType: make(map[string]int),
		},
	}

	for _, ent := range entities {
		out.Summary.NodesByKind[string(ent.Kind)]++
		if ent.Kind == graph.KindExternal {
			out.Summary.ExternalDependencies = append(out.Summary.ExternalDependencies, ent.QualifiedName)
		}
	}
	sort.Strings(out.Summary.ExternalDependencies)

	out.Edges = make([]EdgeExport, 0, len(edges))
	for _, e := range edges {
		out.Edges = append(out.Edges, EdgeExport{
			Source: e.Source,
			Target: e.Target,
			Type:   string(e.Kind),
		})
		out.Summary.EdgesByType[string(e.Kind)]++
	}

	return out, nil
}

// WriteJSON serializes a store's graph as indented JSON.
func WriteJSON(ctx context.Context, store graph.Store, projectPath string, w io.Writer) error {
	export, err := BuildJSON(ctx, store, projectPath)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
