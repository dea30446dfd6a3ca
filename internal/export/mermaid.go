package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/synapse-labs/codesynapse/internal/graph"
)

// GenerateMermaid produces a Mermaid "graph LR" diagram from a graph store.
// Node shape encodes entity kind; line style encodes edge type.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	entities, err := store.Entities(ctx)
	if err != nil {
		return "", fmt.Errorf("list entities: %w", err)
	}
	edges, err := store.Edges(ctx)
	if err != nil {
		return "", fmt.Errorf("list edges: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string, len(entities))
	nextID := 0
	getID := func(qn string) string {
		if id, ok := nodeIDs[qn]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[qn] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, ent := range entities {
		open, close_ := nodeBrackets(ent.Kind)
		sb.WriteString(fmt.Sprintf("  %s%s\"%s\"%s\n", getID(ent.QualifiedName), open, ent.DisplayName, close_))
	}

	for _, e := range edges {
		srcID := getID(e.Source)
		tgtID := getID(e.Target)
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", srcID, edgeArrow(e.Kind), tgtID))
	}

	return sb.String(), nil
}

// nodeBrackets maps an entity kind to Mermaid shape delimiters.
func nodeBrackets(kind graph.EntityKind) (string, string) {
	switch kind {
	case graph.KindPackage, graph.KindModule:
		return "[", "]" // rectangle
	case graph.KindClass:
		return "([", "])" // stadium
	case graph.KindFunction:
		return "((", "))" // circle
	case graph.KindExternal:
		return "[(", ")]" // cylinder
	default:
		return "[", "]"
	}
}

// edgeArrow maps an edge kind to a Mermaid arrow style.
func edgeArrow(kind graph.EdgeKind) string {
	switch kind {
	case graph.EdgeKindInherits:
		return "-.->"
	case graph.EdgeKindImports:
		return "==>"
	default:
		return "-->"
	}
}
