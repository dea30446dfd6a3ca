package export

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/synapse-labs/codesynapse/internal/graph"
)

// nodeStyle is the fixed visual mapping for one entity kind.
type nodeStyle struct {
	Shape string
	Color string
	Size  int
}

// edgeStyle is the fixed visual mapping for one edge type.
type edgeStyle struct {
	Color  string
	Dashes []int // nil means solid
}

// nodeStyles maps entity kinds to shapes, colors and sizes. The styling
// table is fixed; the extraction core never depends on its contents.
var nodeStyles = map[graph.EntityKind]nodeStyle{
	graph.KindPackage:  {Shape: "box", Color: "#BBDEFB", Size: 35},
	graph.KindModule:   {Shape: "box", Color: "#E3F2FD", Size: 30},
	graph.KindClass:    {Shape: "ellipse", Color: "#F3E5F5", Size: 20},
	graph.KindFunction: {Shape: "dot", Color: "#E8F5E9", Size: 15},
	graph.KindExternal: {Shape: "database", Color: "#FFF9C4", Size: 15},
}

// edgeStyles maps edge types to line styles.
var edgeStyles = map[graph.EdgeKind]edgeStyle{
	graph.EdgeKindContains: {Color: "#888888"},
	graph.EdgeKindInherits: {Color: "#7B1FA2", Dashes: []int{8, 4}},
	graph.EdgeKindImports:  {Color: "#388E3C", Dashes: []int{2, 4}},
}

// visNode is one vis-network node.
type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Shape string `json:"shape"`
	Color string `json:"color"`
	Size  int    `json:"size"`
}

// visEdge is one vis-network edge.
type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Color  string `json:"color"`
	Dashes []int  `json:"dashes,omitempty"`
	Arrows string `json:"arrows"`
}

var htmlTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  html, body { margin: 0; padding: 0; height: 100%; }
  #graph { width: 100%; height: 100vh; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
  const nodes = new vis.DataSet({{.Nodes}});
  const edges = new vis.DataSet({{.Edges}});
  const container = document.getElementById("graph");
  const options = {
    layout: {
      hierarchical: {
        enabled: true,
        direction: "LR",
        sortMethod: "directed"
      }
    },
    physics: {
      hierarchicalRepulsion: { nodeDistance: 300, centralGravity: 0.5 }
    },
    edges: { smooth: true }
  };
  new vis.Network(container, { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`))

// WriteHTML renders a store's graph as a self-contained interactive HTML
// document. Labels show the display name; hovering reveals the full
// qualified name.
func WriteHTML(ctx context.Context, store graph.Store, title string, w io.Writer) error {
	entities, err := store.Entities(ctx)
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}
	edges, err := store.Edges(ctx)
	if err != nil {
		return fmt.Errorf("list edges: %w", err)
	}

	nodes := make([]visNode, 0, len(entities))
	for _, ent := range entities {
		style, ok := nodeStyles[ent.Kind]
		if !ok {
			style = nodeStyle{Shape: "dot", Color: "#CCCCCC", Size: 10}
		}
		nodes = append(nodes, visNode{
			ID:    ent.QualifiedName,
			Label: ent.DisplayName,
			Title: ent.QualifiedName,
			Shape: style.Shape,
			Color: style.Color,
			Size:  style.Size,
		})
	}

	visEdges := make([]visEdge, 0, len(edges))
	for _, e := range edges {
		style, ok := edgeStyles[e.Kind]
		if !ok {
			style = edgeStyle{Color: "#888888"}
		}
		visEdges = append(visEdges, visEdge{
			From:   e.Source,
			To:     e.Target,
			Color:  style.Color,
			Dashes: style.Dashes,
			Arrows: "to",
		})
	}

	nodeJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}
	edgeJSON, err := json.Marshal(visEdges)
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}

	return htmlTemplate.Execute(w, struct {
		Title string
		Nodes template.JS
		Edges template.JS
	}{
		Title: title,
		Nodes: template.JS(nodeJSON),
		Edges: template.JS(edgeJSON),
	})
}
