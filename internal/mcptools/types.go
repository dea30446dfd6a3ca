package mcptools

import "github.com/synapse-labs/codesynapse/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct {
	ProjectPath string   `json:"projectPath" jsonschema:"the absolute path to the project root to analyze"`
	ExcludeDirs []string `json:"excludeDirs,omitempty" jsonschema:"directories to exclude from discovery (e.g. venv, build)"`
}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Stats    graph.GraphStats `json:"stats"`
	Warnings []graph.Warning  `json:"warnings,omitempty"`
}

// QueryEntitiesInput is the input for the query_entities MCP tool.
type QueryEntitiesInput struct {
	Query string `json:"query" jsonschema:"search query matched against qualified names (substring, case-insensitive)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by entity kind: package, module, class, function, external"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryEntitiesOutput is the result of the query_entities MCP tool.
type QueryEntitiesOutput struct {
	Entities []graph.Entity `json:"entities"`
	Total    int            `json:"total"`
}

// GetRelationshipsInput is the input for the get_relationships MCP tool.
type GetRelationshipsInput struct {
	QualifiedName string `json:"qualifiedName" jsonschema:"qualified name of the entity to traverse from"`
	Direction     string `json:"direction,omitempty" jsonschema:"upstream (what points at it) or downstream (what it points at). Default: downstream"`
	MaxDepth      int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetRelationshipsOutput is the result of the get_relationships MCP tool.
type GetRelationshipsOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// GraphStatsInput is the input for the graph_stats MCP tool.
type GraphStatsInput struct{}

// GraphStatsOutput is the result of the graph_stats MCP tool.
type GraphStatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}
