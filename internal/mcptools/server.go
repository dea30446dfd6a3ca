package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewStructureMCPServer creates an MCP server with all 4 project structure
// tools registered.
func NewStructureMCPServer(svc *StructureService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codesynapse",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_graph",
		Description: "Analyze a Python project and build its structure graph. Walks the file tree, parses source files using tree-sitter, extracts packages, modules, classes and functions, and resolves containment, inheritance and import relationships.",
	}, svc.BuildGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_entities",
		Description: "Search for entities (packages, modules, classes, functions, external libraries) by qualified-name substring match. Optionally filter by kind and limit results.",
	}, svc.QueryEntities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relationships",
		Description: "Traverse the relationship graph upstream or downstream from an entity. Returns relationship chains up to the specified depth.",
	}, svc.GetRelationships)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Return entity and edge counts for the most recently built graph.",
	}, svc.GraphStats)

	return server
}

// RunStructureMCPServerStdio runs the MCP server on stdio transport,
// blocking until stdin is closed or the context is cancelled.
func RunStructureMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
