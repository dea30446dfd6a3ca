package main

import (
	"context"

	"github.com/synapse-labs/codesynapse/internal/graph"
	"github.com/synapse-labs/codesynapse/internal/mcptools"
)

// runServeMCP exposes the extractor over MCP stdio. The store starts empty;
// clients populate it with the build_graph tool.
func runServeMCP(ctx context.Context) error {
	parser := graph.NewTreeSitterParser()
	defer parser.Close()

	store := graph.NewMemStore()
	defer store.Close()

	svc := mcptools.NewStructureService(store, parser)
	server := mcptools.NewStructureMCPServer(svc)
	return mcptools.RunStructureMCPServerStdio(ctx, server)
}
