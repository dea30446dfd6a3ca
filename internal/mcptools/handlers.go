package mcptools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/synapse-labs/codesynapse/internal/graph"
)

// StructureService holds the graph store and parser used by MCP tool
// handlers. One service instance serves all tools; build_graph replaces the
// store's contents wholesale on each call.
type StructureService struct {
	store  graph.Store
	parser graph.Parser
}

// NewStructureService creates a StructureService with the given store and
// parser.
func NewStructureService(store graph.Store, parser graph.Parser) *StructureService {
	return &StructureService{store: store, parser: parser}
}

// BuildGraph walks a project, parses source files, and populates the graph
// store. Returns graph statistics and any per-file warnings.
func (s *StructureService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	if input.ProjectPath == "" {
		return nil, BuildGraphOutput{}, fmt.Errorf("projectPath is required")
	}

	info, err := os.Stat(input.ProjectPath)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("cannot access projectPath: %w", err)
	}
	if !info.IsDir() {
		return nil, BuildGraphOutput{}, fmt.Errorf("projectPath is not a directory: %s", input.ProjectPath)
	}

	// The store is long-lived across tool calls; graphs never merge, so a
	// rebuild starts from an empty store.
	if err := s.store.Reset(ctx); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("reset store: %w", err)
	}

	builder := graph.NewBuilder(input.ProjectPath, s.parser, s.store, graph.BuildOptions{
		ExcludeDirs: input.ExcludeDirs,
	})
	result, err := builder.Build(ctx)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("build graph: %w", err)
	}

	return nil, BuildGraphOutput{
		Stats:    result.Stats,
		Warnings: result.Warnings,
	}, nil
}

// QueryEntities searches for entities by qualified-name substring match.
func (s *StructureService) QueryEntities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryEntitiesInput,
) (*mcp.CallToolResult, QueryEntitiesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	kind := graph.EntityKind(strings.ToLower(input.Kind))
	entities, err := s.store.QueryEntities(ctx, input.Query, kind, limit)
	if err != nil {
		return nil, QueryEntitiesOutput{}, fmt.Errorf("query entities: %w", err)
	}

	return nil, QueryEntitiesOutput{
		Entities: entities,
		Total:    len(entities),
	}, nil
}

// GetRelationships traverses the relationship graph from a given entity.
func (s *StructureService) GetRelationships(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRelationshipsInput,
) (*mcp.CallToolResult, GetRelationshipsOutput, error) {
	if input.QualifiedName == "" {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("qualifiedName is required")
	}

	direction := graph.DirectionDownstream
	if strings.EqualFold(input.Direction, "upstream") {
		direction = graph.DirectionUpstream
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	chains, err := s.store.Dependencies(ctx, input.QualifiedName, direction, maxDepth)
	if err != nil {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("get relationships: %w", err)
	}

	return nil, GetRelationshipsOutput{Chains: chains}, nil
}

// GraphStats returns the current graph's summary statistics.
func (s *StructureService) GraphStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GraphStatsInput,
) (*mcp.CallToolResult, GraphStatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, GraphStatsOutput{}, fmt.Errorf("stats: %w", err)
	}

	return nil, GraphStatsOutput{Stats: *stats}, nil
}
