package graph

import (
	"context"
	"io"
)

// Store is the interface for the project graph backend.
// Implementations: MemStore (default), KuzuStore (persistent, cgo).
type Store interface {
	io.Closer

	// Schema setup — called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Both are idempotent: adding an entity or edge whose
	// identity is already present is a no-op, so external library nodes and
	// repeated relationships collapse instead of duplicating.
	AddEntity(ctx context.Context, ent Entity) error
	AddEdge(ctx context.Context, rel Relation) error

	// Reset drops every entity and edge. Graphs are rebuilt from scratch,
	// never merged across builds; callers reusing a store across builds
	// reset it first.
	Reset(ctx context.Context) error

	// Read operations.
	GetEntity(ctx context.Context, qualifiedName string) (*Entity, error)
	QueryEntities(ctx context.Context, query string, kind EntityKind, limit int) ([]Entity, error)

	// Full enumeration in insertion order, for export and invariants.
	Entities(ctx context.Context) ([]Entity, error)
	Edges(ctx context.Context) ([]Relation, error)

	// Graph traversal.
	Dependencies(ctx context.Context, qualifiedName string, direction Direction, maxDepth int) ([]DependencyChain, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls relationship traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what points at this entity?
	DirectionDownstream Direction = "downstream" // what does this entity point at?
)

// CopyStore replays every entity and edge from src into dst, preserving
// insertion order. Used to persist an in-memory graph to a file-backed
// store after a build.
func CopyStore(ctx context.Context, src, dst Store) error {
	entities, err := src.Entities(ctx)
	if err != nil {
		return err
	}
	for _, ent := range entities {
		if err := dst.AddEntity(ctx, ent); err != nil {
			return err
		}
	}

	edges, err := src.Edges(ctx)
	if err != nil {
		return err
	}
	for _, rel := range edges {
		if err := dst.AddEdge(ctx, rel); err != nil {
			return err
		}
	}
	return nil
}
