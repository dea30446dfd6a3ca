package graph

import (
	"context"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
// Entities and edges are additionally kept in insertion order so that
// repeated builds over the same input enumerate identically.
type MemStore struct {
	mu       sync.RWMutex
	entities map[string]Entity
	order    []string
	edges    []Relation
	edgeSet  map[Relation]bool
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		entities: make(map[string]Entity),
		edgeSet:  make(map[Relation]bool),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddEntity stores an entity keyed by its qualified name. Re-adding an
// existing identity is a no-op: the first write wins.
func (m *MemStore) AddEntity(_ context.Context, ent Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[ent.QualifiedName]; ok {
		return nil
	}
	m.entities[ent.QualifiedName] = ent
	m.order = append(m.order, ent.QualifiedName)
	return nil
}

// AddEdge appends an edge unless the same (source, target, kind) identity
// is already present.
func (m *MemStore) AddEdge(_ context.Context, rel Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edgeSet[rel] {
		return nil
	}
	m.edgeSet[rel] = true
	m.edges = append(m.edges, rel)
	return nil
}

// Reset drops all entities and edges.
func (m *MemStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = make(map[string]Entity)
	m.order = nil
	m.edges = nil
	m.edgeSet = make(map[Relation]bool)
	return nil
}

// GetEntity returns the entity for the given qualified name, or nil if not
// found.
func (m *MemStore) GetEntity(_ context.Context, qualifiedName string) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ent, ok := m.entities[qualifiedName]
	if !ok {
		return nil, nil
	}
	return &ent, nil
}

// QueryEntities returns entities whose qualified name contains query
// (case-insensitive), optionally filtered by kind, up to limit results.
// A limit <= 0 returns all matches. Results follow insertion order.
func (m *MemStore) QueryEntities(_ context.Context, query string, kind EntityKind, limit int) ([]Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []Entity
	for _, qn := range m.order {
		ent := m.entities[qn]
		if kind != "" && ent.Kind != kind {
			continue
		}
		if !strings.Contains(strings.ToLower(ent.QualifiedName), lowerQuery) {
			continue
		}
		results = append(results, ent)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Entities returns all entities in insertion order.
func (m *MemStore) Entities(_ context.Context) ([]Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entity, 0, len(m.order))
	for _, qn := range m.order {
		out = append(out, m.entities[qn])
	}
	return out, nil
}

// Edges returns a copy of all edges in insertion order.
func (m *MemStore) Edges(_ context.Context) ([]Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Relation, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Dependencies performs a BFS on edges from the given entity in the given
// direction, up to maxDepth hops. It returns one DependencyChain per
// reachable entity.
func (m *MemStore) Dependencies(_ context.Context, qualifiedName string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{qualifiedName: true}
	queue := []bfsEntry{{id: qualifiedName, path: []string{qualifiedName}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}

	return chains, nil
}

// neighbors returns qualified names reachable from id in one hop along the
// given direction.
func (m *MemStore) neighbors(id string, direction Direction) []string {
	var result []string
	for _, e := range m.edges {
		switch direction {
		case DirectionDownstream:
			if e.Source == id {
				result = append(result, e.Target)
			}
		case DirectionUpstream:
			if e.Target == id {
				result = append(result, e.Source)
			}
		}
	}
	return result
}

// Stats returns per-kind entity counts and the edge count.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{EdgeCount: len(m.edges)}
	for _, ent := range m.entities {
		switch ent.Kind {
		case KindPackage:
			stats.PackageCount++
		case KindModule:
			stats.ModuleCount++
		case KindClass:
			stats.ClassCount++
		case KindFunction:
			stats.FunctionCount++
		case KindExternal:
			stats.ExternalCount++
		}
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
