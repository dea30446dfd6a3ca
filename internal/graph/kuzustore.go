//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph
// backend. It requires CGO because the go-kuzu driver wraps KuzuDB's C
// library. Used to persist a built graph under the project's
// .codesynapse/graph directory so exports can rerun without re-parsing.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself for new
// databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema. The node
// table must precede the relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Entity(
		qualified_name STRING,
		display_name STRING,
		kind STRING,
		source_location STRING,
		start_line INT64,
		end_line INT64,
		complexity INT64,
		PRIMARY KEY(qualified_name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS CONTAINS(FROM Entity TO Entity)`,
	`CREATE REL TABLE IF NOT EXISTS INHERITS(FROM Entity TO Entity)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM Entity TO Entity)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddEntity inserts an entity node unless its identity already exists.
func (s *KuzuStore) AddEntity(ctx context.Context, ent Entity) error {
	existing, err := s.GetEntity(ctx, ent.QualifiedName)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.exec(
		`CREATE (e:Entity {
			qualified_name: $qn,
			display_name: $dn,
			kind: $kind,
			source_location: $loc,
			start_line: $sl,
			end_line: $el,
			complexity: $cx
		})`,
		map[string]any{
			"qn":   ent.QualifiedName,
			"dn":   ent.DisplayName,
			"kind": string(ent.Kind),
			"loc":  ent.SourceLocation,
			"sl":   int64(ent.StartLine),
			"el":   int64(ent.EndLine),
			"cx":   int64(ent.Complexity),
		},
	)
}

// AddEdge inserts a relationship edge unless the same identity exists.
func (s *KuzuStore) AddEdge(_ context.Context, rel Relation) error {
	table, err := edgeTable(rel.Kind)
	if err != nil {
		return err
	}

	rows, err := s.query(
		fmt.Sprintf(`MATCH (a:Entity {qualified_name: $src})-[r:%s]->(b:Entity {qualified_name: $dst})
			RETURN count(r)`, table),
		map[string]any{"src": rel.Source, "dst": rel.Target},
	)
	if err == nil && len(rows) > 0 && toInt(rows[0][0]) > 0 {
		return nil
	}

	return s.exec(
		fmt.Sprintf(`MATCH (a:Entity {qualified_name: $src}), (b:Entity {qualified_name: $dst})
			CREATE (a)-[:%s]->(b)`, table),
		map[string]any{"src": rel.Source, "dst": rel.Target},
	)
}

// edgeTable maps an EdgeKind to its relationship table name.
func edgeTable(kind EdgeKind) (string, error) {
	switch kind {
	case EdgeKindContains:
		return "CONTAINS", nil
	case EdgeKindInherits:
		return "INHERITS", nil
	case EdgeKindImports:
		return "IMPORTS", nil
	default:
		return "", fmt.Errorf("kuzu: unsupported edge kind: %s", kind)
	}
}

// Reset drops every entity node together with its relationships.
func (s *KuzuStore) Reset(_ context.Context) error {
	res, err := s.conn.Query(`MATCH (e:Entity) DETACH DELETE e`)
	if err != nil {
		return fmt.Errorf("kuzu: reset: %w", err)
	}
	res.Close()
	return nil
}

// ---------- Read operations ----------

const entityColumns = `e.qualified_name, e.display_name, e.kind, e.source_location, e.start_line, e.end_line, e.complexity`

// GetEntity retrieves a single entity by qualified name, or nil if absent.
func (s *KuzuStore) GetEntity(_ context.Context, qualifiedName string) (*Entity, error) {
	rows, err := s.query(
		`MATCH (e:Entity {qualified_name: $qn}) RETURN `+entityColumns,
		map[string]any{"qn": qualifiedName},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToEntity(rows[0]), nil
}

// QueryEntities returns entities whose qualified name contains the query
// string, optionally filtered by kind.
func (s *KuzuStore) QueryEntities(_ context.Context, queryStr string, kind EntityKind, limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := `MATCH (e:Entity) WHERE lower(e.qualified_name) CONTAINS lower($q)`
	params := map[string]any{"q": queryStr, "lim": int64(limit)}
	if kind != "" {
		cypher += ` AND e.kind = $kind`
		params["kind"] = string(kind)
	}
	cypher += ` RETURN ` + entityColumns + ` ORDER BY e.qualified_name LIMIT $lim`

	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToEntity(r))
	}
	return out, nil
}

// Entities returns all entity nodes ordered by qualified name.
func (s *KuzuStore) Entities(_ context.Context) ([]Entity, error) {
	rows, err := s.query(
		`MATCH (e:Entity) RETURN `+entityColumns+` ORDER BY e.qualified_name`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToEntity(r))
	}
	return out, nil
}

// Edges returns all edges across all relationship tables.
func (s *KuzuStore) Edges(_ context.Context) ([]Relation, error) {
	var edges []Relation
	for _, kind := range []EdgeKind{EdgeKindContains, EdgeKindInherits, EdgeKindImports} {
		table, _ := edgeTable(kind)
		rows, err := s.query(
			fmt.Sprintf(`MATCH (a:Entity)-[:%s]->(b:Entity)
				RETURN a.qualified_name, b.qualified_name
				ORDER BY a.qualified_name, b.qualified_name`, table),
			nil,
		)
		if err != nil {
			// Table may not exist yet; skip.
			continue
		}
		for _, r := range rows {
			edges = append(edges, Relation{
				Source: toString(r[0]),
				Target: toString(r[1]),
				Kind:   kind,
			})
		}
	}
	return edges, nil
}

// ---------- Graph traversal ----------

// Dependencies performs a BFS over all edge tables from the given entity.
func (s *KuzuStore) Dependencies(_ context.Context, qualifiedName string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{qualifiedName: true}
	queue := []bfsEntry{{path: []string{qualifiedName}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.entityNeighbors(tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{
				Nodes: newPath,
				Depth: cur.depth + 1,
			})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// entityNeighbors returns immediate neighbors along any edge kind.
func (s *KuzuStore) entityNeighbors(qualifiedName string, dir Direction) ([]string, error) {
	var out []string
	for _, table := range []string{"CONTAINS", "INHERITS", "IMPORTS"} {
		var cypher string
		switch dir {
		case DirectionDownstream:
			cypher = fmt.Sprintf(
				`MATCH (a:Entity {qualified_name: $qn})-[:%s]->(b:Entity) RETURN b.qualified_name ORDER BY b.qualified_name`, table)
		case DirectionUpstream:
			cypher = fmt.Sprintf(
				`MATCH (a:Entity)-[:%s]->(b:Entity {qualified_name: $qn}) RETURN a.qualified_name ORDER BY a.qualified_name`, table)
		default:
			return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
		}
		rows, err := s.query(cypher, map[string]any{"qn": qualifiedName})
		if err != nil {
			continue
		}
		for _, r := range rows {
			out = append(out, toString(r[0]))
		}
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns per-kind entity counts and the edge count.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	stats := &GraphStats{}

	rows, err := s.query(`MATCH (e:Entity) RETURN e.kind, count(e)`, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		n := toInt(r[1])
		switch EntityKind(toString(r[0])) {
		case KindPackage:
			stats.PackageCount = n
		case KindModule:
			stats.ModuleCount = n
		case KindClass:
			stats.ClassCount = n
		case KindFunction:
			stats.FunctionCount = n
		case KindExternal:
			stats.ExternalCount = n
		}
	}

	for _, table := range []string{"CONTAINS", "INHERITS", "IMPORTS"} {
		cypher := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", table)
		rows, err := s.query(cypher, nil)
		if err != nil {
			continue
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			stats.EdgeCount += toInt(rows[0][0])
		}
	}
	return stats, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// rowToEntity converts a 7-column result row into an Entity. Column order
// matches entityColumns.
func rowToEntity(r []any) *Entity {
	return &Entity{
		QualifiedName:  toString(r[0]),
		DisplayName:    toString(r[1]),
		Kind:           EntityKind(toString(r[2])),
		SourceLocation: toString(r[3]),
		StartLine:      toInt(r[4]),
		EndLine:        toInt(r[5]),
		Complexity:     toInt(r[6]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
