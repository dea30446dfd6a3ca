//go:build cgo

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/synapse-labs/codesynapse/internal/graph"
)

// persistGraph copies the in-memory graph into an embedded Kuzu database
// under <project>/.codesynapse/graph, replacing any previous one.
func persistGraph(ctx context.Context, src graph.Store, projectRoot string) error {
	dir := filepath.Join(projectRoot, ".codesynapse")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dbPath := filepath.Join(dir, "graph")
	if err := os.RemoveAll(dbPath); err != nil {
		return err
	}

	dst, err := graph.NewKuzuFileStore(dbPath)
	if err != nil {
		return fmt.Errorf("open graph database: %w", err)
	}
	defer dst.Close()

	if err := dst.InitSchema(ctx); err != nil {
		return err
	}
	return graph.CopyStore(ctx, src, dst)
}
