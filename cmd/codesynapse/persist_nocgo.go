//go:build !cgo

package main

import (
	"context"
	"fmt"

	"github.com/synapse-labs/codesynapse/internal/graph"
)

func persistGraph(_ context.Context, _ graph.Store, _ string) error {
	return fmt.Errorf("graph persistence requires a cgo-enabled build")
}
