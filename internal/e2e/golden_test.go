//go:build e2e

package e2e

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/codesynapse/internal/export"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

// TestGolden_Mermaid compares the Mermaid rendering of the fixture project
// against the checked-in golden file. Extraction is deterministic, so the
// diagram must be byte-identical across runs.
func TestGolden_Mermaid(t *testing.T) {
	store, _ := buildProject(t)

	mermaid, err := export.GenerateMermaid(context.Background(), store)
	require.NoError(t, err)

	goldenPath := filepath.Join(goldenDir(), "py_project.mmd")
	if *update {
		require.NoError(t, os.MkdirAll(goldenDir(), 0o755))
		require.NoError(t, os.WriteFile(goldenPath, []byte(mermaid), 0o644))
		t.Logf("updated %s", goldenPath)
		return
	}

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "golden file missing; run with -update to create it")
	assert.Equal(t, string(want), mermaid)
}
