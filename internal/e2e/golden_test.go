//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/cgprof/internal/callgrind"
	"github.com/dusk-indust/cgprof/internal/export"
	"github.com/dusk-indust/cgprof/internal/graph"
)

var update = flag.Bool("update", false, "update golden files")

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

// renderGolden produces the stable outputs compared against golden files:
// the JSON export (without its timestamp) and the Mermaid diagram.
func renderGolden(t *testing.T, path string) map[string][]byte {
	t.Helper()
	ctx := context.Background()

	res, err := callgrind.NewParser(path, callgrind.WithLogger(testLogger())).Parse(ctx)
	require.NoError(t, err)

	exp := export.BuildProfileExport(filepath.Base(path), res)
	exp.ExportedAt = ""
	var js bytes.Buffer
	require.NoError(t, export.WriteJSON(&js, exp))

	store := graph.NewMemStore()
	_, err = graph.Load(ctx, store, res)
	require.NoError(t, err)
	mermaid, err := export.GenerateMermaid(ctx, store)
	require.NoError(t, err)

	base := filepath.Base(path)
	return map[string][]byte{
		base + ".json.golden": js.Bytes(),
		base + ".mmd.golden":  []byte(mermaid),
	}
}

// TestGolden compares exporter output against golden files. If golden files
// do not exist, the test is skipped with a message to run with -update.
func TestGolden(t *testing.T) {
	for _, path := range profilePaths(t) {
		for name, actual := range renderGolden(t, path) {
			t.Run(name, func(t *testing.T) {
				golden, err := os.ReadFile(filepath.Join(goldenDir(), name))
				if os.IsNotExist(err) {
					t.Skipf("golden file %s not found; run with -update to generate", name)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, string(golden), string(actual),
					"output for %s does not match golden file", name)
			})
		}
	}
}

// TestUpdateGolden regenerates golden files from the current exporters.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	require.NoError(t, os.MkdirAll(goldenDir(), 0o755))
	for _, path := range profilePaths(t) {
		for name, data := range renderGolden(t, path) {
			require.NoError(t, os.WriteFile(filepath.Join(goldenDir(), name), data, 0o644))
			t.Logf("updated %s", name)
		}
	}
}
