package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogsCmd_TailWithFilters(t *testing.T) {
	// Given: a log file with three levels
	path := filepath.Join(t.TempDir(), "server.log")
	lines := []string{
		`{"time":"2026-01-02T03:04:05Z","level":"DEBUG","msg":"search_complete"}`,
		`{"time":"2026-01-02T03:04:06Z","level":"INFO","msg":"index_swapped","players":4}`,
		`{"time":"2026-01-02T03:04:07Z","level":"ERROR","msg":"rebuild_failed"}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	t.Run("level", func(t *testing.T) {
		out, err := execute(t, "logs", "--file", path, "--level", "info", "--no-color")

		require.NoError(t, err)
		assert.NotContains(t, out, "search_complete")
		assert.Contains(t, out, "index_swapped players=4")
		assert.Contains(t, out, "rebuild_failed")
	})

	t.Run("filter and lines", func(t *testing.T) {
		out, err := execute(t, "logs", "--file", path, "-n", "2", "--filter", "index", "--no-color")

		require.NoError(t, err)
		assert.Equal(t, "03:04:06.000 INFO  index_swapped players=4\n", out)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := execute(t, "logs", "--file", path, "--filter", "(")
		require.Error(t, err)
	})
}

func TestLogsCmd_NoDefaultLog(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := execute(t, "logs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoutsearch serve")
}
