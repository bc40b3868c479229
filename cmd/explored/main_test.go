package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), buf.String())
	return buf.String()
}

// resetFlags puts every flag back to its default between runs of the same tree
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EXPLORED_STORE_DRIVER", "file")
	t.Setenv("EXPLORED_STORE_PATH", filepath.Join(dir, "explored.gob"))
	t.Setenv("EXPLORED_LOG_LEVEL", "error")
	t.Setenv("EXPLORED_LOG_FORMAT", "json")
	return dir
}

func TestImportExport(t *testing.T) {
	dir := setupEnv(t)

	input := filepath.Join(dir, "walk.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"lat": 45.0, "lon": 10.0},
		{"lat": 45.00005, "lon": 10.00005},
		{"lat": 45.001, "lon": 10.001},
		{"lat": 95, "lon": 0}
	]`), 0o644))

	out := run(t, "import", input)
	assert.Regexp(t, `Added\s+2`, out)
	assert.Regexp(t, `Already explored\s+1`, out)
	assert.Regexp(t, `Rejected\s+1`, out)

	// stored points are loaded before importing, so nothing is added twice
	out = run(t, "import", input)
	assert.Regexp(t, `Added\s+0`, out)
	assert.Regexp(t, `Already explored\s+3`, out)

	geojsonOut := filepath.Join(dir, "explored.geojson")
	run(t, "export", "--output", geojsonOut, "--bbox", "")
	data, err := os.ReadFile(geojsonOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"coordinates":[10,45]`)
	assert.Contains(t, string(data), `"coordinates":[10.001,45.001]`)

	out = run(t, "query", "--bbox", "44.9,9.9,45.0005,10.0005")
	assert.Contains(t, out, "1 explored points")

	out = run(t, "query", "--lat", "45.001", "--lon", "10.001")
	assert.Contains(t, out, "explored")
	assert.NotContains(t, out, "not explored")
}

func TestParseBBox(t *testing.T) {
	box, err := parseBBox("44.9, 9.9, 45.1, 10.1")
	require.NoError(t, err)
	assert.Equal(t, models.NewBoundingBox(44.9, 9.9, 45.1, 10.1), box)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "10,0,5,1"} {
		_, err := parseBBox(bad)
		assert.ErrorIs(t, err, models.ErrInvalidBoundingBox, bad)
	}
}
