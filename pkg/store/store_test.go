package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/1F47E/geo-explored/pkg/config"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/store/file"
	"github.com/1F47E/geo-explored/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)
	require.NoError(t, st.Close())

	path := filepath.Join(t.TempDir(), "explored.gob")
	st, err = Open(ctx, config.StoreConfig{Driver: "file", Path: path})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, st)

	require.NoError(t, st.Insert(ctx, models.NewGeoPoint(1, 1)))
	require.NoError(t, st.Close())
	assert.FileExists(t, path)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite"})
	assert.ErrorContains(t, err, "unknown store driver")
}
