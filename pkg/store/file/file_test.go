package file

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "explored.gob")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())

	recorded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	points := []models.GeoPoint{
		{Lat: 45.0, Lon: 10.0, Accuracy: 4.5, RecordedAt: recorded},
		models.NewGeoPoint(45.1, 10.1),
	}
	require.NoError(t, s.InsertBatch(ctx, points))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	loaded, err := reopened.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 4.5, loaded[0].Accuracy)
	assert.True(t, recorded.Equal(loaded[0].RecordedAt))
	assert.Equal(t, 45.1, loaded[1].Lat)
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.gob"))
	require.NoError(t, err)

	all, err := s.SelectAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.gob")
	f, err := os.Create(path)
	require.NoError(t, err)
	data := fileData{Points: []models.GeoPoint{models.NewGeoPoint(1, 1)}, Count: 2}
	require.NoError(t, gob.NewEncoder(f).Encode(data))
	require.NoError(t, f.Close())

	_, err = Open(path)
	assert.ErrorContains(t, err, "header says 2 points, found 1")
}

func TestFailedSaveKeepsState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "explored.gob"))
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, models.NewGeoPoint(1, 1)))

	// removing the directory makes the temp file creation fail
	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Insert(ctx, models.NewGeoPoint(2, 2)))

	all, err := s.SelectAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSelectInBoxAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "explored.gob")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.InsertBatch(ctx, []models.GeoPoint{
		models.NewGeoPoint(10, 10),
		models.NewGeoPoint(20, 20),
	}))
	inBox, err := s.SelectInBox(ctx, models.NewBoundingBox(5, 5, 15, 15))
	require.NoError(t, err)
	assert.Equal(t, []models.GeoPoint{models.NewGeoPoint(10, 10)}, inBox)

	require.NoError(t, s.DeleteAll(ctx))
	reopened, err := Open(path)
	require.NoError(t, err)
	all, err := reopened.SelectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClosed(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "explored.gob"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Insert(context.Background(), models.NewGeoPoint(1, 1)), ErrClosed)
}
