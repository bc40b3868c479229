package memory

import (
	"context"
	"testing"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndSelect(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Insert(ctx, models.NewGeoPoint(52.52, 13.405)))
	require.NoError(t, s.InsertBatch(ctx, []models.GeoPoint{
		models.NewGeoPoint(48.8566, 2.3522),
		models.NewGeoPoint(51.5074, -0.1278),
	}))
	assert.Equal(t, 3, s.Len())

	all, err := s.SelectAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Berlin and Paris only
	inBox, err := s.SelectInBox(ctx, models.NewBoundingBox(45, 0, 55, 20))
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.GeoPoint{
		models.NewGeoPoint(52.52, 13.405),
		models.NewGeoPoint(48.8566, 2.3522),
	}, inBox)
}

func TestSelectAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Insert(ctx, models.NewGeoPoint(1, 1)))

	all, err := s.SelectAll(ctx)
	require.NoError(t, err)
	all[0].Lat = 50

	again, err := s.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0].Lat)
}

func TestDeleteAllAndClose(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Insert(ctx, models.NewGeoPoint(1, 1)))
	require.NoError(t, s.DeleteAll(ctx))
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Insert(ctx, models.NewGeoPoint(1, 1)), ErrClosed)
	_, err := s.SelectAll(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	assert.ErrorIs(t, s.Insert(ctx, models.NewGeoPoint(1, 1)), context.Canceled)
	assert.Equal(t, 0, s.Len())
}
