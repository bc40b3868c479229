package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   GeoPoint
		wantErr bool
	}{
		{"origin", NewGeoPoint(0, 0), false},
		{"corners", NewGeoPoint(90, 180), false},
		{"negative corners", NewGeoPoint(-90, -180), false},
		{"with accuracy", GeoPoint{Lat: 1, Lon: 1, Accuracy: 12}, false},
		{"nan lat", NewGeoPoint(math.NaN(), 0), true},
		{"inf lon", NewGeoPoint(0, math.Inf(1)), true},
		{"lat out of range", NewGeoPoint(90.0001, 0), true},
		{"lon out of range", NewGeoPoint(0, -180.5), true},
		{"negative accuracy", GeoPoint{Lat: 1, Lon: 1, Accuracy: -1}, true},
		{"nan accuracy", GeoPoint{Lat: 1, Lon: 1, Accuracy: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedPoint)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := NewBoundingBox(10, 20, 30, 40)

	assert.True(t, box.Contains(20, 30))
	assert.True(t, box.Contains(10, 20), "edges are inclusive")
	assert.True(t, box.Contains(30, 40), "edges are inclusive")
	assert.False(t, box.Contains(9.9999, 30))
	assert.False(t, box.Contains(20, 40.0001))
	assert.True(t, box.ContainsPoint(NewGeoPoint(15, 25)))
}

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{"world", World, false},
		{"degenerate", NewBoundingBox(1, 1, 1, 1), false},
		{"inverted lat", NewBoundingBox(30, 20, 10, 40), true},
		{"inverted lon", NewBoundingBox(10, 40, 30, 20), true},
		{"out of range", NewBoundingBox(-91, 0, 0, 0), true},
		{"nan", NewBoundingBox(math.NaN(), 0, 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBoundingBox)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilterBox(t *testing.T) {
	points := []GeoPoint{
		NewGeoPoint(1, 1),
		NewGeoPoint(5, 5),
		NewGeoPoint(10, 10),
	}
	got := FilterBox(points, NewBoundingBox(0, 0, 5, 5))
	assert.Equal(t, []GeoPoint{NewGeoPoint(1, 1), NewGeoPoint(5, 5)}, got)
	assert.Empty(t, FilterBox(points, NewBoundingBox(20, 20, 30, 30)))
}

func TestBoundingBoxString(t *testing.T) {
	assert.Equal(t, "[1.000000,2.000000 - 3.000000,4.000000]", NewBoundingBox(1, 2, 3, 4).String())
}
