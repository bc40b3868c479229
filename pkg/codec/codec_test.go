package codec

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePoints = []models.GeoPoint{
	{Lat: 45.0, Lon: 10.0, Accuracy: 3.5, RecordedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	models.NewGeoPoint(-33.8688, 151.2093),
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"points.json":      FormatJSON,
		"points.JSONL":     FormatJSONL,
		"points.ndjson":    FormatJSONL,
		"points.yml":       FormatYAML,
		"points.yaml":      FormatYAML,
		"points.geojson":   FormatGeoJSON,
		"points":           FormatJSON,
		"dir.v2/points.gz": FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, format, samplePoints))

			got, err := Decode(context.Background(), &buf, format)
			require.NoError(t, err)
			require.Len(t, got, len(samplePoints))
			for i := range samplePoints {
				assert.Equal(t, samplePoints[i].Lat, got[i].Lat)
				assert.Equal(t, samplePoints[i].Lon, got[i].Lon)
				assert.Equal(t, samplePoints[i].Accuracy, got[i].Accuracy)
				assert.True(t, samplePoints[i].RecordedAt.Equal(got[i].RecordedAt))
			}
		})
	}
}

func TestEncodeEmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestGeoJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatGeoJSON, samplePoints))

	out := buf.String()
	assert.Contains(t, out, `"type":"FeatureCollection"`)
	// GeoJSON puts longitude first
	assert.Contains(t, out, `"coordinates":[10,45]`)
	assert.Contains(t, out, `"bbox":[10,-33.8688,151.2093,45]`)
}

func TestDecodeGeoJSONSkipsOtherGeometries(t *testing.T) {
	input := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [13.405, 52.52]}, "properties": {}},
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {}},
			{"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[2, 1], [4, 3]]}, "properties": {"accuracy": 8}}
		]
	}`
	got, err := Decode(context.Background(), strings.NewReader(input), FormatGeoJSON)
	require.NoError(t, err)
	assert.Equal(t, []models.GeoPoint{
		models.NewGeoPoint(52.52, 13.405),
		{Lat: 1, Lon: 2, Accuracy: 8},
		{Lat: 3, Lon: 4, Accuracy: 8},
	}, got)
}

func TestDecodeJSONLReportsBadLines(t *testing.T) {
	input := "{\"lat\": 1, \"lon\": 1}\nbad\n{\"lat\": 2, \"lon\": 2}\n"
	got, err := Decode(context.Background(), strings.NewReader(input), FormatJSONL)
	assert.Error(t, err)
	assert.Len(t, got, 2)
}

func TestUnknownFormat(t *testing.T) {
	assert.Error(t, Encode(&bytes.Buffer{}, "csv", nil))
	_, err := Decode(context.Background(), strings.NewReader(""), "csv")
	assert.Error(t, err)
}
