package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.GeoPoint
		wantErr bool
	}{
		{
			name:  "minimal",
			input: `{"lat": 45.0, "lon": 10.0}`,
			want:  models.NewGeoPoint(45.0, 10.0),
		},
		{
			name:  "full",
			input: `{"lat": -33.8688, "lon": 151.2093, "accuracy": 4.5, "recorded_at": "2024-05-01T12:00:00Z"}`,
			want: models.GeoPoint{
				Lat:        -33.8688,
				Lon:        151.2093,
				Accuracy:   4.5,
				RecordedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "zero coordinates are present",
			input: `{"lat": 0, "lon": 0}`,
			want:  models.NewGeoPoint(0, 0),
		},
		{name: "missing lon", input: `{"lat": 45.0}`, wantErr: true},
		{name: "not json", input: `45.0,10.0`, wantErr: true},
		{name: "wrong type", input: `{"lat": "north", "lon": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFix([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadFix)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.RecordedAt.Equal(got.RecordedAt))
			got.RecordedAt = tt.want.RecordedAt
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFixes(t *testing.T) {
	single, err := DecodeFixes([]byte(` {"lat": 1, "lon": 2} `))
	require.NoError(t, err)
	assert.Equal(t, []models.GeoPoint{models.NewGeoPoint(1, 2)}, single)

	many, err := DecodeFixes([]byte(`[{"lat": 1, "lon": 2}, {"lat": 3, "lon": 4}]`))
	require.NoError(t, err)
	assert.Equal(t, []models.GeoPoint{models.NewGeoPoint(1, 2), models.NewGeoPoint(3, 4)}, many)

	_, err = DecodeFixes([]byte(`[{"lat": 1, "lon": 2}, {"lat": 3}]`))
	assert.ErrorIs(t, err, ErrBadFix)

	_, err = DecodeFixes(nil)
	assert.ErrorIs(t, err, ErrBadFix)
}

func TestReadLines(t *testing.T) {
	input := strings.Join([]string{
		`{"lat": 45.0, "lon": 10.0}`,
		``,
		`garbage`,
		`{"lat": 45.001, "lon": 10.001}`,
		`   `,
		`{"lat": 200, "lon": 0}`,
	}, "\n")

	var got []models.GeoPoint
	stats, err := ReadLines(context.Background(), strings.NewReader(input), func(p models.GeoPoint) {
		got = append(got, p)
	})
	require.NoError(t, err)
	assert.Equal(t, ReadStats{Lines: 4, Decoded: 3, Failed: 1}, stats)
	assert.Equal(t, []models.GeoPoint{
		models.NewGeoPoint(45.0, 10.0),
		models.NewGeoPoint(45.001, 10.001),
		models.NewGeoPoint(200, 0),
	}, got)
}

func TestReadLinesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := ReadLines(ctx, strings.NewReader(`{"lat": 1, "lon": 1}`+"\n"), func(models.GeoPoint) { calls++ })
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, calls)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestReadLinesReadError(t *testing.T) {
	_, err := ReadLines(context.Background(), failingReader{}, func(models.GeoPoint) {})
	assert.ErrorContains(t, err, "broken pipe")
}
