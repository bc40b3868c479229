// Package codec reads and writes point lists in the formats the CLI
// imports and exports.
package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/1F47E/geo-explored/pkg/feed"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON    = "json"
	FormatJSONL   = "jsonl"
	FormatYAML    = "yaml"
	FormatGeoJSON = "geojson"
)

// Formats lists every supported format
var Formats = []string{FormatJSON, FormatJSONL, FormatYAML, FormatGeoJSON}

// FormatFromPath guesses the format from a file extension, defaulting to JSON
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	case ".geojson":
		return FormatGeoJSON
	}
	return FormatJSON
}

// Encode writes points to w in format
func Encode(w io.Writer, format string, points []models.GeoPoint) error {
	switch format {
	case FormatJSON:
		if points == nil {
			points = []models.GeoPoint{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(points)

	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, p := range points {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(points); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	case FormatGeoJSON:
		data, err := ToFeatureCollection(points).MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode geojson: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

// Decode reads points from r in format. Points are not validated.
func Decode(ctx context.Context, r io.Reader, format string) ([]models.GeoPoint, error) {
	switch format {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return feed.DecodeFixes(data)

	case FormatJSONL:
		var points []models.GeoPoint
		stats, err := feed.ReadLines(ctx, r, func(p models.GeoPoint) {
			points = append(points, p)
		})
		if err != nil {
			return points, err
		}
		if stats.Failed > 0 {
			return points, fmt.Errorf("%w: %d of %d lines", feed.ErrBadFix, stats.Failed, stats.Lines)
		}
		return points, nil

	case FormatYAML:
		var points []models.GeoPoint
		if err := yaml.NewDecoder(r).Decode(&points); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
		return points, nil

	case FormatGeoJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode geojson: %w", err)
		}
		return FromFeatureCollection(fc), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// ToFeatureCollection turns every point into a Point feature. Accuracy and
// time go into the feature properties when known.
func ToFeatureCollection(points []models.GeoPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		pt := orb.Point{p.Lon, p.Lat}
		mp = append(mp, pt)

		f := geojson.NewFeature(pt)
		if p.Accuracy > 0 {
			f.Properties["accuracy"] = p.Accuracy
		}
		if !p.RecordedAt.IsZero() {
			f.Properties["recorded_at"] = p.RecordedAt.UTC().Format(time.RFC3339Nano)
		}
		fc.Append(f)
	}
	if len(mp) > 0 {
		fc.BBox = geojson.NewBBox(mp.Bound())
	}
	return fc
}

// FromFeatureCollection collects Point and MultiPoint geometries; other
// geometry types are skipped
func FromFeatureCollection(fc *geojson.FeatureCollection) []models.GeoPoint {
	var points []models.GeoPoint
	for _, f := range fc.Features {
		var pts []orb.Point
		switch g := f.Geometry.(type) {
		case orb.Point:
			pts = []orb.Point{g}
		case orb.MultiPoint:
			pts = g
		default:
			continue
		}

		accuracy := f.Properties.MustFloat64("accuracy", 0)
		var recordedAt time.Time
		if raw := f.Properties.MustString("recorded_at", ""); raw != "" {
			recordedAt, _ = time.Parse(time.RFC3339Nano, raw)
		}
		for _, pt := range pts {
			points = append(points, models.GeoPoint{
				Lat:        pt.Lat(),
				Lon:        pt.Lon(),
				Accuracy:   accuracy,
				RecordedAt: recordedAt,
			})
		}
	}
	return points
}
