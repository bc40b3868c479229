package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMalformedPoint is returned for fixes with non-finite or out-of-range values
	ErrMalformedPoint = errors.New("malformed point")
	// ErrInvalidBoundingBox is returned for boxes that are inverted, non-finite or out of range
	ErrInvalidBoundingBox = errors.New("invalid bounding box")
)

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoPoint is a single recorded fix. Accuracy is in meters; zero values of
// Accuracy and RecordedAt mean the source did not report them.
type GeoPoint struct {
	Lat        float64   `json:"lat" yaml:"lat"`
	Lon        float64   `json:"lon" yaml:"lon"`
	Accuracy   float64   `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitzero" yaml:"recorded_at,omitempty"`
}

// NewGeoPoint creates a point without accuracy or timestamp
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Lat: lat, Lon: lon}
}

// Location returns the coordinate part of the point
func (p GeoPoint) Location() Location {
	return Location{Lat: p.Lat, Lon: p.Lon}
}

// Validate reports ErrMalformedPoint for points that must never be stored
func (p GeoPoint) Validate() error {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0):
		return fmt.Errorf("%w: latitude %v is not finite", ErrMalformedPoint, p.Lat)
	case math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0):
		return fmt.Errorf("%w: longitude %v is not finite", ErrMalformedPoint, p.Lon)
	case p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrMalformedPoint, p.Lat)
	case p.Lon < -180 || p.Lon > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrMalformedPoint, p.Lon)
	case math.IsNaN(p.Accuracy) || math.IsInf(p.Accuracy, 0) || p.Accuracy < 0:
		return fmt.Errorf("%w: accuracy %v", ErrMalformedPoint, p.Accuracy)
	}
	return nil
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location `json:"bottom_left"`
	TopRight   Location `json:"top_right"`
}

// World covers every valid coordinate
var World = BoundingBox{
	BottomLeft: Location{Lat: -90, Lon: -180},
	TopRight:   Location{Lat: 90, Lon: 180},
}

// NewBoundingBox builds a box from its four edges
func NewBoundingBox(south, west, north, east float64) BoundingBox {
	return BoundingBox{
		BottomLeft: Location{Lat: south, Lon: west},
		TopRight:   Location{Lat: north, Lon: east},
	}
}

func (b BoundingBox) South() float64 { return b.BottomLeft.Lat }
func (b BoundingBox) North() float64 { return b.TopRight.Lat }
func (b BoundingBox) West() float64  { return b.BottomLeft.Lon }
func (b BoundingBox) East() float64  { return b.TopRight.Lon }

// Contains reports whether the coordinate lies inside the box, edges included
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.BottomLeft.Lat && lat <= b.TopRight.Lat &&
		lon >= b.BottomLeft.Lon && lon <= b.TopRight.Lon
}

// ContainsPoint is Contains for a GeoPoint
func (b BoundingBox) ContainsPoint(p GeoPoint) bool {
	return b.Contains(p.Lat, p.Lon)
}

// Validate checks the box is finite, in range and not inverted.
// Boxes crossing the antimeridian are not supported.
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.South(), b.North(), b.West(), b.East()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite edge %v", ErrInvalidBoundingBox, v)
		}
	}
	if b.South() < -90 || b.North() > 90 || b.West() < -180 || b.East() > 180 {
		return fmt.Errorf("%w: edges out of range", ErrInvalidBoundingBox)
	}
	if b.South() > b.North() {
		return fmt.Errorf("%w: south %v above north %v", ErrInvalidBoundingBox, b.South(), b.North())
	}
	if b.West() > b.East() {
		return fmt.Errorf("%w: west %v east of east %v", ErrInvalidBoundingBox, b.West(), b.East())
	}
	return nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.6f,%.6f - %.6f,%.6f]", b.South(), b.West(), b.North(), b.East())
}

// FilterBox returns the points contained in box
func FilterBox(points []GeoPoint, box BoundingBox) []GeoPoint {
	var result []GeoPoint
	for _, p := range points {
		if box.ContainsPoint(p) {
			result = append(result, p)
		}
	}
	return result
}
