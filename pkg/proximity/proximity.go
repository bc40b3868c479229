// Package proximity defines the equivalence radius and the ordering used to
// merge nearby fixes into a single explored point.
package proximity

import (
	"math"

	"github.com/1F47E/geo-explored/pkg/models"
)

const (
	// RadiusMeters is the distance below which two fixes are the same explored spot
	RadiusMeters = 11.1
	// RadiusDegrees is the angular tolerance used as a cheap pre-filter
	RadiusDegrees = 0.0001
	// EarthRadiusMeters is the mean earth radius used by Distance
	EarthRadiusMeters = 6371000.0

	radiusRadians = RadiusMeters / EarthRadiusMeters
	spanSlack     = 1.001
)

// Ordering is the result of Compare
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// Reverse returns the ordering seen from the other operand
func (o Ordering) Reverse() Ordering {
	return -o
}

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	}
	return "invalid"
}

// Distance calculates the Haversine distance between two points in meters.
// The operands are put in a fixed order first so that Distance(a, b) and
// Distance(b, a) are bit-identical.
func Distance(a, b models.GeoPoint) float64 {
	if a.Lat > b.Lat || (a.Lat == b.Lat && a.Lon > b.Lon) {
		a, b = b, a
	}
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Compare orders points longitude-major, latitude-minor, collapsing to Equal
// for points closer than RadiusMeters or within RadiusDegrees on both axes.
//
// The latitude tie-break checks both directions. Returning Less there
// unconditionally would break antisymmetry and let ordered containers lose
// or duplicate members.
func Compare(a, b models.GeoPoint) Ordering {
	if Distance(a, b) < RadiusMeters {
		return Equal
	}
	// a-b is the exact negation of b-a, so Compare(b, a) mirrors Compare(a, b)
	if d := a.Lon - b.Lon; d > RadiusDegrees {
		return Greater
	} else if d < -RadiusDegrees {
		return Less
	}
	if d := a.Lat - b.Lat; d > RadiusDegrees {
		return Greater
	} else if d < -RadiusDegrees {
		return Less
	}
	return Equal
}

// Equivalent reports whether a and b count as the same explored spot
func Equivalent(a, b models.GeoPoint) bool {
	return Compare(a, b) == Equal
}

// SearchSpan returns half-extents in degrees of a rectangle centred on a point
// at latitude lat that contains every point Equivalent to it. A dLon of 360
// means the whole longitude range has to be searched (polar caps).
func SearchSpan(lat float64) (dLat, dLon float64) {
	dLat = math.Max(RadiusDegrees, radiusRadians*180/math.Pi) * spanSlack

	edge := math.Min(90, math.Abs(lat)+dLat)
	c := math.Cos(edge * math.Pi / 180)
	s := math.Sin(radiusRadians / 2)
	if c <= s {
		return dLat, 360
	}
	lonRadians := 2 * math.Asin(s/c)
	dLon = math.Max(RadiusDegrees, lonRadians*180/math.Pi) * spanSlack
	return dLat, dLon
}

// SearchBoxes returns the SearchSpan rectangle around p, clamped to valid
// coordinates, plus the strip on the far side of the antimeridian when the
// span crosses it. Every point Equivalent to p lies in one of the boxes.
func SearchBoxes(p models.GeoPoint) []models.BoundingBox {
	dLat, dLon := SearchSpan(p.Lat)
	south := math.Max(-90, p.Lat-dLat)
	north := math.Min(90, p.Lat+dLat)
	west, east := p.Lon-dLon, p.Lon+dLon

	boxes := []models.BoundingBox{
		models.NewBoundingBox(south, math.Max(-180, west), north, math.Min(180, east)),
	}
	if dLon >= 180 {
		return boxes
	}
	if west < -180 {
		boxes = append(boxes, models.NewBoundingBox(south, west+360, north, 180))
	}
	if east > 180 {
		boxes = append(boxes, models.NewBoundingBox(south, -180, north, east-360))
	}
	return boxes
}
