// Package rtree implements the explored point set on top of an R-Tree.
// Every member is stored as a degenerate rectangle; dedup and bounding-box
// lookups are SearchIntersect calls followed by an exact check.
package rtree

import (
	"math"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/proximity"
	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialPoint wraps a point to implement rtreego.Spatial interface
type spatialPoint struct {
	point models.GeoPoint
	rect  *rtreego.Rect
}

var _ rtreego.Spatial = (*spatialPoint)(nil)

func (sp *spatialPoint) Bounds() *rtreego.Rect {
	return sp.rect
}

// Set is a packing of explored points. It is not safe for concurrent use.
type Set struct {
	tree *rtreego.Rtree
}

// New creates an empty R-Tree set
func New() *Set {
	return &Set{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

// Find returns a member equivalent to p, if any
func (s *Set) Find(p models.GeoPoint) (models.GeoPoint, bool) {
	for _, box := range proximity.SearchBoxes(p) {
		bounds, ok := toRect(box)
		if !ok {
			continue
		}
		for _, result := range s.tree.SearchIntersect(bounds) {
			item, ok := result.(*spatialPoint)
			if !ok {
				continue
			}
			if proximity.Equivalent(p, item.point) {
				return item.point, true
			}
		}
	}
	return models.GeoPoint{}, false
}

// Add stores p without checking equivalence; callers run Find first
func (s *Set) Add(p models.GeoPoint) {
	rect := rtreego.Point{p.Lat, p.Lon}.ToRect(tolerance)
	s.tree.Insert(&spatialPoint{point: p, rect: rect})
}

// Search returns every member inside box
func (s *Set) Search(box models.BoundingBox) []models.GeoPoint {
	bounds, ok := toRect(box)
	if !ok {
		return nil
	}

	results := s.tree.SearchIntersect(bounds)

	// Filter results to ensure they're strictly within bounds
	points := make([]models.GeoPoint, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialPoint)
		if !ok {
			continue
		}
		if box.ContainsPoint(item.point) {
			points = append(points, item.point)
		}
	}
	return points
}

// Points returns every member
func (s *Set) Points() []models.GeoPoint {
	if s.tree.Size() == 0 {
		return []models.GeoPoint{}
	}
	// rtreego can't iterate, so search with a box covering the whole world
	return s.Search(models.World)
}

// Len returns the number of members
func (s *Set) Len() int {
	return s.tree.Size()
}

// Reset removes all members
func (s *Set) Reset() {
	s.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
}

// toRect converts a box into an rtreego rectangle. Zero-width edges are
// widened by the point tolerance because rtreego rejects empty lengths.
func toRect(box models.BoundingBox) (*rtreego.Rect, bool) {
	bottomLeft := rtreego.Point{box.South() - tolerance, box.West() - tolerance}
	lengths := []float64{
		math.Max(box.North()-box.South(), 0) + 2*tolerance,
		math.Max(box.East()-box.West(), 0) + 2*tolerance,
	}
	rect, err := rtreego.NewRect(bottomLeft, lengths)
	if err != nil {
		return nil, false
	}
	return rect, true
}
