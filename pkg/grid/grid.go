// Package grid implements the explored point set as a hash grid with cells of
// proximity.RadiusDegrees on each side. Dedup lookups and bounding-box scans
// touch only the cells overlapping the search rectangle.
package grid

import (
	"math"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/proximity"
)

const cellSize = proximity.RadiusDegrees

type cellKey struct {
	row int64
	col int64
}

func cellOf(lat, lon float64) cellKey {
	return cellKey{
		row: int64(math.Floor(lat / cellSize)),
		col: int64(math.Floor(lon / cellSize)),
	}
}

// Set is a packing of explored points. It is not safe for concurrent use.
type Set struct {
	// A cell is smaller than the tolerance square, so with the packing
	// invariant in place a cell rarely holds more than one member.
	cells map[cellKey][]models.GeoPoint
	count int
}

// New creates an empty grid set
func New() *Set {
	return &Set{cells: make(map[cellKey][]models.GeoPoint)}
}

// Find returns a member equivalent to p, if any
func (s *Set) Find(p models.GeoPoint) (models.GeoPoint, bool) {
	var (
		found models.GeoPoint
		ok    bool
	)
	for _, box := range proximity.SearchBoxes(p) {
		s.visit(box, func(q models.GeoPoint) bool {
			if proximity.Equivalent(p, q) {
				found, ok = q, true
				return false
			}
			return true
		})
		if ok {
			break
		}
	}
	return found, ok
}

// Add stores p without checking equivalence; callers run Find first
func (s *Set) Add(p models.GeoPoint) {
	key := cellOf(p.Lat, p.Lon)
	s.cells[key] = append(s.cells[key], p)
	s.count++
}

// Search returns every member inside box
func (s *Set) Search(box models.BoundingBox) []models.GeoPoint {
	var points []models.GeoPoint
	s.visit(box, func(q models.GeoPoint) bool {
		if box.ContainsPoint(q) {
			points = append(points, q)
		}
		return true
	})
	return points
}

// Points returns every member
func (s *Set) Points() []models.GeoPoint {
	points := make([]models.GeoPoint, 0, s.count)
	for _, cell := range s.cells {
		points = append(points, cell...)
	}
	return points
}

// Len returns the number of members
func (s *Set) Len() int {
	return s.count
}

// Reset removes all members
func (s *Set) Reset() {
	s.cells = make(map[cellKey][]models.GeoPoint)
	s.count = 0
}

// visit calls fn for members of every cell overlapping box until fn returns
// false. When the box spans more cells than are occupied, the occupied cells
// are scanned instead of the box.
func (s *Set) visit(box models.BoundingBox, fn func(models.GeoPoint) bool) {
	lo := cellOf(box.South(), box.West())
	hi := cellOf(box.North(), box.East())

	rows := hi.row - lo.row + 1
	cols := hi.col - lo.col + 1
	if rows <= 0 || cols <= 0 {
		return
	}

	if rows > int64(len(s.cells)) || cols > int64(len(s.cells)) || rows*cols > int64(len(s.cells)) {
		for key, cell := range s.cells {
			if key.row < lo.row || key.row > hi.row || key.col < lo.col || key.col > hi.col {
				continue
			}
			for _, q := range cell {
				if !fn(q) {
					return
				}
			}
		}
		return
	}

	for row := lo.row; row <= hi.row; row++ {
		for col := lo.col; col <= hi.col; col++ {
			for _, q := range s.cells[cellKey{row: row, col: col}] {
				if !fn(q) {
					return
				}
			}
		}
	}
}
