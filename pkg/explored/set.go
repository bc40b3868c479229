package explored

import (
	"fmt"

	"github.com/1F47E/geo-explored/pkg/grid"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/rtree"
)

// Set holds explored points such that no two members are equivalent.
// Implementations are not safe for concurrent use.
type Set interface {
	// Find returns a member equivalent to p, if any
	Find(p models.GeoPoint) (models.GeoPoint, bool)
	// Add stores p; the caller has checked Find
	Add(p models.GeoPoint)
	Search(box models.BoundingBox) []models.GeoPoint
	Points() []models.GeoPoint
	Len() int
	Reset()
}

const (
	BackendGrid  = "grid"
	BackendRTree = "rtree"
)

var (
	_ Set = (*grid.Set)(nil)
	_ Set = (*rtree.Set)(nil)
)

// NewSet creates an empty set for the named backend
func NewSet(backend string) (Set, error) {
	switch backend {
	case BackendGrid, "":
		return grid.New(), nil
	case BackendRTree:
		return rtree.New(), nil
	}
	return nil, fmt.Errorf("unknown index backend %q", backend)
}
