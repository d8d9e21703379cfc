package geometry

import (
	"errors"

	"github.com/paulmach/orb"
)

// ErrUnsupportedRelation is returned when a Relations implementation cannot
// decide a predicate for the given geometry types.
var ErrUnsupportedRelation = errors.New("unsupported geometry relation")

// Relations answers the spatial questions asked by geometry filters.
// Implementations must be safe for concurrent use.
type Relations interface {
	Intersects(a, b orb.Geometry) (bool, error)
	Contains(a, b orb.Geometry) (bool, error)
	Within(a, b orb.Geometry) (bool, error)
	Overlaps(a, b orb.Geometry) (bool, error)
	Touches(a, b orb.Geometry) (bool, error)
	Crosses(a, b orb.Geometry) (bool, error)
	Equals(a, b orb.Geometry) (bool, error)
	Disjoint(a, b orb.Geometry) (bool, error)

	// Distance returns the minimum planar distance between a and b.
	Distance(a, b orb.Geometry) (float64, error)

	// BoundsIntersect reports whether the bounding boxes of a and b
	// intersect. It is cheaper than, and distinct from, Intersects.
	BoundsIntersect(a, b orb.Geometry) (bool, error)
}

// Default returns the Relations implementation used when none is configured.
func Default() Relations {
	return Planar{}
}
