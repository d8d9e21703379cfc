package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/peterstace/simplefeatures/geom"
)

// Planar implements Relations with planar (cartesian) semantics. The
// DE-9IM predicates and distances are computed by simplefeatures; orb
// geometries are converted through WKB on every call.
type Planar struct{}

var _ Relations = Planar{}

// convert2 converts both operands to simplefeatures geometries.
func convert2(a, b orb.Geometry) (geom.Geometry, geom.Geometry, error) {
	ga, err := convert(a)
	if err != nil {
		return geom.Geometry{}, geom.Geometry{}, err
	}
	gb, err := convert(b)
	if err != nil {
		return geom.Geometry{}, geom.Geometry{}, err
	}
	return ga, gb, nil
}

func convert(g orb.Geometry) (geom.Geometry, error) {
	data, err := EncodeWKB(g)
	if err != nil {
		return geom.Geometry{}, err
	}
	out, err := geom.UnmarshalWKB(data)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("invalid %s geometry: %w", TypeName(g), err)
	}
	return out, nil
}

// relate runs a DE-9IM predicate. Failures of the relate engine are
// reported as ErrUnsupportedRelation.
func relate(name string, a, b orb.Geometry, fn func(geom.Geometry, geom.Geometry) (bool, error)) (bool, error) {
	ga, gb, err := convert2(a, b)
	if err != nil {
		return false, err
	}
	ok, err := fn(ga, gb)
	if err != nil {
		return false, fmt.Errorf("%w: %s between %s and %s: %v",
			ErrUnsupportedRelation, name, TypeName(a), TypeName(b), err)
	}
	return ok, nil
}

// Intersects reports whether a and b share at least one point.
func (Planar) Intersects(a, b orb.Geometry) (bool, error) {
	ga, gb, err := convert2(a, b)
	if err != nil {
		return false, err
	}
	return geom.Intersects(ga, gb), nil
}

// Disjoint is the negation of Intersects.
func (Planar) Disjoint(a, b orb.Geometry) (bool, error) {
	return relate("disjoint", a, b, geom.Disjoint)
}

// Contains reports whether no point of b lies outside a and at least one
// interior point of b lies in the interior of a.
func (Planar) Contains(a, b orb.Geometry) (bool, error) {
	return relate("contains", a, b, geom.Contains)
}

// Within reports whether a lies within b.
func (Planar) Within(a, b orb.Geometry) (bool, error) {
	return relate("within", a, b, geom.Within)
}

// Equals reports topological equality.
func (Planar) Equals(a, b orb.Geometry) (bool, error) {
	if a != nil && b != nil && orb.Equal(a, b) {
		return true, nil
	}
	return relate("equals", a, b, geom.Equals)
}

// Touches reports whether a and b intersect only at their boundaries.
func (Planar) Touches(a, b orb.Geometry) (bool, error) {
	return relate("touches", a, b, geom.Touches)
}

// Crosses reports whether a and b share some but not all interior points.
func (Planar) Crosses(a, b orb.Geometry) (bool, error) {
	return relate("crosses", a, b, geom.Crosses)
}

// Overlaps reports whether a and b have the same dimension, share interior
// points and neither contains the other.
func (Planar) Overlaps(a, b orb.Geometry) (bool, error) {
	return relate("overlaps", a, b, geom.Overlaps)
}

// Distance returns the minimum planar distance between a and b, 0 when they
// intersect and +Inf when either is empty.
func (Planar) Distance(a, b orb.Geometry) (float64, error) {
	ga, gb, err := convert2(a, b)
	if err != nil {
		return 0, err
	}
	d, ok := geom.Distance(ga, gb)
	if !ok {
		return math.Inf(1), nil
	}
	return d, nil
}

// BoundsIntersect reports whether the bounding boxes of a and b intersect.
func (Planar) BoundsIntersect(a, b orb.Geometry) (bool, error) {
	if a == nil || b == nil {
		return false, fmt.Errorf("geometry is nil")
	}
	return a.Bound().Intersects(b.Bound()), nil
}
