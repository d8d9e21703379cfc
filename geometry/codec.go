// Package geometry is the geometry collaborator of the filter engine: the
// Relations interface spatial filters delegate to, a planar implementation
// backed by github.com/peterstace/simplefeatures, and WKB/WKT codecs for
// github.com/paulmach/orb geometries.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
)

// EncodeWKB converts an orb.Geometry to WKB bytes.
func EncodeWKB(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, fmt.Errorf("cannot encode nil geometry")
	}
	return wkb.Marshal(normalize(geom))
}

// DecodeWKB converts WKB bytes to an orb.Geometry.
func DecodeWKB(data []byte) (orb.Geometry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decode empty WKB data")
	}
	return wkb.Unmarshal(data)
}

// ParseWKT parses a WKT string into an orb.Geometry.
func ParseWKT(s string) (orb.Geometry, error) {
	geom, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WKT: %w", err)
	}
	return geom, nil
}

// FormatWKT renders a geometry as WKT. Bounds and rings are rendered as
// polygons.
func FormatWKT(geom orb.Geometry) string {
	return wkt.MarshalString(normalize(geom))
}

// normalize converts the orb types without a WKB/WKT form to polygons.
func normalize(geom orb.Geometry) orb.Geometry {
	switch g := geom.(type) {
	case orb.Bound:
		return g.ToPolygon()
	case orb.Ring:
		return orb.Polygon{g}
	default:
		return geom
	}
}

// Validate checks that a geometry is structurally well formed.
func Validate(geom orb.Geometry) error {
	if geom == nil {
		return fmt.Errorf("geometry is nil")
	}

	switch g := geom.(type) {
	case orb.Point:
		return nil

	case orb.MultiPoint:
		if len(g) == 0 {
			return fmt.Errorf("multipoint is empty")
		}
		return nil

	case orb.LineString:
		if len(g) < 2 {
			return fmt.Errorf("linestring must have at least 2 points, has %d", len(g))
		}
		return nil

	case orb.MultiLineString:
		if len(g) == 0 {
			return fmt.Errorf("multilinestring is empty")
		}
		for i, ls := range g {
			if len(ls) < 2 {
				return fmt.Errorf("multilinestring[%d] must have at least 2 points, has %d", i, len(ls))
			}
		}
		return nil

	case orb.Ring:
		return validateRing(g, "ring")

	case orb.Polygon:
		if len(g) == 0 {
			return fmt.Errorf("polygon has no rings")
		}
		if err := validateRing(g[0], "polygon outer ring"); err != nil {
			return err
		}
		for i, ring := range g[1:] {
			if err := validateRing(ring, fmt.Sprintf("polygon hole[%d]", i)); err != nil {
				return err
			}
		}
		return nil

	case orb.MultiPolygon:
		if len(g) == 0 {
			return fmt.Errorf("multipolygon is empty")
		}
		for i, poly := range g {
			if err := Validate(poly); err != nil {
				return fmt.Errorf("multipolygon[%d]: %w", i, err)
			}
		}
		return nil

	case orb.Collection:
		if len(g) == 0 {
			return fmt.Errorf("geometry collection is empty")
		}
		for i, child := range g {
			if err := Validate(child); err != nil {
				return fmt.Errorf("collection[%d]: %w", i, err)
			}
		}
		return nil

	case orb.Bound:
		if g.Min.X() > g.Max.X() || g.Min.Y() > g.Max.Y() {
			return fmt.Errorf("bound min is greater than max")
		}
		return nil

	default:
		return fmt.Errorf("unknown geometry type: %T", geom)
	}
}

func validateRing(r orb.Ring, what string) error {
	if len(r) < 4 {
		return fmt.Errorf("%s must have at least 4 points, has %d", what, len(r))
	}
	if !r[0].Equal(r[len(r)-1]) {
		return fmt.Errorf("%s is not closed", what)
	}
	return nil
}

// TypeName returns the WKB type name for a geometry.
func TypeName(geom orb.Geometry) string {
	switch geom.(type) {
	case orb.Point:
		return "Point"
	case orb.MultiPoint:
		return "MultiPoint"
	case orb.LineString:
		return "LineString"
	case orb.MultiLineString:
		return "MultiLineString"
	case orb.Ring, orb.Polygon:
		return "Polygon"
	case orb.MultiPolygon:
		return "MultiPolygon"
	case orb.Collection:
		return "GeometryCollection"
	case orb.Bound:
		return "Bound"
	default:
		return "Unknown"
	}
}
