package feature

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// GeometryAttribute is the attribute path under which GeoJSON features
// expose their geometry.
const GeometryAttribute = "geometry"

// GeoJSONFeature adapts a geojson.Feature. Properties are addressed like a
// MapFeature and the geometry is available at GeometryAttribute.
type GeoJSONFeature struct {
	f *geojson.Feature
}

// NewGeoJSONFeature wraps f.
func NewGeoJSONFeature(f *geojson.Feature) *GeoJSONFeature {
	return &GeoJSONFeature{f: f}
}

// Unwrap returns the underlying GeoJSON feature.
func (g *GeoJSONFeature) Unwrap() *geojson.Feature {
	return g.f
}

// ID returns the feature id rendered as a string.
func (g *GeoJSONFeature) ID() string {
	switch id := g.f.ID.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

// Attribute resolves path against the feature geometry or properties.
func (g *GeoJSONFeature) Attribute(path string) (any, error) {
	if path == GeometryAttribute {
		if g.f.Geometry == nil {
			return nil, nil
		}
		return g.f.Geometry, nil
	}
	return resolve(g.f.Properties, path)
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection into features.
func ParseFeatureCollection(data []byte) ([]Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	out := make([]Feature, len(fc.Features))
	for i, f := range fc.Features {
		out[i] = NewGeoJSONFeature(f)
	}
	return out, nil
}
