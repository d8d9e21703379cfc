// Package feature defines the record accessor consumed by the filter engine
// and adapters for the record shapes the engine is usually fed with:
// plain nested maps, GeoJSON features, Arrow record batch rows and
// MessagePack feature batches.
//
// A record is anything implementing Feature:
//
//	type Feature interface {
//	    ID() string
//	    Attribute(path string) (any, error)
//	}
//
// Attribute returns nil for a present attribute without a value and an error
// wrapping ErrUnknownAttribute when the path does not resolve at all.
package feature

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

var (
	// ErrUnknownAttribute is returned when an attribute path does not
	// resolve on a record.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidPath is returned when an attribute path does not follow the
	// path grammar.
	ErrInvalidPath = errors.New("invalid attribute path")
)

// Feature is the read-only view of a record the engine evaluates against.
// Implementations must be safe for concurrent reads.
type Feature interface {
	// ID returns the feature identifier used by FID filters.
	ID() string

	// Attribute resolves an attribute path. A nil value means null.
	Attribute(path string) (any, error)
}

// MapFeature is a Feature backed by a nested map. Nested maps are addressed
// with "/" separated paths and slice elements with a 1-based [n] suffix.
type MapFeature struct {
	FID        string
	Properties map[string]any
}

// NewMapFeature creates a map backed feature.
func NewMapFeature(id string, properties map[string]any) *MapFeature {
	if properties == nil {
		properties = map[string]any{}
	}
	return &MapFeature{FID: id, Properties: properties}
}

// ID returns the feature identifier.
func (f *MapFeature) ID() string {
	return f.FID
}

// Attribute resolves path against the feature properties.
func (f *MapFeature) Attribute(path string) (any, error) {
	return resolve(f.Properties, path)
}

// resolve walks a parsed path through nested maps and slices.
func resolve(root map[string]any, path string) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAttribute, err)
	}

	var cur any = root
	for _, seg := range p {
		m, ok := asMap(cur)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
		}
		v, ok := m[seg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
		}
		if seg.Index > 0 {
			list, ok := v.([]any)
			if !ok || seg.Index > len(list) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
			}
			v = list[seg.Index-1]
		}
		cur = v
	}
	return cur, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case geojson.Properties:
		return m, true
	default:
		return nil, false
	}
}
