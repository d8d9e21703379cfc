package feature

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/geofilter/geometry"
	"github.com/hugr-lab/geofilter/internal/codec"
)

// zstdMagic prefixes every ZStandard frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type wireFeature struct {
	ID         string            `msgpack:"id"`
	Properties map[string]any    `msgpack:"properties"`
	Geometries map[string][]byte `msgpack:"geometries,omitempty"`
}

type wireBatch struct {
	Features []wireFeature `msgpack:"features"`
}

// MarshalBatch encodes features as a MessagePack batch, optionally
// ZStandard compressed. Top-level geometry attributes travel as WKB;
// geometries nested deeper are rejected.
func MarshalBatch(features []*MapFeature, compress bool) ([]byte, error) {
	batch := wireBatch{Features: make([]wireFeature, 0, len(features))}
	for _, f := range features {
		wf := wireFeature{ID: f.FID, Properties: make(map[string]any, len(f.Properties))}
		for name, v := range f.Properties {
			geom, ok := v.(orb.Geometry)
			if !ok {
				if err := checkNoGeometry(v); err != nil {
					return nil, fmt.Errorf("feature %s attribute %s: %w", f.FID, name, err)
				}
				wf.Properties[name] = v
				continue
			}
			data, err := geometry.EncodeWKB(geom)
			if err != nil {
				return nil, fmt.Errorf("feature %s attribute %s: %w", f.FID, name, err)
			}
			if wf.Geometries == nil {
				wf.Geometries = map[string][]byte{}
			}
			wf.Geometries[name] = data
		}
		batch.Features = append(batch.Features, wf)
	}

	data, err := codec.Encode(batch)
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	return codec.Compress(data)
}

// UnmarshalBatch decodes a batch produced by MarshalBatch. Compression is
// detected from the ZStandard frame header.
func UnmarshalBatch(data []byte) ([]*MapFeature, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		var err error
		if data, err = codec.Decompress(data); err != nil {
			return nil, err
		}
	}

	var batch wireBatch
	if err := codec.Decode(data, &batch); err != nil {
		return nil, err
	}

	out := make([]*MapFeature, 0, len(batch.Features))
	for _, wf := range batch.Features {
		f := NewMapFeature(wf.ID, wf.Properties)
		for name, raw := range wf.Geometries {
			geom, err := geometry.DecodeWKB(raw)
			if err != nil {
				return nil, fmt.Errorf("feature %s attribute %s: %w", wf.ID, name, err)
			}
			f.Properties[name] = geom
		}
		out = append(out, f)
	}
	return out, nil
}

func checkNoGeometry(v any) error {
	switch t := v.(type) {
	case orb.Geometry:
		return fmt.Errorf("nested geometry values are not supported")
	case map[string]any:
		for _, child := range t {
			if err := checkNoGeometry(child); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range t {
			if err := checkNoGeometry(child); err != nil {
				return err
			}
		}
	}
	return nil
}
