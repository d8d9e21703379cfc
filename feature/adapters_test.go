package feature

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/geofilter/geometry"
)

func TestGeoJSONFeatures(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"id": "city.1",
				"geometry": {"type": "Point", "coordinates": [1, 2]},
				"properties": {"name": "Springfield", "pop": 1000, "meta": {"rank": 3}}
			},
			{
				"type": "Feature",
				"id": 7,
				"geometry": null,
				"properties": {"name": "Nowhere"}
			}
		]
	}`)

	features, err := ParseFeatureCollection(data)
	if err != nil {
		t.Fatalf("ParseFeatureCollection() failed: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}

	first := features[0]
	if first.ID() != "city.1" {
		t.Errorf("ID() = %q", first.ID())
	}
	geom, err := first.Attribute(GeometryAttribute)
	if err != nil {
		t.Fatalf("Attribute(geometry) failed: %v", err)
	}
	if !orb.Equal(geom.(orb.Geometry), orb.Point{1, 2}) {
		t.Errorf("geometry = %v", geom)
	}
	rank, err := first.Attribute("meta/rank")
	if err != nil {
		t.Fatalf("Attribute(meta/rank) failed: %v", err)
	}
	if rank != float64(3) {
		t.Errorf("meta/rank = %v (%T)", rank, rank)
	}

	second := features[1]
	if second.ID() != "7" {
		t.Errorf("ID() = %q", second.ID())
	}
	if geom, err := second.Attribute(GeometryAttribute); err != nil || geom != nil {
		t.Errorf("expected null geometry, got %v, %v", geom, err)
	}
}

func buildCityRecord(t *testing.T, mem memory.Allocator) arrow.RecordBatch {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "code", Type: arrow.BinaryTypes.String},
		{Name: "pop", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "area", Type: arrow.PrimitiveTypes.Float64},
		NewGeometryStorageField("location", true, "Point"),
	}, nil)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	builder.Field(0).(*array.StringBuilder).AppendValues([]string{"SPR", "SHB"}, nil)
	builder.Field(1).(*array.Int32Builder).Append(1000)
	builder.Field(1).(*array.Int32Builder).AppendNull()
	builder.Field(2).(*array.Float64Builder).AppendValues([]float64{12.5, 3.25}, nil)

	for _, p := range []orb.Point{{1, 2}, {3, 4}} {
		data, err := geometry.EncodeWKB(p)
		if err != nil {
			t.Fatalf("EncodeWKB() failed: %v", err)
		}
		builder.Field(3).(*array.BinaryBuilder).Append(data)
	}

	return builder.NewRecordBatch()
}

func TestArrowFeature(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := buildCityRecord(t, mem)
	defer rec.Release()

	features := ArrowFeatures(rec, "code")
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}

	f := features[0]
	if f.ID() != "SPR" {
		t.Errorf("ID() = %q", f.ID())
	}
	if v, _ := f.Attribute("pop"); v != int64(1000) {
		t.Errorf("pop = %v (%T)", v, v)
	}
	if v, _ := f.Attribute("area"); v != 12.5 {
		t.Errorf("area = %v", v)
	}
	v, err := f.Attribute("location")
	if err != nil {
		t.Fatalf("Attribute(location) failed: %v", err)
	}
	if !orb.Equal(v.(orb.Geometry), orb.Point{1, 2}) {
		t.Errorf("location = %v", v)
	}

	if v, err := features[1].Attribute("pop"); err != nil || v != nil {
		t.Errorf("expected null pop, got %v, %v", v, err)
	}
	if _, err := features[1].Attribute("missing"); err == nil {
		t.Error("expected error for missing column")
	}

	// Without an id column the row number is used.
	if id := NewArrowFeature(rec, 1, "").ID(); id != "1" {
		t.Errorf("ID() = %q, want row number", id)
	}
}

func TestSchemaFromArrow(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "pop", Type: arrow.PrimitiveTypes.Int64},
		{Name: "area", Type: arrow.PrimitiveTypes.Float32},
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "flag", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "address", Type: arrow.StructOf(arrow.Field{Name: "city", Type: arrow.BinaryTypes.String})},
		NewGeometryField("geom", true, "Polygon"),
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us},
	}, nil)

	got := SchemaFromArrow(schema)
	want := Schema{
		"pop":          KindInteger,
		"area":         KindDouble,
		"name":         KindString,
		"flag":         KindBoolean,
		"address/city": KindString,
		"geom":         KindGeometry,
		"ts":           KindUndeclared,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for path, kind := range want {
		if got[path] != kind {
			t.Errorf("%s: got %s, want %s", path, got[path], kind)
		}
	}
}

func TestRecordBatchIPCRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := buildCityRecord(t, mem)
	defer rec.Release()

	var buf bytes.Buffer
	if err := WriteRecordBatches(&buf, rec.Schema(), []arrow.RecordBatch{rec}, mem); err != nil {
		t.Fatalf("WriteRecordBatches() failed: %v", err)
	}

	schema, batches, err := ReadRecordBatches(&buf, mem)
	if err != nil {
		t.Fatalf("ReadRecordBatches() failed: %v", err)
	}
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()

	if !IsGeometryField(schema.Field(3)) {
		t.Error("expected geometry metadata to survive IPC")
	}
	if len(batches) != 1 || batches[0].NumRows() != 2 {
		t.Fatalf("unexpected batches: %d", len(batches))
	}
	v, err := NewArrowFeature(batches[0], 1, "code").Attribute("location")
	if err != nil {
		t.Fatalf("Attribute(location) failed: %v", err)
	}
	if !orb.Equal(v.(orb.Geometry), orb.Point{3, 4}) {
		t.Errorf("location = %v", v)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	features := []*MapFeature{
		NewMapFeature("a", map[string]any{"name": "alpha", "pop": int64(10), "geom": orb.Point{1, 1}}),
		NewMapFeature("b", map[string]any{"name": "beta", "nested": map[string]any{"x": 1.5}}),
	}

	for _, compress := range []bool{false, true} {
		data, err := MarshalBatch(features, compress)
		if err != nil {
			t.Fatalf("MarshalBatch(compress=%v) failed: %v", compress, err)
		}

		got, err := UnmarshalBatch(data)
		if err != nil {
			t.Fatalf("UnmarshalBatch(compress=%v) failed: %v", compress, err)
		}
		if len(got) != 2 || got[0].ID() != "a" || got[1].ID() != "b" {
			t.Fatalf("unexpected features: %v", got)
		}
		geom, err := got[0].Attribute("geom")
		if err != nil {
			t.Fatalf("Attribute(geom) failed: %v", err)
		}
		if !orb.Equal(geom.(orb.Geometry), orb.Point{1, 1}) {
			t.Errorf("geom = %v", geom)
		}
		if x, _ := got[1].Attribute("nested/x"); x != 1.5 {
			t.Errorf("nested/x = %v", x)
		}
	}

	nested := []*MapFeature{NewMapFeature("c", map[string]any{"inner": map[string]any{"g": orb.Point{0, 0}}})}
	if _, err := MarshalBatch(nested, false); err == nil {
		t.Error("expected error for nested geometry")
	}
}
