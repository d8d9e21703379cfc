package geofilter

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/filter"
	"github.com/hugr-lab/geofilter/geometry"
)

func TestNewEngineDefaults(t *testing.T) {
	filter.ResetDefaultFactory()
	t.Cleanup(filter.ResetDefaultFactory)

	eng, err := NewEngine(Config{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if eng.Factory() != filter.DefaultFactory() {
		t.Error("expected the process-wide default factory")
	}
}

func TestNewEngineFactorySelection(t *testing.T) {
	if err := filter.RegisterFactory("engine-test", func() filter.Factory {
		return filter.NewFactory(filter.FactoryOptions{})
	}); err != nil {
		t.Fatalf("RegisterFactory failed: %v", err)
	}

	eng, err := NewEngine(Config{FactoryName: "engine-test"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if eng.Factory() == filter.DefaultFactory() {
		t.Error("expected a fresh named factory")
	}

	reg := filter.NewFunctionRegistry()
	eng, err = NewEngine(Config{Functions: reg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	sf, ok := eng.Factory().(*filter.StandardFactory)
	if !ok {
		t.Fatalf("expected *filter.StandardFactory, got %T", eng.Factory())
	}
	if sf.Functions() != reg {
		t.Error("expected the configured function registry")
	}
}

func TestNewEngineInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"unknown factory", Config{FactoryName: "does-not-exist"}},
		{"factory name with geometry", Config{FactoryName: filter.DefaultFactoryName, Geometry: geometry.Planar{}}},
		{"factory name with functions", Config{FactoryName: filter.DefaultFactoryName, Functions: filter.NewFunctionRegistry()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.config)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEngineSelectAndPrune(t *testing.T) {
	level := slog.LevelError
	eng, err := NewEngine(Config{LogLevel: &level, Geometry: geometry.Planar{}})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	f := dwithinOrigin(t, eng.Factory(), 2)
	records := []feature.Feature{
		feature.NewMapFeature("near", map[string]any{"geom": orb.Point{1, 1}}),
		feature.NewMapFeature("far", map[string]any{"geom": orb.Point{5, 5}}),
		feature.NewMapFeature("empty", map[string]any{"geom": nil}),
	}

	kept, err := eng.Select(records, f)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(kept) != 1 || kept[0].ID() != "near" {
		t.Errorf("expected [near], got %v", kept)
	}

	it := feature.NewSliceIterator(records)
	removed, err := eng.Prune(it, f)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if left := it.Features(); len(left) != 1 || left[0].ID() != "near" {
		t.Errorf("expected [near] left, got %v", left)
	}
}

func TestEngineSQL(t *testing.T) {
	eng, err := NewEngine(Config{
		Encoder: &filter.EncoderOptions{
			IDColumn:      "fid",
			ColumnMapping: map[string]string{"pop": "population"},
		},
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	fac := eng.Factory()
	pop, _ := fac.CreateAttribute(nil, "pop")
	limit, _ := fac.CreateLiteral(1000)
	gt, err := fac.CreateCompare(filter.FilterCompareGreaterThan, pop, limit)
	if err != nil {
		t.Fatalf("CreateCompare failed: %v", err)
	}
	ids, err := fac.CreateFID("a", "b")
	if err != nil {
		t.Fatalf("CreateFID failed: %v", err)
	}

	sql := eng.SQL(gt, ids)
	expected := "(population > 1000) AND (fid IN ('a', 'b'))"
	if sql != expected {
		t.Errorf("expected '%s', got '%s'", expected, sql)
	}

	if sql := eng.SQL(); sql != "" {
		t.Errorf("expected empty string, got '%s'", sql)
	}
}

// TestMemoryLeaks uses memory.NewCheckedAllocator to detect memory leaks.
// This test ensures that all Arrow objects are properly released.
func TestMemoryLeaks(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0) // Verify no leaks at end

	eng, err := NewEngine(Config{Allocator: allocator})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	record := buildPointRecord(t, allocator, 100)
	defer record.Release()

	ctx := context.Background()

	t.Run("SomeRowsKept", func(t *testing.T) {
		f := dwithinOrigin(t, eng.Factory(), 10)
		out, err := eng.FilterRecords(ctx, record, f, "id")
		if err != nil {
			t.Fatalf("FilterRecords failed: %v", err)
		}
		defer out.Release()

		// Points (i, i) are within 10 of the origin for i <= 7.
		if out.NumRows() != 8 {
			t.Errorf("expected 8 rows, got %d", out.NumRows())
		}
	})

	t.Run("AllRowsKept", func(t *testing.T) {
		out, err := eng.FilterRecords(ctx, record, filter.All, "id")
		if err != nil {
			t.Fatalf("FilterRecords failed: %v", err)
		}
		out.Release()
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := eng.FilterRecords(cctx, record, filter.All, "id"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestMemoryLeaksConcurrentFilters tests that concurrent filtering of a
// shared record doesn't leak memory.
func TestMemoryLeaksConcurrentFilters(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	eng, err := NewEngine(Config{Allocator: allocator})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	record := buildPointRecord(t, allocator, 50)
	defer record.Release()

	f := dwithinOrigin(t, eng.Factory(), 20)

	done := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		go func() {
			out, err := eng.FilterRecords(context.Background(), record, f, "id")
			if err != nil {
				t.Errorf("FilterRecords failed: %v", err)
				done <- false
				return
			}
			defer out.Release()
			done <- true
		}()
	}

	for i := 0; i < 5; i++ {
		<-done
	}
}

func dwithinOrigin(t testing.TB, fac filter.Factory, distance float64) filter.Filter {
	t.Helper()
	geom, err := fac.CreateAttribute(nil, "geom")
	if err != nil {
		t.Fatalf("CreateAttribute failed: %v", err)
	}
	origin, err := fac.CreateLiteral(orb.Point{0, 0})
	if err != nil {
		t.Fatalf("CreateLiteral failed: %v", err)
	}
	f, err := fac.CreateGeometryDistance(filter.FilterGeometryDWithin, geom, origin, distance)
	if err != nil {
		t.Fatalf("CreateGeometryDistance failed: %v", err)
	}
	return f
}

// buildPointRecord builds rows (id, value, geom) with the point (i, i) in row i.
func buildPointRecord(t testing.TB, mem memory.Allocator, rows int) arrow.RecordBatch {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "value", Type: arrow.PrimitiveTypes.Float64},
		feature.NewGeometryStorageField("geom", true, "Point"),
	}, nil)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i := 0; i < rows; i++ {
		builder.Field(0).(*array.Int64Builder).Append(int64(i))
		builder.Field(1).(*array.Float64Builder).Append(float64(i) * 1.5)
		data, err := geometry.EncodeWKB(orb.Point{float64(i), float64(i)})
		if err != nil {
			t.Fatalf("EncodeWKB failed: %v", err)
		}
		builder.Field(2).(*array.BinaryBuilder).Append(data)
	}

	return builder.NewRecordBatch()
}

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng, err := NewEngine(Config{Registerer: reg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	f := dwithinOrigin(t, eng.Factory(), 2)
	records := []feature.Feature{
		feature.NewMapFeature("near", map[string]any{"geom": orb.Point{1, 1}}),
		feature.NewMapFeature("far", map[string]any{"geom": orb.Point{5, 5}}),
		feature.NewMapFeature("farther", map[string]any{"geom": orb.Point{9, 9}}),
	}

	if _, err := eng.Select(records, f); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, err := eng.Prune(feature.NewSliceIterator(records[1:]), f); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"select evaluated", testutil.ToFloat64(eng.metrics.evaluatedTotal.WithLabelValues(opSelect)), 3},
		{"select kept", testutil.ToFloat64(eng.metrics.keptTotal.WithLabelValues(opSelect)), 1},
		{"prune evaluated", testutil.ToFloat64(eng.metrics.evaluatedTotal.WithLabelValues(opPrune)), 2},
		{"prune kept", testutil.ToFloat64(eng.metrics.keptTotal.WithLabelValues(opPrune)), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, tt.got)
		}
	}

	if n, err := testutil.GatherAndCount(reg, "geofilter_records_evaluated_total"); err != nil || n != 2 {
		t.Errorf("expected 2 evaluated series, got %d (%v)", n, err)
	}

	// A second engine cannot register the same metric names.
	if _, err := NewEngine(Config{Registerer: reg}); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	eng.UnregisterMetrics(reg)
	if err := eng.RegisterMetrics(reg); err != nil {
		t.Errorf("RegisterMetrics after Unregister failed: %v", err)
	}
}
