package geofilter

import (
	"context"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/filter"
)

// benchFilter builds value > 10 AND DWITHIN(geom, POINT(0 0), distance).
func benchFilter(b *testing.B, fac filter.Factory, distance float64) filter.Filter {
	value, _ := fac.CreateAttribute(nil, "value")
	ten, _ := fac.CreateLiteral(10)
	gt, err := fac.CreateCompare(filter.FilterCompareGreaterThan, value, ten)
	if err != nil {
		b.Fatalf("CreateCompare failed: %v", err)
	}
	return filter.And(gt, dwithinOrigin(b, fac, distance))
}

// BenchmarkFilterRecords benchmarks filtering record batches of varying row counts.
func BenchmarkFilterRecords(b *testing.B) {
	rowCounts := []int{100, 1000, 10000}

	for _, rows := range rowCounts {
		b.Run(fmt.Sprintf("rows_%d", rows), func(b *testing.B) {
			eng, err := NewEngine(Config{Allocator: memory.DefaultAllocator})
			if err != nil {
				b.Fatalf("NewEngine failed: %v", err)
			}
			record := buildPointRecord(b, memory.DefaultAllocator, rows)
			defer record.Release()

			f := benchFilter(b, eng.Factory(), float64(rows)/2)
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				out, err := eng.FilterRecords(ctx, record, f, "id")
				if err != nil {
					b.Fatalf("FilterRecords failed: %v", err)
				}
				out.Release()
			}

			b.StopTimer()
			b.ReportMetric(float64(rows), "rows/batch")
		})
	}
}

// BenchmarkSelect benchmarks evaluating a filter over map records.
func BenchmarkSelect(b *testing.B) {
	eng, err := NewEngine(Config{})
	if err != nil {
		b.Fatalf("NewEngine failed: %v", err)
	}
	f := benchFilter(b, eng.Factory(), 500)

	records := make([]feature.Feature, 1000)
	for i := range records {
		records[i] = feature.NewMapFeature(fmt.Sprint(i), map[string]any{
			"value": float64(i),
			"geom":  orb.Point{float64(i), float64(i)},
		})
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := eng.Select(records, f); err != nil {
			b.Fatalf("Select failed: %v", err)
		}
	}
}

// BenchmarkSQL benchmarks encoding a filter to DuckDB SQL.
func BenchmarkSQL(b *testing.B) {
	eng, err := NewEngine(Config{})
	if err != nil {
		b.Fatalf("NewEngine failed: %v", err)
	}
	f := benchFilter(b, eng.Factory(), 5)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = eng.SQL(f)
	}
}
