// Package geofilter provides a filter and expression engine for feature
// records with scalar attributes and geometries.
//
// The geofilter package simplifies filtering feature collections by:
//   - Resolving the filter factory from configuration or the environment
//   - Selecting matching records from slices and mutable collections
//   - Filtering Apache Arrow record batches row by row
//   - Encoding filters to DuckDB SQL for pushdown
//
// # Quick Start
//
// Select the records within 10 units of a point:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/paulmach/orb"
//
//	    "github.com/hugr-lab/geofilter"
//	    "github.com/hugr-lab/geofilter/feature"
//	    "github.com/hugr-lab/geofilter/filter"
//	)
//
//	func main() {
//	    eng, err := geofilter.NewEngine(geofilter.Config{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fac := eng.Factory()
//	    geom, _ := fac.CreateAttribute(nil, "geom")
//	    origin, _ := fac.CreateLiteral(orb.Point{0, 0})
//	    near, err := fac.CreateGeometryDistance(filter.FilterGeometryDWithin, geom, origin, 10)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    records := []feature.Feature{
//	        feature.NewMapFeature("a", map[string]any{"geom": orb.Point{3, 4}}),
//	        feature.NewMapFeature("b", map[string]any{"geom": orb.Point{30, 40}}),
//	    }
//	    kept, _ := eng.Select(records, near)
//	    fmt.Println(len(kept)) // 1
//	    fmt.Println(eng.SQL(near))
//	}
//
// # Architecture
//
// The module is split into packages by concern:
//
//   - feature: the record accessor interface and adapters for maps, GeoJSON,
//     Arrow record batches and msgpack batches
//   - geometry: the spatial relations interface with a planar implementation
//     and WKB/WKT codecs
//   - filter: expression and filter trees, builders, the factory, visitors
//     and encoders
//
// Engine is a thin facade over these packages. Filters built with any
// filter.Factory can be passed to any Engine.
//
// # Logging
//
// Config.Logger receives engine diagnostics. If it is nil and
// Config.LogLevel is set, a text logger writing to stderr is created with
// that level. Otherwise slog.Default() is used.
//
// # Metrics
//
// Every Engine counts the records it evaluates and keeps per operation and
// times record batch filtering. Set Config.Registerer, or call
// Engine.RegisterMetrics, to expose them:
//
//	reg := prometheus.NewRegistry()
//	eng, err := geofilter.NewEngine(geofilter.Config{Registerer: reg})
//
// Metric names are prefixed with geofilter_. Two engines cannot register to
// the same Registerer.
//
// # Context Cancellation
//
// FilterRecords checks ctx between rows and stops with ctx.Err() once the
// context is done. Select and Prune work on in-memory slices and do not take
// a context.
//
// # Memory Management
//
// Arrow uses manual reference counting. Callers MUST call Release() on the
// record batches returned by FilterRecords, including when the input batch
// is returned unchanged because every row matched.
package geofilter
