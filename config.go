package geofilter

import (
	"errors"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugr-lab/geofilter/filter"
	"github.com/hugr-lab/geofilter/geometry"
)

// Config contains configuration for an Engine.
type Config struct {
	// FactoryName selects a factory registered with filter.RegisterFactory.
	// OPTIONAL: If empty, the process-wide filter.DefaultFactory() is used,
	// unless Geometry or Functions is set.
	// MUST NOT be combined with Geometry or Functions.
	FactoryName string

	// Geometry is the geometry library used by spatial predicates.
	// OPTIONAL: If set, the engine owns a filter.StandardFactory built with it.
	// Defaults to geometry.Default().
	Geometry geometry.Relations

	// Functions is the function registry consulted by CreateFunction.
	// OPTIONAL: If set, the engine owns a filter.StandardFactory built with it.
	// Defaults to the shared registry with min and max.
	Functions *filter.FunctionRegistry

	// Encoder configures SQL produced by Engine.SQL.
	// OPTIONAL: If nil, columns are named after attribute paths.
	Encoder *filter.EncoderOptions

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Registerer receives the engine metrics.
	// OPTIONAL: If nil, metrics are collected but not registered. Use
	// Engine.RegisterMetrics to register them later.
	Registerer prometheus.Registerer

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil and LogLevel is nil.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: Only used if Logger is nil. A text logger writing to stderr
	// is created with this level.
	LogLevel *slog.Level
}

// Standard errors returned by the geofilter package.
var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid engine config")
)
