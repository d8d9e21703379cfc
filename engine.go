package geofilter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/filter"
)

// Engine bundles a filter factory with the bulk selection helpers.
// An Engine is safe for concurrent use.
type Engine struct {
	factory filter.Factory
	encoder filter.EncoderOptions
	mem     memory.Allocator
	logger  *slog.Logger
	metrics *metrics
}

// NewEngine validates config and creates an Engine.
//
// The factory is chosen in this order:
//  1. The registered factory named by FactoryName
//  2. A dedicated filter.StandardFactory when Geometry or Functions is set
//  3. filter.DefaultFactory()
//
// Example:
//
//	eng, err := geofilter.NewEngine(geofilter.Config{
//	    Encoder: &filter.EncoderOptions{IDColumn: "fid"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, _ := eng.Factory().CreateFID("a", "b")
//	kept, err := eng.Select(records, f)
func NewEngine(config Config) (*Engine, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := config.Logger
	if logger == nil {
		if config.LogLevel != nil {
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: *config.LogLevel,
			})
			logger = slog.New(handler)
		} else {
			logger = slog.Default()
		}
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}

	var factory filter.Factory
	switch {
	case config.FactoryName != "":
		f, err := filter.NewNamedFactory(config.FactoryName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		factory = f
	case config.Geometry != nil || config.Functions != nil:
		factory = filter.NewFactory(filter.FactoryOptions{
			Geometry:  config.Geometry,
			Functions: config.Functions,
			Logger:    logger,
		})
	default:
		factory = filter.DefaultFactory()
	}

	var encoder filter.EncoderOptions
	if config.Encoder != nil {
		encoder = *config.Encoder
	}
	if encoder.Logger == nil {
		encoder.Logger = logger
	}

	m := newMetrics()
	if config.Registerer != nil {
		if err := m.Register(config.Registerer); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	logger.Debug("geofilter engine created",
		"factory", fmt.Sprintf("%T", factory),
		"id_column", encoder.IDColumn,
	)

	return &Engine{
		factory: factory,
		encoder: encoder,
		mem:     allocator,
		logger:  logger,
		metrics: m,
	}, nil
}

// validateConfig checks that Config fields are consistent.
func validateConfig(config Config) error {
	if config.FactoryName != "" && (config.Geometry != nil || config.Functions != nil) {
		return fmt.Errorf("factory name %q cannot be combined with geometry or functions", config.FactoryName)
	}
	return nil
}

// Factory returns the factory used to build filters for this engine.
func (e *Engine) Factory() filter.Factory {
	return e.factory
}

// Select returns the records matching f, in input order.
func (e *Engine) Select(records []feature.Feature, f filter.Filter) ([]feature.Feature, error) {
	kept, err := filter.Retain(records, f)
	e.metrics.observe(opSelect, len(records), len(kept), err)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Records selected",
		"filter", f.Type(),
		"total", len(records),
		"kept", len(kept),
	)
	return kept, nil
}

// Prune removes the records for which f does not match from the collection
// behind it and returns how many were removed.
func (e *Engine) Prune(it feature.MutableIterator, f filter.Filter) (int, error) {
	counted := &countingIterator{MutableIterator: it}
	removed, err := filter.Prune(counted, f)
	e.metrics.observe(opPrune, counted.n, counted.n-removed, err)
	if err != nil {
		return removed, err
	}
	e.logger.Debug("Records pruned",
		"filter", f.Type(),
		"removed", removed,
	)
	return removed, nil
}

// countingIterator counts the records an iterator yields.
type countingIterator struct {
	feature.MutableIterator
	n int
}

func (c *countingIterator) Next() bool {
	if !c.MutableIterator.Next() {
		return false
	}
	c.n++
	return true
}

// FilterRecords returns the rows of rec matching f, allocating from the
// engine's allocator. The caller must release the result.
func (e *Engine) FilterRecords(ctx context.Context, rec arrow.RecordBatch, f filter.Filter, idColumn string) (arrow.RecordBatch, error) {
	start := time.Now()
	out, err := filter.FilterRecordBatch(ctx, e.mem, rec, f, idColumn)
	if err != nil {
		e.metrics.observe(opBatch, 0, 0, err)
		return nil, err
	}
	e.metrics.batchSeconds.Observe(time.Since(start).Seconds())
	e.metrics.observe(opBatch, int(rec.NumRows()), int(out.NumRows()), nil)
	e.logger.Debug("Record batch filtered",
		"filter", f.Type(),
		"rows", rec.NumRows(),
		"kept", out.NumRows(),
	)
	return out, nil
}

// RegisterMetrics registers the engine metrics to report to reg.
func (e *Engine) RegisterMetrics(reg prometheus.Registerer) error {
	return e.metrics.Register(reg)
}

// UnregisterMetrics unregisters the engine metrics from reg.
func (e *Engine) UnregisterMetrics(reg prometheus.Registerer) {
	e.metrics.Unregister(reg)
}

// SQL encodes filters as a DuckDB WHERE clause body joined with AND.
// Returns empty string if none of the filters can be encoded, in which
// case every row must be fetched and filtered with Matches.
func (e *Engine) SQL(filters ...filter.Filter) string {
	opts := e.encoder
	return filter.NewDuckDBEncoder(&opts).EncodeFilters(filters)
}
