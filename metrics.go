package geofilter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation label values.
const (
	opSelect = "select"
	opPrune  = "prune"
	opBatch  = "batch"
)

// metrics is a container of metrics for an engine.
type metrics struct {
	// registry to collect metrics as a unit.
	reg *prometheus.Registry

	evaluatedTotal *prometheus.CounterVec
	keptTotal      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec

	batchSeconds prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()

	return &metrics{
		reg: reg,

		evaluatedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geofilter_records_evaluated_total",
			Help: "Total number of records a filter was evaluated against, by operation",
		}, []string{"op"}),
		keptTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geofilter_records_kept_total",
			Help: "Total number of records that matched and were kept, by operation",
		}, []string{"op"}),
		errorsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geofilter_evaluation_errors_total",
			Help: "Total number of passes stopped by an evaluation error or cancellation, by operation",
		}, []string{"op"}),

		batchSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "geofilter_batch_filter_seconds",
			Help: "Number of seconds spent filtering one record batch",

			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: time.Hour,
		}),
	}
}

// observe records the outcome of one pass.
func (m *metrics) observe(op string, evaluated, kept int, err error) {
	if err != nil {
		m.errorsTotal.WithLabelValues(op).Inc()
		return
	}
	m.evaluatedTotal.WithLabelValues(op).Add(float64(evaluated))
	m.keptTotal.WithLabelValues(op).Add(float64(kept))
}

// Register registers metrics to report to reg.
func (m *metrics) Register(reg prometheus.Registerer) error { return reg.Register(m.reg) }

// Unregister unregisters metrics from the provided Registerer.
func (m *metrics) Unregister(reg prometheus.Registerer) { reg.Unregister(m.reg) }
