package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records dispatch metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordDispatch(ctx context.Context, meta DispatchMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the dispatch instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"shadow.dispatch.total",
		metric.WithDescription("Total number of trap dispatches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"shadow.dispatch.errors",
		metric.WithDescription("Total number of trap dispatches that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"shadow.dispatch.duration_ms",
		metric.WithDescription("Trap dispatch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordDispatch records metrics for one dispatch. Paths are not used as
// attributes to keep cardinality bounded.
func (m *metricsImpl) RecordDispatch(ctx context.Context, meta DispatchMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("shadow.op", meta.Op.String()),
		attribute.Int("shadow.depth", len(meta.Path)),
	)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

func (m *noopMetrics) RecordDispatch(context.Context, DispatchMeta, time.Duration, error) {}
