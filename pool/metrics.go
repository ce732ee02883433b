package pool

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ObservePoolMetrics registers observable gauges reporting pool health:
// current size, and cumulative created/invalidated/borrowed/returned
// counts. Generalized from a pgxpool-specific gauge registrar to any
// ObjectPool[T].
func ObservePoolMetrics[T comparable](p *ObjectPool[T], environment string) error {
	if p == nil {
		return nil
	}
	name := strings.TrimSpace(p.name)
	if name == "" {
		name = "unnamed"
	}
	attrs := []attribute.KeyValue{
		attribute.String("environment", strings.TrimSpace(environment)),
		attribute.String("pool", name),
		attribute.String("pool_instance", p.ID()),
	}

	meter := otel.Meter("objpool")
	gauges := []struct {
		name  string
		desc  string
		value func(StatsSnapshot) int64
	}{
		{"objpool_size", "Current live objects", func(s StatsSnapshot) int64 { return int64(s.PoolSize) }},
		{"objpool_created_total", "Objects created since start", func(s StatsSnapshot) int64 { return s.CreatedCnt }},
		{"objpool_invalidated_total", "Objects invalidated since start", func(s StatsSnapshot) int64 { return s.InvalidCnt }},
		{"objpool_borrowed_total", "Borrow calls served", func(s StatsSnapshot) int64 { return s.BorrowedCnt }},
		{"objpool_returned_total", "Return calls served", func(s StatsSnapshot) int64 { return s.ReturnedCnt }},
	}

	for _, g := range gauges {
		g := g
		if _, err := meter.Int64ObservableGauge(g.name,
			metric.WithDescription(g.desc),
			metric.WithUnit("{object}"),
			metric.WithInt64Callback(func(_ context.Context, observer metric.Int64Observer) error {
				observer.Observe(g.value(p.Stats()), metric.WithAttributes(attrs...))
				return nil
			}),
		); err != nil {
			return err
		}
	}
	return nil
}
