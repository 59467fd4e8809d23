package engine

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	placed   metric.Int64Counter
	unplaced metric.Int64Counter
	moves    metric.Int64Counter
	waste    metric.Int64Counter
}

func newMetrics(m metric.Meter) (*metrics, error) {
	var (
		out metrics
		err error
	)
	if out.placed, err = m.Int64Counter("stowage.items.placed", metric.WithDescription("Items stored by placement")); err != nil {
		return nil, err
	}
	if out.unplaced, err = m.Int64Counter("stowage.items.unplaced", metric.WithDescription("Items that found no slot")); err != nil {
		return nil, err
	}
	if out.moves, err = m.Int64Counter("stowage.moves", metric.WithDescription("Move steps emitted by rearrangement, retrieval and return plans")); err != nil {
		return nil, err
	}
	if out.waste, err = m.Int64Counter("stowage.waste.items", metric.WithDescription("Items newly classified as waste")); err != nil {
		return nil, err
	}
	return &out, nil
}

func add(ctx context.Context, c metric.Int64Counter, n int) {
	if n > 0 {
		c.Add(ctx, int64(n))
	}
}
