package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "campus-realtime"

// Metrics holds the instruments recorded by the hub. A nil *Metrics records nothing.
type Metrics struct {
	Connections metric.Int64UpDownCounter
	Published   metric.Int64Counter
	Deliveries  metric.Int64Counter
	Duplicates  metric.Int64Counter
	Fanout      metric.Int64Histogram
}

// NewMetrics creates all instruments on the given provider, or on the global
// provider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Connections, err = meter.Int64UpDownCounter("campus.connections.active",
		metric.WithDescription("Number of live client connections"))
	if err != nil {
		return nil, err
	}

	m.Published, err = meter.Int64Counter("campus.events.published",
		metric.WithDescription("Number of events published"))
	if err != nil {
		return nil, err
	}

	m.Deliveries, err = meter.Int64Counter("campus.events.deliveries",
		metric.WithDescription("Number of per-connection delivery attempts"))
	if err != nil {
		return nil, err
	}

	m.Duplicates, err = meter.Int64Counter("campus.events.duplicates",
		metric.WithDescription("Number of events suppressed as duplicates"))
	if err != nil {
		return nil, err
	}

	m.Fanout, err = meter.Int64Histogram("campus.dispatch.fanout",
		metric.WithDescription("Connections resolved per publish"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ConnectionOpened records a new connection.
func (m *Metrics) ConnectionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.Connections.Add(ctx, 1)
}

// ConnectionClosed records a closed connection.
func (m *Metrics) ConnectionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.Connections.Add(ctx, -1)
}

// EventPublished records one publish and the number of connections it resolved to.
func (m *Metrics) EventPublished(ctx context.Context, kind, scope string, recipients int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("scope", scope),
	)
	m.Published.Add(ctx, 1, attrs)
	m.Fanout.Record(ctx, int64(recipients), attrs)
}

// EventDelivered records the outcome of one publish.
func (m *Metrics) EventDelivered(ctx context.Context, kind string, delivered, failed int) {
	if m == nil {
		return
	}
	if delivered > 0 {
		m.Deliveries.Add(ctx, int64(delivered), metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", "delivered"),
		))
	}
	if failed > 0 {
		m.Deliveries.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", "failed"),
		))
	}
}

// EventSuppressed records an event dropped by the duplicate window.
func (m *Metrics) EventSuppressed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Duplicates.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
