package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "campus-realtime"

// StartPublishSpan starts a span for one dispatcher publish.
func StartPublishSpan(ctx context.Context, kind, scope string, rooms []string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "publish",
		trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.String("publish.scope", scope),
			attribute.StringSlice("publish.rooms", rooms),
		),
	)
}

// StartIngressSpan starts a span for an event entering from a producer transport.
func StartIngressSpan(ctx context.Context, transport, kind string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ingress",
		trace.WithAttributes(
			attribute.String("ingress.transport", transport),
			attribute.String("event.kind", kind),
		),
	)
}
