package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/dispatch"

// Tracer provides OpenTelemetry tracing for dispatch.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new dispatch tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartNotifySpan starts a new span for a notification fan-out.
func (t *Tracer) StartNotifySpan(ctx context.Context, tenantID, eventID, eventType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "dispatch.notify",
		trace.WithAttributes(
			attribute.String("dispatch.tenant_id", tenantID),
			attribute.String("dispatch.event_id", eventID),
			attribute.String("dispatch.event_type", eventType),
		),
	)
}

// StartDeliverySpan starts a new span for a delivery to one subscription.
func (t *Tracer) StartDeliverySpan(ctx context.Context, subscriptionID, eventID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "dispatch.delivery",
		trace.WithAttributes(
			attribute.String("dispatch.subscription_id", subscriptionID),
			attribute.String("dispatch.event_id", eventID),
		),
	)
}

// EndDeliverySpan ends a delivery span with result attributes.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, attempts int, err string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("dispatch.attempts", attempts),
	)
	if err != "" {
		span.SetAttributes(attribute.String("dispatch.error", err))
	}
	span.End()
}
