package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Distrotech/asterisk/attempt"
)

// tracerName is the instrumentation scope name for dispatch tracing.
const tracerName = "github.com/Distrotech/asterisk"

// Tracing returns middleware that wraps one ring attempt in an
// OpenTelemetry span. With no TracerProvider configured globally, the
// noop tracer makes this a pass-through.
//
// Span attributes: dispatch.attempt.id, dispatch.interface,
// dispatch.queue, dispatch.metric. On error, span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer is Tracing with an injectable tracer, for testing
// or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error {
		ctx, span := tracer.Start(ctx, "dispatch.attempt.ring",
			trace.WithAttributes(
				attribute.String("dispatch.attempt.id", a.ID.String()),
				attribute.String("dispatch.interface", a.Member.Interface),
				attribute.String("dispatch.queue", queue),
				attribute.Int("dispatch.metric", a.Metric),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
