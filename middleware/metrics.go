package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Distrotech/asterisk/attempt"
)

// meterName is the instrumentation scope name for dispatch metrics.
const meterName = "github.com/Distrotech/asterisk"

// Metrics returns middleware recording per-attempt ring metrics using
// the global OTel MeterProvider. With no MeterProvider configured, noop
// instruments make this a pass-through.
//
// Instruments:
//   - dispatch.attempt.duration (Float64Histogram): ring time in
//     seconds, attributes: queue, interface, status ("ok" or "error")
//   - dispatch.attempt.count (Int64Counter): total attempts, same
//     attributes
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	duration, dErr := meter.Float64Histogram(
		"dispatch.attempt.duration",
		metric.WithDescription("Duration of a ring attempt in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr

	count, eErr := meter.Int64Counter(
		"dispatch.attempt.count",
		metric.WithDescription("Total number of ring attempts"),
		metric.WithUnit("{attempt}"),
	)
	_ = eErr

	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("queue", queue),
			attribute.String("interface", a.Member.Interface),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		count.Add(ctx, 1, attrs)

		return err
	}
}
