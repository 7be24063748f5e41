// Package metrics provides queue-level OpenTelemetry instrumentation:
// waiting count, holdtime/talktime moving averages, service-level
// percentage, and completed/abandoned totals, sampled directly from
// each registered queue.Data on every collection pass.
//
// This complements middleware.Metrics, which records per-attempt ring
// duration and outcome; this package reports the aggregate state of a
// queue as a whole, the way an operator's dashboard would want it.
//
// Grounded on the teacher's observability.MetricsExtension (queue
// subsystem registered against an engine-provided MeterProvider), but
// built on the raw OpenTelemetry metric API directly rather than the
// teacher's github.com/xraph/go-utils/metrics.MetricFactory: this
// module has no lifecycle-hook Extension mechanism to plug into (the
// teacher's counters are all `OnJobEnqueued`-style hooks fired by a
// dispatcher that no longer exists here), and queue.Data's own moving
// averages are exactly the values that should be exported as gauges
// rather than re-derived through a counter abstraction.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Distrotech/asterisk/queue"
)

// meterName is the instrumentation scope name for queue-level metrics.
const meterName = "github.com/Distrotech/asterisk/metrics"

// Collector samples registered queues on every OTel collection pass and
// reports their current statistics as observable instruments.
type Collector struct {
	mu     sync.Mutex
	queues map[string]*queue.Data

	waiting     metric.Int64ObservableGauge
	holdtimeAvg metric.Float64ObservableGauge
	talktimeAvg metric.Float64ObservableGauge
	serviceLvl  metric.Float64ObservableGauge
	completed   metric.Int64ObservableCounter
	completedSL metric.Int64ObservableCounter
	abandoned   metric.Int64ObservableCounter
}

// NewCollector builds a Collector reporting through the global
// MeterProvider. With no provider configured, noop instruments make
// this a pass-through.
func NewCollector() (*Collector, error) {
	return NewCollectorWithMeter(otel.Meter(meterName))
}

// NewCollectorWithMeter is NewCollector with an injectable meter, for
// testing or when multiple providers are in use.
func NewCollectorWithMeter(meter metric.Meter) (*Collector, error) {
	c := &Collector{queues: make(map[string]*queue.Data)}

	var err error
	if c.waiting, err = meter.Int64ObservableGauge(
		"dispatch.queue.waiting",
		metric.WithDescription("Number of callers currently waiting in the queue"),
		metric.WithUnit("{caller}"),
	); err != nil {
		return nil, err
	}
	if c.holdtimeAvg, err = meter.Float64ObservableGauge(
		"dispatch.queue.holdtime_avg",
		metric.WithDescription("Moving average hold time before answer or abandon"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if c.talktimeAvg, err = meter.Float64ObservableGauge(
		"dispatch.queue.talktime_avg",
		metric.WithDescription("Moving average talk time on bridged calls"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if c.serviceLvl, err = meter.Float64ObservableGauge(
		"dispatch.queue.service_level",
		metric.WithDescription("Fraction of completed calls answered within the service-level target"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, err
	}
	if c.completed, err = meter.Int64ObservableCounter(
		"dispatch.queue.completed",
		metric.WithDescription("Total calls bridged to a member from this queue"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if c.completedSL, err = meter.Int64ObservableCounter(
		"dispatch.queue.completed_within_sl",
		metric.WithDescription("Total calls bridged within the service-level target"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if c.abandoned, err = meter.Int64ObservableCounter(
		"dispatch.queue.abandoned",
		metric.WithDescription("Total callers who left the queue without being bridged"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	insts := []metric.Observable{
		c.waiting, c.holdtimeAvg, c.talktimeAvg, c.serviceLvl,
		c.completed, c.completedSL, c.abandoned,
	}
	if _, err := meter.RegisterCallback(c.observe, insts...); err != nil {
		return nil, err
	}

	return c, nil
}

// Register adds name/data to the set of queues sampled on every
// collection pass. Calling Register again for an existing name
// replaces its Data pointer (a reload swapped it out).
func (c *Collector) Register(name string, data *queue.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues[name] = data
}

// Unregister stops sampling name, e.g. when a queue is deleted.
func (c *Collector) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.queues, name)
}

func (c *Collector) observe(_ context.Context, o metric.Observer) error {
	c.mu.Lock()
	snap := make(map[string]queue.Snapshot, len(c.queues))
	for name, data := range c.queues {
		snap[name] = data.Stats()
	}
	c.mu.Unlock()

	for name, s := range snap {
		attrs := metric.WithAttributes(attribute.String("queue", name))

		o.ObserveInt64(c.waiting, int64(s.Waiting), attrs)
		o.ObserveFloat64(c.holdtimeAvg, s.HoldtimeAvg.Seconds(), attrs)
		o.ObserveFloat64(c.talktimeAvg, s.TalktimeAvg.Seconds(), attrs)
		o.ObserveInt64(c.completed, s.Completed, attrs)
		o.ObserveInt64(c.completedSL, s.CompletedSL, attrs)
		o.ObserveInt64(c.abandoned, s.Abandoned, attrs)

		var sl float64
		if s.Completed > 0 {
			sl = float64(s.CompletedSL) / float64(s.Completed)
		}
		o.ObserveFloat64(c.serviceLvl, sl, attrs)
	}

	return nil
}
