// Package telemetry exposes instrument metrics through OpenTelemetry with a
// Prometheus exporter.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "github.com/ayusman/airsynth"

// Telemetry owns the meter provider and the /metrics handler.
type Telemetry struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler
	metrics  *Metrics
}

// Setup builds a meter provider backed by a private Prometheus registry.
func Setup(serviceName string) (*Telemetry, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	m, err := NewMetrics(provider.Meter(meterName))
	if err != nil {
		provider.Shutdown(context.Background())
		return nil, err
	}

	return &Telemetry{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		metrics:  m,
	}, nil
}

// Handler serves the Prometheus text exposition.
func (t *Telemetry) Handler() http.Handler {
	return t.handler
}

// Metrics returns the instrument set.
func (t *Telemetry) Metrics() *Metrics {
	return t.metrics
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// Metrics records pipeline activity. A nil *Metrics discards everything so
// callers never need to check.
type Metrics struct {
	batches    metric.Int64Counter
	gestures   metric.Int64Counter
	handLosses metric.Int64Counter
	tick       metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	batches, err := meter.Int64Counter("airsynth.tracker.batches",
		metric.WithDescription("Hand landmark batches processed"))
	if err != nil {
		return nil, err
	}

	gestures, err := meter.Int64Counter("airsynth.gesture.events",
		metric.WithDescription("Discrete gestures fired"))
	if err != nil {
		return nil, err
	}

	handLosses, err := meter.Int64Counter("airsynth.hand.losses",
		metric.WithDescription("Frames where a previously tracked hand disappeared"))
	if err != nil {
		return nil, err
	}

	tick, err := meter.Float64Histogram("airsynth.control.tick.duration",
		metric.WithDescription("Smoothing loop iteration time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		batches:    batches,
		gestures:   gestures,
		handLosses: handLosses,
		tick:       tick,
	}, nil
}

// RecordBatch counts one processed batch, labelled by how many hands it held.
func (m *Metrics) RecordBatch(ctx context.Context, hands int) {
	if m == nil {
		return
	}
	m.batches.Add(ctx, 1, metric.WithAttributes(attribute.Int("hands", hands)))
}

// RecordGesture counts a fired gesture of the given kind.
func (m *Metrics) RecordGesture(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.gestures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordHandLoss counts a hand dropping out of view.
func (m *Metrics) RecordHandLoss(ctx context.Context, hand string) {
	if m == nil {
		return
	}
	m.handLosses.Add(ctx, 1, metric.WithAttributes(attribute.String("hand", hand)))
}

// RecordTick records one smoothing iteration.
func (m *Metrics) RecordTick(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.tick.Record(ctx, d.Seconds())
}
