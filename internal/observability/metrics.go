package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	meterScope         = "github.com/edly-io/nodebb-sync/internal/observability"
	defaultServiceName = "nodebb-sync"
	cardinalityLimit   = 500
)

// latencyHistogramBoundaries are Prometheus-style buckets (seconds) for action run durations.
var latencyHistogramBoundaries = []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10}

// SyncMetrics is the single metrics interface for the sync service
// (publisher, bridge enqueue, worker execution). Call sites accept nil
// when metrics are disabled.
type SyncMetrics interface {
	RecordEventDropped(ctx context.Context, eventKind string)
	RecordActionEnqueued(ctx context.Context, eventKind string)
	RecordEnqueueError(ctx context.Context, eventKind string)
	RecordEnqueueRetry(ctx context.Context)
	RecordActionRun(ctx context.Context, taskKind, outcome string, duration time.Duration)
}

// MeterProviderShutdown is the subset of the SDK MeterProvider needed for shutdown.
type MeterProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// MeterProviderConfig holds configuration for creating the MeterProvider and metrics.
type MeterProviderConfig struct {
	// ServiceName is used in the resource (default: nodebb-sync).
	ServiceName string
}

// NewMeterProvider creates a MeterProvider with Prometheus exporter and returns the provider,
// an HTTP handler for /metrics, and SyncMetrics that use the provider's Meter.
// Caller must call provider.Shutdown on exit.
func NewMeterProvider(_ context.Context, cfg MeterProviderConfig) (provider MeterProviderShutdown, metricsHandler http.Handler, metrics SyncMetrics, err error) {
	serviceNameVal := cfg.ServiceName
	if serviceNameVal == "" {
		serviceNameVal = defaultServiceName
	}

	// Use a single resource to avoid Schema URL conflicts when merging with resource.Default().
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceNameVal),
	)

	reg := prometheus.NewRegistry()

	exporter, err := prometheusexporter.New(
		prometheusexporter.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
		sdkmetric.WithCardinalityLimit(cardinalityLimit),
		sdkmetric.WithView(
			sdkmetric.NewView(
				sdkmetric.Instrument{Name: MetricNameActionRunDuration},
				sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: latencyHistogramBoundaries}},
			),
		),
	)
	provider = mp
	meter := mp.Meter(meterScope)

	metrics, err = newMetricsFromMeter(meter)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create metrics instruments: %w", err)
	}

	metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return provider, metricsHandler, metrics, nil
}

// syncMetrics implements SyncMetrics with OpenTelemetry instruments.
type syncMetrics struct {
	eventsDropped   metric.Int64Counter
	actionsEnqueued metric.Int64Counter
	enqueueErrors   metric.Int64Counter
	enqueueRetries  metric.Int64Counter
	actionRuns      metric.Int64Counter
	actionDuration  metric.Float64Histogram
}

func newMetricsFromMeter(meter metric.Meter) (SyncMetrics, error) {
	eventsDropped, err := meter.Int64Counter(MetricNameEventsDropped,
		metric.WithDescription("Lifecycle events dropped because the event channel was full"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNameEventsDropped, err)
	}

	actionsEnqueued, err := meter.Int64Counter(MetricNameActionsEnqueued,
		metric.WithDescription("Sync actions enqueued on the job queue"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNameActionsEnqueued, err)
	}

	enqueueErrors, err := meter.Int64Counter(MetricNameEnqueueErrors,
		metric.WithDescription("Sync action enqueue failures after all in-process retries"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNameEnqueueErrors, err)
	}

	enqueueRetries, err := meter.Int64Counter(MetricNameEnqueueRetries,
		metric.WithDescription("In-process retries of failed job inserts"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNameEnqueueRetries, err)
	}

	actionRuns, err := meter.Int64Counter(MetricNameActionRuns,
		metric.WithDescription("Sync action executions by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNameActionRuns, err)
	}

	actionDuration, err := meter.Float64Histogram(MetricNameActionRunDuration,
		metric.WithDescription("Sync action execution duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNameActionRunDuration, err)
	}

	return &syncMetrics{
		eventsDropped:   eventsDropped,
		actionsEnqueued: actionsEnqueued,
		enqueueErrors:   enqueueErrors,
		enqueueRetries:  enqueueRetries,
		actionRuns:      actionRuns,
		actionDuration:  actionDuration,
	}, nil
}

func (m *syncMetrics) RecordEventDropped(ctx context.Context, eventKind string) {
	m.eventsDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEventKind, NormalizeEventKind(eventKind)),
	))
}

func (m *syncMetrics) RecordActionEnqueued(ctx context.Context, eventKind string) {
	m.actionsEnqueued.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEventKind, NormalizeEventKind(eventKind)),
	))
}

func (m *syncMetrics) RecordEnqueueError(ctx context.Context, eventKind string) {
	m.enqueueErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEventKind, NormalizeEventKind(eventKind)),
	))
}

func (m *syncMetrics) RecordEnqueueRetry(ctx context.Context) {
	m.enqueueRetries.Add(ctx, 1)
}

func (m *syncMetrics) RecordActionRun(ctx context.Context, taskKind, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrTaskKind, taskKind),
		attribute.String(AttrOutcome, NormalizeOutcome(outcome)),
	)
	m.actionRuns.Add(ctx, 1, attrs)
	m.actionDuration.Record(ctx, duration.Seconds(), attrs)
}
