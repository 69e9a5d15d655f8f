package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/transcribe-worker/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter installs a periodic OTLP meter provider as the global one.
// The caller must shut it down on exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the worker's instruments. A nil *Metrics records nothing.
type Metrics struct {
	jobsTotal       metric.Int64Counter
	jobsActive      metric.Int64UpDownCounter
	phaseDuration   metric.Float64Histogram
	stagedBytes     metric.Int64Counter
	cleanupFailures metric.Int64Counter
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.jobsTotal, err = meter.Int64Counter("pipeline.jobs.total",
		metric.WithDescription("Finished jobs by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.jobs.total: %w", err)
	}
	if m.jobsActive, err = meter.Int64UpDownCounter("pipeline.jobs.active",
		metric.WithDescription("Jobs currently being processed"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.jobs.active: %w", err)
	}
	if m.phaseDuration, err = meter.Float64Histogram("pipeline.phase.duration",
		metric.WithDescription("Duration of pipeline phases in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.phase.duration: %w", err)
	}
	if m.stagedBytes, err = meter.Int64Counter("pipeline.staged.bytes",
		metric.WithDescription("Bytes copied into the staging bucket"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.staged.bytes: %w", err)
	}
	if m.cleanupFailures, err = meter.Int64Counter("pipeline.cleanup.failures",
		metric.WithDescription("Staged objects that could not be deleted"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.cleanup.failures: %w", err)
	}
	if m.requestTotal, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests by route and status"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.requests: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.duration: %w", err)
	}
	return &m, nil
}

// JobStarted increments the active job count.
func (m *Metrics) JobStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, 1)
}

// JobFinished decrements the active job count and counts the outcome.
func (m *Metrics) JobFinished(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, -1)
	m.jobsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordPhase records how long a pipeline phase took.
func (m *Metrics) RecordPhase(ctx context.Context, phase, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("status", status),
	))
}

// RecordStaged counts bytes copied into staging.
func (m *Metrics) RecordStaged(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.stagedBytes.Add(ctx, n)
}

// RecordCleanupFailure counts a staged object left behind.
func (m *Metrics) RecordCleanupFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.cleanupFailures.Add(ctx, 1)
}

// RecordRequest records a finished HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}
