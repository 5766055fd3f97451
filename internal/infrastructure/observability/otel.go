package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/vigility/dashboard"

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	AnalyticsQueryCount    metric.Int64Counter
	AnalyticsQueryDuration metric.Float64Histogram
	SnapshotHitCount       metric.Int64Counter
	SnapshotMissCount      metric.Int64Counter
	TrackingFailureCount   metric.Int64Counter
	RequestCount           metric.Int64Counter
	RequestDuration        metric.Float64Histogram
}

// Setup initializes OpenTelemetry tracing and metrics export over OTLP/gRPC
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics on the global meter provider.
// Without Setup the global provider is a no-op, so this never needs a
// collector.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	queryCount, err := meter.Int64Counter(
		"dashboard.analytics.query.count",
		metric.WithDescription("Number of analytics queries by outcome"),
	)
	if err != nil {
		return nil, err
	}

	queryDuration, err := meter.Float64Histogram(
		"dashboard.analytics.query.duration",
		metric.WithDescription("Analytics query duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	snapshotHits, err := meter.Int64Counter(
		"dashboard.snapshot.hit.count",
		metric.WithDescription("Number of filter snapshots restored"),
	)
	if err != nil {
		return nil, err
	}

	snapshotMisses, err := meter.Int64Counter(
		"dashboard.snapshot.miss.count",
		metric.WithDescription("Number of filter snapshot loads that found nothing usable"),
	)
	if err != nil {
		return nil, err
	}

	trackingFailures, err := meter.Int64Counter(
		"dashboard.tracking.failure.count",
		metric.WithDescription("Number of tracking pings that failed"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AnalyticsQueryCount:    queryCount,
		AnalyticsQueryDuration: queryDuration,
		SnapshotHitCount:       snapshotHits,
		SnapshotMissCount:      snapshotMisses,
		TrackingFailureCount:   trackingFailures,
		RequestCount:           requestCount,
		RequestDuration:        requestDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records a served HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordQueryMetric records one settled analytics query. outcome is one of
// "success", "error" or "stale".
func RecordQueryMetric(ctx context.Context, metrics *Metrics, outcome string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.AnalyticsQueryCount.Add(ctx, 1, attrs)
	metrics.AnalyticsQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordSnapshotHit records a restored filter snapshot
func RecordSnapshotHit(ctx context.Context, metrics *Metrics) {
	if metrics == nil {
		return
	}
	metrics.SnapshotHitCount.Add(ctx, 1)
}

// RecordSnapshotMiss records a snapshot load that found nothing usable.
// reason is "absent" or "corrupted".
func RecordSnapshotMiss(ctx context.Context, metrics *Metrics, reason string) {
	if metrics == nil {
		return
	}
	metrics.SnapshotMissCount.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordTrackingFailure records a tracking ping that did not reach the backend
func RecordTrackingFailure(ctx context.Context, metrics *Metrics, feature string) {
	if metrics == nil {
		return
	}
	metrics.TrackingFailureCount.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", feature)))
}
