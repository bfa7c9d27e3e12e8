package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/kbukum/authkit/logger"
)

// MeterProvider owns the metric pipeline: a Prometheus reader backing the
// scrape handler and, optionally, a periodic OTLP reader.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// InitMeter builds the metric pipeline. It does not touch the global provider.
func InitMeter(ctx context.Context, cfg MeterConfig, res *resource.Resource, log *logger.Logger) (*MeterProvider, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promReader, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus reader: %w", err)
	}
	opts := []sdkmetric.Option{sdkmetric.WithReader(promReader)}
	if res != nil {
		opts = append(opts, sdkmetric.WithResource(res))
	}

	if cfg.OTLP.Enabled {
		expOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLP.Endpoint)}
		if cfg.OTLP.Insecure {
			expOpts = append(expOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTLP.Interval)),
		))
		log.Info("OTLP metric export enabled", logger.Fields(
			"endpoint", cfg.OTLP.Endpoint,
			"interval", cfg.OTLP.Interval.String(),
		))
	}

	return &MeterProvider{
		provider: sdkmetric.NewMeterProvider(opts...),
		registry: registry,
	}, nil
}

// Meter returns a named meter.
func (p *MeterProvider) Meter(name string) metric.Meter {
	return p.provider.Meter(name)
}

// Handler serves the Prometheus exposition format.
func (p *MeterProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops all readers.
func (p *MeterProvider) Shutdown(ctx context.Context) error {
	err := p.provider.Shutdown(ctx)
	if errors.Is(err, sdkmetric.ErrReaderShutdown) {
		return nil
	}
	return err
}

// HTTPMetrics holds the request instruments recorded by the server middleware.
type HTTPMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
}

// NewHTTPMetrics creates request instruments on the given meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestTotal, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.active_requests counter: %w", err)
	}

	return &HTTPMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
	}, nil
}

// RecordRequestStart increments the in-flight count.
func (m *HTTPMetrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements the in-flight count and records the request.
func (m *HTTPMetrics) RecordRequestEnd(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}
