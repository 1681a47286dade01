// Package telemetry traces worker pool operations with OpenTelemetry.
//
// Spans are exported over OTLP/HTTP. When Prometheus is enabled, the
// operation counter and latency histogram are bridged into the default
// Prometheus registry and served with the rest of the pool metrics.
//
// A nil or disabled Provider is valid: spans then go to the global tracer,
// which is a no-op unless something else installed one.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/ciro-network/ciro/workerpool"
	serviceName         = "ciro-workerpool"

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
)

// Config selects what the provider exports.
type Config struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
	Environment  string
	NodeID       string

	PrometheusEnabled bool
}

// Validate checks an enabled config; a disabled one is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.OTLPEndpoint == "" {
		return errors.New("otlp endpoint is required")
	}
	if _, err := url.Parse(c.OTLPEndpoint); err != nil {
		return fmt.Errorf("invalid otlp endpoint: %w", err)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}
	return nil
}

// Provider owns the tracer and meter providers for the daemon.
type Provider struct {
	config Config

	tracerProvider *tracesdk.TracerProvider
	meterProvider  *metricsdk.MeterProvider
	tracer         trace.Tracer

	operations metric.Int64Counter
	latency    metric.Float64Histogram
}

// Operation is one traced worker pool call, from StartOperation to
// EndOperation.
type Operation struct {
	name    string
	span    trace.Span
	started time.Time
}

// NewProvider builds the exporters described by cfg.
func NewProvider(cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			attribute.String("deployment.environment", cfg.Environment),
			attribute.String("node.id", cfg.NodeID),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.startTracing(res); err != nil {
		return nil, err
	}
	if cfg.PrometheusEnabled {
		if err := p.startMetrics(res); err != nil {
			_ = p.tracerProvider.Shutdown(context.Background())
			return nil, err
		}
	}
	return p, nil
}

func (p *Provider) startTracing(res *resource.Resource) error {
	// The exporter wants host:port; config values often carry a scheme.
	endpoint := strings.TrimPrefix(strings.TrimPrefix(p.config.OTLPEndpoint, "http://"), "https://")

	exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithURLPath("/v1/traces"),
	))
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	p.tracerProvider = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter, tracesdk.WithBatchTimeout(5*time.Second)),
		tracesdk.WithResource(res),
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(p.config.SampleRate))),
	)
	otel.SetTracerProvider(p.tracerProvider)
	p.tracer = p.tracerProvider.Tracer(instrumentationName)
	return nil
}

func (p *Provider) startMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	p.meterProvider = metricsdk.NewMeterProvider(
		metricsdk.WithResource(res),
		metricsdk.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)

	meter := p.meterProvider.Meter(instrumentationName)
	if p.operations, err = meter.Int64Counter("workerpool.operations",
		metric.WithDescription("Worker pool operations by name and outcome"),
	); err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}
	if p.latency, err = meter.Float64Histogram("workerpool.operation.duration",
		metric.WithDescription("Time spent executing a worker pool operation, including the writer lock wait"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create latency histogram: %w", err)
	}
	return nil
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Tracer returns the provider's tracer, or the global one when tracing is off.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return p.tracer
}

// StartOperation opens a span named after the operation and records who
// called it.
func (p *Provider) StartOperation(ctx context.Context, name, caller string) (context.Context, *Operation) {
	ctx, span := p.Tracer().Start(ctx, "workerpool."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("workerpool.operation", name),
			attribute.String("workerpool.caller", caller),
		),
	)
	return ctx, &Operation{name: name, span: span, started: time.Now()}
}

// EndOperation closes op. A non-nil err marks the span failed and is counted
// as a rejection.
func (p *Provider) EndOperation(ctx context.Context, op *Operation, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeRejected
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	} else {
		op.span.SetStatus(codes.Ok, "")
	}
	op.span.End()

	if p == nil || p.operations == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op.name),
		attribute.String("outcome", outcome),
	)
	p.operations.Add(ctx, 1, attrs)
	p.latency.Record(ctx, time.Since(op.started).Seconds(), attrs)
}

// HealthCheck reports whether the configured exporters are running.
func (p *Provider) HealthCheck() error {
	if p == nil || !p.config.Enabled {
		return nil
	}
	if p.tracerProvider == nil {
		return errors.New("tracer provider not initialized")
	}
	if p.config.PrometheusEnabled && p.meterProvider == nil {
		return errors.New("meter provider not initialized")
	}
	return nil
}
