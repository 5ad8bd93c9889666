// Package otel builds the OpenTelemetry providers for the auth server and maps session
// events onto OTel log records.
package otel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// metricInterval is the export period of the periodic metric reader.
const metricInterval = 10 * time.Second

// Providers holds the OpenTelemetry providers and a shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error
}

// collector is a parsed OTLP gRPC endpoint.
type collector struct {
	target   string
	insecure bool
}

// parseEndpoint reduces endpoint to host:port. Paths are dropped. https uses TLS unless
// insecureOverride is set (OTEL_EXPORTER_OTLP_INSECURE).
func parseEndpoint(endpoint string, insecureOverride bool) (collector, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return collector{}, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return collector{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return collector{target: u.Host, insecure: insecureOverride || u.Scheme != "https"}, nil
}

// NewProviders creates TracerProvider, MeterProvider, and LoggerProvider that export via OTLP gRPC to endpoint.
// If endpoint is empty, SDK providers without exporters are returned and Shutdown is a no-op.
func NewProviders(ctx context.Context, endpoint, serviceName string, insecureOverride bool) (*Providers, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}
	c, err := parseEndpoint(endpoint, insecureOverride)
	if err != nil {
		return nil, err
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	p := &Providers{}
	var shutdownFns []func(context.Context) error
	cleanup := func() {
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			_ = shutdownFns[i](ctx)
		}
	}

	if p.TracerProvider, err = newTracerProvider(ctx, c, res); err != nil {
		return nil, err
	}
	shutdownFns = append(shutdownFns, p.TracerProvider.Shutdown)

	if p.MeterProvider, err = newMeterProvider(ctx, c, res); err != nil {
		cleanup()
		return nil, err
	}
	shutdownFns = append(shutdownFns, p.MeterProvider.Shutdown)

	if p.LoggerProvider, err = newLoggerProvider(ctx, c, res); err != nil {
		cleanup()
		return nil, err
	}
	shutdownFns = append(shutdownFns, p.LoggerProvider.Shutdown)

	p.Shutdown = func(ctx context.Context) error {
		var errs []error
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			if err := shutdownFns[i](ctx); err != nil {
				log.Printf("telemetry: shutdown: %v", err)
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return p, nil
}

func newTracerProvider(ctx context.Context, c collector, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.target)}
	if c.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res)), nil
}

func newMeterProvider(ctx context.Context, c collector, res *resource.Resource) (*metric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.target)}
	if c.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	reader := metric.NewPeriodicReader(exp, metric.WithInterval(metricInterval))
	return metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader)), nil
}

func newLoggerProvider(ctx context.Context, c collector, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(c.target)}
	if c.insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exp, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)), sdklog.WithResource(res)), nil
}

// SetGlobal installs the tracer and meter providers and the W3C propagators globally so
// otelgrpc and the session metrics pick them up. The LoggerProvider is passed explicitly
// to the session event emitter instead.
func (p *Providers) SetGlobal() {
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
}
