// Package telemetry configures OpenTelemetry tracing and metrics for the bot process.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects whether and where spans and metrics are exported.
type Config struct {
	// Enabled gates export. False keeps the global no-op provider.
	Enabled bool
	// Endpoint is the OTLP/HTTP collector URL, for example http://localhost:4318.
	Endpoint string
	// ServiceName is reported as service.name.
	ServiceName string
	// ServiceVersion is reported as service.version when set.
	ServiceVersion string
}

// Setup initialises OpenTelemetry tracing and metrics for the bot.
//
// Export is opt-in: when Enabled is false or Endpoint is empty, Setup returns
// a no-op shutdown function and no global provider is registered. Otherwise
// both a tracer provider and a meter provider are installed globally, sharing
// one OTLP/HTTP collector endpoint.
//
// The returned shutdown function flushes pending spans and metrics and should
// be deferred by the caller.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if !cfg.Enabled || endpoint == "" {
		return noop, nil
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		return noop, fmt.Errorf("telemetry setup: empty service name")
	}

	attributes := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	}
	if cfg.ServiceVersion != "" {
		attributes = append(attributes, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attributes...)
	if err != nil {
		return noop, fmt.Errorf("telemetry setup resource: %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, fmt.Errorf("telemetry setup trace exporter: %w", err)
	}
	metricExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return noop, fmt.Errorf("telemetry setup metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
