package kernel

import (
	"context"
	"time"

	"redactado/pkg/redactado"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "redactado/internal/kernel"

const (
	dispatchResultDispatched = "dispatched"
	dispatchResultNotFound   = "not_found"
	dispatchResultInvalid    = "invalid"
)

// instruments bundles the tracer and metric instruments shared by dispatcher and executor.
type instruments struct {
	tracer       trace.Tracer
	interactions metric.Int64Counter
	failures     metric.Int64Counter
	duration     metric.Float64Histogram
}

// newInstruments creates kernel instruments, falling back to no-op instruments
// when the meter rejects a definition.
func newInstruments(tracerProvider trace.TracerProvider, meterProvider metric.MeterProvider) *instruments {
	meter := meterProvider.Meter(instrumentationName)

	var interactions metric.Int64Counter = noop.Int64Counter{}
	if counter, err := meter.Int64Counter(
		"redactado.interactions",
		metric.WithDescription("Inbound interactions by dispatch result"),
		metric.WithUnit("{interaction}"),
	); err == nil {
		interactions = counter
	}

	var failures metric.Int64Counter = noop.Int64Counter{}
	if counter, err := meter.Int64Counter(
		"redactado.handler.failures",
		metric.WithDescription("Handler invocations that returned an error or panicked"),
		metric.WithUnit("{invocation}"),
	); err == nil {
		failures = counter
	}

	var duration metric.Float64Histogram = noop.Float64Histogram{}
	if histogram, err := meter.Float64Histogram(
		"redactado.handler.duration",
		metric.WithDescription("Handler invocation duration"),
		metric.WithUnit("s"),
	); err == nil {
		duration = histogram
	}

	return &instruments{
		tracer:       tracerProvider.Tracer(instrumentationName),
		interactions: interactions,
		failures:     failures,
		duration:     duration,
	}
}

func (m *instruments) recordDispatch(ctx context.Context, interaction *redactado.Interaction, result string) {
	attrs := []attribute.KeyValue{attribute.String("result", result)}
	if interaction != nil {
		attrs = append(attrs,
			attribute.String("platform", string(interaction.Platform)),
			attribute.String("command.type", string(interaction.Type)),
		)
	}
	m.interactions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *instruments) recordInvocation(
	ctx context.Context,
	interaction *redactado.Interaction,
	elapsed time.Duration,
	failed bool,
	panicked bool,
) {
	attrs := metric.WithAttributes(
		attribute.String("command", interaction.Name),
		attribute.String("command.type", string(interaction.Type)),
		attribute.String("platform", string(interaction.Platform)),
	)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if !failed {
		return
	}

	m.failures.Add(ctx, 1, attrs, metric.WithAttributes(attribute.Bool("panicked", panicked)))
}
