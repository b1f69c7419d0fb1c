package kernel

import (
	"log/slog"
	"time"

	"redactado/internal/errtrack"
	"redactado/pkg/redactado"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultShutdownTimeout    = 10 * time.Second
	defaultListenerTimeout    = 5 * time.Second
	defaultDescriptorTTL      = 5 * time.Minute
	defaultDescriptorCapacity = 100
)

// config stores resolved kernel runtime settings after option application.
type config struct {
	shutdownTimeout    time.Duration
	listenerTimeout    time.Duration
	handlerTimeout     time.Duration
	descriptorTTL      time.Duration
	descriptorCapacity int
	registerListeners  bool
	logger             *slog.Logger
	reporter           redactado.ErrorReporter
	tracerProvider     trace.TracerProvider
	meterProvider      metric.MeterProvider
}

// Option mutates kernel construction configuration.
type Option func(*config)

// defaultConfig returns production-safe defaults for kernel runtime controls.
func defaultConfig() config {
	return config{
		shutdownTimeout:    defaultShutdownTimeout,
		listenerTimeout:    defaultListenerTimeout,
		descriptorTTL:      defaultDescriptorTTL,
		descriptorCapacity: defaultDescriptorCapacity,
		registerListeners:  true,
		logger:             slog.Default(),
	}
}

// resolve fills collaborators that depend on other options.
func (cfg *config) resolve() {
	if cfg.reporter == nil {
		cfg.reporter = errtrack.NewLogReporter(cfg.logger)
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}
}

// WithShutdownTimeout configures the gateway shutdown and in-flight drain window.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout > 0 {
			cfg.shutdownTimeout = timeout
		}
	}
}

// WithListenerTimeout configures the OnReady timeout boundary for lifecycle listeners.
func WithListenerTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout > 0 {
			cfg.listenerTimeout = timeout
		}
	}
}

// WithHandlerTimeout sets a deadline on every handler invocation.
// Zero, the default, lets handlers run to completion.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout >= 0 {
			cfg.handlerTimeout = timeout
		}
	}
}

// WithDescriptorCache configures descriptor cache expiry and key capacity.
func WithDescriptorCache(ttl time.Duration, capacity int) Option {
	return func(cfg *config) {
		if ttl > 0 {
			cfg.descriptorTTL = ttl
		}
		if capacity > 0 {
			cfg.descriptorCapacity = capacity
		}
	}
}

// WithListeners toggles OnReady delivery to commands implementing redactado.LifecycleListener.
func WithListeners(enabled bool) Option {
	return func(cfg *config) {
		cfg.registerListeners = enabled
	}
}

// WithLogger configures logger used by kernel components and the default error reporter.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithErrorReporter configures where contained handler and listener faults are sent.
func WithErrorReporter(reporter redactado.ErrorReporter) Option {
	return func(cfg *config) {
		if reporter != nil {
			cfg.reporter = reporter
		}
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider overrides the global OpenTelemetry meter provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}
