package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"redactado/internal/errtrack"
	"redactado/pkg/redactado"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs each command invocation on its own goroutine.
//
// A failing or panicking handler is converted into a redactado.HandlerFault and
// reported exactly once; it never reaches the dispatching goroutine. There is no
// concurrency limit.
type Executor struct {
	reporter    redactado.ErrorReporter
	logger      *slog.Logger
	timeout     time.Duration
	instruments *instruments

	mu       sync.Mutex
	inFlight int
	idle     chan struct{}
}

// newExecutor creates an executor that sends contained faults to reporter.
// A positive handlerTimeout bounds every invocation context.
func newExecutor(
	reporter redactado.ErrorReporter,
	logger *slog.Logger,
	handlerTimeout time.Duration,
	instruments *instruments,
) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = errtrack.NewLogReporter(logger)
	}
	if instruments == nil {
		cfg := defaultConfig()
		cfg.resolve()
		instruments = newInstruments(cfg.tracerProvider, cfg.meterProvider)
	}

	return &Executor{
		reporter:    reporter,
		logger:      logger,
		timeout:     handlerTimeout,
		instruments: instruments,
	}
}

// Run starts command for interaction and returns without waiting for it.
func (e *Executor) Run(ctx context.Context, command redactado.Command, interaction *redactado.Interaction) {
	e.begin()
	go func() {
		defer e.end()
		e.invoke(ctx, command, interaction)
	}()
}

// InFlight returns the number of invocations that have not returned yet.
func (e *Executor) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.inFlight
}

// Wait blocks until every started invocation returned or ctx is done.
func (e *Executor) Wait(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight == 0 {
		e.mu.Unlock()
		return nil
	}
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait handlers: %d in flight: %w", e.InFlight(), ctx.Err())
	}
}

func (e *Executor) begin() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight == 0 {
		e.idle = make(chan struct{})
	}
	e.inFlight++
}

func (e *Executor) end() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inFlight--
	if e.inFlight == 0 {
		close(e.idle)
	}
}

func (e *Executor) invoke(ctx context.Context, command redactado.Command, interaction *redactado.Interaction) {
	detached := context.WithoutCancel(ctx)
	handlerCtx := detached
	if e.timeout > 0 {
		var cancel context.CancelFunc
		handlerCtx, cancel = context.WithTimeout(detached, e.timeout)
		defer cancel()
	}

	namespace, _ := interaction.Namespace()
	handlerCtx, span := e.instruments.tracer.Start(handlerCtx, "redactado.command "+interaction.Name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("command", interaction.Name),
			attribute.String("command.namespace", string(namespace)),
			attribute.String("interaction.id", interaction.ID),
			attribute.String("platform", string(interaction.Platform)),
		),
	)
	defer span.End()

	started := time.Now()
	err := runSafely("handle command "+interaction.Name, func() error {
		return command.Handle(handlerCtx, interaction)
	})
	panicked := err != nil && isRecoveredPanic(err)
	e.instruments.recordInvocation(handlerCtx, interaction, time.Since(started), err != nil, panicked)
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fault := &redactado.HandlerFault{
		Namespace:     namespace,
		Name:          interaction.Name,
		InteractionID: interaction.ID,
		Panicked:      panicked,
		Err:           err,
	}
	reportCtx := trace.ContextWithSpan(detached, span)
	if reportErr := runSafely("report handler fault", func() error {
		e.reporter.Report(reportCtx, fault)
		return nil
	}); reportErr != nil {
		e.logger.ErrorContext(reportCtx, "error reporter failed",
			"command", interaction.Name,
			"fault", fault,
			"error", reportErr,
		)
	}
}
