package errtrack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"redactado/pkg/redactado"

	"github.com/getsentry/sentry-go"
)

const defaultFlushTimeout = 2 * time.Second

// SentryConfig configures the Sentry reporter.
type SentryConfig struct {
	// DSN is the Sentry project DSN. Empty disables delivery.
	DSN string
	// Environment tags every event.
	Environment string
	// Release tags every event.
	Release string
	// FlushTimeout bounds Close.
	FlushTimeout time.Duration
	// BeforeSend can inspect or drop events before delivery.
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

// SentryReporter captures contained faults as Sentry exception events.
type SentryReporter struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// NewSentryReporter creates a reporter with its own Sentry client and hub.
func NewSentryReporter(cfg SentryConfig) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
		SampleRate:       1.0,
		BeforeSend:       cfg.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("new sentry reporter: %w", err)
	}

	flushTimeout := cfg.FlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}

	return &SentryReporter{
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: flushTimeout,
	}, nil
}

// Report captures fault on a cloned hub so concurrent reports never share scope.
func (r *SentryReporter) Report(ctx context.Context, fault error) {
	if fault == nil {
		return
	}

	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetContext("redactado", sentry.Context{"context_error": errString(ctx.Err())})

		var handlerFault *redactado.HandlerFault
		if errors.As(fault, &handlerFault) {
			scope.SetTag("command", handlerFault.Name)
			scope.SetTag("namespace", string(handlerFault.Namespace))
			scope.SetTag("interaction_id", handlerFault.InteractionID)
			scope.SetTag("panicked", fmt.Sprintf("%t", handlerFault.Panicked))
		}

		hub.CaptureException(fault)
	})
}

// Close flushes buffered events within the configured timeout.
func (r *SentryReporter) Close() bool {
	return r.hub.Flush(r.flushTimeout)
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

var _ redactado.ErrorReporter = (*SentryReporter)(nil)
