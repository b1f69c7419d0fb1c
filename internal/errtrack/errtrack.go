// Package errtrack delivers contained faults to logs and external error trackers.
package errtrack

import (
	"context"
	"errors"
	"log/slog"

	"redactado/pkg/redactado"
)

// LogReporter writes each fault as one structured error record.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter writing to logger, or slog.Default when nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogReporter{logger: logger}
}

// Report logs fault with command attributes when it is a handler fault.
func (r *LogReporter) Report(ctx context.Context, fault error) {
	if fault == nil {
		return
	}

	attrs := []any{"error", fault}
	var handlerFault *redactado.HandlerFault
	if errors.As(fault, &handlerFault) {
		attrs = append(attrs,
			"command", handlerFault.Name,
			"namespace", handlerFault.Namespace,
			"interaction_id", handlerFault.InteractionID,
			"panicked", handlerFault.Panicked,
		)
	}

	r.logger.ErrorContext(ctx, "contained fault", attrs...)
}

// Multi fans one fault out to every non-nil reporter in order.
type Multi []redactado.ErrorReporter

// NewMulti drops nil reporters and returns the fan-out.
func NewMulti(reporters ...redactado.ErrorReporter) Multi {
	multi := make(Multi, 0, len(reporters))
	for _, reporter := range reporters {
		if reporter != nil {
			multi = append(multi, reporter)
		}
	}

	return multi
}

// Report forwards fault to each reporter.
func (m Multi) Report(ctx context.Context, fault error) {
	for _, reporter := range m {
		reporter.Report(ctx, fault)
	}
}

var (
	_ redactado.ErrorReporter = (*LogReporter)(nil)
	_ redactado.ErrorReporter = Multi(nil)
)
