package kernel

import (
	"context"
	"log/slog"

	"redactado/pkg/redactado"
)

// commandLookup resolves registered commands by name and namespace.
type commandLookup interface {
	Lookup(name string, namespace redactado.Namespace) (redactado.Command, bool)
}

// commandRunner starts one command invocation without blocking.
type commandRunner interface {
	Run(ctx context.Context, command redactado.Command, interaction *redactado.Interaction)
}

// Dispatcher routes inbound interactions to registered commands.
type Dispatcher struct {
	commands    commandLookup
	runner      commandRunner
	logger      *slog.Logger
	instruments *instruments
}

// newDispatcher creates a dispatcher resolving through commands and executing through runner.
func newDispatcher(commands commandLookup, runner commandRunner, logger *slog.Logger, instruments *instruments) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if instruments == nil {
		cfg := defaultConfig()
		cfg.resolve()
		instruments = newInstruments(cfg.tracerProvider, cfg.meterProvider)
	}

	return &Dispatcher{
		commands:    commands,
		runner:      runner,
		logger:      logger,
		instruments: instruments,
	}
}

// OnInteraction resolves interaction and hands it to the runner.
//
// Unknown commands are logged and ignored. The handler never runs on the
// calling goroutine.
func (d *Dispatcher) OnInteraction(ctx context.Context, interaction *redactado.Interaction) {
	if err := interaction.Validate(); err != nil {
		d.logger.WarnContext(ctx, "dropping invalid interaction", "error", err)
		d.instruments.recordDispatch(ctx, interaction, dispatchResultInvalid)
		return
	}
	namespace, _ := interaction.Namespace()

	d.logger.DebugContext(ctx, "processing interaction",
		"command", interaction.Name,
		"namespace", namespace,
		"interaction_id", interaction.ID,
		"gateway", interaction.Gateway,
	)

	command, ok := d.commands.Lookup(interaction.Name, namespace)
	if !ok {
		d.logger.InfoContext(ctx, "command not found",
			"command", interaction.Name,
			"namespace", namespace,
			"gateway", interaction.Gateway,
		)
		d.instruments.recordDispatch(ctx, interaction, dispatchResultNotFound)
		return
	}

	d.logger.InfoContext(ctx, "executing command",
		"command", interaction.Name,
		"namespace", namespace,
		"actor", interaction.Actor.ID,
		"gateway", interaction.Gateway,
	)
	d.instruments.recordDispatch(ctx, interaction, dispatchResultDispatched)
	d.runner.Run(ctx, command, interaction)
}

var _ redactado.InteractionSink = (*Dispatcher)(nil)
