package ping

import (
	"context"
	"fmt"
	"time"

	"redactado/pkg/redactado"
)

const pingCommandName = "ping"

// Command replies with response time and gateway latency when it receives a "/ping" interaction.
type Command struct {
	now func() time.Time
}

// New creates a ping command with default configuration.
func New() *Command {
	return &Command{now: time.Now}
}

// Descriptor declares the guild-only ping slash command.
func (c *Command) Descriptor() (redactado.Descriptor, error) {
	return redactado.Descriptor{
		Type:        redactado.CommandTypeChatInput,
		Name:        pingCommandName,
		Description: "Check bot latency",
		Contexts:    []redactado.InteractionContext{redactado.InteractionContextGuild},
	}, nil
}

// Handle defers the interaction, then replies with the measured round trip.
func (c *Command) Handle(ctx context.Context, interaction *redactado.Interaction) error {
	if interaction == nil {
		return fmt.Errorf("ping handle: nil interaction")
	}
	if interaction.Responder == nil {
		return fmt.Errorf("ping handle %s: %w", interaction.ID, redactado.ErrNoResponder)
	}

	startedAt := c.now()
	if err := interaction.Defer(ctx); err != nil {
		return fmt.Errorf("ping defer: %w", err)
	}
	elapsed := c.now().Sub(startedAt)

	body := renderPong(elapsed, interaction.Responder.Latency())
	if err := interaction.Reply(ctx, body); err != nil {
		return fmt.Errorf("ping send pong: %w", err)
	}

	return nil
}

func renderPong(response time.Duration, gateway time.Duration) string {
	return fmt.Sprintf(
		"Pong! Response time: %dms, gateway latency: %dms",
		response.Milliseconds(),
		gateway.Milliseconds(),
	)
}

var _ redactado.Command = (*Command)(nil)
