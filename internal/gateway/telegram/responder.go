package telegram

import (
	"context"
	"fmt"
	"time"

	"redactado/pkg/redactado"

	"github.com/gotd/td/tg"
)

const latencyProbeTimeout = 5 * time.Second

// messageResponder answers one command message with replies in the same chat.
type messageResponder struct {
	messenger messenger
	entities  tg.Entities
	update    *tg.UpdateNewMessage
}

// Defer shows the typing indicator.
func (r *messageResponder) Defer(ctx context.Context) error {
	if err := r.messenger.Typing(ctx, r.entities, r.update); err != nil {
		return fmt.Errorf("telegram typing action: %w", err)
	}

	return nil
}

// Reply sends content as a reply to the command message.
func (r *messageResponder) Reply(ctx context.Context, content string) error {
	if err := r.messenger.Reply(ctx, r.entities, r.update, content); err != nil {
		return fmt.Errorf("telegram reply: %w", err)
	}

	return nil
}

// Latency measures one MTProto ping round trip, or zero when the probe fails.
func (r *messageResponder) Latency() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), latencyProbeTimeout)
	defer cancel()

	started := time.Now()
	if err := r.messenger.Ping(ctx); err != nil {
		return 0
	}

	return time.Since(started)
}

var _ redactado.Responder = (*messageResponder)(nil)
