package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"redactado/pkg/redactado"

	"github.com/bwmarrin/discordgo"
)

// interactionResponder answers one Discord interaction.
//
// The first answer uses the interaction callback; once deferred or answered,
// later replies become follow-up messages.
type interactionResponder struct {
	session     session
	interaction *discordgo.Interaction

	mu           sync.Mutex
	acknowledged bool
}

func newInteractionResponder(session session, interaction *discordgo.Interaction) *interactionResponder {
	return &interactionResponder{session: session, interaction: interaction}
}

// Defer sends a deferred channel message response.
func (r *interactionResponder) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.acknowledged {
		return nil
	}
	if err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord defer interaction: %w", err)
	}
	r.acknowledged = true

	return nil
}

// Reply sends content as the response or as a follow-up.
func (r *interactionResponder) Reply(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.acknowledged {
		if _, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Content: content,
		}, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord follow-up interaction: %w", err)
		}
		return nil
	}

	if err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord respond interaction: %w", err)
	}
	r.acknowledged = true

	return nil
}

// Latency returns the gateway heartbeat round trip.
func (r *interactionResponder) Latency() time.Duration {
	return r.session.HeartbeatLatency()
}

var _ redactado.Responder = (*interactionResponder)(nil)
