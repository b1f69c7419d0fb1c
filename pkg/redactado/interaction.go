package redactado

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Platform identifies an external chat platform.
type Platform string

const (
	// PlatformDiscord is Discord.
	PlatformDiscord Platform = "discord"
	// PlatformTelegram is Telegram.
	PlatformTelegram Platform = "telegram"
)

// Actor identifies the user who triggered an interaction.
type Actor struct {
	ID          string
	Username    string
	DisplayName string
	IsBot       bool
}

// TargetKind identifies what a context-menu command was invoked on.
type TargetKind string

const (
	TargetKindUser    TargetKind = "user"
	TargetKindMessage TargetKind = "message"
)

// Target is the resolved subject of a context-menu interaction.
type Target struct {
	Kind TargetKind
	ID   string
	// AuthorID is the message author for message targets.
	AuthorID string
	// AuthorName is the message author display name for message targets.
	AuthorName string
	// Content is the message text for message targets, or the username for user targets.
	Content string
}

// OptionValue is one option supplied with a slash interaction.
type OptionValue struct {
	Name  string
	Type  OptionType
	Value string
}

// Responder answers one interaction on its originating platform.
type Responder interface {
	// Defer acknowledges the interaction and shows a pending indicator.
	Defer(ctx context.Context) error
	// Reply sends content as the interaction response, or as a follow-up once deferred.
	Reply(ctx context.Context, content string) error
	// Latency returns the current gateway round-trip estimate.
	Latency() time.Duration
}

// Interaction is one inbound command invocation.
//
// It lives for a single dispatch call and is discarded after its handler returns.
type Interaction struct {
	// ID is the platform interaction identifier.
	ID string
	// Platform identifies the upstream platform.
	Platform Platform
	// Gateway is the registered gateway name that received the interaction.
	Gateway string
	// Type selects the invoked command variant.
	Type CommandType
	// Name is the invoked command name.
	Name string
	// GuildID scopes the interaction to a guild when available.
	GuildID string
	// ConversationID identifies the channel or chat.
	ConversationID string
	// Actor identifies who invoked the command.
	Actor Actor
	// Options carries slash command arguments.
	Options []OptionValue
	// Target carries the context-menu subject.
	Target *Target
	// ReceivedAt is the gateway receive timestamp.
	ReceivedAt time.Time
	// Payload is the raw platform event, opaque to the core.
	Payload any
	// Responder answers this interaction.
	Responder Responder
}

// Namespace returns the registry namespace selected by Type.
func (i *Interaction) Namespace() (Namespace, error) {
	if i == nil {
		return "", fmt.Errorf("interaction namespace: %w: nil interaction", ErrInvalidInteraction)
	}

	return i.Type.Namespace()
}

// Validate checks interaction contract fields.
func (i *Interaction) Validate() error {
	if i == nil {
		return fmt.Errorf("validate interaction: %w: nil interaction", ErrInvalidInteraction)
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("validate interaction %s: %w: missing name", i.ID, ErrInvalidInteraction)
	}
	if _, err := i.Type.Namespace(); err != nil {
		return fmt.Errorf("validate interaction %s: %w: %v", i.ID, ErrInvalidInteraction, err)
	}

	return nil
}

// Option returns the named slash option when present.
func (i *Interaction) Option(name string) (OptionValue, bool) {
	if i == nil {
		return OptionValue{}, false
	}
	for _, option := range i.Options {
		if option.Name == name {
			return option, true
		}
	}

	return OptionValue{}, false
}

// Defer acknowledges the interaction through its responder.
func (i *Interaction) Defer(ctx context.Context) error {
	if i == nil || i.Responder == nil {
		return fmt.Errorf("defer interaction: %w", ErrNoResponder)
	}
	if err := i.Responder.Defer(ctx); err != nil {
		return fmt.Errorf("defer interaction %s: %w", i.ID, err)
	}

	return nil
}

// Reply answers the interaction through its responder.
func (i *Interaction) Reply(ctx context.Context, content string) error {
	if i == nil || i.Responder == nil {
		return fmt.Errorf("reply interaction: %w", ErrNoResponder)
	}
	if err := i.Responder.Reply(ctx, content); err != nil {
		return fmt.Errorf("reply interaction %s: %w", i.ID, err)
	}

	return nil
}
