package msginfo

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"redactado/pkg/redactado"
)

// CommandName is the context-menu label shown on messages.
const CommandName = "Message Info"

// Command describes the message it was invoked on.
type Command struct{}

// New creates a message info command.
func New() *Command {
	return &Command{}
}

// Descriptor declares the message context-menu command.
func (c *Command) Descriptor() (redactado.Descriptor, error) {
	return redactado.Descriptor{
		Type: redactado.CommandTypeMessage,
		Name: CommandName,
	}, nil
}

// Handle replies with the target message id, author and length.
func (c *Command) Handle(ctx context.Context, interaction *redactado.Interaction) error {
	if interaction == nil {
		return fmt.Errorf("msginfo handle: nil interaction")
	}
	target := interaction.Target
	if target == nil || target.Kind != redactado.TargetKindMessage {
		return fmt.Errorf("msginfo handle %s: %w: missing message target", interaction.ID, redactado.ErrInvalidInteraction)
	}

	if err := interaction.Reply(ctx, renderInfo(*target)); err != nil {
		return fmt.Errorf("msginfo send info: %w", err)
	}

	return nil
}

func renderInfo(target redactado.Target) string {
	author := strings.TrimSpace(target.AuthorName)
	if author == "" {
		author = "unknown"
	}
	if target.AuthorID != "" {
		author = fmt.Sprintf("%s (%s)", author, target.AuthorID)
	}

	return strings.Join([]string{
		fmt.Sprintf("Message: %s", target.ID),
		fmt.Sprintf("Author: %s", author),
		fmt.Sprintf("Length: %d characters", utf8.RuneCountInString(target.Content)),
	}, "\n")
}

var _ redactado.Command = (*Command)(nil)
