package redactado

import (
	"fmt"
	"strings"
)

// Namespace scopes command name uniqueness.
type Namespace string

const (
	// NamespaceSlash holds commands invoked by name through the platform command UI.
	NamespaceSlash Namespace = "slash"
	// NamespaceContextMenu holds commands invoked from a contextual action on a user or message.
	NamespaceContextMenu Namespace = "context"
)

// Validate checks whether one namespace is supported.
func (n Namespace) Validate() error {
	switch n {
	case NamespaceSlash, NamespaceContextMenu:
		return nil
	default:
		return fmt.Errorf("validate namespace: unsupported namespace %q", n)
	}
}

// CommandType identifies how the platform renders and invokes a command.
type CommandType string

const (
	// CommandTypeChatInput is a typed slash command.
	CommandTypeChatInput CommandType = "chat_input"
	// CommandTypeUser is a context-menu command on a user.
	CommandTypeUser CommandType = "user"
	// CommandTypeMessage is a context-menu command on a message.
	CommandTypeMessage CommandType = "message"
)

// Namespace maps a command type to its registry namespace.
func (t CommandType) Namespace() (Namespace, error) {
	switch t {
	case CommandTypeChatInput:
		return NamespaceSlash, nil
	case CommandTypeUser, CommandTypeMessage:
		return NamespaceContextMenu, nil
	default:
		return "", fmt.Errorf("namespace from command type: unsupported type %q", t)
	}
}

// InteractionContext restricts where a command can be used.
type InteractionContext string

const (
	// InteractionContextGuild allows use inside guilds and group chats.
	InteractionContextGuild InteractionContext = "guild"
	// InteractionContextBotDM allows use in a direct conversation with the bot.
	InteractionContextBotDM InteractionContext = "bot_dm"
	// InteractionContextPrivateChannel allows use in private channels other than the bot DM.
	InteractionContextPrivateChannel InteractionContext = "private_channel"
)

// OptionType identifies the value type of one slash command option.
type OptionType string

const (
	OptionTypeString  OptionType = "string"
	OptionTypeInteger OptionType = "integer"
	OptionTypeNumber  OptionType = "number"
	OptionTypeBoolean OptionType = "boolean"
	OptionTypeUser    OptionType = "user"
	OptionTypeChannel OptionType = "channel"
	OptionTypeRole    OptionType = "role"
)

// OptionSpec declares one slash command parameter.
type OptionSpec struct {
	Type        OptionType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
}

// Descriptor is the command metadata published to the remote platform.
//
// The registry only reads Name and Type; everything else is forwarded to
// gateways untouched.
type Descriptor struct {
	// Type selects the command variant and therefore its namespace.
	Type CommandType `json:"type"`
	// Name is unique within the namespace.
	Name string `json:"name"`
	// Description is the human-readable summary shown by the platform.
	Description string `json:"description,omitempty"`
	// Options is the parameter schema of a slash command.
	Options []OptionSpec `json:"options,omitempty"`
	// Contexts restricts where the command is offered. Empty means platform default.
	Contexts []InteractionContext `json:"contexts,omitempty"`
	// NSFW marks age-restricted commands.
	NSFW bool `json:"nsfw,omitempty"`
}

// Namespace returns the registry namespace selected by Type.
func (d Descriptor) Namespace() (Namespace, error) {
	return d.Type.Namespace()
}

// Validate checks descriptor registration invariants.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("validate descriptor: %w: empty name", ErrInvalidCommand)
	}
	namespace, err := d.Namespace()
	if err != nil {
		return fmt.Errorf("validate descriptor %s: %w: %v", d.Name, ErrInvalidCommand, err)
	}

	switch namespace {
	case NamespaceSlash:
		if strings.TrimSpace(d.Description) == "" {
			return fmt.Errorf("validate descriptor %s: %w: slash command requires description", d.Name, ErrInvalidCommand)
		}
		seen := make(map[string]struct{}, len(d.Options))
		for index, option := range d.Options {
			name := strings.TrimSpace(option.Name)
			if name == "" {
				return fmt.Errorf("validate descriptor %s option[%d]: %w: empty name", d.Name, index, ErrInvalidCommand)
			}
			if _, exists := seen[name]; exists {
				return fmt.Errorf("validate descriptor %s option %s: %w: duplicate option", d.Name, name, ErrInvalidCommand)
			}
			seen[name] = struct{}{}
		}
	case NamespaceContextMenu:
		if len(d.Options) > 0 {
			return fmt.Errorf("validate descriptor %s: %w: context menu command cannot declare options", d.Name, ErrInvalidCommand)
		}
	}

	return nil
}

// Clone returns a deep copy so callers cannot mutate cached descriptor state.
func (d Descriptor) Clone() Descriptor {
	cloned := d
	if len(d.Options) > 0 {
		cloned.Options = append([]OptionSpec(nil), d.Options...)
	}
	if len(d.Contexts) > 0 {
		cloned.Contexts = append([]InteractionContext(nil), d.Contexts...)
	}

	return cloned
}

// CloneDescriptors deep-copies a descriptor list.
func CloneDescriptors(descriptors []Descriptor) []Descriptor {
	if descriptors == nil {
		return nil
	}

	cloned := make([]Descriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		cloned = append(cloned, descriptor.Clone())
	}

	return cloned
}
