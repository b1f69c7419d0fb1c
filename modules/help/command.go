package help

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"redactado/pkg/redactado"
)

const helpCommandName = "help"

// Catalog lists every descriptor currently published by the bot.
type Catalog interface {
	AllDescriptors() ([]redactado.Descriptor, error)
}

// Command replies with a command reference when it receives a "/help" interaction.
//
// It also remembers the bot identity announced by each gateway so the
// reference can be titled per platform.
type Command struct {
	catalog Catalog

	mu         sync.RWMutex
	identities map[string]string
}

// New creates a help command backed by catalog.
func New(catalog Catalog) *Command {
	return &Command{
		catalog:    catalog,
		identities: make(map[string]string),
	}
}

// Descriptor declares the help slash command.
func (c *Command) Descriptor() (redactado.Descriptor, error) {
	return redactado.Descriptor{
		Type:        redactado.CommandTypeChatInput,
		Name:        helpCommandName,
		Description: "Show all available commands",
	}, nil
}

// OnReady records the bot identity of one connected gateway.
func (c *Command) OnReady(_ context.Context, ready redactado.Ready) error {
	name := strings.TrimSpace(ready.SelfName)
	if name == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.identities[ready.Gateway] = name

	return nil
}

// Handle renders the descriptor list for the invoking gateway.
func (c *Command) Handle(ctx context.Context, interaction *redactado.Interaction) error {
	if interaction == nil {
		return fmt.Errorf("help handle: nil interaction")
	}
	if c.catalog == nil {
		return fmt.Errorf("help handle: command catalog not configured")
	}

	descriptors, err := c.catalog.AllDescriptors()
	if err != nil {
		return fmt.Errorf("help list commands: %w", err)
	}

	body := renderHelp(c.identity(interaction.Gateway), descriptors)
	if err := interaction.Reply(ctx, body); err != nil {
		return fmt.Errorf("help send help message: %w", err)
	}

	return nil
}

func (c *Command) identity(gateway string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.identities[gateway]
}

func renderHelp(botName string, descriptors []redactado.Descriptor) string {
	title := "Available commands:"
	if botName != "" {
		title = fmt.Sprintf("%s commands:", botName)
	}
	if len(descriptors) == 0 {
		return title + "\n(none)"
	}

	sorted := redactado.CloneDescriptors(descriptors)
	sort.SliceStable(sorted, func(i, j int) bool {
		left := commandLabel(sorted[i])
		right := commandLabel(sorted[j])
		if left == right {
			return sorted[i].Type < sorted[j].Type
		}
		return left < right
	})

	lines := make([]string, 0, len(sorted)*4+1)
	lines = append(lines, title+"\n")
	for index, descriptor := range sorted {
		if index > 0 {
			lines = append(lines, "")
		}

		lines = append(lines, commandLabel(descriptor))
		if len(descriptor.Options) != 0 {
			lines = append(lines, fmt.Sprintf("usage: %s", renderOptions(descriptor.Options)))
		}
		if description := strings.TrimSpace(descriptor.Description); description != "" {
			lines = append(lines, description)
		}
		lines = append(lines, fmt.Sprintf("(%s)", kindLabel(descriptor.Type)))
	}

	return strings.Join(lines, "\n")
}

func commandLabel(descriptor redactado.Descriptor) string {
	if descriptor.Type == redactado.CommandTypeChatInput {
		return "/" + strings.ToLower(strings.TrimSpace(descriptor.Name))
	}

	return strings.TrimSpace(descriptor.Name)
}

func kindLabel(commandType redactado.CommandType) string {
	switch commandType {
	case redactado.CommandTypeUser:
		return "user menu"
	case redactado.CommandTypeMessage:
		return "message menu"
	default:
		return "slash"
	}
}

func renderOptions(options []redactado.OptionSpec) string {
	rendered := make([]string, 0, len(options))
	for _, option := range options {
		name := strings.TrimSpace(option.Name)
		if name == "" {
			continue
		}
		if option.Required {
			rendered = append(rendered, fmt.Sprintf("<%s:%s>", name, option.Type))
			continue
		}
		rendered = append(rendered, fmt.Sprintf("[%s:%s]", name, option.Type))
	}
	if len(rendered) == 0 {
		return "(none)"
	}

	return strings.Join(rendered, " ")
}

var (
	_ redactado.Command           = (*Command)(nil)
	_ redactado.LifecycleListener = (*Command)(nil)
)
