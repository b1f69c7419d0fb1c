package telegram

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"redactado/pkg/redactado"

	"github.com/gotd/td/tg"
)

const maxCommandDescriptionRunes = 256

var botCommandName = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// botCommands converts slash descriptors into the bots.setBotCommands payload.
// Context-menu descriptors and names Telegram cannot represent are returned as skipped.
func botCommands(descriptors []redactado.Descriptor) (commands []tg.BotCommand, skipped []string) {
	commands = make([]tg.BotCommand, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.Type != redactado.CommandTypeChatInput || !botCommandName.MatchString(descriptor.Name) {
			skipped = append(skipped, descriptor.Name)
			continue
		}

		description := strings.TrimSpace(descriptor.Description)
		if description == "" {
			description = descriptor.Name
		}
		if utf8.RuneCountInString(description) > maxCommandDescriptionRunes {
			description = string([]rune(description)[:maxCommandDescriptionRunes])
		}

		commands = append(commands, tg.BotCommand{
			Command:     descriptor.Name,
			Description: description,
		})
	}

	return commands, skipped
}

// parseCommand splits "/name@bot args" message text.
// A command addressed to another bot is rejected.
func parseCommand(text string, botUsername string) (name string, args string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", false
	}
	trimmed = trimmed[1:]

	head := trimmed
	if idx := strings.IndexFunc(trimmed, unicode.IsSpace); idx >= 0 {
		head = trimmed[:idx]
		args = strings.TrimSpace(trimmed[idx:])
	}

	name, mention, mentioned := strings.Cut(head, "@")
	if name == "" {
		return "", "", false
	}
	if mentioned && !strings.EqualFold(mention, botUsername) {
		return "", "", false
	}

	return name, args, true
}

// positionalOptions assigns whitespace-separated args to declared options in order.
// The last declared option receives the remaining text.
func positionalOptions(specs []redactado.OptionSpec, args string) []redactado.OptionValue {
	fields := strings.Fields(args)
	if len(specs) == 0 || len(fields) == 0 {
		return nil
	}

	values := make([]redactado.OptionValue, 0, len(specs))
	for idx, spec := range specs {
		if idx >= len(fields) {
			break
		}
		value := fields[idx]
		if idx == len(specs)-1 {
			value = strings.Join(fields[idx:], " ")
		}
		values = append(values, redactado.OptionValue{Name: spec.Name, Type: spec.Type, Value: value})
	}

	return values
}
