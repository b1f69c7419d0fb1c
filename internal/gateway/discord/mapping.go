package discord

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"redactado/pkg/redactado"

	"github.com/bwmarrin/discordgo"
)

const maxDescriptionRunes = 100

// applicationCommands converts registry descriptors into the bulk-overwrite payload.
func applicationCommands(descriptors []redactado.Descriptor) ([]*discordgo.ApplicationCommand, error) {
	commands := make([]*discordgo.ApplicationCommand, 0, len(descriptors))
	for _, descriptor := range descriptors {
		command, err := applicationCommand(descriptor)
		if err != nil {
			return nil, err
		}
		commands = append(commands, command)
	}

	return commands, nil
}

func applicationCommand(descriptor redactado.Descriptor) (*discordgo.ApplicationCommand, error) {
	commandType, err := applicationCommandType(descriptor.Type)
	if err != nil {
		return nil, fmt.Errorf("map descriptor %s: %w", descriptor.Name, err)
	}

	command := &discordgo.ApplicationCommand{
		Type: commandType,
		Name: descriptor.Name,
	}
	if commandType == discordgo.ChatApplicationCommand {
		command.Description = truncateRunes(descriptor.Description, maxDescriptionRunes)
		for _, option := range descriptor.Options {
			optionType, err := applicationOptionType(option.Type)
			if err != nil {
				return nil, fmt.Errorf("map descriptor %s option %s: %w", descriptor.Name, option.Name, err)
			}
			command.Options = append(command.Options, &discordgo.ApplicationCommandOption{
				Type:        optionType,
				Name:        option.Name,
				Description: truncateRunes(option.Description, maxDescriptionRunes),
				Required:    option.Required,
			})
		}
	}
	if descriptor.NSFW {
		nsfw := true
		command.NSFW = &nsfw
	}
	if len(descriptor.Contexts) > 0 {
		contexts := make([]discordgo.InteractionContextType, 0, len(descriptor.Contexts))
		for _, interactionContext := range descriptor.Contexts {
			mapped, err := interactionContextType(interactionContext)
			if err != nil {
				return nil, fmt.Errorf("map descriptor %s: %w", descriptor.Name, err)
			}
			contexts = append(contexts, mapped)
		}
		command.Contexts = &contexts
	}

	return command, nil
}

func applicationCommandType(commandType redactado.CommandType) (discordgo.ApplicationCommandType, error) {
	switch commandType {
	case redactado.CommandTypeChatInput:
		return discordgo.ChatApplicationCommand, nil
	case redactado.CommandTypeUser:
		return discordgo.UserApplicationCommand, nil
	case redactado.CommandTypeMessage:
		return discordgo.MessageApplicationCommand, nil
	default:
		return 0, fmt.Errorf("unsupported command type %q", commandType)
	}
}

func commandTypeFromDiscord(commandType discordgo.ApplicationCommandType) (redactado.CommandType, bool) {
	switch commandType {
	case discordgo.ChatApplicationCommand:
		return redactado.CommandTypeChatInput, true
	case discordgo.UserApplicationCommand:
		return redactado.CommandTypeUser, true
	case discordgo.MessageApplicationCommand:
		return redactado.CommandTypeMessage, true
	default:
		return "", false
	}
}

func applicationOptionType(optionType redactado.OptionType) (discordgo.ApplicationCommandOptionType, error) {
	switch optionType {
	case redactado.OptionTypeString:
		return discordgo.ApplicationCommandOptionString, nil
	case redactado.OptionTypeInteger:
		return discordgo.ApplicationCommandOptionInteger, nil
	case redactado.OptionTypeNumber:
		return discordgo.ApplicationCommandOptionNumber, nil
	case redactado.OptionTypeBoolean:
		return discordgo.ApplicationCommandOptionBoolean, nil
	case redactado.OptionTypeUser:
		return discordgo.ApplicationCommandOptionUser, nil
	case redactado.OptionTypeChannel:
		return discordgo.ApplicationCommandOptionChannel, nil
	case redactado.OptionTypeRole:
		return discordgo.ApplicationCommandOptionRole, nil
	default:
		return 0, fmt.Errorf("unsupported option type %q", optionType)
	}
}

func optionTypeFromDiscord(optionType discordgo.ApplicationCommandOptionType) (redactado.OptionType, bool) {
	switch optionType {
	case discordgo.ApplicationCommandOptionString:
		return redactado.OptionTypeString, true
	case discordgo.ApplicationCommandOptionInteger:
		return redactado.OptionTypeInteger, true
	case discordgo.ApplicationCommandOptionNumber:
		return redactado.OptionTypeNumber, true
	case discordgo.ApplicationCommandOptionBoolean:
		return redactado.OptionTypeBoolean, true
	case discordgo.ApplicationCommandOptionUser:
		return redactado.OptionTypeUser, true
	case discordgo.ApplicationCommandOptionChannel:
		return redactado.OptionTypeChannel, true
	case discordgo.ApplicationCommandOptionRole:
		return redactado.OptionTypeRole, true
	default:
		return "", false
	}
}

func interactionContextType(interactionContext redactado.InteractionContext) (discordgo.InteractionContextType, error) {
	switch interactionContext {
	case redactado.InteractionContextGuild:
		return discordgo.InteractionContextGuild, nil
	case redactado.InteractionContextBotDM:
		return discordgo.InteractionContextBotDM, nil
	case redactado.InteractionContextPrivateChannel:
		return discordgo.InteractionContextPrivateChannel, nil
	default:
		return 0, fmt.Errorf("unsupported interaction context %q", interactionContext)
	}
}

// interactionFromEvent maps one application command interaction.
// Components, modals and autocomplete requests are not commands and report false.
func interactionFromEvent(event *discordgo.InteractionCreate, receivedAt time.Time) (*redactado.Interaction, bool) {
	if event == nil || event.Interaction == nil || event.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	data, ok := event.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok {
		return nil, false
	}
	commandType, ok := commandTypeFromDiscord(data.CommandType)
	if !ok {
		return nil, false
	}

	interaction := &redactado.Interaction{
		ID:             event.ID,
		Platform:       redactado.PlatformDiscord,
		Type:           commandType,
		Name:           data.Name,
		GuildID:        event.GuildID,
		ConversationID: event.ChannelID,
		Actor:          actorFromEvent(event.Interaction),
		ReceivedAt:     receivedAt,
		Payload:        event,
	}
	if commandType == redactado.CommandTypeChatInput {
		interaction.Options = optionValues(data.Options)
	} else {
		interaction.Target = targetFromData(commandType, data)
	}

	return interaction, true
}

func actorFromEvent(interaction *discordgo.Interaction) redactado.Actor {
	user := interaction.User
	nick := ""
	if interaction.Member != nil {
		nick = interaction.Member.Nick
		if interaction.Member.User != nil {
			user = interaction.Member.User
		}
	}
	if user == nil {
		return redactado.Actor{}
	}

	displayName := nick
	if displayName == "" {
		displayName = user.GlobalName
	}
	if displayName == "" {
		displayName = user.Username
	}

	return redactado.Actor{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: displayName,
		IsBot:       user.Bot,
	}
}

func optionValues(options []*discordgo.ApplicationCommandInteractionDataOption) []redactado.OptionValue {
	values := make([]redactado.OptionValue, 0, len(options))
	for _, option := range options {
		if option == nil {
			continue
		}
		optionType, ok := optionTypeFromDiscord(option.Type)
		if !ok {
			continue
		}
		values = append(values, redactado.OptionValue{
			Name:  option.Name,
			Type:  optionType,
			Value: optionValueString(option.Value),
		})
	}

	return values
}

func optionValueString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func targetFromData(commandType redactado.CommandType, data discordgo.ApplicationCommandInteractionData) *redactado.Target {
	target := &redactado.Target{ID: data.TargetID}
	switch commandType {
	case redactado.CommandTypeUser:
		target.Kind = redactado.TargetKindUser
		if data.Resolved != nil {
			if user, ok := data.Resolved.Users[data.TargetID]; ok && user != nil {
				target.Content = user.Username
			}
		}
	case redactado.CommandTypeMessage:
		target.Kind = redactado.TargetKindMessage
		if data.Resolved != nil {
			if message, ok := data.Resolved.Messages[data.TargetID]; ok && message != nil {
				target.Content = message.Content
				if message.Author != nil {
					target.AuthorID = message.Author.ID
					target.AuthorName = message.Author.Username
				}
			}
		}
	}

	return target
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}

	return string([]rune(value)[:limit])
}
