package telegram

import (
	"fmt"
	"strings"
	"time"

	"redactado/pkg/redactado"

	"github.com/gotd/td/tg"
)

// interactionFromMessage maps one inbound bot command message.
func interactionFromMessage(
	message *tg.Message,
	entities tg.Entities,
	botUsername string,
	known map[string]redactado.Descriptor,
) (*redactado.Interaction, bool) {
	if message == nil || message.Out {
		return nil, false
	}
	name, args, ok := parseCommand(message.Message, botUsername)
	if !ok {
		return nil, false
	}

	conversationID := peerID(message.PeerID)
	interaction := &redactado.Interaction{
		ID:             fmt.Sprintf("%s:%d", conversationID, message.ID),
		Platform:       redactado.PlatformTelegram,
		Type:           redactado.CommandTypeChatInput,
		Name:           name,
		ConversationID: conversationID,
		Actor:          actorFromMessage(message, entities),
		ReceivedAt:     time.Unix(int64(message.Date), 0).UTC(),
		Payload:        message,
	}
	if descriptor, exists := known[name]; exists {
		interaction.Options = positionalOptions(descriptor.Options, args)
	}

	return interaction, true
}

func actorFromMessage(message *tg.Message, entities tg.Entities) redactado.Actor {
	from, ok := message.GetFromID()
	if !ok {
		from = message.PeerID
	}
	userPeer, ok := from.(*tg.PeerUser)
	if !ok {
		return redactado.Actor{ID: peerID(from)}
	}

	actor := redactado.Actor{ID: fmt.Sprintf("%d", userPeer.UserID)}
	user, ok := entities.Users[userPeer.UserID]
	if !ok || user == nil {
		return actor
	}
	actor.Username = user.Username
	actor.DisplayName = strings.TrimSpace(user.FirstName + " " + user.LastName)
	if actor.DisplayName == "" {
		actor.DisplayName = user.Username
	}
	actor.IsBot = user.Bot

	return actor
}

func peerID(peer tg.PeerClass) string {
	switch typed := peer.(type) {
	case *tg.PeerUser:
		return fmt.Sprintf("%d", typed.UserID)
	case *tg.PeerChat:
		return fmt.Sprintf("%d", typed.ChatID)
	case *tg.PeerChannel:
		return fmt.Sprintf("%d", typed.ChannelID)
	default:
		return ""
	}
}
