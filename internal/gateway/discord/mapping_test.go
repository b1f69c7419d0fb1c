package discord

import (
	"strings"
	"testing"
	"time"

	"redactado/pkg/redactado"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
)

func TestApplicationCommands(t *testing.T) {
	t.Parallel()

	descriptors := []redactado.Descriptor{
		{Type: redactado.CommandTypeMessage, Name: "Message Info"},
		{
			Type:        redactado.CommandTypeChatInput,
			Name:        "ping",
			Description: "Check bot latency",
			Contexts:    []redactado.InteractionContext{redactado.InteractionContextGuild},
		},
		{
			Type:        redactado.CommandTypeChatInput,
			Name:        "echo",
			Description: strings.Repeat("x", 150),
			NSFW:        true,
			Options: []redactado.OptionSpec{
				{Type: redactado.OptionTypeString, Name: "text", Description: "Text to echo", Required: true},
			},
		},
	}

	commands, err := applicationCommands(descriptors)
	if err != nil {
		t.Fatalf("application commands failed: %v", err)
	}
	if len(commands) != 3 {
		t.Fatalf("commands len = %d, want 3", len(commands))
	}

	if commands[0].Type != discordgo.MessageApplicationCommand || commands[0].Description != "" {
		t.Fatalf("message command = %+v, want message type without description", commands[0])
	}
	if commands[1].Contexts == nil {
		t.Fatal("ping contexts = nil, want guild")
	}
	if diff := cmp.Diff([]discordgo.InteractionContextType{discordgo.InteractionContextGuild}, *commands[1].Contexts); diff != "" {
		t.Fatalf("ping contexts mismatch (-want +got):\n%s", diff)
	}
	echo := commands[2]
	if len([]rune(echo.Description)) != maxDescriptionRunes {
		t.Fatalf("echo description len = %d, want %d", len([]rune(echo.Description)), maxDescriptionRunes)
	}
	if echo.NSFW == nil || !*echo.NSFW {
		t.Fatalf("echo nsfw = %v, want true", echo.NSFW)
	}
	if len(echo.Options) != 1 || echo.Options[0].Type != discordgo.ApplicationCommandOptionString || !echo.Options[0].Required {
		t.Fatalf("echo options = %+v, want one required string", echo.Options)
	}
}

func TestApplicationCommandsRejectsUnknownTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		descriptor redactado.Descriptor
	}{
		{name: "command type", descriptor: redactado.Descriptor{Type: "slash", Name: "bad"}},
		{
			name: "option type",
			descriptor: redactado.Descriptor{
				Type:        redactado.CommandTypeChatInput,
				Name:        "bad",
				Description: "bad",
				Options:     []redactado.OptionSpec{{Type: "attachment", Name: "file"}},
			},
		},
		{
			name: "context",
			descriptor: redactado.Descriptor{
				Type:     redactado.CommandTypeUser,
				Name:     "bad",
				Contexts: []redactado.InteractionContext{"everywhere"},
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if _, err := applicationCommands([]redactado.Descriptor{testCase.descriptor}); err == nil {
				t.Fatal("expected mapping error")
			}
		})
	}
}

func TestInteractionFromEvent(t *testing.T) {
	t.Parallel()

	receivedAt := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name   string
		event  *discordgo.InteractionCreate
		want   *redactado.Interaction
		wantOK bool
	}{
		{
			name: "slash command in guild",
			event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				ID:        "i-1",
				Type:      discordgo.InteractionApplicationCommand,
				GuildID:   "g-1",
				ChannelID: "c-1",
				Member: &discordgo.Member{
					Nick: "Captain",
					User: &discordgo.User{ID: "u-1", Username: "alice"},
				},
				Data: discordgo.ApplicationCommandInteractionData{
					Name:        "echo",
					CommandType: discordgo.ChatApplicationCommand,
					Options: []*discordgo.ApplicationCommandInteractionDataOption{
						{Name: "text", Type: discordgo.ApplicationCommandOptionString, Value: "hello"},
						{Name: "times", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
						{Name: "loud", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
					},
				},
			}},
			want: &redactado.Interaction{
				ID:             "i-1",
				Platform:       redactado.PlatformDiscord,
				Type:           redactado.CommandTypeChatInput,
				Name:           "echo",
				GuildID:        "g-1",
				ConversationID: "c-1",
				Actor:          redactado.Actor{ID: "u-1", Username: "alice", DisplayName: "Captain"},
				Options: []redactado.OptionValue{
					{Name: "text", Type: redactado.OptionTypeString, Value: "hello"},
					{Name: "times", Type: redactado.OptionTypeInteger, Value: "3"},
					{Name: "loud", Type: redactado.OptionTypeBoolean, Value: "true"},
				},
				ReceivedAt: receivedAt,
			},
			wantOK: true,
		},
		{
			name: "message context menu in dm",
			event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				ID:        "i-2",
				Type:      discordgo.InteractionApplicationCommand,
				ChannelID: "dm-1",
				User:      &discordgo.User{ID: "u-2", Username: "bob", GlobalName: "Bobby"},
				Data: discordgo.ApplicationCommandInteractionData{
					Name:        "Message Info",
					CommandType: discordgo.MessageApplicationCommand,
					TargetID:    "m-1",
					Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
						Messages: map[string]*discordgo.Message{
							"m-1": {ID: "m-1", Content: "hi there", Author: &discordgo.User{ID: "u-3", Username: "carol"}},
						},
					},
				},
			}},
			want: &redactado.Interaction{
				ID:             "i-2",
				Platform:       redactado.PlatformDiscord,
				Type:           redactado.CommandTypeMessage,
				Name:           "Message Info",
				ConversationID: "dm-1",
				Actor:          redactado.Actor{ID: "u-2", Username: "bob", DisplayName: "Bobby"},
				Target: &redactado.Target{
					Kind:       redactado.TargetKindMessage,
					ID:         "m-1",
					AuthorID:   "u-3",
					AuthorName: "carol",
					Content:    "hi there",
				},
				ReceivedAt: receivedAt,
			},
			wantOK: true,
		},
		{
			name: "user context menu",
			event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				ID:   "i-3",
				Type: discordgo.InteractionApplicationCommand,
				User: &discordgo.User{ID: "u-2", Username: "bob"},
				Data: discordgo.ApplicationCommandInteractionData{
					Name:        "Profile",
					CommandType: discordgo.UserApplicationCommand,
					TargetID:    "u-9",
					Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
						Users: map[string]*discordgo.User{"u-9": {ID: "u-9", Username: "dave"}},
					},
				},
			}},
			want: &redactado.Interaction{
				ID:         "i-3",
				Platform:   redactado.PlatformDiscord,
				Type:       redactado.CommandTypeUser,
				Name:       "Profile",
				Actor:      redactado.Actor{ID: "u-2", Username: "bob", DisplayName: "bob"},
				Target:     &redactado.Target{Kind: redactado.TargetKindUser, ID: "u-9", Content: "dave"},
				ReceivedAt: receivedAt,
			},
			wantOK: true,
		},
		{
			name: "component interaction ignored",
			event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				ID:   "i-4",
				Type: discordgo.InteractionMessageComponent,
				Data: discordgo.MessageComponentInteractionData{CustomID: "button"},
			}},
		},
		{
			name:  "nil interaction ignored",
			event: &discordgo.InteractionCreate{},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, ok := interactionFromEvent(testCase.event, receivedAt)
			if ok != testCase.wantOK {
				t.Fatalf("ok = %v, want %v", ok, testCase.wantOK)
			}
			if !testCase.wantOK {
				return
			}
			if got.Payload != testCase.event {
				t.Fatalf("payload = %v, want raw event", got.Payload)
			}
			got.Payload = nil
			if diff := cmp.Diff(testCase.want, got); diff != "" {
				t.Fatalf("interaction mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
