package telegram

import (
	"testing"

	"redactado/pkg/redactado"

	"github.com/google/go-cmp/cmp"
	"github.com/gotd/td/tg"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{name: "bare command", text: "/ping", wantName: "ping", wantOK: true},
		{name: "command with args", text: "/echo  hello   world ", wantName: "echo", wantArgs: "hello   world", wantOK: true},
		{name: "addressed to this bot", text: "/ping@RedactadoBot", wantName: "ping", wantOK: true},
		{name: "addressed to another bot", text: "/ping@OtherBot", wantOK: false},
		{name: "multiline args", text: "/echo\nfirst line", wantName: "echo", wantArgs: "first line", wantOK: true},
		{name: "plain text", text: "ping", wantOK: false},
		{name: "lone slash", text: "/", wantOK: false},
		{name: "mention without name", text: "/@RedactadoBot", wantOK: false},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			name, args, ok := parseCommand(testCase.text, "redactadobot")
			if ok != testCase.wantOK {
				t.Fatalf("ok = %v, want %v", ok, testCase.wantOK)
			}
			if name != testCase.wantName || args != testCase.wantArgs {
				t.Fatalf("parsed = (%q, %q), want (%q, %q)", name, args, testCase.wantName, testCase.wantArgs)
			}
		})
	}
}

func TestBotCommandsSkipsUnsupportedDescriptors(t *testing.T) {
	t.Parallel()

	commands, skipped := botCommands([]redactado.Descriptor{
		{Type: redactado.CommandTypeMessage, Name: "Message Info"},
		{Type: redactado.CommandTypeChatInput, Name: "ping", Description: "Check latency"},
		{Type: redactado.CommandTypeChatInput, Name: "Help", Description: "Uppercase is rejected"},
		{Type: redactado.CommandTypeChatInput, Name: "about"},
	})

	want := []tg.BotCommand{
		{Command: "ping", Description: "Check latency"},
		{Command: "about", Description: "about"},
	}
	if diff := cmp.Diff(want, commands); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Message Info", "Help"}, skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestPositionalOptions(t *testing.T) {
	t.Parallel()

	specs := []redactado.OptionSpec{
		{Type: redactado.OptionTypeInteger, Name: "times"},
		{Type: redactado.OptionTypeString, Name: "text"},
	}

	tests := []struct {
		name string
		args string
		want []redactado.OptionValue
	}{
		{name: "no args", args: ""},
		{
			name: "partial",
			args: "3",
			want: []redactado.OptionValue{{Name: "times", Type: redactado.OptionTypeInteger, Value: "3"}},
		},
		{
			name: "remainder goes to last option",
			args: "2 hello there world",
			want: []redactado.OptionValue{
				{Name: "times", Type: redactado.OptionTypeInteger, Value: "2"},
				{Name: "text", Type: redactado.OptionTypeString, Value: "hello there world"},
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(testCase.want, positionalOptions(specs, testCase.args)); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
