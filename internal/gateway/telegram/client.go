package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gotd/td/session"
	gotdtelegram "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
)

const (
	defaultSessionFile = ".cache/telegram/bot-session.json"
	defaultAuthTimeout = time.Minute
)

// Config carries Telegram application credentials and the bot token.
type Config struct {
	AppID       int
	AppHash     string
	BotToken    string
	SessionFile string
	AuthTimeout time.Duration
}

// New builds a gateway over a gotd/td client logged in with a bot token.
func New(cfg Config, options ...Option) (*Gateway, error) {
	if cfg.AppID <= 0 {
		return nil, fmt.Errorf("new telegram gateway: app id must be > 0")
	}
	appHash := strings.TrimSpace(cfg.AppHash)
	if appHash == "" {
		return nil, fmt.Errorf("new telegram gateway: app hash is required")
	}
	botToken := strings.TrimSpace(cfg.BotToken)
	if botToken == "" {
		return nil, fmt.Errorf("new telegram gateway: bot token is required")
	}
	sessionFile := strings.TrimSpace(cfg.SessionFile)
	if sessionFile == "" {
		sessionFile = defaultSessionFile
	}
	authTimeout := cfg.AuthTimeout
	if authTimeout <= 0 {
		authTimeout = defaultAuthTimeout
	}

	sessionStorage, err := newSessionStorage(sessionFile)
	if err != nil {
		return nil, fmt.Errorf("new telegram gateway session storage: %w", err)
	}

	dispatcher := tg.NewUpdateDispatcher()
	client := gotdtelegram.NewClient(cfg.AppID, appHash, gotdtelegram.Options{
		UpdateHandler:  dispatcher,
		SessionStorage: sessionStorage,
	})
	adapter := &gotdBotClient{
		client:      client,
		sender:      message.NewSender(client.API()),
		botToken:    botToken,
		authTimeout: authTimeout,
	}

	gateway, err := newGateway(adapter, adapter, options...)
	if err != nil {
		return nil, err
	}
	dispatcher.OnNewMessage(gateway.handleNewMessage)
	adapter.logger = gateway.cfg.logger
	adapter.sessionFile = sessionStorage.Path

	return gateway, nil
}

func newSessionStorage(path string) (*session.FileStorage, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute session file path: %w", err)
	}
	sessionDir := filepath.Dir(absPath)
	if err := os.MkdirAll(sessionDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory %s: %w", sessionDir, err)
	}

	return &session.FileStorage{Path: absPath}, nil
}

// gotdBotClient adapts gotd telegram.Client to botClient and messenger.
type gotdBotClient struct {
	client      *gotdtelegram.Client
	sender      *message.Sender
	botToken    string
	authTimeout time.Duration
	sessionFile string
	logger      *slog.Logger
}

// Run starts the gotd client lifecycle.
func (c *gotdBotClient) Run(ctx context.Context, fn func(runCtx context.Context) error) error {
	if err := c.client.Run(ctx, fn); err != nil {
		return fmt.Errorf("run gotd client: %w", err)
	}

	return nil
}

// Login restores the stored session or authorizes with the bot token.
func (c *gotdBotClient) Login(ctx context.Context) (*tg.User, error) {
	authCtx, cancel := context.WithTimeout(ctx, c.authTimeout)
	defer cancel()

	status, err := c.client.Auth().Status(authCtx)
	if err != nil {
		return nil, fmt.Errorf("check auth status: %w", err)
	}
	if status.Authorized {
		c.logger.InfoContext(ctx, "telegram session restored from local storage", "session_file", c.sessionFile)
	} else if _, err := c.client.Auth().Bot(authCtx, c.botToken); err != nil {
		return nil, fmt.Errorf("authenticate bot: %w", err)
	}

	self, err := c.client.Self(authCtx)
	if err != nil {
		return nil, fmt.Errorf("resolve bot account: %w", err)
	}

	return self, nil
}

// SetCommands replaces the default-scope command list.
func (c *gotdBotClient) SetCommands(ctx context.Context, commands []tg.BotCommand) error {
	if _, err := c.client.API().BotsSetBotCommands(ctx, &tg.BotsSetBotCommandsRequest{
		Scope:    &tg.BotCommandScopeDefault{},
		Commands: commands,
	}); err != nil {
		return fmt.Errorf("bots.setBotCommands: %w", err)
	}

	return nil
}

// Reply answers update in its chat.
func (c *gotdBotClient) Reply(ctx context.Context, entities tg.Entities, update *tg.UpdateNewMessage, text string) error {
	if _, err := c.sender.Reply(entities, update).Text(ctx, text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	return nil
}

// Typing sends a typing action to the chat of update.
func (c *gotdBotClient) Typing(ctx context.Context, entities tg.Entities, update *tg.UpdateNewMessage) error {
	if err := c.sender.Answer(entities, update).TypingAction().Typing(ctx); err != nil {
		return fmt.Errorf("send typing action: %w", err)
	}

	return nil
}

// Ping performs one MTProto ping.
func (c *gotdBotClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	return nil
}
