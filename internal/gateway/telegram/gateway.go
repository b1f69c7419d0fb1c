// Package telegram adapts a gotd/td bot session into redactado interactions.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"redactado/pkg/redactado"

	"github.com/gotd/td/tg"
)

// GatewayType is the default gateway name.
const GatewayType = "telegram"

const defaultSyncTimeout = 30 * time.Second

// botClient abstracts the gotd session lifecycle and bot API calls used by the gateway.
type botClient interface {
	// Run starts the session and executes fn within the connected lifecycle.
	Run(ctx context.Context, fn func(runCtx context.Context) error) error
	// Login authorizes the bot token when needed and returns the bot account.
	Login(ctx context.Context) (*tg.User, error)
	// SetCommands replaces the default-scope command list.
	SetCommands(ctx context.Context, commands []tg.BotCommand) error
}

// messenger answers one inbound message.
type messenger interface {
	Reply(ctx context.Context, entities tg.Entities, update *tg.UpdateNewMessage, text string) error
	Typing(ctx context.Context, entities tg.Entities, update *tg.UpdateNewMessage) error
	Ping(ctx context.Context) error
}

// gatewayConfig contains runtime controls for naming, logging and command sync.
type gatewayConfig struct {
	name        string
	syncTimeout time.Duration
	logger      *slog.Logger
}

// Option mutates Telegram gateway configuration.
type Option func(*gatewayConfig)

// WithName configures the gateway identity exposed to the kernel.
func WithName(name string) Option {
	return func(cfg *gatewayConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithSyncTimeout bounds the command publishing call after login.
func WithSyncTimeout(timeout time.Duration) Option {
	return func(cfg *gatewayConfig) {
		if timeout > 0 {
			cfg.syncTimeout = timeout
		}
	}
}

// WithLogger configures gateway logging.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *gatewayConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Gateway receives Telegram bot commands and publishes slash descriptors.
type Gateway struct {
	cfg       gatewayConfig
	client    botClient
	messenger messenger

	mu          sync.RWMutex
	runtime     redactado.GatewayRuntime
	botUsername string
	known       map[string]redactado.Descriptor
}

func newGateway(client botClient, messenger messenger, options ...Option) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("new telegram gateway: nil client")
	}
	if messenger == nil {
		return nil, fmt.Errorf("new telegram gateway: nil messenger")
	}

	cfg := gatewayConfig{
		name:        GatewayType,
		syncTimeout: defaultSyncTimeout,
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(&cfg)
	}

	return &Gateway{
		cfg:       cfg,
		client:    client,
		messenger: messenger,
		known:     make(map[string]redactado.Descriptor),
	}, nil
}

// Name returns the stable gateway identifier.
func (g *Gateway) Name() string {
	return g.cfg.name
}

// Start logs in, publishes commands, and serves updates until ctx ends.
func (g *Gateway) Start(ctx context.Context, runtime redactado.GatewayRuntime) error {
	if runtime == nil {
		return fmt.Errorf("start telegram gateway: nil runtime")
	}

	err := g.client.Run(ctx, func(runCtx context.Context) error {
		self, err := g.client.Login(runCtx)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		g.mu.Lock()
		g.runtime = runtime
		g.botUsername = self.Username
		g.mu.Unlock()
		g.cfg.logger.InfoContext(runCtx, "telegram bot authorized", "gateway", g.cfg.name, "username", self.Username)

		published, err := g.syncCommands(runCtx, runtime)
		if err != nil {
			g.cfg.logger.ErrorContext(runCtx, "telegram command sync skipped", "gateway", g.cfg.name, "error", err)
			runtime.ReportError(runCtx, err)
		}
		runtime.Ready(runCtx, redactado.Ready{
			Platform:  redactado.PlatformTelegram,
			Gateway:   g.cfg.name,
			SelfID:    fmt.Sprintf("%d", self.ID),
			SelfName:  self.Username,
			Published: published,
		})

		<-runCtx.Done()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}

		return fmt.Errorf("start telegram gateway: %w", err)
	}

	return nil
}

// Shutdown detaches the runtime; the gotd session ends with the Start context.
func (g *Gateway) Shutdown(_ context.Context) error {
	g.mu.Lock()
	g.runtime = nil
	g.mu.Unlock()

	return nil
}

func (g *Gateway) syncCommands(ctx context.Context, runtime redactado.GatewayRuntime) (int, error) {
	syncCtx, cancel := context.WithTimeout(ctx, g.cfg.syncTimeout)
	defer cancel()

	descriptors, err := runtime.Descriptors(syncCtx)
	if err != nil {
		return 0, fmt.Errorf("sync telegram commands: %w", err)
	}

	commands, skipped := botCommands(descriptors)
	if len(skipped) > 0 {
		g.cfg.logger.DebugContext(ctx, "telegram commands skipped", "gateway", g.cfg.name, "commands", skipped)
	}
	if err := g.client.SetCommands(syncCtx, commands); err != nil {
		return 0, fmt.Errorf("sync telegram commands: set bot commands: %w", err)
	}

	known := make(map[string]redactado.Descriptor, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.Type == redactado.CommandTypeChatInput {
			known[descriptor.Name] = descriptor
		}
	}
	g.mu.Lock()
	g.known = known
	g.mu.Unlock()

	g.cfg.logger.InfoContext(ctx, "telegram commands published", "gateway", g.cfg.name, "count", len(commands))

	return len(commands), nil
}

// handleNewMessage maps one new message update and forwards command messages.
// It never fails the gotd update loop.
func (g *Gateway) handleNewMessage(ctx context.Context, entities tg.Entities, update *tg.UpdateNewMessage) error {
	if update == nil {
		return nil
	}
	message, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}

	g.mu.RLock()
	runtime := g.runtime
	botUsername := g.botUsername
	known := g.known
	g.mu.RUnlock()
	if runtime == nil {
		return nil
	}

	interaction, ok := interactionFromMessage(message, entities, botUsername, known)
	if !ok {
		return nil
	}
	interaction.Gateway = g.cfg.name
	interaction.Responder = &messageResponder{
		messenger: g.messenger,
		entities:  entities,
		update:    update,
	}

	runtime.OnInteraction(ctx, interaction)

	return nil
}

var _ redactado.Gateway = (*Gateway)(nil)
