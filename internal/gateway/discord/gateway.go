// Package discord adapts a Discord bot session into redactado interactions.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"redactado/pkg/redactado"

	"github.com/bwmarrin/discordgo"
)

// GatewayType is the default gateway name.
const GatewayType = "discord"

const defaultSyncTimeout = 30 * time.Second

// session is the subset of *discordgo.Session the gateway drives.
type session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ApplicationCommandBulkOverwrite(
		appID string,
		guildID string,
		commands []*discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) ([]*discordgo.ApplicationCommand, error)
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
	FollowupMessageCreate(
		interaction *discordgo.Interaction,
		wait bool,
		data *discordgo.WebhookParams,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	HeartbeatLatency() time.Duration
}

// Config carries Discord credentials and publishing scope.
type Config struct {
	// Token is the bot token without the "Bot " prefix.
	Token string
	// GuildID publishes commands to one guild instead of globally when set.
	GuildID string
}

// gatewayConfig contains runtime controls for naming, logging and command sync.
type gatewayConfig struct {
	name        string
	guildID     string
	syncTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// Option mutates Discord gateway configuration.
type Option func(*gatewayConfig)

// WithName configures the gateway identity exposed to the kernel.
func WithName(name string) Option {
	return func(cfg *gatewayConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithGuildID publishes commands to one guild.
func WithGuildID(guildID string) Option {
	return func(cfg *gatewayConfig) {
		cfg.guildID = strings.TrimSpace(guildID)
	}
}

// WithSyncTimeout bounds the command publishing call on each ready event.
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

// Gateway receives Discord application command interactions and publishes descriptors.
type Gateway struct {
	cfg     gatewayConfig
	session session

	mu      sync.Mutex
	removes []func()
}

// New creates a gateway over a discordgo bot session.
func New(cfg Config, options ...Option) (*Gateway, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("new discord gateway: empty token")
	}

	discordSession, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("new discord gateway session: %w", err)
	}
	discordSession.Identify.Intents = discordgo.IntentsGuilds

	return newGateway(discordSession, append([]Option{WithGuildID(cfg.GuildID)}, options...)...)
}

func newGateway(discordSession session, options ...Option) (*Gateway, error) {
	if discordSession == nil {
		return nil, fmt.Errorf("new discord gateway: nil session")
	}

	cfg := gatewayConfig{
		name:        GatewayType,
		syncTimeout: defaultSyncTimeout,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, option := range options {
		option(&cfg)
	}

	return &Gateway{cfg: cfg, session: discordSession}, nil
}

// Name returns the stable gateway identifier.
func (g *Gateway) Name() string {
	return g.cfg.name
}

// Start opens the websocket session and serves interactions until ctx ends.
func (g *Gateway) Start(ctx context.Context, runtime redactado.GatewayRuntime) error {
	if runtime == nil {
		return fmt.Errorf("start discord gateway: nil runtime")
	}

	g.mu.Lock()
	g.removes = append(g.removes,
		g.session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
			g.handleReady(ctx, runtime, ready)
		}),
		g.session.AddHandler(func(_ *discordgo.Session, event *discordgo.InteractionCreate) {
			g.handleInteraction(ctx, runtime, event)
		}),
	)
	g.mu.Unlock()

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("start discord gateway: open session: %w", err)
	}
	g.cfg.logger.InfoContext(ctx, "discord session opened", "gateway", g.cfg.name, "guild_id", g.cfg.guildID)

	<-ctx.Done()

	return nil
}

// Shutdown removes handlers and closes the websocket session.
func (g *Gateway) Shutdown(_ context.Context) error {
	g.mu.Lock()
	removes := g.removes
	g.removes = nil
	g.mu.Unlock()

	for _, remove := range removes {
		remove()
	}
	if err := g.session.Close(); err != nil && !errors.Is(err, discordgo.ErrWSNotFound) {
		return fmt.Errorf("shutdown discord gateway: %w", err)
	}

	return nil
}

// handleReady publishes the full descriptor list, then notifies lifecycle listeners.
// A descriptor or publish failure skips this sync cycle but still signals readiness.
func (g *Gateway) handleReady(ctx context.Context, runtime redactado.GatewayRuntime, ready *discordgo.Ready) {
	ctx = context.WithoutCancel(ctx)
	selfID, selfName, appID := readyIdentity(ready)

	published, err := g.syncCommands(ctx, runtime, appID)
	if err != nil {
		g.cfg.logger.ErrorContext(ctx, "discord command sync skipped", "gateway", g.cfg.name, "error", err)
		runtime.ReportError(ctx, err)
	} else {
		g.cfg.logger.InfoContext(ctx, "discord commands published",
			"gateway", g.cfg.name,
			"count", published,
			"guild_id", g.cfg.guildID,
		)
	}

	runtime.Ready(ctx, redactado.Ready{
		Platform:  redactado.PlatformDiscord,
		Gateway:   g.cfg.name,
		SelfID:    selfID,
		SelfName:  selfName,
		Published: published,
	})
}

func (g *Gateway) syncCommands(ctx context.Context, runtime redactado.GatewayRuntime, appID string) (int, error) {
	if appID == "" {
		return 0, fmt.Errorf("sync discord commands: unknown application id")
	}

	syncCtx, cancel := context.WithTimeout(ctx, g.cfg.syncTimeout)
	defer cancel()

	descriptors, err := runtime.Descriptors(syncCtx)
	if err != nil {
		return 0, fmt.Errorf("sync discord commands: %w", err)
	}
	commands, err := applicationCommands(descriptors)
	if err != nil {
		return 0, fmt.Errorf("sync discord commands: %w", err)
	}

	created, err := g.session.ApplicationCommandBulkOverwrite(appID, g.cfg.guildID, commands, discordgo.WithContext(syncCtx))
	if err != nil {
		return 0, fmt.Errorf("sync discord commands: bulk overwrite: %w", err)
	}

	return len(created), nil
}

func (g *Gateway) handleInteraction(ctx context.Context, runtime redactado.GatewayRuntime, event *discordgo.InteractionCreate) {
	interaction, ok := interactionFromEvent(event, g.cfg.now())
	if !ok {
		return
	}
	interaction.Gateway = g.cfg.name
	interaction.Responder = newInteractionResponder(g.session, event.Interaction)

	runtime.OnInteraction(ctx, interaction)
}

func readyIdentity(ready *discordgo.Ready) (selfID string, selfName string, appID string) {
	if ready == nil {
		return "", "", ""
	}
	if ready.User != nil {
		selfID = ready.User.ID
		selfName = ready.User.Username
	}
	appID = selfID
	if ready.Application != nil && ready.Application.ID != "" {
		appID = ready.Application.ID
	}

	return selfID, selfName, appID
}

var _ redactado.Gateway = (*Gateway)(nil)
