package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	envConfigFile              = "REDACTADO_CONFIG_FILE"
	defaultConfigFilePath      = "config/bot.json"
	defaultShutdownTimeout     = 10 * time.Second
	defaultListenerTimeout     = 5 * time.Second
	defaultSyncTimeout         = 30 * time.Second
	defaultDescriptorTTL       = 5 * time.Minute
	defaultDescriptorCapacity  = 100
	defaultTelegramSessionFile = "state/telegram/session.json"
	serviceName                = "redactado"
)

type appConfig struct {
	logLevel slog.Level

	shutdownTimeout    time.Duration
	listenerTimeout    time.Duration
	handlerTimeout     time.Duration
	descriptorTTL      time.Duration
	descriptorCapacity int
	registerListeners  bool

	syncTimeout         time.Duration
	discordEnabled      bool
	telegramEnabled     bool
	telegramSessionFile string

	secrets envConfig
}

// envConfig carries credentials and endpoints that never live in the config file.
type envConfig struct {
	DiscordToken      string `env:"DISCORD_TOKEN"`
	DiscordGuildID    string `env:"DISCORD_GUILD_ID"`
	TelegramAppID     int    `env:"TELEGRAM_APP_ID"`
	TelegramAppHash   string `env:"TELEGRAM_APP_HASH"`
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	OTelEndpoint      string `env:"REDACTADO_OTEL_ENDPOINT"`
	OTelEnabled       bool   `env:"REDACTADO_OTEL_ENABLED"`
	Release           string `env:"REDACTADO_RELEASE"`
}

type fileConfig struct {
	LogLevel string             `json:"log_level"`
	Kernel   fileKernelConfig   `json:"kernel"`
	Gateways fileGatewaysConfig `json:"gateways"`
}

type fileKernelConfig struct {
	ShutdownTimeout    string `json:"shutdown_timeout"`
	ListenerTimeout    string `json:"listener_timeout"`
	HandlerTimeout     string `json:"handler_timeout"`
	DescriptorTTL      string `json:"descriptor_ttl"`
	DescriptorCapacity *int   `json:"descriptor_capacity"`
	RegisterListeners  *bool  `json:"register_listeners"`
}

type fileGatewaysConfig struct {
	SyncTimeout string              `json:"sync_timeout"`
	Discord     fileGatewayToggle   `json:"discord"`
	Telegram    fileTelegramGateway `json:"telegram"`
}

type fileGatewayToggle struct {
	Enabled *bool `json:"enabled"`
}

type fileTelegramGateway struct {
	Enabled     *bool  `json:"enabled"`
	SessionFile string `json:"session_file"`
}

// loadConfig merges defaults, the optional JSON config file and the environment.
//
// environment replaces the process environment when non-nil.
func loadConfig(configFile string, environment map[string]string) (appConfig, error) {
	cfg := defaultAppConfig()

	path, err := resolveConfigFilePath(configFile)
	if err != nil {
		return appConfig{}, err
	}
	if path != "" {
		if err := applyConfigFile(&cfg, path); err != nil {
			return appConfig{}, err
		}
	}

	secrets, err := parseEnv(environment)
	if err != nil {
		return appConfig{}, err
	}
	cfg.secrets = secrets

	return cfg, nil
}

// resolveConfigFilePath returns the explicit path, the default path when it exists, or "".
func resolveConfigFilePath(explicit string) (string, error) {
	if configFile := strings.TrimSpace(explicit); configFile != "" {
		return configFile, nil
	}

	info, err := os.Stat(defaultConfigFilePath)
	if err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("config file %s is a directory", defaultConfigFilePath)
		}
		return defaultConfigFilePath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat config file %s: %w", defaultConfigFilePath, err)
	}

	return "", nil
}

func defaultAppConfig() appConfig {
	return appConfig{
		logLevel: slog.LevelInfo,

		shutdownTimeout:    defaultShutdownTimeout,
		listenerTimeout:    defaultListenerTimeout,
		descriptorTTL:      defaultDescriptorTTL,
		descriptorCapacity: defaultDescriptorCapacity,
		registerListeners:  true,

		syncTimeout:         defaultSyncTimeout,
		discordEnabled:      true,
		telegramEnabled:     true,
		telegramSessionFile: defaultTelegramSessionFile,
	}
}

func applyConfigFile(cfg *appConfig, path string) error {
	if cfg == nil {
		return fmt.Errorf("apply config file: nil config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if rawLevel := strings.TrimSpace(parsed.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.logLevel = level
	}

	durations := []struct {
		field    string
		raw      string
		target   *time.Duration
		allowOff bool
	}{
		{field: "kernel.shutdown_timeout", raw: parsed.Kernel.ShutdownTimeout, target: &cfg.shutdownTimeout},
		{field: "kernel.listener_timeout", raw: parsed.Kernel.ListenerTimeout, target: &cfg.listenerTimeout},
		{field: "kernel.handler_timeout", raw: parsed.Kernel.HandlerTimeout, target: &cfg.handlerTimeout, allowOff: true},
		{field: "kernel.descriptor_ttl", raw: parsed.Kernel.DescriptorTTL, target: &cfg.descriptorTTL},
		{field: "gateways.sync_timeout", raw: parsed.Gateways.SyncTimeout, target: &cfg.syncTimeout},
	}
	for _, entry := range durations {
		if err := parseDurationField(entry.field, entry.raw, entry.target, entry.allowOff); err != nil {
			return err
		}
	}

	if parsed.Kernel.DescriptorCapacity != nil {
		if *parsed.Kernel.DescriptorCapacity <= 0 {
			return fmt.Errorf("parse kernel.descriptor_capacity: must be > 0")
		}
		cfg.descriptorCapacity = *parsed.Kernel.DescriptorCapacity
	}
	if parsed.Kernel.RegisterListeners != nil {
		cfg.registerListeners = *parsed.Kernel.RegisterListeners
	}
	if parsed.Gateways.Discord.Enabled != nil {
		cfg.discordEnabled = *parsed.Gateways.Discord.Enabled
	}
	if parsed.Gateways.Telegram.Enabled != nil {
		cfg.telegramEnabled = *parsed.Gateways.Telegram.Enabled
	}
	if sessionFile := strings.TrimSpace(parsed.Gateways.Telegram.SessionFile); sessionFile != "" {
		cfg.telegramSessionFile = sessionFile
	}

	return nil
}

func parseDurationField(field string, raw string, target *time.Duration, allowOff bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	if value < 0 || (value == 0 && !allowOff) {
		return fmt.Errorf("parse %s: must be > 0", field)
	}
	*target = value

	return nil
}

func parseEnv(environment map[string]string) (envConfig, error) {
	var parsed envConfig
	if environment == nil {
		if err := env.Parse(&parsed); err != nil {
			return envConfig{}, fmt.Errorf("parse env: %w", err)
		}
		return parsed, nil
	}

	if err := env.ParseWithOptions(&parsed, env.Options{Environment: environment}); err != nil {
		return envConfig{}, fmt.Errorf("parse env: %w", err)
	}

	return parsed, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}

func (c appConfig) discordConfigured() bool {
	return c.discordEnabled && strings.TrimSpace(c.secrets.DiscordToken) != ""
}

func (c appConfig) telegramConfigured() bool {
	return c.telegramEnabled &&
		c.secrets.TelegramAppID > 0 &&
		strings.TrimSpace(c.secrets.TelegramAppHash) != "" &&
		strings.TrimSpace(c.secrets.TelegramBotToken) != ""
}
