package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"redactado/internal/errtrack"
	"redactado/internal/gateway/discord"
	"redactado/internal/gateway/telegram"
	"redactado/internal/kernel"
	"redactado/internal/telemetry"
	"redactado/modules/help"
	"redactado/modules/msginfo"
	"redactado/modules/ping"
	"redactado/pkg/redactado"
)

// runBot wires every component and blocks until a signal or a fatal gateway error.
func runBot(ctx context.Context, cfg appConfig, output io.Writer) error {
	logger := newLogger(cfg.logLevel, output)

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.secrets.OTelEnabled,
		Endpoint:       cfg.secrets.OTelEndpoint,
		ServiceName:    serviceName,
		ServiceVersion: cfg.secrets.Release,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	reporter, closeReporter, err := buildReporter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeReporter()

	kernelRuntime := buildKernel(logger, cfg, reporter)
	if err := registerRuntimeCommands(kernelRuntime); err != nil {
		return err
	}

	gateways, err := buildGateways(cfg, logger)
	if err != nil {
		return err
	}
	if err := registerRuntimeGateways(kernelRuntime, gateways); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kernelRuntime.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run kernel: %w", err)
	}

	return nil
}

// printDescriptors registers the built-in commands and writes the publishable list as JSON.
func printDescriptors(cfg appConfig, output io.Writer) error {
	kernelRuntime := buildKernel(slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg, nil)
	if err := registerRuntimeCommands(kernelRuntime); err != nil {
		return err
	}

	descriptors, err := kernelRuntime.Registry().AllDescriptors()
	if err != nil {
		return fmt.Errorf("list descriptors: %w", err)
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(descriptors); err != nil {
		return fmt.Errorf("encode descriptors: %w", err)
	}

	return nil
}

func newLogger(level slog.Level, output io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))
}

func buildReporter(cfg appConfig, logger *slog.Logger) (redactado.ErrorReporter, func(), error) {
	logReporter := errtrack.NewLogReporter(logger)
	if cfg.secrets.SentryDSN == "" {
		return logReporter, func() {}, nil
	}

	sentryReporter, err := errtrack.NewSentryReporter(errtrack.SentryConfig{
		DSN:          cfg.secrets.SentryDSN,
		Environment:  cfg.secrets.SentryEnvironment,
		Release:      cfg.secrets.Release,
		FlushTimeout: cfg.shutdownTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build error reporter: %w", err)
	}

	closeReporter := func() {
		if !sentryReporter.Close() {
			logger.Warn("sentry flush timed out")
		}
	}

	return errtrack.NewMulti(logReporter, sentryReporter), closeReporter, nil
}

func buildKernel(logger *slog.Logger, cfg appConfig, reporter redactado.ErrorReporter) *kernel.Kernel {
	return kernel.New(
		kernel.WithLogger(logger),
		kernel.WithErrorReporter(reporter),
		kernel.WithShutdownTimeout(cfg.shutdownTimeout),
		kernel.WithListenerTimeout(cfg.listenerTimeout),
		kernel.WithHandlerTimeout(cfg.handlerTimeout),
		kernel.WithDescriptorCache(cfg.descriptorTTL, cfg.descriptorCapacity),
		kernel.WithListeners(cfg.registerListeners),
	)
}

// builtinCommands is the explicit registration sequence.
func builtinCommands(catalog help.Catalog) []redactado.Command {
	return []redactado.Command{
		ping.New(),
		help.New(catalog),
		msginfo.New(),
	}
}

func registerRuntimeCommands(kernelRuntime *kernel.Kernel) error {
	if err := kernelRuntime.RegisterCommands(builtinCommands(kernelRuntime.Registry())...); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	return nil
}

func buildGateways(cfg appConfig, logger *slog.Logger) ([]redactado.Gateway, error) {
	gateways := make([]redactado.Gateway, 0, 2)

	if cfg.discordConfigured() {
		gateway, err := discord.New(
			discord.Config{Token: cfg.secrets.DiscordToken, GuildID: cfg.secrets.DiscordGuildID},
			discord.WithSyncTimeout(cfg.syncTimeout),
			discord.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("build discord gateway: %w", err)
		}
		gateways = append(gateways, gateway)
	}

	if cfg.telegramConfigured() {
		gateway, err := telegram.New(
			telegram.Config{
				AppID:       cfg.secrets.TelegramAppID,
				AppHash:     cfg.secrets.TelegramAppHash,
				BotToken:    cfg.secrets.TelegramBotToken,
				SessionFile: cfg.telegramSessionFile,
			},
			telegram.WithSyncTimeout(cfg.syncTimeout),
			telegram.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("build telegram gateway: %w", err)
		}
		gateways = append(gateways, gateway)
	}

	if len(gateways) == 0 {
		return nil, fmt.Errorf("build gateways: no gateway configured; set DISCORD_TOKEN or TELEGRAM_APP_ID, TELEGRAM_APP_HASH and TELEGRAM_BOT_TOKEN")
	}

	return gateways, nil
}

func registerRuntimeGateways(kernelRuntime *kernel.Kernel, gateways []redactado.Gateway) error {
	for _, gateway := range gateways {
		if err := kernelRuntime.RegisterGateway(gateway); err != nil {
			return fmt.Errorf("register gateway %s: %w", gateway.Name(), err)
		}
	}

	return nil
}
