package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

const configFlag = "config"

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("bot exited with error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	configFileFlag := &cli.StringFlag{
		Name:      configFlag,
		Aliases:   []string{"c"},
		Usage:     "path to the JSON config file",
		Sources:   cli.EnvVars(envConfigFile),
		TakesFile: true,
	}

	runCmd := &cli.Command{
		Name:   "run",
		Usage:  "connect the configured gateways and serve commands",
		Action: runAction,
	}
	commandsCmd := &cli.Command{
		Name:  "commands",
		Usage: "print the published command descriptors as JSON",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String(configFlag), nil)
			if err != nil {
				return err
			}
			return printDescriptors(cfg, cmd.Root().Writer)
		},
	}

	return &cli.Command{
		Name:      "redactado",
		Usage:     "chat command bot for Discord and Telegram",
		Flags:     []cli.Flag{configFileFlag},
		Commands:  []*cli.Command{runCmd, commandsCmd},
		Action:    runAction,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String(configFlag), nil)
	if err != nil {
		return err
	}

	return runBot(ctx, cfg, cmd.Root().Writer)
}
