package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
	"github.com/orbital-telemetry/groundctl/pkg/version"
)

func main() {
	app := &cli.App{
		Name:                 "groundctl",
		Version:              version.Version,
		EnableBashCompletion: true,
		Usage:                "command-line tool for managing the orbital telemetry pipeline infrastructure",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enables debug mode, if set",
				Value: false,
			},
			&cli.StringFlag{
				Name:     "config",
				Usage:    "path to config file",
				Required: true,
				Aliases:  []string{"file"},
				EnvVars:  []string{"GROUNDCTL_CONFIG"},
			},
		},
		Before: func(ctx *cli.Context) error {
			configFile := ctx.String("config")
			conf, err := config.Parse(configFile)
			if err != nil {
				return fmt.Errorf("Cannot parse config: %w", err)
			}

			// Overrides from flags/options
			if ctx.IsSet("debug") {
				conf.Debug = ctx.Bool("debug")
			}

			if conf.Debug {
				conf.Logging.Level = string(slogutils.LevelDebug)
			}

			// Tables and snapshots go to stdout, log events to stderr.
			logger, err := slogutils.NewFromConfig(os.Stderr, conf.Logging)
			if err != nil {
				return fmt.Errorf("Cannot configure logger: %w", err)
			}
			slog.SetDefault(logger)

			ctx.Context = slogutils.IntoContext(ctx.Context, logger)
			ctx.Context = context.WithValue(ctx.Context, configKey{}, conf)

			return nil
		},
		Commands: []*cli.Command{
			NewPlanCommand(),
			NewApplyCommand(),
			NewDestroyCommand(),
			NewValidateCommand(),
			NewResourceCommand(),
			NewStateCommand(),
			NewDriftCommand(),
			NewConfigCommand(),
			NewVersionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
