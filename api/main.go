// @title Chato API
// @version 1.0
// @description Messaging backend: conversations, messages with attachments, reactions and realtime events.

// @host localhost:8080
// @BasePath /api/v1
// @query.collection.format multi
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tush00nka/chato/internal/app"
	"tush00nka/chato/internal/config"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "chato",
		Usage: "Messaging backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Sources: cli.EnvVars("CHATO_ENV_FILE"),
				Usage:   "Path to the .env file, environment variables take precedence",
				Value:   ".env",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			sweepCommand(),
		},
	}
	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn("unknown LOG_LEVEL, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP and websocket server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "migrate",
				Sources: cli.EnvVars("CHATO_AUTO_MIGRATE"),
				Usage:   "Apply the database schema before starting",
				Value:   true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Bool("migrate") {
				if err := app.Migrate(cfg); err != nil {
					return err
				}
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the database schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return app.Migrate(cfg)
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove detached attachments once and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.Sweep(ctx)
			if err != nil {
				return err
			}
			log.Info("sweep finished", "removed", removed)
			return nil
		},
	}
}
