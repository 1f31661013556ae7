package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/app"
	"github.com/Freeeeeet/fieldbook/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "fieldbook",
		Usage: "sports field booking service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background jobs",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply pending migrations", Action: migrate(func(ctx context.Context, mg *app.Migrator) error { return mg.Run(ctx) })},
					{Name: "down", Usage: "roll back the last migration", Action: migrate(func(ctx context.Context, mg *app.Migrator) error { return mg.Down(ctx) })},
					{Name: "version", Usage: "print current schema version", Action: migrate(printVersion)},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("fieldbook: %v", err)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting fieldbook",
		zap.String("environment", cfg.Environment),
		zap.Bool("database", cfg.UseDatabase()),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		return err
	}

	logger.Info("Fieldbook stopped")
	return nil
}

func migrate(run func(ctx context.Context, mg *app.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !cfg.UseDatabase() {
			return fmt.Errorf("DB_DSN is not set")
		}

		pool, err := app.OpenPool(c.Context, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		mg, err := app.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		defer mg.Close()

		return run(c.Context, mg)
	}
}

func printVersion(ctx context.Context, mg *app.Migrator) error {
	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Println(version)
	return nil
}
