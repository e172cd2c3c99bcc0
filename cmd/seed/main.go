package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"portfolio/app/internal/app/bootstrap"
	"portfolio/app/internal/config"
	applog "portfolio/app/internal/platform/log"
	"portfolio/app/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("seed", flag.ContinueOnError)
	fixturesPath := flags.String("file", "", "YAML fixtures to load instead of the built-in content")
	if err := flags.Parse(args); err != nil {
		return eris.Wrap(err, "parsing flags")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	fixtures, err := loadFixtures(*fixturesPath)
	if err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(ctx, *cfg, logger)
	if err != nil {
		return eris.Wrap(err, "opening store")
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("closing store")
		}
	}()

	summary, err := seed.Run(ctx, store, fixtures, logger)
	if err != nil {
		return eris.Wrap(err, "seeding database")
	}

	logger.WithField("summary", summary.String()).Info("seeding completed successfully")
	return nil
}

func loadFixtures(path string) (seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}
