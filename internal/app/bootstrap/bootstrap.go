// Package bootstrap composes configuration, storage and transport into a
// runnable application.
package bootstrap

import (
	"context"
	"os"
	"path/filepath"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/config"
	appdb "portfolio/app/internal/db"
	apphttp "portfolio/app/internal/http"
	"portfolio/app/internal/storage"
	"portfolio/app/internal/storage/gormstore"
	"portfolio/app/internal/storage/pgstore"
	"portfolio/app/internal/storage/reststore"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Store      storage.Store
	HTTPServer *apphttp.Server
	Cleanup    func() error
}

// Build opens the configured store and wires the HTTP server on top of it.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	store, err := OpenStore(ctx, deps.Config, deps.Logger)
	if err != nil {
		return Result{}, err
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Store:     store,
		Logger:    deps.Logger,
		SentryHub: deps.SentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             deps.Config.RateLimitBurst,
			RequestsPerSecond: deps.Config.RateLimitRPS,
		},
		CORSAllowedOrigins: deps.Config.CORSAllowedOrigins,
		TrustProxyHeaders:  deps.Config.TrustProxyHeaders,
	})
	if err != nil {
		if closeErr := store.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing store after bootstrap failure")
		}
		return Result{}, eris.Wrap(err, "initialising http server")
	}

	cleanup := func() error {
		httpServer.Close()
		return store.Close()
	}

	return Result{
		Store:      store,
		HTTPServer: httpServer,
		Cleanup:    cleanup,
	}, nil
}

// OpenStore connects to the backend named by cfg.StorageBackend and, when
// cfg.AutoMigrate is set, creates the content tables.
func OpenStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite, "":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "creating database directory %s", dir)
			}
		}
		return openGormStore(ctx, appdb.Options{Driver: appdb.DriverSQLite, Path: cfg.DBPath}, cfg.AutoMigrate, logger)

	case config.BackendPostgres:
		return openGormStore(ctx, appdb.Options{Driver: appdb.DriverPostgres, DSN: cfg.DatabaseURL}, cfg.AutoMigrate, logger)

	case config.BackendPgx:
		store, err := pgstore.Open(ctx, pgstore.Options{DSN: cfg.DatabaseURL, Logger: logger})
		if err != nil {
			return nil, eris.Wrap(err, "opening pgx store")
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, eris.Wrap(err, "running migrations")
			}
		}
		return store, nil

	case config.BackendREST:
		if cfg.AutoMigrate && logger != nil {
			logger.Warn("AUTO_MIGRATE is ignored for the rest backend; manage the schema on the host")
		}
		store, err := reststore.NewStore(reststore.Options{
			URL:    cfg.SupabaseURL,
			APIKey: cfg.SupabaseAnonKey,
			Logger: logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "creating rest store")
		}
		return store, nil

	default:
		return nil, eris.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

func openGormStore(ctx context.Context, opts appdb.Options, migrate bool, logger *logrus.Logger) (storage.Store, error) {
	db, err := appdb.Open(opts)
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (storage.Store, error) {
		if closeErr := appdb.Close(db); closeErr != nil && logger != nil {
			logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return nil, wrapper
	}

	if migrate {
		if err := gormstore.Migrate(ctx, db, logger); err != nil {
			return closeOnError(eris.Wrap(err, "running migrations"))
		}
	}

	store, err := gormstore.NewStore(db, logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating gorm store"))
	}
	return store, nil
}
