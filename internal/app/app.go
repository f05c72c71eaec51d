// Package app wires storage and services from configuration for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/expense-tracker/internal/config"
	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/repository/memory"
	"github.com/msomdec/expense-tracker/internal/repository/postgres"
	"github.com/msomdec/expense-tracker/internal/repository/sqlite"
	"github.com/msomdec/expense-tracker/internal/service"
)

// App holds the opened profile store and the services built on it.
type App struct {
	Store  domain.Storage
	Auth   *service.AuthService
	Ledger *service.Ledger

	db domain.Database
}

// Open opens and migrates the configured store and builds the services.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	store, db, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("storage ready", "driver", cfg.Storage.Driver)

	auth := service.NewAuthService(store, AuthOptions(cfg)...)

	var ledgerOpts []service.LedgerOption
	if cfg.Transactions.SharedScope {
		ledgerOpts = append(ledgerOpts, service.WithSharedTransactions())
	}

	return &App{
		Store:  store,
		Auth:   auth,
		Ledger: service.NewLedger(auth, store, ledgerOpts...),
		db:     db,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	a.Ledger.Close()
	return a.db.Close()
}

// AuthOptions translates the session and auth settings.
func AuthOptions(cfg *config.Config) []service.AuthOption {
	opts := []service.AuthOption{
		service.WithTransientSessionTTL(cfg.Session.TransientTTL),
		service.WithRememberTTL(cfg.Session.RememberTTL),
	}
	if cfg.Auth.PasswordHashing == config.HashingBcrypt {
		opts = append(opts, service.WithPasswordHasher(service.BcryptPasswords{Cost: cfg.Auth.BcryptCost}))
	}
	return opts
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (domain.Storage, domain.Database, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		s := memory.New()
		return s, s, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, s, nil
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return db.Records(), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
