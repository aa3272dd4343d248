package database

import (
	"context"
	"strings"

	"github.com/diagnosis/trainer-bookings/internal/store"
	"github.com/diagnosis/trainer-bookings/internal/store/postgres"
	"github.com/diagnosis/trainer-bookings/internal/store/sqlite"
	"github.com/diagnosis/trainer-bookings/pkg/config"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

// Connect opens the storage engine selected by cfg: PostgreSQL when a
// connection string is configured, the embedded SQLite file otherwise. The
// schema is bootstrapped before the facade is returned.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*store.DB, error) {
	var (
		backend store.Backend
		err     error
	)
	if dsn := strings.TrimSpace(cfg.URL); dsn != "" {
		backend, err = postgres.Connect(ctx, dsn)
	} else {
		backend, err = sqlite.Open(ctx, cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	db := store.New(backend)
	if err := db.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("storage ready", "backend", db.Backend())
	return db, nil
}
