// Command initdb creates the users and bookings tables on the configured
// backend. It is safe to run repeatedly.
package main

import (
	"context"
	"os"
	"time"

	"github.com/diagnosis/trainer-bookings/internal/database"
	"github.com/diagnosis/trainer-bookings/pkg/config"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Schema bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Tables created or already exist", "backend", db.Backend())
}
