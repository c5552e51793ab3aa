// Command seed loads the demo park catalogue into PostgreSQL. It reads the
// same environment as the server and applies pending migrations first.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/config"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/seed"
	"github.com/mikesassatelli/offroad-parks-sub001/migrations"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/database"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("parks-seed", cfg.LogLevel)

	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Error("seed requires the postgres store", slog.String("store", cfg.StoreDriver))
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	_, err = seed.Postgres(ctx, pool, seed.DemoParks(), log)
	return err
}
