package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/warungpos/warungpos/internal/config"
	"github.com/warungpos/warungpos/internal/log"
	"github.com/warungpos/warungpos/internal/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log, "")

	pgxPool, err := remote.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	// Unlike the terminal, migrating requires the remote to be reachable.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pgxPool.Ping(pingCtx); err != nil {
		return fmt.Errorf("error pinging database: %w", err)
	}

	logger.InfoContext(ctx, "starting database migration")

	if err := remote.Migrate(pgxPool); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	logger.InfoContext(ctx, "database migration completed successfully")

	return nil
}
