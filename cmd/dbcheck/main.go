// Command dbcheck verifies the seeding database is reachable and reports the
// row counts of the tables a seed run writes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"coziyoo-seed/internal/config"
	"coziyoo-seed/internal/database"
	"coziyoo-seed/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer pool.Close()

	stats, err := database.Check(ctx, pool)
	if err != nil {
		return err
	}

	counts, err := repository.NewCatalogRepository(pool, logger).Counts(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Successfully connected to database: %s\n", stats.Database)
	fmt.Printf("Server: %s\n", stats.ServerVersion)
	fmt.Printf("Pool: %d total, %d idle connections\n", stats.TotalConns, stats.IdleConns)
	fmt.Printf("Rows: users=%d categories=%d foods=%d\n", counts.Users, counts.Categories, counts.Foods)
	return nil
}
