package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coziyoo-seed/internal/catalog"
	"coziyoo-seed/internal/config"
	"coziyoo-seed/internal/coordinator"
	"coziyoo-seed/internal/database"
	"coziyoo-seed/internal/gateway"
	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/ordering"
	"coziyoo-seed/internal/repository"
	"coziyoo-seed/internal/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, nil)
	logger.Info().Str("base_url", cfg.API.BaseURL).Msg("starting coziyoo seed run")

	// SIGINT/SIGTERM cancel in-flight I/O, backoff waits and the order interval.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Summary stores, local first with an optional S3 mirror
	fileStore := summary.NewFileStore(logger)
	fileLoader := summary.NewFileLoader(logger)
	store := fileStore
	var s3 *summary.S3

	if cfg.S3.Enabled {
		s3, err = summary.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 summary store, writing to local file system only")
		} else {
			store = summary.NewMirrorStore(fileStore, s3, logger)
		}
	} else {
		logger.Info().Msg("using local file system for run summaries (S3 disabled)")
	}

	loader := fileLoader
	if s3 != nil {
		loader = summary.NewFallbackLoader(s3, fileLoader, cfg.S3.Prefix, true, logger)
	}

	startedAt := time.Now()
	seed, err := coordinator.ResolveSeed(ctx, coordinator.SeedSource{
		Explicit: cfg.Seed.SeedID,
		Replay:   cfg.Seed.ReplaySummary,
		Loader:   loader,
	}, startedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve run seed: %w", err)
	}
	// A reused seed already owns <seed>.json from the run it reproduces.
	reused := cfg.Seed.SeedID != "" || cfg.Seed.ReplaySummary != ""
	logger.Info().Str("seed", seed.String()).Msg("seed run")

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	catalogRepo := repository.NewCatalogRepository(pool, logger)

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		CountryCode: cfg.API.CountryCode,
		Language:    cfg.API.Language,
		OrderRetry:  cfg.Orders.RetryPolicy(),
	}, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize API client: %w", err)
	}

	writer := catalog.NewWriter(catalogRepo, catalog.Options{
		ImageBaseURL: cfg.Seed.ImageBaseURL,
		CountryCode:  cfg.API.CountryCode,
		Language:     cfg.API.Language,
	}, logger)

	engine := ordering.NewEngine(client, ordering.Options{
		Seed:        seed,
		Interval:    cfg.Orders.Interval,
		CountryCode: cfg.API.CountryCode,
	}, logger)

	coord := coordinator.New(client, writer, engine, store, coordinator.Options{
		Counts: coordinator.Counts{
			Buyers:         cfg.Seed.Buyers,
			Sellers:        cfg.Seed.Sellers,
			Categories:     cfg.Seed.Categories,
			FoodsPerSeller: cfg.Seed.FoodsPerSeller,
			OrdersPerBuyer: cfg.Seed.OrdersPerBuyer,
		},
		AdminEmail:     cfg.Admin.Email,
		AdminPassword:  cfg.Admin.Password,
		BuyerPassword:  cfg.Seed.BuyerPassword,
		SellerPassword: cfg.Seed.SellerPassword,
		EmailDomain:    cfg.Seed.EmailDomain,
		BaseURL:        client.BaseURL(),
		SummaryName: func(seed identity.RunSeed) string {
			if reused {
				return cfg.Summary.ReplayPath(seed.String(), startedAt)
			}
			return cfg.Summary.SummaryPath(seed.String())
		},
	}, logger)

	res, err := coord.Run(ctx, seed)
	if err != nil {
		return err
	}

	logger.Info().
		Int("buyers", res.Summary.Counts.Buyers).
		Int("sellers", res.Summary.Counts.Sellers).
		Int("categories", res.Summary.Counts.Categories).
		Int("foods", res.Summary.Counts.Foods).
		Int("orders", res.Summary.Counts.Orders).
		Msg("seed run finished")

	fmt.Println(res.Location)
	return nil
}
