package database

import (
	"context"
	"fmt"
	"time"

	"coziyoo-seed/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates the PostgreSQL pool used by the catalog writer.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Log the parsed target so DATABASE_URL credentials never reach the log.
	logger.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Uint16("port", poolConfig.ConnConfig.Port).
		Str("database", poolConfig.ConnConfig.Database).
		Int32("max_connections", poolConfig.MaxConns).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}

// Stats is a point-in-time view of the pool and server.
type Stats struct {
	ServerVersion string
	Database      string
	TotalConns    int32
	IdleConns     int32
}

// Check pings the pool and reads the server version and database name.
func Check(ctx context.Context, pool *pgxpool.Pool) (Stats, error) {
	var s Stats
	if err := pool.QueryRow(ctx, "SELECT version(), current_database()").Scan(&s.ServerVersion, &s.Database); err != nil {
		return s, fmt.Errorf("failed to query server info: %w", err)
	}
	st := pool.Stat()
	s.TotalConns = st.TotalConns()
	s.IdleConns = st.IdleConns()
	return s, nil
}
