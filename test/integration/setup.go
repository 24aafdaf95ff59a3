package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coziyoo-seed/internal/config"
	"coziyoo-seed/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		URL:             connStr,
		MaxConnections:  4,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the marketplace tables a seed run writes to. The geo
// columns are left out; the catalog batch adds them.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			full_name TEXT,
			user_type TEXT NOT NULL,
			profile_image_url TEXT,
			country_code TEXT,
			language TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name_tr TEXT NOT NULL,
			name_en TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS foods (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			seller_id UUID NOT NULL REFERENCES users(id),
			category_id UUID NOT NULL REFERENCES categories(id),
			name TEXT NOT NULL,
			card_summary TEXT,
			description TEXT,
			recipe TEXT,
			country_code TEXT,
			price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
			image_url TEXT,
			ingredients_json JSONB,
			allergens_json JSONB,
			preparation_time_minutes INTEGER,
			serving_size TEXT,
			delivery_fee NUMERIC(10,2),
			max_delivery_distance_km NUMERIC(6,2),
			delivery_options_json JSONB,
			current_stock INTEGER,
			daily_stock INTEGER,
			is_available BOOLEAN,
			is_active BOOLEAN,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_foods_seller_id ON foods(seller_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// InsertRegisteredUser stores a user the way the marketplace does after a
// successful registration.
func InsertRegisteredUser(ctx context.Context, pool *pgxpool.Pool, id, email, displayName, fullName, userType string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, full_name, user_type)
		 VALUES ($1::uuid, $2, $3, $4, $5)`,
		id, email, displayName, fullName, userType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user %s: %w", email, err)
	}
	return nil
}

// FailNthFoodInsert installs a trigger that rejects food inserts once n-1 rows
// are visible to the inserting transaction.
func FailNthFoodInsert(t *testing.T, pool *pgxpool.Pool, n int) {
	t.Helper()

	ddl := fmt.Sprintf(`
		CREATE OR REPLACE FUNCTION reject_nth_food() RETURNS trigger AS $$
		BEGIN
			IF (SELECT count(*) FROM foods) >= %d THEN
				RAISE EXCEPTION 'food insert rejected by test trigger';
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS reject_nth_food ON foods;
		CREATE TRIGGER reject_nth_food BEFORE INSERT ON foods
			FOR EACH ROW EXECUTE FUNCTION reject_nth_food();
	`, n-1)

	if _, err := pool.Exec(context.Background(), ddl); err != nil {
		t.Fatalf("failed to install food trigger: %v", err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"foods", "categories", "users"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
