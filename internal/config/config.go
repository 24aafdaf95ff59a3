package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"coziyoo-seed/internal/retry"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Admin    AdminConfig
	Seed     SeedConfig
	Orders   OrderConfig
	Summary  SummaryConfig
	S3       S3Config
}

// APIConfig holds marketplace API settings.
type APIConfig struct {
	BaseURL     string        `validate:"required,url"`
	Timeout     time.Duration `validate:"gt=0"`
	CountryCode string        `validate:"required,len=2"`
	Language    string        `validate:"required"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AdminConfig holds the admin credentials checked before seeding.
type AdminConfig struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// SeedConfig holds the entity counts and naming of a run.
type SeedConfig struct {
	Buyers         int    `validate:"gte=0"`
	Sellers        int    `validate:"gte=0"`
	Categories     int    `validate:"gte=0"`
	FoodsPerSeller int    `validate:"gte=0"`
	OrdersPerBuyer int    `validate:"gte=0"`
	BuyerPassword  string `validate:"required"`
	SellerPassword string `validate:"required"`
	EmailDomain    string `validate:"required,hostname"`
	ImageBaseURL   string `validate:"required,url"`

	// SeedID reproduces a previous run when set.
	SeedID string

	// ReplaySummary is a summary artifact whose seed is reused when SeedID is empty.
	ReplaySummary string
}

// OrderConfig holds order pacing and retry settings.
type OrderConfig struct {
	Interval       time.Duration `validate:"gte=0"`
	MaxAttempts    int           `validate:"gte=1"`
	RetryBaseDelay time.Duration `validate:"gt=0"`
	RetryMaxDelay  time.Duration `validate:"gte=0"`
}

// SummaryConfig holds where the run summary is written.
type SummaryConfig struct {
	// Out is the artifact path. Empty writes to Dir/<seed>.json.
	Out string
	Dir string
}

// S3Config holds AWS S3 configuration for mirroring run summaries.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "seed-runs/")
}

var validate = validator.New()

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:     getEnv("API_BASE_URL", "https://api.coziyoo.com"),
			Timeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
			CountryCode: getEnv("COUNTRY_CODE", "TR"),
			Language:    getEnv("LANGUAGE", "tr"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "coziyoo"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 4),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@coziyoo.com"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Seed: SeedConfig{
			Buyers:         getEnvAsInt("SEED_BUYERS", 10),
			Sellers:        getEnvAsInt("SEED_SELLERS", 10),
			Categories:     getEnvAsInt("SEED_CATEGORIES", 5),
			FoodsPerSeller: getEnvAsInt("SEED_FOODS_PER_SELLER", 5),
			OrdersPerBuyer: getEnvAsInt("SEED_ORDERS_PER_BUYER", 5),
			BuyerPassword:  getEnv("BUYER_PASSWORD", "Buyer12345!"),
			SellerPassword: getEnv("SELLER_PASSWORD", "Seller12345!"),
			SeedID:         getEnv("SEED_ID", ""),
			ReplaySummary:  getEnv("REPLAY_SUMMARY", ""),
			EmailDomain:    getEnv("EMAIL_DOMAIN", "coziyoo.local"),
			ImageBaseURL:   getEnv("IMAGE_BASE_URL", "https://images.coziyoo.local"),
		},
		Orders: OrderConfig{
			Interval:       getEnvAsDuration("ORDER_INTERVAL", 1200*time.Millisecond),
			MaxAttempts:    getEnvAsInt("ORDER_MAX_ATTEMPTS", 7),
			RetryBaseDelay: getEnvAsDuration("ORDER_RETRY_BASE_DELAY", time.Second),
			RetryMaxDelay:  getEnvAsDuration("ORDER_RETRY_MAX_DELAY", 2*time.Minute),
		},
		Summary: SummaryConfig{
			Out: getEnv("SUMMARY_OUT", ""),
			Dir: getEnv("SUMMARY_DIR", "seed-runs"),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "eu-central-1"),
			Prefix:  getEnv("S3_PREFIX", "seed-runs/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for name, section := range map[string]any{
		"api":    c.API,
		"admin":  c.Admin,
		"seed":   c.Seed,
		"orders": c.Orders,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}

	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}

		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		return fmt.Errorf("invalid database URL: %w", err)
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 0 {
		return fmt.Errorf("database min connections cannot be negative")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Seed.OrdersPerBuyer > 0 && c.Seed.Buyers > 0 {
		if c.Seed.Sellers == 0 || c.Seed.FoodsPerSeller == 0 || c.Seed.Categories == 0 {
			return fmt.Errorf("orders require at least one seller, category and food per seller")
		}
	}

	if c.Seed.FoodsPerSeller > 0 && c.Seed.Sellers > 0 && c.Seed.Categories == 0 {
		return fmt.Errorf("foods require at least one category")
	}

	if err := c.Orders.RetryPolicy().Validate(); err != nil {
		return fmt.Errorf("invalid order retry policy: %w", err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Summary.Out == "" && c.Summary.Dir == "" {
		return fmt.Errorf("summary output path or directory is required")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Database,
	)
}

// RetryPolicy returns the backoff policy for rate-limited order submissions.
func (c OrderConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
		MaxDelay:    c.RetryMaxDelay,
	}
}

// SummaryPath returns the artifact path for a run seed.
func (c *SummaryConfig) SummaryPath(seed string) string {
	if c.Out != "" {
		return c.Out
	}
	return strings.TrimRight(c.Dir, "/") + "/" + seed + ".json"
}

// ReplayPath returns the artifact path of a run that reuses seed. It never
// names the artifact being replayed.
func (c *SummaryConfig) ReplayPath(seed string, at time.Time) string {
	if c.Out != "" {
		return c.Out
	}
	return fmt.Sprintf("%s/%s.replay-%s.json", strings.TrimRight(c.Dir, "/"), seed, at.UTC().Format("20060102150405"))
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("1.5s") or plain seconds ("1.2").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
