package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"coziyoo-seed/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// catalogRepository implements the CatalogRepository interface using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *catalogRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const ensureGeoColumnsSQL = `
	ALTER TABLE users ADD COLUMN IF NOT EXISTS latitude NUMERIC(9,6);
	ALTER TABLE users ADD COLUMN IF NOT EXISTS longitude NUMERIC(9,6);
	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'users_latitude_range_check') THEN
			ALTER TABLE users ADD CONSTRAINT users_latitude_range_check
				CHECK (latitude IS NULL OR latitude BETWEEN -90 AND 90);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'users_longitude_range_check') THEN
			ALTER TABLE users ADD CONSTRAINT users_longitude_range_check
				CHECK (longitude IS NULL OR longitude BETWEEN -180 AND 180);
		END IF;
	END $$;
`

// EnsureGeoColumns adds the users geo columns and range checks when missing.
func (r *catalogRepository) EnsureGeoColumns(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, ensureGeoColumnsSQL); err != nil {
		r.logger.Error().Err(err).Msg("failed to ensure geo columns")
		return fmt.Errorf("failed to ensure geo columns: %w", err)
	}
	return nil
}

// CreateCategory inserts an active category within the provided transaction.
func (r *catalogRepository) CreateCategory(ctx context.Context, tx pgx.Tx, category *model.Category) error {
	query := `
		INSERT INTO categories (name_tr, name_en, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, now(), now())
		RETURNING id::text
	`

	err := tx.QueryRow(ctx, query, category.NameLocal, category.NameCanonical, category.SortOrder).Scan(&category.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("name", category.NameCanonical).
			Msg("failed to create category")
		return fmt.Errorf("failed to create category %q: %w", category.NameCanonical, err)
	}

	r.logger.Debug().
		Str("category_id", category.ID).
		Str("name", category.NameCanonical).
		Msg("category created successfully")

	return nil
}

// UpdateUserProfile backfills profile and location columns of one user.
func (r *catalogRepository) UpdateUserProfile(ctx context.Context, tx pgx.Tx, userID string, profile ProfileUpdate) error {
	if err := profile.Geo.Validate(); err != nil {
		return fmt.Errorf("invalid geo profile for user %s: %w", userID, err)
	}

	query := `
		UPDATE users
		SET full_name = $2,
			profile_image_url = $3,
			country_code = $4,
			language = $5,
			latitude = $6,
			longitude = $7,
			updated_at = now()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		userID,
		profile.FullName,
		profile.Geo.ProfileImageURL,
		profile.CountryCode,
		profile.Language,
		profile.Geo.Latitude,
		profile.Geo.Longitude,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to update user profile")
		return fmt.Errorf("failed to update user %s: %w", userID, err)
	}

	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to update user %s: %d rows affected", userID, tag.RowsAffected())
	}

	return nil
}

// CreateFood inserts a food within the provided transaction.
func (r *catalogRepository) CreateFood(ctx context.Context, tx pgx.Tx, food *model.Food) error {
	ingredients, err := json.Marshal(nonNil(food.Ingredients))
	if err != nil {
		return fmt.Errorf("failed to encode ingredients: %w", err)
	}
	allergens, err := json.Marshal(nonNil(food.Allergens))
	if err != nil {
		return fmt.Errorf("failed to encode allergens: %w", err)
	}
	options, err := json.Marshal(food.DeliveryOptions)
	if err != nil {
		return fmt.Errorf("failed to encode delivery options: %w", err)
	}

	query := `
		INSERT INTO foods (
			seller_id, category_id, name, card_summary, description, recipe,
			country_code, price, image_url, ingredients_json, allergens_json,
			preparation_time_minutes, serving_size, delivery_fee, max_delivery_distance_km,
			delivery_options_json, current_stock, daily_stock, is_available, is_active,
			created_at, updated_at
		)
		VALUES (
			$1, $2::uuid, $3, $4, $5, $6,
			$7, $8::numeric, $9, $10::jsonb, $11::jsonb,
			$12, $13, $14::numeric, $15::numeric,
			$16::jsonb, $17, $18, $19, $20,
			now(), now()
		)
		RETURNING id::text, seller_id::text, category_id::text, name, price::text
	`

	var price string
	err = tx.QueryRow(ctx, query,
		food.SellerID,
		food.CategoryID,
		food.Name,
		food.CardSummary,
		food.Description,
		food.Recipe,
		food.CountryCode,
		food.Price.String(),
		food.ImageURL,
		string(ingredients),
		string(allergens),
		food.PreparationTimeMinutes,
		food.ServingSize,
		food.DeliveryFee.String(),
		food.MaxDeliveryDistanceKm.String(),
		string(options),
		food.CurrentStock,
		food.DailyStock,
		food.IsAvailable,
		food.IsActive,
	).Scan(&food.ID, &food.SellerID, &food.CategoryID, &food.Name, &price)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("seller_id", food.SellerID).
			Str("name", food.Name).
			Msg("failed to create food")
		return fmt.Errorf("failed to create food %q: %w", food.Name, err)
	}

	stored, err := decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("failed to parse stored price %q: %w", price, err)
	}
	food.Price = stored

	r.logger.Debug().
		Str("food_id", food.ID).
		Str("seller_id", food.SellerID).
		Msg("food created successfully")

	return nil
}

// Counts returns row totals of the seeded tables.
func (r *catalogRepository) Counts(ctx context.Context) (Counts, error) {
	query := `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM categories),
			(SELECT count(*) FROM foods)
	`

	var c Counts
	if err := r.pool.QueryRow(ctx, query).Scan(&c.Users, &c.Categories, &c.Foods); err != nil {
		r.logger.Error().Err(err).Msg("failed to count catalog rows")
		return Counts{}, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
