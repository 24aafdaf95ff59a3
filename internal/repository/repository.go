package repository

import (
	"context"

	"coziyoo-seed/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProfileUpdate is the set of user columns backfilled by a seed run.
type ProfileUpdate struct {
	FullName    string
	CountryCode string
	Language    string
	Geo         model.GeoProfile
}

// Counts holds row totals of the seeded tables.
type Counts struct {
	Users      int64
	Categories int64
	Foods      int64
}

// CatalogRepository defines the catalog write operations of a seed run. All
// writes take the caller's transaction so a run commits or rolls back as one.
type CatalogRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// EnsureGeoColumns adds the users latitude/longitude columns and their
	// range checks when missing. It is safe to run repeatedly.
	EnsureGeoColumns(ctx context.Context, tx pgx.Tx) error

	// CreateCategory inserts an active category and sets its ID.
	CreateCategory(ctx context.Context, tx pgx.Tx, category *model.Category) error

	// UpdateUserProfile backfills profile and location columns of an
	// existing user. It fails when no row matches userID.
	UpdateUserProfile(ctx context.Context, tx pgx.Tx, userID string, profile ProfileUpdate) error

	// CreateFood inserts a food and sets its ID from the stored row.
	CreateFood(ctx context.Context, tx pgx.Tx, food *model.Food) error

	// Counts returns row totals of users, categories and foods.
	Counts(ctx context.Context) (Counts, error)
}
