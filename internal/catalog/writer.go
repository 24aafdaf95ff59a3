// Package catalog seeds categories and foods and backfills user profiles
// inside one database transaction per run.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/model"
	"coziyoo-seed/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	sellerGeoOffset = 100
	geoJitter       = 0.03
	servingSize     = "1 porsiyon"
)

// ErrBatchClosed is returned by operations on a committed or rolled back batch.
var ErrBatchClosed = errors.New("catalog batch already closed")

// Options holds the values written alongside seeded rows.
type Options struct {
	ImageBaseURL string
	CountryCode  string
	Language     string
}

// Plan describes one catalog seeding pass.
type Plan struct {
	Categories     int
	Buyers         []model.UserAccount
	Sellers        model.SellersReady
	FoodsPerSeller int
}

// Writer creates catalog batches.
type Writer struct {
	repo   repository.CatalogRepository
	opts   Options
	logger zerolog.Logger
}

// NewWriter creates a new catalog writer.
func NewWriter(repo repository.CatalogRepository, opts Options, logger zerolog.Logger) *Writer {
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = "https://images.coziyoo.local"
	}
	if opts.CountryCode == "" {
		opts.CountryCode = "TR"
	}
	if opts.Language == "" {
		opts.Language = "tr"
	}
	return &Writer{
		repo:   repo,
		opts:   opts,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Batch is one open catalog transaction. Any failed operation rolls the
// whole batch back and closes it.
type Batch struct {
	w          *Writer
	tx         pgx.Tx
	stream     *identity.Stream
	closed     bool
	categories []model.Category
	sellerIDs  []string
	foods      map[string][]model.Food
	geo        map[string]model.GeoProfile
}

// Begin opens the batch transaction. Random values are drawn from stream.
func (w *Writer) Begin(ctx context.Context, stream *identity.Stream) (*Batch, error) {
	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		return nil, &model.CatalogWriteError{Op: "begin", Index: -1, Err: err}
	}
	return &Batch{
		w:      w,
		tx:     tx,
		stream: stream,
		foods:  make(map[string][]model.Food),
		geo:    make(map[string]model.GeoProfile),
	}, nil
}

// Seed runs a full pass: geo columns, categories, buyer and seller profile
// backfill, foods, then commit.
func (w *Writer) Seed(ctx context.Context, stream *identity.Stream, plan Plan) (CatalogReady, error) {
	b, err := w.Begin(ctx, stream)
	if err != nil {
		return CatalogReady{}, err
	}
	defer b.Rollback(ctx)

	if err := b.EnsureGeoColumns(ctx); err != nil {
		return CatalogReady{}, err
	}
	categories, err := b.SeedCategories(ctx, plan.Categories)
	if err != nil {
		return CatalogReady{}, err
	}
	if _, err := b.BackfillGeoProfiles(ctx, plan.Buyers, model.RoleBuyer); err != nil {
		return CatalogReady{}, err
	}
	if _, err := b.BackfillGeoProfiles(ctx, plan.Sellers.Accounts(), model.RoleSeller); err != nil {
		return CatalogReady{}, err
	}
	if _, err := b.SeedFoods(ctx, plan.Sellers, categories, plan.FoodsPerSeller); err != nil {
		return CatalogReady{}, err
	}
	return b.Commit(ctx)
}

// EnsureGeoColumns makes sure users can hold range-checked coordinates.
func (b *Batch) EnsureGeoColumns(ctx context.Context) error {
	if b.closed {
		return ErrBatchClosed
	}
	if err := b.w.repo.EnsureGeoColumns(ctx, b.tx); err != nil {
		return b.fail(ctx, "ensure geo columns", -1, err)
	}
	return nil
}

// SeedCategories inserts count categories, cycling through the templates.
func (b *Batch) SeedCategories(ctx context.Context, count int) ([]model.Category, error) {
	if b.closed {
		return nil, ErrBatchClosed
	}

	created := make([]model.Category, 0, count)
	for idx := 0; idx < count; idx++ {
		local, canonical := CategoryName(idx)
		category := model.Category{
			NameLocal:     local,
			NameCanonical: canonical,
			SortOrder:     idx,
		}
		if err := b.w.repo.CreateCategory(ctx, b.tx, &category); err != nil {
			return nil, b.fail(ctx, "insert category", idx, err)
		}
		created = append(created, category)
	}

	b.categories = append(b.categories, created...)
	b.w.logger.Info().Int("count", len(created)).Msg("categories seeded")
	return append([]model.Category(nil), created...), nil
}

// BackfillGeoProfiles writes city coordinates and a profile image onto the
// existing user row of every account.
func (b *Batch) BackfillGeoProfiles(ctx context.Context, accounts []model.UserAccount, role model.Role) (map[string]model.GeoProfile, error) {
	if b.closed {
		return nil, ErrBatchClosed
	}
	op := fmt.Sprintf("backfill %s profile", role)
	if !role.Valid() {
		return nil, b.fail(ctx, op, -1, fmt.Errorf("unknown role %q", role))
	}

	offset := 0
	if role == model.RoleSeller {
		offset = sellerGeoOffset
	}

	out := make(map[string]model.GeoProfile, len(accounts))
	for i, acc := range accounts {
		if acc.UserID == "" {
			return nil, b.fail(ctx, op, i, fmt.Errorf("account %s has no user id", acc.Email))
		}

		geo := b.geoProfile(i+offset, role, acc.FullName)
		update := repository.ProfileUpdate{
			FullName:    acc.FullName,
			CountryCode: b.w.opts.CountryCode,
			Language:    b.w.opts.Language,
			Geo:         geo,
		}
		if err := b.w.repo.UpdateUserProfile(ctx, b.tx, acc.UserID, update); err != nil {
			return nil, b.fail(ctx, op, i, err)
		}
		out[acc.UserID] = geo
	}

	maps.Copy(b.geo, out)
	b.w.logger.Info().Str("role", string(role)).Int("count", len(out)).Msg("profiles backfilled")
	return out, nil
}

// SeedFoods inserts perSeller foods for every confirmed seller. Slot f of
// seller s goes into categories[f % len(categories)].
func (b *Batch) SeedFoods(ctx context.Context, sellers model.SellersReady, categories []model.Category, perSeller int) (map[string][]model.Food, error) {
	if b.closed {
		return nil, ErrBatchClosed
	}
	if perSeller > 0 && sellers.Len() > 0 && len(categories) == 0 {
		return nil, b.fail(ctx, "insert food", 0, errors.New("no categories to assign foods to"))
	}

	out := make(map[string][]model.Food, sellers.Len())
	index := 0
	for s, seller := range sellers.Accounts() {
		foods := make([]model.Food, 0, perSeller)
		for f := 0; f < perSeller; f++ {
			category := categories[f%len(categories)]
			food := b.buildFood(seller.UserID, category, s, f)
			if err := b.w.repo.CreateFood(ctx, b.tx, &food); err != nil {
				return nil, b.fail(ctx, "insert food", index, err)
			}
			foods = append(foods, food)
			index++
		}
		out[seller.UserID] = foods
		b.sellerIDs = append(b.sellerIDs, seller.UserID)
	}

	maps.Copy(b.foods, out)
	b.w.logger.Info().Int("sellers", sellers.Len()).Int("foods", index).Msg("foods seeded")
	return out, nil
}

// Commit commits the batch and seals its output.
func (b *Batch) Commit(ctx context.Context) (CatalogReady, error) {
	if b.closed {
		return CatalogReady{}, ErrBatchClosed
	}
	b.closed = true
	if err := b.tx.Commit(ctx); err != nil {
		return CatalogReady{}, &model.CatalogWriteError{Op: "commit", Index: -1, Err: err}
	}

	b.w.logger.Info().
		Int("categories", len(b.categories)).
		Int("sellers", len(b.sellerIDs)).
		Msg("catalog batch committed")

	return CatalogReady{
		committed:  true,
		categories: append([]model.Category(nil), b.categories...),
		sellerIDs:  append([]string(nil), b.sellerIDs...),
		foods:      maps.Clone(b.foods),
		geo:        maps.Clone(b.geo),
	}, nil
}

// Rollback aborts the batch. It is a no-op on a closed batch.
func (b *Batch) Rollback(ctx context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		b.w.logger.Error().Err(err).Msg("failed to roll back catalog batch")
		return fmt.Errorf("failed to roll back catalog batch: %w", err)
	}
	b.w.logger.Warn().Msg("catalog batch rolled back")
	return nil
}

func (b *Batch) fail(ctx context.Context, op string, index int, err error) error {
	_ = b.Rollback(ctx)
	return &model.CatalogWriteError{Op: op, Index: index, Err: err}
}

func (b *Batch) geoProfile(position int, role model.Role, fullName string) model.GeoProfile {
	city := CityFor(position)
	lat := clamp(identity.Round(city.Latitude+b.stream.Jitter(geoJitter), 6), -90, 90)
	lon := clamp(identity.Round(city.Longitude+b.stream.Jitter(geoJitter), 6), -180, 180)
	return model.GeoProfile{
		City:            city.Name,
		Latitude:        lat,
		Longitude:       lon,
		ProfileImageURL: identity.ProfileImageURL(b.w.opts.ImageBaseURL, role, fullName),
	}
}

func (b *Batch) buildFood(sellerID string, category model.Category, sellerSlot, foodSlot int) model.Food {
	tmpl := FoodTemplateFor(category.SortOrder, sellerSlot, foodSlot)

	price := money(b.stream.Uniform(70, 280))
	deliveryFee := money(b.stream.Uniform(10, 35))
	currentStock := b.stream.IntRange(12, 80)
	dailyStock := currentStock + b.stream.IntRange(5, 50)
	prepMinutes := b.stream.IntRange(15, 60)
	distance := money(b.stream.Uniform(3, 18))
	minimumOrder := money(b.stream.Uniform(120, 280))

	return model.Food{
		SellerID:               sellerID,
		CategoryID:             category.ID,
		Name:                   fmt.Sprintf("%s (%d-%d)", tmpl.Name, sellerSlot+1, foodSlot+1),
		CardSummary:            tmpl.CardSummary,
		Description:            tmpl.Description,
		Recipe:                 tmpl.Recipe,
		CountryCode:            b.w.opts.CountryCode,
		Price:                  price,
		ImageURL:               identity.FoodImageURL(b.w.opts.ImageBaseURL, tmpl.Name, sellerSlot, foodSlot),
		Ingredients:            append([]string{}, tmpl.Ingredients...),
		Allergens:              append([]string{}, tmpl.Allergens...),
		PreparationTimeMinutes: prepMinutes,
		ServingSize:            servingSize,
		DeliveryFee:            deliveryFee,
		MaxDeliveryDistanceKm:  distance,
		DeliveryOptions: model.DeliveryOptions{
			Delivery:           true,
			Pickup:             true,
			MinimumOrderAmount: minimumOrder,
		},
		CurrentStock: currentStock,
		DailyStock:   dailyStock,
		IsAvailable:  true,
		IsActive:     true,
	}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
