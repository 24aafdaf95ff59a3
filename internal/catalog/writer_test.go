package catalog

import (
	"context"
	"errors"
	"testing"

	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/model"
	"coziyoo-seed/internal/repository"
	"coziyoo-seed/internal/repository/repositorytest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogRepository is a mock implementation of CatalogRepository.
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogRepository) EnsureGeoColumns(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockCatalogRepository) CreateCategory(ctx context.Context, tx pgx.Tx, category *model.Category) error {
	args := m.Called(ctx, tx, category)
	if args.Error(0) == nil {
		category.ID = "cat-" + category.NameCanonical
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateUserProfile(ctx context.Context, tx pgx.Tx, userID string, profile repository.ProfileUpdate) error {
	return m.Called(ctx, tx, userID, profile).Error(0)
}

func (m *MockCatalogRepository) CreateFood(ctx context.Context, tx pgx.Tx, food *model.Food) error {
	args := m.Called(ctx, tx, food)
	if args.Error(0) == nil {
		food.ID = "food-" + food.Name
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) Counts(ctx context.Context) (repository.Counts, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.Counts), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockTx) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

const testSeed = identity.RunSeed("20240101000000-ab12cd")

func sellers(t *testing.T, ids ...string) model.SellersReady {
	t.Helper()
	accounts := make([]model.UserAccount, len(ids))
	for i, id := range ids {
		accounts[i] = model.UserAccount{
			Email:    id + "@coziyoo.local",
			UserID:   id,
			FullName: identity.NamePool(model.RoleSeller)[i%10],
			Role:     model.RoleSeller,
		}
	}
	ready, err := model.ConfirmSellers(accounts)
	require.NoError(t, err)
	return ready
}

func newMemoryWriter(users ...string) (*Writer, *repositorytest.Memory) {
	repo := repositorytest.NewMemory()
	for _, id := range users {
		repo.AddUser(id)
	}
	return NewWriter(repo, Options{}, zerolog.Nop()), repo
}

func TestWriter_Seed_OneSellerTwoFoods(t *testing.T) {
	ctx := context.Background()
	writer, repo := newMemoryWriter("buyer-1", "seller-1")
	buyers := []model.UserAccount{{Email: "b@x", UserID: "buyer-1", FullName: "Ahmet Yılmaz", Role: model.RoleBuyer}}

	ready, err := writer.Seed(ctx, identity.NewStream(testSeed), Plan{
		Categories:     2,
		Buyers:         buyers,
		Sellers:        sellers(t, "seller-1"),
		FoodsPerSeller: 2,
	})

	require.NoError(t, err)
	require.True(t, ready.Committed())

	foods := ready.Foods("seller-1")
	require.Len(t, foods, 2)
	categories := ready.Categories()
	require.Len(t, categories, 2)

	assert.Equal(t, "Mercimek Çorbası (1-1)", foods[0].Name)
	assert.Equal(t, categories[0].ID, foods[0].CategoryID)
	assert.Equal(t, "Tavuk Sote (1-2)", foods[1].Name)
	assert.Equal(t, categories[1].ID, foods[1].CategoryID)
	assert.Equal(t, "https://images.coziyoo.local/foods/mercimek_corbasi-1-1.jpg", foods[0].ImageURL)

	for _, food := range foods {
		assert.Equal(t, "seller-1", food.SellerID)
		assert.True(t, food.Price.GreaterThanOrEqual(decimal.NewFromInt(70)))
		assert.True(t, food.Price.LessThanOrEqual(decimal.NewFromInt(280)))
		assert.GreaterOrEqual(t, food.CurrentStock, 12)
		assert.LessOrEqual(t, food.CurrentStock, 80)
		assert.GreaterOrEqual(t, food.DailyStock-food.CurrentStock, 5)
		assert.LessOrEqual(t, food.DailyStock-food.CurrentStock, 50)
		assert.GreaterOrEqual(t, food.PreparationTimeMinutes, 15)
		assert.LessOrEqual(t, food.PreparationTimeMinutes, 60)
		assert.Equal(t, "1 porsiyon", food.ServingSize)
		assert.Equal(t, "TR", food.CountryCode)
	}

	geo, ok := ready.Geo("buyer-1")
	require.True(t, ok)
	assert.Equal(t, "İstanbul", geo.City)
	assert.Equal(t, "https://images.coziyoo.local/buyers/ahmet_yilmaz.jpg", geo.ProfileImageURL)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Categories)
	assert.Equal(t, int64(2), counts.Foods)
	assert.True(t, repo.GeoColumns())
	assert.Equal(t, 1, repo.Commits())
}

func TestWriter_Seed_Deterministic(t *testing.T) {
	run := func() CatalogReady {
		writer, _ := newMemoryWriter("seller-1", "seller-2")
		ready, err := writer.Seed(context.Background(), identity.NewStream(testSeed), Plan{
			Categories:     3,
			Sellers:        sellers(t, "seller-1", "seller-2"),
			FoodsPerSeller: 3,
		})
		require.NoError(t, err)
		return ready
	}

	first, second := run(), run()

	for _, id := range []string{"seller-1", "seller-2"} {
		a, b := first.Foods(id), second.Foods(id)
		require.Len(t, a, 3)
		for i := range a {
			assert.Equal(t, a[i].Name, b[i].Name)
			assert.True(t, a[i].Price.Equal(b[i].Price))
			assert.Equal(t, a[i].CurrentStock, b[i].CurrentStock)
		}
	}
	g1, _ := first.Geo("seller-2")
	g2, _ := second.Geo("seller-2")
	assert.Equal(t, g1, g2)
}

func TestWriter_Seed_SellersInSameCategoryGetDistinctDishes(t *testing.T) {
	writer, _ := newMemoryWriter("seller-1", "seller-2")

	ready, err := writer.Seed(context.Background(), identity.NewStream(testSeed), Plan{
		Categories:     1,
		Sellers:        sellers(t, "seller-1", "seller-2"),
		FoodsPerSeller: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "Mercimek Çorbası (1-1)", ready.Foods("seller-1")[0].Name)
	assert.Equal(t, "Ezogelin Çorbası (2-1)", ready.Foods("seller-2")[0].Name)
}

func TestBatch_SeedFoods_SecondInsertFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCatalogRepository)
	mockTx := new(MockTx)
	writer := NewWriter(mockRepo, Options{}, zerolog.Nop())

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("CreateCategory", ctx, mockTx, mock.AnythingOfType("*model.Category")).Return(nil)
	mockRepo.On("CreateFood", ctx, mockTx, mock.AnythingOfType("*model.Food")).Return(nil).Once()
	mockRepo.On("CreateFood", ctx, mockTx, mock.AnythingOfType("*model.Food")).Return(errors.New("check constraint violated")).Once()
	mockTx.On("Rollback", mock.Anything).Return(nil)

	batch, err := writer.Begin(ctx, identity.NewStream(testSeed))
	require.NoError(t, err)

	categories, err := batch.SeedCategories(ctx, 2)
	require.NoError(t, err)

	_, err = batch.SeedFoods(ctx, sellers(t, "seller-1"), categories, 2)

	var writeErr *model.CatalogWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "insert food", writeErr.Op)
	assert.Equal(t, 1, writeErr.Index)
	assert.Contains(t, err.Error(), "check constraint violated")

	_, err = batch.Commit(ctx)
	assert.ErrorIs(t, err, ErrBatchClosed)

	mockRepo.AssertExpectations(t)
	mockTx.AssertCalled(t, "Rollback", mock.Anything)
	mockTx.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestWriter_Seed_SecondFoodFailureLeavesNothingCommitted(t *testing.T) {
	ctx := context.Background()
	writer, repo := newMemoryWriter("seller-1")
	repo.FailFoodInsert(2)

	ready, err := writer.Seed(ctx, identity.NewStream(testSeed), Plan{
		Categories:     2,
		Sellers:        sellers(t, "seller-1"),
		FoodsPerSeller: 2,
	})

	require.Error(t, err)
	assert.False(t, ready.Committed())
	assert.Equal(t, model.ErrCodeCatalogWriteFailed, model.ErrorCode(err))

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Categories)
	assert.Zero(t, counts.Foods)
	assert.Equal(t, 1, repo.Rollbacks())
	assert.Zero(t, repo.Commits())
}

func TestWriter_Seed_UnknownSellerRejected(t *testing.T) {
	writer, repo := newMemoryWriter()

	_, err := writer.Seed(context.Background(), identity.NewStream(testSeed), Plan{
		Categories:     1,
		Sellers:        sellers(t, "ghost"),
		FoodsPerSeller: 1,
	})

	var writeErr *model.CatalogWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "backfill seller profile", writeErr.Op)
	assert.Empty(t, repo.Foods())
}

func TestBatch_BackfillGeoProfiles_Ranges(t *testing.T) {
	ctx := context.Background()
	ids := make([]string, 25)
	accounts := make([]model.UserAccount, 25)
	for i := range ids {
		ids[i] = "user-" + string(rune('a'+i))
		accounts[i] = model.UserAccount{Email: ids[i], UserID: ids[i], FullName: "Ali Kaya", Role: model.RoleBuyer}
	}
	writer, repo := newMemoryWriter(ids...)

	batch, err := writer.Begin(ctx, identity.NewStream(testSeed))
	require.NoError(t, err)
	require.NoError(t, batch.EnsureGeoColumns(ctx))

	for _, role := range []model.Role{model.RoleBuyer, model.RoleSeller} {
		geo, err := batch.BackfillGeoProfiles(ctx, accounts, role)
		require.NoError(t, err)
		require.Len(t, geo, len(accounts))

		offset := 0
		if role == model.RoleSeller {
			offset = sellerGeoOffset
		}
		for i, acc := range accounts {
			g := geo[acc.UserID]
			city := CityFor(i + offset)
			assert.Equal(t, city.Name, g.City)
			assert.NoError(t, g.Validate())
			assert.InDelta(t, city.Latitude, g.Latitude, geoJitter+1e-6)
			assert.InDelta(t, city.Longitude, g.Longitude, geoJitter+1e-6)
			assert.Equal(t, g.Latitude, identity.Round(g.Latitude, 6))
		}
	}

	_, err = batch.Commit(ctx)
	require.NoError(t, err)

	profile, ok := repo.Profile("user-a")
	require.True(t, ok)
	assert.Equal(t, "TR", profile.CountryCode)
	assert.Equal(t, "tr", profile.Language)
	assert.Equal(t, "https://images.coziyoo.local/sellers/ali_kaya.jpg", profile.Geo.ProfileImageURL)
}

func TestBatch_ClosedOperations(t *testing.T) {
	ctx := context.Background()
	writer, _ := newMemoryWriter()

	batch, err := writer.Begin(ctx, identity.NewStream(testSeed))
	require.NoError(t, err)
	require.NoError(t, batch.Rollback(ctx))
	require.NoError(t, batch.Rollback(ctx))

	assert.ErrorIs(t, batch.EnsureGeoColumns(ctx), ErrBatchClosed)
	_, err = batch.SeedCategories(ctx, 1)
	assert.ErrorIs(t, err, ErrBatchClosed)
	_, err = batch.Commit(ctx)
	assert.ErrorIs(t, err, ErrBatchClosed)
}

func TestWriter_Begin_Failure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCatalogRepository)
	mockRepo.On("BeginTx", ctx).Return(nil, errors.New("connection refused"))

	_, err := NewWriter(mockRepo, Options{}, zerolog.Nop()).Begin(ctx, identity.NewStream(testSeed))

	var writeErr *model.CatalogWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "begin", writeErr.Op)
}

func TestCategoryName(t *testing.T) {
	tests := []struct {
		idx       int
		local     string
		canonical string
	}{
		{0, "Çorbalar", "Soups"},
		{4, "İçecekler", "Beverages"},
		{5, "Çorbalar 2", "Soups 2"},
		{6, "Ana Yemekler 3", "Main Dishes 3"},
	}

	for _, tt := range tests {
		local, canonical := CategoryName(tt.idx)
		assert.Equal(t, tt.local, local)
		assert.Equal(t, tt.canonical, canonical)
	}
}

func TestFoodTemplateFor_SuffixedCategoriesReuseTemplates(t *testing.T) {
	assert.Equal(t, FoodTemplateFor(0, 0, 0).Name, FoodTemplateFor(5, 0, 0).Name)
	assert.Equal(t, "Revani", FoodTemplateFor(3, 1, 0).Name)
}
