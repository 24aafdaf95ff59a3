// Package repositorytest provides an in-memory CatalogRepository whose
// transactions stage writes until commit.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coziyoo-seed/internal/model"
	"coziyoo-seed/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errUnsupported = errors.New("not supported by the in-memory repository")

// Memory is an in-memory repository.CatalogRepository.
type Memory struct {
	mu         sync.Mutex
	users      map[string]*repository.ProfileUpdate
	categories []model.Category
	foods      []model.Food
	geoColumns bool

	foodInserts int
	failFoodAt  int
	commits     int
	rollbacks   int
}

var _ repository.CatalogRepository = (*Memory)(nil)

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*repository.ProfileUpdate)}
}

// AddUser registers an existing user row.
func (m *Memory) AddUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = nil
}

// FailFoodInsert makes the n-th food insert (1-based, counted across
// transactions) fail.
func (m *Memory) FailFoodInsert(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFoodAt = n
}

// Profile returns the committed profile of a user.
func (m *Memory) Profile(id string) (repository.ProfileUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.users[id]
	if !ok || p == nil {
		return repository.ProfileUpdate{}, false
	}
	return *p, true
}

// Categories returns the committed categories.
func (m *Memory) Categories() []model.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Category(nil), m.categories...)
}

// Foods returns the committed foods.
func (m *Memory) Foods() []model.Food {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Food(nil), m.foods...)
}

// GeoColumns reports whether the geo columns were committed.
func (m *Memory) GeoColumns() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.geoColumns
}

// Commits returns the number of committed transactions.
func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Rollbacks returns the number of rolled back transactions.
func (m *Memory) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

// BeginTx starts a staged transaction.
func (m *Memory) BeginTx(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{m: m, profiles: make(map[string]repository.ProfileUpdate)}, nil
}

func (m *Memory) txOf(tx pgx.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.m != m {
		return nil, fmt.Errorf("transaction does not belong to this repository")
	}
	if t.closed {
		return nil, pgx.ErrTxClosed
	}
	return t, nil
}

// EnsureGeoColumns stages the geo column migration.
func (m *Memory) EnsureGeoColumns(ctx context.Context, tx pgx.Tx) error {
	t, err := m.txOf(tx)
	if err != nil {
		return err
	}
	t.geoColumns = true
	return nil
}

// CreateCategory stages a category insert.
func (m *Memory) CreateCategory(ctx context.Context, tx pgx.Tx, category *model.Category) error {
	t, err := m.txOf(tx)
	if err != nil {
		return err
	}
	category.ID = uuid.NewString()
	t.categories = append(t.categories, *category)
	return nil
}

// UpdateUserProfile stages a profile update of an existing user.
func (m *Memory) UpdateUserProfile(ctx context.Context, tx pgx.Tx, userID string, profile repository.ProfileUpdate) error {
	t, err := m.txOf(tx)
	if err != nil {
		return err
	}
	if !t.geoColumns && !m.GeoColumns() {
		return fmt.Errorf("column \"latitude\" of relation \"users\" does not exist")
	}
	if err := profile.Geo.Validate(); err != nil {
		return fmt.Errorf("invalid geo profile for user %s: %w", userID, err)
	}

	m.mu.Lock()
	_, exists := m.users[userID]
	m.mu.Unlock()
	if !exists {
		return fmt.Errorf("failed to update user %s: 0 rows affected", userID)
	}
	t.profiles[userID] = profile
	return nil
}

// CreateFood stages a food insert, checking the seller and category exist.
func (m *Memory) CreateFood(ctx context.Context, tx pgx.Tx, food *model.Food) error {
	t, err := m.txOf(tx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.foodInserts++
	insert := m.foodInserts
	fail := m.failFoodAt != 0 && insert == m.failFoodAt
	_, sellerExists := m.users[food.SellerID]
	m.mu.Unlock()

	if fail {
		return fmt.Errorf("injected failure on food insert %d", insert)
	}
	if !sellerExists {
		return fmt.Errorf("foods_seller_id_fkey violated: seller %s does not exist", food.SellerID)
	}
	if !t.hasCategory(food.CategoryID) {
		return fmt.Errorf("foods_category_id_fkey violated: category %s does not exist", food.CategoryID)
	}

	food.ID = uuid.NewString()
	food.Price = food.Price.Round(2)
	t.foods = append(t.foods, *food)
	return nil
}

// Counts returns committed row totals.
func (m *Memory) Counts(ctx context.Context) (repository.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return repository.Counts{
		Users:      int64(len(m.users)),
		Categories: int64(len(m.categories)),
		Foods:      int64(len(m.foods)),
	}, nil
}

// Tx is a staged in-memory transaction. Only Commit and Rollback are usable.
type Tx struct {
	m          *Memory
	closed     bool
	geoColumns bool
	categories []model.Category
	foods      []model.Food
	profiles   map[string]repository.ProfileUpdate
}

func (t *Tx) hasCategory(id string) bool {
	for _, c := range t.categories {
		if c.ID == id {
			return true
		}
	}
	for _, c := range t.m.Categories() {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Commit applies the staged writes.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geoColumns = m.geoColumns || t.geoColumns
	m.categories = append(m.categories, t.categories...)
	m.foods = append(m.foods, t.foods...)
	for id, p := range t.profiles {
		p := p
		m.users[id] = &p
	}
	m.commits++
	return nil
}

// Rollback discards the staged writes. Rolling back a closed transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.m.mu.Lock()
	t.m.rollbacks++
	t.m.mu.Unlock()
	return nil
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, errUnsupported }
func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errUnsupported
}
func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errUnsupported
}
func (t *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errUnsupported
}
func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errUnsupported
}
func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *Tx) Conn() *pgx.Conn                                               { return nil }
