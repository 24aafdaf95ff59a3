// Package coordinator drives a seeding run through its stages: register
// identities, seed the catalog, place orders and write the summary.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coziyoo-seed/internal/catalog"
	"coziyoo-seed/internal/gateway"
	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/model"
	"coziyoo-seed/internal/ordering"
	"coziyoo-seed/internal/summary"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stage names reported in a *model.StageError.
const (
	StagePreflight     = "preflight"
	StageRegisterBuyer = "register buyers"
	StageRegisterSell  = "register sellers"
	StageConfirm       = "confirm sellers"
	StageCatalog       = "seed catalog"
	StageOrders        = "place orders"
	StageSummary       = "write summary"
)

// ErrAlreadyRun is returned when Run is called on a coordinator that has left Idle.
var ErrAlreadyRun = errors.New("coordinator has already run")

// Accounts registers users and checks admin credentials.
type Accounts interface {
	LoginAdmin(ctx context.Context, email, password string) (string, error)
	RegisterUser(ctx context.Context, req gateway.RegistrationRequest) (model.UserAccount, error)
}

// CatalogSeeder writes the catalog in one batch.
type CatalogSeeder interface {
	Seed(ctx context.Context, stream *identity.Stream, plan catalog.Plan) (catalog.CatalogReady, error)
}

// OrderPlacer submits the orders of every buyer.
type OrderPlacer interface {
	PlaceAll(ctx context.Context, stream *identity.Stream, buyers []model.UserAccount, ready catalog.CatalogReady, ordersPerBuyer int) ([]model.PlacedOrder, error)
}

// Counts is the size of a run.
type Counts struct {
	Buyers         int
	Sellers        int
	Categories     int
	FoodsPerSeller int
	OrdersPerBuyer int
}

// Options configures a Coordinator.
type Options struct {
	Counts         Counts
	AdminEmail     string
	AdminPassword  string
	BuyerPassword  string
	SellerPassword string
	EmailDomain    string
	BaseURL        string

	// SummaryName maps the run seed to the name passed to the summary store.
	SummaryName func(seed identity.RunSeed) string
	Now         func() time.Time
	NewRunID    func() string
}

// Result is the outcome of a successful run.
type Result struct {
	Summary  model.RunSummary
	Location string
}

// Coordinator runs one seeding run. It is not safe for concurrent use.
type Coordinator struct {
	accounts Accounts
	catalog  CatalogSeeder
	orders   OrderPlacer
	store    summary.Store
	opts     Options
	logger   zerolog.Logger

	state State
}

// New creates a coordinator in the Idle state.
func New(accounts Accounts, seeder CatalogSeeder, orders OrderPlacer, store summary.Store, opts Options, logger zerolog.Logger) *Coordinator {
	if opts.SummaryName == nil {
		opts.SummaryName = func(seed identity.RunSeed) string { return seed.String() + ".json" }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return uuid.NewString() }
	}

	return &Coordinator{
		accounts: accounts,
		catalog:  seeder,
		orders:   orders,
		store:    store,
		opts:     opts,
		logger:   logger.With().Str("component", "coordinator").Logger(),
		state:    StateIdle,
	}
}

// State returns the last state reached.
func (c *Coordinator) State() State {
	return c.state
}

// Run executes every stage for seed and writes the summary. On failure the
// returned error is a *model.StageError and no summary is written.
func (c *Coordinator) Run(ctx context.Context, seed identity.RunSeed) (Result, error) {
	if c.state != StateIdle {
		return Result{}, ErrAlreadyRun
	}

	n := c.opts.Counts
	c.logger.Info().
		Str("seed", seed.String()).
		Int("buyers", n.Buyers).
		Int("sellers", n.Sellers).
		Int("categories", n.Categories).
		Int("foods_per_seller", n.FoodsPerSeller).
		Int("orders_per_buyer", n.OrdersPerBuyer).
		Msg("seed run started")

	stream := identity.NewStream(seed)
	gen := identity.NewGenerator(seed, c.opts.EmailDomain)
	run := &progress{}

	if _, err := c.accounts.LoginAdmin(ctx, c.opts.AdminEmail, c.opts.AdminPassword); err != nil {
		return Result{}, run.fail(StagePreflight, -1, err)
	}

	buyers, err := c.register(ctx, gen, model.RoleBuyer, n.Buyers, c.opts.BuyerPassword, run)
	if err != nil {
		return Result{}, err
	}
	sellerAccounts, err := c.register(ctx, gen, model.RoleSeller, n.Sellers, c.opts.SellerPassword, run)
	if err != nil {
		return Result{}, err
	}
	sellers, err := model.ConfirmSellers(sellerAccounts)
	if err != nil {
		return Result{}, run.fail(StageConfirm, -1, err)
	}
	c.advance(StateIdentitiesCreated)

	ready, err := c.catalog.Seed(ctx, stream, catalog.Plan{
		Categories:     n.Categories,
		Buyers:         buyers,
		Sellers:        sellers,
		FoodsPerSeller: n.FoodsPerSeller,
	})
	if err != nil {
		return Result{}, run.fail(StageCatalog, catalogIndex(err), err)
	}
	c.advance(StateCatalogSeeded)

	placed, err := c.orders.PlaceAll(ctx, stream, buyers, ready, n.OrdersPerBuyer)
	run.orders = len(placed)
	if err != nil {
		return Result{}, run.fail(StageOrders, orderIndex(err), err)
	}
	c.advance(StateOrdersPlaced)

	s := summary.Build(summary.Input{
		RunID:       c.opts.NewRunID(),
		Seed:        seed,
		BaseURL:     c.opts.BaseURL,
		GeneratedAt: c.opts.Now(),
		Buyers:      buyers,
		Sellers:     sellerAccounts,
		Catalog:     ready,
		Orders:      placed,
	})
	location, err := c.store.Save(ctx, c.opts.SummaryName(seed), s)
	if err != nil {
		return Result{}, run.fail(StageSummary, -1, err)
	}
	c.advance(StateSummaryWritten)

	c.logger.Info().
		Str("seed", seed.String()).
		Str("summary", location).
		Int("orders", len(placed)).
		Msg("seed run completed")

	return Result{Summary: s, Location: location}, nil
}

func (c *Coordinator) register(ctx context.Context, gen *identity.Generator, role model.Role, count int, password string, run *progress) ([]model.UserAccount, error) {
	stage := StageRegisterBuyer
	if role == model.RoleSeller {
		stage = StageRegisterSell
	}

	accounts := make([]model.UserAccount, 0, count)
	for i := range count {
		id := gen.Identity(role, i)
		acc, err := c.accounts.RegisterUser(ctx, gateway.RegistrationRequest{
			Email:       id.Email,
			Password:    password,
			DisplayName: id.DisplayName,
			FullName:    id.FullName,
			Role:        role,
		})
		if err != nil {
			return nil, run.fail(stage, i, err)
		}
		run.users++
		accounts = append(accounts, acc)

		c.logger.Info().
			Str("email", acc.Email).
			Str("user_id", acc.UserID).
			Msgf("%s %d/%d registered", role, i+1, count)
	}
	return accounts, nil
}

func (c *Coordinator) advance(to State) {
	if to != c.state+1 {
		panic(fmt.Sprintf("coordinator: invalid transition %s -> %s", c.state, to))
	}
	c.state = to
	c.logger.Debug().Str("state", to.String()).Msg("state reached")
}

// progress counts the remote side effects that a failure leaves behind.
type progress struct {
	users  int
	orders int
}

func (p *progress) fail(stage string, index int, err error) error {
	return &model.StageError{
		Stage:           stage,
		Index:           index,
		Err:             err,
		RegisteredUsers: p.users,
		PlacedOrders:    p.orders,
	}
}

func catalogIndex(err error) int {
	var cwe *model.CatalogWriteError
	if errors.As(err, &cwe) {
		return cwe.Index
	}
	return -1
}

func orderIndex(err error) int {
	var pe *ordering.PlacementError
	if errors.As(err, &pe) {
		return pe.Index
	}
	return -1
}
