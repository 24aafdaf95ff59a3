// Package ordering places the seeded buyers' orders against the committed
// catalog, one request at a time.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coziyoo-seed/internal/catalog"
	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/model"

	"github.com/rs/zerolog"
)

const (
	maxItemsPerOrder = 3
	maxQuantity      = 3
	defaultDistrict  = "Merkez"
	defaultPostcode  = "34000"
)

// ErrNoSellerFoods is returned when orders are requested but no seller has foods.
var ErrNoSellerFoods = errors.New("no seller foods created; cannot create orders")

// Submitter submits one order on behalf of a buyer.
type Submitter interface {
	SubmitOrder(ctx context.Context, buyerToken string, req model.OrderRequest) (model.OrderConfirmation, error)
}

// Options configures an Engine.
type Options struct {
	Seed        identity.RunSeed
	Interval    time.Duration
	CountryCode string
	// Sleep waits between orders. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// PlacementError reports the order that could not be placed.
type PlacementError struct {
	BuyerIndex int
	OrderIndex int
	// Index is the zero-based position of the order in the whole run.
	Index int
	Err   error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("order %d of buyer %d: %v", e.OrderIndex+1, e.BuyerIndex+1, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// Engine places orders sequentially.
type Engine struct {
	submitter Submitter
	opts      Options
	logger    zerolog.Logger
}

// NewEngine creates a new order placement engine.
func NewEngine(submitter Submitter, opts Options, logger zerolog.Logger) *Engine {
	if opts.CountryCode == "" {
		opts.CountryCode = "TR"
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Engine{
		submitter: submitter,
		opts:      opts,
		logger:    logger.With().Str("component", "ordering").Logger(),
	}
}

// PlaceAll places ordersPerBuyer orders for every buyer. On failure the
// orders placed so far are returned with a *PlacementError.
func (e *Engine) PlaceAll(ctx context.Context, stream *identity.Stream, buyers []model.UserAccount, ready catalog.CatalogReady, ordersPerBuyer int) ([]model.PlacedOrder, error) {
	if ordersPerBuyer <= 0 || len(buyers) == 0 {
		return nil, nil
	}
	if !ready.Committed() {
		return nil, errors.New("catalog is not committed")
	}

	sellerIDs := make([]string, 0)
	for _, id := range ready.SellerIDs() {
		if len(ready.Foods(id)) > 0 {
			sellerIDs = append(sellerIDs, id)
		}
	}
	if len(sellerIDs) == 0 {
		return nil, ErrNoSellerFoods
	}

	total := len(buyers) * ordersPerBuyer
	placed := make([]model.PlacedOrder, 0, total)

	for b, buyer := range buyers {
		rotation := sellerRotation(stream, sellerIDs, ordersPerBuyer)
		geo, hasGeo := ready.Geo(buyer.UserID)

		for o := 0; o < ordersPerBuyer; o++ {
			index := b*ordersPerBuyer + o
			if index > 0 && e.opts.Interval > 0 {
				if err := e.opts.Sleep(ctx, e.opts.Interval); err != nil {
					return placed, &PlacementError{BuyerIndex: b, OrderIndex: o, Index: index, Err: err}
				}
			}

			sellerID := rotation[o]
			req := model.OrderRequest{
				SellerID:        sellerID,
				Items:           pickItems(stream, ready.Foods(sellerID)),
				DeliveryAddress: e.address(geo, hasGeo, o),
				IdempotencyKey:  identity.IdempotencyKey(e.opts.Seed, b, o),
			}

			conf, err := e.submitter.SubmitOrder(ctx, buyer.AccessToken, req)
			if err != nil {
				return placed, &PlacementError{BuyerIndex: b, OrderIndex: o, Index: index, Err: err}
			}

			placed = append(placed, model.PlacedOrder{
				OrderID:        conf.OrderID,
				BuyerID:        buyer.UserID,
				SellerID:       sellerID,
				Items:          req.Items,
				IdempotencyKey: req.IdempotencyKey,
			})

			e.logger.Info().
				Str("order_id", conf.OrderID).
				Str("buyer_id", buyer.UserID).
				Str("seller_id", sellerID).
				Msgf("order %d/%d placed", index+1, total)
		}
	}

	return placed, nil
}

// sellerRotation samples distinct sellers up to n, then fills the rest with
// random picks so one buyer's orders spread across sellers.
func sellerRotation(stream *identity.Stream, sellerIDs []string, n int) []string {
	rotation := make([]string, 0, n)
	for _, i := range stream.Sample(len(sellerIDs), min(len(sellerIDs), n)) {
		rotation = append(rotation, sellerIDs[i])
	}
	for len(rotation) < n {
		rotation = append(rotation, sellerIDs[stream.Choice(len(sellerIDs))])
	}
	return rotation
}

// pickItems chooses 1 to 3 distinct foods with quantities 1 to 3.
func pickItems(stream *identity.Stream, foods []model.Food) []model.OrderItem {
	count := min(len(foods), stream.IntRange(1, maxItemsPerOrder))
	items := make([]model.OrderItem, 0, count)
	for _, i := range stream.Sample(len(foods), count) {
		items = append(items, model.OrderItem{
			FoodID:   foods[i].ID,
			Quantity: stream.IntRange(1, maxQuantity),
		})
	}
	return items
}

func (e *Engine) address(geo model.GeoProfile, hasGeo bool, orderIndex int) model.DeliveryAddress {
	addr := model.DeliveryAddress{
		Country:    e.opts.CountryCode,
		City:       catalog.DefaultCity,
		District:   defaultDistrict,
		Line:       fmt.Sprintf("Deneme Sokak No:%d", orderIndex+1),
		PostalCode: defaultPostcode,
	}
	if hasGeo {
		lat, lon := geo.Latitude, geo.Longitude
		if geo.City != "" {
			addr.City = geo.City
		}
		addr.Latitude = &lat
		addr.Longitude = &lon
	}
	return addr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
