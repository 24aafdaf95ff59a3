package catalog

import "coziyoo-seed/internal/model"

// CatalogReady is the committed catalog of a run. Only Batch.Commit produces a
// usable value, so holding one proves every food row it lists is durable.
type CatalogReady struct {
	committed  bool
	categories []model.Category
	sellerIDs  []string
	foods      map[string][]model.Food
	geo        map[string]model.GeoProfile
}

// Committed reports whether the value came from a committed batch. The zero
// value is not committed.
func (c CatalogReady) Committed() bool {
	return c.committed
}

// Categories returns the seeded categories in creation order.
func (c CatalogReady) Categories() []model.Category {
	return append([]model.Category(nil), c.categories...)
}

// SellerIDs returns the sellers that received foods, in seeding order.
func (c CatalogReady) SellerIDs() []string {
	return append([]string(nil), c.sellerIDs...)
}

// Foods returns the foods of one seller.
func (c CatalogReady) Foods(sellerID string) []model.Food {
	return append([]model.Food(nil), c.foods[sellerID]...)
}

// FoodsBySeller returns a copy of all seeded foods keyed by seller id.
func (c CatalogReady) FoodsBySeller() map[string][]model.Food {
	out := make(map[string][]model.Food, len(c.foods))
	for id, foods := range c.foods {
		out[id] = append([]model.Food(nil), foods...)
	}
	return out
}

// FoodCount returns the total number of seeded foods.
func (c CatalogReady) FoodCount() int {
	n := 0
	for _, foods := range c.foods {
		n += len(foods)
	}
	return n
}

// Geo returns the backfilled profile of a user.
func (c CatalogReady) Geo(userID string) (model.GeoProfile, bool) {
	g, ok := c.geo[userID]
	return g, ok
}
