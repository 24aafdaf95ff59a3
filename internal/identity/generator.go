package identity

import (
	"fmt"
	"strings"

	"coziyoo-seed/internal/model"
)

// Identity is the deterministic naming of one account.
type Identity struct {
	Handle      string
	Email       string
	DisplayName string
	FullName    string
}

// Generator derives identities for one run seed.
type Generator struct {
	seed        RunSeed
	emailDomain string
}

// NewGenerator creates a generator for the seed. Emails use emailDomain.
func NewGenerator(seed RunSeed, emailDomain string) *Generator {
	return &Generator{
		seed:        seed,
		emailDomain: emailDomain,
	}
}

// Seed returns the run seed.
func (g *Generator) Seed() RunSeed {
	return g.seed
}

// Identity returns the naming for the account at index (zero based) of role.
func (g *Generator) Identity(role model.Role, index int) Identity {
	pool := NamePool(role)
	fullName := pool[index%len(pool)]
	handle := Slugify(fullName)

	return Identity{
		Handle:      handle,
		Email:       fmt.Sprintf("%s.%s.%d@%s", handle, g.seed, index+1, g.emailDomain),
		DisplayName: fmt.Sprintf("%s_%s_%d", handle, g.seed.Compact(), index+1),
		FullName:    fullName,
	}
}

// IdempotencyKey returns the key of order orderIndex of buyer buyerIndex (both
// zero based). The 1-based suffix "-b-o" makes keys unique within a run.
func IdempotencyKey(seed RunSeed, buyerIndex, orderIndex int) string {
	return fmt.Sprintf("api-seed-order-%s-%d-%d", seed, buyerIndex+1, orderIndex+1)
}

// ProfileImageURL returns the stable profile image location of a user.
func ProfileImageURL(baseURL string, role model.Role, fullName string) string {
	return fmt.Sprintf("%s/%ss/%s.jpg", strings.TrimRight(baseURL, "/"), role, Slugify(fullName))
}

// FoodImageURL returns the stable image location of a seeded dish.
func FoodImageURL(baseURL, dishName string, sellerSlot, foodSlot int) string {
	return fmt.Sprintf("%s/foods/%s-%d-%d.jpg", strings.TrimRight(baseURL, "/"), Slugify(dishName), sellerSlot+1, foodSlot+1)
}
