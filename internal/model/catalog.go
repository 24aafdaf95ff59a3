package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category represents a food category row.
type Category struct {
	ID            string `json:"id" db:"id"`
	NameLocal     string `json:"nameTr" db:"name_tr"`
	NameCanonical string `json:"nameEn" db:"name_en"`
	SortOrder     int    `json:"sortOrder" db:"sort_order"`
}

// DeliveryOptions is stored as JSON on the food row.
type DeliveryOptions struct {
	Delivery           bool            `json:"delivery"`
	Pickup             bool            `json:"pickup"`
	MinimumOrderAmount decimal.Decimal `json:"minimumOrderAmount"`
}

// Food represents a dish offered by a seller.
type Food struct {
	ID                     string          `json:"id" db:"id"`
	SellerID               string          `json:"sellerId" db:"seller_id"`
	CategoryID             string          `json:"categoryId" db:"category_id"`
	Name                   string          `json:"name" db:"name"`
	CardSummary            string          `json:"cardSummary" db:"card_summary"`
	Description            string          `json:"description" db:"description"`
	Recipe                 string          `json:"recipe" db:"recipe"`
	CountryCode            string          `json:"countryCode" db:"country_code"`
	Price                  decimal.Decimal `json:"price" db:"price"`
	ImageURL               string          `json:"imageUrl" db:"image_url"`
	Ingredients            []string        `json:"ingredients" db:"ingredients_json"`
	Allergens              []string        `json:"allergens" db:"allergens_json"`
	PreparationTimeMinutes int             `json:"preparationTimeMinutes" db:"preparation_time_minutes"`
	ServingSize            string          `json:"servingSize" db:"serving_size"`
	DeliveryFee            decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	MaxDeliveryDistanceKm  decimal.Decimal `json:"maxDeliveryDistanceKm" db:"max_delivery_distance_km"`
	DeliveryOptions        DeliveryOptions `json:"deliveryOptions" db:"delivery_options_json"`
	CurrentStock           int             `json:"currentStock" db:"current_stock"`
	DailyStock             int             `json:"dailyStock" db:"daily_stock"`
	IsAvailable            bool            `json:"isAvailable" db:"is_available"`
	IsActive               bool            `json:"isActive" db:"is_active"`
}

// GeoProfile holds the location and profile image backfilled onto a user row.
type GeoProfile struct {
	City            string  `json:"city"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ProfileImageURL string  `json:"profileImageUrl"`
}

// Validate checks the coordinate ranges accepted by the users table.
func (g GeoProfile) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", g.Longitude)
	}
	return nil
}
