package model

import "time"

// Counts holds per-entity totals of a run.
type Counts struct {
	Buyers     int `json:"buyers"`
	Sellers    int `json:"sellers"`
	Categories int `json:"categories"`
	Foods      int `json:"foods"`
	Orders     int `json:"orders"`
}

// AccountRecord is a created account as written to the summary.
type AccountRecord struct {
	Email       string      `json:"email"`
	UserID      string      `json:"userId"`
	DisplayName string      `json:"displayName"`
	FullName    string      `json:"fullName"`
	GPS         *GeoProfile `json:"gps"`
}

// RunSummary is the artifact written once after a successful run.
type RunSummary struct {
	RunID         string            `json:"runId"`
	SeedID        string            `json:"seedId"`
	BaseURL       string            `json:"baseUrl"`
	GeneratedAt   time.Time         `json:"generatedAt"`
	Counts        Counts            `json:"counts"`
	Buyers        []AccountRecord   `json:"buyersCreated"`
	Sellers       []AccountRecord   `json:"sellersCreated"`
	Categories    []Category        `json:"categoriesCreated"`
	FoodsBySeller map[string][]Food `json:"foodsBySeller"`
	Orders        []PlacedOrder     `json:"ordersCreated"`
}
