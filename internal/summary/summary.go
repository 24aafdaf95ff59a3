// Package summary builds the run summary artifact and persists it to the
// local filesystem and, optionally, S3.
package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"coziyoo-seed/internal/catalog"
	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/model"
)

// Input is everything a successful run produced.
type Input struct {
	RunID       string
	Seed        identity.RunSeed
	BaseURL     string
	GeneratedAt time.Time
	Buyers      []model.UserAccount
	Sellers     []model.UserAccount
	Catalog     catalog.CatalogReady
	Orders      []model.PlacedOrder
}

// Build assembles the run summary. It has no side effects.
func Build(in Input) model.RunSummary {
	foods := in.Catalog.FoodsBySeller()
	if foods == nil {
		foods = map[string][]model.Food{}
	}
	categories := in.Catalog.Categories()
	if categories == nil {
		categories = []model.Category{}
	}
	orders := append([]model.PlacedOrder{}, in.Orders...)

	return model.RunSummary{
		RunID:       in.RunID,
		SeedID:      in.Seed.String(),
		BaseURL:     in.BaseURL,
		GeneratedAt: in.GeneratedAt.UTC(),
		Counts: model.Counts{
			Buyers:     len(in.Buyers),
			Sellers:    len(in.Sellers),
			Categories: len(categories),
			Foods:      in.Catalog.FoodCount(),
			Orders:     len(orders),
		},
		Buyers:        records(in.Buyers, in.Catalog),
		Sellers:       records(in.Sellers, in.Catalog),
		Categories:    categories,
		FoodsBySeller: foods,
		Orders:        orders,
	}
}

func records(accounts []model.UserAccount, ready catalog.CatalogReady) []model.AccountRecord {
	out := make([]model.AccountRecord, 0, len(accounts))
	for _, acc := range accounts {
		rec := model.AccountRecord{
			Email:       acc.Email,
			UserID:      acc.UserID,
			DisplayName: acc.DisplayName,
			FullName:    acc.FullName,
		}
		if geo, ok := ready.Geo(acc.UserID); ok {
			rec.GPS = &geo
		}
		out = append(out, rec)
	}
	return out
}

// Marshal encodes a summary as indented JSON, keeping non-ASCII text as is.
func Marshal(s model.RunSummary) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode run summary: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a summary document.
func Unmarshal(data []byte) (model.RunSummary, error) {
	var s model.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to decode run summary: %w", err)
	}
	if s.SeedID == "" {
		return model.RunSummary{}, fmt.Errorf("run summary has no seedId")
	}
	return s, nil
}
