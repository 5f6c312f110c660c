package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"vatify/internal/model"
	"vatify/internal/repository"

	"github.com/shopspring/decimal"
)

// RateDataset is the on-disk shape of the trusted rate dataset
// (data/vat_rates.json). One country may appear multiple times with
// different valid_from dates.
type RateDataset struct {
	Version string             `json:"version"`
	Source  string             `json:"source"`
	Rates   []RateDatasetEntry `json:"rates"`
}

type RateDatasetEntry struct {
	Country      string               `json:"country"`
	Currency     string               `json:"currency"`
	StandardRate decimal.Decimal      `json:"standard_rate"`
	ReducedRates []RateDatasetReduced `json:"reduced_rates"`
	ValidFrom    *string              `json:"valid_from"` // YYYY-MM-DD, nullable
}

type RateDatasetReduced struct {
	Rate  decimal.Decimal `json:"rate"`
	Label string          `json:"label"`
}

// LoadRateDataset reads and parses the dataset file.
func LoadRateDataset(path string) (*RateDataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate dataset %s: %w", path, err)
	}

	var ds RateDataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse rate dataset %s: %w", path, err)
	}
	if len(ds.Rates) == 0 {
		return nil, fmt.Errorf("rate dataset %s contains no rates", path)
	}
	return &ds, nil
}

// BuildRateTable validates dataset entries and assembles the immutable
// in-memory table. Entries with a null valid_from fall back to the dataset
// version date. Non-EU countries and negative rates are rejected.
func BuildRateTable(ds *RateDataset) (*RateTable, error) {
	fallback, err := time.Parse("2006-01-02", ds.Version)
	if err != nil {
		fallback = time.Time{}
	}

	countries := make(map[string][]RateVersion)
	for _, entry := range ds.Rates {
		if err := ValidateCountryCode(entry.Country); err != nil {
			return nil, fmt.Errorf("dataset entry %q: %w", entry.Country, err)
		}
		if !IsEUCountry(entry.Country) {
			log.Printf("Skipping non-EU dataset entry: %s", entry.Country)
			continue
		}
		if entry.StandardRate.IsNegative() {
			return nil, fmt.Errorf("dataset entry %s: negative standard rate", entry.Country)
		}

		effectiveFrom := fallback
		if entry.ValidFrom != nil && *entry.ValidFrom != "" {
			effectiveFrom, err = time.Parse("2006-01-02", *entry.ValidFrom)
			if err != nil {
				return nil, fmt.Errorf("dataset entry %s: invalid valid_from %q: %w", entry.Country, *entry.ValidFrom, err)
			}
		} else if fallback.IsZero() {
			return nil, fmt.Errorf("dataset entry %s: no valid_from and no parseable dataset version date", entry.Country)
		}

		reduced := make([]ReducedRate, 0, len(entry.ReducedRates))
		for _, rr := range entry.ReducedRates {
			if rr.Rate.IsNegative() {
				return nil, fmt.Errorf("dataset entry %s: negative reduced rate %q", entry.Country, rr.Label)
			}
			kind, category := splitRateLabel(rr.Label)
			reduced = append(reduced, ReducedRate{Rate: rr.Rate, Kind: kind, Category: category, Label: rr.Label})
		}

		currency := entry.Currency
		if currency == "" {
			currency = "EUR"
		}

		countries[entry.Country] = append(countries[entry.Country], RateVersion{
			EffectiveFrom: effectiveFrom,
			StandardRate:  entry.StandardRate,
			ReducedRates:  reduced,
			Currency:      currency,
		})
	}

	if len(countries) == 0 {
		return nil, fmt.Errorf("rate dataset contains no usable EU entries")
	}

	return NewRateTable(countries, ds.Version, ds.Source), nil
}

// SyncRateDataset mirrors dataset entries into Postgres. Published
// (country, effective_from) pairs are never updated; only missing ones are
// appended, so the stored history stays immutable.
func SyncRateDataset(ctx context.Context, repo repository.RateEntryRepository, table *RateTable) error {
	created := 0
	for country, versions := range table.countries {
		for _, v := range versions {
			exists, err := repo.Exists(ctx, country, v.EffectiveFrom)
			if err != nil {
				return fmt.Errorf("failed to check rate entry %s/%s: %w", country, v.EffectiveFrom.Format("2006-01-02"), err)
			}
			if exists {
				continue
			}

			entry := model.RateEntry{
				Country:       country,
				EffectiveFrom: v.EffectiveFrom,
				StandardRate:  v.StandardRate,
				Currency:      v.Currency,
				Source:        table.source,
			}
			for _, rr := range v.ReducedRates {
				entry.ReducedRates = append(entry.ReducedRates, model.ReducedRateRow{Rate: rr.Rate, Label: rr.Label})
			}
			if err := repo.Create(ctx, &entry); err != nil {
				return fmt.Errorf("failed to store rate entry %s/%s: %w", country, v.EffectiveFrom.Format("2006-01-02"), err)
			}
			created++
		}
	}
	if created > 0 {
		log.Printf("Rate dataset sync: stored %d new entries (version %s)", created, table.version)
	}
	return nil
}
