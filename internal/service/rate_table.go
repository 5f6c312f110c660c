package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rate type enum constants (mirrors the request payload values).
const (
	RateTypeStandard     = "standard"
	RateTypeReduced      = "reduced"
	RateTypeSuperReduced = "super_reduced"
	RateTypeParking      = "parking"
	RateTypeZero         = "zero"
)

// ReducedRate is a labeled non-standard rate. Labels in the dataset are
// namespaced as "<kind>:<category>", e.g. "reduced:ebooks" or
// "reduced_rate:FOODSTUFFS"; both parts are split out at load time so hint
// matching never re-parses the raw string.
type ReducedRate struct {
	Rate     decimal.Decimal
	Kind     string
	Category string
	Label    string
}

// RateVersion is one dated publication of a country's rates. Versions are
// append-only: a rate change is a new version, never an edit.
type RateVersion struct {
	EffectiveFrom time.Time
	StandardRate  decimal.Decimal
	ReducedRates  []ReducedRate
	Currency      string
}

// CountryRatesSnapshot is the effective view of a country's rates on a date,
// served by the rates endpoint.
type CountryRatesSnapshot struct {
	Country      string        `json:"country"`
	StandardRate string        `json:"standard_rate"`
	ReducedRates []SnapshotRate `json:"reduced_rates"`
	Currency     string        `json:"currency"`
	ValidOn      string        `json:"valid_on"`
	Source       string        `json:"source"`
}

type SnapshotRate struct {
	Rate  string `json:"rate"`
	Label string `json:"label"`
}

// RateTable is the immutable per-country rate catalogue. It is built once at
// startup and never mutated afterwards, so concurrent lookups need no locking.
type RateTable struct {
	countries map[string][]RateVersion // sorted ascending by EffectiveFrom
	version   string
	source    string
}

// NewRateTable builds a table from per-country versions. Versions are sorted
// per country; input slices are copied so callers cannot mutate the table.
func NewRateTable(countries map[string][]RateVersion, version, source string) *RateTable {
	owned := make(map[string][]RateVersion, len(countries))
	for cc, versions := range countries {
		vs := make([]RateVersion, len(versions))
		copy(vs, versions)
		sort.Slice(vs, func(i, j int) bool { return vs[i].EffectiveFrom.Before(vs[j].EffectiveFrom) })
		owned[strings.ToUpper(cc)] = vs
	}
	return &RateTable{countries: owned, version: version, source: source}
}

// Version returns the dataset version string the table was built from.
func (t *RateTable) Version() string { return t.version }

// effectiveVersion picks the latest version with EffectiveFrom <= supplyDate.
// A future-dated version is never returned. The caller has already verified
// the jurisdiction, so an absent country means no published rates.
func (t *RateTable) effectiveVersion(country string, supplyDate time.Time) (*RateVersion, error) {
	versions := t.countries[country]
	var picked *RateVersion
	for i := range versions {
		if versions[i].EffectiveFrom.After(supplyDate) {
			break
		}
		picked = &versions[i]
	}
	if picked == nil {
		return nil, fmt.Errorf("%w: no rates for %s on %s", ErrRateNotFound, country, supplyDate.Format("2006-01-02"))
	}
	return picked, nil
}

// Lookup resolves the applicable rate (as a percentage, e.g. 19.0) for a
// country, rate type and supply date. A category hint matching a labeled
// reduced rate short-circuits and wins regardless of rateType. Without a
// hint only the standard rate resolves; reduced/super_reduced/parking/zero
// deliberately fail with ErrRateNotFound instead of silently defaulting.
func (t *RateTable) Lookup(country, rateType string, supplyDate time.Time, categoryHint string) (decimal.Decimal, error) {
	country = strings.ToUpper(country)
	if !IsEUCountry(country) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	}

	version, err := t.effectiveVersion(country, supplyDate)
	if err != nil {
		return decimal.Zero, err
	}

	if categoryHint != "" {
		for _, rr := range version.ReducedRates {
			if strings.EqualFold(rr.Label, categoryHint) || strings.EqualFold(rr.Category, categoryHint) {
				return rr.Rate, nil
			}
		}
		return decimal.Zero, fmt.Errorf("%w: no rate for category %q in %s", ErrRateNotFound, categoryHint, country)
	}

	if rateType == RateTypeStandard {
		return version.StandardRate, nil
	}

	return decimal.Zero, fmt.Errorf("%w: rate type %q needs a category hint in %s", ErrRateNotFound, rateType, country)
}

// Snapshot returns the effective rates view for a country on a date.
func (t *RateTable) Snapshot(country string, onDate time.Time) (CountryRatesSnapshot, error) {
	country = strings.ToUpper(country)
	if !IsEUCountry(country) {
		return CountryRatesSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	}

	version, err := t.effectiveVersion(country, onDate)
	if err != nil {
		return CountryRatesSnapshot{}, err
	}

	reduced := make([]SnapshotRate, 0, len(version.ReducedRates))
	for _, rr := range version.ReducedRates {
		reduced = append(reduced, SnapshotRate{Rate: rr.Rate.StringFixed(1), Label: rr.Label})
	}

	return CountryRatesSnapshot{
		Country:      country,
		StandardRate: version.StandardRate.StringFixed(1),
		ReducedRates: reduced,
		Currency:     version.Currency,
		ValidOn:      version.EffectiveFrom.Format("2006-01-02"),
		Source:       t.source,
	}, nil
}

// splitRateLabel splits a namespaced label like "reduced:ebooks" into its
// kind and category. A bare label has no category part.
func splitRateLabel(label string) (kind, category string) {
	if i := strings.IndexByte(label, ':'); i >= 0 {
		return label[:i], label[i+1:]
	}
	return label, ""
}
