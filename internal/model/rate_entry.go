package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateEntry is one dated publication of a country's VAT rates, mirrored from
// the static dataset at startup. Entries are append-only: a rate change is a
// new row with a later effective_from, existing rows are never updated.
type RateEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Country       string          `gorm:"type:varchar(2);not null;uniqueIndex:idx_rate_entries_country_from" json:"country"`
	EffectiveFrom time.Time       `gorm:"type:date;not null;uniqueIndex:idx_rate_entries_country_from" json:"effective_from"`
	StandardRate  decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"standard_rate"` // percentage, e.g. 19.0
	Currency      string          `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Source        string          `gorm:"type:text" json:"source"`
	ReducedRates  []ReducedRateRow `gorm:"foreignKey:RateEntryID;constraint:OnDelete:CASCADE" json:"reduced_rates"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReducedRateRow is a labeled reduced rate belonging to a RateEntry.
// The label keeps the raw namespaced form from the dataset ("reduced:ebooks").
type ReducedRateRow struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RateEntryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"rate_entry_id"`
	Rate        decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`
	Label       string          `gorm:"type:varchar(100);not null" json:"label"`
}
