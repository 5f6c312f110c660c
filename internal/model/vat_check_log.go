package model

import (
	"time"

	"github.com/google/uuid"
)

// VatCheckLog records one consultation of the VIES registry. Writes are
// best-effort: a failed insert never fails the check itself.
type VatCheckLog struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CountryCode    string    `gorm:"type:varchar(2);not null;index" json:"country_code"`
	VatNumber      string    `gorm:"type:varchar(20);not null;index" json:"vat_number"`
	Valid          bool      `gorm:"not null" json:"valid"`
	Status         string    `gorm:"type:varchar(20);not null" json:"status"` // validated, unavailable
	Name           string    `gorm:"type:text" json:"name"`
	Address        string    `gorm:"type:text" json:"address"`
	RequestDateRaw string    `gorm:"type:varchar(40)" json:"request_date_raw"` // VIES free-text date, kept verbatim
	CheckedAt      time.Time `gorm:"not null" json:"checked_at"`
	CreatedAt      time.Time `json:"created_at"`
}
