package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Campaign is a marketplace promotion window. Campaign price records in the
// warehouse reference campaigns by id.
type Campaign struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string           `gorm:"column:name;not null" json:"name"`
	StartsOn        *time.Time       `gorm:"column:starts_on;type:date" json:"starts_on,omitempty"`
	EndsOn          *time.Time       `gorm:"column:ends_on;type:date" json:"ends_on,omitempty"`
	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:numeric(6,3)" json:"discount_percent,omitempty"`
	Notes           *string          `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
