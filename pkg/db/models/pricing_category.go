package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingCategory names a pricing bucket and the margin suggested when the
// caller does not supply one.
type PricingCategory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description   *string         `gorm:"column:description" json:"description,omitempty"`
	DefaultMargin decimal.Decimal `gorm:"column:default_margin;type:numeric(6,3);not null;default:0" json:"default_margin"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
