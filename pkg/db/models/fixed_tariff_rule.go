package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FixedTariffRule is one bracket of the marketplace fixed-tariff table,
// keyed by sale-value range. A nil MaxSaleValue means the bracket is
// open-ended.
type FixedTariffRule struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MinSaleValue decimal.Decimal  `gorm:"column:min_sale_value;type:numeric(12,2);not null" json:"min_sale_value"`
	MaxSaleValue *decimal.Decimal `gorm:"column:max_sale_value;type:numeric(12,2)" json:"max_sale_value,omitempty"`
	FlatFee      decimal.Decimal  `gorm:"column:flat_fee;type:numeric(12,2);not null;default:0" json:"flat_fee"`
	PercentFee   decimal.Decimal  `gorm:"column:percent_fee;type:numeric(6,3);not null;default:0" json:"percent_fee"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
