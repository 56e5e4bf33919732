package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingRule is one bracket of the marketplace shipping table, keyed on
// the (sale value, weight in grams) plane. Nil upper bounds are open-ended.
type ShippingRule struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MinSaleValue decimal.Decimal  `gorm:"column:min_sale_value;type:numeric(12,2);not null" json:"min_sale_value"`
	MaxSaleValue *decimal.Decimal `gorm:"column:max_sale_value;type:numeric(12,2)" json:"max_sale_value,omitempty"`
	MinWeightG   decimal.Decimal  `gorm:"column:min_weight_g;type:numeric(12,2);not null" json:"min_weight_g"`
	MaxWeightG   *decimal.Decimal `gorm:"column:max_weight_g;type:numeric(12,2)" json:"max_weight_g,omitempty"`
	ShippingCost decimal.Decimal  `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0" json:"shipping_cost"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
