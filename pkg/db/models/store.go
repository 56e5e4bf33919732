package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store represents one seller account on a marketplace. Fee configuration
// (tax rates plus per-category commission rules) hangs off the store.
type Store struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Marketplace        string           `gorm:"column:marketplace;not null" json:"marketplace"`
	StoreKey           string           `gorm:"column:store_key;not null;uniqueIndex:idx_stores_marketplace_key" json:"store_key"`
	Name               string           `gorm:"column:name;not null" json:"name"`
	DefaultTaxRate     decimal.Decimal  `gorm:"column:default_tax_rate;type:numeric(6,3);not null;default:0" json:"default_tax_rate"`
	FulfillmentTaxRate decimal.Decimal  `gorm:"column:fulfillment_tax_rate;type:numeric(6,3);not null;default:0" json:"fulfillment_tax_rate"`
	CommissionRules    []CommissionRule `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"commission_rules"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
