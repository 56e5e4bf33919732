package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionRule maps a commission key (usually a listing category) to the
// percentage charged by the marketplace on each tier.
type CommissionRule struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID      uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_commission_rules_store_key" json:"store_id"`
	RuleKey      string          `gorm:"column:rule_key;not null;uniqueIndex:idx_commission_rules_store_key" json:"rule_key"`
	ClassicoRate decimal.Decimal `gorm:"column:classico_rate;type:numeric(6,3);not null;default:0" json:"classico_rate"`
	PremiumRate  decimal.Decimal `gorm:"column:premium_rate;type:numeric(6,3);not null;default:0" json:"premium_rate"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
