package campaigns

import (
	"time"
)

// PriceRecord is one promotional price row in the warehouse, layered on a
// saved pricing record for the duration of a campaign.
type PriceRecord struct {
	ID         string `bigquery:"id" json:"id"`
	RecordID   string `bigquery:"record_id" json:"record_id"`
	CampaignID string `bigquery:"campaign_id" json:"campaign_id"`
	Channel    string `bigquery:"channel" json:"channel"`

	ClassicoDiscountType  string  `bigquery:"classico_discount_type" json:"classico_discount_type,omitempty"`
	ClassicoDiscountValue float64 `bigquery:"classico_discount_value" json:"classico_discount_value"`
	ClassicoPrice         float64 `bigquery:"classico_price" json:"classico_price"`
	ClassicoPayout        float64 `bigquery:"classico_payout" json:"classico_payout"`
	ClassicoProfit        float64 `bigquery:"classico_profit" json:"classico_profit"`
	ClassicoMargin        float64 `bigquery:"classico_margin" json:"classico_margin"`

	PremiumDiscountType  string  `bigquery:"premium_discount_type" json:"premium_discount_type,omitempty"`
	PremiumDiscountValue float64 `bigquery:"premium_discount_value" json:"premium_discount_value"`
	PremiumPrice         float64 `bigquery:"premium_price" json:"premium_price"`
	PremiumPayout        float64 `bigquery:"premium_payout" json:"premium_payout"`
	PremiumProfit        float64 `bigquery:"premium_profit" json:"premium_profit"`
	PremiumMargin        float64 `bigquery:"premium_margin" json:"premium_margin"`

	StartsAt      time.Time `bigquery:"starts_at" json:"starts_at"`
	EndsAt        time.Time `bigquery:"ends_at" json:"ends_at"`
	ReservedStock int64     `bigquery:"reserved_stock" json:"reserved_stock"`
	Notes         string    `bigquery:"notes" json:"notes,omitempty"`

	CreatedBy string    `bigquery:"created_by" json:"created_by"`
	UpdatedBy string    `bigquery:"updated_by" json:"updated_by"`
	CreatedAt time.Time `bigquery:"created_at" json:"created_at"`
	UpdatedAt time.Time `bigquery:"updated_at" json:"updated_at"`
}
