package pricing

import (
	"time"
)

// Record is one saved pricing computation in the warehouse, covering both
// tiers for a single SKU in a store.
type Record struct {
	ID                string `bigquery:"id" json:"id"`
	Marketplace       string `bigquery:"marketplace" json:"marketplace"`
	StoreID           string `bigquery:"store_id" json:"store_id"`
	SKU               string `bigquery:"sku" json:"sku"`
	ExternalListingID string `bigquery:"external_listing_id" json:"external_listing_id,omitempty"`
	CatalogListingID  string `bigquery:"catalog_listing_id" json:"catalog_listing_id,omitempty"`
	Title             string `bigquery:"title" json:"title"`
	Category          string `bigquery:"category" json:"category"`

	Quantity          int64   `bigquery:"quantity" json:"quantity"`
	UnitCost          float64 `bigquery:"unit_cost" json:"unit_cost"`
	TotalCost         float64 `bigquery:"total_cost" json:"total_cost"`
	TaxRate           float64 `bigquery:"tax_rate" json:"tax_rate"`
	InstallmentRate   float64 `bigquery:"installment_rate" json:"installment_rate"`
	OtherRate         float64 `bigquery:"other_rate" json:"other_rate"`
	CommissionRuleKey string  `bigquery:"commission_rule_key" json:"commission_rule_key"`
	Fulfillment       bool    `bigquery:"fulfillment" json:"fulfillment"`
	BuyBox            bool    `bigquery:"buy_box" json:"buy_box"`

	ClassicoPrice    float64 `bigquery:"classico_price" json:"classico_price"`
	ClassicoShipping float64 `bigquery:"classico_shipping" json:"classico_shipping"`
	ClassicoTariff   float64 `bigquery:"classico_tariff" json:"classico_tariff"`
	ClassicoPayout   float64 `bigquery:"classico_payout" json:"classico_payout"`
	ClassicoProfit   float64 `bigquery:"classico_profit" json:"classico_profit"`
	ClassicoMargin   float64 `bigquery:"classico_margin" json:"classico_margin"`

	PremiumPrice    float64 `bigquery:"premium_price" json:"premium_price"`
	PremiumShipping float64 `bigquery:"premium_shipping" json:"premium_shipping"`
	PremiumTariff   float64 `bigquery:"premium_tariff" json:"premium_tariff"`
	PremiumPayout   float64 `bigquery:"premium_payout" json:"premium_payout"`
	PremiumProfit   float64 `bigquery:"premium_profit" json:"premium_profit"`
	PremiumMargin   float64 `bigquery:"premium_margin" json:"premium_margin"`

	CreatedBy string    `bigquery:"created_by" json:"created_by"`
	UpdatedBy string    `bigquery:"updated_by" json:"updated_by"`
	CreatedAt time.Time `bigquery:"created_at" json:"created_at"`
	UpdatedAt time.Time `bigquery:"updated_at" json:"updated_at"`
}
