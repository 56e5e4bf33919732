package catalog

import (
	"time"
)

// ProductFact is one product row in the warehouse: the physical facts the
// pricing engine needs, keyed by SKU.
type ProductFact struct {
	SKU       string    `bigquery:"sku" json:"sku"`
	Title     string    `bigquery:"title" json:"title"`
	UnitCost  float64   `bigquery:"unit_cost" json:"unit_cost"`
	WeightKG  float64   `bigquery:"weight_kg" json:"weight_kg"`
	HeightCM  float64   `bigquery:"height_cm" json:"height_cm"`
	WidthCM   float64   `bigquery:"width_cm" json:"width_cm"`
	LengthCM  float64   `bigquery:"length_cm" json:"length_cm"`
	UpdatedBy string    `bigquery:"updated_by" json:"updated_by"`
	UpdatedAt time.Time `bigquery:"updated_at" json:"updated_at"`
}

// CubicWeightKG returns the dimensional weight in kilograms.
func (p ProductFact) CubicWeightKG() float64 {
	if p.HeightCM <= 0 || p.WidthCM <= 0 || p.LengthCM <= 0 {
		return 0
	}
	return p.HeightCM * p.WidthCM * p.LengthCM / 6000.0
}

// ChargeableWeightKG returns the greater of real and cubic weight.
func (p ProductFact) ChargeableWeightKG() float64 {
	if cubic := p.CubicWeightKG(); cubic > p.WeightKG {
		return cubic
	}
	return p.WeightKG
}
