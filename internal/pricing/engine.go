package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

const (
	// cubicDivisor converts cm³ into kilograms for dimensional weight.
	cubicDivisor = 6000.0

	solveIterations = 10
	solveTolerance  = 0.01
	solveMinDenom   = 0.0001
)

// TariffBracket is one row of the fixed-tariff table, keyed by sale value.
// A nil MaxSaleValue means the bracket is open-ended.
type TariffBracket struct {
	MinSaleValue float64
	MaxSaleValue *float64
	FlatFee      float64
	PercentFee   float64
}

// ShippingBracket is one cell of the shipping table on the
// (sale value, weight grams) plane.
type ShippingBracket struct {
	MinSaleValue float64
	MaxSaleValue *float64
	MinWeightG   float64
	MaxWeightG   *float64
	Cost         float64
}

// FeeTables bundles the marketplace rule tables a computation reads.
type FeeTables struct {
	Tariffs  []TariffBracket
	Shipping []ShippingBracket
}

// CommissionRates holds the percentage charged per tier for one rule key.
type CommissionRates struct {
	Classico float64
	Premium  float64
}

// StoreFees is the per-store fee configuration.
type StoreFees struct {
	DefaultTaxRate     float64
	FulfillmentTaxRate float64
	Commissions        map[string]CommissionRates
}

// Product carries the physical facts the engine needs for one SKU.
type Product struct {
	UnitCost float64
	WeightKG float64
	HeightCM float64
	WidthCM  float64
	LengthCM float64
}

// ComputeInput is the full request for one tier derivation.
type ComputeInput struct {
	Tier              enums.Tier
	SalePrice         float64
	Quantity          int
	CommissionRuleKey string
	Fulfillment       bool
	TaxRate           float64
	InstallmentRate   float64
	OtherRate         float64
}

// TierResult is the derived breakdown for one tier at one sale price.
type TierResult struct {
	SalePrice      float64 `json:"sale_price"`
	TotalCost      float64 `json:"total_cost"`
	FixedTariff    float64 `json:"fixed_tariff"`
	ShippingCost   float64 `json:"shipping_cost"`
	CommissionRate float64 `json:"commission_rate"`
	Commission     float64 `json:"commission"`
	TaxAmount      float64 `json:"tax_amount"`
	InstallmentFee float64 `json:"installment_fee"`
	OtherCosts     float64 `json:"other_costs"`
	NetPayout      float64 `json:"net_payout"`
	Profit         float64 `json:"profit"`
	MarginPercent  float64 `json:"margin_percent"`

	// Warnings carries non-fatal degradations (e.g. shipping bracket gap)
	// for the caller to log.
	Warnings []string `json:"warnings,omitempty"`
}

// CubicWeightKG returns the dimensional weight for the given dimensions in cm.
func CubicWeightKG(heightCM, widthCM, lengthCM float64) float64 {
	if heightCM <= 0 || widthCM <= 0 || lengthCM <= 0 {
		return 0
	}
	return heightCM * widthCM * lengthCM / cubicDivisor
}

// ChargeableWeightKG returns the greater of real and cubic weight.
func ChargeableWeightKG(p Product) float64 {
	return math.Max(p.WeightKG, CubicWeightKG(p.HeightCM, p.WidthCM, p.LengthCM))
}

// FixedTariffFor finds the bracket containing saleValue and returns
// flat + saleValue×percent/100. A gap in the table is a configuration error,
// except at sale value zero where the fee is simply zero.
func FixedTariffFor(tables FeeTables, saleValue float64) (float64, error) {
	if saleValue <= 0 {
		return 0, nil
	}
	for _, b := range tables.Tariffs {
		if saleValue < b.MinSaleValue {
			continue
		}
		if b.MaxSaleValue != nil && saleValue > *b.MaxSaleValue {
			continue
		}
		return b.FlatFee + saleValue*b.PercentFee/100, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeConfiguration,
		fmt.Sprintf("no fixed tariff bracket covers sale value %.2f", saleValue))
}

// ShippingCostFor runs the 2-D bracket lookup. Non-positive weight means no
// shipping charge. A gap degrades to zero with ok=false so the caller can warn.
func ShippingCostFor(tables FeeTables, saleValue, weightG float64) (float64, bool) {
	if weightG <= 0 {
		return 0, true
	}
	for _, b := range tables.Shipping {
		if saleValue < b.MinSaleValue {
			continue
		}
		if b.MaxSaleValue != nil && saleValue > *b.MaxSaleValue {
			continue
		}
		if weightG < b.MinWeightG {
			continue
		}
		if b.MaxWeightG != nil && weightG > *b.MaxWeightG {
			continue
		}
		return b.Cost, true
	}
	return 0, false
}

// CommissionRateFor resolves the commission percentage for the rule key and
// tier, falling back to the store default tax rate when the key is unknown.
func CommissionRateFor(fees StoreFees, ruleKey string, tier enums.Tier) float64 {
	if rates, ok := fees.Commissions[ruleKey]; ok {
		switch tier {
		case enums.TierPremium:
			return rates.Premium
		default:
			return rates.Classico
		}
	}
	return fees.DefaultTaxRate
}

// ComputeTier derives the full fee/payout/margin breakdown for one tier.
// Pure: reads only its arguments, performs no I/O, and never touches a cache.
func ComputeTier(in ComputeInput, product Product, fees StoreFees, tables FeeTables) (*TierResult, error) {
	if !in.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown tier %q", in.Tier))
	}
	if in.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if product.UnitCost < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}
	if in.SalePrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price cannot be negative")
	}

	result := &TierResult{
		SalePrice: in.SalePrice,
		TotalCost: product.UnitCost * float64(in.Quantity),
	}

	tariff, err := FixedTariffFor(tables, in.SalePrice)
	if err != nil {
		return nil, err
	}
	result.FixedTariff = tariff

	weightG := ChargeableWeightKG(product) * 1000
	shipping, ok := ShippingCostFor(tables, in.SalePrice, weightG)
	if !ok {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no shipping bracket for sale value %.2f and weight %.0fg, assuming zero", in.SalePrice, weightG))
	}
	result.ShippingCost = shipping

	rate := CommissionRateFor(fees, in.CommissionRuleKey, in.Tier)
	if in.Fulfillment {
		rate += fees.FulfillmentTaxRate
	}
	result.CommissionRate = rate
	result.Commission = in.SalePrice * rate / 100

	result.TaxAmount = in.SalePrice * in.TaxRate / 100
	result.InstallmentFee = in.SalePrice * in.InstallmentRate / 100
	result.OtherCosts = in.SalePrice * in.OtherRate / 100

	result.NetPayout = in.SalePrice -
		result.FixedTariff -
		result.Commission -
		result.ShippingCost -
		result.TaxAmount -
		result.InstallmentFee -
		result.OtherCosts

	result.Profit = result.NetPayout - result.TotalCost

	if in.SalePrice > 0 {
		result.MarginPercent = result.Profit / in.SalePrice * 100
	}

	return result, nil
}

// SolveSalePrice finds the sale price that yields the target margin for the
// input, iterating because tariff and shipping depend on the price itself.
// Fixed point: price = (totalCost + shipping + tariff) / denom with
// denom = 1 − (percentCosts + targetMargin)/100. An unreachable margin
// (denom collapses) yields zero.
func SolveSalePrice(in ComputeInput, product Product, fees StoreFees, tables FeeTables, targetMargin float64) (float64, error) {
	if !in.Tier.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown tier %q", in.Tier))
	}
	if in.Quantity <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if product.UnitCost < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}

	rate := CommissionRateFor(fees, in.CommissionRuleKey, in.Tier)
	if in.Fulfillment {
		rate += fees.FulfillmentTaxRate
	}
	percentCosts := rate + in.TaxRate + in.InstallmentRate + in.OtherRate

	denom := 1 - (percentCosts+targetMargin)/100
	if denom <= solveMinDenom {
		return 0, nil
	}

	totalCost := product.UnitCost * float64(in.Quantity)
	weightG := ChargeableWeightKG(product) * 1000

	price := totalCost * 1.5
	if price <= 0 {
		price = 50
	}

	for i := 0; i < solveIterations; i++ {
		tariff, err := FixedTariffFor(tables, price)
		if err != nil {
			return 0, err
		}
		shipping, _ := ShippingCostFor(tables, price, weightG)

		next := (totalCost + shipping + tariff) / denom
		if math.Abs(next-price) < solveTolerance {
			return next, nil
		}
		price = next
	}

	return price, nil
}

// Round2 rounds a monetary value to cents at the persistence/reporting
// boundary. The derivation itself stays in float64.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
