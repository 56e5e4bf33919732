package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

func f(v float64) *float64 { return &v }

func testTables() FeeTables {
	return FeeTables{
		Tariffs: []TariffBracket{
			{MinSaleValue: 0.01, MaxSaleValue: f(79), FlatFee: 6},
			{MinSaleValue: 79.01, MaxSaleValue: f(500), FlatFee: 10},
			{MinSaleValue: 500.01, FlatFee: 0, PercentFee: 2},
		},
		Shipping: []ShippingBracket{
			{MinSaleValue: 0.01, MaxSaleValue: f(500), MinWeightG: 1, MaxWeightG: f(1000), Cost: 15},
			{MinSaleValue: 0.01, MaxSaleValue: f(500), MinWeightG: 1000.01, MaxWeightG: f(5000), Cost: 25},
			{MinSaleValue: 500.01, MinWeightG: 1, Cost: 40},
		},
	}
}

func testFees() StoreFees {
	return StoreFees{
		DefaultTaxRate:     16,
		FulfillmentTaxRate: 3,
		Commissions: map[string]CommissionRates{
			"eletronicos": {Classico: 12, Premium: 17},
		},
	}
}

func TestComputeTier_BreakdownScenario(t *testing.T) {
	// 2 units at cost 100 sold for 250: commission 12% = 30, tariff 10,
	// shipping 15 leaves a payout of 195 against a 200 cost basis.
	result, err := ComputeTier(ComputeInput{
		Tier:              enums.TierClassico,
		SalePrice:         250,
		Quantity:          2,
		CommissionRuleKey: "eletronicos",
	}, Product{UnitCost: 100, WeightKG: 0.5}, testFees(), testTables())
	require.NoError(t, err)

	require.InDelta(t, 200, result.TotalCost, 1e-9)
	require.InDelta(t, 10, result.FixedTariff, 1e-9)
	require.InDelta(t, 30, result.Commission, 1e-9)
	require.InDelta(t, 15, result.ShippingCost, 1e-9)
	require.InDelta(t, 195, result.NetPayout, 1e-9)
	require.InDelta(t, -5, result.Profit, 1e-9)
	require.InDelta(t, -2.0, result.MarginPercent, 1e-9)
	require.Empty(t, result.Warnings)
}

func TestComputeTier_PremiumUsesPremiumRate(t *testing.T) {
	result, err := ComputeTier(ComputeInput{
		Tier:              enums.TierPremium,
		SalePrice:         250,
		Quantity:          2,
		CommissionRuleKey: "eletronicos",
	}, Product{UnitCost: 100, WeightKG: 0.5}, testFees(), testTables())
	require.NoError(t, err)
	require.InDelta(t, 250*0.17, result.Commission, 1e-9)
}

func TestComputeTier_UnknownRuleKeyFallsBackToDefaultRate(t *testing.T) {
	result, err := ComputeTier(ComputeInput{
		Tier:              enums.TierClassico,
		SalePrice:         100,
		Quantity:          1,
		CommissionRuleKey: "nonexistent",
	}, Product{UnitCost: 10, WeightKG: 0.2}, testFees(), testTables())
	require.NoError(t, err)
	require.InDelta(t, 16, result.CommissionRate, 1e-9)
}

func TestComputeTier_FulfillmentAddsRate(t *testing.T) {
	result, err := ComputeTier(ComputeInput{
		Tier:              enums.TierClassico,
		SalePrice:         100,
		Quantity:          1,
		CommissionRuleKey: "eletronicos",
		Fulfillment:       true,
	}, Product{UnitCost: 10, WeightKG: 0.2}, testFees(), testTables())
	require.NoError(t, err)
	require.InDelta(t, 15, result.CommissionRate, 1e-9)
	require.InDelta(t, 15, result.Commission, 1e-9)
}

func TestComputeTier_PercentCostsOfSalePrice(t *testing.T) {
	result, err := ComputeTier(ComputeInput{
		Tier:              enums.TierClassico,
		SalePrice:         200,
		Quantity:          1,
		CommissionRuleKey: "eletronicos",
		TaxRate:           4,
		InstallmentRate:   2,
		OtherRate:         1,
	}, Product{UnitCost: 50, WeightKG: 0.5}, testFees(), testTables())
	require.NoError(t, err)
	require.InDelta(t, 8, result.TaxAmount, 1e-9)
	require.InDelta(t, 4, result.InstallmentFee, 1e-9)
	require.InDelta(t, 2, result.OtherCosts, 1e-9)
	// 200 - 10 tariff - 24 commission - 15 shipping - 14 percent costs
	require.InDelta(t, 137, result.NetPayout, 1e-9)
}

func TestComputeTier_ZeroSalePrice(t *testing.T) {
	result, err := ComputeTier(ComputeInput{
		Tier:     enums.TierClassico,
		Quantity: 1,
	}, Product{UnitCost: 30, WeightKG: 0.5}, testFees(), testTables())
	require.NoError(t, err)
	require.Zero(t, result.FixedTariff)
	require.Zero(t, result.MarginPercent)
	require.InDelta(t, -30, result.Profit, 1e-9)
}

func TestComputeTier_TariffGapIsConfigurationError(t *testing.T) {
	tables := testTables()
	tables.Tariffs = []TariffBracket{{MinSaleValue: 0.01, MaxSaleValue: f(50), FlatFee: 6}}

	_, err := ComputeTier(ComputeInput{
		Tier:      enums.TierClassico,
		SalePrice: 120,
		Quantity:  1,
	}, Product{UnitCost: 10}, testFees(), tables)
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeConfiguration, coded.Code())
}

func TestComputeTier_ShippingGapDegradesWithWarning(t *testing.T) {
	tables := testTables()
	tables.Shipping = nil

	result, err := ComputeTier(ComputeInput{
		Tier:      enums.TierClassico,
		SalePrice: 100,
		Quantity:  1,
	}, Product{UnitCost: 10, WeightKG: 2}, testFees(), tables)
	require.NoError(t, err)
	require.Zero(t, result.ShippingCost)
	require.Len(t, result.Warnings, 1)
}

func TestComputeTier_ZeroWeightSkipsShipping(t *testing.T) {
	result, err := ComputeTier(ComputeInput{
		Tier:      enums.TierClassico,
		SalePrice: 100,
		Quantity:  1,
	}, Product{UnitCost: 10}, testFees(), testTables())
	require.NoError(t, err)
	require.Zero(t, result.ShippingCost)
	require.Empty(t, result.Warnings)
}

func TestComputeTier_InvalidInputs(t *testing.T) {
	product := Product{UnitCost: 10, WeightKG: 1}

	_, err := ComputeTier(ComputeInput{Tier: enums.Tier("gold"), SalePrice: 10, Quantity: 1}, product, testFees(), testTables())
	requireValidation(t, err)

	_, err = ComputeTier(ComputeInput{Tier: enums.TierClassico, SalePrice: 10, Quantity: 0}, product, testFees(), testTables())
	requireValidation(t, err)

	_, err = ComputeTier(ComputeInput{Tier: enums.TierClassico, SalePrice: 10, Quantity: 1}, Product{UnitCost: -1}, testFees(), testTables())
	requireValidation(t, err)

	_, err = ComputeTier(ComputeInput{Tier: enums.TierClassico, SalePrice: -5, Quantity: 1}, product, testFees(), testTables())
	requireValidation(t, err)
}

func requireValidation(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestCubicWeight(t *testing.T) {
	require.InDelta(t, 1.0, CubicWeightKG(20, 30, 10), 1e-9)
	require.Zero(t, CubicWeightKG(0, 30, 10))
}

func TestChargeableWeight_TakesLarger(t *testing.T) {
	// 20×30×10/6000 = 1kg cubic vs 0.4kg real
	p := Product{WeightKG: 0.4, HeightCM: 20, WidthCM: 30, LengthCM: 10}
	require.InDelta(t, 1.0, ChargeableWeightKG(p), 1e-9)

	p.WeightKG = 2.5
	require.InDelta(t, 2.5, ChargeableWeightKG(p), 1e-9)
}

func TestSolveSalePrice_HitsTargetMargin(t *testing.T) {
	in := ComputeInput{
		Tier:              enums.TierClassico,
		Quantity:          1,
		CommissionRuleKey: "eletronicos",
	}
	product := Product{UnitCost: 80, WeightKG: 0.5}

	price, err := SolveSalePrice(in, product, testFees(), testTables(), 20)
	require.NoError(t, err)
	require.Greater(t, price, 0.0)

	check := in
	check.SalePrice = price
	result, err := ComputeTier(check, product, testFees(), testTables())
	require.NoError(t, err)
	require.InDelta(t, 20, result.MarginPercent, 0.5)
}

func TestSolveSalePrice_UnreachableMarginYieldsZero(t *testing.T) {
	price, err := SolveSalePrice(ComputeInput{
		Tier:              enums.TierClassico,
		Quantity:          1,
		CommissionRuleKey: "eletronicos",
	}, Product{UnitCost: 80}, testFees(), testTables(), 95)
	require.NoError(t, err)
	require.Zero(t, price)
}

func TestSolveSalePrice_ZeroCostUsesFallbackSeed(t *testing.T) {
	price, err := SolveSalePrice(ComputeInput{
		Tier:              enums.TierClassico,
		Quantity:          1,
		CommissionRuleKey: "eletronicos",
	}, Product{UnitCost: 0}, testFees(), testTables(), 10)
	require.NoError(t, err)
	require.Greater(t, price, 0.0)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 10.13, Round2(10.125))
	require.Equal(t, 10.12, Round2(10.124))
	require.Equal(t, -5.0, Round2(-5.0004))
}
