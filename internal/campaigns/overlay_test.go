package campaigns

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

func f(v float64) *float64 { return &v }

func baseRecord() *pricing.Record {
	return &pricing.Record{
		ID:             "rec-1",
		SKU:            "SKU-001",
		TotalCost:      120,
		ClassicoPrice:  250,
		ClassicoPayout: 195,
		PremiumPrice:   260,
		PremiumPayout:  190,
	}
}

func TestApply_PercentDiscount(t *testing.T) {
	// 20% off a 250 base price lands the promo at 200.
	overlay, err := Apply(baseRecord(), map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 20},
	})
	require.NoError(t, err)
	require.NotNil(t, overlay.Classico)
	require.Nil(t, overlay.Premium)

	require.Equal(t, 200.0, overlay.Classico.Price)
	// payout keeps the base 195/250 ratio → 156
	require.Equal(t, 156.0, overlay.Classico.Payout)
	require.Equal(t, 36.0, overlay.Classico.Profit)
	require.Equal(t, 18.0, overlay.Classico.Margin)
}

func TestApply_FixedDiscountAndIndependentTiers(t *testing.T) {
	overlay, err := Apply(baseRecord(), map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypeFixed, Value: 50},
		enums.TierPremium:  {Type: enums.DiscountTypePercent, Value: 10},
	})
	require.NoError(t, err)
	require.Equal(t, 200.0, overlay.Classico.Price)
	require.Equal(t, 234.0, overlay.Premium.Price)
}

func TestApply_ClampedAtZero(t *testing.T) {
	overlay, err := Apply(baseRecord(), map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypeFixed, Value: 500},
	})
	require.NoError(t, err)
	require.Zero(t, overlay.Classico.Price)
	require.Zero(t, overlay.Classico.Payout)
	require.Zero(t, overlay.Classico.Margin)
	require.Equal(t, -120.0, overlay.Classico.Profit)
}

func TestApply_FloorAndCeiling(t *testing.T) {
	overlay, err := Apply(baseRecord(), map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 50, Floor: f(180)},
	})
	require.NoError(t, err)
	require.Equal(t, 180.0, overlay.Classico.Price)

	overlay, err = Apply(baseRecord(), map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 5, Ceiling: f(230)},
	})
	require.NoError(t, err)
	require.Equal(t, 230.0, overlay.Classico.Price)
}

func TestApply_Idempotent(t *testing.T) {
	specs := map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 20},
		enums.TierPremium:  {Type: enums.DiscountTypeFixed, Value: 15},
	}

	first, err := Apply(baseRecord(), specs)
	require.NoError(t, err)
	second, err := Apply(baseRecord(), specs)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestApply_Validation(t *testing.T) {
	cases := map[string]map[enums.Tier]DiscountSpec{
		"unknown tier":     {enums.Tier("gold"): {Type: enums.DiscountTypePercent, Value: 10}},
		"unknown type":     {enums.TierClassico: {Type: enums.DiscountType("bogus"), Value: 10}},
		"negative value":   {enums.TierClassico: {Type: enums.DiscountTypeFixed, Value: -1}},
		"percent over 100": {enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 120}},
		"floor above ceil": {enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 10, Floor: f(100), Ceiling: f(50)}},
	}

	for name, specs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Apply(baseRecord(), specs)
			require.Error(t, err)
			coded := pkgerrors.As(err)
			require.NotNil(t, coded)
			require.Equal(t, pkgerrors.CodeValidation, coded.Code())
		})
	}

	_, err := Apply(nil, map[enums.Tier]DiscountSpec{enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 10}})
	require.Error(t, err)

	_, err = Apply(baseRecord(), nil)
	require.Error(t, err)
}

func TestApply_ZeroBasePrice(t *testing.T) {
	base := baseRecord()
	base.ClassicoPrice = 0
	base.ClassicoPayout = 0

	overlay, err := Apply(base, map[enums.Tier]DiscountSpec{
		enums.TierClassico: {Type: enums.DiscountTypePercent, Value: 20},
	})
	require.NoError(t, err)
	require.Zero(t, overlay.Classico.Price)
	require.Zero(t, overlay.Classico.Margin)
}
