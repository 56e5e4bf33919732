package simulation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

func snapshotTwoRecords() []Row {
	return []Row{
		{
			RecordID:          "rec-1",
			SKU:               "SKU-001",
			SalePriceClassico: 150,
			SalePricePremium:  160,
			UnitCost:          100,
			Quantity:          1,
			PayoutClassico:    120,
			PayoutPremium:     125,
		},
		{
			RecordID:          "rec-2",
			SKU:               "SKU-002",
			SalePriceClassico: 150,
			SalePricePremium:  160,
			UnitCost:          100,
			Quantity:          1,
			PayoutClassico:    120,
			PayoutPremium:     125,
		},
	}
}

func TestRun_PercentIncreaseOnCost(t *testing.T) {
	// +10% on two records with unit cost 100 lifts total cost 200 → 220.
	result, err := Run(snapshotTwoRecords(), Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationPercentIncrease,
		Magnitude: 10,
	})
	require.NoError(t, err)

	require.Equal(t, 200.0, result.Before.Cost)
	require.Equal(t, 220.0, result.After.Cost)
	require.Equal(t, result.Before.Revenue, result.After.Revenue)
	require.Equal(t, result.Before.Profit-20, result.After.Profit)
	require.Equal(t, 2, result.After.ItemCount)
	require.Empty(t, result.Warnings)
}

func TestRun_ValueOperations(t *testing.T) {
	snapshot := snapshotTwoRecords()

	decrease, err := Run(snapshot, Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationValueDecrease,
		Magnitude: 30,
	})
	require.NoError(t, err)
	require.Equal(t, 140.0, decrease.After.Cost)

	increase, err := Run(snapshot, Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationValueIncrease,
		Magnitude: 5,
	})
	require.NoError(t, err)
	require.Equal(t, 210.0, increase.After.Cost)
}

func TestRun_MutatedValueClampedAtZero(t *testing.T) {
	result, err := Run(snapshotTwoRecords(), Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationValueDecrease,
		Magnitude: 500,
	})
	require.NoError(t, err)
	require.Zero(t, result.After.Cost)
}

func TestRun_OrderIndependent(t *testing.T) {
	action := Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationPercentDecrease,
		Magnitude: 15,
	}

	forward, err := Run(snapshotTwoRecords(), action)
	require.NoError(t, err)

	reversed := snapshotTwoRecords()
	reversed[0], reversed[1] = reversed[1], reversed[0]
	backward, err := Run(reversed, action)
	require.NoError(t, err)

	require.Equal(t, forward.Before, backward.Before)
	require.Equal(t, forward.After, backward.After)
}

func TestRun_EmptySnapshot(t *testing.T) {
	_, err := Run(nil, Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationPercentIncrease,
		Magnitude: 10,
	})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeEmptySelection, coded.Code())
}

func TestRun_UnsupportedFieldIsWarningNoop(t *testing.T) {
	result, err := Run(snapshotTwoRecords(), Action{
		Field:     enums.SimField("title"),
		Operation: enums.SimOperationPercentIncrease,
		Magnitude: 10,
	})
	require.NoError(t, err)
	require.Equal(t, result.Before, result.After)
	require.Len(t, result.Warnings, 1)
}

func TestRun_InvalidOperation(t *testing.T) {
	_, err := Run(snapshotTwoRecords(), Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperation("double"),
		Magnitude: 10,
	})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestRun_AverageMargin(t *testing.T) {
	result, err := Run([]Row{{
		RecordID:          "rec-1",
		SalePriceClassico: 100,
		SalePricePremium:  100,
		UnitCost:          50,
		Quantity:          1,
		PayoutClassico:    80,
		PayoutPremium:     80,
	}}, Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationPercentIncrease,
		Magnitude: 0,
	})
	require.NoError(t, err)
	// profit 110 over revenue 200 → 55%
	require.Equal(t, 55.0, result.Before.AverageMargin)
	require.Equal(t, result.Before, result.After)
}

func TestRun_ProfitSplitAcrossTiers(t *testing.T) {
	result, err := Run(snapshotTwoRecords(), Action{
		Field:     enums.SimFieldUnitCost,
		Operation: enums.SimOperationPercentIncrease,
		Magnitude: 10,
	})
	require.NoError(t, err)

	row := result.Rows[0]
	require.Equal(t, row.ProfitAfter, row.TierProfitClassico+row.TierProfitPremium)
}
