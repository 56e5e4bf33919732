package simulation

import (
	"fmt"

	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

// Row is one record in a what-if snapshot. Snapshots are request-scoped and
// never persisted.
type Row struct {
	RecordID          string  `json:"record_id"`
	SKU               string  `json:"sku"`
	SalePriceClassico float64 `json:"sale_price_classico"`
	SalePricePremium  float64 `json:"sale_price_premium"`
	UnitCost          float64 `json:"unit_cost"`
	Quantity          int64   `json:"quantity"`
	PayoutClassico    float64 `json:"payout_classico"`
	PayoutPremium     float64 `json:"payout_premium"`
}

// Action is the adjustment applied across the snapshot.
type Action struct {
	Field     enums.SimField     `json:"field"`
	Operation enums.SimOperation `json:"operation"`
	Magnitude float64            `json:"magnitude"`
}

// Totals aggregates a snapshot before or after the action.
type Totals struct {
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Profit        float64 `json:"profit"`
	AverageMargin float64 `json:"average_margin"`
	ItemCount     int     `json:"item_count"`
}

// RowResult reports the per-record effect. Profit is split evenly across the
// two tiers, a reporting simplification since costs are not tracked per tier.
type RowResult struct {
	RecordID           string  `json:"record_id"`
	SKU                string  `json:"sku"`
	CostBefore         float64 `json:"cost_before"`
	CostAfter          float64 `json:"cost_after"`
	ProfitBefore       float64 `json:"profit_before"`
	ProfitAfter        float64 `json:"profit_after"`
	TierProfitClassico float64 `json:"tier_profit_classico"`
	TierProfitPremium  float64 `json:"tier_profit_premium"`
}

// Result is the full simulation outcome.
type Result struct {
	Before   Totals      `json:"before"`
	After    Totals      `json:"after"`
	Rows     []RowResult `json:"rows"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Run aggregates the snapshot before and after the action. The input rows
// are never mutated and row order does not affect the totals. An action on a
// field the simulator does not support degrades to a no-op with a warning.
func Run(snapshot []Row, action Action) (*Result, error) {
	if len(snapshot) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptySelection, "simulation requires at least one record")
	}
	if !action.Operation.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown simulation operation %q", action.Operation))
	}
	if action.Magnitude < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "magnitude cannot be negative")
	}

	result := &Result{}
	fieldSupported := action.Field.IsValid()
	if !fieldSupported {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("field %q is not supported by the simulator, values left unchanged", action.Field))
	}

	for _, row := range snapshot {
		costBefore := row.UnitCost * float64(row.Quantity)
		costAfter := costBefore
		if fieldSupported {
			costAfter = apply(row.UnitCost, action) * float64(row.Quantity)
		}

		payouts := row.PayoutClassico + row.PayoutPremium
		profitBefore := payouts - costBefore
		profitAfter := payouts - costAfter

		result.Before.Revenue += row.SalePriceClassico + row.SalePricePremium
		result.Before.Cost += costBefore
		result.Before.Profit += profitBefore
		result.After.Revenue += row.SalePriceClassico + row.SalePricePremium
		result.After.Cost += costAfter
		result.After.Profit += profitAfter

		result.Rows = append(result.Rows, RowResult{
			RecordID:           row.RecordID,
			SKU:                row.SKU,
			CostBefore:         pricing.Round2(costBefore),
			CostAfter:          pricing.Round2(costAfter),
			ProfitBefore:       pricing.Round2(profitBefore),
			ProfitAfter:        pricing.Round2(profitAfter),
			TierProfitClassico: pricing.Round2(profitAfter / 2),
			TierProfitPremium:  pricing.Round2(profitAfter / 2),
		})
	}

	finalizeTotals(&result.Before, len(snapshot))
	finalizeTotals(&result.After, len(snapshot))
	return result, nil
}

func apply(value float64, action Action) float64 {
	switch action.Operation {
	case enums.SimOperationPercentIncrease:
		value *= 1 + action.Magnitude/100
	case enums.SimOperationPercentDecrease:
		value *= 1 - action.Magnitude/100
	case enums.SimOperationValueIncrease:
		value += action.Magnitude
	case enums.SimOperationValueDecrease:
		value -= action.Magnitude
	}
	if value < 0 {
		return 0
	}
	return value
}

func finalizeTotals(t *Totals, count int) {
	t.ItemCount = count
	if t.Revenue > 0 {
		t.AverageMargin = t.Profit / t.Revenue * 100
	}
	t.Revenue = pricing.Round2(t.Revenue)
	t.Cost = pricing.Round2(t.Cost)
	t.Profit = pricing.Round2(t.Profit)
	t.AverageMargin = pricing.Round2(t.AverageMargin)
}
