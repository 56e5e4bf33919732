package campaigns

import (
	"fmt"

	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

// DiscountSpec describes the promotional discount for one tier. Floor and
// ceiling clamp the resulting price when present.
type DiscountSpec struct {
	Type    enums.DiscountType `json:"type"`
	Value   float64            `json:"value"`
	Floor   *float64           `json:"floor,omitempty"`
	Ceiling *float64           `json:"ceiling,omitempty"`
}

// TierOverlay is the promotional breakdown derived for one tier.
type TierOverlay struct {
	Price  float64 `json:"price"`
	Payout float64 `json:"payout"`
	Profit float64 `json:"profit"`
	Margin float64 `json:"margin"`
}

// Overlay carries the per-tier promo fields. A tier without a discount spec
// stays nil.
type Overlay struct {
	Classico *TierOverlay `json:"classico,omitempty"`
	Premium  *TierOverlay `json:"premium,omitempty"`
}

// Apply derives promotional prices from a saved base record. Each tier is
// independent; the same inputs always produce the same overlay. Payout is
// recomputed by keeping the base record's payout-to-price ratio, so the fee
// proportions survive the discount.
func Apply(base *pricing.Record, specs map[enums.Tier]DiscountSpec) (*Overlay, error) {
	if base == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base record is required")
	}
	if len(specs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one tier discount is required")
	}

	overlay := &Overlay{}
	for tier, spec := range specs {
		if !tier.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown tier %q", tier))
		}
		if err := validateSpec(spec); err != nil {
			return nil, err
		}

		basePrice := base.ClassicoPrice
		basePayout := base.ClassicoPayout
		if tier == enums.TierPremium {
			basePrice = base.PremiumPrice
			basePayout = base.PremiumPayout
		}

		result := applyTier(basePrice, basePayout, base.TotalCost, spec)
		switch tier {
		case enums.TierPremium:
			overlay.Premium = result
		default:
			overlay.Classico = result
		}
	}
	return overlay, nil
}

func validateSpec(spec DiscountSpec) error {
	if !spec.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown discount type %q", spec.Type))
	}
	if spec.Value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}
	if spec.Type == enums.DiscountTypePercent && spec.Value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	if spec.Floor != nil && spec.Ceiling != nil && *spec.Floor > *spec.Ceiling {
		return pkgerrors.New(pkgerrors.CodeValidation, "floor cannot exceed ceiling")
	}
	return nil
}

func applyTier(basePrice, basePayout, totalCost float64, spec DiscountSpec) *TierOverlay {
	price := basePrice
	switch spec.Type {
	case enums.DiscountTypePercent:
		price = basePrice * (1 - spec.Value/100)
	case enums.DiscountTypeFixed:
		price = basePrice - spec.Value
	}
	if price < 0 {
		price = 0
	}
	if spec.Floor != nil && price < *spec.Floor {
		price = *spec.Floor
	}
	if spec.Ceiling != nil && price > *spec.Ceiling {
		price = *spec.Ceiling
	}

	payoutRatio := 0.0
	if basePrice > 0 {
		payoutRatio = basePayout / basePrice
	}
	payout := price * payoutRatio
	profit := payout - totalCost

	margin := 0.0
	if price > 0 {
		margin = profit / price * 100
	}

	return &TierOverlay{
		Price:  pricing.Round2(price),
		Payout: pricing.Round2(payout),
		Profit: pricing.Round2(profit),
		Margin: pricing.Round2(margin),
	}
}
