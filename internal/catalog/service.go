package catalog

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

// UpsertInput is the payload to create or refresh a product fact.
type UpsertInput struct {
	SKU      string  `json:"sku" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
	WeightKG float64 `json:"weight_kg" validate:"gte=0"`
	HeightCM float64 `json:"height_cm" validate:"gte=0"`
	WidthCM  float64 `json:"width_cm" validate:"gte=0"`
	LengthCM float64 `json:"length_cm" validate:"gte=0"`
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// Service manages product facts.
type Service interface {
	Upsert(ctx context.Context, actor string, input UpsertInput) (*ProductFact, error)
	Get(ctx context.Context, sku string) (*ProductFact, error)
	Search(ctx context.Context, term string, limit int) ([]ProductFact, error)
}

type service struct {
	repo  Repository
	audit auditor
	logg  *logger.Logger
	now   func() time.Time
}

// NewService constructs the catalog service.
func NewService(repo Repository, audit auditor, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if audit == nil {
		return nil, fmt.Errorf("auditor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, audit: audit, logg: logg, now: time.Now}, nil
}

func (s *service) Upsert(ctx context.Context, actor string, input UpsertInput) (*ProductFact, error) {
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product sku is required")
	}
	if input.UnitCost < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}
	if input.WeightKG < 0 || input.HeightCM < 0 || input.WidthCM < 0 || input.LengthCM < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product dimensions cannot be negative")
	}

	product := &ProductFact{
		SKU:       input.SKU,
		Title:     input.Title,
		UnitCost:  input.UnitCost,
		WeightKG:  input.WeightKG,
		HeightCM:  input.HeightCM,
		WidthCM:   input.WidthCM,
		LengthCM:  input.LengthCM,
		UpdatedBy: actor,
		UpdatedAt: s.now().UTC(),
	}

	if err := s.repo.Upsert(ctx, product); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, actor, "product.upserted", "product", product.SKU, map[string]any{
		"unit_cost": product.UnitCost,
	})
	return product, nil
}

func (s *service) Get(ctx context.Context, sku string) (*ProductFact, error) {
	return s.repo.GetBySKU(ctx, sku)
}

func (s *service) Search(ctx context.Context, term string, limit int) ([]ProductFact, error) {
	return s.repo.Search(ctx, term, limit)
}
