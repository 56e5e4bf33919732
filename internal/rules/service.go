package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

// TariffBracketInput is one fixed-tariff row in a replace request.
type TariffBracketInput struct {
	MinSaleValue float64  `json:"min_sale_value"`
	MaxSaleValue *float64 `json:"max_sale_value"`
	FlatFee      float64  `json:"flat_fee"`
	PercentFee   float64  `json:"percent_fee"`
}

// ShippingBracketInput is one shipping row in a replace request.
type ShippingBracketInput struct {
	MinSaleValue float64  `json:"min_sale_value"`
	MaxSaleValue *float64 `json:"max_sale_value"`
	MinWeightG   float64  `json:"min_weight_g"`
	MaxWeightG   *float64 `json:"max_weight_g"`
	ShippingCost float64  `json:"shipping_cost"`
}

// CategoryInput is the payload to create or update a pricing category.
type CategoryInput struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	DefaultMargin float64 `json:"default_margin"`
}

type feeCache interface {
	Key(scope string, parts ...string) string
	GetOrCompute(ctx context.Context, key string, dest any, compute func(context.Context) (any, error)) error
	Clear(ctx context.Context) error
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// Service manages the marketplace rule tables and serves them to the
// pricing engine through a read-through cache.
type Service interface {
	ListTariffs(ctx context.Context) ([]models.FixedTariffRule, error)
	ReplaceTariffs(ctx context.Context, actor string, inputs []TariffBracketInput) error
	ListShipping(ctx context.Context) ([]models.ShippingRule, error)
	ReplaceShipping(ctx context.Context, actor string, inputs []ShippingBracketInput) error

	ListCategories(ctx context.Context) ([]models.PricingCategory, error)
	CreateCategory(ctx context.Context, actor string, input CategoryInput) (*models.PricingCategory, error)
	UpdateCategory(ctx context.Context, actor string, id uuid.UUID, input CategoryInput) (*models.PricingCategory, error)
	DeleteCategory(ctx context.Context, actor string, id uuid.UUID) error
	DefaultMarginFor(ctx context.Context, categoryName string) (float64, error)

	FeeTables(ctx context.Context) (pricing.FeeTables, error)
}

type service struct {
	repo  *Repository
	cache feeCache
	audit auditor
	logg  *logger.Logger
}

// NewService constructs the rules service.
func NewService(repo *Repository, cache feeCache, audit auditor, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rules repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	if audit == nil {
		return nil, fmt.Errorf("auditor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, audit: audit, logg: logg}, nil
}

func (s *service) ListTariffs(ctx context.Context) ([]models.FixedTariffRule, error) {
	return s.repo.ListTariffs(ctx)
}

// ReplaceTariffs validates and swaps the whole fixed-tariff table.
func (s *service) ReplaceTariffs(ctx context.Context, actor string, inputs []TariffBracketInput) error {
	if err := validateTariffInputs(inputs); err != nil {
		return err
	}

	rules := make([]models.FixedTariffRule, 0, len(inputs))
	for _, in := range inputs {
		rule := models.FixedTariffRule{
			MinSaleValue: decimal.NewFromFloat(in.MinSaleValue),
			FlatFee:      decimal.NewFromFloat(in.FlatFee),
			PercentFee:   decimal.NewFromFloat(in.PercentFee),
		}
		if in.MaxSaleValue != nil {
			max := decimal.NewFromFloat(*in.MaxSaleValue)
			rule.MaxSaleValue = &max
		}
		rules = append(rules, rule)
	}

	if err := s.repo.ReplaceTariffs(ctx, rules); err != nil {
		return err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "rules.tariffs_replaced", "fixed_tariff_table", "", map[string]any{"brackets": len(rules)})
	return nil
}

func (s *service) ListShipping(ctx context.Context) ([]models.ShippingRule, error) {
	return s.repo.ListShipping(ctx)
}

// ReplaceShipping validates and swaps the whole shipping table.
func (s *service) ReplaceShipping(ctx context.Context, actor string, inputs []ShippingBracketInput) error {
	if err := validateShippingInputs(inputs); err != nil {
		return err
	}

	rules := make([]models.ShippingRule, 0, len(inputs))
	for _, in := range inputs {
		rule := models.ShippingRule{
			MinSaleValue: decimal.NewFromFloat(in.MinSaleValue),
			MinWeightG:   decimal.NewFromFloat(in.MinWeightG),
			ShippingCost: decimal.NewFromFloat(in.ShippingCost),
		}
		if in.MaxSaleValue != nil {
			max := decimal.NewFromFloat(*in.MaxSaleValue)
			rule.MaxSaleValue = &max
		}
		if in.MaxWeightG != nil {
			max := decimal.NewFromFloat(*in.MaxWeightG)
			rule.MaxWeightG = &max
		}
		rules = append(rules, rule)
	}

	if err := s.repo.ReplaceShipping(ctx, rules); err != nil {
		return err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "rules.shipping_replaced", "shipping_table", "", map[string]any{"brackets": len(rules)})
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.PricingCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, actor string, input CategoryInput) (*models.PricingCategory, error) {
	category, err := categoryFromInput(&models.PricingCategory{}, input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "pricing_category.created", "pricing_category", created.ID.String(), map[string]any{"name": created.Name})
	return created, nil
}

func (s *service) UpdateCategory(ctx context.Context, actor string, id uuid.UUID, input CategoryInput) (*models.PricingCategory, error) {
	existing, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category, err := categoryFromInput(existing, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "pricing_category.updated", "pricing_category", id.String(), map[string]any{"name": updated.Name})
	return updated, nil
}

func (s *service) DeleteCategory(ctx context.Context, actor string, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "pricing_category.deleted", "pricing_category", id.String(), nil)
	return nil
}

// DefaultMarginFor resolves the suggested margin for a category name.
func (s *service) DefaultMarginFor(ctx context.Context, categoryName string) (float64, error) {
	if categoryName == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category, err := s.repo.FindCategoryByName(ctx, categoryName)
	if err != nil {
		return 0, err
	}
	return category.DefaultMargin.InexactFloat64(), nil
}

// FeeTables loads the rule tables through the cache for the pricing engine.
func (s *service) FeeTables(ctx context.Context) (pricing.FeeTables, error) {
	var tables pricing.FeeTables
	key := s.cache.Key("fee_tables")
	err := s.cache.GetOrCompute(ctx, key, &tables, func(ctx context.Context) (any, error) {
		return s.loadFeeTables(ctx)
	})
	if err != nil {
		return pricing.FeeTables{}, err
	}
	return tables, nil
}

func (s *service) loadFeeTables(ctx context.Context) (pricing.FeeTables, error) {
	tariffs, err := s.repo.ListTariffs(ctx)
	if err != nil {
		return pricing.FeeTables{}, fmt.Errorf("loading fixed-tariff table: %w", err)
	}
	shipping, err := s.repo.ListShipping(ctx)
	if err != nil {
		return pricing.FeeTables{}, fmt.Errorf("loading shipping table: %w", err)
	}

	tables := pricing.FeeTables{
		Tariffs:  make([]pricing.TariffBracket, 0, len(tariffs)),
		Shipping: make([]pricing.ShippingBracket, 0, len(shipping)),
	}
	for _, rule := range tariffs {
		bracket := pricing.TariffBracket{
			MinSaleValue: rule.MinSaleValue.InexactFloat64(),
			FlatFee:      rule.FlatFee.InexactFloat64(),
			PercentFee:   rule.PercentFee.InexactFloat64(),
		}
		if rule.MaxSaleValue != nil {
			max := rule.MaxSaleValue.InexactFloat64()
			bracket.MaxSaleValue = &max
		}
		tables.Tariffs = append(tables.Tariffs, bracket)
	}
	for _, rule := range shipping {
		bracket := pricing.ShippingBracket{
			MinSaleValue: rule.MinSaleValue.InexactFloat64(),
			MinWeightG:   rule.MinWeightG.InexactFloat64(),
			Cost:         rule.ShippingCost.InexactFloat64(),
		}
		if rule.MaxSaleValue != nil {
			max := rule.MaxSaleValue.InexactFloat64()
			bracket.MaxSaleValue = &max
		}
		if rule.MaxWeightG != nil {
			max := rule.MaxWeightG.InexactFloat64()
			bracket.MaxWeightG = &max
		}
		tables.Shipping = append(tables.Shipping, bracket)
	}
	return tables, nil
}

func (s *service) clearCache(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("clearing cache after rules mutation: %v", err))
	}
}

func validateTariffInputs(inputs []TariffBracketInput) error {
	if len(inputs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one tariff bracket is required")
	}

	sorted := make([]TariffBracketInput, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinSaleValue < sorted[j].MinSaleValue })

	for i, in := range sorted {
		if in.MinSaleValue < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tariff bracket start cannot be negative")
		}
		if in.MaxSaleValue != nil && *in.MaxSaleValue <= in.MinSaleValue {
			return pkgerrors.New(pkgerrors.CodeValidation, "tariff bracket end must exceed its start")
		}
		if in.FlatFee < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tariff flat fee cannot be negative")
		}
		if in.PercentFee < 0 || in.PercentFee > 100 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tariff percent fee must be between 0 and 100")
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.MaxSaleValue == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "only the last tariff bracket can be open-ended")
			}
			if in.MinSaleValue < *prev.MaxSaleValue {
				return pkgerrors.New(pkgerrors.CodeValidation, "tariff brackets cannot overlap")
			}
		}
	}
	return nil
}

func validateShippingInputs(inputs []ShippingBracketInput) error {
	if len(inputs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one shipping bracket is required")
	}
	for _, in := range inputs {
		if in.MinSaleValue < 0 || in.MinWeightG < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping bracket bounds cannot be negative")
		}
		if in.MaxSaleValue != nil && *in.MaxSaleValue <= in.MinSaleValue {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping sale range end must exceed its start")
		}
		if in.MaxWeightG != nil && *in.MaxWeightG <= in.MinWeightG {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping weight range end must exceed its start")
		}
		if in.ShippingCost < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
		}
	}
	return nil
}

func categoryFromInput(category *models.PricingCategory, input CategoryInput) (*models.PricingCategory, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	if input.DefaultMargin < 0 || input.DefaultMargin >= 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default margin must be between 0 and 100")
	}

	category.Name = input.Name
	category.Description = input.Description
	category.DefaultMargin = decimal.NewFromFloat(input.DefaultMargin)
	return category, nil
}
