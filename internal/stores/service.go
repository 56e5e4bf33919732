package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

// StoreInput is the payload to create or update a store.
type StoreInput struct {
	Marketplace        string  `json:"marketplace"`
	StoreKey           string  `json:"store_key"`
	Name               string  `json:"name"`
	DefaultTaxRate     float64 `json:"default_tax_rate"`
	FulfillmentTaxRate float64 `json:"fulfillment_tax_rate"`
}

// CommissionRuleInput is one commission row in a replace request.
type CommissionRuleInput struct {
	RuleKey      string  `json:"rule_key"`
	ClassicoRate float64 `json:"classico_rate"`
	PremiumRate  float64 `json:"premium_rate"`
}

type feeCache interface {
	Key(scope string, parts ...string) string
	GetOrCompute(ctx context.Context, key string, dest any, compute func(context.Context) (any, error)) error
	Clear(ctx context.Context) error
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// Service manages seller stores and serves their fee configuration to the
// pricing engine through a read-through cache.
type Service interface {
	Create(ctx context.Context, actor string, input StoreInput) (*models.Store, error)
	Update(ctx context.Context, actor string, id uuid.UUID, input StoreInput) (*models.Store, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context) ([]models.Store, error)
	Delete(ctx context.Context, actor string, id uuid.UUID) error
	ReplaceCommissionRules(ctx context.Context, actor string, storeID uuid.UUID, inputs []CommissionRuleInput) error

	StoreFees(ctx context.Context, storeID string) (pricing.StoreFees, error)
}

type service struct {
	repo  *Repository
	cache feeCache
	audit auditor
	logg  *logger.Logger
}

// NewService constructs the stores service.
func NewService(repo *Repository, cache feeCache, audit auditor, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
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

func (s *service) Create(ctx context.Context, actor string, input StoreInput) (*models.Store, error) {
	store, err := storeFromInput(&models.Store{}, input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, store)
	if err != nil {
		return nil, err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "store.created", "store", created.ID.String(), map[string]any{
		"marketplace": created.Marketplace,
		"store_key":   created.StoreKey,
	})
	return created, nil
}

func (s *service) Update(ctx context.Context, actor string, id uuid.UUID, input StoreInput) (*models.Store, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	store, err := storeFromInput(existing, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, store)
	if err != nil {
		return nil, err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "store.updated", "store", id.String(), map[string]any{"name": updated.Name})
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Store, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "store.deleted", "store", id.String(), nil)
	return nil
}

// ReplaceCommissionRules swaps the commission rule set for one store.
func (s *service) ReplaceCommissionRules(ctx context.Context, actor string, storeID uuid.UUID, inputs []CommissionRuleInput) error {
	if _, err := s.repo.FindByID(ctx, storeID); err != nil {
		return err
	}

	seen := make(map[string]bool, len(inputs))
	rules := make([]models.CommissionRule, 0, len(inputs))
	for _, in := range inputs {
		if in.RuleKey == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "commission rule key is required")
		}
		if seen[in.RuleKey] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate commission rule key %q", in.RuleKey))
		}
		seen[in.RuleKey] = true
		if in.ClassicoRate < 0 || in.ClassicoRate > 100 || in.PremiumRate < 0 || in.PremiumRate > 100 {
			return pkgerrors.New(pkgerrors.CodeValidation, "commission rates must be between 0 and 100")
		}
		rules = append(rules, models.CommissionRule{
			RuleKey:      in.RuleKey,
			ClassicoRate: decimal.NewFromFloat(in.ClassicoRate),
			PremiumRate:  decimal.NewFromFloat(in.PremiumRate),
		})
	}

	if err := s.repo.ReplaceCommissionRules(ctx, storeID, rules); err != nil {
		return err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "store.commission_rules_replaced", "store", storeID.String(), map[string]any{"rules": len(rules)})
	return nil
}

// StoreFees loads one store's fee configuration through the cache.
func (s *service) StoreFees(ctx context.Context, storeID string) (pricing.StoreFees, error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return pricing.StoreFees{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid store id %q", storeID))
	}

	var fees pricing.StoreFees
	key := s.cache.Key("store_fees", storeID)
	err = s.cache.GetOrCompute(ctx, key, &fees, func(ctx context.Context) (any, error) {
		store, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return feesFromStore(store), nil
	})
	if err != nil {
		return pricing.StoreFees{}, err
	}
	return fees, nil
}

func feesFromStore(store *models.Store) pricing.StoreFees {
	fees := pricing.StoreFees{
		DefaultTaxRate:     store.DefaultTaxRate.InexactFloat64(),
		FulfillmentTaxRate: store.FulfillmentTaxRate.InexactFloat64(),
		Commissions:        make(map[string]pricing.CommissionRates, len(store.CommissionRules)),
	}
	for _, rule := range store.CommissionRules {
		fees.Commissions[rule.RuleKey] = pricing.CommissionRates{
			Classico: rule.ClassicoRate.InexactFloat64(),
			Premium:  rule.PremiumRate.InexactFloat64(),
		}
	}
	return fees
}

func (s *service) clearCache(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("clearing cache after store mutation: %v", err))
	}
}

func storeFromInput(store *models.Store, input StoreInput) (*models.Store, error) {
	if input.Marketplace == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketplace is required")
	}
	if input.StoreKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store key is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if input.DefaultTaxRate < 0 || input.DefaultTaxRate > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default tax rate must be between 0 and 100")
	}
	if input.FulfillmentTaxRate < 0 || input.FulfillmentTaxRate > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fulfillment tax rate must be between 0 and 100")
	}

	store.Marketplace = input.Marketplace
	store.StoreKey = input.StoreKey
	store.Name = input.Name
	store.DefaultTaxRate = decimal.NewFromFloat(input.DefaultTaxRate)
	store.FulfillmentTaxRate = decimal.NewFromFloat(input.FulfillmentTaxRate)
	return store, nil
}
