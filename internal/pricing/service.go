package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/metrics"
	"github.com/magislabs/pricing-backend/pkg/pagination"
)

// FeeTableProvider supplies the marketplace rule tables.
type FeeTableProvider interface {
	FeeTables(ctx context.Context) (FeeTables, error)
}

// StoreFeesProvider supplies the fee configuration for one store.
type StoreFeesProvider interface {
	StoreFees(ctx context.Context, storeID string) (StoreFees, error)
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// ComputeRequest is one pricing derivation across both tiers.
type ComputeRequest struct {
	StoreID           string
	SKU               string
	Title             string
	Category          string
	Quantity          int
	UnitCost          float64
	SalePriceClassico float64
	SalePricePremium  float64
	TaxRate           float64
	InstallmentRate   float64
	OtherRate         float64
	CommissionRuleKey string
	Fulfillment       bool
	BuyBox            bool
	WeightKG          float64
	HeightCM          float64
	WidthCM           float64
	LengthCM          float64
}

// SaveRequest persists a computed record. An empty ID creates a new record.
type SaveRequest struct {
	ID                string
	ExternalListingID string
	CatalogListingID  string
	Marketplace       string
	ComputeRequest
}

// SolveRequest asks for the sale price that yields the target margin.
type SolveRequest struct {
	StoreID           string
	Tier              enums.Tier
	Quantity          int
	UnitCost          float64
	TaxRate           float64
	InstallmentRate   float64
	OtherRate         float64
	CommissionRuleKey string
	Fulfillment       bool
	TargetMargin      float64
	WeightKG          float64
	HeightCM          float64
	WidthCM           float64
	LengthCM          float64
}

// BulkUpdateRequest overwrites one field on many records in a single batch.
type BulkUpdateRequest struct {
	IDs           []string
	Field         enums.BulkField
	CostValue     float64
	CategoryValue string
}

// Quote is the full two-tier breakdown returned to the caller.
type Quote struct {
	Classico *TierResult `json:"classico"`
	Premium  *TierResult `json:"premium"`
}

// Service exposes the pricing operations.
type Service interface {
	Compute(ctx context.Context, req ComputeRequest) (*Quote, error)
	SuggestPrice(ctx context.Context, req SolveRequest) (float64, error)
	Save(ctx context.Context, actor string, req SaveRequest) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]Record, pagination.Meta, error)
	Delete(ctx context.Context, actor, id string) error
	BulkUpdate(ctx context.Context, actor string, req BulkUpdateRequest) (int64, error)
}

type service struct {
	repo      Repository
	feeTables FeeTableProvider
	storeFees StoreFeesProvider
	audit     auditor
	logg      *logger.Logger
	metrics   *metrics.PricingMetrics
	now       func() time.Time
}

// NewService constructs the pricing service.
func NewService(repo Repository, feeTables FeeTableProvider, storeFees StoreFeesProvider, audit auditor, logg *logger.Logger, m *metrics.PricingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if feeTables == nil {
		return nil, fmt.Errorf("fee table provider required")
	}
	if storeFees == nil {
		return nil, fmt.Errorf("store fees provider required")
	}
	if audit == nil {
		return nil, fmt.Errorf("auditor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		feeTables: feeTables,
		storeFees: storeFees,
		audit:     audit,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

func (s *service) Compute(ctx context.Context, req ComputeRequest) (*Quote, error) {
	started := s.now()
	quote, err := s.compute(ctx, req)
	s.observe("compute", started, err)
	return quote, err
}

func (s *service) compute(ctx context.Context, req ComputeRequest) (*Quote, error) {
	tables, fees, err := s.loadConfig(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	product := Product{
		UnitCost: req.UnitCost,
		WeightKG: req.WeightKG,
		HeightCM: req.HeightCM,
		WidthCM:  req.WidthCM,
		LengthCM: req.LengthCM,
	}

	quote := &Quote{}
	for _, tier := range enums.Tiers() {
		salePrice := req.SalePriceClassico
		if tier == enums.TierPremium {
			salePrice = req.SalePricePremium
		}

		result, err := ComputeTier(ComputeInput{
			Tier:              tier,
			SalePrice:         salePrice,
			Quantity:          req.Quantity,
			CommissionRuleKey: req.CommissionRuleKey,
			Fulfillment:       req.Fulfillment,
			TaxRate:           req.TaxRate,
			InstallmentRate:   req.InstallmentRate,
			OtherRate:         req.OtherRate,
		}, product, fees, tables)
		if err != nil {
			return nil, err
		}

		for _, warning := range result.Warnings {
			s.logg.Warn(s.logg.WithSKU(ctx, req.SKU), warning)
		}

		switch tier {
		case enums.TierPremium:
			quote.Premium = result
		default:
			quote.Classico = result
		}
	}
	return quote, nil
}

func (s *service) SuggestPrice(ctx context.Context, req SolveRequest) (float64, error) {
	tables, fees, err := s.loadConfig(ctx, req.StoreID)
	if err != nil {
		return 0, err
	}

	price, err := SolveSalePrice(ComputeInput{
		Tier:              req.Tier,
		Quantity:          req.Quantity,
		CommissionRuleKey: req.CommissionRuleKey,
		Fulfillment:       req.Fulfillment,
		TaxRate:           req.TaxRate,
		InstallmentRate:   req.InstallmentRate,
		OtherRate:         req.OtherRate,
	}, Product{
		UnitCost: req.UnitCost,
		WeightKG: req.WeightKG,
		HeightCM: req.HeightCM,
		WidthCM:  req.WidthCM,
		LengthCM: req.LengthCM,
	}, fees, tables, req.TargetMargin)
	if err != nil {
		return 0, err
	}
	return Round2(price), nil
}

func (s *service) Save(ctx context.Context, actor string, req SaveRequest) (*Record, error) {
	started := s.now()
	record, err := s.save(ctx, actor, req)
	s.observe("save", started, err)
	if err == nil {
		s.metrics.AddRows("save", 1)
	}
	return record, err
}

func (s *service) save(ctx context.Context, actor string, req SaveRequest) (*Record, error) {
	quote, err := s.compute(ctx, req.ComputeRequest)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &Record{
		ID:                req.ID,
		Marketplace:       req.Marketplace,
		StoreID:           req.StoreID,
		SKU:               req.SKU,
		ExternalListingID: req.ExternalListingID,
		CatalogListingID:  req.CatalogListingID,
		Title:             req.Title,
		Category:          req.Category,
		Quantity:          int64(req.Quantity),
		UnitCost:          Round2(req.UnitCost),
		TotalCost:         Round2(quote.Classico.TotalCost),
		TaxRate:           req.TaxRate,
		InstallmentRate:   req.InstallmentRate,
		OtherRate:         req.OtherRate,
		CommissionRuleKey: req.CommissionRuleKey,
		Fulfillment:       req.Fulfillment,
		BuyBox:            req.BuyBox,

		ClassicoPrice:    Round2(quote.Classico.SalePrice),
		ClassicoShipping: Round2(quote.Classico.ShippingCost),
		ClassicoTariff:   Round2(quote.Classico.FixedTariff),
		ClassicoPayout:   Round2(quote.Classico.NetPayout),
		ClassicoProfit:   Round2(quote.Classico.Profit),
		ClassicoMargin:   Round2(quote.Classico.MarginPercent),

		PremiumPrice:    Round2(quote.Premium.SalePrice),
		PremiumShipping: Round2(quote.Premium.ShippingCost),
		PremiumTariff:   Round2(quote.Premium.FixedTariff),
		PremiumPayout:   Round2(quote.Premium.NetPayout),
		PremiumProfit:   Round2(quote.Premium.Profit),
		PremiumMargin:   Round2(quote.Premium.MarginPercent),

		CreatedBy: actor,
		UpdatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	action := "pricing_record.created"
	if record.ID == "" {
		record.ID = uuid.NewString()
	} else {
		existing, err := s.repo.GetByID(ctx, record.ID)
		switch {
		case err == nil:
			record.CreatedBy = existing.CreatedBy
			record.CreatedAt = existing.CreatedAt
			action = "pricing_record.updated"
		case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
			// explicit id on a record that does not exist yet stays a create
		default:
			return nil, err
		}
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, actor, action, "pricing_record", record.ID, map[string]any{
		"sku":      record.SKU,
		"store_id": record.StoreID,
	})
	return record, nil
}

func (s *service) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]Record, pagination.Meta, error) {
	records, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return records, pagination.MetaFor(page, total), nil
}

func (s *service) Delete(ctx context.Context, actor, id string) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Append(ctx, actor, "pricing_record.deleted", "pricing_record", id, nil)
	return nil
}

// BulkUpdate overwrites one field on the selected records in a single batch
// statement. Derived payout/profit/margin values are left as-is until the
// next compute; only the field itself (and total cost for cost updates) and
// the audit stamps change.
func (s *service) BulkUpdate(ctx context.Context, actor string, req BulkUpdateRequest) (int64, error) {
	started := s.now()
	count, err := s.bulkUpdate(ctx, actor, req)
	s.observe("bulk_update", started, err)
	if err == nil {
		s.metrics.AddRows("bulk_update", count)
	}
	return count, err
}

func (s *service) bulkUpdate(ctx context.Context, actor string, req BulkUpdateRequest) (int64, error) {
	if len(req.IDs) == 0 {
		return 0, nil
	}
	if !req.Field.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported bulk update field %q", req.Field))
	}

	now := s.now().UTC()
	var (
		count int64
		err   error
	)
	switch req.Field {
	case enums.BulkFieldUnitCost:
		if req.CostValue < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
		}
		count, err = s.repo.BulkUpdateCost(ctx, req.IDs, Round2(req.CostValue), actor, now)
	case enums.BulkFieldCategory:
		if req.CategoryValue == "" {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
		}
		count, err = s.repo.BulkUpdateCategory(ctx, req.IDs, req.CategoryValue, actor, now)
	}
	if err != nil {
		return 0, err
	}

	s.audit.Append(ctx, actor, "pricing_record.bulk_updated", "pricing_record", "", map[string]any{
		"field": req.Field.String(),
		"count": count,
	})
	return count, nil
}

func (s *service) loadConfig(ctx context.Context, storeID string) (FeeTables, StoreFees, error) {
	if storeID == "" {
		return FeeTables{}, StoreFees{}, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	tables, err := s.feeTables.FeeTables(ctx)
	if err != nil {
		return FeeTables{}, StoreFees{}, err
	}
	fees, err := s.storeFees.StoreFees(ctx, storeID)
	if err != nil {
		return FeeTables{}, StoreFees{}, err
	}
	return tables, fees, nil
}

func (s *service) observe(operation string, started time.Time, err error) {
	s.metrics.ObserveDuration(operation, s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailure(operation)
		return
	}
	s.metrics.IncSuccess(operation)
}
