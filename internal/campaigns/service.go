package campaigns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/metrics"
)

// CampaignInput is the payload to create or update a campaign.
type CampaignInput struct {
	Name            string
	StartsOn        *time.Time
	EndsOn          *time.Time
	DiscountPercent *float64
	Notes           *string
}

// ApplyRequest layers a promotional price on a saved record.
type ApplyRequest struct {
	CampaignID    uuid.UUID
	RecordID      string
	Channel       enums.CampaignChannel
	Discounts     map[enums.Tier]DiscountSpec
	StartsAt      *time.Time
	EndsAt        *time.Time
	ReservedStock int64
	Notes         string
}

type recordReader interface {
	GetByID(ctx context.Context, id string) (*pricing.Record, error)
}

type cacheClearer interface {
	Clear(ctx context.Context) error
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// Service manages campaigns and their promotional price overlays.
type Service interface {
	Create(ctx context.Context, actor string, input CampaignInput) (*models.Campaign, error)
	Update(ctx context.Context, actor string, id uuid.UUID, input CampaignInput) (*models.Campaign, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context) ([]models.Campaign, error)
	ListActive(ctx context.Context) ([]models.Campaign, error)
	Delete(ctx context.Context, actor string, id uuid.UUID) error
	ApplyToRecord(ctx context.Context, actor string, req ApplyRequest) (*PriceRecord, error)
	ListPricesByCampaign(ctx context.Context, campaignID uuid.UUID) ([]PriceRecord, error)
	ListPricesByRecord(ctx context.Context, recordID string) ([]PriceRecord, error)
	RemovePrice(ctx context.Context, actor, id string) error
}

type service struct {
	repo    *Repository
	prices  PriceRepository
	records recordReader
	cache   cacheClearer
	audit   auditor
	logg    *logger.Logger
	metrics *metrics.PricingMetrics
	now     func() time.Time
}

// NewService constructs the campaign service.
func NewService(repo *Repository, prices PriceRepository, records recordReader, cache cacheClearer, audit auditor, logg *logger.Logger, m *metrics.PricingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("campaign repository required")
	}
	if prices == nil {
		return nil, fmt.Errorf("price repository required")
	}
	if records == nil {
		return nil, fmt.Errorf("record reader required")
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
	return &service{
		repo:    repo,
		prices:  prices,
		records: records,
		cache:   cache,
		audit:   audit,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// IsActive reports whether the campaign window contains the given day.
func IsActive(campaign *models.Campaign, now time.Time) bool {
	if campaign == nil {
		return false
	}
	day := now.Truncate(24 * time.Hour)
	if campaign.StartsOn != nil && day.Before(campaign.StartsOn.Truncate(24*time.Hour)) {
		return false
	}
	if campaign.EndsOn != nil && day.After(campaign.EndsOn.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

func (s *service) Create(ctx context.Context, actor string, input CampaignInput) (*models.Campaign, error) {
	campaign, err := campaignFromInput(&models.Campaign{}, input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, campaign)
	if err != nil {
		return nil, err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "campaign.created", "campaign", created.ID.String(), map[string]any{"name": created.Name})
	return created, nil
}

func (s *service) Update(ctx context.Context, actor string, id uuid.UUID, input CampaignInput) (*models.Campaign, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	campaign, err := campaignFromInput(existing, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, campaign)
	if err != nil {
		return nil, err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "campaign.updated", "campaign", id.String(), map[string]any{"name": updated.Name})
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Campaign, error) {
	return s.repo.List(ctx)
}

// ListActive returns the campaigns whose window contains today.
func (s *service) ListActive(ctx context.Context) ([]models.Campaign, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	active := make([]models.Campaign, 0, len(campaigns))
	for i := range campaigns {
		if IsActive(&campaigns[i], now) {
			active = append(active, campaigns[i])
		}
	}
	return active, nil
}

// Delete removes the campaign and its warehouse price rows, promo rows first.
func (s *service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	removed, err := s.prices.DeleteByCampaign(ctx, id.String())
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.clearCache(ctx)
	s.audit.Append(ctx, actor, "campaign.deleted", "campaign", id.String(), map[string]any{"prices_removed": removed})
	return nil
}

func (s *service) ApplyToRecord(ctx context.Context, actor string, req ApplyRequest) (*PriceRecord, error) {
	started := s.now()
	record, err := s.applyToRecord(ctx, actor, req)
	s.metrics.ObserveDuration("campaign_apply", s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailure("campaign_apply")
		return nil, err
	}
	s.metrics.IncSuccess("campaign_apply")
	s.metrics.AddRows("campaign_apply", 1)
	return record, nil
}

func (s *service) applyToRecord(ctx context.Context, actor string, req ApplyRequest) (*PriceRecord, error) {
	if req.RecordID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	channel := req.Channel
	if channel == "" {
		channel = enums.CampaignChannelDefault
	}
	if !channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown campaign channel %q", channel))
	}

	campaign, err := s.repo.FindByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	base, err := s.records.GetByID(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	overlay, err := Apply(base, req.Discounts)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	price := &PriceRecord{
		ID:            uuid.NewString(),
		RecordID:      base.ID,
		CampaignID:    campaign.ID.String(),
		Channel:       channel.String(),
		StartsAt:      windowStart(req, campaign),
		EndsAt:        windowEnd(req, campaign),
		ReservedStock: req.ReservedStock,
		Notes:         req.Notes,
		CreatedBy:     actor,
		UpdatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Re-applying updates the stored row in place, so the returned record
	// must carry that row's id and creation stamps.
	existing, err := s.prices.FindByKey(ctx, price.RecordID, price.CampaignID, price.Channel)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		price.ID = existing.ID
		price.CreatedBy = existing.CreatedBy
		price.CreatedAt = existing.CreatedAt
	}

	if spec, ok := req.Discounts[enums.TierClassico]; ok && overlay.Classico != nil {
		price.ClassicoDiscountType = spec.Type.String()
		price.ClassicoDiscountValue = spec.Value
		price.ClassicoPrice = overlay.Classico.Price
		price.ClassicoPayout = overlay.Classico.Payout
		price.ClassicoProfit = overlay.Classico.Profit
		price.ClassicoMargin = overlay.Classico.Margin
	}
	if spec, ok := req.Discounts[enums.TierPremium]; ok && overlay.Premium != nil {
		price.PremiumDiscountType = spec.Type.String()
		price.PremiumDiscountValue = spec.Value
		price.PremiumPrice = overlay.Premium.Price
		price.PremiumPayout = overlay.Premium.Payout
		price.PremiumProfit = overlay.Premium.Profit
		price.PremiumMargin = overlay.Premium.Margin
	}

	if err := s.prices.Upsert(ctx, price); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, actor, "campaign_price.applied", "campaign_price", price.ID, map[string]any{
		"campaign_id": price.CampaignID,
		"record_id":   price.RecordID,
		"channel":     price.Channel,
	})
	return price, nil
}

func (s *service) ListPricesByCampaign(ctx context.Context, campaignID uuid.UUID) ([]PriceRecord, error) {
	return s.prices.ListByCampaign(ctx, campaignID.String())
}

func (s *service) ListPricesByRecord(ctx context.Context, recordID string) ([]PriceRecord, error) {
	if recordID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	return s.prices.ListByRecord(ctx, recordID)
}

func (s *service) RemovePrice(ctx context.Context, actor, id string) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "campaign price id is required")
	}
	if err := s.prices.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Append(ctx, actor, "campaign_price.removed", "campaign_price", id, nil)
	return nil
}

func (s *service) clearCache(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("clearing cache after campaign mutation: %v", err))
	}
}

func campaignFromInput(campaign *models.Campaign, input CampaignInput) (*models.Campaign, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign name is required")
	}
	if input.StartsOn != nil && input.EndsOn != nil && input.EndsOn.Before(*input.StartsOn) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign window end cannot precede start")
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 0 || *input.DiscountPercent > 100) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	campaign.Name = input.Name
	campaign.StartsOn = input.StartsOn
	campaign.EndsOn = input.EndsOn
	campaign.Notes = input.Notes
	if input.DiscountPercent != nil {
		value := decimal.NewFromFloat(*input.DiscountPercent)
		campaign.DiscountPercent = &value
	} else {
		campaign.DiscountPercent = nil
	}
	return campaign, nil
}

func windowStart(req ApplyRequest, campaign *models.Campaign) time.Time {
	if req.StartsAt != nil {
		return req.StartsAt.UTC()
	}
	if campaign.StartsOn != nil {
		return campaign.StartsOn.UTC()
	}
	return time.Time{}
}

func windowEnd(req ApplyRequest, campaign *models.Campaign) time.Time {
	if req.EndsAt != nil {
		return req.EndsAt.UTC()
	}
	if campaign.EndsOn != nil {
		return campaign.EndsOn.UTC()
	}
	return time.Time{}
}
