package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

const defaultEvolutionMonths = 12

// CampaignAlert summarizes a campaign whose window is about to close.
type CampaignAlert struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	EndsOn   *time.Time `json:"ends_on"`
	DaysLeft int        `json:"days_left"`
}

// Alerts bundles the dashboard warning panels.
type Alerts struct {
	ExpiringCampaigns []CampaignAlert `json:"expiring_campaigns"`
	OutdatedCosts     []RecordAlert   `json:"outdated_costs"`
	StagnantRecords   []RecordAlert   `json:"stagnant_records"`
}

type campaignLister interface {
	ListExpiringWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]models.Campaign, error)
}

// Service serves the dashboard alert panels and chart series.
type Service interface {
	Alerts(ctx context.Context) (*Alerts, error)
	ProfitByCategory(ctx context.Context, months int) ([]CategoryProfit, error)
	ProfitEvolution(ctx context.Context, months int) ([]MonthlyProfit, error)
}

type service struct {
	repo      Repository
	campaigns campaignLister
	cfg       config.AlertsConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the dashboard service.
func NewService(repo Repository, campaigns campaignLister, cfg config.AlertsConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		campaigns: campaigns,
		cfg:       cfg,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Alerts loads the three warning panels. A failing panel degrades to empty
// rather than failing the whole dashboard.
func (s *service) Alerts(ctx context.Context) (*Alerts, error) {
	now := s.now().UTC()
	alerts := &Alerts{}

	horizon := time.Duration(s.cfg.CampaignExpiryDays) * 24 * time.Hour
	campaigns, err := s.campaigns.ListExpiringWithin(ctx, now, horizon)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("loading expiring campaigns: %v", err))
	}
	for _, campaign := range campaigns {
		alert := CampaignAlert{
			ID:     campaign.ID.String(),
			Name:   campaign.Name,
			EndsOn: campaign.EndsOn,
		}
		if campaign.EndsOn != nil {
			alert.DaysLeft = int(campaign.EndsOn.Sub(now).Hours() / 24)
			if alert.DaysLeft < 0 {
				alert.DaysLeft = 0
			}
		}
		alerts.ExpiringCampaigns = append(alerts.ExpiringCampaigns, alert)
	}

	outdated, err := s.repo.OutdatedCosts(ctx, now.AddDate(0, 0, -s.cfg.OutdatedCostDays))
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("loading outdated costs: %v", err))
	}
	alerts.OutdatedCosts = outdated

	stagnant, err := s.repo.StagnantRecords(ctx, now.AddDate(0, 0, -s.cfg.StagnantDays))
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("loading stagnant records: %v", err))
	}
	alerts.StagnantRecords = stagnant

	return alerts, nil
}

func (s *service) ProfitByCategory(ctx context.Context, months int) ([]CategoryProfit, error) {
	since, err := s.sinceFor(months)
	if err != nil {
		return nil, err
	}
	return s.repo.ProfitByCategory(ctx, since)
}

func (s *service) ProfitEvolution(ctx context.Context, months int) ([]MonthlyProfit, error) {
	since, err := s.sinceFor(months)
	if err != nil {
		return nil, err
	}
	return s.repo.ProfitEvolution(ctx, since)
}

func (s *service) sinceFor(months int) (time.Time, error) {
	if months < 0 || months > 60 {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "months must be between 0 and 60")
	}
	if months == 0 {
		months = defaultEvolutionMonths
	}
	return s.now().UTC().AddDate(0, -months, 0), nil
}
