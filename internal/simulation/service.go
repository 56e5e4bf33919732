package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/magislabs/pricing-backend/internal/pricing"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/metrics"
	"github.com/magislabs/pricing-backend/pkg/pagination"
)

// Request selects saved records and the adjustment to run against them.
// Records are selected by explicit ids, or by filter when no ids are given.
type Request struct {
	RecordIDs []string
	Filter    *pricing.ListFilter
	Action    Action
}

type recordReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]pricing.Record, error)
	List(ctx context.Context, filter pricing.ListFilter, page pagination.Params) ([]pricing.Record, int64, error)
}

// Service runs what-if simulations over saved pricing records.
type Service interface {
	Simulate(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	records recordReader
	logg    *logger.Logger
	metrics *metrics.PricingMetrics
	now     func() time.Time
}

// NewService constructs the simulation service.
func NewService(records recordReader, logg *logger.Logger, m *metrics.PricingMetrics) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{records: records, logg: logg, metrics: m, now: time.Now}, nil
}

func (s *service) Simulate(ctx context.Context, req Request) (*Result, error) {
	started := s.now()
	result, err := s.simulate(ctx, req)
	s.metrics.ObserveDuration("simulate", s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailure("simulate")
		return nil, err
	}
	s.metrics.IncSuccess("simulate")
	return result, nil
}

func (s *service) simulate(ctx context.Context, req Request) (*Result, error) {
	records, err := s.selectRecords(ctx, req)
	if err != nil {
		return nil, err
	}

	snapshot := make([]Row, 0, len(records))
	for _, record := range records {
		snapshot = append(snapshot, Row{
			RecordID:          record.ID,
			SKU:               record.SKU,
			SalePriceClassico: record.ClassicoPrice,
			SalePricePremium:  record.PremiumPrice,
			UnitCost:          record.UnitCost,
			Quantity:          record.Quantity,
			PayoutClassico:    record.ClassicoPayout,
			PayoutPremium:     record.PremiumPayout,
		})
	}

	result, err := Run(snapshot, req.Action)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		s.logg.Warn(ctx, warning)
	}
	return result, nil
}

func (s *service) selectRecords(ctx context.Context, req Request) ([]pricing.Record, error) {
	if len(req.RecordIDs) > 0 {
		records, err := s.records.GetByIDs(ctx, req.RecordIDs)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeEmptySelection, "selected records no longer exist")
		}
		return records, nil
	}

	if req.Filter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeEmptySelection, "no records selected")
	}
	records, _, err := s.records.List(ctx, *req.Filter, pagination.Params{
		Page:     1,
		PageSize: pagination.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptySelection, "filter matched no records")
	}
	return records, nil
}
