package pricing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/pagination"
)

type fakeRepo struct {
	records        map[string]*Record
	getErr         error
	bulkCostCalls  int
	lastBulkIDs    []string
	lastBulkValue  float64
	lastBulkActor  string
	deleteCalls    []string
	lastUpsert     *Record
	bulkCategoryID string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*Record{}}
}

func (f *fakeRepo) Upsert(_ context.Context, record *Record) error {
	copied := *record
	f.records[record.ID] = &copied
	f.lastUpsert = &copied
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing record not found")
	}
	return record, nil
}

func (f *fakeRepo) GetByIDs(_ context.Context, ids []string) ([]Record, error) {
	var out []Record
	for _, id := range ids {
		if record, ok := f.records[id]; ok {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter, _ pagination.Params) ([]Record, int64, error) {
	var out []Record
	for _, record := range f.records {
		out = append(out, *record)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) BulkUpdateCost(_ context.Context, ids []string, value float64, actor string, _ time.Time) (int64, error) {
	f.bulkCostCalls++
	f.lastBulkIDs = ids
	f.lastBulkValue = value
	f.lastBulkActor = actor
	return int64(len(ids)), nil
}

func (f *fakeRepo) BulkUpdateCategory(_ context.Context, ids []string, category, _ string, _ time.Time) (int64, error) {
	f.bulkCategoryID = category
	return int64(len(ids)), nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	delete(f.records, id)
	return nil
}

type fakeProviders struct {
	tables FeeTables
	fees   StoreFees
}

func (f *fakeProviders) FeeTables(context.Context) (FeeTables, error) {
	return f.tables, nil
}

func (f *fakeProviders) StoreFees(context.Context, string) (StoreFees, error) {
	return f.fees, nil
}

type fakeAuditor struct {
	actions []string
}

func (f *fakeAuditor) Append(_ context.Context, _, action, _, _ string, _ map[string]any) {
	f.actions = append(f.actions, action)
}

func newTestService(t *testing.T, repo *fakeRepo) (Service, *fakeAuditor) {
	t.Helper()
	providers := &fakeProviders{tables: testTables(), fees: testFees()}
	audit := &fakeAuditor{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(repo, providers, providers, audit, logg, nil)
	require.NoError(t, err)
	return svc, audit
}

func computeRequest() ComputeRequest {
	return ComputeRequest{
		StoreID:           "store-1",
		SKU:               "SKU-001",
		Title:             "Fone Bluetooth",
		Category:          "eletronicos",
		Quantity:          2,
		UnitCost:          100,
		SalePriceClassico: 250,
		SalePricePremium:  250,
		CommissionRuleKey: "eletronicos",
		WeightKG:          0.5,
	}
}

func TestServiceCompute_TwoTierBreakdown(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())

	quote, err := svc.Compute(context.Background(), computeRequest())
	require.NoError(t, err)

	require.InDelta(t, 195, quote.Classico.NetPayout, 1e-9)
	require.InDelta(t, -5, quote.Classico.Profit, 1e-9)
	require.InDelta(t, -2.0, quote.Classico.MarginPercent, 1e-9)
	// premium commission is 17% → 42.50 instead of 30
	require.InDelta(t, 182.5, quote.Premium.NetPayout, 1e-9)
}

func TestServiceCompute_RequiresStore(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())

	req := computeRequest()
	req.StoreID = ""
	_, err := svc.Compute(context.Background(), req)
	requireValidation(t, err)
}

func TestServiceSave_PersistsRoundedRecord(t *testing.T) {
	repo := newFakeRepo()
	svc, audit := newTestService(t, repo)

	record, err := svc.Save(context.Background(), "ops@magislabs.com", SaveRequest{
		Marketplace:    "meli",
		ComputeRequest: computeRequest(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, int64(2), record.Quantity)
	require.Equal(t, 200.0, record.TotalCost)
	require.Equal(t, 195.0, record.ClassicoPayout)
	require.Equal(t, -5.0, record.ClassicoProfit)
	require.Equal(t, -2.0, record.ClassicoMargin)
	require.Equal(t, "ops@magislabs.com", record.CreatedBy)
	require.Contains(t, audit.actions, "pricing_record.created")
}

func TestServiceSave_UpdateKeepsCreationStamps(t *testing.T) {
	repo := newFakeRepo()
	svc, audit := newTestService(t, repo)

	created, err := svc.Save(context.Background(), "first@magislabs.com", SaveRequest{
		Marketplace:    "meli",
		ComputeRequest: computeRequest(),
	})
	require.NoError(t, err)

	updated, err := svc.Save(context.Background(), "second@magislabs.com", SaveRequest{
		ID:             created.ID,
		Marketplace:    "meli",
		ComputeRequest: computeRequest(),
	})
	require.NoError(t, err)
	require.Equal(t, created.CreatedBy, updated.CreatedBy)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, "second@magislabs.com", updated.UpdatedBy)
	require.Contains(t, audit.actions, "pricing_record.updated")
}

func TestServiceSave_PropagatesLookupFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.getErr = pkgerrors.New(pkgerrors.CodeDependency, "warehouse unavailable")
	svc, audit := newTestService(t, repo)

	_, err := svc.Save(context.Background(), "ops@magislabs.com", SaveRequest{
		ID:             "rec-existing",
		Marketplace:    "meli",
		ComputeRequest: computeRequest(),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	// the record must not be rewritten with fresh creation stamps
	require.Nil(t, repo.lastUpsert)
	require.Empty(t, audit.actions)
}

func TestServiceSave_ExplicitIDOnMissingRecordCreates(t *testing.T) {
	repo := newFakeRepo()
	svc, audit := newTestService(t, repo)

	record, err := svc.Save(context.Background(), "ops@magislabs.com", SaveRequest{
		ID:             "rec-imported",
		Marketplace:    "meli",
		ComputeRequest: computeRequest(),
	})
	require.NoError(t, err)
	require.Equal(t, "rec-imported", record.ID)
	require.Contains(t, audit.actions, "pricing_record.created")
}

func TestServiceSuggestPrice(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())

	price, err := svc.SuggestPrice(context.Background(), SolveRequest{
		StoreID:           "store-1",
		Tier:              enums.TierClassico,
		Quantity:          1,
		UnitCost:          80,
		CommissionRuleKey: "eletronicos",
		TargetMargin:      20,
		WeightKG:          0.5,
	})
	require.NoError(t, err)
	require.Greater(t, price, 0.0)
}

func TestServiceBulkUpdate_EmptySelectionIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc, audit := newTestService(t, repo)

	count, err := svc.BulkUpdate(context.Background(), "ops@magislabs.com", BulkUpdateRequest{
		Field:     enums.BulkFieldUnitCost,
		CostValue: 12,
	})
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, repo.bulkCostCalls)
	require.Empty(t, audit.actions)
}

func TestServiceBulkUpdate_Cost(t *testing.T) {
	repo := newFakeRepo()
	svc, audit := newTestService(t, repo)

	count, err := svc.BulkUpdate(context.Background(), "ops@magislabs.com", BulkUpdateRequest{
		IDs:       []string{"a", "b", "c"},
		Field:     enums.BulkFieldUnitCost,
		CostValue: 49.999,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.Equal(t, 50.0, repo.lastBulkValue)
	require.Equal(t, "ops@magislabs.com", repo.lastBulkActor)
	require.Contains(t, audit.actions, "pricing_record.bulk_updated")
}

func TestServiceBulkUpdate_Validation(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())

	_, err := svc.BulkUpdate(context.Background(), "ops", BulkUpdateRequest{
		IDs:       []string{"a"},
		Field:     enums.BulkField("title"),
		CostValue: 10,
	})
	requireValidation(t, err)

	_, err = svc.BulkUpdate(context.Background(), "ops", BulkUpdateRequest{
		IDs:       []string{"a"},
		Field:     enums.BulkFieldUnitCost,
		CostValue: -1,
	})
	requireValidation(t, err)

	_, err = svc.BulkUpdate(context.Background(), "ops", BulkUpdateRequest{
		IDs:   []string{"a"},
		Field: enums.BulkFieldCategory,
	})
	requireValidation(t, err)
}

func TestServiceDelete_Audits(t *testing.T) {
	repo := newFakeRepo()
	svc, audit := newTestService(t, repo)

	record, err := svc.Save(context.Background(), "ops", SaveRequest{
		Marketplace:    "meli",
		ComputeRequest: computeRequest(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "ops", record.ID))
	require.Equal(t, []string{record.ID}, repo.deleteCalls)
	require.Contains(t, audit.actions, "pricing_record.deleted")
}
