package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

type fakeCatalogRepo struct {
	products map[string]*ProductFact
}

func (f *fakeCatalogRepo) Upsert(_ context.Context, product *ProductFact) error {
	f.products[product.SKU] = product
	return nil
}

func (f *fakeCatalogRepo) GetBySKU(_ context.Context, sku string) (*ProductFact, error) {
	product, ok := f.products[sku]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (f *fakeCatalogRepo) Search(_ context.Context, _ string, _ int) ([]ProductFact, error) {
	var out []ProductFact
	for _, product := range f.products {
		out = append(out, *product)
	}
	return out, nil
}

type fakeCatalogAuditor struct {
	actions []string
}

func (f *fakeCatalogAuditor) Append(_ context.Context, _, action, _, _ string, _ map[string]any) {
	f.actions = append(f.actions, action)
}

func setupCatalogService(t *testing.T) (Service, *fakeCatalogRepo, *fakeCatalogAuditor) {
	t.Helper()

	repo := &fakeCatalogRepo{products: map[string]*ProductFact{}}
	audit := &fakeCatalogAuditor{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(repo, audit, logg)
	require.NoError(t, err)
	return svc, repo, audit
}

func TestService_Upsert(t *testing.T) {
	svc, repo, audit := setupCatalogService(t)
	ctx := context.Background()

	product, err := svc.Upsert(ctx, "ana@acme.io", UpsertInput{
		SKU:      "SKU-001",
		Title:    "Wireless Mouse",
		UnitCost: 35.5,
		WeightKG: 0.2,
		HeightCM: 5,
		WidthCM:  10,
		LengthCM: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.io", product.UpdatedBy)
	assert.False(t, product.UpdatedAt.IsZero())
	require.Contains(t, repo.products, "SKU-001")
	assert.Equal(t, []string{"product.upserted"}, audit.actions)

	fetched, err := svc.Get(ctx, "SKU-001")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", fetched.Title)
}

func TestService_UpsertValidation(t *testing.T) {
	svc, _, audit := setupCatalogService(t)
	ctx := context.Background()

	cases := map[string]UpsertInput{
		"missing sku":     {Title: "x", UnitCost: 1},
		"negative cost":   {SKU: "s", Title: "x", UnitCost: -1},
		"negative weight": {SKU: "s", Title: "x", WeightKG: -0.5},
		"negative height": {SKU: "s", Title: "x", HeightCM: -2},
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, "ana@acme.io", input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
	assert.Empty(t, audit.actions)
}

func TestProductFact_ChargeableWeight(t *testing.T) {
	// 30×40×50 cm → 10 kg cubic, heavier than the 2 kg real weight
	bulky := ProductFact{WeightKG: 2, HeightCM: 30, WidthCM: 40, LengthCM: 50}
	assert.Equal(t, 10.0, bulky.CubicWeightKG())
	assert.Equal(t, 10.0, bulky.ChargeableWeightKG())

	dense := ProductFact{WeightKG: 5, HeightCM: 10, WidthCM: 10, LengthCM: 10}
	assert.Equal(t, 5.0, dense.ChargeableWeightKG())

	flat := ProductFact{WeightKG: 1}
	assert.Zero(t, flat.CubicWeightKG())
	assert.Equal(t, 1.0, flat.ChargeableWeightKG())
}
