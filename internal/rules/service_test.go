package rules

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

func setupRulesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS fixed_tariff_rules (
  id TEXT PRIMARY KEY,
  min_sale_value NUMERIC NOT NULL,
  max_sale_value NUMERIC,
  flat_fee NUMERIC NOT NULL DEFAULT 0,
  percent_fee NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS shipping_rules (
  id TEXT PRIMARY KEY,
  min_sale_value NUMERIC NOT NULL,
  max_sale_value NUMERIC,
  min_weight_g NUMERIC NOT NULL,
  max_weight_g NUMERIC,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS pricing_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  default_margin NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type memoryCache struct {
	entries map[string][]byte
	cleared int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Key(scope string, parts ...string) string {
	return strings.Join(append([]string{"test", scope}, parts...), ":")
}

func (m *memoryCache) GetOrCompute(ctx context.Context, key string, dest any, compute func(context.Context) (any, error)) error {
	if raw, ok := m.entries[key]; ok {
		return json.Unmarshal(raw, dest)
	}
	value, err := compute(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Clear(_ context.Context) error {
	m.entries = map[string][]byte{}
	m.cleared++
	return nil
}

type ruleAuditEntry struct {
	action string
	entity string
}

type fakeRuleAuditor struct {
	entries []ruleAuditEntry
}

func (f *fakeRuleAuditor) Append(_ context.Context, _, action, entity, _ string, _ map[string]any) {
	f.entries = append(f.entries, ruleAuditEntry{action: action, entity: entity})
}

type rulesFixture struct {
	svc   Service
	cache *memoryCache
	audit *fakeRuleAuditor
}

func setupRulesService(t *testing.T) rulesFixture {
	t.Helper()

	cache := newMemoryCache()
	audit := &fakeRuleAuditor{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(NewRepository(setupRulesTestDB(t)), cache, audit, logg)
	require.NoError(t, err)

	return rulesFixture{svc: svc, cache: cache, audit: audit}
}

func fptr(v float64) *float64 { return &v }

func seedTables(t *testing.T, fx rulesFixture) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, fx.svc.ReplaceTariffs(ctx, "ana@acme.io", []TariffBracketInput{
		{MinSaleValue: 0, MaxSaleValue: fptr(79), FlatFee: 6, PercentFee: 0},
		{MinSaleValue: 79, FlatFee: 10, PercentFee: 0},
	}))
	require.NoError(t, fx.svc.ReplaceShipping(ctx, "ana@acme.io", []ShippingBracketInput{
		{MinSaleValue: 0, MaxSaleValue: fptr(200), MinWeightG: 0, MaxWeightG: fptr(1000), ShippingCost: 10},
		{MinSaleValue: 200, MinWeightG: 0, ShippingCost: 15},
	}))
}

func TestService_ReplaceTariffs(t *testing.T) {
	fx := setupRulesFixtureWithSeed(t)
	ctx := context.Background()

	rules, err := fx.svc.ListTariffs(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 6.0, rules[0].FlatFee.InexactFloat64())
	require.NotNil(t, rules[0].MaxSaleValue)
	assert.Equal(t, 79.0, rules[0].MaxSaleValue.InexactFloat64())
	assert.Nil(t, rules[1].MaxSaleValue)

	// replace-set semantics: a second call swaps the whole table
	require.NoError(t, fx.svc.ReplaceTariffs(ctx, "ana@acme.io", []TariffBracketInput{
		{MinSaleValue: 0, FlatFee: 4, PercentFee: 2},
	}))
	rules, err = fx.svc.ListTariffs(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 2.0, rules[0].PercentFee.InexactFloat64())
}

func setupRulesFixtureWithSeed(t *testing.T) rulesFixture {
	fx := setupRulesService(t)
	seedTables(t, fx)
	return fx
}

func TestService_ReplaceTariffsValidation(t *testing.T) {
	fx := setupRulesService(t)
	ctx := context.Background()

	cases := map[string][]TariffBracketInput{
		"empty":               {},
		"negative start":      {{MinSaleValue: -1}},
		"inverted bracket":    {{MinSaleValue: 100, MaxSaleValue: fptr(50)}},
		"percent over 100":    {{MinSaleValue: 0, PercentFee: 120}},
		"overlap":             {{MinSaleValue: 0, MaxSaleValue: fptr(100)}, {MinSaleValue: 50, MaxSaleValue: fptr(150)}},
		"open-ended not last": {{MinSaleValue: 0}, {MinSaleValue: 100, MaxSaleValue: fptr(200)}},
	}

	for name, inputs := range cases {
		t.Run(name, func(t *testing.T) {
			err := fx.svc.ReplaceTariffs(ctx, "ana@acme.io", inputs)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
	assert.Empty(t, fx.audit.entries)
}

func TestService_ReplaceShippingValidation(t *testing.T) {
	fx := setupRulesService(t)
	ctx := context.Background()

	cases := map[string][]ShippingBracketInput{
		"empty":             {},
		"negative weight":   {{MinSaleValue: 0, MinWeightG: -5}},
		"inverted sale":     {{MinSaleValue: 100, MaxSaleValue: fptr(50), MinWeightG: 0}},
		"inverted weight":   {{MinSaleValue: 0, MinWeightG: 500, MaxWeightG: fptr(100)}},
		"negative shipping": {{MinSaleValue: 0, MinWeightG: 0, ShippingCost: -1}},
	}

	for name, inputs := range cases {
		t.Run(name, func(t *testing.T) {
			err := fx.svc.ReplaceShipping(ctx, "ana@acme.io", inputs)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestService_FeeTables(t *testing.T) {
	fx := setupRulesFixtureWithSeed(t)
	ctx := context.Background()

	tables, err := fx.svc.FeeTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables.Tariffs, 2)
	require.Len(t, tables.Shipping, 2)

	assert.Equal(t, 6.0, tables.Tariffs[0].FlatFee)
	require.NotNil(t, tables.Tariffs[0].MaxSaleValue)
	assert.Equal(t, 79.0, *tables.Tariffs[0].MaxSaleValue)
	assert.Nil(t, tables.Tariffs[1].MaxSaleValue)
	assert.Equal(t, 15.0, tables.Shipping[1].Cost)
	assert.Nil(t, tables.Shipping[1].MaxWeightG)

	// second read is served from the cache entry
	_, cached := fx.cache.entries[fx.cache.Key("fee_tables")]
	assert.True(t, cached)

	// rule mutations invalidate cached tables
	clearedBefore := fx.cache.cleared
	require.NoError(t, fx.svc.ReplaceTariffs(ctx, "ana@acme.io", []TariffBracketInput{
		{MinSaleValue: 0, FlatFee: 9},
	}))
	assert.Equal(t, clearedBefore+1, fx.cache.cleared)

	tables, err = fx.svc.FeeTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables.Tariffs, 1)
	assert.Equal(t, 9.0, tables.Tariffs[0].FlatFee)
}

func TestService_Categories(t *testing.T) {
	fx := setupRulesService(t)
	ctx := context.Background()

	created, err := fx.svc.CreateCategory(ctx, "ana@acme.io", CategoryInput{
		Name:          "electronics",
		DefaultMargin: 18.5,
	})
	require.NoError(t, err)

	margin, err := fx.svc.DefaultMarginFor(ctx, "electronics")
	require.NoError(t, err)
	assert.Equal(t, 18.5, margin)

	updated, err := fx.svc.UpdateCategory(ctx, "ana@acme.io", created.ID, CategoryInput{
		Name:          "electronics",
		DefaultMargin: 22,
	})
	require.NoError(t, err)
	assert.Equal(t, 22.0, updated.DefaultMargin.InexactFloat64())

	categories, err := fx.svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	require.NoError(t, fx.svc.DeleteCategory(ctx, "ana@acme.io", created.ID))

	_, err = fx.svc.DefaultMarginFor(ctx, "electronics")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = fx.svc.CreateCategory(ctx, "ana@acme.io", CategoryInput{Name: "", DefaultMargin: 10})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = fx.svc.CreateCategory(ctx, "ana@acme.io", CategoryInput{Name: "x", DefaultMargin: 100})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
