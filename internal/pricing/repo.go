package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/magislabs/pricing-backend/pkg/bigquery"
	"github.com/magislabs/pricing-backend/pkg/config"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/pagination"
)

const upsertRecordSQL = `
MERGE %s T
USING (SELECT @id AS id) S
ON T.id = S.id
WHEN MATCHED THEN UPDATE SET
  marketplace = @marketplace,
  store_id = @store_id,
  sku = @sku,
  external_listing_id = @external_listing_id,
  catalog_listing_id = @catalog_listing_id,
  title = @title,
  category = @category,
  quantity = @quantity,
  unit_cost = @unit_cost,
  total_cost = @total_cost,
  tax_rate = @tax_rate,
  installment_rate = @installment_rate,
  other_rate = @other_rate,
  commission_rule_key = @commission_rule_key,
  fulfillment = @fulfillment,
  buy_box = @buy_box,
  classico_price = @classico_price,
  classico_shipping = @classico_shipping,
  classico_tariff = @classico_tariff,
  classico_payout = @classico_payout,
  classico_profit = @classico_profit,
  classico_margin = @classico_margin,
  premium_price = @premium_price,
  premium_shipping = @premium_shipping,
  premium_tariff = @premium_tariff,
  premium_payout = @premium_payout,
  premium_profit = @premium_profit,
  premium_margin = @premium_margin,
  updated_by = @updated_by,
  updated_at = @updated_at
WHEN NOT MATCHED THEN INSERT (
  id, marketplace, store_id, sku, external_listing_id, catalog_listing_id,
  title, category, quantity, unit_cost, total_cost, tax_rate,
  installment_rate, other_rate, commission_rule_key, fulfillment, buy_box,
  classico_price, classico_shipping, classico_tariff, classico_payout,
  classico_profit, classico_margin, premium_price, premium_shipping,
  premium_tariff, premium_payout, premium_profit, premium_margin,
  created_by, updated_by, created_at, updated_at
) VALUES (
  @id, @marketplace, @store_id, @sku, @external_listing_id,
  @catalog_listing_id, @title, @category, @quantity, @unit_cost,
  @total_cost, @tax_rate, @installment_rate, @other_rate,
  @commission_rule_key, @fulfillment, @buy_box, @classico_price,
  @classico_shipping, @classico_tariff, @classico_payout, @classico_profit,
  @classico_margin, @premium_price, @premium_shipping, @premium_tariff,
  @premium_payout, @premium_profit, @premium_margin, @created_by,
  @updated_by, @created_at, @updated_at
)
`

const selectRecordSQL = `
SELECT * FROM %s WHERE id = @id LIMIT 1
`

const selectRecordsByIDsSQL = `
SELECT * FROM %s WHERE id IN UNNEST(@ids)
`

const listRecordsSQL = `
SELECT * FROM %s
WHERE %s
ORDER BY updated_at DESC
LIMIT @limit OFFSET @offset
`

const countRecordsSQL = `
SELECT COUNT(*) AS total FROM %s WHERE %s
`

const bulkUpdateCostSQL = `
UPDATE %s
SET unit_cost = @value,
    total_cost = @value * quantity,
    updated_by = @actor,
    updated_at = @now
WHERE id IN UNNEST(@ids)
`

const bulkUpdateCategorySQL = `
UPDATE %s
SET category = @category,
    updated_by = @actor,
    updated_at = @now
WHERE id IN UNNEST(@ids)
`

const deleteCampaignPricesSQL = `
DELETE FROM %s WHERE record_id = @id
`

const deleteRecordSQL = `
DELETE FROM %s WHERE id = @id
`

// ListFilter narrows record listings.
type ListFilter struct {
	StoreID  string
	Search   string
	Category string
}

// Repository persists pricing records in the warehouse.
type Repository interface {
	Upsert(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	GetByIDs(ctx context.Context, ids []string) ([]Record, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]Record, int64, error)
	BulkUpdateCost(ctx context.Context, ids []string, value float64, actor string, now time.Time) (int64, error)
	BulkUpdateCategory(ctx context.Context, ids []string, category, actor string, now time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	client      *bigquery.Client
	recordRef   string
	campaignRef string
}

// NewRepository builds a warehouse repository over the configured tables.
func NewRepository(client *bigquery.Client, cfg config.BigQueryConfig) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	return &repository{
		client:      client,
		recordRef:   client.TableRef(cfg.PricingTable),
		campaignRef: client.TableRef(cfg.CampaignPricesTable),
	}, nil
}

func (r *repository) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record is required")
	}
	_, err := r.client.Exec(ctx, fmt.Sprintf(upsertRecordSQL, r.recordRef), recordParams(record))
	if err != nil {
		return fmt.Errorf("upserting pricing record: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Record, error) {
	iter, err := r.client.Query(ctx, fmt.Sprintf(selectRecordSQL, r.recordRef), []cloudbigquery.QueryParameter{
		{Name: "id", Value: id},
	})
	if err != nil {
		return nil, fmt.Errorf("querying pricing record: %w", err)
	}

	var record Record
	if err := iter.Next(&record); err != nil {
		if err == iterator.Done {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("pricing record %s not found", id))
		}
		return nil, fmt.Errorf("reading pricing record: %w", err)
	}
	return &record, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	iter, err := r.client.Query(ctx, fmt.Sprintf(selectRecordsByIDsSQL, r.recordRef), []cloudbigquery.QueryParameter{
		{Name: "ids", Value: ids},
	})
	if err != nil {
		return nil, fmt.Errorf("querying pricing records: %w", err)
	}

	var records []Record
	for {
		var record Record
		if err := iter.Next(&record); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading pricing record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]Record, int64, error) {
	clause, params := buildListClause(filter)

	var total int64
	countIter, err := r.client.Query(ctx, fmt.Sprintf(countRecordsSQL, r.recordRef, clause), params)
	if err != nil {
		return nil, 0, fmt.Errorf("counting pricing records: %w", err)
	}
	var countRow struct {
		Total int64 `bigquery:"total"`
	}
	if err := countIter.Next(&countRow); err != nil && err != iterator.Done {
		return nil, 0, fmt.Errorf("reading record count: %w", err)
	}
	total = countRow.Total

	pageParams := append(params,
		cloudbigquery.QueryParameter{Name: "limit", Value: int64(page.Limit())},
		cloudbigquery.QueryParameter{Name: "offset", Value: int64(page.Offset())},
	)
	iter, err := r.client.Query(ctx, fmt.Sprintf(listRecordsSQL, r.recordRef, clause), pageParams)
	if err != nil {
		return nil, 0, fmt.Errorf("listing pricing records: %w", err)
	}

	var records []Record
	for {
		var record Record
		if err := iter.Next(&record); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, 0, fmt.Errorf("reading pricing record: %w", err)
		}
		records = append(records, record)
	}
	return records, total, nil
}

func (r *repository) BulkUpdateCost(ctx context.Context, ids []string, value float64, actor string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.client.Exec(ctx, fmt.Sprintf(bulkUpdateCostSQL, r.recordRef), []cloudbigquery.QueryParameter{
		{Name: "value", Value: value},
		{Name: "actor", Value: actor},
		{Name: "now", Value: now},
		{Name: "ids", Value: ids},
	})
}

func (r *repository) BulkUpdateCategory(ctx context.Context, ids []string, category, actor string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.client.Exec(ctx, fmt.Sprintf(bulkUpdateCategorySQL, r.recordRef), []cloudbigquery.QueryParameter{
		{Name: "category", Value: category},
		{Name: "actor", Value: actor},
		{Name: "now", Value: now},
		{Name: "ids", Value: ids},
	})
}

// Delete removes the record and its campaign prices, campaign rows first so
// a mid-way failure never leaves orphaned promo rows.
func (r *repository) Delete(ctx context.Context, id string) error {
	params := []cloudbigquery.QueryParameter{{Name: "id", Value: id}}

	if _, err := r.client.Exec(ctx, fmt.Sprintf(deleteCampaignPricesSQL, r.campaignRef), params); err != nil {
		return fmt.Errorf("deleting campaign prices for record %s: %w", id, err)
	}

	affected, err := r.client.Exec(ctx, fmt.Sprintf(deleteRecordSQL, r.recordRef), params)
	if err != nil {
		return fmt.Errorf("deleting pricing record %s: %w", id, err)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("pricing record %s not found", id))
	}
	return nil
}

func buildListClause(filter ListFilter) (string, []cloudbigquery.QueryParameter) {
	clauses := []string{"TRUE"}
	params := []cloudbigquery.QueryParameter{}

	if filter.StoreID != "" {
		clauses = append(clauses, "store_id = @filter_store_id")
		params = append(params, cloudbigquery.QueryParameter{Name: "filter_store_id", Value: filter.StoreID})
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = @filter_category")
		params = append(params, cloudbigquery.QueryParameter{Name: "filter_category", Value: filter.Category})
	}
	if filter.Search != "" {
		clauses = append(clauses, "(LOWER(sku) LIKE @filter_search OR LOWER(title) LIKE @filter_search)")
		params = append(params, cloudbigquery.QueryParameter{
			Name:  "filter_search",
			Value: "%" + strings.ToLower(filter.Search) + "%",
		})
	}
	return strings.Join(clauses, " AND "), params
}

func recordParams(record *Record) []cloudbigquery.QueryParameter {
	return []cloudbigquery.QueryParameter{
		{Name: "id", Value: record.ID},
		{Name: "marketplace", Value: record.Marketplace},
		{Name: "store_id", Value: record.StoreID},
		{Name: "sku", Value: record.SKU},
		{Name: "external_listing_id", Value: record.ExternalListingID},
		{Name: "catalog_listing_id", Value: record.CatalogListingID},
		{Name: "title", Value: record.Title},
		{Name: "category", Value: record.Category},
		{Name: "quantity", Value: record.Quantity},
		{Name: "unit_cost", Value: record.UnitCost},
		{Name: "total_cost", Value: record.TotalCost},
		{Name: "tax_rate", Value: record.TaxRate},
		{Name: "installment_rate", Value: record.InstallmentRate},
		{Name: "other_rate", Value: record.OtherRate},
		{Name: "commission_rule_key", Value: record.CommissionRuleKey},
		{Name: "fulfillment", Value: record.Fulfillment},
		{Name: "buy_box", Value: record.BuyBox},
		{Name: "classico_price", Value: record.ClassicoPrice},
		{Name: "classico_shipping", Value: record.ClassicoShipping},
		{Name: "classico_tariff", Value: record.ClassicoTariff},
		{Name: "classico_payout", Value: record.ClassicoPayout},
		{Name: "classico_profit", Value: record.ClassicoProfit},
		{Name: "classico_margin", Value: record.ClassicoMargin},
		{Name: "premium_price", Value: record.PremiumPrice},
		{Name: "premium_shipping", Value: record.PremiumShipping},
		{Name: "premium_tariff", Value: record.PremiumTariff},
		{Name: "premium_payout", Value: record.PremiumPayout},
		{Name: "premium_profit", Value: record.PremiumProfit},
		{Name: "premium_margin", Value: record.PremiumMargin},
		{Name: "created_by", Value: record.CreatedBy},
		{Name: "updated_by", Value: record.UpdatedBy},
		{Name: "created_at", Value: record.CreatedAt},
		{Name: "updated_at", Value: record.UpdatedAt},
	}
}
