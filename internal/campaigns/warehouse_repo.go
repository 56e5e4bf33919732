package campaigns

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/magislabs/pricing-backend/pkg/bigquery"
	"github.com/magislabs/pricing-backend/pkg/config"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

const upsertPriceSQL = `
MERGE %s T
USING (SELECT @record_id AS record_id, @campaign_id AS campaign_id, @channel AS channel) S
ON T.record_id = S.record_id AND T.campaign_id = S.campaign_id AND T.channel = S.channel
WHEN MATCHED THEN UPDATE SET
  classico_discount_type = @classico_discount_type,
  classico_discount_value = @classico_discount_value,
  classico_price = @classico_price,
  classico_payout = @classico_payout,
  classico_profit = @classico_profit,
  classico_margin = @classico_margin,
  premium_discount_type = @premium_discount_type,
  premium_discount_value = @premium_discount_value,
  premium_price = @premium_price,
  premium_payout = @premium_payout,
  premium_profit = @premium_profit,
  premium_margin = @premium_margin,
  starts_at = @starts_at,
  ends_at = @ends_at,
  reserved_stock = @reserved_stock,
  notes = @notes,
  updated_by = @updated_by,
  updated_at = @updated_at
WHEN NOT MATCHED THEN INSERT (
  id, record_id, campaign_id, channel, classico_discount_type,
  classico_discount_value, classico_price, classico_payout, classico_profit,
  classico_margin, premium_discount_type, premium_discount_value,
  premium_price, premium_payout, premium_profit, premium_margin, starts_at,
  ends_at, reserved_stock, notes, created_by, updated_by, created_at,
  updated_at
) VALUES (
  @id, @record_id, @campaign_id, @channel, @classico_discount_type,
  @classico_discount_value, @classico_price, @classico_payout,
  @classico_profit, @classico_margin, @premium_discount_type,
  @premium_discount_value, @premium_price, @premium_payout, @premium_profit,
  @premium_margin, @starts_at, @ends_at, @reserved_stock, @notes,
  @created_by, @updated_by, @created_at, @updated_at
)
`

const selectPriceByKeySQL = `
SELECT * FROM %s
WHERE record_id = @record_id AND campaign_id = @campaign_id AND channel = @channel
LIMIT 1
`

const listPricesByCampaignSQL = `
SELECT * FROM %s WHERE campaign_id = @campaign_id ORDER BY updated_at DESC
`

const listPricesByRecordSQL = `
SELECT * FROM %s WHERE record_id = @record_id ORDER BY updated_at DESC
`

const deletePricesByCampaignSQL = `
DELETE FROM %s WHERE campaign_id = @campaign_id
`

const deletePriceSQL = `
DELETE FROM %s WHERE id = @id
`

// PriceRepository persists campaign price records in the warehouse.
type PriceRepository interface {
	Upsert(ctx context.Context, record *PriceRecord) error
	FindByKey(ctx context.Context, recordID, campaignID, channel string) (*PriceRecord, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]PriceRecord, error)
	ListByRecord(ctx context.Context, recordID string) ([]PriceRecord, error)
	DeleteByCampaign(ctx context.Context, campaignID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type priceRepository struct {
	client   *bigquery.Client
	tableRef string
}

// NewPriceRepository builds the warehouse repository for campaign prices.
func NewPriceRepository(client *bigquery.Client, cfg config.BigQueryConfig) (PriceRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	return &priceRepository{
		client:   client,
		tableRef: client.TableRef(cfg.CampaignPricesTable),
	}, nil
}

func (r *priceRepository) Upsert(ctx context.Context, record *PriceRecord) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "campaign price record is required")
	}
	_, err := r.client.Exec(ctx, fmt.Sprintf(upsertPriceSQL, r.tableRef), priceParams(record))
	if err != nil {
		return fmt.Errorf("upserting campaign price: %w", err)
	}
	return nil
}

// FindByKey resolves the stored row for one (record, campaign, channel)
// overlay. Returns nil when no row exists yet.
func (r *priceRepository) FindByKey(ctx context.Context, recordID, campaignID, channel string) (*PriceRecord, error) {
	records, err := r.list(ctx, fmt.Sprintf(selectPriceByKeySQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "record_id", Value: recordID},
		{Name: "campaign_id", Value: campaignID},
		{Name: "channel", Value: channel},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (r *priceRepository) ListByCampaign(ctx context.Context, campaignID string) ([]PriceRecord, error) {
	return r.list(ctx, fmt.Sprintf(listPricesByCampaignSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "campaign_id", Value: campaignID},
	})
}

func (r *priceRepository) ListByRecord(ctx context.Context, recordID string) ([]PriceRecord, error) {
	return r.list(ctx, fmt.Sprintf(listPricesByRecordSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "record_id", Value: recordID},
	})
}

func (r *priceRepository) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	return r.client.Exec(ctx, fmt.Sprintf(deletePricesByCampaignSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "campaign_id", Value: campaignID},
	})
}

func (r *priceRepository) Delete(ctx context.Context, id string) error {
	affected, err := r.client.Exec(ctx, fmt.Sprintf(deletePriceSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("deleting campaign price %s: %w", id, err)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("campaign price %s not found", id))
	}
	return nil
}

func (r *priceRepository) list(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]PriceRecord, error) {
	iter, err := r.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("querying campaign prices: %w", err)
	}

	var records []PriceRecord
	for {
		var record PriceRecord
		if err := iter.Next(&record); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading campaign price: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func priceParams(record *PriceRecord) []cloudbigquery.QueryParameter {
	return []cloudbigquery.QueryParameter{
		{Name: "id", Value: record.ID},
		{Name: "record_id", Value: record.RecordID},
		{Name: "campaign_id", Value: record.CampaignID},
		{Name: "channel", Value: record.Channel},
		{Name: "classico_discount_type", Value: record.ClassicoDiscountType},
		{Name: "classico_discount_value", Value: record.ClassicoDiscountValue},
		{Name: "classico_price", Value: record.ClassicoPrice},
		{Name: "classico_payout", Value: record.ClassicoPayout},
		{Name: "classico_profit", Value: record.ClassicoProfit},
		{Name: "classico_margin", Value: record.ClassicoMargin},
		{Name: "premium_discount_type", Value: record.PremiumDiscountType},
		{Name: "premium_discount_value", Value: record.PremiumDiscountValue},
		{Name: "premium_price", Value: record.PremiumPrice},
		{Name: "premium_payout", Value: record.PremiumPayout},
		{Name: "premium_profit", Value: record.PremiumProfit},
		{Name: "premium_margin", Value: record.PremiumMargin},
		{Name: "starts_at", Value: record.StartsAt},
		{Name: "ends_at", Value: record.EndsAt},
		{Name: "reserved_stock", Value: record.ReservedStock},
		{Name: "notes", Value: record.Notes},
		{Name: "created_by", Value: record.CreatedBy},
		{Name: "updated_by", Value: record.UpdatedBy},
		{Name: "created_at", Value: record.CreatedAt},
		{Name: "updated_at", Value: record.UpdatedAt},
	}
}
