package dashboard

import (
	"context"
	"fmt"
	"time"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/magislabs/pricing-backend/pkg/bigquery"
	"github.com/magislabs/pricing-backend/pkg/config"
)

const alertRowLimit = 50

const outdatedCostsSQL = `
SELECT id, sku, title, category, unit_cost, updated_at
FROM %s
WHERE updated_at < @cutoff
ORDER BY updated_at ASC
LIMIT @limit
`

const stagnantRecordsSQL = `
SELECT p.id, p.sku, p.title, p.category, p.unit_cost, p.updated_at,
  s.last_sale_at
FROM %s p
LEFT JOIN (
  SELECT sku, MAX(sold_at) AS last_sale_at FROM %s GROUP BY sku
) s ON p.sku = s.sku
WHERE s.last_sale_at IS NULL OR s.last_sale_at < @cutoff
ORDER BY p.sku ASC
LIMIT @limit
`

const profitByCategorySQL = `
SELECT
  IFNULL(NULLIF(p.category, ''), 'uncategorized') AS category,
  SUM(s.revenue) AS revenue,
  SUM(s.profit) AS profit,
  COUNT(*) AS sale_count
FROM %s s
LEFT JOIN %s p ON s.record_id = p.id
WHERE s.sold_at >= @since
GROUP BY category
ORDER BY profit DESC
`

const profitEvolutionSQL = `
SELECT
  FORMAT_DATE('%%Y-%%m', DATE(s.sold_at)) AS month,
  SUM(s.revenue) AS revenue,
  SUM(s.profit) AS profit,
  COUNT(*) AS sale_count
FROM %s s
WHERE s.sold_at >= @since
GROUP BY month
ORDER BY month ASC
`

// RecordAlert is one pricing record flagged by an alert query.
type RecordAlert struct {
	ID         string    `bigquery:"id" json:"id"`
	SKU        string    `bigquery:"sku" json:"sku"`
	Title      string    `bigquery:"title" json:"title"`
	Category   string    `bigquery:"category" json:"category"`
	UnitCost   float64   `bigquery:"unit_cost" json:"unit_cost"`
	UpdatedAt  time.Time `bigquery:"updated_at" json:"updated_at"`
	LastSaleAt time.Time `bigquery:"last_sale_at" json:"last_sale_at,omitzero"`
}

// CategoryProfit is one slice of the profit-by-category chart.
type CategoryProfit struct {
	Category  string  `bigquery:"category" json:"category"`
	Revenue   float64 `bigquery:"revenue" json:"revenue"`
	Profit    float64 `bigquery:"profit" json:"profit"`
	SaleCount int64   `bigquery:"sale_count" json:"sale_count"`
}

// MonthlyProfit is one point of the profit-evolution series.
type MonthlyProfit struct {
	Month     string  `bigquery:"month" json:"month"`
	Revenue   float64 `bigquery:"revenue" json:"revenue"`
	Profit    float64 `bigquery:"profit" json:"profit"`
	SaleCount int64   `bigquery:"sale_count" json:"sale_count"`
}

// Repository runs the dashboard aggregate queries against the warehouse.
type Repository interface {
	OutdatedCosts(ctx context.Context, cutoff time.Time) ([]RecordAlert, error)
	StagnantRecords(ctx context.Context, cutoff time.Time) ([]RecordAlert, error)
	ProfitByCategory(ctx context.Context, since time.Time) ([]CategoryProfit, error)
	ProfitEvolution(ctx context.Context, since time.Time) ([]MonthlyProfit, error)
}

type repository struct {
	client     *bigquery.Client
	pricingRef string
	salesRef   string
}

// NewRepository builds the warehouse repository for dashboard queries.
func NewRepository(client *bigquery.Client, cfg config.BigQueryConfig) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	return &repository{
		client:     client,
		pricingRef: client.TableRef(cfg.PricingTable),
		salesRef:   client.TableRef(cfg.SalesTable),
	}, nil
}

func (r *repository) OutdatedCosts(ctx context.Context, cutoff time.Time) ([]RecordAlert, error) {
	return queryRows[RecordAlert](ctx, r.client, fmt.Sprintf(outdatedCostsSQL, r.pricingRef), []cloudbigquery.QueryParameter{
		{Name: "cutoff", Value: cutoff},
		{Name: "limit", Value: int64(alertRowLimit)},
	})
}

func (r *repository) StagnantRecords(ctx context.Context, cutoff time.Time) ([]RecordAlert, error) {
	return queryRows[RecordAlert](ctx, r.client, fmt.Sprintf(stagnantRecordsSQL, r.pricingRef, r.salesRef), []cloudbigquery.QueryParameter{
		{Name: "cutoff", Value: cutoff},
		{Name: "limit", Value: int64(alertRowLimit)},
	})
}

func (r *repository) ProfitByCategory(ctx context.Context, since time.Time) ([]CategoryProfit, error) {
	return queryRows[CategoryProfit](ctx, r.client, fmt.Sprintf(profitByCategorySQL, r.salesRef, r.pricingRef), []cloudbigquery.QueryParameter{
		{Name: "since", Value: since},
	})
}

func (r *repository) ProfitEvolution(ctx context.Context, since time.Time) ([]MonthlyProfit, error) {
	return queryRows[MonthlyProfit](ctx, r.client, fmt.Sprintf(profitEvolutionSQL, r.salesRef), []cloudbigquery.QueryParameter{
		{Name: "since", Value: since},
	})
}

func queryRows[T any](ctx context.Context, client *bigquery.Client, sql string, params []cloudbigquery.QueryParameter) ([]T, error) {
	iter, err := client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("querying dashboard rows: %w", err)
	}

	var rows []T
	for {
		var row T
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading dashboard row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
