package catalog

import (
	"context"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/magislabs/pricing-backend/pkg/bigquery"
	"github.com/magislabs/pricing-backend/pkg/config"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

const upsertProductSQL = `
MERGE %s T
USING (SELECT @sku AS sku) S
ON T.sku = S.sku
WHEN MATCHED THEN UPDATE SET
  title = @title,
  unit_cost = @unit_cost,
  weight_kg = @weight_kg,
  height_cm = @height_cm,
  width_cm = @width_cm,
  length_cm = @length_cm,
  updated_by = @updated_by,
  updated_at = @updated_at
WHEN NOT MATCHED THEN INSERT (
  sku, title, unit_cost, weight_kg, height_cm, width_cm, length_cm,
  updated_by, updated_at
) VALUES (
  @sku, @title, @unit_cost, @weight_kg, @height_cm, @width_cm, @length_cm,
  @updated_by, @updated_at
)
`

const selectProductSQL = `
SELECT * FROM %s WHERE sku = @sku LIMIT 1
`

const searchProductsSQL = `
SELECT * FROM %s
WHERE LOWER(sku) LIKE @term OR LOWER(title) LIKE @term
ORDER BY sku ASC
LIMIT @limit
`

// Repository persists product facts in the warehouse.
type Repository interface {
	Upsert(ctx context.Context, product *ProductFact) error
	GetBySKU(ctx context.Context, sku string) (*ProductFact, error)
	Search(ctx context.Context, term string, limit int) ([]ProductFact, error)
}

type repository struct {
	client   *bigquery.Client
	tableRef string
}

// NewRepository builds the warehouse repository for product facts.
func NewRepository(client *bigquery.Client, cfg config.BigQueryConfig) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	return &repository{
		client:   client,
		tableRef: client.TableRef(cfg.ProductsTable),
	}, nil
}

func (r *repository) Upsert(ctx context.Context, product *ProductFact) error {
	if product == nil || product.SKU == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product sku is required")
	}
	_, err := r.client.Exec(ctx, fmt.Sprintf(upsertProductSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "sku", Value: product.SKU},
		{Name: "title", Value: product.Title},
		{Name: "unit_cost", Value: product.UnitCost},
		{Name: "weight_kg", Value: product.WeightKG},
		{Name: "height_cm", Value: product.HeightCM},
		{Name: "width_cm", Value: product.WidthCM},
		{Name: "length_cm", Value: product.LengthCM},
		{Name: "updated_by", Value: product.UpdatedBy},
		{Name: "updated_at", Value: product.UpdatedAt},
	})
	if err != nil {
		return fmt.Errorf("upserting product %s: %w", product.SKU, err)
	}
	return nil
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*ProductFact, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product sku is required")
	}

	iter, err := r.client.Query(ctx, fmt.Sprintf(selectProductSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "sku", Value: sku},
	})
	if err != nil {
		return nil, fmt.Errorf("querying product %s: %w", sku, err)
	}

	var product ProductFact
	if err := iter.Next(&product); err != nil {
		if err == iterator.Done {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", sku))
		}
		return nil, fmt.Errorf("reading product %s: %w", sku, err)
	}
	return &product, nil
}

func (r *repository) Search(ctx context.Context, term string, limit int) ([]ProductFact, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	iter, err := r.client.Query(ctx, fmt.Sprintf(searchProductsSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "term", Value: pattern},
		{Name: "limit", Value: int64(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}

	var products []ProductFact
	for {
		var product ProductFact
		if err := iter.Next(&product); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading product row: %w", err)
		}
		products = append(products, product)
	}
	return products, nil
}
