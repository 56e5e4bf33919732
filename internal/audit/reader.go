package audit

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/magislabs/pricing-backend/pkg/bigquery"
	"github.com/magislabs/pricing-backend/pkg/config"
)

const listEntriesSQL = `
SELECT * FROM %s ORDER BY occurred_at DESC LIMIT @limit
`

// Reader serves the most recent audit entries from the warehouse.
type Reader struct {
	client   *bigquery.Client
	tableRef string
}

// NewReader constructs the audit reader.
func NewReader(client *bigquery.Client, cfg config.BigQueryConfig) (*Reader, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	return &Reader{
		client:   client,
		tableRef: client.TableRef(cfg.AuditTable),
	}, nil
}

// List returns up to limit entries, newest first.
func (r *Reader) List(ctx context.Context, limit int) ([]Entry, error) {
	iter, err := r.client.Query(ctx, fmt.Sprintf(listEntriesSQL, r.tableRef), []cloudbigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}

	var entries []Entry
	for {
		var entry Entry
		if err := iter.Next(&entry); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
