package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

const appendTimeout = 10 * time.Second

// Entry is one audit row in the warehouse.
type Entry struct {
	ID         string    `bigquery:"id" json:"id"`
	Actor      string    `bigquery:"actor" json:"actor"`
	Action     string    `bigquery:"action" json:"action"`
	Entity     string    `bigquery:"entity" json:"entity"`
	EntityID   string    `bigquery:"entity_id" json:"entity_id"`
	Details    string    `bigquery:"details" json:"details,omitempty"`
	OccurredAt time.Time `bigquery:"occurred_at" json:"occurred_at"`
}

type inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Writer appends audit entries to the warehouse audit table. Writes are
// fire-and-forget: failures are logged and never surfaced to the caller,
// so a broken audit pipeline cannot fail a mutation.
type Writer struct {
	client inserter
	table  string
	logg   *logger.Logger
	now    func() time.Time
}

// NewWriter constructs the audit writer.
func NewWriter(client inserter, cfg config.BigQueryConfig, logg *logger.Logger) (*Writer, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Writer{
		client: client,
		table:  cfg.AuditTable,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Append records one audit entry. The write uses its own deadline detached
// from the request context so cancellation does not drop the row.
func (w *Writer) Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any) {
	entry := Entry{
		ID:         uuid.NewString(),
		Actor:      actor,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		OccurredAt: w.now().UTC(),
	}
	if len(details) > 0 {
		encoded, err := json.Marshal(details)
		if err != nil {
			w.logg.Warn(ctx, fmt.Sprintf("encoding audit details for %s: %v", action, err))
		} else {
			entry.Details = string(encoded)
		}
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()

	if err := w.client.InsertRows(writeCtx, w.table, []any{entry}); err != nil {
		w.logg.Warn(ctx, fmt.Sprintf("appending audit entry %s: %v", action, err))
	}
}
