package audit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

type fakeInserter struct {
	table string
	rows  []any
	err   error
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.table = table
	f.rows = append(f.rows, rows...)
	return f.err
}

func newTestWriter(t *testing.T, client *fakeInserter) *Writer {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	writer, err := NewWriter(client, config.BigQueryConfig{AuditTable: "audit_log"}, logg)
	require.NoError(t, err)
	writer.now = func() time.Time {
		return time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	}
	return writer
}

func TestWriter_Append(t *testing.T) {
	client := &fakeInserter{}
	writer := newTestWriter(t, client)

	writer.Append(context.Background(), "ana@acme.io", "pricing_record.created", "pricing_record", "rec-1", map[string]any{
		"sku": "SKU-001",
	})

	require.Len(t, client.rows, 1)
	assert.Equal(t, "audit_log", client.table)

	entry, ok := client.rows[0].(Entry)
	require.True(t, ok)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "ana@acme.io", entry.Actor)
	assert.Equal(t, "pricing_record.created", entry.Action)
	assert.Equal(t, "pricing_record", entry.Entity)
	assert.Equal(t, "rec-1", entry.EntityID)
	assert.JSONEq(t, `{"sku":"SKU-001"}`, entry.Details)
	assert.Equal(t, time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC), entry.OccurredAt)
}

func TestWriter_AppendNeverFails(t *testing.T) {
	client := &fakeInserter{err: errors.New("stream closed")}
	writer := newTestWriter(t, client)

	// failure is swallowed and logged
	writer.Append(context.Background(), "ana@acme.io", "store.deleted", "store", "s-1", nil)
	require.Len(t, client.rows, 1)

	entry := client.rows[0].(Entry)
	assert.Empty(t, entry.Details)
}

func TestWriter_AppendDetachedFromCancelledContext(t *testing.T) {
	client := &fakeInserter{}
	writer := newTestWriter(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	writer.Append(ctx, "ana@acme.io", "campaign.created", "campaign", "c-1", nil)
	require.Len(t, client.rows, 1)
}
