package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/magislabs/pricing-backend/internal/audit"
)

type stubAuditLister struct {
	entries []audit.Entry
	limit   int
	err     error
}

func (s *stubAuditLister) List(_ context.Context, limit int) ([]audit.Entry, error) {
	s.limit = limit
	return s.entries, s.err
}

func TestListAuditLogReturnsEntries(t *testing.T) {
	lister := &stubAuditLister{entries: []audit.Entry{
		{ID: "log-1", Actor: "ana@acme.io", Action: "pricing_record.updated", OccurredAt: time.Now().UTC()},
		{ID: "log-2", Actor: "ana@acme.io", Action: "campaign.created", OccurredAt: time.Now().UTC()},
	}}
	handler := ListAuditLog(lister, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if lister.limit != defaultAuditLimit {
		t.Fatalf("expected default limit %d got %d", defaultAuditLimit, lister.limit)
	}

	var envelope struct {
		Data []audit.Entry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 entries got %d", len(envelope.Data))
	}
	if envelope.Data[0].ID != "log-1" {
		t.Fatalf("unexpected first entry: %+v", envelope.Data[0])
	}
}

func TestListAuditLogEmptyIsArray(t *testing.T) {
	handler := ListAuditLog(&stubAuditLister{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs?limit=10", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data []audit.Entry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data == nil {
		t.Fatal("expected empty array, got null")
	}
}

func TestListAuditLogRejectsBadLimit(t *testing.T) {
	handler := ListAuditLog(&stubAuditLister{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs?limit=9999", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
