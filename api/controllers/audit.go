package controllers

import (
	"context"
	"net/http"

	"github.com/magislabs/pricing-backend/api/responses"
	"github.com/magislabs/pricing-backend/api/validators"
	"github.com/magislabs/pricing-backend/internal/audit"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditLister serves the most recent audit entries.
type AuditLister interface {
	List(ctx context.Context, limit int) ([]audit.Entry, error)
}

// ListAuditLog returns the latest audit entries, newest first.
func ListAuditLog(lister AuditLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultAuditLimit, 1, maxAuditLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := lister.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if entries == nil {
			entries = []audit.Entry{}
		}

		responses.WriteSuccess(w, entries)
	}
}
