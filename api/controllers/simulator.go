package controllers

import (
	"net/http"
	"strings"

	"github.com/magislabs/pricing-backend/api/responses"
	"github.com/magislabs/pricing-backend/api/validators"
	pricingsvc "github.com/magislabs/pricing-backend/internal/pricing"
	simsvc "github.com/magislabs/pricing-backend/internal/simulation"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

type simulateRequest struct {
	RecordIDs []string `json:"record_ids" validate:"dive,required"`
	StoreID   string   `json:"store_id"`
	Category  string   `json:"category"`
	Search    string   `json:"search"`
	Field     string   `json:"field" validate:"required"`
	Operation string   `json:"operation" validate:"required"`
	Magnitude float64  `json:"magnitude" validate:"gt=0"`
}

func (p simulateRequest) filter() *pricingsvc.ListFilter {
	filter := pricingsvc.ListFilter{
		StoreID:  strings.TrimSpace(p.StoreID),
		Search:   strings.TrimSpace(p.Search),
		Category: strings.TrimSpace(p.Category),
	}
	if filter == (pricingsvc.ListFilter{}) {
		return nil
	}
	return &filter
}

// Simulate runs a what-if adjustment over saved records without persisting.
func Simulate(svc simsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload simulateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		field := enums.SimField(strings.TrimSpace(payload.Field))
		if !field.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid simulation field"))
			return
		}

		operation, err := enums.ParseSimOperation(strings.TrimSpace(payload.Operation))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid simulation operation"))
			return
		}

		result, err := svc.Simulate(r.Context(), simsvc.Request{
			RecordIDs: payload.RecordIDs,
			Filter:    payload.filter(),
			Action: simsvc.Action{
				Field:     field,
				Operation: operation,
				Magnitude: payload.Magnitude,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
