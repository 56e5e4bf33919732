package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/magislabs/pricing-backend/api/middleware"
	"github.com/magislabs/pricing-backend/api/responses"
	"github.com/magislabs/pricing-backend/api/validators"
	campaignsvc "github.com/magislabs/pricing-backend/internal/campaigns"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

type campaignRequest struct {
	Name            string     `json:"name" validate:"required"`
	StartsOn        *time.Time `json:"starts_on,omitempty"`
	EndsOn          *time.Time `json:"ends_on,omitempty"`
	DiscountPercent *float64   `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes           *string    `json:"notes,omitempty"`
}

func (p campaignRequest) toInput() campaignsvc.CampaignInput {
	return campaignsvc.CampaignInput{
		Name:            strings.TrimSpace(p.Name),
		StartsOn:        p.StartsOn,
		EndsOn:          p.EndsOn,
		DiscountPercent: p.DiscountPercent,
		Notes:           p.Notes,
	}
}

// CreateCampaign registers a promotional campaign.
func CreateCampaign(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload campaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		campaign, err := svc.Create(r.Context(), actor, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, campaign)
	}
}

// UpdateCampaign overwrites a campaign's fields.
func UpdateCampaign(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload campaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		campaign, err := svc.Update(r.Context(), actor, id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, campaign)
	}
}

// GetCampaign loads one campaign.
func GetCampaign(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, campaign)
	}
}

// ListCampaigns returns every campaign.
func ListCampaigns(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaigns, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, campaigns)
	}
}

// ListActiveCampaigns returns the campaigns whose window contains today.
func ListActiveCampaigns(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaigns, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, campaigns)
	}
}

// DeleteCampaign removes a campaign and its promotional prices.
func DeleteCampaign(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type discountSpecRequest struct {
	Type    string   `json:"type" validate:"required"`
	Value   float64  `json:"value" validate:"gte=0"`
	Floor   *float64 `json:"floor,omitempty" validate:"omitempty,gte=0"`
	Ceiling *float64 `json:"ceiling,omitempty" validate:"omitempty,gte=0"`
}

type applyCampaignRequest struct {
	RecordID      string                         `json:"record_id" validate:"required"`
	Channel       string                         `json:"channel"`
	Discounts     map[string]discountSpecRequest `json:"discounts" validate:"required,min=1"`
	StartsAt      *time.Time                     `json:"starts_at,omitempty"`
	EndsAt        *time.Time                     `json:"ends_at,omitempty"`
	ReservedStock int64                          `json:"reserved_stock" validate:"gte=0"`
	Notes         string                         `json:"notes"`
}

// ApplyCampaign layers a promotional price on a saved record.
func ApplyCampaign(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyCampaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discounts := make(map[enums.Tier]campaignsvc.DiscountSpec, len(payload.Discounts))
		for rawTier, spec := range payload.Discounts {
			tier, err := enums.ParseTier(strings.TrimSpace(rawTier))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
				return
			}
			discountType, err := enums.ParseDiscountType(strings.TrimSpace(spec.Type))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
				return
			}
			discounts[tier] = campaignsvc.DiscountSpec{
				Type:    discountType,
				Value:   spec.Value,
				Floor:   spec.Floor,
				Ceiling: spec.Ceiling,
			}
		}

		actor := middleware.ActorFromContext(r.Context())
		price, err := svc.ApplyToRecord(r.Context(), actor, campaignsvc.ApplyRequest{
			CampaignID:    campaignID,
			RecordID:      strings.TrimSpace(payload.RecordID),
			Channel:       enums.CampaignChannel(strings.TrimSpace(payload.Channel)),
			Discounts:     discounts,
			StartsAt:      payload.StartsAt,
			EndsAt:        payload.EndsAt,
			ReservedStock: payload.ReservedStock,
			Notes:         strings.TrimSpace(payload.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, price)
	}
}

// ListCampaignPrices returns the promotional prices under one campaign.
func ListCampaignPrices(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prices, err := svc.ListPricesByCampaign(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, prices)
	}
}

// ListRecordCampaignPrices returns the promotional prices layered on a record.
func ListRecordCampaignPrices(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordID := strings.TrimSpace(chi.URLParam(r, "id"))
		if recordID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
			return
		}

		prices, err := svc.ListPricesByRecord(r.Context(), recordID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, prices)
	}
}

// RemoveCampaignPrice drops one promotional price.
func RemoveCampaignPrice(svc campaignsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		priceID := strings.TrimSpace(chi.URLParam(r, "priceID"))
		if priceID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price id is required"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if err := svc.RemovePrice(r.Context(), actor, priceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
