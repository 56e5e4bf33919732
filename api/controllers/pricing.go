package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/magislabs/pricing-backend/api/middleware"
	"github.com/magislabs/pricing-backend/api/responses"
	"github.com/magislabs/pricing-backend/api/validators"
	pricingsvc "github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/pagination"
)

type computeRequest struct {
	StoreID           string  `json:"store_id" validate:"required"`
	SKU               string  `json:"sku"`
	Title             string  `json:"title"`
	Category          string  `json:"category"`
	Quantity          int     `json:"quantity" validate:"required,min=1"`
	UnitCost          float64 `json:"unit_cost" validate:"gte=0"`
	SalePriceClassico float64 `json:"sale_price_classico" validate:"gte=0"`
	SalePricePremium  float64 `json:"sale_price_premium" validate:"gte=0"`
	TaxRate           float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	InstallmentRate   float64 `json:"installment_rate" validate:"gte=0,lte=100"`
	OtherRate         float64 `json:"other_rate" validate:"gte=0,lte=100"`
	CommissionRuleKey string  `json:"commission_rule_key"`
	Fulfillment       bool    `json:"fulfillment"`
	BuyBox            bool    `json:"buy_box"`
	WeightKG          float64 `json:"weight_kg" validate:"gte=0"`
	HeightCM          float64 `json:"height_cm" validate:"gte=0"`
	WidthCM           float64 `json:"width_cm" validate:"gte=0"`
	LengthCM          float64 `json:"length_cm" validate:"gte=0"`
}

func (p computeRequest) toComputeRequest() pricingsvc.ComputeRequest {
	return pricingsvc.ComputeRequest{
		StoreID:           strings.TrimSpace(p.StoreID),
		SKU:               strings.TrimSpace(p.SKU),
		Title:             strings.TrimSpace(p.Title),
		Category:          strings.TrimSpace(p.Category),
		Quantity:          p.Quantity,
		UnitCost:          p.UnitCost,
		SalePriceClassico: p.SalePriceClassico,
		SalePricePremium:  p.SalePricePremium,
		TaxRate:           p.TaxRate,
		InstallmentRate:   p.InstallmentRate,
		OtherRate:         p.OtherRate,
		CommissionRuleKey: strings.TrimSpace(p.CommissionRuleKey),
		Fulfillment:       p.Fulfillment,
		BuyBox:            p.BuyBox,
		WeightKG:          p.WeightKG,
		HeightCM:          p.HeightCM,
		WidthCM:           p.WidthCM,
		LengthCM:          p.LengthCM,
	}
}

// ComputePricing derives the two-tier breakdown without persisting anything.
func ComputePricing(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload computeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Compute(r.Context(), payload.toComputeRequest())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

type suggestPriceRequest struct {
	StoreID           string  `json:"store_id" validate:"required"`
	Tier              string  `json:"tier" validate:"required"`
	Quantity          int     `json:"quantity" validate:"required,min=1"`
	UnitCost          float64 `json:"unit_cost" validate:"gte=0"`
	TaxRate           float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	InstallmentRate   float64 `json:"installment_rate" validate:"gte=0,lte=100"`
	OtherRate         float64 `json:"other_rate" validate:"gte=0,lte=100"`
	CommissionRuleKey string  `json:"commission_rule_key"`
	Fulfillment       bool    `json:"fulfillment"`
	TargetMargin      float64 `json:"target_margin" validate:"gte=0,lt=100"`
	WeightKG          float64 `json:"weight_kg" validate:"gte=0"`
	HeightCM          float64 `json:"height_cm" validate:"gte=0"`
	WidthCM           float64 `json:"width_cm" validate:"gte=0"`
	LengthCM          float64 `json:"length_cm" validate:"gte=0"`
}

// SuggestPrice solves for the sale price that lands the target margin.
func SuggestPrice(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload suggestPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParseTier(strings.TrimSpace(payload.Tier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
			return
		}

		price, err := svc.SuggestPrice(r.Context(), pricingsvc.SolveRequest{
			StoreID:           strings.TrimSpace(payload.StoreID),
			Tier:              tier,
			Quantity:          payload.Quantity,
			UnitCost:          payload.UnitCost,
			TaxRate:           payload.TaxRate,
			InstallmentRate:   payload.InstallmentRate,
			OtherRate:         payload.OtherRate,
			CommissionRuleKey: strings.TrimSpace(payload.CommissionRuleKey),
			Fulfillment:       payload.Fulfillment,
			TargetMargin:      payload.TargetMargin,
			WeightKG:          payload.WeightKG,
			HeightCM:          payload.HeightCM,
			WidthCM:           payload.WidthCM,
			LengthCM:          payload.LengthCM,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]float64{"suggested_price": price})
	}
}

type savePricingRequest struct {
	ID                string `json:"id"`
	ExternalListingID string `json:"external_listing_id"`
	CatalogListingID  string `json:"catalog_listing_id"`
	Marketplace       string `json:"marketplace"`
	computeRequest
}

// SavePricing computes and persists a record. An empty id creates a new one.
func SavePricing(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload savePricingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		record, err := svc.Save(r.Context(), actor, pricingsvc.SaveRequest{
			ID:                strings.TrimSpace(payload.ID),
			ExternalListingID: strings.TrimSpace(payload.ExternalListingID),
			CatalogListingID:  strings.TrimSpace(payload.CatalogListingID),
			Marketplace:       strings.TrimSpace(payload.Marketplace),
			ComputeRequest:    payload.toComputeRequest(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// GetPricing loads a single saved record.
func GetPricing(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
			return
		}

		record, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

type pricingListResponse struct {
	Records []pricingsvc.Record `json:"records"`
	Meta    pagination.Meta     `json:"meta"`
}

// ListPricing returns a filtered page of saved records.
func ListPricing(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := pricingsvc.ListFilter{
			StoreID:  strings.TrimSpace(r.URL.Query().Get("store_id")),
			Search:   strings.TrimSpace(r.URL.Query().Get("search")),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
		}
		page := pagination.FromQuery(r.URL.Query())

		records, meta, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pricingListResponse{Records: records, Meta: meta})
	}
}

// DeletePricing removes a saved record.
func DeletePricing(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
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

type bulkUpdateRequest struct {
	IDs           []string `json:"ids" validate:"dive,required"`
	Field         string   `json:"field" validate:"required"`
	CostValue     float64  `json:"cost_value"`
	CategoryValue string   `json:"category_value"`
}

// BulkUpdatePricing overwrites one field on many records in a single batch.
func BulkUpdatePricing(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		field, err := enums.ParseBulkField(strings.TrimSpace(payload.Field))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bulk field"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		updated, err := svc.BulkUpdate(r.Context(), actor, pricingsvc.BulkUpdateRequest{
			IDs:           payload.IDs,
			Field:         field,
			CostValue:     payload.CostValue,
			CategoryValue: strings.TrimSpace(payload.CategoryValue),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
