package controllers

import (
	"net/http"

	"github.com/magislabs/pricing-backend/api/responses"
	"github.com/magislabs/pricing-backend/api/validators"
	dashsvc "github.com/magislabs/pricing-backend/internal/dashboard"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

// DashboardAlerts returns the expiring campaign, outdated cost, and stagnant
// record panels.
func DashboardAlerts(svc dashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.Alerts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, alerts)
	}
}

// ProfitByCategory aggregates realized profit per category over a window.
func ProfitByCategory(svc dashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, err := validators.ParseQueryInt(r, "months", 0, 0, 60)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ProfitByCategory(r.Context(), months)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// ProfitEvolution returns the month-by-month profit series.
func ProfitEvolution(svc dashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, err := validators.ParseQueryInt(r, "months", 0, 0, 60)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ProfitEvolution(r.Context(), months)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
