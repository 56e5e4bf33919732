package controllers

import (
	"context"
	"net/http"

	"github.com/magislabs/pricing-backend/api/responses"
	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Magis-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes each named dependency. The endpoint returns 200 with a
// per-dependency breakdown as long as the process itself is up; orchestrators
// read the degraded flag.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Magis-Env", cfg.App.Env)

		status := map[string]string{}
		degraded := false
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				status[name] = "unreachable"
				degraded = true
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"dependency": name,
						"error":      err.Error(),
					})
					logg.Warn(ctx, "health.dependency_unreachable")
				}
				continue
			}
			status[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{
			"status":       readyLabel(degraded),
			"dependencies": status,
		})
	}
}

func readyLabel(degraded bool) string {
	if degraded {
		return "degraded"
	}
	return "ready"
}
