package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/magislabs/pricing-backend/api/controllers"
	"github.com/magislabs/pricing-backend/pkg/config"
)

type stubChecker struct{}

func (stubChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func TestRouterHealthRoutes(t *testing.T) {
	router := NewRouter(testConfig(), nil, Services{}, Dependencies{
		Sessions: stubChecker{},
		Pingers:  map[string]controllers.Pinger{"database": stubPinger{}},
	})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := NewRouter(testConfig(), nil, Services{}, Dependencies{Sessions: stubChecker{}})

	paths := []string{
		"/api/v1/pricing/",
		"/api/v1/campaigns/",
		"/api/v1/campaigns/active",
		"/api/v1/audit/logs",
		"/api/v1/stores/",
		"/api/v1/dashboard/alerts",
		"/api/v1/users/",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", path, rec.Code)
		}
	}
}
