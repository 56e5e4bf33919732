package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magislabs/pricing-backend/api/controllers"
	"github.com/magislabs/pricing-backend/api/middleware"
	authsvc "github.com/magislabs/pricing-backend/internal/auth"
	campaignsvc "github.com/magislabs/pricing-backend/internal/campaigns"
	catalogsvc "github.com/magislabs/pricing-backend/internal/catalog"
	dashsvc "github.com/magislabs/pricing-backend/internal/dashboard"
	pricingsvc "github.com/magislabs/pricing-backend/internal/pricing"
	rulesvc "github.com/magislabs/pricing-backend/internal/rules"
	simsvc "github.com/magislabs/pricing-backend/internal/simulation"
	storesvc "github.com/magislabs/pricing-backend/internal/stores"
	usersvc "github.com/magislabs/pricing-backend/internal/users"
	"github.com/magislabs/pricing-backend/pkg/auth/session"
	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/enums"
	"github.com/magislabs/pricing-backend/pkg/logger"
)

// Services bundles every domain service the router wires to a handler.
type Services struct {
	Auth       authsvc.Service
	Pricing    pricingsvc.Service
	Simulation simsvc.Service
	Campaigns  campaignsvc.Service
	Rules      rulesvc.Service
	Stores     storesvc.Service
	Catalog    catalogsvc.Service
	Dashboard  dashsvc.Service
	Users      usersvc.Service
	Audit      controllers.AuditLister
}

// Dependencies carries the infrastructure handles the router needs directly.
type Dependencies struct {
	Sessions session.Checker
	Registry *prometheus.Registry
	Pingers  map[string]controllers.Pinger
}

// NewRouter assembles the HTTP surface: public health and login, then the
// authenticated API with admin-only configuration routes.
func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Post("/logout", controllers.Logout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		admin := middleware.RequireRole(enums.MemberRoleAdmin, logg)

		r.Route("/pricing", func(r chi.Router) {
			r.Post("/compute", controllers.ComputePricing(svcs.Pricing, logg))
			r.Post("/suggest-price", controllers.SuggestPrice(svcs.Pricing, logg))
			r.Post("/bulk-update", controllers.BulkUpdatePricing(svcs.Pricing, logg))
			r.Post("/", controllers.SavePricing(svcs.Pricing, logg))
			r.Get("/", controllers.ListPricing(svcs.Pricing, logg))
			r.Get("/{id}", controllers.GetPricing(svcs.Pricing, logg))
			r.Delete("/{id}", controllers.DeletePricing(svcs.Pricing, logg))
			r.Get("/{id}/campaign-prices", controllers.ListRecordCampaignPrices(svcs.Campaigns, logg))
		})

		r.Post("/simulations", controllers.Simulate(svcs.Simulation, logg))

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", controllers.ListCampaigns(svcs.Campaigns, logg))
			r.Get("/active", controllers.ListActiveCampaigns(svcs.Campaigns, logg))
			r.Post("/", controllers.CreateCampaign(svcs.Campaigns, logg))
			r.Get("/{id}", controllers.GetCampaign(svcs.Campaigns, logg))
			r.Put("/{id}", controllers.UpdateCampaign(svcs.Campaigns, logg))
			r.Delete("/{id}", controllers.DeleteCampaign(svcs.Campaigns, logg))
			r.Post("/{id}/apply", controllers.ApplyCampaign(svcs.Campaigns, logg))
			r.Get("/{id}/prices", controllers.ListCampaignPrices(svcs.Campaigns, logg))
			r.Delete("/prices/{priceID}", controllers.RemoveCampaignPrice(svcs.Campaigns, logg))
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/tariffs", controllers.ListTariffRules(svcs.Rules, logg))
			r.With(admin).Put("/tariffs", controllers.ReplaceTariffRules(svcs.Rules, logg))
			r.Get("/shipping", controllers.ListShippingRules(svcs.Rules, logg))
			r.With(admin).Put("/shipping", controllers.ReplaceShippingRules(svcs.Rules, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(svcs.Rules, logg))
			r.With(admin).Post("/", controllers.CreateCategory(svcs.Rules, logg))
			r.With(admin).Put("/{id}", controllers.UpdateCategory(svcs.Rules, logg))
			r.With(admin).Delete("/{id}", controllers.DeleteCategory(svcs.Rules, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.ListStores(svcs.Stores, logg))
			r.With(admin).Post("/", controllers.CreateStore(svcs.Stores, logg))
			r.Get("/{id}", controllers.GetStore(svcs.Stores, logg))
			r.With(admin).Put("/{id}", controllers.UpdateStore(svcs.Stores, logg))
			r.With(admin).Delete("/{id}", controllers.DeleteStore(svcs.Stores, logg))
			r.With(admin).Put("/{id}/commission-rules", controllers.ReplaceCommissionRules(svcs.Stores, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.UpsertProduct(svcs.Catalog, logg))
			r.Get("/search", controllers.SearchProducts(svcs.Catalog, logg))
			r.Get("/{sku}", controllers.GetProduct(svcs.Catalog, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/alerts", controllers.DashboardAlerts(svcs.Dashboard, logg))
			r.Get("/profit-by-category", controllers.ProfitByCategory(svcs.Dashboard, logg))
			r.Get("/profit-evolution", controllers.ProfitEvolution(svcs.Dashboard, logg))
		})

		r.With(admin).Get("/audit/logs", controllers.ListAuditLog(svcs.Audit, logg))

		r.Route("/users", func(r chi.Router) {
			r.Post("/change-password", controllers.ChangePassword(svcs.Users, logg))
			r.With(admin).Get("/", controllers.ListUsers(svcs.Users, logg))
			r.With(admin).Post("/", controllers.CreateUser(svcs.Users, logg))
			r.With(admin).Get("/{id}", controllers.GetUser(svcs.Users, logg))
			r.With(admin).Put("/{id}", controllers.UpdateUser(svcs.Users, logg))
			r.With(admin).Delete("/{id}", controllers.DeleteUser(svcs.Users, logg))
		})
	})

	return r
}
