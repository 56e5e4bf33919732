package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magislabs/pricing-backend/api/controllers"
	"github.com/magislabs/pricing-backend/api/routes"
	"github.com/magislabs/pricing-backend/internal/audit"
	authsvc "github.com/magislabs/pricing-backend/internal/auth"
	"github.com/magislabs/pricing-backend/internal/campaigns"
	"github.com/magislabs/pricing-backend/internal/catalog"
	"github.com/magislabs/pricing-backend/internal/dashboard"
	"github.com/magislabs/pricing-backend/internal/pricing"
	"github.com/magislabs/pricing-backend/internal/rules"
	"github.com/magislabs/pricing-backend/internal/simulation"
	"github.com/magislabs/pricing-backend/internal/stores"
	"github.com/magislabs/pricing-backend/internal/users"
	"github.com/magislabs/pricing-backend/pkg/auth/session"
	"github.com/magislabs/pricing-backend/pkg/bigquery"
	"github.com/magislabs/pricing-backend/pkg/cache"
	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/db"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/metrics"
	"github.com/magislabs/pricing-backend/pkg/migrate"
	"github.com/magislabs/pricing-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	require(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	require(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	require(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	require(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	require(ctx, logg, "bigquery", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	require(ctx, logg, "session manager", err)

	cacheClient, err := cache.New(redisClient, cfg.Cache, logg)
	require(ctx, logg, "cache", err)

	auditWriter, err := audit.NewWriter(bqClient, cfg.BigQuery, logg)
	require(ctx, logg, "audit writer", err)

	auditReader, err := audit.NewReader(bqClient, cfg.BigQuery)
	require(ctx, logg, "audit reader", err)

	registry := prometheus.NewRegistry()
	pricingMetrics := metrics.NewPricingMetrics(registry)

	rulesService, err := rules.NewService(rules.NewRepository(dbClient.DB()), cacheClient, auditWriter, logg)
	require(ctx, logg, "rules service", err)

	storesService, err := stores.NewService(stores.NewRepository(dbClient.DB()), cacheClient, auditWriter, logg)
	require(ctx, logg, "stores service", err)

	pricingRepo, err := pricing.NewRepository(bqClient, cfg.BigQuery)
	require(ctx, logg, "pricing repository", err)

	pricingService, err := pricing.NewService(pricingRepo, rulesService, storesService, auditWriter, logg, pricingMetrics)
	require(ctx, logg, "pricing service", err)

	simulationService, err := simulation.NewService(pricingRepo, logg, pricingMetrics)
	require(ctx, logg, "simulation service", err)

	campaignRepo := campaigns.NewRepository(dbClient.DB())
	campaignPrices, err := campaigns.NewPriceRepository(bqClient, cfg.BigQuery)
	require(ctx, logg, "campaign price repository", err)

	campaignService, err := campaigns.NewService(campaignRepo, campaignPrices, pricingRepo, cacheClient, auditWriter, logg, pricingMetrics)
	require(ctx, logg, "campaign service", err)

	catalogRepo, err := catalog.NewRepository(bqClient, cfg.BigQuery)
	require(ctx, logg, "catalog repository", err)

	catalogService, err := catalog.NewService(catalogRepo, auditWriter, logg)
	require(ctx, logg, "catalog service", err)

	dashboardRepo, err := dashboard.NewRepository(bqClient, cfg.BigQuery)
	require(ctx, logg, "dashboard repository", err)

	dashboardService, err := dashboard.NewService(dashboardRepo, campaignRepo, cfg.Alerts, logg)
	require(ctx, logg, "dashboard service", err)

	userRepo := users.NewRepository(dbClient.DB())
	userService, err := users.NewService(userRepo, cfg.Password, auditWriter, logg)
	require(ctx, logg, "user service", err)

	authService, err := authsvc.NewService(userRepo, sessionManager, auditWriter, cfg.JWT, logg)
	require(ctx, logg, "auth service", err)

	router := routes.NewRouter(cfg, logg, routes.Services{
		Auth:       authService,
		Pricing:    pricingService,
		Simulation: simulationService,
		Campaigns:  campaignService,
		Rules:      rulesService,
		Stores:     storesService,
		Catalog:    catalogService,
		Dashboard:  dashboardService,
		Users:      userService,
		Audit:      auditReader,
	}, routes.Dependencies{
		Sessions: sessionManager,
		Registry: registry,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"bigquery": bqClient,
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func require(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
