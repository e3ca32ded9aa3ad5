package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/sales-dashboard-api/docs"
	"github.com/straye-as/sales-dashboard-api/internal/auth"
	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/database"
	"github.com/straye-as/sales-dashboard-api/internal/datawarehouse"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/straye-as/sales-dashboard-api/internal/http/handler"
	"github.com/straye-as/sales-dashboard-api/internal/http/middleware"
	"github.com/straye-as/sales-dashboard-api/internal/http/router"
	"github.com/straye-as/sales-dashboard-api/internal/jobs"
	"github.com/straye-as/sales-dashboard-api/internal/logger"
	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	"github.com/straye-as/sales-dashboard-api/internal/repository"
	"github.com/straye-as/sales-dashboard-api/internal/service"
	"github.com/straye-as/sales-dashboard-api/internal/source"
	"github.com/straye-as/sales-dashboard-api/internal/storage"
	"github.com/straye-as/sales-dashboard-api/internal/zoho"
	"go.uber.org/zap"
)

// @title Sales Dashboard API
// @version 1.0
// @description Regional sales pipeline aggregates for the sales dashboard

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	calendar, err := fiscal.NewCalendar(time.Month(cfg.Fiscal.StartMonth))
	if err != nil {
		return fmt.Errorf("failed to create fiscal calendar: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}
	log.Info("Database connected", zap.String("driver", db.Dialector.Name()))

	snapshotStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	m := metrics.New()

	// Data warehouse connection is optional and read-only
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
		} else if dwClient != nil {
			log.Info("Data warehouse connected successfully",
				zap.Int("max_open_conns", cfg.DataWarehouse.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.DataWarehouse.QueryTimeout),
			)
		}
	}

	var zohoClient *zoho.Client
	if cfg.Zoho.ClientID != "" && cfg.Zoho.RefreshToken != "" {
		zohoClient = zoho.NewClient(&cfg.Zoho, nil, log)
		log.Info("Zoho CRM client configured", zap.String("module", cfg.Zoho.Module))
	}

	// Initialize repositories
	snapshotRepo := repository.NewSnapshotRepository(db)
	recordRepo := repository.NewDealRecordRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)

	deps := source.Deps{
		Storage:   snapshotStorage,
		Snapshots: snapshotRepo,
		Records:   recordRepo,
	}
	if dwClient != nil {
		deps.DataWarehouse = dwClient
	}
	if zohoClient != nil {
		deps.Zoho = zohoClient
	}
	dealSource, err := source.New(&cfg.Source, deps, log)
	if err != nil {
		return fmt.Errorf("failed to initialize deal source: %w", err)
	}
	log.Info("Deal source selected", zap.String("source", dealSource.Name()))

	// Initialize services
	quotaService := service.NewQuotaService(quotaRepo, log)
	if cfg.Quotas.SeedFile != "" {
		n, err := quotaService.SeedFromFile(ctx, cfg.Quotas.SeedFile)
		if err != nil {
			return fmt.Errorf("failed to seed quotas: %w", err)
		}
		log.Info("Quotas seeded", zap.String("file", cfg.Quotas.SeedFile), zap.Int("quotas", n))
	}

	dashboardService := service.NewDashboardService(dealSource, quotaService, calendar, service.SystemClock{}, m, log)

	var refreshService *service.RefreshService
	if fetcher, origin := refreshUpstream(zohoClient, dwClient); fetcher != nil {
		refreshService = service.NewRefreshService(
			fetcher,
			snapshotStorage,
			snapshotRepo,
			recordRepo,
			service.RefreshOptions{
				Source:      origin,
				SnapshotKey: cfg.Source.SnapshotKey,
				Retention:   cfg.Refresh.ArchiveRetention(),
			},
			service.SystemClock{},
			m,
			log,
		)
		log.Info("Snapshot refresh available", zap.String("upstream", string(origin)))
	} else {
		log.Info("No refresh upstream configured, POST /refresh is disabled")
	}

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	var snapshots handler.SnapshotLookup
	if refreshService != nil {
		snapshots = refreshService
	}
	healthHandler := handler.NewHealthHandler(db, dwClient, snapshots, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	quotaHandler := handler.NewQuotaHandler(quotaService, dashboardService, log)
	refreshHandler := handler.NewRefreshHandler(refreshService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		m,
		authMiddleware,
		rateLimiter,
		healthHandler,
		dashboardHandler,
		quotaHandler,
		refreshHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Refresh.Enabled && refreshService != nil {
		scheduler = jobs.NewScheduler(log)

		// A stale snapshot is refreshed right away in the background
		if _, err := jobs.RegisterRefreshJob(
			scheduler,
			refreshService,
			log,
			cfg.Refresh.Cron,
			cfg.Refresh.TimeoutDuration(),
			cfg.Refresh.MaxAgeDuration(),
		); err != nil {
			log.Error("Failed to register refresh job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with refresh job",
				zap.String("cron_expr", cfg.Refresh.Cron),
				zap.Duration("timeout", cfg.Refresh.TimeoutDuration()),
			)
		}
	} else {
		log.Info("Scheduled refresh disabled",
			zap.Bool("refresh_enabled", cfg.Refresh.Enabled),
			zap.Bool("upstream_available", refreshService != nil),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := dwClient.Close(); err != nil {
			log.Warn("Error closing data warehouse connection", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// refreshUpstream picks the system snapshots are refreshed from. Zoho CRM wins
// over the data warehouse when both are configured.
func refreshUpstream(zohoClient *zoho.Client, dwClient *datawarehouse.Client) (service.PayloadFetcher, domain.SnapshotSource) {
	switch {
	case zohoClient != nil:
		return zohoClient, domain.SnapshotSourceZoho
	case dwClient.IsEnabled():
		return service.RecordFetcherFunc(dwClient.GetDeals), domain.SnapshotSourceDataWarehouse
	default:
		return nil, ""
	}
}
