package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"induct/internal/directory"
	"induct/internal/onboarding/handler"
	"induct/internal/onboarding/metrics"
	"induct/internal/onboarding/provision"
	"induct/internal/onboarding/registry"
	"induct/internal/onboarding/service"
	"induct/internal/onboarding/session"
	"induct/internal/onboarding/store"
	"induct/internal/platform/config"
	"induct/internal/platform/database"
	"induct/internal/platform/health"
	"induct/internal/platform/logger"
	"induct/internal/platform/token"
	"induct/internal/platform/tracer"
	"induct/internal/seeder"
	"induct/migrations"
	"induct/pkg/platform/audit"
	auditmem "induct/pkg/platform/audit/store/memory"
	auditpg "induct/pkg/platform/audit/store/postgres"
	"induct/pkg/platform/audit/publisher"
	"induct/pkg/platform/middleware/auth"
	"induct/pkg/platform/middleware/metadata"
	"induct/pkg/platform/middleware/request"
	"induct/pkg/platform/middleware/requesttime"
	"induct/pkg/platform/validation"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing induct",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthHandler := health.New(cfg.Environment)

	// Stores: Postgres when a database URL is configured, in-memory otherwise.
	var (
		recordStore store.RecordStore
		auditStore  audit.Store
	)
	if cfg.DatabaseURL != "" {
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		pool, err := database.New(dbCfg)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := migrations.Up(ctx, pool.DB()); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		recordStore = store.NewPostgres(pool.DB())
		auditStore = auditpg.New(pool.DB())
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	} else {
		log.Warn("INDUCT_DATABASE_URL not set - records and audit trail are in-memory")
		mem := store.NewInMemory()
		memAudit := auditmem.New()
		recordStore = mem
		auditStore = memAudit

		if cfg.Environment == "development" {
			if err := seeder.New(mem, memAudit, log).SeedAll(ctx); err != nil {
				log.Error("demo data seeding failed", "error", err)
				os.Exit(1)
			}
		}
	}

	auditor := publisher.New(auditStore,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	)
	defer auditor.Close()

	var dirClient directory.Client
	if cfg.DirectoryBaseURL != "" {
		dirClient = directory.NewHTTP(cfg.DirectoryBaseURL, cfg.DirectoryToken,
			directory.WithLogger(log))
	} else {
		log.Warn("INDUCT_DIRECTORY_URL not set - provisioning uses the in-memory directory")
		dirClient = directory.NewInMemory()
	}

	m := metrics.New()
	tr := tracer.NewOTel()
	tokenSvc := token.NewService(cfg.JWTSigningKey)

	stageSvc := service.NewService(recordStore, auditor, log,
		service.WithMetrics(m),
		service.WithTracer(tr),
		service.WithScanMinLength(cfg.ScanMinLength),
	)
	provisionSvc := provision.NewService(recordStore, dirClient, auditor, log,
		provision.WithMetrics(m),
		provision.WithTracer(tr),
	)
	reg := registry.New(recordStore,
		registry.WithLogger(log),
		registry.WithMetrics(m),
	)
	sessions := session.NewManager(
		session.WithScanFlushWindow(cfg.ScanFlushWindow),
		session.WithScanMinLength(cfg.ScanMinLength),
		session.WithMetrics(m),
		session.WithLogger(log),
	)

	apiHandler := handler.New(stageSvc, provisionSvc, reg, sessions, log,
		handler.WithDefaultPageSize(cfg.DefaultPageSize))

	reqMetrics := request.NewMetrics()
	meta := metadata.NewMiddleware(nil)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Timeout(30 * time.Second))
	r.Use(request.BodyLimit(validation.MaxBodySize))
	r.Use(request.Latency(reqMetrics))
	r.Use(meta.Handler)

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(tokenSvc, log))
		apiHandler.Register(r)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
