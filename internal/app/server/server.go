package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workervoucher/internal/domain/audit"
	authdomain "workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/billing"
	"workervoucher/internal/domain/employer"
	"workervoucher/internal/domain/group"
	"workervoucher/internal/domain/upload"
	"workervoucher/internal/domain/voucher"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/config"
	"workervoucher/internal/platform/db"
	"workervoucher/internal/platform/identity"
	"workervoucher/internal/platform/jobs"
	"workervoucher/internal/platform/metrics"
	"workervoucher/internal/transport/http/api"
	audithandler "workervoucher/internal/transport/http/handlers/audit"
	authhandler "workervoucher/internal/transport/http/handlers/auth"
	employerhandler "workervoucher/internal/transport/http/handlers/employer"
	grouphandler "workervoucher/internal/transport/http/handlers/group"
	voucherhandler "workervoucher/internal/transport/http/handlers/voucher"
	workerhandler "workervoucher/internal/transport/http/handlers/worker"
	"workervoucher/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler

	jobs   *jobs.Service
	cancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, locateMigrations()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	authStore := authdomain.NewStore(pool)
	employerStore := employer.NewStore(pool)
	workerStore := worker.NewStore(pool)
	voucherStore := voucher.NewStore(pool)
	billStore := billing.NewStore(pool)
	uploadStore := upload.NewStore(pool)
	groupStore := group.NewStore(pool)
	auditSvc := audit.New(pool)

	voucherSvc := voucher.NewService(cfg, voucherStore, employerStore, workerStore, billStore, authStore)
	workerSvc := worker.NewService(cfg, workerStore, employerStore, identity.New(cfg), authStore)
	uploadSvc := upload.NewService(cfg, uploadStore, workerSvc, slog.Default())
	groupSvc := group.NewService(groupStore, employerStore, workerStore, authStore)

	jobCtx, cancel := context.WithCancel(context.Background())
	jobService := jobs.New(pool, cfg)
	jobService.Start(jobCtx)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/refresh", authHandler.HandleRefresh)

		voucherhandler.NewHandler(pool, voucherSvc, authStore, auditSvc).RegisterRoutes(r)
		workerhandler.NewHandler(pool, workerSvc, uploadSvc, authStore, auditSvc).RegisterRoutes(r)
		grouphandler.NewHandler(groupSvc, authStore, auditSvc).RegisterRoutes(r)
		employerhandler.NewHandler(employerStore, authStore).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
	})

	return &App{
		Config: cfg,
		DB:     pool,
		Router: router,
		jobs:   jobService,
		cancel: cancel,
	}, nil
}

// locateMigrations walks up from the working directory until it finds the
// migrations directory, so tests run from package directories still migrate.
func locateMigrations() string {
	dir, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "migrations"
		}
		dir = parent
	}
}

func (a *App) Close() {
	a.cancel()
	a.DB.Close()
}

func Run() {
	cfg := config.Load()

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("worker voucher server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
