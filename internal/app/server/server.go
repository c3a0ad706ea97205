package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"dqeval/internal/domain/catalog"
	"dqeval/internal/domain/evaluation"
	"dqeval/internal/platform/config"
	"dqeval/internal/platform/db"
	"dqeval/internal/platform/logging"
	"dqeval/internal/platform/metrics"
	cataloghandler "dqeval/internal/transport/http/handlers/catalog"
	evaluationhandler "dqeval/internal/transport/http/handlers/evaluation"
	"dqeval/internal/transport/http/middleware"
)

const shutdownTimeout = 20 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
	Router  http.Handler
}

// Deps are the collaborators the router needs. Ready reports whether the
// store accepts queries.
type Deps struct {
	Evaluations evaluationhandler.Service
	Catalog     cataloghandler.Service
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
	Logger      *slog.Logger
}

// New connects, migrates and seeds the database and assembles the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed && cfg.SeedFile != "" {
		if err := db.Seed(ctx, pool, cfg.SeedFile); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	var collector *metrics.Collector
	opts := []evaluation.Option{
		evaluation.WithIdentityGenerator(evaluation.UUIDIdentities{Domain: cfg.ParticipantEmailDomain}),
	}
	if cfg.MetricsEnabled {
		collector = metrics.New()
		opts = append(opts, evaluation.WithObserver(collector))
	}

	evaluations := evaluation.NewService(evaluation.NewStore(pool), opts...)
	catalogs := catalog.NewService(catalog.NewStore(pool))

	router := NewRouter(cfg, Deps{
		Evaluations: evaluations,
		Catalog:     catalogs,
		Metrics:     collector,
		Ready:       pool.Ping,
		Logger:      slog.Default(),
	})
	return &App{Config: cfg, DB: pool, Metrics: collector, Router: router}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if deps.Ready != nil {
			if err := deps.Ready(ctx); err != nil {
				slog.Warn("readiness check failed", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		evaluationhandler.NewHandler(deps.Evaluations).RegisterRoutes(r)
		cataloghandler.NewHandler(deps.Catalog).RegisterRoutes(r)
	})

	return router
}

// Run loads configuration, serves until SIGINT or SIGTERM and drains
// in-flight requests before returning.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel, cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dqeval server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
