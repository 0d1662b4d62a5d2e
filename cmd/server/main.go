package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"docflow/internal/api"
	"docflow/internal/app"
	"docflow/internal/config"
	"docflow/internal/db"
	"docflow/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	writeDB, readDB, err := db.OpenSQLitePair(cfg.DBPath, 0)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := db.RunMigrations(writeDB); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer application.Close()

	validator, err := middleware.NewHS256Validator(cfg.JWTSecret)
	if err != nil {
		return err
	}

	handler := api.NewHandler(
		application.Services.Review,
		application.Services.Document,
		application.Services.Rule,
		application.Services.User,
		application.Services.Audit,
		application.Services.Metric,
		logger.With("component", "api"),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(validator, application.UserRepo))
		handler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Assignment sweeper: periodically assigns unowned pending reviews to
	// the least-loaded eligible reviewer. The engine itself never runs
	// background work; this scheduler is the only driver.
	var sweeper *cron.Cron
	if cfg.SweepInterval > 0 {
		sweeper = cron.New()
		_, err := sweeper.AddFunc("@every "+cfg.SweepInterval.String(), func() {
			n, err := application.Services.Review.AssignPending(context.Background(), cfg.SweepBatch)
			if err != nil {
				logger.Error("assignment sweep failed", "error", err)
				return
			}
			if n > 0 {
				logger.Info("assignment sweep completed", "assigned", n)
			}
		})
		if err != nil {
			return err
		}
		sweeper.Start()
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		if sweeper != nil {
			<-sweeper.Stop().Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
