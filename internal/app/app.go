// Package app provides application-level wiring and dependency injection
// for the review workflow service following hexagonal architecture.
package app

import (
	"context"
	"database/sql"
	"log/slog"

	"docflow/internal/config"
	"docflow/internal/db/repository"
	"docflow/internal/domain"
	"docflow/internal/notify"
	"docflow/internal/service"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger

	// Notifier overrides the default async log notifier when non-nil.
	Notifier domain.Notifier
}

// Services groups all service pointers that the API handler needs.
type Services struct {
	Review   *service.ReviewService
	Document *service.DocumentService
	Rule     *service.RuleService
	User     *service.UserService
	Audit    *service.AuditService
	Metric   *service.MetricService
}

// App holds the fully-wired application: services plus the repositories
// needed for router setup (UserRepo for auth middleware).
type App struct {
	Services Services
	UserRepo domain.UserRepository

	closeNotifier func()
}

// New wires all repositories and services from the provided deps. It also
// seeds approval rules from the configured rules file when one is set.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	// Repositories (write-pool)
	documentRepo := repository.NewDocumentRepo(deps.WriteDB)
	reviewRepo := repository.NewReviewRepo(deps.WriteDB)
	ruleRepo := repository.NewRuleRepo(deps.WriteDB)
	userRepo := repository.NewUserRepo(deps.WriteDB)
	auditRepo := repository.NewAuditRepo(deps.WriteDB)
	metricRepo := repository.NewMetricRepo(deps.WriteDB)

	// Repositories (read-pool)
	reviewReadRepo := repository.NewReviewRepo(deps.ReadDB)
	userReadRepo := repository.NewUserRepo(deps.ReadDB)

	app := &App{UserRepo: userReadRepo}

	notifier := deps.Notifier
	if notifier == nil {
		async := notify.NewAsyncNotifier(
			notify.NewLogNotifier(deps.Logger.With("component", "notifier")),
			cfg.NotifyBuffer,
			deps.Logger,
		)
		notifier = async
		app.closeNotifier = async.Close
	}

	reviewSvc := service.NewReviewService(
		deps.WriteDB,
		reviewRepo, reviewReadRepo,
		documentRepo, ruleRepo, userRepo,
		auditRepo, metricRepo,
		notifier,
		service.Options{
			AutoAssign:       cfg.AutoAssign,
			CriticalDocTypes: cfg.CriticalTypeSet(),
		},
		deps.Logger.With("component", "review-engine"),
	)

	ruleSvc := service.NewRuleService(ruleRepo, auditRepo)

	app.Services = Services{
		Review:   reviewSvc,
		Document: service.NewDocumentService(documentRepo, auditRepo),
		Rule:     ruleSvc,
		User:     service.NewUserService(userRepo, auditRepo),
		Audit:    service.NewAuditService(auditRepo),
		Metric:   service.NewMetricService(metricRepo),
	}

	if cfg.RulesFile != "" {
		n, err := ruleSvc.SeedFromFile(ctx, cfg.RulesFile)
		if err != nil {
			deps.Logger.Warn("rule seeding failed", "file", cfg.RulesFile, "error", err)
		} else if n > 0 {
			deps.Logger.Info("seeded approval rules", "file", cfg.RulesFile, "count", n)
		}
	}

	return app, nil
}

// Close releases resources owned by the app (the async notifier worker).
func (a *App) Close() {
	if a.closeNotifier != nil {
		a.closeNotifier()
	}
}
