package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schadenportal_backend/internal/assignments"
	"schadenportal_backend/internal/candidates"
	"schadenportal_backend/internal/commissions"
	"schadenportal_backend/internal/events"
	apphttp "schadenportal_backend/internal/http"
	"schadenportal_backend/internal/http/router"
	"schadenportal_backend/internal/notification"
	"schadenportal_backend/internal/offers"
	"schadenportal_backend/internal/orders"
	"schadenportal_backend/internal/routing"
	"schadenportal_backend/internal/scheduler"
	"schadenportal_backend/migrations"
	"schadenportal_backend/platform/config"
	"schadenportal_backend/platform/db"
	"schadenportal_backend/platform/logger"
	"schadenportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	candidatesModule := candidates.NewModule(pool, val)
	ordersModule := orders.NewModule(pool, val)
	routingModule := routing.NewModule(pool, cfg, log, val)
	offersModule := offers.NewModule(pool, log)
	assignmentsModule := assignments.NewModule(pool, log, val)
	commissionsModule := commissions.NewModule(pool, cfg, log, val)

	ordersModule.SetEventBus(eventBus)
	offersModule.SetEventBus(eventBus)
	assignmentsModule.SetEventBus(eventBus)
	commissionsModule.SetEventBus(eventBus)

	// Wire order and candidate lookups into routing so dispatch can match
	// rules against live order state and availability
	routingModule.Service().SetOrderDirectory(ordersModule.Service())
	routingModule.Service().SetAvailabilityGate(candidatesModule.Service())
	routingModule.Service().SetOfferIssuer(offersModule.Service())

	// Offers need order state for respondability checks and the assignments
	// service to finalize accepted offers atomically
	offersModule.Service().SetOrderDirectory(ordersModule.Service())
	offersModule.Service().SetFinalizer(assignmentsModule.Service())

	// Assignments resolve the assignee kind and derive commissions for
	// partner assignees
	assignmentsModule.Service().SetCandidateDirectory(candidatesModule.Service())
	assignmentsModule.Service().SetCommissionDeriver(commissionsModule.Service())

	commissionsModule.Service().SetOrderDirectory(ordersModule.Service())
	commissionsModule.Service().SetCandidateDirectory(candidatesModule.Service())

	if cfg.RedisURL != "" {
		queueClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = queueClient.Close() }()
		assignmentsModule.Service().SetRetryEnqueuer(queueClient)
	} else {
		log.Warn("REDIS_URL not configured; commission derivation retries disabled")
	}

	// Event-driven dispatch: new orders trigger the first offer wave,
	// declines and expiries advance sequential rules to the next candidate
	routingModule.RegisterHandlers(eventBus)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationService := notification.NewService(notification.NewLogSender(log), log)
	notificationService.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			candidatesModule,
			ordersModule,
			routingModule,
			offersModule,
			assignmentsModule,
			commissionsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
