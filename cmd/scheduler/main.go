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
	"schadenportal_backend/internal/notification"
	"schadenportal_backend/internal/offers"
	"schadenportal_backend/internal/orders"
	"schadenportal_backend/internal/routing"
	"schadenportal_backend/internal/scheduler"
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
	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Worker-side module wiring (no HTTP handlers required). Expired offers
	// published from the sweep must still advance sequential routing, so the
	// dispatch handlers are registered on this process's bus as well.
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

	routingModule.Service().SetOrderDirectory(ordersModule.Service())
	routingModule.Service().SetAvailabilityGate(candidatesModule.Service())
	routingModule.Service().SetOfferIssuer(offersModule.Service())
	offersModule.Service().SetOrderDirectory(ordersModule.Service())
	offersModule.Service().SetFinalizer(assignmentsModule.Service())
	assignmentsModule.Service().SetCandidateDirectory(candidatesModule.Service())
	assignmentsModule.Service().SetCommissionDeriver(commissionsModule.Service())
	commissionsModule.Service().SetOrderDirectory(ordersModule.Service())
	commissionsModule.Service().SetCandidateDirectory(candidatesModule.Service())

	routingModule.RegisterHandlers(eventBus)

	notificationService := notification.NewService(notification.NewLogSender(log), log)
	notificationService.RegisterHandlers(eventBus)

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = queueClient.Close() }()
	assignmentsModule.Service().SetRetryEnqueuer(queueClient)

	worker, err := scheduler.NewWorker(cfg, log, offersModule.Service(), commissionsModule.Service())
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	go sweepLoop(ctx, log, queueClient, cfg.OfferSweepInterval)

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker stopped", "error", err)
		panic("worker stopped: " + err.Error())
	}
}

// sweepLoop periodically enqueues the offer expiry sweep. The task ID makes
// overlapping enqueues collapse into a single pending sweep.
func sweepLoop(ctx context.Context, log *logger.Logger, client *scheduler.Client, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.EnqueueOfferSweep(ctx); err != nil {
				log.Error("failed to enqueue offer sweep", "error", err)
			}
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
