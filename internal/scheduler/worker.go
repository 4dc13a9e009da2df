package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"schadenportal_backend/platform/config"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OfferSweeper is the ledger surface the sweep task drives.
type OfferSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// CommissionDeriver retries a failed commission derivation.
type CommissionDeriver interface {
	DeriveForAssignment(ctx context.Context, orderID, partnerID, assignmentID uuid.UUID) error
}

// Worker consumes background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker creates the asynq server with handlers for every task type.
func NewWorker(cfg config.SchedulerConfig, log *logger.Logger, sweeper OfferSweeper, deriver CommissionDeriver) (*Worker, error) {
	opt, err := redisConnOpt(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error("task failed", "type", task.Type(), "error", err)
		}),
	})

	w := &Worker{server: server, mux: asynq.NewServeMux(), log: log}
	w.mux.HandleFunc(TaskOfferSweep, w.handleOfferSweep(sweeper))
	w.mux.HandleFunc(TaskCommissionDerive, w.handleCommissionDerive(deriver))
	return w, nil
}

func (w *Worker) handleOfferSweep(sweeper OfferSweeper) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := sweeper.SweepExpired(ctx)
		if err != nil {
			return fmt.Errorf("offer sweep: %w", err)
		}
		w.log.Info("offer sweep done", "expired", n)
		return nil
	}
}

func (w *Worker) handleCommissionDerive(deriver CommissionDeriver) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload CommissionDerivePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal commission derive payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := deriver.DeriveForAssignment(ctx, payload.OrderID, payload.PartnerID, payload.AssignmentID); err != nil {
			return fmt.Errorf("derive commission for order %s: %w", payload.OrderID, err)
		}
		return nil
	}
}

// Run starts consuming tasks and blocks until Shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the server gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
