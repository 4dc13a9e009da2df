// Package scheduler owns the background work queue: the periodic offer
// sweep and asynchronous commission derivation retries.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names.
const (
	TaskOfferSweep       = "offers:sweep"
	TaskCommissionDerive = "commissions:derive"
)

// CommissionDerivePayload carries the assignment a derivation retry
// targets.
type CommissionDerivePayload struct {
	OrderID      uuid.UUID `json:"orderId"`
	PartnerID    uuid.UUID `json:"partnerId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
}

// NewOfferSweepTask builds the parameterless sweep task.
func NewOfferSweepTask() *asynq.Task {
	return asynq.NewTask(TaskOfferSweep, nil)
}

// NewCommissionDeriveTask builds a derivation retry task.
func NewCommissionDeriveTask(payload CommissionDerivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal commission derive payload: %w", err)
	}
	return asynq.NewTask(TaskCommissionDerive, data), nil
}
