package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Offer is one time-bounded proposal of an order to one candidate.
type Offer struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	CandidateID uuid.UUID
	Status      string
	IssuedAt    time.Time
	RespondedAt *time.Time
	Deadline    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository provides persistence for the offer ledger.
type Repository interface {
	// Issue inserts a sent offer. When an open offer for the same
	// (order, candidate) pair already exists, the existing row is
	// returned with created=false instead of an error.
	Issue(ctx context.Context, orderID, candidateID uuid.UUID, deadline time.Time) (offer Offer, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (Offer, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Offer, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]Offer, error)
	// TriedCandidateIDs lists every candidate holding any offer row for
	// the order, regardless of status.
	TriedCandidateIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)
	// Transition moves an offer from one exact status to another,
	// stamping responded_at when provided. It reports whether a row
	// actually changed, so callers can distinguish a lost race from
	// success without a second read.
	Transition(ctx context.Context, id uuid.UUID, from, to string, respondedAt *time.Time) (bool, error)
	// SweepExpired persists the expired status on every sent offer whose
	// deadline lies before now, returning the transitioned rows.
	SweepExpired(ctx context.Context, now time.Time) ([]Offer, error)
}
