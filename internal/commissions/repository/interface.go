package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Commission statuses.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// Commission is the referral record owed to a partner after a finalized
// assignment. Amount and rate are snapshots; later rate changes never
// touch an issued row.
type Commission struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	PartnerID    uuid.UUID
	AssignmentID uuid.UUID
	AmountCents  int64
	RateBps      int32
	Status       string
	CreatedAt    time.Time
	PaidAt       *time.Time
}

// CreateParams describes a commission to derive.
type CreateParams struct {
	OrderID      uuid.UUID
	PartnerID    uuid.UUID
	AssignmentID uuid.UUID
	AmountCents  int64
	RateBps      int32
}

// Repository provides persistence for commissions and partner rates.
type Repository interface {
	// Create inserts the commission. When the order already carries a
	// non-cancelled commission, the existing row is returned with
	// created=false instead of an error.
	Create(ctx context.Context, params CreateParams) (commission Commission, created bool, err error)
	GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (Commission, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]Commission, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Commission, error)
	// MarkPaid transitions a pending commission to paid.
	MarkPaid(ctx context.Context, id uuid.UUID) (Commission, error)
	// GetRate returns the partner's configured rate; found=false means
	// the system default applies.
	GetRate(ctx context.Context, partnerID uuid.UUID) (rateBps int32, found bool, err error)
	UpsertRate(ctx context.Context, partnerID uuid.UUID, rateBps int32) error
}
