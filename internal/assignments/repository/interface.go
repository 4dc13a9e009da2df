package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Assignment sources.
const (
	SourceOfferAccept   = "offer_accept"
	SourceAdminOverride = "admin_override"
	SourceDirectAssign  = "direct_assign"
)

// Assignment is the binding outcome of routing: one order bound to one
// assignee. A superseded row is history; at most one row per order has
// superseded_at NULL.
type Assignment struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	AssigneeID   uuid.UUID
	AssigneeKind string
	Source       string
	BoundAt      time.Time
	SupersededAt *time.Time
	CreatedAt    time.Time
}

// FinalizeParams describes the winner being bound.
type FinalizeParams struct {
	OrderID      uuid.UUID
	AssigneeID   uuid.UUID
	AssigneeKind string
	Source       string
	// OfferID, when set, is the accepted offer; it transitions to
	// accepted inside the finalize transaction.
	OfferID *uuid.UUID
}

// Repository provides persistence for assignments. Finalize and Reassign
// run the single-winner critical section.
type Repository interface {
	// Finalize binds the order if and only if no active assignment
	// exists. On success it marks the accepted offer (when given),
	// supersedes every remaining open offer and moves the order to
	// IN_PROGRESS, all in one transaction.
	Finalize(ctx context.Context, params FinalizeParams) (Assignment, error)
	// Reassign supersedes the current active assignment and binds a new
	// assignee, cancelling any pending commission of the old winner.
	Reassign(ctx context.Context, params FinalizeParams) (Assignment, error)
	GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (Assignment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Assignment, error)
	ListByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]Assignment, error)
}
