package repository

import (
	"context"
	"time"

	"schadenportal_backend/internal/orders/domain"

	"github.com/google/uuid"
)

// Order is a customer-submitted damage claim.
type Order struct {
	ID            uuid.UUID
	Category      domain.Category
	RegionCode    string
	Description   string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	ValueCents    int64
	Status        domain.Status
	ScheduledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateParams contains parameters for recording a new claim.
type CreateParams struct {
	Category      domain.Category
	RegionCode    string
	Description   string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	ValueCents    int64
	ScheduledAt   *time.Time
}

// ListParams defines filters and paging for the admin order list.
type ListParams struct {
	Status   string
	Category string
	Page     int
	PageSize int
}

// ListResult is a page of orders.
type ListResult struct {
	Items      []Order
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository provides persistence for orders.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
	// UpdateStatus moves the order from one of the given statuses to the
	// target; returns a conflict when the order is in any other state.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.Status, to domain.Status) error
	// Cancel transitions the order to CANCELLED and, in the same
	// transaction, moves all its non-terminal offers to cancelled.
	// Returns the number of offers that were cancelled.
	Cancel(ctx context.Context, id uuid.UUID) (int, error)
}
