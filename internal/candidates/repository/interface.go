package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Candidate kinds.
const (
	KindProfessional = "professional"
	KindPartner      = "partner"
)

// Availability Gate statuses, self-reported by professionals.
const (
	AvailabilityAvailable   = "AVAILABLE"
	AvailabilityLimited     = "LIMITED"
	AvailabilityUnavailable = "UNAVAILABLE"
)

// Candidate is a professional or affiliate partner eligible to receive offers.
type Candidate struct {
	ID           uuid.UUID
	Kind         string
	DisplayName  string
	ContactEmail string
	ContactPhone string
	Availability string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams contains parameters for registering a candidate.
type CreateParams struct {
	Kind         string
	DisplayName  string
	ContactEmail string
	ContactPhone string
}

// Repository provides persistence for the candidate registry.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Candidate, error)
	GetByID(ctx context.Context, id uuid.UUID) (Candidate, error)
	List(ctx context.Context) ([]Candidate, error)
	SetAvailability(ctx context.Context, id uuid.UUID, availability string) error
	// GetAvailability returns the availability status for each requested
	// candidate; missing or inactive candidates are reported UNAVAILABLE.
	GetAvailability(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
