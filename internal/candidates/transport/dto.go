package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCandidateRequest registers a professional or partner.
type CreateCandidateRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=professional partner"`
	DisplayName  string `json:"displayName" validate:"required,min=1,max=200"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=32"`
}

// SetAvailabilityRequest updates a professional's self-reported status.
type SetAvailabilityRequest struct {
	Availability string `json:"availability" validate:"required,oneof=AVAILABLE LIMITED UNAVAILABLE"`
}

// CandidateResponse represents a candidate in API responses.
type CandidateResponse struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	DisplayName  string    `json:"displayName"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Availability string    `json:"availability"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListCandidatesResponse wraps a list of candidates.
type ListCandidatesResponse struct {
	Items []CandidateResponse `json:"items"`
}
