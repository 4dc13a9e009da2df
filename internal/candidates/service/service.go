package service

import (
	"context"

	"schadenportal_backend/internal/candidates/repository"
	"schadenportal_backend/internal/candidates/transport"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/httpkit"
	"schadenportal_backend/platform/phone"

	"github.com/google/uuid"
)

// Service provides business logic for the candidate registry and the
// Availability Gate consulted by the eligibility matcher.
type Service struct {
	repo repository.Repository
}

// New creates a new candidates service.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new candidate.
func (s *Service) Create(ctx context.Context, req transport.CreateCandidateRequest) (transport.CandidateResponse, error) {
	c, err := s.repo.Create(ctx, repository.CreateParams{
		Kind:         req.Kind,
		DisplayName:  req.DisplayName,
		ContactEmail: req.ContactEmail,
		ContactPhone: phone.NormalizeE164(req.ContactPhone),
	})
	if err != nil {
		return transport.CandidateResponse{}, err
	}
	return toResponse(c), nil
}

// GetByID retrieves a candidate.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CandidateResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CandidateResponse{}, err
	}
	return toResponse(c), nil
}

// List retrieves all candidates (admin view).
func (s *Service) List(ctx context.Context) (transport.ListCandidatesResponse, error) {
	candidates, err := s.repo.List(ctx)
	if err != nil {
		return transport.ListCandidatesResponse{}, err
	}

	items := make([]transport.CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, toResponse(c))
	}
	return transport.ListCandidatesResponse{Items: items}, nil
}

// SetOwnAvailability updates the caller's self-reported availability.
// Only professional Pro accounts gate themselves; partners are always
// considered available and may not use this endpoint.
func (s *Service) SetOwnAvailability(ctx context.Context, identity httpkit.Identity, req transport.SetAvailabilityRequest) error {
	c, err := s.repo.GetByID(ctx, identity.CandidateID())
	if err != nil {
		return err
	}
	if c.Kind != repository.KindProfessional {
		return apperr.Forbidden("only professionals report availability")
	}

	return s.repo.SetAvailability(ctx, c.ID, req.Availability)
}

// AvailabilityFor implements the read-only Availability Gate lookup used
// by the routing matcher.
func (s *Service) AvailabilityFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.repo.GetAvailability(ctx, ids)
}

// KindOf resolves a candidate's kind for assignment and commission logic.
func (s *Service) KindOf(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Kind, nil
}

func toResponse(c repository.Candidate) transport.CandidateResponse {
	return transport.CandidateResponse{
		ID:           c.ID,
		Kind:         c.Kind,
		DisplayName:  c.DisplayName,
		ContactEmail: c.ContactEmail,
		ContactPhone: c.ContactPhone,
		Availability: c.Availability,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
	}
}
