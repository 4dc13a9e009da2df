package service

import (
	"context"
	"fmt"

	"schadenportal_backend/internal/events"
	"schadenportal_backend/internal/orders/domain"
	"schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/internal/orders/transport"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/phone"

	"github.com/google/uuid"
)

// Service owns order lifecycle: intake, status transitions and cancellation.
type Service struct {
	repo     repository.Repository
	eventBus events.Bus
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// SetEventBus wires the event bus after construction.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

func (s *Service) Create(ctx context.Context, req transport.CreateOrderRequest) (repository.Order, error) {
	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		return repository.Order{}, apperr.BadRequest("invalid category")
	}

	order, err := s.repo.Create(ctx, repository.CreateParams{
		Category:      category,
		RegionCode:    req.RegionCode,
		Description:   req.Description,
		CustomerName:  req.CustomerName,
		CustomerPhone: phone.NormalizeE164(req.CustomerPhone),
		CustomerEmail: req.CustomerEmail,
		ValueCents:    req.ValueCents,
		ScheduledAt:   req.ScheduledAt,
	})
	if err != nil {
		return repository.Order{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewOrderCreated(order.ID, string(order.Category), order.RegionCode))
	}

	return order, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params repository.ListParams) (repository.ListResult, error) {
	return s.repo.List(ctx, params)
}

// UpdateStatus applies an explicit status transition. The transition table
// rejects everything not reachable from the current status; terminal states
// have no outgoing transitions.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to domain.Status) (repository.Order, error) {
	if to == domain.StatusCancelled {
		if _, err := s.Cancel(ctx, id); err != nil {
			return repository.Order{}, err
		}
		return s.repo.GetByID(ctx, id)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Order{}, err
	}
	if current.Status == to {
		return current, nil
	}
	if !domain.CanTransition(current.Status, to) {
		return repository.Order{}, apperr.Conflict(
			fmt.Sprintf("cannot transition order from %s to %s", current.Status, to))
	}

	if err := s.repo.UpdateStatus(ctx, id, []domain.Status{current.Status}, to); err != nil {
		return repository.Order{}, err
	}

	return s.repo.GetByID(ctx, id)
}

// Complete marks an order DONE. Open offers are untouched; they lapse on
// their own deadline.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (repository.Order, error) {
	return s.UpdateStatus(ctx, id, domain.StatusDone)
}

// Cancel closes an order and withdraws every still-open offer on it.
// Cancelling an already-cancelled order is a no-op; completed orders
// cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (int, error) {
	cancelled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return 0, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewOrderCancelled(id, cancelled))
	}

	return cancelled, nil
}
