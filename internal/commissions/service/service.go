package service

import (
	"context"

	candrepo "schadenportal_backend/internal/candidates/repository"
	"schadenportal_backend/internal/commissions/repository"
	"schadenportal_backend/internal/events"
	ordersrepo "schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/config"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

// OrderDirectory exposes the order lookup the deriver needs, served by
// the orders module.
type OrderDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (ordersrepo.Order, error)
}

// CandidateDirectory resolves a candidate's kind, served by the
// candidates module.
type CandidateDirectory interface {
	KindOf(ctx context.Context, id uuid.UUID) (string, error)
}

// Service derives and manages partner commissions.
type Service struct {
	repo repository.Repository
	cfg  config.CommissionConfig
	log  *logger.Logger

	orders     OrderDirectory
	candidates CandidateDirectory
	eventBus   events.Bus
}

func New(repo repository.Repository, cfg config.CommissionConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SetOrderDirectory wires the order lookup after construction.
func (s *Service) SetOrderDirectory(orders OrderDirectory) {
	s.orders = orders
}

// SetCandidateDirectory wires the kind lookup after construction.
func (s *Service) SetCandidateDirectory(candidates CandidateDirectory) {
	s.candidates = candidates
}

// SetEventBus wires the event bus after construction.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// DeriveForAssignment computes and stores the commission for a partner
// assignment. The partner's configured rate, or the system default, is
// snapshotted into the row; deriving again for the same order returns
// the existing record.
func (s *Service) DeriveForAssignment(ctx context.Context, orderID, partnerID, assignmentID uuid.UUID) error {
	kind, err := s.candidates.KindOf(ctx, partnerID)
	if err != nil {
		return err
	}
	if kind != candrepo.KindPartner {
		return apperr.BadRequest("commissions apply to partner assignees only")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	rateBps, found, err := s.repo.GetRate(ctx, partnerID)
	if err != nil {
		return err
	}
	if !found {
		rateBps = s.cfg.GetDefaultCommissionRateBps()
	}

	commission, created, err := s.repo.Create(ctx, repository.CreateParams{
		OrderID:      orderID,
		PartnerID:    partnerID,
		AssignmentID: assignmentID,
		AmountCents:  Amount(order.ValueCents, rateBps),
		RateBps:      rateBps,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewCommissionCreated(
			commission.ID, orderID, partnerID, commission.AmountCents, commission.RateBps))
	}

	s.log.Info("commission derived",
		"orderId", orderID, "partnerId", partnerID,
		"amountCents", commission.AmountCents, "rateBps", commission.RateBps)

	return nil
}

// Amount computes the commission in cents from an order value and a
// rate in basis points, rounding down.
func Amount(valueCents int64, rateBps int32) int64 {
	return valueCents * int64(rateBps) / 10000
}

// MarkPaid settles a pending commission.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (repository.Commission, error) {
	return s.repo.MarkPaid(ctx, id)
}

// SetPartnerRate configures a partner's commission rate, applied to
// future derivations only.
func (s *Service) SetPartnerRate(ctx context.Context, partnerID uuid.UUID, rateBps int32) error {
	kind, err := s.candidates.KindOf(ctx, partnerID)
	if err != nil {
		return err
	}
	if kind != candrepo.KindPartner {
		return apperr.BadRequest("commission rates apply to partners only")
	}
	return s.repo.UpsertRate(ctx, partnerID, rateBps)
}

// PartnerRate returns the rate that would apply to the partner's next
// commission.
func (s *Service) PartnerRate(ctx context.Context, partnerID uuid.UUID) (int32, error) {
	rateBps, found, err := s.repo.GetRate(ctx, partnerID)
	if err != nil {
		return 0, err
	}
	if !found {
		return s.cfg.GetDefaultCommissionRateBps(), nil
	}
	return rateBps, nil
}

// GetActiveByOrder returns the order's live commission.
func (s *Service) GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (repository.Commission, error) {
	return s.repo.GetActiveByOrder(ctx, orderID)
}

// ListByPartner returns a partner's commissions, newest first.
func (s *Service) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]repository.Commission, error) {
	return s.repo.ListByPartner(ctx, partnerID)
}

// ListByOrder returns every commission recorded for an order.
func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]repository.Commission, error) {
	return s.repo.ListByOrder(ctx, orderID)
}
