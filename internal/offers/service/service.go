package service

import (
	"context"
	"time"

	"schadenportal_backend/internal/events"
	"schadenportal_backend/internal/offers/domain"
	"schadenportal_backend/internal/offers/repository"
	orderdomain "schadenportal_backend/internal/orders/domain"
	ordersrepo "schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const msgNotRespondable = "offer is no longer open for a response"

// OrderDirectory exposes the order lookup the ledger needs, served by
// the orders module.
type OrderDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (ordersrepo.Order, error)
}

// Finalizer is the assignment coordinator surface an acceptance hands
// off to. The whole single-winner decision runs inside it.
type Finalizer interface {
	FinalizeFromOffer(ctx context.Context, orderID, candidateID, offerID uuid.UUID) (uuid.UUID, error)
}

// Service owns the offer lifecycle: issuance, response recording and
// expiry.
type Service struct {
	repo repository.Repository
	log  *logger.Logger

	orders    OrderDirectory
	finalizer Finalizer
	eventBus  events.Bus
}

func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetOrderDirectory wires the order lookup after construction.
func (s *Service) SetOrderDirectory(orders OrderDirectory) {
	s.orders = orders
}

// SetFinalizer wires the assignment coordinator after construction.
func (s *Service) SetFinalizer(finalizer Finalizer) {
	s.finalizer = finalizer
}

// SetEventBus wires the event bus after construction.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// Issue creates one sent offer per candidate. A candidate already
// holding an open offer for the order is skipped silently; issuance is
// idempotent per (order, candidate) pair.
func (s *Service) Issue(ctx context.Context, orderID uuid.UUID, candidateIDs []uuid.UUID, deadline time.Time) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(candidateIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i, candidateID := range candidateIDs {
		g.Go(func() error {
			offer, created, err := s.repo.Issue(gctx, orderID, candidateID, deadline)
			if err != nil {
				return err
			}
			ids[i] = offer.ID
			if created && s.eventBus != nil {
				s.eventBus.Publish(gctx, events.NewOfferIssued(offer.ID, orderID, candidateID, offer.Deadline))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ids, nil
}

// TriedCandidates lists every candidate that has ever held an offer for
// the order.
func (s *Service) TriedCandidates(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.TriedCandidateIDs(ctx, orderID)
}

// Accept records a candidate's acceptance and hands off to the
// coordinator to bind the order. Exactly one concurrent acceptance wins;
// the rest see a conflict telling them the offer is no longer available.
func (s *Service) Accept(ctx context.Context, offerID, candidateID uuid.UUID) (repository.Offer, error) {
	offer, err := s.respondable(ctx, offerID, candidateID)
	if err != nil {
		return repository.Offer{}, err
	}

	// The coordinator transitions this offer to accepted inside its
	// transaction, together with the assignment row and the sibling
	// supersede, so a failed finalize leaves the offer untouched.
	if _, err := s.finalizer.FinalizeFromOffer(ctx, offer.OrderID, candidateID, offer.ID); err != nil {
		return repository.Offer{}, err
	}

	return s.repo.GetByID(ctx, offerID)
}

// Decline records a candidate's decline and announces it, which lets a
// sequential routing rule move on to the next target.
func (s *Service) Decline(ctx context.Context, offerID, candidateID uuid.UUID) (repository.Offer, error) {
	offer, err := s.respondable(ctx, offerID, candidateID)
	if err != nil {
		return repository.Offer{}, err
	}

	now := time.Now()
	changed, err := s.repo.Transition(ctx, offer.ID, domain.StatusSent, domain.StatusDeclined, &now)
	if err != nil {
		return repository.Offer{}, err
	}
	if !changed {
		return repository.Offer{}, apperr.Conflict(msgNotRespondable)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewOfferDeclined(offer.ID, offer.OrderID, candidateID))
	}

	return s.repo.GetByID(ctx, offerID)
}

// respondable loads the offer and verifies identity, order state and
// deadline. A sent offer past its deadline is persisted as expired on
// the way out.
func (s *Service) respondable(ctx context.Context, offerID, candidateID uuid.UUID) (repository.Offer, error) {
	offer, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		return repository.Offer{}, err
	}
	if offer.CandidateID != candidateID {
		return repository.Offer{}, apperr.Forbidden("offer belongs to another candidate")
	}

	order, err := s.orders.Get(ctx, offer.OrderID)
	if err != nil {
		return repository.Offer{}, err
	}
	if order.Status == orderdomain.StatusCancelled || order.Status == orderdomain.StatusDone {
		return repository.Offer{}, apperr.Gone("order is closed")
	}

	now := time.Now()
	if offer.Status == domain.StatusSent && !domain.IsRespondable(offer.Status, offer.Deadline, now) {
		// Persist the lazy expiry so the sweep has nothing left to do.
		if _, err := s.repo.Transition(ctx, offer.ID, domain.StatusSent, domain.StatusExpired, nil); err != nil {
			s.log.Error("persist lazy expiry failed", "offerId", offer.ID, "error", err)
		}
		return repository.Offer{}, apperr.Conflict(msgNotRespondable)
	}
	if offer.Status != domain.StatusSent {
		return repository.Offer{}, apperr.Conflict(msgNotRespondable)
	}

	return offer, nil
}

// SweepExpired persists the expired status on every offer past its
// deadline. Safe to run repeatedly; a second pass finds nothing.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.SweepExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for _, offer := range expired {
		if s.eventBus != nil {
			s.eventBus.Publish(ctx, events.NewOfferExpired(offer.ID, offer.OrderID, offer.CandidateID))
		}
	}

	if len(expired) > 0 {
		s.log.Info("expired offers swept", "count", len(expired))
	}

	return len(expired), nil
}

// Inbox lists a candidate's offers with lazy expiry applied.
func (s *Service) Inbox(ctx context.Context, candidateID uuid.UUID) ([]repository.Offer, error) {
	offers, err := s.repo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	applyEffectiveStatus(offers)
	return offers, nil
}

// ListByOrder lists every offer for an order with lazy expiry applied.
func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]repository.Offer, error) {
	offers, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	applyEffectiveStatus(offers)
	return offers, nil
}

func applyEffectiveStatus(offers []repository.Offer) {
	now := time.Now()
	for i := range offers {
		offers[i].Status = domain.Effective(offers[i].Status, offers[i].Deadline, now)
	}
}
