package service

import (
	"context"

	"schadenportal_backend/internal/assignments/repository"
	candrepo "schadenportal_backend/internal/candidates/repository"
	"schadenportal_backend/internal/events"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

// CandidateDirectory resolves a candidate's kind, served by the
// candidates module.
type CandidateDirectory interface {
	KindOf(ctx context.Context, id uuid.UUID) (string, error)
}

// CommissionDeriver derives the commission for a freshly bound partner
// assignment.
type CommissionDeriver interface {
	DeriveForAssignment(ctx context.Context, orderID, partnerID, assignmentID uuid.UUID) error
}

// RetryEnqueuer schedules an asynchronous commission derivation retry
// when the synchronous attempt fails.
type RetryEnqueuer interface {
	EnqueueCommissionDerive(ctx context.Context, orderID, partnerID, assignmentID uuid.UUID) error
}

// Service is the assignment coordinator: it serializes the pick-one-
// winner decision per order and triggers commission derivation.
type Service struct {
	repo repository.Repository
	log  *logger.Logger

	candidates CandidateDirectory
	deriver    CommissionDeriver
	retries    RetryEnqueuer
	eventBus   events.Bus
}

func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetCandidateDirectory wires the kind lookup after construction.
func (s *Service) SetCandidateDirectory(candidates CandidateDirectory) {
	s.candidates = candidates
}

// SetCommissionDeriver wires the deriver after construction.
func (s *Service) SetCommissionDeriver(deriver CommissionDeriver) {
	s.deriver = deriver
}

// SetRetryEnqueuer wires the async retry queue after construction.
func (s *Service) SetRetryEnqueuer(retries RetryEnqueuer) {
	s.retries = retries
}

// SetEventBus wires the event bus after construction.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// FinalizeFromOffer binds the order to the accepting candidate. Called
// by the offer ledger on accept; losing concurrent acceptances surface
// as a conflict told to retry elsewhere.
func (s *Service) FinalizeFromOffer(ctx context.Context, orderID, candidateID, offerID uuid.UUID) (uuid.UUID, error) {
	assignment, err := s.finalize(ctx, repository.FinalizeParams{
		OrderID:    orderID,
		AssigneeID: candidateID,
		Source:     repository.SourceOfferAccept,
		OfferID:    &offerID,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return assignment.ID, nil
}

// Assign binds the order without an offer: an admin override or a
// professional self-claiming an unrouted order. The same single-winner
// guarantee applies.
func (s *Service) Assign(ctx context.Context, orderID, assigneeID uuid.UUID, source string) (repository.Assignment, error) {
	if source != repository.SourceAdminOverride && source != repository.SourceDirectAssign {
		return repository.Assignment{}, apperr.BadRequest("invalid assignment source")
	}
	return s.finalize(ctx, repository.FinalizeParams{
		OrderID:    orderID,
		AssigneeID: assigneeID,
		Source:     source,
	})
}

// Reassign supersedes the current winner and binds a new one.
func (s *Service) Reassign(ctx context.Context, orderID, assigneeID uuid.UUID) (repository.Assignment, error) {
	kind, err := s.candidates.KindOf(ctx, assigneeID)
	if err != nil {
		return repository.Assignment{}, err
	}

	assignment, err := s.repo.Reassign(ctx, repository.FinalizeParams{
		OrderID:      orderID,
		AssigneeID:   assigneeID,
		AssigneeKind: kind,
		Source:       repository.SourceAdminOverride,
	})
	if err != nil {
		return repository.Assignment{}, err
	}

	s.afterBind(ctx, assignment)
	return assignment, nil
}

func (s *Service) finalize(ctx context.Context, params repository.FinalizeParams) (repository.Assignment, error) {
	kind, err := s.candidates.KindOf(ctx, params.AssigneeID)
	if err != nil {
		return repository.Assignment{}, err
	}
	// Self-claim is a professional shortcut; partners only receive work
	// through offers or an admin override.
	if params.Source == repository.SourceDirectAssign && kind != candrepo.KindProfessional {
		return repository.Assignment{}, apperr.Forbidden("only professionals can claim orders directly")
	}
	params.AssigneeKind = kind

	assignment, err := s.repo.Finalize(ctx, params)
	if err != nil {
		return repository.Assignment{}, err
	}

	s.afterBind(ctx, assignment)
	return assignment, nil
}

// afterBind runs the non-transactional follow-ups: the assignment event
// and, for partners, commission derivation. A derivation failure never
// unwinds the assignment; it is retried asynchronously instead.
func (s *Service) afterBind(ctx context.Context, assignment repository.Assignment) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewOrderAssigned(
			assignment.OrderID, assignment.ID, assignment.AssigneeID,
			assignment.AssigneeKind, assignment.Source))
	}

	if assignment.AssigneeKind != candrepo.KindPartner || s.deriver == nil {
		return
	}

	if err := s.deriver.DeriveForAssignment(ctx, assignment.OrderID, assignment.AssigneeID, assignment.ID); err != nil {
		s.log.Error("commission derivation failed, scheduling retry",
			"orderId", assignment.OrderID, "assignmentId", assignment.ID, "error", err)
		if s.retries == nil {
			return
		}
		if err := s.retries.EnqueueCommissionDerive(ctx, assignment.OrderID, assignment.AssigneeID, assignment.ID); err != nil {
			s.log.Error("commission retry enqueue failed",
				"orderId", assignment.OrderID, "assignmentId", assignment.ID, "error", err)
		}
	}
}

// GetActiveByOrder returns the order's current binding assignment.
func (s *Service) GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (repository.Assignment, error) {
	return s.repo.GetActiveByOrder(ctx, orderID)
}

// ListByOrder returns the order's full assignment history.
func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]repository.Assignment, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// ListByAssignee returns a candidate's assignments, newest first.
func (s *Service) ListByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]repository.Assignment, error) {
	return s.repo.ListByAssignee(ctx, assigneeID)
}
