package service

import (
	"context"
	"time"

	"schadenportal_backend/internal/orders/domain"
	ordersrepo "schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/internal/routing/repository"
	"schadenportal_backend/internal/routing/transport"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/config"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

// AvailabilityGate is the read-only availability lookup the matcher
// consults, served by the candidates module.
type AvailabilityGate interface {
	AvailabilityFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// OrderDirectory exposes the order lookup routing needs, served by the
// orders module.
type OrderDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (ordersrepo.Order, error)
}

// OfferIssuer is the offer ledger surface the dispatcher drives.
type OfferIssuer interface {
	// Issue creates one sent offer per candidate; re-issuing over a
	// still-open offer is a no-op per candidate.
	Issue(ctx context.Context, orderID uuid.UUID, candidateIDs []uuid.UUID, deadline time.Time) ([]uuid.UUID, error)
	// TriedCandidates lists every candidate that has ever held an offer
	// for the order, regardless of its outcome.
	TriedCandidates(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)
}

// Service owns routing rule configuration and claim dispatch.
type Service struct {
	repo repository.Repository
	cfg  config.RoutingConfig
	log  *logger.Logger

	orders OrderDirectory
	gate   AvailabilityGate
	issuer OfferIssuer
}

func New(repo repository.Repository, cfg config.RoutingConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SetOrderDirectory wires the order lookup after construction.
func (s *Service) SetOrderDirectory(orders OrderDirectory) {
	s.orders = orders
}

// SetAvailabilityGate wires the availability lookup after construction.
func (s *Service) SetAvailabilityGate(gate AvailabilityGate) {
	s.gate = gate
}

// SetOfferIssuer wires the offer ledger after construction.
func (s *Service) SetOfferIssuer(issuer OfferIssuer) {
	s.issuer = issuer
}

func (s *Service) CreateRule(ctx context.Context, req transport.CreateRuleRequest) (repository.Rule, error) {
	if _, ok := domain.ParseCategory(req.Category); !ok {
		return repository.Rule{}, apperr.BadRequest("invalid category")
	}

	targets, err := parseTargets(req.Targets)
	if err != nil {
		return repository.Rule{}, err
	}

	return s.repo.CreateRule(ctx, repository.CreateRuleParams{
		Category:     req.Category,
		RegionPrefix: req.RegionPrefix,
		Priority:     req.Priority,
		Mode:         req.Mode,
		Capacity:     req.Capacity,
		Targets:      targets,
	})
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (repository.Rule, error) {
	return s.repo.GetRule(ctx, id)
}

func (s *Service) ListRules(ctx context.Context) ([]repository.Rule, error) {
	return s.repo.ListRules(ctx)
}

func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, req transport.UpdateRuleRequest) (repository.Rule, error) {
	params := repository.UpdateRuleParams{
		Priority: req.Priority,
		Mode:     req.Mode,
		Capacity: req.Capacity,
		Active:   req.Active,
	}

	if req.Targets != nil {
		targets, err := parseTargets(*req.Targets)
		if err != nil {
			return repository.Rule{}, err
		}
		params.Targets = targets
	}

	return s.repo.UpdateRule(ctx, id, params)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRule(ctx, id)
}

func parseTargets(raw []string) ([]uuid.UUID, error) {
	targets := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for _, t := range raw {
		id, err := uuid.Parse(t)
		if err != nil {
			return nil, apperr.BadRequest("invalid target candidate ID: " + t)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	return targets, nil
}
