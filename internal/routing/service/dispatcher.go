package service

import (
	"context"
	"fmt"
	"time"

	"schadenportal_backend/internal/events"
	"schadenportal_backend/internal/orders/domain"
	"schadenportal_backend/internal/routing/matcher"
	"schadenportal_backend/internal/routing/repository"

	"github.com/google/uuid"
)

// RouteResult is the outcome of a dispatch pass. Matched=false means no
// eligible candidate was found; the claim stays with the internal team.
type RouteResult struct {
	Matched  bool        `json:"matched"`
	RuleID   uuid.UUID   `json:"ruleId,omitempty"`
	Mode     string      `json:"mode,omitempty"`
	OfferIDs []uuid.UUID `json:"offerIds"`
}

// RouteAndOffer runs one matcher pass for the order and issues offers to
// the selected candidates. Candidates that already held an offer for the
// order are excluded, which makes the pass safe to repeat: re-running on
// an already-routed broadcast order finds everyone tried and no-ops.
func (s *Service) RouteAndOffer(ctx context.Context, orderID uuid.UUID) (RouteResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return RouteResult{}, err
	}
	// Only unassigned fresh claims are dispatched. Assignment moves the
	// order out of NEW, which stops decline/expiry cycling on its own.
	if order.Status != domain.StatusNew {
		return RouteResult{OfferIDs: []uuid.UUID{}}, nil
	}

	rules, err := s.repo.ListActiveByCategory(ctx, string(order.Category))
	if err != nil {
		return RouteResult{}, err
	}

	targetIDs := collectTargetIDs(rules)
	availability := map[uuid.UUID]string{}
	if len(targetIDs) > 0 {
		availability, err = s.gate.AvailabilityFor(ctx, targetIDs)
		if err != nil {
			return RouteResult{}, fmt.Errorf("availability lookup: %w", err)
		}
	}

	tried, err := s.issuer.TriedCandidates(ctx, orderID)
	if err != nil {
		return RouteResult{}, fmt.Errorf("tried candidates lookup: %w", err)
	}
	excluded := make(map[uuid.UUID]struct{}, len(tried))
	for _, id := range tried {
		excluded[id] = struct{}{}
	}

	res := matcher.Match(matcher.Input{
		RegionCode:   order.RegionCode,
		Rules:        rules,
		Availability: availability,
		Excluded:     excluded,
	})
	if !res.Matched {
		s.log.Info("no eligible candidate, claim stays internal",
			"orderId", orderID, "category", string(order.Category), "region", order.RegionCode)
		return RouteResult{OfferIDs: []uuid.UUID{}}, nil
	}

	deadline := time.Now().Add(s.cfg.GetOfferResponseTTL())
	offerIDs, err := s.issuer.Issue(ctx, orderID, res.Candidates, deadline)
	if err != nil {
		return RouteResult{}, err
	}

	s.log.Info("claim dispatched",
		"orderId", orderID, "ruleId", res.RuleID, "mode", res.Mode, "offers", len(offerIDs))

	return RouteResult{Matched: true, RuleID: res.RuleID, Mode: res.Mode, OfferIDs: offerIDs}, nil
}

func collectTargetIDs(rules []repository.Rule) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, rule := range rules {
		for _, t := range rule.Targets {
			if _, ok := seen[t.CandidateID]; ok {
				continue
			}
			seen[t.CandidateID] = struct{}{}
			ids = append(ids, t.CandidateID)
		}
	}
	return ids
}

// RegisterHandlers subscribes the dispatcher to the lifecycle events that
// trigger a routing pass: claim creation for the initial dispatch,
// decline and expiry for sequential cycling.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OrderCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		created, ok := e.(events.OrderCreated)
		if !ok {
			return fmt.Errorf("unexpected event type %T", e)
		}
		_, err := s.RouteAndOffer(ctx, created.OrderID)
		return err
	}))

	redispatch := events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		var orderID uuid.UUID
		switch ev := e.(type) {
		case events.OfferDeclined:
			orderID = ev.OrderID
		case events.OfferExpired:
			orderID = ev.OrderID
		default:
			return fmt.Errorf("unexpected event type %T", e)
		}
		_, err := s.RouteAndOffer(ctx, orderID)
		return err
	})
	bus.Subscribe(events.OfferDeclined{}.EventName(), redispatch)
	bus.Subscribe(events.OfferExpired{}.EventName(), redispatch)
}
