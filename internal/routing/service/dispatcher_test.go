package service

import (
	"context"
	"testing"
	"time"

	candrepo "schadenportal_backend/internal/candidates/repository"
	"schadenportal_backend/internal/orders/domain"
	ordersrepo "schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/internal/routing/repository"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRuleRepo struct {
	rules []repository.Rule
}

func (f *fakeRuleRepo) CreateRule(_ context.Context, _ repository.CreateRuleParams) (repository.Rule, error) {
	panic("not used")
}
func (f *fakeRuleRepo) GetRule(_ context.Context, _ uuid.UUID) (repository.Rule, error) {
	panic("not used")
}
func (f *fakeRuleRepo) ListRules(_ context.Context) ([]repository.Rule, error) { return f.rules, nil }
func (f *fakeRuleRepo) UpdateRule(_ context.Context, _ uuid.UUID, _ repository.UpdateRuleParams) (repository.Rule, error) {
	panic("not used")
}
func (f *fakeRuleRepo) DeleteRule(_ context.Context, _ uuid.UUID) error { panic("not used") }
func (f *fakeRuleRepo) ListActiveByCategory(_ context.Context, category string) ([]repository.Rule, error) {
	out := make([]repository.Rule, 0)
	for _, r := range f.rules {
		if r.Category == category && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeOrderDirectory struct {
	orders map[uuid.UUID]ordersrepo.Order
}

func (f *fakeOrderDirectory) Get(_ context.Context, id uuid.UUID) (ordersrepo.Order, error) {
	return f.orders[id], nil
}

type fakeGate struct {
	availability map[uuid.UUID]string
}

func (f *fakeGate) AvailabilityFor(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if a, ok := f.availability[id]; ok {
			out[id] = a
		} else {
			out[id] = candrepo.AvailabilityUnavailable
		}
	}
	return out, nil
}

type fakeIssuer struct {
	tried  []uuid.UUID
	issued [][]uuid.UUID
}

func (f *fakeIssuer) Issue(_ context.Context, _ uuid.UUID, candidateIDs []uuid.UUID, _ time.Time) ([]uuid.UUID, error) {
	f.issued = append(f.issued, candidateIDs)
	f.tried = append(f.tried, candidateIDs...)
	ids := make([]uuid.UUID, len(candidateIDs))
	for i := range candidateIDs {
		ids[i] = uuid.New()
	}
	return ids, nil
}

func (f *fakeIssuer) TriedCandidates(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return f.tried, nil
}

type fixedTTL time.Duration

func (d fixedTTL) GetOfferResponseTTL() time.Duration { return time.Duration(d) }

func newDispatcher(rules []repository.Rule, orders *fakeOrderDirectory, gate *fakeGate, issuer *fakeIssuer) *Service {
	svc := New(&fakeRuleRepo{rules: rules}, fixedTTL(24*time.Hour), logger.New("test"))
	svc.SetOrderDirectory(orders)
	svc.SetAvailabilityGate(gate)
	svc.SetOfferIssuer(issuer)
	return svc
}

func broadcastRule(category, prefix string, targets ...uuid.UUID) repository.Rule {
	r := repository.Rule{
		ID:           uuid.New(),
		Category:     category,
		RegionPrefix: prefix,
		Priority:     100,
		Mode:         repository.ModeBroadcast,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	for i, t := range targets {
		r.Targets = append(r.Targets, repository.Target{CandidateID: t, Position: i})
	}
	return r
}

func TestRouteAndOfferBroadcastIssuesToAllEligible(t *testing.T) {
	orderID := uuid.New()
	a, b := uuid.New(), uuid.New()

	orders := &fakeOrderDirectory{orders: map[uuid.UUID]ordersrepo.Order{
		orderID: {ID: orderID, Category: domain.Category("sanitaer"), RegionCode: "10115", Status: domain.StatusNew},
	}}
	gate := &fakeGate{availability: map[uuid.UUID]string{
		a: candrepo.AvailabilityAvailable,
		b: candrepo.AvailabilityLimited,
	}}
	issuer := &fakeIssuer{}
	svc := newDispatcher([]repository.Rule{broadcastRule("sanitaer", "101", a, b)}, orders, gate, issuer)

	res, err := svc.RouteAndOffer(context.Background(), orderID)
	if err != nil {
		t.Fatalf("RouteAndOffer failed: %v", err)
	}
	if !res.Matched {
		t.Fatal("expected a match")
	}
	if len(res.OfferIDs) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(res.OfferIDs))
	}
}

func TestRouteAndOfferSkipsNonNewOrders(t *testing.T) {
	orderID := uuid.New()
	a := uuid.New()

	orders := &fakeOrderDirectory{orders: map[uuid.UUID]ordersrepo.Order{
		orderID: {ID: orderID, Category: domain.Category("sanitaer"), RegionCode: "10115", Status: domain.StatusInProgress},
	}}
	issuer := &fakeIssuer{}
	svc := newDispatcher([]repository.Rule{broadcastRule("sanitaer", "101", a)}, orders,
		&fakeGate{availability: map[uuid.UUID]string{a: candrepo.AvailabilityAvailable}}, issuer)

	res, err := svc.RouteAndOffer(context.Background(), orderID)
	if err != nil {
		t.Fatalf("RouteAndOffer failed: %v", err)
	}
	if res.Matched || len(issuer.issued) != 0 {
		t.Fatalf("expected no dispatch for assigned order, got %+v", res)
	}
}

func TestRouteAndOfferNoMatchIsTerminal(t *testing.T) {
	orderID := uuid.New()

	orders := &fakeOrderDirectory{orders: map[uuid.UUID]ordersrepo.Order{
		orderID: {ID: orderID, Category: domain.Category("dach"), RegionCode: "80331", Status: domain.StatusNew},
	}}
	issuer := &fakeIssuer{}
	svc := newDispatcher(nil, orders, &fakeGate{}, issuer)

	res, err := svc.RouteAndOffer(context.Background(), orderID)
	if err != nil {
		t.Fatalf("RouteAndOffer failed: %v", err)
	}
	if res.Matched {
		t.Fatalf("expected no match, got %+v", res)
	}
}

func TestSequentialCyclesThroughTargets(t *testing.T) {
	orderID := uuid.New()
	first, second := uuid.New(), uuid.New()

	r := repository.Rule{
		ID:           uuid.New(),
		Category:     "sanitaer",
		RegionPrefix: "10",
		Priority:     100,
		Mode:         repository.ModeSequential,
		Active:       true,
		CreatedAt:    time.Now(),
		Targets: []repository.Target{
			{CandidateID: first, Position: 0},
			{CandidateID: second, Position: 1},
		},
	}

	orders := &fakeOrderDirectory{orders: map[uuid.UUID]ordersrepo.Order{
		orderID: {ID: orderID, Category: domain.Category("sanitaer"), RegionCode: "10115", Status: domain.StatusNew},
	}}
	gate := &fakeGate{availability: map[uuid.UUID]string{
		first:  candrepo.AvailabilityAvailable,
		second: candrepo.AvailabilityAvailable,
	}}
	issuer := &fakeIssuer{}
	svc := newDispatcher([]repository.Rule{r}, orders, gate, issuer)

	// Initial dispatch targets only the first candidate.
	if _, err := svc.RouteAndOffer(context.Background(), orderID); err != nil {
		t.Fatalf("RouteAndOffer failed: %v", err)
	}
	if len(issuer.issued) != 1 || len(issuer.issued[0]) != 1 || issuer.issued[0][0] != first {
		t.Fatalf("expected first candidate only, got %v", issuer.issued)
	}

	// The decline re-dispatch moves to the next untried candidate.
	if _, err := svc.RouteAndOffer(context.Background(), orderID); err != nil {
		t.Fatalf("re-dispatch failed: %v", err)
	}
	if len(issuer.issued) != 2 || issuer.issued[1][0] != second {
		t.Fatalf("expected second candidate next, got %v", issuer.issued)
	}

	// Everyone tried: terminal no-match, no further offers.
	res, err := svc.RouteAndOffer(context.Background(), orderID)
	if err != nil {
		t.Fatalf("final dispatch failed: %v", err)
	}
	if res.Matched || len(issuer.issued) != 2 {
		t.Fatalf("expected exhaustion, got %+v", res)
	}
}
