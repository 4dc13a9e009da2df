package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"schadenportal_backend/internal/offers/domain"
	"schadenportal_backend/internal/offers/repository"
	orderdomain "schadenportal_backend/internal/orders/domain"
	ordersrepo "schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/platform/apperr"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[uuid.UUID]repository.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[uuid.UUID]repository.Offer)}
}

func (f *fakeOfferRepo) Issue(_ context.Context, orderID, candidateID uuid.UUID, deadline time.Time) (repository.Offer, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.offers {
		if o.OrderID == orderID && o.CandidateID == candidateID && o.Status == domain.StatusSent {
			return o, false, nil
		}
	}
	o := repository.Offer{
		ID:          uuid.New(),
		OrderID:     orderID,
		CandidateID: candidateID,
		Status:      domain.StatusSent,
		IssuedAt:    time.Now(),
		Deadline:    deadline,
	}
	f.offers[o.ID] = o
	return o, true, nil
}

func (f *fakeOfferRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return repository.Offer{}, apperr.NotFound("offer not found")
	}
	return o, nil
}

func (f *fakeOfferRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Offer, 0)
	for _, o := range f.offers {
		if o.OrderID == orderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) ListByCandidate(_ context.Context, candidateID uuid.UUID) ([]repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Offer, 0)
	for _, o := range f.offers {
		if o.CandidateID == candidateID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) TriedCandidateIDs(_ context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, o := range f.offers {
		if o.OrderID != orderID {
			continue
		}
		if _, ok := seen[o.CandidateID]; ok {
			continue
		}
		seen[o.CandidateID] = struct{}{}
		ids = append(ids, o.CandidateID)
	}
	return ids, nil
}

func (f *fakeOfferRepo) Transition(_ context.Context, id uuid.UUID, from, to string, respondedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if respondedAt != nil {
		o.RespondedAt = respondedAt
	}
	f.offers[id] = o
	return true, nil
}

func (f *fakeOfferRepo) SweepExpired(_ context.Context, now time.Time) ([]repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expired := make([]repository.Offer, 0)
	for id, o := range f.offers {
		if o.Status == domain.StatusSent && o.Deadline.Before(now) {
			o.Status = domain.StatusExpired
			f.offers[id] = o
			expired = append(expired, o)
		}
	}
	return expired, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]ordersrepo.Order
}

func (f *fakeOrders) Get(_ context.Context, id uuid.UUID) (ordersrepo.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id], nil
}

type fakeFinalizer struct {
	err   error
	calls int
}

func (f *fakeFinalizer) FinalizeFromOffer(_ context.Context, _, _, _ uuid.UUID) (uuid.UUID, error) {
	f.calls++
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return uuid.New(), nil
}

func newLedger(repo *fakeOfferRepo, orders *fakeOrders, finalizer *fakeFinalizer) *Service {
	svc := New(repo, logger.New("test"))
	svc.SetOrderDirectory(orders)
	svc.SetFinalizer(finalizer)
	return svc
}

func openOrder(id uuid.UUID) ordersrepo.Order {
	return ordersrepo.Order{ID: id, Status: orderdomain.StatusNew}
}

func TestIssueIsIdempotentPerCandidate(t *testing.T) {
	repo := newFakeOfferRepo()
	svc := newLedger(repo, &fakeOrders{}, &fakeFinalizer{})

	orderID := uuid.New()
	candidate := uuid.New()
	deadline := time.Now().Add(24 * time.Hour)

	first, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, deadline)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, deadline)
	if err != nil {
		t.Fatalf("re-Issue failed: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("expected the same offer on re-issue, got %v and %v", first, second)
	}
	if len(repo.offers) != 1 {
		t.Fatalf("expected 1 offer row, got %d", len(repo.offers))
	}
}

func TestDeclineTwiceFailsSecondTime(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	candidate := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{orderID: openOrder(orderID)}}
	svc := newLedger(repo, orders, &fakeFinalizer{})

	ids, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Decline(context.Background(), ids[0], candidate); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}
	if _, err := svc.Decline(context.Background(), ids[0], candidate); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second decline, got %v", err)
	}
}

func TestRespondRejectsWrongCandidate(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	candidate := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{orderID: openOrder(orderID)}}
	svc := newLedger(repo, orders, &fakeFinalizer{})

	ids, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Accept(context.Background(), ids[0], uuid.New()); apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for wrong candidate, got %v", err)
	}
}

func TestRespondOnExpiredOfferFailsAndPersistsExpiry(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	candidate := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{orderID: openOrder(orderID)}}
	finalizer := &fakeFinalizer{}
	svc := newLedger(repo, orders, finalizer)

	ids, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Accept(context.Background(), ids[0], candidate); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on expired offer, got %v", err)
	}
	if finalizer.calls != 0 {
		t.Fatal("finalizer must not run for an expired offer")
	}
	stored, _ := repo.GetByID(context.Background(), ids[0])
	if stored.Status != domain.StatusExpired {
		t.Fatalf("expected expiry persisted, got %s", stored.Status)
	}
}

func TestRespondOnClosedOrderFails(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	candidate := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{
		orderID: {ID: orderID, Status: orderdomain.StatusCancelled},
	}}
	svc := newLedger(repo, orders, &fakeFinalizer{})

	ids, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Accept(context.Background(), ids[0], candidate); apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("expected gone for cancelled order, got %v", err)
	}
	if _, err := svc.Decline(context.Background(), ids[0], candidate); apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("expected gone for cancelled order, got %v", err)
	}
}

func TestAcceptSurfacesLostRaceAsConflict(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	candidate := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{orderID: openOrder(orderID)}}
	finalizer := &fakeFinalizer{err: apperr.Conflict("offer no longer available")}
	svc := newLedger(repo, orders, finalizer)

	ids, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Accept(context.Background(), ids[0], candidate); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict from lost race, got %v", err)
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{orderID: openOrder(orderID)}}
	svc := newLedger(repo, orders, &fakeFinalizer{})

	candidates := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	if _, err := svc.Issue(context.Background(), orderID, candidates, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	n, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 expired, got %d", n)
	}

	for i := 0; i < 3; i++ {
		n, err := svc.SweepExpired(context.Background())
		if err != nil {
			t.Fatalf("repeat sweep failed: %v", err)
		}
		if n != 0 {
			t.Fatalf("repeat sweep must be a no-op, got %d", n)
		}
	}
}

func TestInboxAppliesLazyExpiry(t *testing.T) {
	repo := newFakeOfferRepo()
	orderID := uuid.New()
	candidate := uuid.New()
	orders := &fakeOrders{orders: map[uuid.UUID]ordersrepo.Order{orderID: openOrder(orderID)}}
	svc := newLedger(repo, orders, &fakeFinalizer{})

	if _, err := svc.Issue(context.Background(), orderID, []uuid.UUID{candidate}, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	inbox, err := svc.Inbox(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if len(inbox) != 1 || inbox[0].Status != domain.StatusExpired {
		t.Fatalf("expected expired in inbox before any sweep, got %+v", inbox)
	}
}
