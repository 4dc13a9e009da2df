package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"schadenportal_backend/internal/events"
	"schadenportal_backend/internal/orders/domain"
	"schadenportal_backend/internal/orders/repository"
	"schadenportal_backend/internal/orders/transport"
	"schadenportal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]repository.Order
	// open offers per order, decremented on cancel
	openOffers map[uuid.UUID]int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:     make(map[uuid.UUID]repository.Order),
		openOffers: make(map[uuid.UUID]int),
	}
}

func (f *fakeOrderRepo) Create(_ context.Context, params repository.CreateParams) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := repository.Order{
		ID:            uuid.New(),
		Category:      params.Category,
		RegionCode:    params.RegionCode,
		Description:   params.Description,
		CustomerName:  params.CustomerName,
		CustomerPhone: params.CustomerPhone,
		CustomerEmail: params.CustomerEmail,
		ValueCents:    params.ValueCents,
		Status:        domain.StatusNew,
		ScheduledAt:   params.ScheduledAt,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return repository.Order{}, apperr.NotFound("order not found")
	}
	return o, nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ repository.ListParams) (repository.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]repository.Order, 0, len(f.orders))
	for _, o := range f.orders {
		items = append(items, o)
	}
	return repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from []domain.Status, to domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			f.orders[id] = o
			return nil
		}
	}
	return apperr.Conflict("order is not in a valid state for this transition")
}

func (f *fakeOrderRepo) Cancel(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return 0, apperr.NotFound("order not found")
	}
	if o.Status == domain.StatusCancelled {
		return 0, nil
	}
	if o.Status == domain.StatusDone {
		return 0, apperr.Gone("order is already completed")
	}
	o.Status = domain.StatusCancelled
	f.orders[id] = o
	n := f.openOffers[id]
	f.openOffers[id] = 0
	return n, nil
}

func validCreateRequest() transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		Category:      "sanitaer",
		RegionCode:    "10115",
		Description:   "Rohrbruch im Badezimmer, Wasser tritt aus",
		CustomerName:  "Max Mustermann",
		CustomerPhone: "+49 30 123456",
		ValueCents:    150000,
	}
}

func TestCreatePublishesOrderCreated(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := New(repo)
	bus := events.NewInMemoryBus(nil)
	svc.SetEventBus(bus)

	received := make(chan events.Event, 1)
	bus.Subscribe("orders.created", events.HandlerFunc(func(_ context.Context, e events.Event) error {
		received <- e
		return nil
	}))

	order, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if order.Status != domain.StatusNew {
		t.Fatalf("expected status NEW, got %s", order.Status)
	}

	select {
	case e := <-received:
		created, ok := e.(events.OrderCreated)
		if !ok {
			t.Fatalf("expected OrderCreated, got %T", e)
		}
		if created.OrderID != order.ID {
			t.Fatalf("event order ID mismatch: %s != %s", created.OrderID, order.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("OrderCreated event not published")
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := New(repo)

	req := validCreateRequest()
	req.Category = "plumbing"

	_, err := svc.Create(context.Background(), req)
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Fatalf("expected no order persisted, got %d", len(repo.orders))
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := New(repo)

	order, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Complete(context.Background(), order.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// DONE is terminal; nothing leaves it.
	if _, err := svc.UpdateStatus(context.Background(), order.ID, domain.StatusInProgress); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := New(repo)

	order, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.UpdateStatus(context.Background(), order.ID, domain.StatusNew)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got.Status != domain.StatusNew {
		t.Fatalf("expected NEW, got %s", got.Status)
	}
}

func TestCancelWithdrawsOpenOffers(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := New(repo)
	bus := events.NewInMemoryBus(nil)
	svc.SetEventBus(bus)

	order, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	repo.openOffers[order.ID] = 3

	cancelled, err := svc.Cancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled != 3 {
		t.Fatalf("expected 3 cancelled offers, got %d", cancelled)
	}

	// Cancelling again is a no-op.
	cancelled, err = svc.Cancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("repeat Cancel failed: %v", err)
	}
	if cancelled != 0 {
		t.Fatalf("expected 0 on repeat cancel, got %d", cancelled)
	}
}

func TestCancelCompletedOrderFails(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := New(repo)

	order, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Complete(context.Background(), order.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), order.ID); apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("expected gone, got %v", err)
	}
}
