package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"schadenportal_backend/internal/events"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []uuid.UUID
	err  error
}

func (r *recordingSender) Send(_ context.Context, candidateID uuid.UUID, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, candidateID)
	return r.err
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestOfferIssuedNotifiesCandidate(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, logger.New("test"))
	bus := events.NewInMemoryBus(nil)
	svc.RegisterHandlers(bus)

	candidate := uuid.New()
	if err := bus.PublishSync(context.Background(),
		events.NewOfferIssued(uuid.New(), uuid.New(), candidate, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if sender.count() != 1 || sender.sent[0] != candidate {
		t.Fatalf("expected 1 notification to %s, got %v", candidate, sender.sent)
	}
}

func TestSenderFailureDoesNotPropagate(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, logger.New("test"))
	bus := events.NewInMemoryBus(nil)
	svc.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(),
		events.NewOrderAssigned(uuid.New(), uuid.New(), uuid.New(), "partner", "offer_accept")); err != nil {
		t.Fatalf("delivery failure must not surface to publisher, got %v", err)
	}
}
