// Package notification fans lifecycle events out to candidates. Delivery
// is fire-and-forget: a failed notification is logged and never reaches
// the transaction that produced the event.
package notification

import (
	"context"

	"schadenportal_backend/internal/events"
	"schadenportal_backend/platform/logger"

	"github.com/google/uuid"
)

// Sender delivers one notification to one candidate. Implementations
// carry the actual channel (push, SMS, email); the default logs only.
type Sender interface {
	Send(ctx context.Context, candidateID uuid.UUID, subject, body string) error
}

// LogSender writes notifications to the structured log. It stands in
// until a real delivery channel is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, candidateID uuid.UUID, subject, body string) error {
	s.log.Info("notification", "candidateId", candidateID, "subject", subject, "body", body)
	return nil
}

// Service subscribes to lifecycle events and forwards them to the
// configured sender.
type Service struct {
	sender Sender
	log    *logger.Logger
}

func NewService(sender Sender, log *logger.Logger) *Service {
	return &Service{sender: sender, log: log}
}

// RegisterHandlers subscribes the notifier to every event a candidate
// should hear about.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OfferIssued{}.EventName(), events.HandlerFunc(s.onOfferIssued))
	bus.Subscribe(events.OfferDeclined{}.EventName(), events.HandlerFunc(s.onOfferDeclined))
	bus.Subscribe(events.OfferExpired{}.EventName(), events.HandlerFunc(s.onOfferExpired))
	bus.Subscribe(events.OrderAssigned{}.EventName(), events.HandlerFunc(s.onOrderAssigned))
	bus.Subscribe(events.OrderCancelled{}.EventName(), events.HandlerFunc(s.onOrderCancelled))
	bus.Subscribe(events.CommissionCreated{}.EventName(), events.HandlerFunc(s.onCommissionCreated))
}

func (s *Service) onOfferIssued(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.OfferIssued)
	if !ok {
		return nil
	}
	s.deliver(ctx, ev.CandidateID, "Neue Anfrage",
		"Sie haben eine neue Auftragsanfrage. Bitte antworten Sie bis "+ev.Deadline.Format("02.01.2006 15:04")+".")
	return nil
}

func (s *Service) onOfferDeclined(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.OfferDeclined)
	if !ok {
		return nil
	}
	s.deliver(ctx, ev.CandidateID, "Anfrage abgelehnt", "Ihre Ablehnung wurde gespeichert.")
	return nil
}

func (s *Service) onOfferExpired(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.OfferExpired)
	if !ok {
		return nil
	}
	s.deliver(ctx, ev.CandidateID, "Anfrage abgelaufen",
		"Die Antwortfrist für eine Auftragsanfrage ist abgelaufen.")
	return nil
}

func (s *Service) onOrderCancelled(_ context.Context, e events.Event) error {
	ev, ok := e.(events.OrderCancelled)
	if !ok {
		return nil
	}
	// Withdrawn offers carry no per-candidate event; the cancellation is
	// recorded for operators only.
	s.log.Info("order cancelled", "orderId", ev.OrderID, "withdrawnOffers", ev.CancelledOffers)
	return nil
}

func (s *Service) onOrderAssigned(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.OrderAssigned)
	if !ok {
		return nil
	}
	s.deliver(ctx, ev.AssigneeID, "Auftrag zugewiesen", "Ihnen wurde ein Auftrag verbindlich zugewiesen.")
	return nil
}

func (s *Service) onCommissionCreated(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.CommissionCreated)
	if !ok {
		return nil
	}
	s.deliver(ctx, ev.PartnerID, "Provision erstellt", "Für Ihre Vermittlung wurde eine Provision angelegt.")
	return nil
}

func (s *Service) deliver(ctx context.Context, candidateID uuid.UUID, subject, body string) {
	if err := s.sender.Send(ctx, candidateID, subject, body); err != nil {
		s.log.Error("notification delivery failed", "candidateId", candidateID, "subject", subject, "error", err)
	}
}
