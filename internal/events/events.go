// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"schadenportal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Order Domain Events
// =============================================================================

// OrderCreated is published when the intake surface records a new claim.
// The routing dispatcher subscribes to run the initial route-and-offer pass.
type OrderCreated struct {
	BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	Category   string    `json:"category"`
	RegionCode string    `json:"regionCode"`
}

func (e OrderCreated) EventName() string { return "orders.created" }

func NewOrderCreated(orderID uuid.UUID, category, regionCode string) OrderCreated {
	return OrderCreated{
		BaseEvent:  NewBaseEvent(),
		OrderID:    orderID,
		Category:   category,
		RegionCode: regionCode,
	}
}

// OrderCancelled is published when a claim is withdrawn or closed by admin.
type OrderCancelled struct {
	BaseEvent
	OrderID         uuid.UUID `json:"orderId"`
	CancelledOffers int       `json:"cancelledOffers"`
}

func (e OrderCancelled) EventName() string { return "orders.cancelled" }

func NewOrderCancelled(orderID uuid.UUID, cancelledOffers int) OrderCancelled {
	return OrderCancelled{
		BaseEvent:       NewBaseEvent(),
		OrderID:         orderID,
		CancelledOffers: cancelledOffers,
	}
}

// OrderAssigned is published after the coordinator binds an order to a winner.
type OrderAssigned struct {
	BaseEvent
	OrderID      uuid.UUID `json:"orderId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
	AssigneeID   uuid.UUID `json:"assigneeId"`
	AssigneeKind string    `json:"assigneeKind"`
	Source       string    `json:"source"`
}

func (e OrderAssigned) EventName() string { return "orders.assigned" }

func NewOrderAssigned(orderID, assignmentID, assigneeID uuid.UUID, assigneeKind, source string) OrderAssigned {
	return OrderAssigned{
		BaseEvent:    NewBaseEvent(),
		OrderID:      orderID,
		AssignmentID: assignmentID,
		AssigneeID:   assigneeID,
		AssigneeKind: assigneeKind,
		Source:       source,
	}
}

// =============================================================================
// Offer Domain Events
// =============================================================================

// OfferIssued is published for each offer the ledger creates.
type OfferIssued struct {
	BaseEvent
	OfferID     uuid.UUID `json:"offerId"`
	OrderID     uuid.UUID `json:"orderId"`
	CandidateID uuid.UUID `json:"candidateId"`
	Deadline    time.Time `json:"deadline"`
}

func (e OfferIssued) EventName() string { return "offers.issued" }

func NewOfferIssued(offerID, orderID, candidateID uuid.UUID, deadline time.Time) OfferIssued {
	return OfferIssued{
		BaseEvent:   NewBaseEvent(),
		OfferID:     offerID,
		OrderID:     orderID,
		CandidateID: candidateID,
		Deadline:    deadline,
	}
}

// OfferDeclined is published when a candidate declines an offer.
// For sequential routing rules the dispatcher reacts by offering the
// next candidate in priority order.
type OfferDeclined struct {
	BaseEvent
	OfferID     uuid.UUID `json:"offerId"`
	OrderID     uuid.UUID `json:"orderId"`
	CandidateID uuid.UUID `json:"candidateId"`
}

func (e OfferDeclined) EventName() string { return "offers.declined" }

func NewOfferDeclined(offerID, orderID, candidateID uuid.UUID) OfferDeclined {
	return OfferDeclined{
		BaseEvent:   NewBaseEvent(),
		OfferID:     offerID,
		OrderID:     orderID,
		CandidateID: candidateID,
	}
}

// OfferExpired is published by the sweep for each offer past its deadline.
type OfferExpired struct {
	BaseEvent
	OfferID     uuid.UUID `json:"offerId"`
	OrderID     uuid.UUID `json:"orderId"`
	CandidateID uuid.UUID `json:"candidateId"`
}

func (e OfferExpired) EventName() string { return "offers.expired" }

func NewOfferExpired(offerID, orderID, candidateID uuid.UUID) OfferExpired {
	return OfferExpired{
		BaseEvent:   NewBaseEvent(),
		OfferID:     offerID,
		OrderID:     orderID,
		CandidateID: candidateID,
	}
}

// =============================================================================
// Commission Domain Events
// =============================================================================

// CommissionCreated is published when a commission row is derived.
type CommissionCreated struct {
	BaseEvent
	CommissionID uuid.UUID `json:"commissionId"`
	OrderID      uuid.UUID `json:"orderId"`
	PartnerID    uuid.UUID `json:"partnerId"`
	AmountCents  int64     `json:"amountCents"`
	RateBps      int32     `json:"rateBps"`
}

func (e CommissionCreated) EventName() string { return "commissions.created" }

func NewCommissionCreated(commissionID, orderID, partnerID uuid.UUID, amountCents int64, rateBps int32) CommissionCreated {
	return CommissionCreated{
		BaseEvent:    NewBaseEvent(),
		CommissionID: commissionID,
		OrderID:      orderID,
		PartnerID:    partnerID,
		AmountCents:  amountCents,
		RateBps:      rateBps,
	}
}
