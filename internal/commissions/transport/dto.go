package transport

import (
	"time"

	"schadenportal_backend/internal/commissions/repository"

	"github.com/google/uuid"
)

type SetRateRequest struct {
	RateBps int32 `json:"rateBps" binding:"min=0,max=10000"`
}

type RateResponse struct {
	PartnerID uuid.UUID `json:"partnerId"`
	RateBps   int32     `json:"rateBps"`
}

type CommissionResponse struct {
	ID           uuid.UUID  `json:"id"`
	OrderID      uuid.UUID  `json:"orderId"`
	PartnerID    uuid.UUID  `json:"partnerId"`
	AssignmentID uuid.UUID  `json:"assignmentId"`
	AmountCents  int64      `json:"amountCents"`
	RateBps      int32      `json:"rateBps"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
}

type ListCommissionsResponse struct {
	Items []CommissionResponse `json:"items"`
}

func ToCommissionResponse(c repository.Commission) CommissionResponse {
	return CommissionResponse{
		ID:           c.ID,
		OrderID:      c.OrderID,
		PartnerID:    c.PartnerID,
		AssignmentID: c.AssignmentID,
		AmountCents:  c.AmountCents,
		RateBps:      c.RateBps,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		PaidAt:       c.PaidAt,
	}
}

func ToListCommissionsResponse(commissions []repository.Commission) ListCommissionsResponse {
	items := make([]CommissionResponse, 0, len(commissions))
	for _, c := range commissions {
		items = append(items, ToCommissionResponse(c))
	}
	return ListCommissionsResponse{Items: items}
}
