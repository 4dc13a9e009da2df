package transport

import (
	"time"

	"schadenportal_backend/internal/offers/repository"

	"github.com/google/uuid"
)

type OfferResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"orderId"`
	CandidateID uuid.UUID  `json:"candidateId"`
	Status      string     `json:"status"`
	IssuedAt    time.Time  `json:"issuedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	Deadline    time.Time  `json:"deadline"`
}

type ListOffersResponse struct {
	Items []OfferResponse `json:"items"`
}

func ToOfferResponse(o repository.Offer) OfferResponse {
	return OfferResponse{
		ID:          o.ID,
		OrderID:     o.OrderID,
		CandidateID: o.CandidateID,
		Status:      o.Status,
		IssuedAt:    o.IssuedAt,
		RespondedAt: o.RespondedAt,
		Deadline:    o.Deadline,
	}
}

func ToListOffersResponse(offers []repository.Offer) ListOffersResponse {
	items := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		items = append(items, ToOfferResponse(o))
	}
	return ListOffersResponse{Items: items}
}
