package transport

import (
	"time"

	"schadenportal_backend/internal/orders/repository"

	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	Category      string     `json:"category" binding:"required,oneof=sanitaer heizung elektro dach maler fenster boden sonstiges"`
	RegionCode    string     `json:"regionCode" binding:"required,min=3,max=10"`
	Description   string     `json:"description" binding:"required,min=5,max=5000"`
	CustomerName  string     `json:"customerName" binding:"required,min=2,max=200"`
	CustomerPhone string     `json:"customerPhone" binding:"required"`
	CustomerEmail string     `json:"customerEmail" binding:"omitempty,email"`
	ValueCents    int64      `json:"valueCents" binding:"required,gt=0"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=NEW IN_PROGRESS OFFER_MADE DONE CANCELLED"`
}

type ListOrdersQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=NEW IN_PROGRESS OFFER_MADE DONE CANCELLED"`
	Category string `form:"category" binding:"omitempty,oneof=sanitaer heizung elektro dach maler fenster boden sonstiges"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

type OrderResponse struct {
	ID            uuid.UUID  `json:"id"`
	Category      string     `json:"category"`
	RegionCode    string     `json:"regionCode"`
	Description   string     `json:"description"`
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
	ValueCents    int64      `json:"valueCents"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type ListOrdersResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type CancelOrderResponse struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	CancelledOffers int       `json:"cancelledOffers"`
}

func ToOrderResponse(o repository.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		Category:      string(o.Category),
		RegionCode:    o.RegionCode,
		Description:   o.Description,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
		ValueCents:    o.ValueCents,
		Status:        string(o.Status),
		ScheduledAt:   o.ScheduledAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func ToListOrdersResponse(res repository.ListResult) ListOrdersResponse {
	items := make([]OrderResponse, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, ToOrderResponse(o))
	}
	return ListOrdersResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
}
