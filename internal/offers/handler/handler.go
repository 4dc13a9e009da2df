package handler

import (
	"net/http"

	"schadenportal_backend/internal/offers/service"
	"schadenportal_backend/internal/offers/transport"
	"schadenportal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidOfferID = "invalid offer ID"
	msgInvalidOrderID = "invalid order ID"
)

// Handler handles HTTP requests for the offer ledger.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterProtectedRoutes mounts the candidate-facing inbox and response
// routes.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/offers/me", h.Inbox)
	rg.POST("/offers/:id/accept", h.Accept)
	rg.POST("/offers/:id/decline", h.Decline)
}

// RegisterAdminRoutes mounts the per-order offer history.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders/:id/offers", h.ListByOrder)
}

// Inbox lists the caller's offers, newest first.
// GET /api/v1/offers/me
func (h *Handler) Inbox(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	offers, err := h.svc.Inbox(c.Request.Context(), identity.CandidateID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListOffersResponse(offers))
}

// Accept records the caller's acceptance; the winner binds the order.
// POST /api/v1/offers/:id/accept
func (h *Handler) Accept(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOfferID, nil)
		return
	}

	offer, err := h.svc.Accept(c.Request.Context(), id, identity.CandidateID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOfferResponse(offer))
}

// Decline records the caller's decline.
// POST /api/v1/offers/:id/decline
func (h *Handler) Decline(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOfferID, nil)
		return
	}

	offer, err := h.svc.Decline(c.Request.Context(), id, identity.CandidateID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOfferResponse(offer))
}

// ListByOrder lists the full offer history of an order.
// GET /api/v1/admin/orders/:id/offers
func (h *Handler) ListByOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	offers, err := h.svc.ListByOrder(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListOffersResponse(offers))
}
