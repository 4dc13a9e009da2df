package handler

import (
	"net/http"

	"schadenportal_backend/internal/commissions/service"
	"schadenportal_backend/internal/commissions/transport"
	"schadenportal_backend/platform/httpkit"
	"schadenportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
)

// Handler handles HTTP requests for commissions and partner rates.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterProtectedRoutes mounts the partner-facing commission view.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/commissions/me", h.ListMine)
}

// RegisterAdminRoutes mounts the admin commission and rate routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders/:id/commissions", h.ListByOrder)
	rg.POST("/commissions/:id/mark-paid", h.MarkPaid)
	rg.GET("/partners/:id/commissions", h.ListByPartner)
	rg.GET("/partners/:id/commission-rate", h.GetRate)
	rg.PUT("/partners/:id/commission-rate", h.SetRate)
}

// ListMine lists the caller's commissions.
// GET /api/v1/commissions/me
func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	commissions, err := h.svc.ListByPartner(c.Request.Context(), identity.CandidateID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListCommissionsResponse(commissions))
}

// ListByOrder lists every commission recorded for an order.
// GET /api/v1/admin/orders/:id/commissions
func (h *Handler) ListByOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	commissions, err := h.svc.ListByOrder(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListCommissionsResponse(commissions))
}

// ListByPartner lists a partner's commissions.
// GET /api/v1/admin/partners/:id/commissions
func (h *Handler) ListByPartner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	commissions, err := h.svc.ListByPartner(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListCommissionsResponse(commissions))
}

// MarkPaid settles a pending commission.
// POST /api/v1/admin/commissions/:id/mark-paid
func (h *Handler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	commission, err := h.svc.MarkPaid(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCommissionResponse(commission))
}

// GetRate returns the rate the partner's next commission would use.
// GET /api/v1/admin/partners/:id/commission-rate
func (h *Handler) GetRate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	rateBps, err := h.svc.PartnerRate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RateResponse{PartnerID: id, RateBps: rateBps})
}

// SetRate configures a partner's commission rate.
// PUT /api/v1/admin/partners/:id/commission-rate
func (h *Handler) SetRate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetPartnerRate(c.Request.Context(), id, req.RateBps); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RateResponse{PartnerID: id, RateBps: req.RateBps})
}
