package handler

import (
	"net/http"

	"schadenportal_backend/internal/routing/service"
	"schadenportal_backend/internal/routing/transport"
	"schadenportal_backend/platform/httpkit"
	"schadenportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidRuleID    = "invalid rule ID"
	msgInvalidOrderID   = "invalid order ID"
)

// Handler handles HTTP requests for routing rule administration and
// manual dispatch.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes mounts rule management and manual routing routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/routing-rules", h.ListRules)
	rg.POST("/routing-rules", h.CreateRule)
	rg.GET("/routing-rules/:id", h.GetRule)
	rg.PUT("/routing-rules/:id", h.UpdateRule)
	rg.DELETE("/routing-rules/:id", h.DeleteRule)
	rg.POST("/orders/:id/route", h.RouteOrder)
}

// CreateRule creates a routing rule with its target list.
// POST /api/v1/admin/routing-rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.CreateRule(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToRuleResponse(rule))
}

// GetRule retrieves a routing rule.
// GET /api/v1/admin/routing-rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	rule, err := h.svc.GetRule(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRuleResponse(rule))
}

// ListRules retrieves all routing rules.
// GET /api/v1/admin/routing-rules
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.svc.ListRules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListRulesResponse(rules))
}

// UpdateRule updates mutable rule fields and optionally replaces targets.
// PUT /api/v1/admin/routing-rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	var req transport.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.UpdateRule(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRuleResponse(rule))
}

// DeleteRule removes a routing rule and its targets.
// DELETE /api/v1/admin/routing-rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRuleID, nil)
		return
	}

	if err := h.svc.DeleteRule(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

// RouteOrder manually re-runs the dispatch pass for an order.
// POST /api/v1/admin/orders/:id/route
func (h *Handler) RouteOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	res, err := h.svc.RouteAndOffer(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}
