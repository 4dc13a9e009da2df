package handler

import (
	"net/http"

	"schadenportal_backend/internal/candidates/service"
	"schadenportal_backend/internal/candidates/transport"
	"schadenportal_backend/platform/httpkit"
	"schadenportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid candidate ID"
)

// Handler handles HTTP requests for the candidate registry.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new candidates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes mounts admin-only registry routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/candidates", h.List)
	rg.POST("/candidates", h.Create)
	rg.GET("/candidates/:id", h.GetByID)
}

// RegisterProtectedRoutes mounts routes for authenticated candidates.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.PUT("/candidates/me/availability", h.SetAvailability)
}

// Create registers a new candidate.
// POST /api/v1/admin/candidates
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

// GetByID retrieves a candidate.
// GET /api/v1/admin/candidates/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// List retrieves all candidates.
// GET /api/v1/admin/candidates
func (h *Handler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// SetAvailability updates the caller's availability status.
// PUT /api/v1/candidates/me/availability
func (h *Handler) SetAvailability(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetOwnAvailability(c.Request.Context(), identity, req); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "updated"})
}
