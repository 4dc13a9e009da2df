package handler

import (
	"net/http"

	"schadenportal_backend/internal/assignments/repository"
	"schadenportal_backend/internal/assignments/service"
	"schadenportal_backend/internal/assignments/transport"
	"schadenportal_backend/platform/httpkit"
	"schadenportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidOrderID   = "invalid order ID"
)

// Handler handles HTTP requests for the assignment coordinator.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterProtectedRoutes mounts candidate-facing assignment routes.
// Claiming is a Pro-only action; partners get work through offers.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/assignments/me", h.ListMine)
	rg.POST("/orders/:id/claim", httpkit.RequireRole(httpkit.RoleChef, httpkit.RoleAzubi), h.Claim)
}

// RegisterAdminRoutes mounts the admin assignment routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders/:id/assignment", h.GetActive)
	rg.GET("/orders/:id/assignments", h.History)
	rg.POST("/orders/:id/assign", h.Assign)
	rg.POST("/orders/:id/reassign", h.Reassign)
}

// ListMine lists the caller's assignments.
// GET /api/v1/assignments/me
func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	assignments, err := h.svc.ListByAssignee(c.Request.Context(), identity.CandidateID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListAssignmentsResponse(assignments))
}

// Claim binds an unrouted order to the calling professional.
// POST /api/v1/orders/:id/claim
func (h *Handler) Claim(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	assignment, err := h.svc.Assign(c.Request.Context(), orderID, identity.CandidateID(), repository.SourceDirectAssign)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToAssignmentResponse(assignment))
}

// GetActive returns the order's current binding assignment.
// GET /api/v1/admin/orders/:id/assignment
func (h *Handler) GetActive(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	assignment, err := h.svc.GetActiveByOrder(c.Request.Context(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

// History returns the order's full assignment history.
// GET /api/v1/admin/orders/:id/assignments
func (h *Handler) History(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	assignments, err := h.svc.ListByOrder(c.Request.Context(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListAssignmentsResponse(assignments))
}

// Assign binds an order to a candidate by admin override.
// POST /api/v1/admin/orders/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	orderID, req, ok := h.bindAssign(c)
	if !ok {
		return
	}

	assignment, err := h.svc.Assign(c.Request.Context(), orderID, uuid.MustParse(req.CandidateID), repository.SourceAdminOverride)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToAssignmentResponse(assignment))
}

// Reassign supersedes the current winner and binds a new candidate.
// POST /api/v1/admin/orders/:id/reassign
func (h *Handler) Reassign(c *gin.Context) {
	orderID, req, ok := h.bindAssign(c)
	if !ok {
		return
	}

	assignment, err := h.svc.Reassign(c.Request.Context(), orderID, uuid.MustParse(req.CandidateID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) bindAssign(c *gin.Context) (uuid.UUID, transport.AssignRequest, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return uuid.Nil, transport.AssignRequest{}, false
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, transport.AssignRequest{}, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return uuid.Nil, transport.AssignRequest{}, false
	}

	return orderID, req, true
}
