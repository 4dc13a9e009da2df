// Package commissions provides the commission deriver bounded context:
// partner rate configuration and the referral records derived from
// finalized assignments.
package commissions

import (
	"schadenportal_backend/internal/commissions/handler"
	"schadenportal_backend/internal/commissions/repository"
	"schadenportal_backend/internal/commissions/service"
	"schadenportal_backend/internal/events"
	apphttp "schadenportal_backend/internal/http"
	"schadenportal_backend/platform/config"
	"schadenportal_backend/platform/logger"
	"schadenportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the commissions bounded context module implementing
// http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the commissions module. The order
// and candidate collaborators are wired afterwards via the service
// setters.
func NewModule(pool *pgxpool.Pool, cfg config.CommissionConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "commissions"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetEventBus wires the event bus into the service layer.
func (m *Module) SetEventBus(bus events.Bus) {
	m.service.SetEventBus(bus)
}

// RegisterRoutes mounts commission routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterProtectedRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
