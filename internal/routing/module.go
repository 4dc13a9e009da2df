// Package routing provides the eligibility matcher and dispatch bounded
// context: routing rules, rule administration and the event-driven pass
// that turns a fresh claim into issued offers.
package routing

import (
	"schadenportal_backend/internal/events"
	apphttp "schadenportal_backend/internal/http"
	"schadenportal_backend/internal/routing/handler"
	"schadenportal_backend/internal/routing/repository"
	"schadenportal_backend/internal/routing/service"
	"schadenportal_backend/platform/config"
	"schadenportal_backend/platform/logger"
	"schadenportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the routing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the routing module. The order,
// availability and offer collaborators are wired afterwards via the
// service setters.
func NewModule(pool *pgxpool.Pool, cfg config.RoutingConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "routing"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes the dispatcher to lifecycle events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	m.service.RegisterHandlers(bus)
}

// RegisterRoutes mounts routing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
