// Package offers provides the offer ledger bounded context: issuance,
// response recording and expiry of time-bounded offers.
package offers

import (
	"schadenportal_backend/internal/events"
	apphttp "schadenportal_backend/internal/http"
	"schadenportal_backend/internal/offers/handler"
	"schadenportal_backend/internal/offers/repository"
	"schadenportal_backend/internal/offers/service"
	"schadenportal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the offers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the offers module. The order and
// assignment collaborators are wired afterwards via the service setters.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "offers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetEventBus wires the event bus into the service layer.
func (m *Module) SetEventBus(bus events.Bus) {
	m.service.SetEventBus(bus)
}

// RegisterRoutes mounts offer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterProtectedRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
