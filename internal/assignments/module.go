// Package assignments provides the assignment coordinator bounded
// context: the single-winner decision per order and its follow-ups.
package assignments

import (
	"schadenportal_backend/internal/assignments/handler"
	"schadenportal_backend/internal/assignments/repository"
	"schadenportal_backend/internal/assignments/service"
	"schadenportal_backend/internal/events"
	apphttp "schadenportal_backend/internal/http"
	"schadenportal_backend/platform/logger"
	"schadenportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignments bounded context module implementing
// http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the assignments module. The
// candidate, commission and retry collaborators are wired afterwards via
// the service setters.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignments"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetEventBus wires the event bus into the service layer.
func (m *Module) SetEventBus(bus events.Bus) {
	m.service.SetEventBus(bus)
}

// RegisterRoutes mounts assignment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterProtectedRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
