// Package candidates provides the candidate registry bounded context,
// including the Availability Gate consulted during routing.
package candidates

import (
	"schadenportal_backend/internal/candidates/handler"
	"schadenportal_backend/internal/candidates/repository"
	"schadenportal_backend/internal/candidates/service"
	apphttp "schadenportal_backend/internal/http"
	"schadenportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the candidates bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the candidates module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "candidates"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts candidate routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
	m.handler.RegisterProtectedRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
