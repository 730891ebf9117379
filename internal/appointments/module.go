// Package appointments provides the appointments bounded context: booking
// with round-robin closer assignment and call outcome intake.
package appointments

import (
	"funnelops_backend/internal/appointments/handler"
	"funnelops_backend/internal/appointments/repository"
	"funnelops_backend/internal/appointments/service"
	"funnelops_backend/internal/events"
	"funnelops_backend/platform/logger"
	"funnelops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the appointments bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the appointments module. The recorder
// adapts the ledger module; it is passed in to keep the dependency pointing
// one way.
func NewModule(pool *pgxpool.Pool, recorder service.ConversionRecorder, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, recorder, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "appointments" }

// Service exposes the appointments service for the scheduler worker.
func (m *Module) Service() *service.Service { return m.service }

// Handler exposes the HTTP handler for route registration.
func (m *Module) Handler() *handler.Handler { return m.handler }
