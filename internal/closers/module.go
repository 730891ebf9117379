// Package closers provides the closer bounded context: the sales agents who
// take booked calls, their fairness-ordered assignment pool, and their
// derived performance counters.
package closers

import (
	"funnelops_backend/internal/closers/handler"
	"funnelops_backend/internal/closers/repository"
	"funnelops_backend/internal/closers/service"
	"funnelops_backend/platform/logger"
	"funnelops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the closers bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the closers module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "closers" }

// Service exposes the closers service for the scheduler worker.
func (m *Module) Service() *service.Service { return m.service }

// Handler exposes the HTTP handler for route registration.
func (m *Module) Handler() *handler.Handler { return m.handler }
