// Package affiliates provides the affiliate bounded context: registration,
// click tracking, and attribution resolution.
package affiliates

import (
	"funnelops_backend/internal/affiliates/handler"
	"funnelops_backend/internal/affiliates/repository"
	"funnelops_backend/internal/affiliates/service"
	"funnelops_backend/platform/logger"
	"funnelops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the affiliates bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the affiliates module. The lead email
// source is wired afterwards via SetLeadSource to break the quiz/affiliates
// cycle.
func NewModule(pool *pgxpool.Pool, paid service.PaidCommissionReader, links service.LinkBuilder, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, nil, paid, links, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "affiliates" }

// Service exposes the affiliates service for cross-module adapters.
func (m *Module) Service() *service.Service { return m.service }

// Handler exposes the HTTP handler for route registration.
func (m *Module) Handler() *handler.Handler { return m.handler }
