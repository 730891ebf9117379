// Package stats provides the read-only reporting bounded context.
package stats

import (
	"funnelops_backend/internal/stats/handler"
	"funnelops_backend/internal/stats/repository"
	"funnelops_backend/internal/stats/service"
	"funnelops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the stats bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the stats module.
func NewModule(pool *pgxpool.Pool, affiliates service.AffiliateReader, leads service.LeadSource, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, affiliates, leads, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "stats" }

// Handler exposes the HTTP handler for route registration.
func (m *Module) Handler() *handler.Handler { return m.handler }
