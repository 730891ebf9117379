// Package ledger provides the commission ledger bounded context: attributed
// bookings and sales, and the held/available/paid commission lifecycle.
package ledger

import (
	"funnelops_backend/internal/events"
	"funnelops_backend/internal/ledger/handler"
	"funnelops_backend/internal/ledger/repository"
	"funnelops_backend/internal/ledger/service"
	"funnelops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the ledger bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the ledger module. The resolver and
// classifier adapt the affiliates module; they are passed in to keep the
// dependency pointing one way.
func NewModule(
	pool *pgxpool.Pool,
	resolver service.AffiliateResolver,
	classifier service.BookingClassifier,
	policy service.HoldPolicy,
	bus events.Bus,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, resolver, classifier, policy, bus, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "ledger" }

// Service exposes the ledger service for the appointments module and the
// scheduler worker.
func (m *Module) Service() *service.Service { return m.service }

// Handler exposes the HTTP handler for route registration.
func (m *Module) Handler() *handler.Handler { return m.handler }
