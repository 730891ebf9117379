// Package quiz provides the quiz funnel bounded context: sessions, answers,
// lead qualification, and lead deduplication.
package quiz

import (
	"funnelops_backend/internal/events"
	"funnelops_backend/internal/quiz/handler"
	"funnelops_backend/internal/quiz/repository"
	"funnelops_backend/internal/quiz/service"
	"funnelops_backend/platform/logger"
	"funnelops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quiz bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the quiz module with all its dependencies.
// The affiliate tracker and thresholds are cross-module collaborators wired by
// the composition root.
func NewModule(pool *pgxpool.Pool, tracker service.AffiliateTracker, thresholds service.Thresholds, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, tracker, thresholds, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "quiz" }

// Service exposes the quiz service for cross-module adapters.
func (m *Module) Service() *service.Service { return m.service }

// Handler exposes the HTTP handler for route registration.
func (m *Module) Handler() *handler.Handler { return m.handler }
