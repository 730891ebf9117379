package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"funnelops_backend/internal/closers/repository"
	"funnelops_backend/internal/closers/transport"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides business logic for closers: lifecycle, counter
// recomputation, and drift resynchronization.
type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

// New creates a new closers service.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// PickNext selects the closer a new appointment should go to: active,
// approved, fewest calls, ties broken by ID so the choice is deterministic.
// Returns nil when no closer is eligible. The production assignment runs the
// same ordering inside the appointment transaction; this mirror exists for
// the fairness contract and its tests.
func PickNext(closers []repository.Closer) *repository.Closer {
	eligible := make([]repository.Closer, 0, len(closers))
	for _, cl := range closers {
		if cl.IsActive && cl.IsApproved {
			eligible = append(eligible, cl)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].TotalCalls != eligible[j].TotalCalls {
			return eligible[i].TotalCalls < eligible[j].TotalCalls
		}
		return eligible[i].ID.String() < eligible[j].ID.String()
	})
	return &eligible[0]
}

// ConversionRate derives the rate from scratch; it is never accumulated
// incrementally.
func ConversionRate(conversions, calls int64) float64 {
	if calls <= 0 {
		return 0
	}
	return float64(conversions) / float64(calls)
}

// Create registers a new closer. New closers start unapproved and take no
// calls until approved.
func (s *Service) Create(ctx context.Context, req transport.CreateCloserRequest) (*transport.CloserResponse, error) {
	now := time.Now()
	cl := &repository.Closer{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, cl); err != nil {
		return nil, err
	}
	return closerResponse(cl), nil
}

// Get returns a single closer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.CloserResponse, error) {
	cl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return closerResponse(cl), nil
}

// List returns all closers in assignment order.
func (s *Service) List(ctx context.Context) ([]transport.CloserResponse, error) {
	closers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]transport.CloserResponse, 0, len(closers))
	for i := range closers {
		out = append(out, *closerResponse(&closers[i]))
	}
	return out, nil
}

// Approve marks a closer approved for assignment.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetApproval(ctx, id, true)
}

// SetActive toggles a closer's active flag.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// Stats recomputes a closer's counters from its appointments and reports
// them, resyncing the cached columns when they disagree.
func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*transport.CloserStatsResponse, error) {
	cl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	agg, err := s.repo.Recompute(ctx, id)
	if err != nil {
		return nil, err
	}
	rate := ConversionRate(agg.TotalConversions, agg.TotalCalls)

	if driftDetected(cl, agg) {
		s.log.Warn("closer counters drifted, resyncing",
			"closerId", id,
			"cachedCalls", cl.TotalCalls, "actualCalls", agg.TotalCalls,
			"cachedConversions", cl.TotalConversions, "actualConversions", agg.TotalConversions,
		)
		if err := s.repo.Resync(ctx, id, agg, rate); err != nil {
			return nil, err
		}
	}

	return &transport.CloserStatsResponse{
		CloserID:          id,
		TotalCalls:        agg.TotalCalls,
		TotalConversions:  agg.TotalConversions,
		TotalRevenueCents: agg.TotalRevenueCents,
		ConversionRate:    rate,
	}, nil
}

// ReconcileAll resyncs every closer whose cached counters disagree with the
// recomputed aggregate. Invoked periodically by the scheduler.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	closers, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	resynced := 0
	for i := range closers {
		cl := &closers[i]
		agg, err := s.repo.Recompute(ctx, cl.ID)
		if err != nil {
			return resynced, err
		}
		if !driftDetected(cl, agg) {
			continue
		}

		rate := ConversionRate(agg.TotalConversions, agg.TotalCalls)
		if err := s.repo.Resync(ctx, cl.ID, agg, rate); err != nil {
			return resynced, err
		}
		resynced++
	}
	return resynced, nil
}

func driftDetected(cl *repository.Closer, agg repository.Aggregate) bool {
	return cl.TotalCalls != agg.TotalCalls ||
		cl.TotalConversions != agg.TotalConversions ||
		cl.TotalRevenueCents != agg.TotalRevenueCents
}

func closerResponse(cl *repository.Closer) *transport.CloserResponse {
	return &transport.CloserResponse{
		ID:                cl.ID,
		Name:              cl.Name,
		Email:             cl.Email,
		TotalCalls:        cl.TotalCalls,
		TotalConversions:  cl.TotalConversions,
		TotalRevenueCents: cl.TotalRevenueCents,
		ConversionRate:    cl.ConversionRate,
		IsActive:          cl.IsActive,
		IsApproved:        cl.IsApproved,
		CreatedAt:         cl.CreatedAt,
	}
}
