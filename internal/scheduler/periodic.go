package scheduler

import (
	"context"
	"time"

	"funnelops_backend/platform/logger"
)

const (
	defaultSweepInterval     = time.Hour
	defaultReconcileInterval = 6 * time.Hour
	defaultAssignInterval    = 5 * time.Minute
)

const triggeredByScheduler = "scheduler"

// PeriodicEnqueuer pushes the recurring maintenance tasks onto the queue on
// fixed intervals. Enqueue failures are logged and retried next tick; the
// tasks themselves are idempotent.
type PeriodicEnqueuer struct {
	client            *Client
	log               *logger.Logger
	sweepInterval     time.Duration
	reconcileInterval time.Duration
	assignInterval    time.Duration
}

func NewPeriodicEnqueuer(client *Client, log *logger.Logger, sweepInterval, reconcileInterval time.Duration) *PeriodicEnqueuer {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	if reconcileInterval <= 0 {
		reconcileInterval = defaultReconcileInterval
	}

	return &PeriodicEnqueuer{
		client:            client,
		log:               log,
		sweepInterval:     sweepInterval,
		reconcileInterval: reconcileInterval,
		assignInterval:    defaultAssignInterval,
	}
}

func (e *PeriodicEnqueuer) Run(ctx context.Context) {
	if e == nil || e.client == nil {
		return
	}

	e.enqueueAll(ctx)

	sweep := time.NewTicker(e.sweepInterval)
	defer sweep.Stop()
	reconcile := time.NewTicker(e.reconcileInterval)
	defer reconcile.Stop()
	assign := time.NewTicker(e.assignInterval)
	defer assign.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			e.enqueue(ctx, "commission release sweep", e.client.EnqueueCommissionReleaseSweep)
		case <-reconcile.C:
			e.enqueue(ctx, "closer reconcile", e.client.EnqueueCloserReconcile)
		case <-assign.C:
			e.enqueue(ctx, "pending assignment", e.client.EnqueueAssignPending)
		}
	}
}

func (e *PeriodicEnqueuer) enqueueAll(ctx context.Context) {
	e.enqueue(ctx, "commission release sweep", e.client.EnqueueCommissionReleaseSweep)
	e.enqueue(ctx, "closer reconcile", e.client.EnqueueCloserReconcile)
	e.enqueue(ctx, "pending assignment", e.client.EnqueueAssignPending)
}

func (e *PeriodicEnqueuer) enqueue(ctx context.Context, name string, fn func(context.Context, SweepPayload) error) {
	if err := fn(ctx, SweepPayload{TriggeredBy: triggeredByScheduler}); err != nil {
		e.log.Warn("failed to enqueue task", "task", name, "error", err)
	}
}
