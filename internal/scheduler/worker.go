package scheduler

import (
	"context"
	"fmt"

	ledgerrepo "funnelops_backend/internal/ledger/repository"
	"funnelops_backend/platform/config"
	"funnelops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// CommissionSweeper releases held commissions whose hold has elapsed.
type CommissionSweeper interface {
	ReleaseDue(ctx context.Context) (ledgerrepo.ReleaseResult, error)
}

// CloserReconciler resyncs drifted closer counters.
type CloserReconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// PendingAssigner assigns closers to appointments left unassigned.
type PendingAssigner interface {
	AssignPending(ctx context.Context) (assigned, skipped int, err error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	sweeper    CommissionSweeper
	reconciler CloserReconciler
	assigner   PendingAssigner
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper CommissionSweeper, reconciler CloserReconciler, assigner PendingAssigner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		sweeper:    sweeper,
		reconciler: reconciler,
		assigner:   assigner,
		log:        log,
	}

	mux.HandleFunc(TaskCommissionReleaseSweep, w.handleCommissionReleaseSweep)
	mux.HandleFunc(TaskCloserReconcile, w.handleCloserReconcile)
	mux.HandleFunc(TaskAssignPending, w.handleAssignPending)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleCommissionReleaseSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return err
	}

	result, err := w.sweeper.ReleaseDue(ctx)
	if err != nil {
		return err
	}

	w.log.Info("commission release sweep finished",
		"triggered_by", payload.TriggeredBy,
		"released", result.Count,
		"total_amount_cents", result.TotalAmountCents,
	)
	return nil
}

func (w *Worker) handleCloserReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return err
	}

	resynced, err := w.reconciler.ReconcileAll(ctx)
	if err != nil {
		return err
	}

	if resynced > 0 {
		w.log.Info("closer reconcile resynced drifted counters",
			"triggered_by", payload.TriggeredBy,
			"resynced", resynced,
		)
	}
	return nil
}

func (w *Worker) handleAssignPending(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return err
	}

	assigned, skipped, err := w.assigner.AssignPending(ctx)
	if err != nil {
		return err
	}

	if assigned > 0 || skipped > 0 {
		w.log.Info("pending assignment pass finished",
			"triggered_by", payload.TriggeredBy,
			"assigned", assigned,
			"skipped", skipped,
		)
	}
	return nil
}
