package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funnelops_backend/internal/adapters"
	apptrepo "funnelops_backend/internal/appointments/repository"
	apptsvc "funnelops_backend/internal/appointments/service"
	closerrepo "funnelops_backend/internal/closers/repository"
	closersvc "funnelops_backend/internal/closers/service"
	"funnelops_backend/internal/events"
	ledgerrepo "funnelops_backend/internal/ledger/repository"
	ledgersvc "funnelops_backend/internal/ledger/service"
	"funnelops_backend/internal/scheduler"
	settingsmod "funnelops_backend/internal/settings"
	"funnelops_backend/platform/config"
	"funnelops_backend/platform/db"
	"funnelops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Worker-side wiring: no HTTP handlers, just the services the three
	// maintenance tasks run against. The ledger needs no attribution here —
	// sweeps only move existing rows — so a nil resolver is fine.
	settingsSvc := settingsmod.NewService(settingsmod.NewRepository(pool), log)
	ledgerService := ledgersvc.New(ledgerrepo.New(pool), nil, nil, settingsSvc, eventBus, log)
	closersService := closersvc.New(closerrepo.New(pool), log)
	appointmentsService := apptsvc.New(apptrepo.New(pool), adapters.NewConversionRecorderAdapter(ledgerService), eventBus, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	enqueuer := scheduler.NewPeriodicEnqueuer(client, log, cfg.SweepInterval, cfg.ReconcileInterval)
	go enqueuer.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, ledgerService, closersService, appointmentsService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
