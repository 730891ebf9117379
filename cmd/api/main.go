package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funnelops_backend/internal/adapters"
	"funnelops_backend/internal/affiliates"
	"funnelops_backend/internal/appointments"
	"funnelops_backend/internal/closers"
	"funnelops_backend/internal/events"
	"funnelops_backend/internal/http/router"
	"funnelops_backend/internal/ledger"
	"funnelops_backend/internal/quiz"
	settingsmod "funnelops_backend/internal/settings"
	"funnelops_backend/internal/stats"
	"funnelops_backend/platform/config"
	"funnelops_backend/platform/db"
	"funnelops_backend/platform/logger"
	"funnelops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	settingsSvc := settingsmod.NewService(settingsmod.NewRepository(pool), log)

	// The affiliates/quiz and affiliates/ledger pairs depend on each other;
	// the late-bound lead source and the adapters keep construction acyclic.
	affiliatesModule := affiliates.NewModule(pool, nil, cfg, val, log)
	quizModule := quiz.NewModule(pool, affiliatesModule.Service(), settingsSvc, eventBus, val, log)
	affiliatesModule.Service().SetLeadSource(quizModule.Service())

	attribution := adapters.NewLedgerAttributionAdapter(affiliatesModule.Service())
	ledgerModule := ledger.NewModule(pool, attribution, attribution, settingsSvc, eventBus, log)
	affiliatesModule.Service().SetPaidCommissionReader(ledgerModule.Service())

	closersModule := closers.NewModule(pool, val, log)

	recorder := adapters.NewConversionRecorderAdapter(ledgerModule.Service())
	appointmentsModule := appointments.NewModule(pool, recorder, eventBus, val, log)

	statsModule := stats.NewModule(pool,
		adapters.NewStatsAffiliateReader(affiliatesModule.Service()),
		adapters.NewStatsLeadSource(quizModule.Service()),
		log)

	// Background maintenance runs through the scheduler binary when redis is
	// configured; the admin endpoints cover the manual path either way.
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, background scheduling disabled")
	}

	// ========================================================================
	// HTTP Server
	// ========================================================================

	engine := router.New(router.Deps{
		Config:       cfg,
		Log:          log,
		Health:       pool,
		Quiz:         quizModule,
		Affiliates:   affiliatesModule,
		Closers:      closersModule,
		Appointments: appointmentsModule,
		Ledger:       ledgerModule,
		Stats:        statsModule,
		Settings:     settingsmod.NewHandler(settingsSvc),
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "error", err)
			stop()
		}
	}()
	log.Info("server listening", "addr", cfg.HTTPAddr)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
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
