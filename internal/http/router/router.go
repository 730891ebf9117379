// Package router builds the gin engine and wires every module's routes.
package router

import (
	"context"
	"net/http"
	"time"

	"funnelops_backend/internal/affiliates"
	"funnelops_backend/internal/appointments"
	"funnelops_backend/internal/closers"
	"funnelops_backend/internal/ledger"
	"funnelops_backend/internal/quiz"
	"funnelops_backend/internal/settings"
	"funnelops_backend/internal/stats"
	"funnelops_backend/platform/config"
	"funnelops_backend/platform/httpkit"
	"funnelops_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Public endpoints share one per-IP limiter; admin traffic is authenticated
// and not limited.
const (
	publicRateLimit = rate.Limit(10)
	publicRateBurst = 30
)

const adminRole = "admin"

// Config combines the config interfaces the router needs.
type Config interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps holds the fully initialized application dependencies, populated by the
// composition root.
type Deps struct {
	Config Config
	Log    *logger.Logger
	Health HealthChecker

	Quiz         *quiz.Module
	Affiliates   *affiliates.Module
	Closers      *closers.Module
	Appointments *appointments.Module
	Ledger       *ledger.Module
	Stats        *stats.Module
	Settings     *settings.Handler
}

// New builds the gin engine with all middleware and routes registered.
func New(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(deps.Log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(deps.Config))

	engine.GET("/api/health", func(c *gin.Context) {
		if err := deps.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := httpkit.NewIPRateLimiter(publicRateLimit, publicRateBurst, deps.Log)

	public := engine.Group("", limiter.RateLimit())
	deps.Affiliates.Handler().RegisterPublicRoutes(public.Group(""))

	api := public.Group("/api")
	deps.Quiz.Handler().RegisterPublicRoutes(api.Group("/quiz"))
	deps.Appointments.Handler().RegisterPublicRoutes(api.Group("/appointments"))

	admin := engine.Group("/api/admin",
		httpkit.AuthRequired(deps.Config),
		httpkit.RequireRole(adminRole),
	)
	deps.Quiz.Handler().RegisterAdminRoutes(admin.Group("/quiz"))
	deps.Affiliates.Handler().RegisterAdminRoutes(admin.Group("/affiliates"))
	deps.Closers.Handler().RegisterAdminRoutes(admin.Group("/closers"))
	deps.Appointments.Handler().RegisterAdminRoutes(admin.Group("/appointments"))
	deps.Ledger.Handler().RegisterAdminRoutes(admin.Group("/ledger"))
	deps.Stats.Handler().RegisterAdminRoutes(admin.Group("/stats"))
	deps.Settings.RegisterAdminRoutes(admin.Group("/settings"))

	return engine
}

func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}
