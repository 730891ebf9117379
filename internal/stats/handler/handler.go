package handler

import (
	"net/http"
	"time"

	"funnelops_backend/internal/stats/service"
	"funnelops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidAffiliateID = "invalid affiliate id"
	msgInvalidRange       = "invalid time range"
)

// defaultRange is used when the caller omits the window.
const defaultRange = 30 * 24 * time.Hour

// Handler handles HTTP requests for stats.
type Handler struct {
	svc *service.Service
}

// New creates a new stats handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAdminRoutes registers the stats routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/affiliates/:id", h.AffiliateSeries)
}

// AffiliateSeries handles GET /admin/stats/affiliates/:id?from=&to=
func (h *Handler) AffiliateSeries(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAffiliateID, nil)
		return
	}

	now := time.Now().UTC()
	from, to := now.Add(-defaultRange), now
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRange, "from must be RFC 3339")
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRange, "to must be RFC 3339")
			return
		}
	}
	if !from.Before(to) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRange, "from must precede to")
		return
	}

	result, err := h.svc.AffiliateSeries(c.Request.Context(), id, from, to)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
