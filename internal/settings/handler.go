package settings

import (
	"net/http"
	"strings"

	"funnelops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the admin settings surface.
type Handler struct {
	svc *Service
}

// NewHandler creates a new settings handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAdminRoutes registers the settings routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PUT("/:key", h.Set)
}

// List handles GET /admin/settings
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.All(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

type setRequest struct {
	Value string `json:"value"`
}

// Set handles PUT /admin/settings/:key
func (h *Handler) Set(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		httpkit.Error(c, http.StatusBadRequest, "setting key is required", nil)
		return
	}

	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.Set(c.Request.Context(), key, req.Value)) {
		return
	}
	c.Status(http.StatusNoContent)
}
