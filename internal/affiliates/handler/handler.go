package handler

import (
	"net/http"

	"funnelops_backend/internal/affiliates/service"
	"funnelops_backend/internal/affiliates/transport"
	"funnelops_backend/platform/httpkit"
	"funnelops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest     = "invalid request"
	msgValidationFailed   = "validation failed"
	msgInvalidAffiliateID = "invalid affiliate id"
)

// Handler handles HTTP requests for affiliates.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new affiliates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes registers the click tracking redirect.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/r/:code", h.Redirect)
}

// Redirect handles GET /r/:code — the referral link target. Records the
// click and sends the visitor to the funnel.
func (h *Handler) Redirect(c *gin.Context) {
	target, err := h.svc.ClickTarget(c.Request.Context(), c.Param("code"))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Redirect(http.StatusFound, target)
}

// RegisterAdminRoutes registers the affiliate management routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/approve", h.Approve)
	rg.PATCH("/:id/active", h.SetActive)
	rg.GET("/:id/qr", h.ReferralQR)
}

// List handles GET /admin/affiliates
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /admin/affiliates
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetByID handles GET /admin/affiliates/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Approve handles POST /admin/affiliates/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Approve(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// SetActive handles PATCH /admin/affiliates/:id/active
func (h *Handler) SetActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.SetActive(c.Request.Context(), id, req.Active)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ReferralQR handles GET /admin/affiliates/:id/qr
func (h *Handler) ReferralQR(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	png, err := h.svc.ReferralQR(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAffiliateID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
