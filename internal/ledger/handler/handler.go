package handler

import (
	"net/http"

	"funnelops_backend/internal/ledger/service"
	"funnelops_backend/internal/ledger/transport"
	"funnelops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidConversionID = "invalid conversion id"
	msgInvalidAffiliateID  = "invalid affiliate id"
)

// Handler handles HTTP requests for the commission ledger.
type Handler struct {
	svc *service.Service
}

// New creates a new ledger handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAdminRoutes registers the ledger admin routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/conversions/:id", h.GetConversion)
	rg.POST("/conversions/:id/release", h.ForceRelease)
	rg.POST("/release-sweep", h.ReleaseSweep)
	rg.GET("/affiliates/:id/conversions", h.ListByAffiliate)
	rg.GET("/affiliates/:id/balance", h.Balance)
	rg.POST("/affiliates/:id/payout", h.Payout)
}

// GetConversion handles GET /admin/ledger/conversions/:id
func (h *Handler) GetConversion(c *gin.Context) {
	id, ok := parseUUID(c, "id", msgInvalidConversionID)
	if !ok {
		return
	}

	conv, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToConversionResponse(conv))
}

// ForceRelease handles POST /admin/ledger/conversions/:id/release
func (h *Handler) ForceRelease(c *gin.Context) {
	id, ok := parseUUID(c, "id", msgInvalidConversionID)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.ForceRelease(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ReleaseSweep handles POST /admin/ledger/release-sweep
func (h *Handler) ReleaseSweep(c *gin.Context) {
	result, err := h.svc.ReleaseDue(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SweepResponse{
		Released:         result.Count,
		TotalAmountCents: result.TotalAmountCents,
	})
}

// ListByAffiliate handles GET /admin/ledger/affiliates/:id/conversions
func (h *Handler) ListByAffiliate(c *gin.Context) {
	id, ok := parseUUID(c, "id", msgInvalidAffiliateID)
	if !ok {
		return
	}

	convs, err := h.svc.ListByAffiliate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToConversionResponses(convs))
}

// Balance handles GET /admin/ledger/affiliates/:id/balance
func (h *Handler) Balance(c *gin.Context) {
	id, ok := parseUUID(c, "id", msgInvalidAffiliateID)
	if !ok {
		return
	}

	balance, err := h.svc.BalanceFor(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BalanceResponse{
		AvailableCents: balance.AvailableCents,
		PaidCents:      balance.PaidCents,
	})
}

// Payout handles POST /admin/ledger/affiliates/:id/payout
func (h *Handler) Payout(c *gin.Context) {
	id, ok := parseUUID(c, "id", msgInvalidAffiliateID)
	if !ok {
		return
	}

	result, err := h.svc.Payout(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PayoutResponse{
		Count:            result.Count,
		TotalAmountCents: result.TotalAmountCents,
	})
}

func parseUUID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
