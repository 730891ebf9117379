package handler

import (
	"net/http"

	"funnelops_backend/internal/quiz/service"
	"funnelops_backend/internal/quiz/transport"
	"funnelops_backend/platform/httpkit"
	"funnelops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSessionID = "invalid session id"
)

// Handler handles HTTP requests for the quiz funnel.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quiz handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes registers the visitor-facing quiz routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/questions", h.ListQuestions)
	rg.POST("/sessions", h.StartSession)
	rg.POST("/sessions/:id/answers", h.SubmitAnswer)
	rg.POST("/sessions/:id/complete", h.CompleteSession)
}

// RegisterAdminRoutes registers the authoring and reporting routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/questions", h.CreateQuestion)
	rg.GET("/leads", h.ListLeads)
}

// ListQuestions handles GET /quiz/questions
func (h *Handler) ListQuestions(c *gin.Context) {
	result, err := h.svc.ListQuestions(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateQuestion handles POST /admin/quiz/questions
func (h *Handler) CreateQuestion(c *gin.Context) {
	var req transport.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateQuestion(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// StartSession handles POST /quiz/sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req transport.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.StartSession(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// SubmitAnswer handles POST /quiz/sessions/:id/answers
func (h *Handler) SubmitAnswer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return
	}

	var req transport.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.SubmitAnswer(c.Request.Context(), sessionID, req)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteSession handles POST /quiz/sessions/:id/complete
func (h *Handler) CompleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return
	}

	result, err := h.svc.CompleteSession(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListLeads handles GET /admin/quiz/leads
func (h *Handler) ListLeads(c *gin.Context) {
	var code *string
	if raw := c.Query("affiliateCode"); raw != "" {
		code = &raw
	}

	leads, err := h.svc.Leads(c.Request.Context(), code, nil, nil)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, transport.LeadResponse{
			SessionID:   lead.SessionID,
			Name:        lead.Name,
			Email:       lead.Email,
			StartedAt:   lead.StartedAt,
			CompletedAt: lead.CompletedAt,
		})
	}
	httpkit.OK(c, out)
}
