// Package handler exposes the lead qualification HTTP API.
package handler

import (
	"errors"
	"net/http"

	"leadqual_backend/internal/leads/service"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/platform/apperr"
	"leadqual_backend/platform/httpkit"
	"leadqual_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/overview", h.Overview)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/push", h.Push)
}

// RegisterIngestRoutes mounts the endpoints that receive leads and replies
// from the outside. They sit behind a rate limit instead of JWT auth.
func (h *Handler) RegisterIngestRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/:id/replies", h.Reply)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to create lead", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) Reply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.HandleReply(c.Request.Context(), id, req.Reply); err != nil {
		h.writeServiceError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handler) List(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.List(c.Request.Context(), query)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list leads", nil)
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Push(c *gin.Context) {
	operator, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Push(c.Request.Context(), id, operator.UserID()); err != nil {
		h.writeServiceError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "pushed"})
}

func (h *Handler) Overview(c *gin.Context) {
	resp, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load overview", nil)
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrConversationClosed) {
		err = apperr.Gone("qualification conversation is closed")
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		httpkit.HandleError(c, domainErr)
		return
	}
	httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
}
