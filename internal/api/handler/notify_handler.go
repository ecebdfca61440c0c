package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/service"
	"hogis-registration/pkg/notify"
	"hogis-registration/pkg/response"
)

// NotifyHandler email relay endpoints. Replies use the flat
// {success, messageId} / {error, details} shape.
type NotifyHandler struct {
	notifySvc service.NotifyService
}

// NewNotifyHandler creates a NotifyHandler
func NewNotifyHandler(notifySvc service.NotifyService) *NotifyHandler {
	return &NotifyHandler{notifySvc: notifySvc}
}

// Confirmation registration confirmation email
// POST /api/v1/notify/confirmation
func (h *NotifyHandler) Confirmation(c *gin.Context) {
	var req dto.ConfirmationNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.NotifyError(c, http.StatusBadRequest, "Email and name are required", "")
		return
	}

	receipt, err := h.notifySvc.Confirmation(c.Request.Context(), &req)
	if err != nil {
		h.handleNotifyError(c, err, "Failed to send confirmation email")
		return
	}
	response.NotifyOK(c, receipt.MessageID, "Confirmation email sent successfully")
}

// Status acceptance or rejection email
// POST /api/v1/notify/status
func (h *NotifyHandler) Status(c *gin.Context) {
	var req dto.StatusNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.NotifyError(c, http.StatusBadRequest, "Email, name and status are required", "")
		return
	}

	receipt, err := h.notifySvc.Status(c.Request.Context(), &req)
	if err != nil {
		h.handleNotifyError(c, err, "Failed to send status update email")
		return
	}
	response.NotifyOK(c, receipt.MessageID, "Status update email sent successfully")
}

func (h *NotifyHandler) handleNotifyError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidNotifyStatus):
		response.NotifyError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, notify.ErrNoRecipient):
		response.NotifyError(c, http.StatusBadRequest, "Email and name are required", "")
	case errors.Is(err, notify.ErrNotConfigured):
		response.NotifyError(c, http.StatusServiceUnavailable, "Email service is not configured", "")
	default:
		// provider and transport detail stays in the request log
		_ = c.Error(err)
		response.NotifyError(c, http.StatusInternalServerError, message, "")
	}
}
