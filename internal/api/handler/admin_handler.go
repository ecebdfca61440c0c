package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/model"
	"hogis-registration/internal/service"
	"hogis-registration/pkg/response"
)

// AdminHandler admin dashboard: list, detail, accept/reject
type AdminHandler struct {
	triageSvc service.TriageService
}

// NewAdminHandler creates an AdminHandler
func NewAdminHandler(triageSvc service.TriageService) *AdminHandler {
	return &AdminHandler{triageSvc: triageSvc}
}

// ListRegistrations merged, filtered view
// GET /api/v1/admin/registrations?q=&status=&refresh=
func (h *AdminHandler) ListRegistrations(c *gin.Context) {
	var req dto.RegistrationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.triageSvc.List(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, 21006, "Failed to load registrations")
		return
	}
	response.OK(c, result)
}

// GetRegistration full record with photo
// GET /api/v1/admin/registrations/:id
func (h *AdminHandler) GetRegistration(c *gin.Context) {
	result, err := h.triageSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTriageError(c, err)
		return
	}
	response.OK(c, result)
}

// Accept a pending registration
// POST /api/v1/admin/registrations/:id/accept
func (h *AdminHandler) Accept(c *gin.Context) {
	h.transition(c, model.StatusAccepted)
}

// Reject a pending registration
// POST /api/v1/admin/registrations/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	h.transition(c, model.StatusRejected)
}

func (h *AdminHandler) transition(c *gin.Context, target model.Status) {
	var req dto.TransitionRequest
	// body is optional
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	result, err := h.triageSvc.Transition(c.Request.Context(), c.Param("id"), target, &req)
	if err != nil {
		h.handleTriageError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *AdminHandler) handleTriageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 21001, "Registration not found")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 21002, err.Error())
	case errors.Is(err, service.ErrTransitionInProgress):
		response.Conflict(c, 21003, err.Error())
	case errors.Is(err, service.ErrRecordMoved):
		response.Conflict(c, 21004, err.Error())
	case errors.Is(err, service.ErrInvalidTarget):
		response.BadRequest(c, 21005, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 21000, "Failed to update registration status")
	}
}
