package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/service"
	"hogis-registration/pkg/imaging"
	"hogis-registration/pkg/response"
)

// photoField multipart part carrying the passport photo
const photoField = "passport_photo"

// RegistrationHandler public registration form
type RegistrationHandler struct {
	submissionSvc service.SubmissionService
}

// NewRegistrationHandler creates a RegistrationHandler
func NewRegistrationHandler(submissionSvc service.SubmissionService) *RegistrationHandler {
	return &RegistrationHandler{submissionSvc: submissionSvc}
}

// Submit a new registration
// POST /api/v1/registrations (multipart/form-data)
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var req dto.SubmitRegistrationRequest
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
			return
		}
		bindError(c, err)
		return
	}

	photo, err := photoFromForm(c)
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
			return
		}
		response.FieldError(c, 10001, photoField, "Passport photograph could not be read")
		return
	}

	result, err := h.submissionSvc.Submit(c.Request.Context(), &req, photo)
	if err != nil {
		h.handleSubmitError(c, err)
		return
	}

	response.Created(c, result)
}

// photoFromForm returns nil when no file part was sent
func photoFromForm(c *gin.Context) (*imaging.File, error) {
	fh, err := c.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return &imaging.File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (h *RegistrationHandler) handleSubmitError(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		pe *service.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		response.FieldError(c, 10001, ve.Field, ve.Message)
	case errors.Is(err, service.ErrPhotoEncoding):
		response.Error(c, http.StatusUnprocessableEntity, 20001, photoMessage(err))
	case errors.As(err, &pe):
		response.Error(c, persistenceStatus(pe.Kind), 20002, pe.UserMessage())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

func photoMessage(err error) string {
	switch {
	case errors.Is(err, imaging.ErrFileTooLarge):
		return "Photo must be less than 5MB"
	case errors.Is(err, imaging.ErrNotImage):
		return "Please select a valid image file"
	case errors.Is(err, imaging.ErrImageTooLarge):
		return "Image is too large even after compression. Please use a smaller image."
	default:
		return "Failed to load image"
	}
}

func persistenceStatus(kind service.PersistenceKind) int {
	switch kind {
	case service.PersistenceUnavailable, service.PersistenceTimeout,
		service.PersistenceNetwork, service.PersistenceQuota:
		return http.StatusServiceUnavailable
	case service.PersistenceOversized:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
