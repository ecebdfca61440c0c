package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/service"
	"hogis-registration/pkg/response"
)

// ExportHandler registration downloads
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Export registrations as CSV or XLSX
// GET /api/v1/admin/export?container=all&format=csv&q=
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	out, err := h.exportSvc.Export(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(out.FileName))
	c.Header("X-Export-Rows", strconv.Itoa(out.Rows))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportContainer):
		response.BadRequest(c, 22001, err.Error())
	case errors.Is(err, service.ErrExportFormat):
		response.BadRequest(c, 22002, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
