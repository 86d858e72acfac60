package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/service"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// ExportHandler streams timetable exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Timetable godoc
// @Summary Export a class section's timetable
// @Description Render the weekly grid as PDF or CSV
// @Tags Exports
// @Produce application/pdf
// @Produce text/csv
// @Param section path string true "Class section"
// @Param format query string false "pdf or csv (default pdf)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{section}/timetable/export [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	result, err := h.service.Timetable(c.Request.Context(), c.Param("section"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Data)
}
