package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/service"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// TimetableHandler exposes the weekly grid endpoints.
type TimetableHandler struct {
	service  *service.TimetableService
	teachers teacherResolver
}

// NewTimetableHandler creates a new handler.
func NewTimetableHandler(svc *service.TimetableService, teachers teacherResolver) *TimetableHandler {
	return &TimetableHandler{service: svc, teachers: teachers}
}

// GetOwn godoc
// @Summary Get own timetable grid
// @Description Return the authenticated teacher's weekly grid
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable [get]
func (h *TimetableHandler) GetOwn(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	grid, err := h.service.GetGrid(c.Request.Context(), section)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grid, nil)
}

// GetBySection godoc
// @Summary Get a class section's timetable grid
// @Description Return the weekly grid of the named class section
// @Tags Timetable
// @Produce json
// @Param section path string true "Class section"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{section}/timetable [get]
func (h *TimetableHandler) GetBySection(c *gin.Context) {
	grid, err := h.service.GetGrid(c.Request.Context(), c.Param("section"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grid, nil)
}

// SetCell godoc
// @Summary Assign a subject to a slot
// @Description Set one day/period cell of the teacher's grid to a subject
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.SetCellRequest true "Cell payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable/cell [put]
func (h *TimetableHandler) SetCell(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell payload"))
		return
	}

	if err := h.service.SetCell(c.Request.Context(), section, req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ClearCell godoc
// @Summary Clear a slot
// @Description Remove the subject assigned to one day/period cell
// @Tags Timetable
// @Produce json
// @Param day query int true "Day (1-5)"
// @Param period query int true "Period (1-8)"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable/cell [delete]
func (h *TimetableHandler) ClearCell(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	day, err := strconv.Atoi(c.Query("day"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be an integer"))
		return
	}
	period, err := strconv.Atoi(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be an integer"))
		return
	}

	if err := h.service.ClearCell(c.Request.Context(), section, day, period); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// BulkSave godoc
// @Summary Replace the whole grid
// @Description Replace every cell of the teacher's grid with the supplied assignments
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.BulkSaveRequest true "Grid payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable [put]
func (h *TimetableHandler) BulkSave(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.BulkSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grid payload"))
		return
	}

	if err := h.service.BulkSave(c.Request.Context(), section, req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
