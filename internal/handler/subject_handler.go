package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/service"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// SubjectHandler exposes the per-section subject registry.
type SubjectHandler struct {
	service  *service.SubjectService
	teachers teacherResolver
}

// NewSubjectHandler creates a new handler.
func NewSubjectHandler(svc *service.SubjectService, teachers teacherResolver) *SubjectHandler {
	return &SubjectHandler{service: svc, teachers: teachers}
}

// List godoc
// @Summary List subjects of own class section
// @Description List the authenticated teacher's subjects ordered by name
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	subjects, err := h.service.List(c.Request.Context(), section)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subjects, nil)
}

// Create godoc
// @Summary Add a subject
// @Description Add a subject to the authenticated teacher's class section
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.AddSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}

	subject, err := h.service.Add(c.Request.Context(), section, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, subject)
}

// Delete godoc
// @Summary Delete a subject
// @Description Delete a subject and every timetable cell that references it
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), section, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
