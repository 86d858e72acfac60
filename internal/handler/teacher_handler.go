package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/middleware"
	"github.com/deens-academy/timetable-api/internal/service"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// TeacherHandler exposes the teacher profile and lifecycle endpoints.
type TeacherHandler struct {
	service *service.TeacherService
}

// NewTeacherHandler creates a new handler.
func NewTeacherHandler(svc *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// Me godoc
// @Summary Current teacher profile
// @Description Return the teacher profile of the authenticated account
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/me [get]
func (h *TeacherHandler) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	teacher, err := h.service.ProfileByAccount(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, teacher, nil)
}

// Unregister godoc
// @Summary Remove teacher and owned data
// @Description Delete the teacher's timetable, subjects and profile, then deactivate the account
// @Tags Teachers
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/me [delete]
func (h *TeacherHandler) Unregister(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Unregister(c.Request.Context(), claims.AccountID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
