package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/middleware"
	"github.com/deens-academy/timetable-api/internal/models"
	"github.com/deens-academy/timetable-api/internal/service"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// RegistrationHandler exposes class registration endpoints for students.
type RegistrationHandler struct {
	service  *service.RegistrationService
	students *service.StudentService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService, students *service.StudentService) *RegistrationHandler {
	return &RegistrationHandler{service: svc, students: students}
}

func (h *RegistrationHandler) currentStudent(c *gin.Context) (*models.Student, error) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return h.students.EnsureProfile(c.Request.Context(), claims.AccountID, claims.Email)
}

// ListClasses godoc
// @Summary List available classes
// @Description List every class section together with its teacher's name
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [get]
func (h *RegistrationHandler) ListClasses(c *gin.Context) {
	classes, err := h.service.ListAvailableClasses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, classes, nil)
}

// List godoc
// @Summary List own registrations
// @Description List the classes the authenticated student is registered for
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	student, err := h.currentStudent(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	registrations, err := h.service.ListRegistered(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registrations, nil)
}

// Register godoc
// @Summary Register for a class
// @Description Register the authenticated student for a class section
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body object{class_section=string} true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	student, err := h.currentStudent(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var payload struct {
		ClassSection string `json:"class_section" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "class_section required"))
		return
	}

	registration, err := h.service.Register(c.Request.Context(), student.ID, payload.ClassSection)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, registration)
}

// Unregister godoc
// @Summary Unregister from a class
// @Description Remove the authenticated student's registration for a class section
// @Tags Registrations
// @Produce json
// @Param section path string true "Class section"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations/{section} [delete]
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	student, err := h.currentStudent(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Unregister(c.Request.Context(), student.ID, c.Param("section")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
