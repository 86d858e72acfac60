package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/service"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// NotificationHandler exposes the change log and the email drain.
type NotificationHandler struct {
	service  *service.NotifierService
	teachers teacherResolver
}

// NewNotificationHandler creates a new handler.
func NewNotificationHandler(svc *service.NotifierService, teachers teacherResolver) *NotificationHandler {
	return &NotificationHandler{service: svc, teachers: teachers}
}

// ListChanges godoc
// @Summary List timetable changes
// @Description List recent timetable changes of the teacher's class section
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/changes [get]
func (h *NotificationHandler) ListChanges(c *gin.Context) {
	section, err := ownedSection(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	changes, err := h.service.ListChanges(c.Request.Context(), section, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, changes, nil)
}

// ListPending godoc
// @Summary List queued notifications
// @Description List email notification records waiting to be drained
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/pending [get]
func (h *NotificationHandler) ListPending(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, pending, nil)
}

// Drain godoc
// @Summary Drain the notification queue
// @Description Send one change alert per distinct recipient and clear the queue
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/drain [post]
func (h *NotificationHandler) Drain(c *gin.Context) {
	result, err := h.service.Drain(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
