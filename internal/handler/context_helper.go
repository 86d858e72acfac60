package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/middleware"
	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type teacherResolver interface {
	ProfileByAccount(ctx context.Context, accountID string) (*models.Teacher, error)
}

// ownedSection resolves the authenticated teacher's class section.
func ownedSection(c *gin.Context, teachers teacherResolver) (string, error) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	teacher, err := teachers.ProfileByAccount(c.Request.Context(), claims.AccountID)
	if err != nil {
		return "", err
	}
	return teacher.ClassSection, nil
}
