package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByAccountID(ctx context.Context, accountID string) (*models.Teacher, error)
	FindByClassSection(ctx context.Context, classSection string) (*models.Teacher, error)
	DeleteCascade(ctx context.Context, teacherID, classSection string) error
}

type accountDeactivator interface {
	Deactivate(ctx context.Context, id string) error
	RevokeAccountRefreshTokens(ctx context.Context, accountID string) error
}

// TeacherService manages teacher profiles and the unregister cascade.
type TeacherService struct {
	repo     teacherRepository
	accounts accountDeactivator
	logger   *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, accounts accountDeactivator, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, accounts: accounts, logger: logger}
}

// ProfileByAccount returns the teacher profile owned by an account.
func (s *TeacherService) ProfileByAccount(ctx context.Context, accountID string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// FindByClassSection returns the teacher owning a class section.
func (s *TeacherService) FindByClassSection(ctx context.Context, classSection string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByClassSection(ctx, classSection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Unregister removes a teacher and everything owned by its class
// section: timetable cells, then subjects, then the teacher row, in one
// transaction. The account is deactivated afterwards and its sessions
// revoked.
func (s *TeacherService) Unregister(ctx context.Context, accountID string) error {
	teacher, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if err := s.repo.DeleteCascade(ctx, teacher.ID, teacher.ClassSection); err != nil {
		s.logger.Error("teacher cascade delete failed",
			zap.String("teacher_id", teacher.ID),
			zap.String("class_section", teacher.ClassSection),
			zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPartialCascade.Code, appErrors.ErrPartialCascade.Status, "failed to delete class data")
	}

	if err := s.accounts.RevokeAccountRefreshTokens(ctx, accountID); err != nil {
		s.logger.Warn("failed to revoke sessions after unregister", zap.Error(err))
	}
	if err := s.accounts.Deactivate(ctx, accountID); err != nil {
		s.logger.Warn("failed to deactivate account after unregister", zap.Error(err))
	}

	s.logger.Info("teacher unregistered",
		zap.String("teacher_id", teacher.ID),
		zap.String("class_section", teacher.ClassSection))
	return nil
}
