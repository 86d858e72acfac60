package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByAccountID(ctx context.Context, accountID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// StudentService manages student profiles.
type StudentService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// EnsureProfile returns the student profile for an account, creating it
// on first access.
func (s *StudentService) EnsureProfile(ctx context.Context, accountID, email string) (*models.Student, error) {
	student, err := s.repo.FindByAccountID(ctx, accountID)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	student = &models.Student{AccountID: accountID, Email: email}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
	}
	s.logger.Info("student profile created", zap.String("account_id", accountID))
	return student, nil
}

// FindByID loads a student by id.
func (s *StudentService) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
