package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type subjectRepository interface {
	ListBySection(ctx context.Context, classSection string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByName(ctx context.Context, classSection, name string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	DeleteCascade(ctx context.Context, subjectID string) error
}

// AddSubjectRequest describes subject creation.
type AddSubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// SubjectService manages the per-section subject registry.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns a class section's subjects, alphabetical by name.
func (s *SubjectService) List(ctx context.Context, classSection string) ([]models.Subject, error) {
	subjects, err := s.repo.ListBySection(ctx, classSection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Add creates a subject after checking for a (class_section, name)
// collision.
func (s *SubjectService) Add(ctx context.Context, classSection string, req AddSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject name is required")
	}

	exists, err := s.repo.ExistsByName(ctx, classSection, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "subject might already exist for this class")
	}

	subject := &models.Subject{ClassSection: classSection, Name: name}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Delete removes a subject and, first, every timetable cell referencing
// it. The ownership check compares the subject's class section against
// the caller's.
func (s *SubjectService) Delete(ctx context.Context, classSection, subjectID string) error {
	subject, err := s.repo.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.ClassSection != classSection {
		return appErrors.Clone(appErrors.ErrForbidden, "subject belongs to another class")
	}

	if err := s.repo.DeleteCascade(ctx, subjectID); err != nil {
		s.logger.Error("subject cascade delete failed",
			zap.String("subject_id", subjectID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPartialCascade.Code, appErrors.ErrPartialCascade.Status, "failed to delete subject and its timetable cells")
	}
	return nil
}
