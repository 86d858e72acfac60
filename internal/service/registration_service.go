package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	"github.com/deens-academy/timetable-api/pkg/config"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type registrationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error)
	ExistsByStudent(ctx context.Context, studentID string) (bool, error)
	ExistsByStudentAndSection(ctx context.Context, studentID, classSection string) (bool, error)
	Create(ctx context.Context, registration *models.Registration) error
	Delete(ctx context.Context, studentID, classSection string) error
}

type classReader interface {
	FindByClassSection(ctx context.Context, classSection string) (*models.Teacher, error)
	ListClasses(ctx context.Context) ([]models.AvailableClass, error)
}

// RegistrationService manages the student <-> class section ledger.
type RegistrationService struct {
	repo     registrationRepository
	teachers classReader
	policy   config.RegistrationConfig
	logger   *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(repo registrationRepository, teachers classReader, policy config.RegistrationConfig, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, teachers: teachers, policy: policy, logger: logger}
}

// Register adds a student to a class section. Under the single-class
// policy a student holding any registration is rejected.
func (s *RegistrationService) Register(ctx context.Context, studentID, classSection string) (*models.Registration, error) {
	if _, err := s.teachers.FindByClassSection(ctx, classSection); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	registered, err := s.repo.ExistsByStudentAndSection(ctx, studentID, classSection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if registered {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "already registered for this class")
	}

	if s.policy.SingleClass {
		any, err := s.repo.ExistsByStudent(ctx, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
		}
		if any {
			return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "you can register for only one class; unregister first")
		}
	}

	registration := &models.Registration{StudentID: studentID, ClassSection: classSection}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register")
	}
	return registration, nil
}

// Unregister removes the student's registration for a class section.
// No-op when the registration does not exist.
func (s *RegistrationService) Unregister(ctx context.Context, studentID, classSection string) error {
	if err := s.repo.Delete(ctx, studentID, classSection); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unregister")
	}
	return nil
}

// ListAvailableClasses returns every class section with its teacher,
// regardless of the caller's registration state.
func (s *RegistrationService) ListAvailableClasses(ctx context.Context) ([]models.AvailableClass, error) {
	classes, err := s.teachers.ListClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// ListRegistered returns the student's registrations with teacher names
// resolved per row. The per-row lookup is a known N+1; fine at this
// scale.
func (s *RegistrationService) ListRegistered(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	registrations, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}

	details := make([]models.RegistrationDetail, 0, len(registrations))
	for _, registration := range registrations {
		detail := models.RegistrationDetail{Registration: registration}
		teacher, err := s.teachers.FindByClassSection(ctx, registration.ClassSection)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher")
			}
			s.logger.Warn("registration references a class with no teacher",
				zap.String("class_section", registration.ClassSection))
		} else {
			detail.TeacherName = teacher.DisplayName
		}
		details = append(details, detail)
	}
	return details, nil
}
