package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	"github.com/deens-academy/timetable-api/pkg/config"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type mockRegistrationRepo struct {
	registrations []models.Registration
}

func (m *mockRegistrationRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	var list []models.Registration
	for _, r := range m.registrations {
		if r.StudentID == studentID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockRegistrationRepo) ExistsByStudent(ctx context.Context, studentID string) (bool, error) {
	for _, r := range m.registrations {
		if r.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRegistrationRepo) ExistsByStudentAndSection(ctx context.Context, studentID, classSection string) (bool, error) {
	for _, r := range m.registrations {
		if r.StudentID == studentID && r.ClassSection == classSection {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = "generated"
	}
	m.registrations = append(m.registrations, *registration)
	return nil
}

func (m *mockRegistrationRepo) Delete(ctx context.Context, studentID, classSection string) error {
	kept := m.registrations[:0]
	for _, r := range m.registrations {
		if r.StudentID == studentID && r.ClassSection == classSection {
			continue
		}
		kept = append(kept, r)
	}
	m.registrations = kept
	return nil
}

type mockClassReader struct {
	teachers map[string]*models.Teacher
}

func (m *mockClassReader) FindByClassSection(ctx context.Context, classSection string) (*models.Teacher, error) {
	if teacher, ok := m.teachers[classSection]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassReader) ListClasses(ctx context.Context) ([]models.AvailableClass, error) {
	var classes []models.AvailableClass
	for section, teacher := range m.teachers {
		classes = append(classes, models.AvailableClass{ClassSection: section, TeacherName: teacher.DisplayName})
	}
	return classes, nil
}

func newRegistrationFixture(singleClass bool) (*RegistrationService, *mockRegistrationRepo) {
	repo := &mockRegistrationRepo{}
	teachers := &mockClassReader{teachers: map[string]*models.Teacher{
		"Grade 6 A": {ID: "t1", DisplayName: "Ms. Khan", ClassSection: "Grade 6 A"},
		"Grade 7 B": {ID: "t2", DisplayName: "Mr. Iqbal", ClassSection: "Grade 7 B"},
	}}
	policy := config.RegistrationConfig{SingleClass: singleClass}
	return NewRegistrationService(repo, teachers, policy, zap.NewNop()), repo
}

func TestRegistrationServiceRegister(t *testing.T) {
	service, repo := newRegistrationFixture(true)

	registration, err := service.Register(context.Background(), "st1", "Grade 6 A")
	require.NoError(t, err)
	assert.Equal(t, "Grade 6 A", registration.ClassSection)
	assert.Len(t, repo.registrations, 1)
}

func TestRegistrationServiceRegisterUnknownClass(t *testing.T) {
	service, _ := newRegistrationFixture(true)

	_, err := service.Register(context.Background(), "st1", "Grade 9 Z")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterTwiceSameClass(t *testing.T) {
	service, _ := newRegistrationFixture(true)

	_, err := service.Register(context.Background(), "st1", "Grade 6 A")
	require.NoError(t, err)

	_, err = service.Register(context.Background(), "st1", "Grade 6 A")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceSingleClassPolicy(t *testing.T) {
	service, _ := newRegistrationFixture(true)

	_, err := service.Register(context.Background(), "st1", "Grade 6 A")
	require.NoError(t, err)

	_, err = service.Register(context.Background(), "st1", "Grade 7 B")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErrors.FromError(err).Code)

	// Unregistering frees the student to pick another class.
	require.NoError(t, service.Unregister(context.Background(), "st1", "Grade 6 A"))
	_, err = service.Register(context.Background(), "st1", "Grade 7 B")
	require.NoError(t, err)
}

func TestRegistrationServiceMultiClassWhenPolicyOff(t *testing.T) {
	service, repo := newRegistrationFixture(false)

	_, err := service.Register(context.Background(), "st1", "Grade 6 A")
	require.NoError(t, err)
	_, err = service.Register(context.Background(), "st1", "Grade 7 B")
	require.NoError(t, err)
	assert.Len(t, repo.registrations, 2)
}

func TestRegistrationServiceUnregisterAbsentIsNoOp(t *testing.T) {
	service, _ := newRegistrationFixture(true)

	require.NoError(t, service.Unregister(context.Background(), "st1", "Grade 6 A"))
}

func TestRegistrationServiceListRegisteredResolvesTeacherNames(t *testing.T) {
	service, _ := newRegistrationFixture(false)

	_, err := service.Register(context.Background(), "st1", "Grade 6 A")
	require.NoError(t, err)

	details, err := service.ListRegistered(context.Background(), "st1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Ms. Khan", details[0].TeacherName)
}

func TestRegistrationServiceListAvailableClasses(t *testing.T) {
	service, _ := newRegistrationFixture(true)

	classes, err := service.ListAvailableClasses(context.Background())
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}
