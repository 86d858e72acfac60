package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type mockSubjectRepo struct {
	subjects   map[string]*models.Subject
	cascaded   []string
	cascadeErr error
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*models.Subject)}
}

func (m *mockSubjectRepo) ListBySection(ctx context.Context, classSection string) ([]models.Subject, error) {
	var list []models.Subject
	for _, subject := range m.subjects {
		if subject.ClassSection == classSection {
			list = append(list, *subject)
		}
	}
	return list, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := m.subjects[id]; ok {
		cp := *subject
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByName(ctx context.Context, classSection, name string) (bool, error) {
	for _, subject := range m.subjects {
		if subject.ClassSection == classSection && subject.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "generated"
	}
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) DeleteCascade(ctx context.Context, subjectID string) error {
	if m.cascadeErr != nil {
		return m.cascadeErr
	}
	m.cascaded = append(m.cascaded, subjectID)
	delete(m.subjects, subjectID)
	return nil
}

func TestSubjectServiceAdd(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	subject, err := service.Add(context.Background(), "Grade 6 A", AddSubjectRequest{Name: "  Math  "})
	require.NoError(t, err)
	assert.Equal(t, "Math", subject.Name)
	assert.Equal(t, "Grade 6 A", subject.ClassSection)
}

func TestSubjectServiceAddDuplicateName(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	_, err := service.Add(context.Background(), "Grade 6 A", AddSubjectRequest{Name: "Math"})
	require.NoError(t, err)

	_, err = service.Add(context.Background(), "Grade 6 A", AddSubjectRequest{Name: "Math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)

	// Same name in a different section is fine.
	_, err = service.Add(context.Background(), "Grade 7 B", AddSubjectRequest{Name: "Math"})
	require.NoError(t, err)
}

func TestSubjectServiceAddBlankName(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	_, err := service.Add(context.Background(), "Grade 6 A", AddSubjectRequest{Name: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeleteCascades(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	subject, err := service.Add(context.Background(), "Grade 6 A", AddSubjectRequest{Name: "Math"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), "Grade 6 A", subject.ID))
	assert.Equal(t, []string{subject.ID}, repo.cascaded)
}

func TestSubjectServiceDeleteForeignSubject(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	subject, err := service.Add(context.Background(), "Grade 7 B", AddSubjectRequest{Name: "Urdu"})
	require.NoError(t, err)

	err = service.Delete(context.Background(), "Grade 6 A", subject.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.cascaded)
}

func TestSubjectServiceDeleteMissing(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	err := service.Delete(context.Background(), "Grade 6 A", "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeleteCascadeFailure(t *testing.T) {
	repo := newMockSubjectRepo()
	service := NewSubjectService(repo, nil, zap.NewNop())

	subject, err := service.Add(context.Background(), "Grade 6 A", AddSubjectRequest{Name: "Math"})
	require.NoError(t, err)

	repo.cascadeErr = errors.New("connection reset")
	err = service.Delete(context.Background(), "Grade 6 A", subject.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPartialCascade.Code, appErrors.FromError(err).Code)
}
