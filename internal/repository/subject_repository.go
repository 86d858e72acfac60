package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deens-academy/timetable-api/internal/models"
)

// SubjectRepository handles persistence of subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListBySection returns a class section's subjects sorted by name.
func (r *SubjectRepository) ListBySection(ctx context.Context, classSection string) ([]models.Subject, error) {
	const query = `SELECT id, class_section, name, created_at FROM subjects
        WHERE class_section = $1 ORDER BY name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, classSection); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by its ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, class_section, name, created_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByName reports whether the class section already has a subject
// with the given name.
func (r *SubjectRepository) ExistsByName(ctx context.Context, classSection, name string) (bool, error) {
	const query = `SELECT 1 FROM subjects WHERE class_section = $1 AND name = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classSection, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return true, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, class_section, name, created_at)
        VALUES (:id, :class_section, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// DeleteCascade removes a subject and every timetable cell referencing it,
// cells first, inside one transaction.
func (r *SubjectRepository) DeleteCascade(ctx context.Context, subjectID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable WHERE subject_id = $1`, subjectID); err != nil {
		return fmt.Errorf("cascade delete timetable cells: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, subjectID); err != nil {
		return fmt.Errorf("cascade delete subject: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject cascade: %w", err)
	}
	return nil
}
