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

// RegistrationRepository handles persistence of student registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ListByStudent returns a student's registrations, oldest first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	const query = `SELECT id, student_id, class_section, registered_at FROM student_registrations
        WHERE student_id = $1 ORDER BY registered_at`
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// ExistsByStudent reports whether the student holds any registration.
func (r *RegistrationRepository) ExistsByStudent(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM student_registrations WHERE student_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// ExistsByStudentAndSection reports whether the student is registered to
// the given class section.
func (r *RegistrationRepository) ExistsByStudentAndSection(ctx context.Context, studentID, classSection string) (bool, error) {
	const query = `SELECT 1 FROM student_registrations WHERE student_id = $1 AND class_section = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classSection); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// Create persists a new registration.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.RegisteredAt.IsZero() {
		registration.RegisteredAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_registrations (id, student_id, class_section, registered_at)
        VALUES (:id, :student_id, :class_section, :registered_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// Delete removes the student's registration for a class section. No-op
// when absent.
func (r *RegistrationRepository) Delete(ctx context.Context, studentID, classSection string) error {
	const query = `DELETE FROM student_registrations WHERE student_id = $1 AND class_section = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, classSection); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

// ListEmailsBySection resolves the emails of every student registered to
// a class section. Feeds the notification drain.
func (r *RegistrationRepository) ListEmailsBySection(ctx context.Context, classSection string) ([]string, error) {
	const query = `SELECT s.email FROM student_registrations sr
        JOIN students s ON s.id = sr.student_id
        WHERE sr.class_section = $1 ORDER BY s.email`
	var emails []string
	if err := r.db.SelectContext(ctx, &emails, query, classSection); err != nil {
		return nil, fmt.Errorf("list registered emails: %w", err)
	}
	return emails, nil
}
