package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deens-academy/timetable-api/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, account_id, email, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByAccountID returns the student profile for an account.
func (r *StudentRepository) FindByAccountID(ctx context.Context, accountID string) (*models.Student, error) {
	const query = `SELECT id, account_id, email, created_at FROM students WHERE account_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, accountID); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, account_id, email, created_at)
        VALUES (:id, :account_id, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
