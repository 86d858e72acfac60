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

// TeacherRepository handles persistence of teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, account_id, login_handle, display_name, email, class_section, created_at`

// FindByID returns a teacher by its ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByAccountID returns the teacher owned by an account.
func (r *TeacherRepository) FindByAccountID(ctx context.Context, accountID string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE account_id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, accountID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByClassSection returns the teacher owning a class section.
func (r *TeacherRepository) FindByClassSection(ctx context.Context, classSection string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE class_section = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, classSection); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByLoginHandle resolves a login handle to its teacher.
func (r *TeacherRepository) FindByLoginHandle(ctx context.Context, handle string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE login_handle = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, handle); err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) existsWhere(ctx context.Context, column, value string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM teachers WHERE %s = $1 LIMIT 1`, column)
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check teacher %s: %w", column, err)
	}
	return true, nil
}

// ExistsByClassSection reports whether any teacher owns the class section.
func (r *TeacherRepository) ExistsByClassSection(ctx context.Context, classSection string) (bool, error) {
	return r.existsWhere(ctx, "class_section", classSection)
}

// ExistsByLoginHandle reports whether the login handle is taken.
func (r *TeacherRepository) ExistsByLoginHandle(ctx context.Context, handle string) (bool, error) {
	return r.existsWhere(ctx, "login_handle", handle)
}

// ExistsByEmail reports whether a teacher already uses the email.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsWhere(ctx, "email", email)
}

// Create persists a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, account_id, login_handle, display_name, email, class_section, created_at)
        VALUES (:id, :account_id, :login_handle, :display_name, :email, :class_section, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// ListClasses returns every class section with its teacher's display name.
func (r *TeacherRepository) ListClasses(ctx context.Context) ([]models.AvailableClass, error) {
	const query = `SELECT class_section, display_name AS teacher_name FROM teachers ORDER BY class_section`
	var classes []models.AvailableClass
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// DeleteCascade removes a teacher together with the class section's
// timetable cells and subjects, in that order, inside one transaction.
// Either everything goes or nothing does.
func (r *TeacherRepository) DeleteCascade(ctx context.Context, teacherID, classSection string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin teacher cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable WHERE class_section = $1`, classSection); err != nil {
		return fmt.Errorf("cascade delete timetable cells: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE class_section = $1`, classSection); err != nil {
		return fmt.Errorf("cascade delete subjects: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, teacherID); err != nil {
		return fmt.Errorf("cascade delete teacher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit teacher cascade: %w", err)
	}
	return nil
}
