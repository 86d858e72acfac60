package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deens-academy/timetable-api/internal/models"
)

// TimetableRepository handles persistence of timetable grid cells.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListBySection returns every occupied cell of a class section joined
// with its subject name.
func (r *TimetableRepository) ListBySection(ctx context.Context, classSection string) ([]models.TimetableCellDetail, error) {
	const query = `SELECT t.id, t.class_section, t.day, t.period, t.subject_id, t.created_at, t.updated_at,
        s.name AS subject_name
        FROM timetable t
        JOIN subjects s ON s.id = t.subject_id
        WHERE t.class_section = $1
        ORDER BY t.day, t.period`
	var cells []models.TimetableCellDetail
	if err := r.db.SelectContext(ctx, &cells, query, classSection); err != nil {
		return nil, fmt.Errorf("list timetable cells: %w", err)
	}
	return cells, nil
}

// FindBySlot returns the cell occupying (class_section, day, period).
// sql.ErrNoRows means the slot is empty.
func (r *TimetableRepository) FindBySlot(ctx context.Context, classSection string, day, period int) (*models.TimetableCell, error) {
	const query = `SELECT id, class_section, day, period, subject_id, created_at, updated_at
        FROM timetable WHERE class_section = $1 AND day = $2 AND period = $3`
	var cell models.TimetableCell
	if err := r.db.GetContext(ctx, &cell, query, classSection, day, period); err != nil {
		return nil, err
	}
	return &cell, nil
}

// Create inserts a new cell row.
func (r *TimetableRepository) Create(ctx context.Context, cell *models.TimetableCell) error {
	if cell.ID == "" {
		cell.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cell.CreatedAt = now
	cell.UpdatedAt = now
	const query = `INSERT INTO timetable (id, class_section, day, period, subject_id, created_at, updated_at)
        VALUES (:id, :class_section, :day, :period, :subject_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cell); err != nil {
		return fmt.Errorf("create timetable cell: %w", err)
	}
	return nil
}

// UpdateSubject repoints an occupied cell at a different subject.
func (r *TimetableRepository) UpdateSubject(ctx context.Context, id, subjectID string) error {
	const query = `UPDATE timetable SET subject_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, subjectID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update timetable cell: %w", err)
	}
	return nil
}

// Delete removes a cell row by id.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable cell: %w", err)
	}
	return nil
}

// DeleteBySection removes every cell of a class section. First half of
// the replace-style bulk save.
func (r *TimetableRepository) DeleteBySection(ctx context.Context, classSection string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable WHERE class_section = $1`, classSection); err != nil {
		return fmt.Errorf("delete section timetable: %w", err)
	}
	return nil
}

// CreateBatch inserts the full set of cells for a section. Second half of
// the replace-style bulk save; runs after DeleteBySection with no
// surrounding transaction, so a failure here leaves the section empty.
func (r *TimetableRepository) CreateBatch(ctx context.Context, cells []models.TimetableCell) error {
	if len(cells) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range cells {
		if cells[i].ID == "" {
			cells[i].ID = uuid.NewString()
		}
		cells[i].CreatedAt = now
		cells[i].UpdatedAt = now
	}
	const query = `INSERT INTO timetable (id, class_section, day, period, subject_id, created_at, updated_at)
        VALUES (:id, :class_section, :day, :period, :subject_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cells); err != nil {
		return fmt.Errorf("batch create timetable cells: %w", err)
	}
	return nil
}
