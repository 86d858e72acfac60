package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/deens-academy/timetable-api/internal/models"
)

// NotificationRepository handles the timetable change log and the email
// notification queue.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateChange appends one change record.
func (r *NotificationRepository) CreateChange(ctx context.Context, change *models.TimetableChange) error {
	if change.ChangedAt.IsZero() {
		change.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_changes (class_section, day, period, old_subject_id, new_subject_id, changed_at)
        VALUES (:class_section, :day, :period, :old_subject_id, :new_subject_id, :changed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, change); err != nil {
		return fmt.Errorf("create change record: %w", err)
	}
	return nil
}

// ListChanges returns recent change records, newest first, with subject
// names resolved. classSection narrows the result when non-empty.
func (r *NotificationRepository) ListChanges(ctx context.Context, classSection string, limit int) ([]models.TimetableChangeDetail, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT c.id, c.class_section, c.day, c.period, c.old_subject_id, c.new_subject_id, c.changed_at,
        old_s.name AS old_subject_name, new_s.name AS new_subject_name
        FROM timetable_changes c
        LEFT JOIN subjects old_s ON old_s.id = c.old_subject_id
        LEFT JOIN subjects new_s ON new_s.id = c.new_subject_id`
	var args []interface{}
	if classSection != "" {
		query += ` WHERE c.class_section = $1`
		args = append(args, classSection)
	}
	query += fmt.Sprintf(` ORDER BY c.id DESC LIMIT %d`, limit)

	var changes []models.TimetableChangeDetail
	if err := r.db.SelectContext(ctx, &changes, query, args...); err != nil {
		return nil, fmt.Errorf("list change records: %w", err)
	}
	return changes, nil
}

// Enqueue adds one email notification record.
func (r *NotificationRepository) Enqueue(ctx context.Context, notification *models.EmailNotification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO email_notifications (class_section, change_summary, notification_link, created_at)
        VALUES (:class_section, :change_summary, :notification_link, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// ListPending returns every queued notification, oldest id first.
func (r *NotificationRepository) ListPending(ctx context.Context) ([]models.EmailNotification, error) {
	const query = `SELECT id, class_section, change_summary, notification_link, created_at
        FROM email_notifications ORDER BY id`
	var pending []models.EmailNotification
	if err := r.db.SelectContext(ctx, &pending, query); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return pending, nil
}

// DeleteByIDs removes drained notification records.
func (r *NotificationRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM email_notifications WHERE id IN (%s)`, strings.Join(placeholders, ","))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete drained notifications: %w", err)
	}
	return nil
}
