package models

import "time"

// TimetableChange is an append-only record of a single grid mutation.
// OldSubjectID is nil for a fill, NewSubjectID is nil for a clear.
type TimetableChange struct {
	ID           int64     `db:"id" json:"id"`
	ClassSection string    `db:"class_section" json:"class_section"`
	Day          int       `db:"day" json:"day"`
	Period       int       `db:"period" json:"period"`
	OldSubjectID *string   `db:"old_subject_id" json:"old_subject_id,omitempty"`
	NewSubjectID *string   `db:"new_subject_id" json:"new_subject_id,omitempty"`
	ChangedAt    time.Time `db:"changed_at" json:"changed_at"`
}

// TimetableChangeDetail resolves subject ids to names for display.
type TimetableChangeDetail struct {
	TimetableChange
	OldSubjectName *string `db:"old_subject_name" json:"old_subject_name,omitempty"`
	NewSubjectName *string `db:"new_subject_name" json:"new_subject_name,omitempty"`
}

// EmailNotification is one queued outbound notification. Rows are
// consumed and deleted by the drain; there is no sent flag.
type EmailNotification struct {
	ID               int64     `db:"id" json:"id"`
	ClassSection     string    `db:"class_section" json:"class_section"`
	ChangeSummary    string    `db:"change_summary" json:"change_summary"`
	NotificationLink string    `db:"notification_link" json:"notification_link"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// DrainResult reports one notification drain pass. Processed counts
// drained queue records; Sent counts unique recipients actually mailed.
type DrainResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
}
