package models

import "time"

// Teacher owns exactly one class section. class_section and login_handle
// are unique across teachers; both are checked before insert rather than
// enforced by the registration flow transactionally.
type Teacher struct {
	ID           string    `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	LoginHandle  string    `db:"login_handle" json:"login_handle"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Email        string    `db:"email" json:"email"`
	ClassSection string    `db:"class_section" json:"class_section"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
