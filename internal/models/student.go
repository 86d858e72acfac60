package models

import "time"

// Student is created lazily on first dashboard access for an account and
// never deleted in-band.
type Student struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
