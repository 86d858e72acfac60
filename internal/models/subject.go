package models

import "time"

// Subject belongs to one class section and is referenced by timetable
// cells. Deleting a subject removes referencing cells first.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	ClassSection string    `db:"class_section" json:"class_section"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
