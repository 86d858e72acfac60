package models

import "time"

// Registration records a student's membership in a class section.
type Registration struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	ClassSection string    `db:"class_section" json:"class_section"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

// RegistrationDetail is a registration joined with the owning teacher's
// display name.
type RegistrationDetail struct {
	Registration
	TeacherName string `json:"teacher_name"`
}

// AvailableClass describes a registrable class section.
type AvailableClass struct {
	ClassSection string `db:"class_section" json:"class_section"`
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
}
