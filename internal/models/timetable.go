package models

import "time"

// Weekly grid bounds. Day 1 is Monday; weekday names exist only at the
// presentation/export boundary.
const (
	MinDay    = 1
	MaxDay    = 5
	MinPeriod = 1
	MaxPeriod = 8
)

// WeekdayName maps a canonical day number to its English name.
func WeekdayName(day int) string {
	names := [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	if day < MinDay || day > MaxDay {
		return ""
	}
	return names[day-1]
}

// ValidSlot reports whether (day, period) is inside the weekly grid.
func ValidSlot(day, period int) bool {
	return day >= MinDay && day <= MaxDay && period >= MinPeriod && period <= MaxPeriod
}

// TimetableCell is one occupied slot of a class section's weekly grid.
// At most one row exists per (class_section, day, period); a missing row
// means the slot is empty.
type TimetableCell struct {
	ID           string    `db:"id" json:"id"`
	ClassSection string    `db:"class_section" json:"class_section"`
	Day          int       `db:"day" json:"day"`
	Period       int       `db:"period" json:"period"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableCellDetail is a cell joined with its subject name.
type TimetableCellDetail struct {
	TimetableCell
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// GridEntry is the per-slot payload of a rendered grid.
type GridEntry struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
}

// Grid maps day -> period -> entry. Absent keys are empty slots.
type Grid map[int]map[int]GridEntry

// Entry returns the entry at (day, period) and whether the slot is occupied.
func (g Grid) Entry(day, period int) (GridEntry, bool) {
	periods, ok := g[day]
	if !ok {
		return GridEntry{}, false
	}
	entry, ok := periods[period]
	return entry, ok
}

// Set stores an entry at (day, period).
func (g Grid) Set(day, period int, entry GridEntry) {
	periods, ok := g[day]
	if !ok {
		periods = make(map[int]GridEntry)
		g[day] = periods
	}
	periods[period] = entry
}
