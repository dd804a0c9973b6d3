package models

import "time"

// Semester identifies the half of an academic year a record belongs to.
type Semester string

const (
	SemesterGanjil Semester = "ganjil"
	SemesterGenap  Semester = "genap"
)

// Valid returns true when the semester is a supported value.
func (s Semester) Valid() bool {
	return s == SemesterGanjil || s == SemesterGenap
}

// AcademicYear models one school year (e.g. "2024/2025").
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
