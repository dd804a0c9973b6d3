package models

import "time"

// ScoreCategory is a global grading bucket (Tugas, UTS, UAS, ...).
// Weight is recorded for each category but the report aggregation uses a
// plain mean; see ReportCard aggregation.
type ScoreCategory struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Score holds a single 0-100 value for the
// (student, subject, classroom, academic year, category) tuple. At most one
// row exists per tuple; re-submission updates in place.
type Score struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	ClassroomID    string    `db:"classroom_id" json:"classroom_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	CategoryID     string    `db:"category_id" json:"category_id"`
	Value          float64   `db:"value" json:"value"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreRow is a score joined with subject and category names for aggregation.
type ScoreRow struct {
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	CategoryName string  `db:"category_name" json:"category_name"`
	Value        float64 `db:"value" json:"value"`
}
