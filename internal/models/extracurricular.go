package models

import "time"

// ExtracurricularActivity is a catalog entry (Pramuka, Futsal, ...).
type ExtracurricularActivity struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Coach     string    `db:"coach" json:"coach"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ExtracurricularAssessment records a student's achievement in one activity
// for a period.
type ExtracurricularAssessment struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	ActivityID     string          `db:"activity_id" json:"activity_id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	Semester       Semester        `db:"semester" json:"semester"`
	Level          CompetencyLevel `db:"level" json:"level"`
	Description    string          `db:"description" json:"description"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ExtracurricularRow is an assessment joined with the activity name.
type ExtracurricularRow struct {
	ActivityName string          `db:"activity_name" json:"activity_name"`
	Level        CompetencyLevel `db:"level" json:"level"`
	Description  string          `db:"description" json:"description"`
}
