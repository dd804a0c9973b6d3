package models

import "time"

// P5Project is a Projek Penguatan Profil Pelajar Pancasila entry scoped to an
// academic year and semester.
type P5Project struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Semester       Semester  `db:"semester" json:"semester"`
	Name           string    `db:"name" json:"name"`
	Dimension      string    `db:"dimension" json:"dimension"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// P5Assessment records a student's achievement on one project.
type P5Assessment struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	ProjectID   string          `db:"project_id" json:"project_id"`
	Level       CompetencyLevel `db:"level" json:"level"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// P5Row is an assessment joined with its parent project.
type P5Row struct {
	ProjectName string          `db:"project_name" json:"project_name"`
	Dimension   string          `db:"dimension" json:"dimension"`
	Level       CompetencyLevel `db:"level" json:"level"`
	Description string          `db:"description" json:"description"`
}
