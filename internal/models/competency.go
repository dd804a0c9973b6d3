package models

import "time"

// CompetencyLevel is the qualitative achievement scale of the merdeka track.
type CompetencyLevel string

const (
	CompetencyBB  CompetencyLevel = "BB"  // belum berkembang
	CompetencyMB  CompetencyLevel = "MB"  // mulai berkembang
	CompetencyBSH CompetencyLevel = "BSH" // berkembang sesuai harapan
	CompetencySB  CompetencyLevel = "SB"  // sangat berkembang
)

// Valid returns true when the level is a supported value.
func (l CompetencyLevel) Valid() bool {
	switch l {
	case CompetencyBB, CompetencyMB, CompetencyBSH, CompetencySB:
		return true
	default:
		return false
	}
}

// CompetencyAssessment records one qualitative assessment per
// (student, subject, academic year, semester).
type CompetencyAssessment struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	SubjectID      string          `db:"subject_id" json:"subject_id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	Semester       Semester        `db:"semester" json:"semester"`
	Level          CompetencyLevel `db:"level" json:"level"`
	Description    string          `db:"description" json:"description"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CompetencyRow is an assessment joined with the subject name.
type CompetencyRow struct {
	SubjectName string          `db:"subject_name" json:"subject_name"`
	Level       CompetencyLevel `db:"level" json:"level"`
	Description string          `db:"description" json:"description"`
}
