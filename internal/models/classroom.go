package models

import "time"

// CurriculumTrack selects which report-card scheme a classroom follows.
type CurriculumTrack string

const (
	TrackConventional CurriculumTrack = "conventional"
	TrackMerdeka      CurriculumTrack = "merdeka"
)

// Valid returns true when the track is a supported value.
func (t CurriculumTrack) Valid() bool {
	return t == TrackConventional || t == TrackMerdeka
}

// TeachingScheme describes how teaching is organised; orthogonal to the
// curriculum track.
type TeachingScheme string

const (
	SchemeClassTeacher   TeachingScheme = "class_teacher"
	SchemeSubjectTeacher TeachingScheme = "subject_teacher"
)

// Level groups classrooms by grade band (Paket A/B/C tingkatan) and carries
// the curriculum track its classrooms inherit.
type Level struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Track     CurriculumTrack `db:"track" json:"track"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Classroom belongs to one level and one academic year.
type Classroom struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	LevelID        string         `db:"level_id" json:"level_id"`
	AcademicYearID string         `db:"academic_year_id" json:"academic_year_id"`
	Scheme         TeachingScheme `db:"scheme" json:"scheme"`
	TeacherName    string         `db:"teacher_name" json:"teacher_name"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassroomDetail extends a classroom with resolved level and year metadata.
type ClassroomDetail struct {
	Classroom
	LevelName        string          `db:"level_name" json:"level_name"`
	Track            CurriculumTrack `db:"track" json:"track"`
	AcademicYearName string          `db:"academic_year_name" json:"academic_year_name"`
}
