package models

import "time"

// AttendanceStatus is the per-session status recorded for a student.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "h"
	AttendanceSick    AttendanceStatus = "s"
	AttendanceExcused AttendanceStatus = "i"
	AttendanceAbsent  AttendanceStatus = "a"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceSick, AttendanceExcused, AttendanceAbsent:
		return true
	default:
		return false
	}
}

// ReportAttendance is the denormalised absence summary consumed by report
// generation, maintained separately from per-session attendance items.
type ReportAttendance struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassroomID    string    `db:"classroom_id" json:"classroom_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Semester       Semester  `db:"semester" json:"semester"`
	Sick           int       `db:"sick" json:"sick"`
	Permission     int       `db:"permission" json:"permission"`
	Absent         int       `db:"absent" json:"absent"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceSummary is the attendance block embedded in merdeka snapshots.
type AttendanceSummary struct {
	Sick       int `json:"sick"`
	Permission int `json:"permission"`
	Absent     int `json:"absent"`
}
