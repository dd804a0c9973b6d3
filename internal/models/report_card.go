package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportCardStatus captures the snapshot workflow state.
type ReportCardStatus string

const (
	ReportCardDraft     ReportCardStatus = "draft"
	ReportCardFinalized ReportCardStatus = "finalized"
)

// Valid returns true when the status is a supported value.
func (s ReportCardStatus) Valid() bool {
	return s == ReportCardDraft || s == ReportCardFinalized
}

// SubjectScore is one aggregated per-subject average on the conventional
// track.
type SubjectScore struct {
	SubjectName string  `json:"subject_name"`
	Score       float64 `json:"score"`
}

// MerdekaBlock is the aggregated content of a merdeka-track snapshot.
type MerdekaBlock struct {
	Competencies    []CompetencyRow      `json:"competencies"`
	P5              []P5Row              `json:"p5"`
	Extracurricular []ExtracurricularRow `json:"extracurricular"`
	Attendance      AttendanceSummary    `json:"attendance"`
}

// ScoreDocument is the snapshot score payload. It is a tagged union: the
// track decides whether Subjects or Merdeka carries the content. Persisted
// as JSONB.
type ScoreDocument struct {
	Track    CurriculumTrack `json:"track"`
	Subjects []SubjectScore  `json:"subjects,omitempty"`
	Merdeka  *MerdekaBlock   `json:"merdeka,omitempty"`
}

// Value marshals the document to JSON for persistence.
func (d ScoreDocument) Value() (driver.Value, error) {
	if d.Track == TrackConventional && d.Subjects == nil {
		d.Subjects = []SubjectScore{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal score document: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the document.
func (d *ScoreDocument) Scan(value interface{}) error {
	if value == nil {
		*d = ScoreDocument{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ScoreDocument", value)
	}
	if len(data) == 0 {
		*d = ScoreDocument{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal score document: %w", err)
	}
	return nil
}

// ReportCardKey is the natural composite key of one snapshot.
type ReportCardKey struct {
	StudentID      string   `json:"student_id"`
	ClassroomID    string   `json:"classroom_id"`
	AcademicYearID string   `json:"academic_year_id"`
	Semester       Semester `json:"semester"`
}

// ReportCard is the persisted aggregation snapshot. Exactly one row exists
// per key; generation overwrites scores/gpa in full, never merges.
type ReportCard struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassroomID    string           `db:"classroom_id" json:"classroom_id"`
	AcademicYearID string           `db:"academic_year_id" json:"academic_year_id"`
	Semester       Semester         `db:"semester" json:"semester"`
	Scores         ScoreDocument    `db:"scores" json:"scores"`
	GPA            float64          `db:"gpa" json:"gpa"`
	TeacherNote    *string          `db:"teacher_note" json:"teacher_note,omitempty"`
	PrincipalNote  *string          `db:"principal_note" json:"principal_note,omitempty"`
	CharacterNote  *string          `db:"character_note" json:"character_note,omitempty"`
	Status         ReportCardStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// Key returns the snapshot's natural key.
func (r *ReportCard) Key() ReportCardKey {
	return ReportCardKey{
		StudentID:      r.StudentID,
		ClassroomID:    r.ClassroomID,
		AcademicYearID: r.AcademicYearID,
		Semester:       r.Semester,
	}
}

// ReportCardNotes carries the optional free-text fields supplied on
// generation.
type ReportCardNotes struct {
	TeacherNote   *string `json:"teacher_note,omitempty"`
	PrincipalNote *string `json:"principal_note,omitempty"`
	CharacterNote *string `json:"character_note,omitempty"`
}

// ReportCardRecapRow is one classroom recap line: the snapshot joined with
// student identity.
type ReportCardRecapRow struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	NIS         string           `db:"nis" json:"nis"`
	GPA         float64          `db:"gpa" json:"gpa"`
	Status      ReportCardStatus `db:"status" json:"status"`
	Scores      ScoreDocument    `db:"scores" json:"scores"`
}

// BatchGenerateResult summarises a classroom-wide generation run.
type BatchGenerateResult struct {
	Generated []string `json:"generated"`
	Skipped   []string `json:"skipped,omitempty"`
}
