package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// ReportAttendanceRepository reads the denormalised absence summary rows.
type ReportAttendanceRepository struct {
	db *sqlx.DB
}

// NewReportAttendanceRepository constructs repository.
func NewReportAttendanceRepository(db *sqlx.DB) *ReportAttendanceRepository {
	return &ReportAttendanceRepository{db: db}
}

// FindByKey returns the single summary row for the snapshot key. Callers
// treat sql.ErrNoRows as "all counts zero".
func (r *ReportAttendanceRepository) FindByKey(ctx context.Context, key models.ReportCardKey) (*models.ReportAttendance, error) {
	const query = `SELECT id, student_id, classroom_id, academic_year_id, semester, sick, permission, absent, created_at, updated_at
        FROM report_attendances
        WHERE student_id = $1 AND classroom_id = $2 AND academic_year_id = $3 AND semester = $4`
	var attendance models.ReportAttendance
	if err := r.db.GetContext(ctx, &attendance, query, key.StudentID, key.ClassroomID, key.AcademicYearID, key.Semester); err != nil {
		return nil, err
	}
	return &attendance, nil
}
