package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// ExtracurricularRepository reads extracurricular assessments.
type ExtracurricularRepository struct {
	db *sqlx.DB
}

// NewExtracurricularRepository constructs repository.
func NewExtracurricularRepository(db *sqlx.DB) *ExtracurricularRepository {
	return &ExtracurricularRepository{db: db}
}

// ListForReport returns the student's activity assessments for the year and
// semester, joined with activity names.
func (r *ExtracurricularRepository) ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.ExtracurricularRow, error) {
	const query = `SELECT a.name AS activity_name, ea.level, ea.description
        FROM extracurricular_assessments ea
        JOIN extracurricular_activities a ON a.id = ea.activity_id
        WHERE ea.student_id = $1 AND ea.academic_year_id = $2 AND ea.semester = $3
        ORDER BY a.name`
	var rows []models.ExtracurricularRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, academicYearID, semester); err != nil {
		return nil, fmt.Errorf("list extracurricular assessments: %w", err)
	}
	return rows, nil
}
