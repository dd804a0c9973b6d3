package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// P5Repository reads project-based assessments with their parent projects.
type P5Repository struct {
	db *sqlx.DB
}

// NewP5Repository constructs repository.
func NewP5Repository(db *sqlx.DB) *P5Repository {
	return &P5Repository{db: db}
}

// ListForReport returns the student's project assessments for the year and
// semester, each carrying the parent project's name and dimension.
func (r *P5Repository) ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.P5Row, error) {
	const query = `SELECT p.name AS project_name, p.dimension, pa.level, pa.description
        FROM p5_assessments pa
        JOIN p5_projects p ON p.id = pa.project_id
        WHERE pa.student_id = $1 AND p.academic_year_id = $2 AND p.semester = $3
        ORDER BY p.start_date, p.name`
	var rows []models.P5Row
	if err := r.db.SelectContext(ctx, &rows, query, studentID, academicYearID, semester); err != nil {
		return nil, fmt.Errorf("list p5 assessments: %w", err)
	}
	return rows, nil
}
