package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// CompetencyRepository reads merdeka-track competency assessments.
type CompetencyRepository struct {
	db *sqlx.DB
}

// NewCompetencyRepository constructs repository.
func NewCompetencyRepository(db *sqlx.DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

// ListForReport returns competency rows for the student scoped to year and
// semester, joined with subject names.
func (r *CompetencyRepository) ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.CompetencyRow, error) {
	const query = `SELECT sub.name AS subject_name, ca.level, ca.description
        FROM competency_assessments ca
        JOIN subjects sub ON sub.id = ca.subject_id
        WHERE ca.student_id = $1 AND ca.academic_year_id = $2 AND ca.semester = $3
        ORDER BY sub.name`
	var rows []models.CompetencyRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, academicYearID, semester); err != nil {
		return nil, fmt.Errorf("list competency assessments: %w", err)
	}
	return rows, nil
}
