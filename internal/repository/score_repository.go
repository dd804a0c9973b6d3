package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// ScoreRepository reads conventional-track raw scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListForReport returns all score rows for the student/classroom/year scope
// joined with subject and category names. Scores carry no semester column,
// so the scope is the whole year.
func (r *ScoreRepository) ListForReport(ctx context.Context, studentID, classroomID, academicYearID string) ([]models.ScoreRow, error) {
	const query = `SELECT sc.subject_id, sub.name AS subject_name, cat.name AS category_name, sc.value
        FROM scores sc
        JOIN subjects sub ON sub.id = sc.subject_id
        JOIN score_categories cat ON cat.id = sc.category_id
        WHERE sc.student_id = $1 AND sc.classroom_id = $2 AND sc.academic_year_id = $3
        ORDER BY sub.name, cat.name`
	var rows []models.ScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, classroomID, academicYearID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return rows, nil
}
