package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// ClassroomRepository reads classroom master data with level and year
// metadata resolved.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// FindByID fetches a classroom joined with its level (curriculum track) and
// academic year name.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.ClassroomDetail, error) {
	const query = `SELECT c.id, c.name, c.level_id, c.academic_year_id, c.scheme, c.teacher_name,
            c.created_at, c.updated_at,
            l.name AS level_name, l.track,
            ay.name AS academic_year_name
        FROM classrooms c
        JOIN levels l ON l.id = c.level_id
        JOIN academic_years ay ON ay.id = c.academic_year_id
        WHERE c.id = $1`
	var detail models.ClassroomDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}
