package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// AcademicYearRepository reads academic year master data.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository constructs repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// FindByID fetches one academic year by primary key.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, name, start_date, end_date, is_active, created_at, updated_at
        FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindActive returns the single active academic year. Callers resolve this
// once at the request boundary and pass the id down explicitly.
func (r *AcademicYearRepository) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	const query = `SELECT id, name, start_date, end_date, is_active, created_at, updated_at
        FROM academic_years WHERE is_active = true ORDER BY start_date DESC LIMIT 1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		return nil, err
	}
	return &year, nil
}
